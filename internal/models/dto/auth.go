package dto

import "github.com/gatherhub/gatherly/internal/models"

type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Message     string      `json:"message"`
	AccessToken string      `json:"access_token"`
	User        models.User `json:"user"`
}

type UpdateProfileRequest struct {
	Username string `json:"username"`
}

type ProfileResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}
