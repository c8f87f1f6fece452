package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatherhub/gatherly/internal/auth"
	"github.com/gatherhub/gatherly/internal/http/respond"
	"github.com/gatherhub/gatherly/internal/middleware"
	"github.com/gatherhub/gatherly/internal/models"
	"github.com/gatherhub/gatherly/internal/models/dto"
	"github.com/gatherhub/gatherly/internal/storage"
)

// AuthHandler owns signup, login, and profile endpoints.
type AuthHandler struct {
	store    storage.UserStore
	tokens   *auth.TokenManager
	validate *validator.Validate
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(store storage.UserStore, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{
		store:    store,
		tokens:   tokens,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /auth/signup", h.handleSignup)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.Handle("PATCH /auth/update-profile", protect(http.HandlerFunc(h.handleUpdateProfile)))
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, http.StatusBadRequest, signupValidationMessage(err))
		return
	}

	if _, err := h.store.FindUserByEmail(r.Context(), req.Email); err == nil {
		respond.Error(w, http.StatusConflict, "email already registered")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Printf("signup: lookup email: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if _, err := h.store.FindUserByUsername(r.Context(), req.Username); err == nil {
		respond.Error(w, http.StatusConflict, "username already taken")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Printf("signup: lookup username: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	created, err := h.store.CreateUser(r.Context(), models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "user already exists")
			return
		}
		log.Printf("signup: create user: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := h.tokens.Generate(created)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusCreated, dto.AuthResponse{
		Message:     "User created",
		AccessToken: token,
		User:        created,
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.store.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Printf("login: fetch user %s: %v", req.Email, err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, dto.AuthResponse{
		Message:     "Login successful",
		AccessToken: token,
		User:        user,
	})
}

func (h *AuthHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		respond.Error(w, http.StatusUnprocessableEntity, "username cannot be empty")
		return
	}

	if _, err := h.store.FindUserByID(r.Context(), claims.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("update profile: fetch user %d: %v", claims.UserID, err)
		respond.Error(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	updated, err := h.store.UpdateUsername(r.Context(), claims.UserID, username)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusUnprocessableEntity, "username already taken")
			return
		}
		log.Printf("update profile: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	respond.JSON(w, http.StatusOK, dto.ProfileResponse{Message: "Profile updated", User: updated})
}

func signupValidationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fieldErr := range fieldErrs {
			if fieldErr.Tag() == "email" {
				return "invalid email address"
			}
		}
	}
	return "username, email, and password are required"
}
