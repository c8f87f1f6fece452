package models

import "time"

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserSummary is the embedded creator/owner shape returned inside events and tickets.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Summary projects the fields safe to embed in another resource.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}
