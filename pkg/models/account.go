package models

import "time"

// Account holds the credentials behind an identity. Profiles live in the
// store under users/<id>; accounts never leave the server.
type Account struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// RegisterRequest
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
}

// LoginRequest
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse
type LoginResponse struct {
	Token     string   `json:"token"`
	User      AuthUser `json:"user"`
	ExpiresIn int      `json:"expires_in"` // seconds
}
