package dto

import "time"

// AdminLoginRequest is the dashboard login payload.
type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned after a successful login.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
