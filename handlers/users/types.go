package users

import "time"

// Error messages constants
const (
	ErrInvalidRequest = "Invalid request data"
	ErrExportFailed   = "Failed to build participants export"
)

// SaveUserRequest is the body of POST /save-user
type SaveUserRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// RoleResponse answers GET /user-role/:email
type RoleResponse struct {
	Role string `json:"role"`
}

// TokenRequest is the body of POST /jwt; issuedAt and signature are the sign-in provider's proof for email
type TokenRequest struct {
	Email     string `json:"email" binding:"required,email"`
	IssuedAt  int64  `json:"issuedAt"`
	Signature string `json:"signature"`
}

// TokenResponse carries a signed bearer token
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
