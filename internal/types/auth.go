package types

import "time"

// User is the public view of an account.
type User struct {
	ID        int64     `json:"id" example:"1"`
	Email     string    `json:"email" example:"ada@example.com"`
	Name      string    `json:"name" example:"Ada"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserAuth is a user row including the bcrypt hash. Never serialized.
type UserAuth struct {
	User
	PasswordHash string `json:"-"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// RegisterRequest is the register body.
type RegisterRequest struct {
	Email    string `json:"email" example:"ada@example.com"`
	Name     string `json:"name" example:"Ada"`
	Password string `json:"password" example:"secret1"`
}

// LoginRequest is the login body.
type LoginRequest struct {
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"secret1"`
}

// Identity is the verified token payload attached to a request.
type Identity struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}
