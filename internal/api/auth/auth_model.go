package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Messages returned to clients.
const (
	msgEmailRequired      = "Email is required."
	msgPasswordRequired   = "Password is required."
	msgInvalidEmail       = "Valid email is required."
	msgNameTooShort       = "Name must be at least 2 characters."
	msgPasswordTooShort   = "Password must be at least 6 characters."
	msgEmailTaken         = "Email already registered."
	msgInvalidCredentials = "Invalid credentials."
	msgUserNotFound       = "User not found."
	msgMissingAuthHeader  = "Missing or invalid authorization header."
	msgInvalidToken       = "Invalid or expired token."
)

const (
	minNameLength     = 2
	minPasswordLength = 6
)

// Claims is the signed token payload.
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
