package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUserNotFound  = errors.New("user not found")
	ErrBadCredential = errors.New("bad credential")
	ErrAccessDenied  = errors.New("access denied")

	// ErrCorruptCredential means the stored hash could not be parsed. It is
	// a data-integrity failure and is never collapsed into ErrBadCredential.
	ErrCorruptCredential = errors.New("corrupt credential")

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// PasswordHasher is the one-way credential transformation. Plaintext is
// passed as a byte slice so callers can zero it after use.
type PasswordHasher interface {
	Hash(plaintext []byte) (string, error)
	Verify(plaintext []byte, hashValue string) (bool, error)
}

// TokenGenerator issues and validates the session tokens the web layer
// carries between requests.
type TokenGenerator interface {
	GenerateSessionToken(p Principal) (SessionToken, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims are the session token claims: enough to rebuild a Principal
// without a store round trip.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type SessionToken struct {
	Token     string    `json:"session_token"`
	ExpiresAt time.Time `json:"expires_at"`
}
