package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/user-access-management/internal/user"
	"github.com/frahmantamala/user-access-management/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Service resolves credentials to a Principal.
type Service struct {
	store  user.Store
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(store user.Store, hasher PasswordHasher) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		logger: logger.LoggerWrapper(),
	}
}

// Authenticate verifies username/password against the store and returns an
// authenticated Principal. The plaintext is wiped before return on every
// path and is never retained in the Principal.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	secret := []byte(password)
	defer wipe(secret)

	ok, err := s.hasher.Verify(secret, u.PasswordHash)
	if err != nil {
		if errors.Is(err, ErrCorruptCredential) {
			// data-integrity problem, not a wrong password; log loudly
			s.logger.Error("stored password hash is unreadable", "username", username)
		}
		return nil, err
	}
	if !ok {
		return nil, ErrBadCredential
	}

	return &Principal{
		Username:      u.Username,
		Role:          u.Role,
		Authenticated: true,
	}, nil
}

// JWTTokenGenerator issues HS256 session tokens carrying the principal.
type JWTTokenGenerator struct {
	Secret     []byte
	SessionTTL time.Duration
}

func NewJWTTokenGenerator(secret string, sessionTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		Secret:     []byte(secret),
		SessionTTL: sessionTTL,
	}
}

func (j *JWTTokenGenerator) GenerateSessionToken(p Principal) (SessionToken, error) {
	if !p.Authenticated {
		return SessionToken{}, ErrAccessDenied
	}
	now := time.Now()
	expiresAt := now.Add(j.SessionTTL)

	claims := &Claims{
		Username: p.Username,
		Role:     p.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.Secret)
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, ExpiresAt: expiresAt}, nil
}

func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// PrincipalFromClaims rebuilds the request principal from validated session
// token claims.
func PrincipalFromClaims(c *Claims) (Principal, error) {
	role, err := user.ParseRole(c.Role)
	if err != nil {
		return Anonymous(), ErrInvalidToken
	}
	return Principal{
		Username:      c.Username,
		Role:          role,
		Authenticated: true,
	}, nil
}
