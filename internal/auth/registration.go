package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/user-access-management/internal/user"
	"github.com/frahmantamala/user-access-management/pkg/logger"
)

// RegistrationService creates new users on behalf of an administrator.
type RegistrationService struct {
	store  user.Store
	hasher PasswordHasher
	logger *slog.Logger
}

func NewRegistrationService(store user.Store, hasher PasswordHasher) *RegistrationService {
	return &RegistrationService{
		store:  store,
		hasher: hasher,
		logger: logger.LoggerWrapper(),
	}
}

// Register validates the acting principal, hashes the password, allocates an
// id and persists the record. Uniqueness is enforced by the store's atomic
// insert, not a separate check, so two racing registrations of one username
// cannot both succeed. On any failure no record is left behind.
func (s *RegistrationService) Register(ctx context.Context, acting Principal, dto RegisterDTO) (*user.User, error) {
	if !acting.IsAdmin() {
		s.logger.Warn("registration denied: acting principal is not an administrator",
			"acting_username", acting.Username)
		return nil, ErrAccessDenied
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}
	role, err := user.ParseRole(dto.Role)
	if err != nil {
		return nil, ValidationError{Msg: err.Error()}
	}

	secret := []byte(dto.Password)
	defer wipe(secret)

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.store.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate user id: %w", err)
	}

	u := &user.User{
		ID:           id,
		Username:     dto.Username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.store.Insert(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		"username", u.Username,
		"role", u.Role.String(),
		"registered_by", acting.Username)
	return u, nil
}
