package postgres

import (
	"context"
	"errors"
	"time"

	userDatamodel "github.com/frahmantamala/user-access-management/internal/core/datamodel/user"
	"github.com/frahmantamala/user-access-management/internal/user"
	"gorm.io/gorm"
)

// Store implements user.Store on top of gorm. The users table carries a
// unique index on username, so duplicate inserts surface as a constraint
// violation rather than a check-then-act race. Requires gorm's
// TranslateError option so constraint violations map to ErrDuplicatedKey
// on both postgres and sqlite.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var row userDatamodel.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return fromDataModel(&row), nil
}

func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("username = ?", username).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Insert(ctx context.Context, u *user.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	row := toDataModel(u)
	err := s.db.WithContext(ctx).Create(row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return user.ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (s *Store) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("username = ?", u.Username).
		Updates(map[string]any{
			"password_hash": u.PasswordHash,
			"role":          string(u.Role),
			"updated_at":    u.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}

// NextID bumps the single-row allocator table atomically. RETURNING is
// supported by postgres and by sqlite 3.35+.
func (s *Store) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.WithContext(ctx).
		Raw("UPDATE user_id_seq SET last_id = last_id + 1 RETURNING last_id").
		Scan(&id).Error
	if err != nil {
		return 0, err
	}
	return id, nil
}

func toDataModel(u *user.User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		IsActive:     true,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func fromDataModel(row *userDatamodel.User) *user.User {
	return &user.User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		Role:         user.Role(row.Role),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
