package user

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Role is the access level assigned to a user. Administrator access is a
// strict superset of operator access, so a third role can be added later
// without rewriting every permission check.
type Role string

const (
	RoleOperator      Role = "OPERATOR"
	RoleAdministrator Role = "ADMINISTRATOR"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOperator:
		return RoleOperator, nil
	case RoleAdministrator:
		return RoleAdministrator, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	return r == RoleOperator || r == RoleAdministrator
}

// Includes reports whether r grants at least the access level of other.
func (r Role) Includes(other Role) bool {
	if r == other {
		return true
	}
	return r == RoleAdministrator && other == RoleOperator
}

func (r Role) String() string { return string(r) }

// User is the persistent identity record. Username is unique and immutable
// after creation; PasswordHash is always a bcrypt hash, never plaintext.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdministrator
}

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("duplicate username")
)

// Store is the persistence contract for user records. Insert must evaluate
// the uniqueness check and the write atomically with respect to concurrent
// inserts of the same username: exactly one of two racing registrations may
// succeed. NextID must never hand out the same id twice for the lifetime of
// the store, even after deletions.
type Store interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	Exists(ctx context.Context, username string) (bool, error)
	Insert(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	NextID(ctx context.Context) (int64, error)
}
