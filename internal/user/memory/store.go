// Package memory provides an in-process UserStore backed by a mutex-protected
// map. It is the development and test store; production deployments use the
// SQL store with the same contract.
package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/user-access-management/internal/user"
)

type Store struct {
	mu     sync.Mutex
	users  map[string]user.User
	nextID atomic.Int64
}

func New() *Store {
	return &Store{users: make(map[string]user.User)}
}

// Seed loads existing records, advancing the id allocator past the highest
// seeded id so it never re-issues one of them.
func (s *Store) Seed(users ...user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.users[u.Username] = u
		for {
			cur := s.nextID.Load()
			if u.ID <= cur || s.nextID.CompareAndSwap(cur, u.ID) {
				break
			}
		}
	}
}

func (s *Store) GetByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, user.ErrNotFound
	}
	// copy so callers cannot mutate the stored record
	return &u, nil
}

func (s *Store) Exists(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	return ok, nil
}

func (s *Store) Insert(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return user.ErrDuplicateUsername
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.users[u.Username] = *u
	return nil
}

func (s *Store) Update(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; !ok {
		return user.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	s.users[u.Username] = *u
	return nil
}

func (s *Store) NextID(_ context.Context) (int64, error) {
	return s.nextID.Add(1), nil
}
