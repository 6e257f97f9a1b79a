// Package memory is a process-local store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"atlas/internal/core"
	"atlas/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	now     func() time.Time
	orders  map[string]core.Order
	capital map[string]core.CapitalEntry
	users   map[string]core.User
}

func New() *Store {
	return &Store{
		now:     func() time.Time { return time.Now().UTC() },
		orders:  make(map[string]core.Order),
		capital: make(map[string]core.CapitalEntry),
		users:   make(map[string]core.User),
	}
}

// WithClock replaces the time source; used by tests that assert ordering.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateOrder(_ context.Context, o core.Order) (core.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	o.ID = uuid.NewString()
	o.CreatedAt, o.UpdatedAt = now, now
	s.orders[o.ID] = o
	return o, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (core.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return core.Order{}, fmt.Errorf("get order %s: %w", id, core.ErrNotFound)
	}
	return o, nil
}

func (s *Store) ListOrders(_ context.Context, f storage.OrderFilter) ([]core.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Order{}
	for _, o := range s.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateOrder(_ context.Context, o core.Order) (core.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.orders[o.ID]
	if !ok {
		return core.Order{}, fmt.Errorf("order %s: %w", o.ID, core.ErrNotFound)
	}
	o.CreatedAt = prev.CreatedAt
	o.UpdatedAt = s.now()
	s.orders[o.ID] = o
	return o, nil
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return fmt.Errorf("order %s: %w", id, core.ErrNotFound)
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) CreateCapitalEntry(_ context.Context, e core.CapitalEntry) (core.CapitalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e.ID = uuid.NewString()
	e.CreatedAt, e.UpdatedAt = now, now
	s.capital[e.ID] = e
	return e, nil
}

func (s *Store) GetCapitalEntry(_ context.Context, id string) (core.CapitalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.capital[id]
	if !ok {
		return core.CapitalEntry{}, fmt.Errorf("get capital entry %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (s *Store) ListCapitalEntries(_ context.Context, f storage.CapitalFilter) ([]core.CapitalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.CapitalEntry{}
	for _, e := range s.capital {
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateCapitalEntry(_ context.Context, e core.CapitalEntry) (core.CapitalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.capital[e.ID]
	if !ok {
		return core.CapitalEntry{}, fmt.Errorf("capital entry %s: %w", e.ID, core.ErrNotFound)
	}
	e.CreatedAt = prev.CreatedAt
	e.UpdatedAt = s.now()
	s.capital[e.ID] = e
	return e, nil
}

func (s *Store) DeleteCapitalEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.capital[id]; !ok {
		return fmt.Errorf("capital entry %s: %w", id, core.ErrNotFound)
	}
	delete(s.capital, id)
	return nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(u.Email, "") {
		return core.User{}, fmt.Errorf("create user %s: %w", u.Email, core.ErrDuplicateEmail)
	}
	now := s.now()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("get user %s: %w", id, core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context, f storage.UserFilter) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.User{}
	for _, u := range s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.users[u.ID]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", u.ID, core.ErrNotFound)
	}
	if s.emailTaken(u.Email, u.ID) {
		return core.User{}, fmt.Errorf("update user %s: %w", u.ID, core.ErrDuplicateEmail)
	}
	u.CreatedAt = prev.CreatedAt
	u.UpdatedAt = s.now()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	delete(s.users, id)
	return nil
}

// emailTaken must be called with s.mu held.
func (s *Store) emailTaken(email, exceptID string) bool {
	for id, u := range s.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
