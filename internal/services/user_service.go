package services

import (
	"context"
	"fmt"
	"strings"

	"atlas/internal/core"
	"atlas/internal/storage"
)

type UserPatch struct {
	Name  *string
	Email *string
	Role  *core.Role
}

// UserService manages dashboard users. Users are not mirrored.
type UserService struct {
	store storage.UserStore
}

func NewUserService(store storage.UserStore) *UserService {
	return &UserService{store: store}
}

func normalizeUser(u *core.User) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
}

func (s *UserService) Create(ctx context.Context, u core.User) (core.User, error) {
	normalizeUser(&u)
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("save user: %w", err)
	}
	return created, nil
}

func (s *UserService) Get(ctx context.Context, id string) (core.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *UserService) List(ctx context.Context, f storage.UserFilter) ([]core.User, error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, core.ErrInvalidRole
	}
	return s.store.ListUsers(ctx, f)
}

func (s *UserService) Update(ctx context.Context, id string, patch UserPatch) (core.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	normalizeUser(&u)
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	updated, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteUser(ctx, id)
}
