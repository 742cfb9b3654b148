// Package userservice manages registered library users.
package userservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/datdd/library-management-system/domain"
	"github.com/datdd/library-management-system/storage"
)

// Service exposes the user operations over one storage backend.
type Service struct {
	store storage.Store
}

// NewService builds a user service over the given backend.
func NewService(store storage.Store) (*Service, error) {
	if store == nil {
		return nil, errors.Join(domain.ErrInvalidArgument, storage.ErrNilStore)
	}

	return &Service{store: store}, nil
}

// AddUser registers a new user. A duplicate user id is rejected.
func (s *Service) AddUser(ctx context.Context, userID domain.EntityID, name string) (domain.User, error) {
	existing, err := s.store.LoadUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if existing != nil {
		return domain.User{}, errors.Join(domain.ErrOperationFailed, fmt.Errorf("user with id %s already exists", userID))
	}

	user, err := domain.NewUser(userID, name)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.store.SaveUser(ctx, user); err != nil {
		return domain.User{}, err
	}

	return user, nil
}

// FindUserByID returns the user or ErrNotFound.
func (s *Service) FindUserByID(ctx context.Context, userID domain.EntityID) (domain.User, error) {
	user, err := s.store.LoadUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, errors.Join(domain.ErrNotFound, fmt.Errorf("user with id %s not found", userID))
	}

	return *user, nil
}

// RenameUser updates the name of one user.
func (s *Service) RenameUser(ctx context.Context, userID domain.EntityID, name string) (domain.User, error) {
	user, err := s.FindUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	renamed, err := user.WithName(name)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.store.SaveUser(ctx, renamed); err != nil {
		return domain.User{}, err
	}

	return renamed, nil
}

// DeleteUser removes one user. Deleting an unknown id is a no-op,
// matching the storage contract.
func (s *Service) DeleteUser(ctx context.Context, userID domain.EntityID) error {
	if userID == "" {
		return errors.Join(domain.ErrInvalidArgument, errors.New("user id cannot be empty"))
	}

	return s.store.DeleteUser(ctx, userID)
}

// ListAllUsers returns every registered user.
func (s *Service) ListAllUsers(ctx context.Context) ([]*domain.User, error) {
	return s.store.LoadAllUsers(ctx)
}
