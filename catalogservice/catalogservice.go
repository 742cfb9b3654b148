// Package catalogservice manages the library catalog: books and the
// authors they share. The service validates first and delegates
// persistence to the storage contract.
package catalogservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/datdd/library-management-system/domain"
	"github.com/datdd/library-management-system/storage"
)

// Service exposes the catalog operations over one storage backend.
type Service struct {
	store storage.Store
}

// NewService builds a catalog service over the given backend.
func NewService(store storage.Store) (*Service, error) {
	if store == nil {
		return nil, errors.Join(domain.ErrInvalidArgument, storage.ErrNilStore)
	}

	return &Service{store: store}, nil
}

// AddBook creates a book under the given author, reusing the stored
// author row when one with the same id already exists so every book by
// that author shares the one reference. A duplicate item id is rejected.
func (s *Service) AddBook(
	ctx context.Context,
	itemID domain.EntityID,
	title string,
	authorID domain.EntityID,
	authorName string,
	isbn string,
	year int,
) (*domain.LibraryItem, error) {

	existing, err := s.store.LoadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Join(domain.ErrOperationFailed, fmt.Errorf("item with id %s already exists", itemID))
	}

	author, err := s.getOrCreateAuthor(ctx, authorID, authorName)
	if err != nil {
		return nil, err
	}

	book, err := domain.NewBook(itemID, title, author, isbn, year)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveItem(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

// RemoveItem deletes one item from the catalog. Removing an unknown id is
// a no-op, matching the storage contract.
func (s *Service) RemoveItem(ctx context.Context, itemID domain.EntityID) error {
	if itemID == "" {
		return errors.Join(domain.ErrInvalidArgument, errors.New("item id cannot be empty"))
	}

	return s.store.DeleteItem(ctx, itemID)
}

// FindItemByID returns the item or ErrNotFound.
func (s *Service) FindItemByID(ctx context.Context, itemID domain.EntityID) (*domain.LibraryItem, error) {
	item, err := s.store.LoadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("item with id %s not found", itemID))
	}

	return item, nil
}

// FindItemsByTitle returns every item whose title contains the query,
// case-insensitively. No match is an empty slice, not an error.
func (s *Service) FindItemsByTitle(ctx context.Context, title string) ([]*domain.LibraryItem, error) {
	items, err := s.store.LoadAllItems(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(title)
	matches := make([]*domain.LibraryItem, 0)
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title()), needle) {
			matches = append(matches, item)
		}
	}

	return matches, nil
}

// FindItemsByAuthor returns every item whose author has the given id.
func (s *Service) FindItemsByAuthor(ctx context.Context, authorID domain.EntityID) ([]*domain.LibraryItem, error) {
	items, err := s.store.LoadAllItems(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]*domain.LibraryItem, 0)
	for _, item := range items {
		if item.Author() != nil && item.Author().ID() == authorID {
			matches = append(matches, item)
		}
	}

	return matches, nil
}

// UpdateItemStatus flips the availability status of one item.
func (s *Service) UpdateItemStatus(ctx context.Context, itemID domain.EntityID, status domain.AvailabilityStatus) error {
	item, err := s.FindItemByID(ctx, itemID)
	if err != nil {
		return err
	}

	item.SetStatus(status)

	return s.store.SaveItem(ctx, item)
}

// ListAllItems returns every item in the catalog.
func (s *Service) ListAllItems(ctx context.Context) ([]*domain.LibraryItem, error) {
	return s.store.LoadAllItems(ctx)
}

func (s *Service) getOrCreateAuthor(
	ctx context.Context,
	authorID domain.EntityID,
	authorName string,
) (*domain.Author, error) {

	author, err := s.store.LoadAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author != nil {
		return author, nil
	}

	author, err = domain.NewAuthor(authorID, authorName)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveAuthor(ctx, author); err != nil {
		return nil, err
	}

	return author, nil
}
