// Package memoryengine implements the storage contract with process-local
// keyed maps guarded by a single coarse lock.
//
// Items and loan records are deep-copied on save and again on load, so no
// caller ever holds an alias into the maps. Authors are stored and returned
// as the same shared reference; that asymmetry is part of the contract, not
// an oversight.
package memoryengine

import (
	"context"
	"errors"
	"sync"

	"github.com/datdd/library-management-system/domain"
	"github.com/datdd/library-management-system/storage"
)

const (
	logMsgStored  = "stored entity"
	logMsgRemoved = "removed entity"

	logAttrEntityType = "entity_type"
	logAttrEntityID   = "entity_id"

	entityAuthor = "author"
	entityItem   = "item"
	entityUser   = "user"
	entityLoan   = "loan_record"
)

var errNilEntity = errors.New("nil entity supplied")

// Store is the in-memory backend. The zero value is not usable; construct
// with NewStore.
type Store struct {
	mu      sync.Mutex
	authors map[domain.EntityID]*domain.Author
	items   map[domain.EntityID]*domain.LibraryItem
	users   map[domain.EntityID]domain.User
	loans   map[domain.EntityID]domain.LoanRecord
	logger  storage.Logger
}

// Option defines a functional option for configuring the Store.
type Option func(*Store)

// WithLogger sets the logger for the Store.
func WithLogger(logger storage.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty in-memory store.
func NewStore(options ...Option) *Store {
	s := &Store{
		authors: make(map[domain.EntityID]*domain.Author),
		items:   make(map[domain.EntityID]*domain.LibraryItem),
		users:   make(map[domain.EntityID]domain.User),
		loans:   make(map[domain.EntityID]domain.LoanRecord),
	}

	for _, option := range options {
		option(s)
	}

	return s
}

func (s *Store) logDebug(msg, entityType string, id domain.EntityID) {
	if s.logger != nil {
		s.logger.Debug(msg, logAttrEntityType, entityType, logAttrEntityID, id)
	}
}

// SaveAuthor stores the given reference as-is; later loads hand the same
// *Author back to every caller.
func (s *Store) SaveAuthor(_ context.Context, author *domain.Author) error {
	if author == nil {
		return errors.Join(domain.ErrInvalidArgument, errNilEntity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.authors[author.ID()] = author
	s.logDebug(logMsgStored, entityAuthor, author.ID())

	return nil
}

// LoadAuthor returns the shared author reference, or nil when absent.
func (s *Store) LoadAuthor(_ context.Context, authorID domain.EntityID) (*domain.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.authors[authorID], nil
}

// LoadAllAuthors returns the shared references of all stored authors.
func (s *Store) LoadAllAuthors(_ context.Context) ([]*domain.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*domain.Author, 0, len(s.authors))
	for _, author := range s.authors {
		all = append(all, author)
	}

	return all, nil
}

// DeleteAuthor removes an author; absent ids are a no-op.
func (s *Store) DeleteAuthor(_ context.Context, authorID domain.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.authors, authorID)
	s.logDebug(logMsgRemoved, entityAuthor, authorID)

	return nil
}

// SaveItem stores a deep copy of the item.
func (s *Store) SaveItem(_ context.Context, item *domain.LibraryItem) error {
	if item == nil {
		return errors.Join(domain.ErrInvalidArgument, errNilEntity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID()] = item.Clone()
	s.logDebug(logMsgStored, entityItem, item.ID())

	return nil
}

// LoadItem returns a fresh copy of the stored item, or nil when absent.
func (s *Store) LoadItem(_ context.Context, itemID domain.EntityID) (*domain.LibraryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.items[itemID].Clone(), nil
}

// LoadAllItems returns fresh copies of all stored items.
func (s *Store) LoadAllItems(_ context.Context) ([]*domain.LibraryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*domain.LibraryItem, 0, len(s.items))
	for _, item := range s.items {
		all = append(all, item.Clone())
	}

	return all, nil
}

// DeleteItem removes an item; absent ids are a no-op.
func (s *Store) DeleteItem(_ context.Context, itemID domain.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, itemID)
	s.logDebug(logMsgRemoved, entityItem, itemID)

	return nil
}

// SaveUser stores a copy of the user.
func (s *Store) SaveUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID()] = user
	s.logDebug(logMsgStored, entityUser, user.ID())

	return nil
}

// LoadUser returns a copy of the stored user, or nil when absent.
func (s *Store) LoadUser(_ context.Context, userID domain.EntityID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, nil
	}

	return &user, nil
}

// LoadAllUsers returns copies of all stored users.
func (s *Store) LoadAllUsers(_ context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*domain.User, 0, len(s.users))
	for _, user := range s.users {
		u := user
		all = append(all, &u)
	}

	return all, nil
}

// DeleteUser removes a user; absent ids are a no-op.
func (s *Store) DeleteUser(_ context.Context, userID domain.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	s.logDebug(logMsgRemoved, entityUser, userID)

	return nil
}

// SaveLoanRecord stores an independent copy of the record.
func (s *Store) SaveLoanRecord(_ context.Context, record domain.LoanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loans[record.ID()] = record.Clone()
	s.logDebug(logMsgStored, entityLoan, record.ID())

	return nil
}

// LoadLoanRecord returns a fresh copy of the stored record, or nil when absent.
func (s *Store) LoadLoanRecord(_ context.Context, recordID domain.EntityID) (*domain.LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.loans[recordID]
	if !ok {
		return nil, nil
	}
	clone := record.Clone()

	return &clone, nil
}

// LoadLoanRecordsByUser returns copies of all records for one user.
func (s *Store) LoadLoanRecordsByUser(_ context.Context, userID domain.EntityID) ([]domain.LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matching := make([]domain.LoanRecord, 0)
	for _, record := range s.loans {
		if record.UserID() == userID {
			matching = append(matching, record.Clone())
		}
	}

	return matching, nil
}

// LoadLoanRecordsByItem returns copies of all records for one item.
func (s *Store) LoadLoanRecordsByItem(_ context.Context, itemID domain.EntityID) ([]domain.LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matching := make([]domain.LoanRecord, 0)
	for _, record := range s.loans {
		if record.ItemID() == itemID {
			matching = append(matching, record.Clone())
		}
	}

	return matching, nil
}

// LoadAllLoanRecords returns copies of all stored records.
func (s *Store) LoadAllLoanRecords(_ context.Context) ([]domain.LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.LoanRecord, 0, len(s.loans))
	for _, record := range s.loans {
		all = append(all, record.Clone())
	}

	return all, nil
}

// UpdateLoanRecord has the same upsert semantics as SaveLoanRecord.
func (s *Store) UpdateLoanRecord(ctx context.Context, record domain.LoanRecord) error {
	return s.SaveLoanRecord(ctx, record)
}

// DeleteLoanRecord removes a record; absent ids are a no-op.
func (s *Store) DeleteLoanRecord(_ context.Context, recordID domain.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loans, recordID)
	s.logDebug(logMsgRemoved, entityLoan, recordID)

	return nil
}

var _ storage.Store = (*Store)(nil)
