// Package cachingengine composes the in-memory and flat-file backends into
// a write-back cache.
//
// Construction bulk-loads the file store into memory once, in dependency
// order: authors, then users, then items (which may reference the already
// loaded authors), then loans. Every read and write afterwards hits only
// the in-memory store; nothing is written through. Durability requires an
// explicit PersistAll, which dumps the complete in-memory state back over
// the files. Any change since the last PersistAll is lost if the process
// dies without one.
package cachingengine

import (
	"context"
	"errors"

	"github.com/datdd/library-management-system/domain"
	"github.com/datdd/library-management-system/storage"
	"github.com/datdd/library-management-system/storage/fileengine"
	"github.com/datdd/library-management-system/storage/memoryengine"
)

const (
	logMsgLoadedFromFile  = "caching store loaded file state into memory"
	logMsgPersistedToFile = "caching store persisted memory state to files"
	logAttrAuthorCount    = "author_count"
	logAttrUserCount      = "user_count"
	logAttrItemCount      = "item_count"
	logAttrLoanCount      = "loan_count"
)

// Store serves the full storage contract from memory and persists to a file
// store only on PersistAll.
type Store struct {
	// All contract operations delegate straight to the embedded in-memory
	// backend; there is no write-through.
	*memoryengine.Store

	fileStore storage.Store
	logger    storage.Logger
}

// Option defines a functional option for configuring the Store.
type Option func(*Store)

// WithLogger sets the logger for the Store.
func WithLogger(logger storage.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore builds the composite over a fresh file store rooted at dataDir
// and performs the one-time bulk load into memory.
func NewStore(ctx context.Context, dataDir string, options ...Option) (*Store, error) {
	fileStore, err := fileengine.NewStore(dataDir)
	if err != nil {
		return nil, err
	}

	return NewStoreWithBackends(ctx, memoryengine.NewStore(), fileStore, options...)
}

// NewStoreWithBackends builds the composite from explicit backends, for
// callers that configure or fake them.
func NewStoreWithBackends(
	ctx context.Context,
	memoryStore *memoryengine.Store,
	fileStore storage.Store,
	options ...Option,
) (*Store, error) {

	if memoryStore == nil || fileStore == nil {
		return nil, errors.Join(domain.ErrInvalidArgument, storage.ErrNilStore)
	}

	s := &Store{Store: memoryStore, fileStore: fileStore}
	for _, option := range options {
		option(s)
	}

	if err := s.loadAllIntoMemory(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// loadAllIntoMemory copies the file state into memory in dependency order.
func (s *Store) loadAllIntoMemory(ctx context.Context) error {
	authors, err := s.fileStore.LoadAllAuthors(ctx)
	if err != nil {
		return err
	}
	for _, author := range authors {
		if saveErr := s.Store.SaveAuthor(ctx, author); saveErr != nil {
			return saveErr
		}
	}

	users, err := s.fileStore.LoadAllUsers(ctx)
	if err != nil {
		return err
	}
	for _, user := range users {
		if saveErr := s.Store.SaveUser(ctx, *user); saveErr != nil {
			return saveErr
		}
	}

	items, err := s.fileStore.LoadAllItems(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		if saveErr := s.Store.SaveItem(ctx, item); saveErr != nil {
			return saveErr
		}
	}

	loans, err := s.fileStore.LoadAllLoanRecords(ctx)
	if err != nil {
		return err
	}
	for _, loan := range loans {
		if saveErr := s.Store.SaveLoanRecord(ctx, loan); saveErr != nil {
			return saveErr
		}
	}

	if s.logger != nil {
		s.logger.Info(logMsgLoadedFromFile,
			logAttrAuthorCount, len(authors),
			logAttrUserCount, len(users),
			logAttrItemCount, len(items),
			logAttrLoanCount, len(loans))
	}

	return nil
}

// PersistAll overwrites the file store with the complete current in-memory
// state, in the same dependency order as the load. Rows that were deleted
// in memory are removed from disk as well: each file ends up holding
// exactly the in-memory collection.
func (s *Store) PersistAll(ctx context.Context) error {
	if err := s.persistAuthors(ctx); err != nil {
		return err
	}
	if err := s.persistUsers(ctx); err != nil {
		return err
	}
	if err := s.persistItems(ctx); err != nil {
		return err
	}

	return s.persistLoans(ctx)
}

func (s *Store) persistAuthors(ctx context.Context) error {
	inMemory, err := s.Store.LoadAllAuthors(ctx)
	if err != nil {
		return err
	}
	onDisk, err := s.fileStore.LoadAllAuthors(ctx)
	if err != nil {
		return err
	}

	keep := make(map[domain.EntityID]struct{}, len(inMemory))
	for _, author := range inMemory {
		keep[author.ID()] = struct{}{}
		if saveErr := s.fileStore.SaveAuthor(ctx, author); saveErr != nil {
			return saveErr
		}
	}
	for _, author := range onDisk {
		if _, ok := keep[author.ID()]; !ok {
			if delErr := s.fileStore.DeleteAuthor(ctx, author.ID()); delErr != nil {
				return delErr
			}
		}
	}

	if s.logger != nil {
		s.logger.Info(logMsgPersistedToFile, logAttrAuthorCount, len(inMemory))
	}

	return nil
}

func (s *Store) persistUsers(ctx context.Context) error {
	inMemory, err := s.Store.LoadAllUsers(ctx)
	if err != nil {
		return err
	}
	onDisk, err := s.fileStore.LoadAllUsers(ctx)
	if err != nil {
		return err
	}

	keep := make(map[domain.EntityID]struct{}, len(inMemory))
	for _, user := range inMemory {
		keep[user.ID()] = struct{}{}
		if saveErr := s.fileStore.SaveUser(ctx, *user); saveErr != nil {
			return saveErr
		}
	}
	for _, user := range onDisk {
		if _, ok := keep[user.ID()]; !ok {
			if delErr := s.fileStore.DeleteUser(ctx, user.ID()); delErr != nil {
				return delErr
			}
		}
	}

	if s.logger != nil {
		s.logger.Info(logMsgPersistedToFile, logAttrUserCount, len(inMemory))
	}

	return nil
}

func (s *Store) persistItems(ctx context.Context) error {
	inMemory, err := s.Store.LoadAllItems(ctx)
	if err != nil {
		return err
	}
	onDisk, err := s.fileStore.LoadAllItems(ctx)
	if err != nil {
		return err
	}

	keep := make(map[domain.EntityID]struct{}, len(inMemory))
	for _, item := range inMemory {
		keep[item.ID()] = struct{}{}
		if saveErr := s.fileStore.SaveItem(ctx, item); saveErr != nil {
			return saveErr
		}
	}
	for _, item := range onDisk {
		if _, ok := keep[item.ID()]; !ok {
			if delErr := s.fileStore.DeleteItem(ctx, item.ID()); delErr != nil {
				return delErr
			}
		}
	}

	if s.logger != nil {
		s.logger.Info(logMsgPersistedToFile, logAttrItemCount, len(inMemory))
	}

	return nil
}

func (s *Store) persistLoans(ctx context.Context) error {
	inMemory, err := s.Store.LoadAllLoanRecords(ctx)
	if err != nil {
		return err
	}
	onDisk, err := s.fileStore.LoadAllLoanRecords(ctx)
	if err != nil {
		return err
	}

	keep := make(map[domain.EntityID]struct{}, len(inMemory))
	for _, loan := range inMemory {
		keep[loan.ID()] = struct{}{}
		if saveErr := s.fileStore.SaveLoanRecord(ctx, loan); saveErr != nil {
			return saveErr
		}
	}
	for _, loan := range onDisk {
		if _, ok := keep[loan.ID()]; !ok {
			if delErr := s.fileStore.DeleteLoanRecord(ctx, loan.ID()); delErr != nil {
				return delErr
			}
		}
	}

	if s.logger != nil {
		s.logger.Info(logMsgPersistedToFile, logAttrLoanCount, len(inMemory))
	}

	return nil
}

var _ storage.Store = (*Store)(nil)
