package storage

import (
	"context"
	"errors"

	"github.com/datdd/library-management-system/domain"
)

var (
	// ErrNilStore is returned by constructors that compose stores when one is missing.
	ErrNilStore = errors.New("nil store supplied")
)

// AuthorStore persists authors. Authors are stored and loaded as shared
// references, never copies.
type AuthorStore interface {
	SaveAuthor(ctx context.Context, author *domain.Author) error
	LoadAuthor(ctx context.Context, authorID domain.EntityID) (*domain.Author, error)
	LoadAllAuthors(ctx context.Context) ([]*domain.Author, error)
	DeleteAuthor(ctx context.Context, authorID domain.EntityID) error
}

// ItemStore persists library items. Saves store an independent copy and
// loads return one; the author reference inside stays shared.
type ItemStore interface {
	SaveItem(ctx context.Context, item *domain.LibraryItem) error
	LoadItem(ctx context.Context, itemID domain.EntityID) (*domain.LibraryItem, error)
	LoadAllItems(ctx context.Context) ([]*domain.LibraryItem, error)
	DeleteItem(ctx context.Context, itemID domain.EntityID) error
}

// UserStore persists users.
type UserStore interface {
	SaveUser(ctx context.Context, user domain.User) error
	LoadUser(ctx context.Context, userID domain.EntityID) (*domain.User, error)
	LoadAllUsers(ctx context.Context) ([]*domain.User, error)
	DeleteUser(ctx context.Context, userID domain.EntityID) error
}

// LoanRecordStore persists loan records, with the by-user and by-item
// lookups the loan lifecycle needs. UpdateLoanRecord has upsert semantics,
// matching SaveLoanRecord; it exists as a separate operation because the
// relational backend expresses it as the same merge statement while other
// callers use it to signal intent.
type LoanRecordStore interface {
	SaveLoanRecord(ctx context.Context, record domain.LoanRecord) error
	LoadLoanRecord(ctx context.Context, recordID domain.EntityID) (*domain.LoanRecord, error)
	LoadLoanRecordsByUser(ctx context.Context, userID domain.EntityID) ([]domain.LoanRecord, error)
	LoadLoanRecordsByItem(ctx context.Context, itemID domain.EntityID) ([]domain.LoanRecord, error)
	LoadAllLoanRecords(ctx context.Context) ([]domain.LoanRecord, error)
	UpdateLoanRecord(ctx context.Context, record domain.LoanRecord) error
	DeleteLoanRecord(ctx context.Context, recordID domain.EntityID) error
}

// Store is the full persistence contract a backend implements.
type Store interface {
	AuthorStore
	ItemStore
	UserStore
	LoanRecordStore
}
