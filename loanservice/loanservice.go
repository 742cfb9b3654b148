// Package loanservice drives the loan lifecycle: borrowing, returning,
// loan history, and the overdue scan. It coordinates the catalog, the
// user registry, the loan record store and the notifier; availability
// status and loan records are its two sources of truth.
package loanservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/datdd/library-management-system/datetime"
	"github.com/datdd/library-management-system/domain"
	"github.com/datdd/library-management-system/notification"
	"github.com/datdd/library-management-system/storage"
)

const defaultLoanDays = 14

const (
	unknownUserName  = "Unknown User"
	unknownItemTitle = "Unknown Item"
)

// Catalog is the slice of the catalog the loan lifecycle needs.
type Catalog interface {
	FindItemByID(ctx context.Context, itemID domain.EntityID) (*domain.LibraryItem, error)
	UpdateItemStatus(ctx context.Context, itemID domain.EntityID, status domain.AvailabilityStatus) error
}

// Users is the slice of the user registry the loan lifecycle needs.
type Users interface {
	FindUserByID(ctx context.Context, userID domain.EntityID) (domain.User, error)
}

// Service implements the loan lifecycle.
type Service struct {
	catalog  Catalog
	users    Users
	loans    storage.LoanRecordStore
	notifier notification.Notifier
	clock    datetime.Clock
	ids      IDGenerator
	loanDays int
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithNotifier replaces the default console notifier.
func WithNotifier(notifier notification.Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithClock injects a clock, for tests that need a fixed now.
func WithClock(clock datetime.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithLoanDuration overrides the default loan duration of 14 days.
func WithLoanDuration(days int) Option {
	return func(s *Service) {
		s.loanDays = days
	}
}

// WithIDGenerator replaces the default sequential loan-id generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(s *Service) {
		s.ids = ids
	}
}

// NewService wires the loan lifecycle over its collaborators.
func NewService(catalog Catalog, users Users, loans storage.LoanRecordStore, options ...Option) (*Service, error) {
	if catalog == nil || users == nil || loans == nil {
		return nil, errors.Join(domain.ErrInvalidArgument, errors.New("nil collaborator supplied"))
	}

	s := &Service{
		catalog:  catalog,
		users:    users,
		loans:    loans,
		notifier: notification.NewConsoleNotifier(nil),
		clock:    datetime.SystemClock{},
		ids:      NewCounterGenerator(),
		loanDays: defaultLoanDays,
	}

	for _, option := range options {
		option(s)
	}

	return s, nil
}

// BorrowItem lends one item to one user and returns the new loan record.
// The item must exist and be AVAILABLE, the user must exist, and the user
// must not already hold an open loan for the item.
//
// The loan record is persisted before the availability status flips to
// BORROWED; the two writes are not atomic, so a storage failure between
// them leaves an open loan against an AVAILABLE item.
func (s *Service) BorrowItem(ctx context.Context, userID, itemID domain.EntityID) (domain.LoanRecord, error) {
	if userID == "" || itemID == "" {
		return domain.LoanRecord{}, errors.Join(domain.ErrInvalidArgument, errors.New("user id and item id cannot be empty"))
	}

	if _, err := s.users.FindUserByID(ctx, userID); err != nil {
		return domain.LoanRecord{}, err
	}

	item, err := s.catalog.FindItemByID(ctx, itemID)
	if err != nil {
		return domain.LoanRecord{}, err
	}
	if item.Status() != domain.StatusAvailable {
		return domain.LoanRecord{}, errors.Join(
			domain.ErrOperationFailed,
			fmt.Errorf("item %s is not available (status %s)", itemID, item.Status()))
	}

	openLoan, err := s.findOpenLoan(ctx, userID, itemID)
	if err != nil {
		return domain.LoanRecord{}, err
	}
	if openLoan != nil {
		return domain.LoanRecord{}, errors.Join(
			domain.ErrOperationFailed,
			fmt.Errorf("user %s already holds an open loan for item %s", userID, itemID))
	}

	now := s.clock.Now()
	record, err := domain.NewLoanRecord(s.ids.NextLoanID(), itemID, userID, now, datetime.AddDays(now, s.loanDays))
	if err != nil {
		return domain.LoanRecord{}, err
	}

	if err := s.loans.SaveLoanRecord(ctx, record); err != nil {
		return domain.LoanRecord{}, err
	}
	if err := s.catalog.UpdateItemStatus(ctx, itemID, domain.StatusBorrowed); err != nil {
		return domain.LoanRecord{}, err
	}

	return record, nil
}

// ReturnItem closes the open loan the user holds for the item: stamps the
// return date, persists the update, and flips the item back to AVAILABLE.
func (s *Service) ReturnItem(ctx context.Context, userID, itemID domain.EntityID) error {
	if userID == "" || itemID == "" {
		return errors.Join(domain.ErrInvalidArgument, errors.New("user id and item id cannot be empty"))
	}

	openLoan, err := s.findOpenLoan(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if openLoan == nil {
		return errors.Join(
			domain.ErrNotFound,
			fmt.Errorf("no open loan for user %s and item %s", userID, itemID))
	}

	if err := openLoan.SetReturnDate(s.clock.Now()); err != nil {
		return err
	}
	if err := s.loans.UpdateLoanRecord(ctx, *openLoan); err != nil {
		return err
	}

	return s.catalog.UpdateItemStatus(ctx, itemID, domain.StatusAvailable)
}

// ActiveLoansForUser returns the user's open loans.
func (s *Service) ActiveLoansForUser(ctx context.Context, userID domain.EntityID) ([]domain.LoanRecord, error) {
	records, err := s.loans.LoadLoanRecordsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := make([]domain.LoanRecord, 0)
	for _, record := range records {
		if !record.IsReturned() {
			active = append(active, record)
		}
	}

	return active, nil
}

// LoanHistoryForUser returns every loan the user ever made.
func (s *Service) LoanHistoryForUser(ctx context.Context, userID domain.EntityID) ([]domain.LoanRecord, error) {
	return s.loans.LoadLoanRecordsByUser(ctx, userID)
}

// LoanHistoryForItem returns every loan ever made against the item.
func (s *Service) LoanHistoryForItem(ctx context.Context, itemID domain.EntityID) ([]domain.LoanRecord, error) {
	return s.loans.LoadLoanRecordsByItem(ctx, itemID)
}

// ProcessOverdueItems scans every loan and sends one notice per open loan
// whose due date lies before today's midnight boundary. Notices are not
// deduplicated across runs. Failed user or item lookups fall back to
// placeholder names so one broken reference never stops the scan. Returns
// the number of notices sent.
func (s *Service) ProcessOverdueItems(ctx context.Context) (int, error) {
	records, err := s.loans.LoadAllLoanRecords(ctx)
	if err != nil {
		return 0, err
	}

	today := s.clock.Today()
	sent := 0
	for _, record := range records {
		if record.IsReturned() || !record.DueDate().Before(today) {
			continue
		}

		userName := unknownUserName
		if user, userErr := s.users.FindUserByID(ctx, record.UserID()); userErr == nil {
			userName = user.Name()
		}

		itemTitle := unknownItemTitle
		if item, itemErr := s.catalog.FindItemByID(ctx, record.ItemID()); itemErr == nil {
			itemTitle = item.Title()
		}

		notice := notification.Notice{
			Kind:   notification.KindOverdue,
			UserID: record.UserID(),
			ItemID: record.ItemID(),
			LoanID: record.ID(),
			Message: fmt.Sprintf("Dear %s, the item %q was due on %s. Please return it. (Loan ID: %s)",
				userName, itemTitle, datetime.Format(record.DueDate()), record.ID()),
			SentAt: s.clock.Now(),
		}
		if sendErr := s.notifier.Send(ctx, notice); sendErr != nil {
			return sent, sendErr
		}
		sent++
	}

	return sent, nil
}

// findOpenLoan returns the single open loan for (user, item), or nil.
func (s *Service) findOpenLoan(ctx context.Context, userID, itemID domain.EntityID) (*domain.LoanRecord, error) {
	records, err := s.loans.LoadLoanRecordsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if record.UserID() == userID && !record.IsReturned() {
			open := record.Clone()
			return &open, nil
		}
	}

	return nil, nil
}
