// Package fileengine implements the storage contract over one delimited
// text file per entity type, one record per line.
//
// Every mutation is a full read-modify-rewrite of the affected file: load
// the whole file, replace/insert/remove the record by id, write the whole
// file back. That is O(total records) per mutation, an accepted trade-off
// for having no index structures on disk.
//
// Field values are escaped with two private substitute characters instead
// of quoting-aware parsing: commas become 0x1E and double quotes become
// 0x1F. Values containing the substitute bytes themselves would collide;
// known limitation.
package fileengine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/datdd/library-management-system/datetime"
	"github.com/datdd/library-management-system/domain"
	"github.com/datdd/library-management-system/storage"
)

const (
	authorsFileName = "authors.csv"
	usersFileName   = "users.csv"
	itemsFileName   = "items.csv"
	loansFileName   = "loans.csv"

	fieldDelimiter = ","

	// Substitute characters for the minimal escaping scheme.
	commaSubstitute = '\x1E' // record separator stands in for a literal comma
	quoteSubstitute = '\x1F' // unit separator stands in for a literal double quote

	logMsgSkippingRecord     = "skipping malformed record"
	logMsgAuthorNotFound     = "author id not found for item, loading without author"
	logMsgSkippingReturnDate = "dropping unparseable return date, loan loads as active"
	logAttrError             = "error"
	logAttrFile              = "file"
	logAttrRecordID          = "record_id"
	logAttrAuthorID          = "author_id"
	logAttrItemID            = "item_id"
)

// ErrEmptyDataDirectory is returned when NewStore is given no directory path.
var ErrEmptyDataDirectory = errors.New("empty data directory path supplied")

// Store is the flat-file backend. One mutex serializes all file access.
type Store struct {
	mu      sync.Mutex
	dataDir string
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

// NewStore creates a flat-file store rooted at dataDir, creating the
// directory if needed.
func NewStore(dataDir string, options ...Option) (*Store, error) {
	if dataDir == "" {
		return nil, errors.Join(domain.ErrInvalidArgument, ErrEmptyDataDirectory)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Join(domain.ErrOperationFailed, err)
	}

	s := &Store{dataDir: dataDir}
	for _, option := range options {
		option(s)
	}

	return s, nil
}

func escapeField(field string) string {
	field = strings.ReplaceAll(field, `"`, string(quoteSubstitute))

	return strings.ReplaceAll(field, ",", string(commaSubstitute))
}

func unescapeField(field string) string {
	field = strings.ReplaceAll(field, string(commaSubstitute), ",")

	return strings.ReplaceAll(field, string(quoteSubstitute), `"`)
}

// readRecords loads every line of one file as a slice of unescaped fields.
// A missing file means no data yet, not an error.
func (s *Store) readRecords(fileName string) ([][]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Join(domain.ErrOperationFailed, err)
	}

	var records [][]string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		raw := strings.Split(line, fieldDelimiter)
		fields := make([]string, len(raw))
		for i, f := range raw {
			fields[i] = unescapeField(f)
		}
		records = append(records, fields)
	}

	return records, nil
}

// writeRecords rewrites one file with the full record set, escaping fields.
func (s *Store) writeRecords(fileName string, records [][]string) error {
	var b strings.Builder
	for _, fields := range records {
		for i, f := range fields {
			if i > 0 {
				b.WriteString(fieldDelimiter)
			}
			b.WriteString(escapeField(f))
		}
		b.WriteByte('\n')
	}

	if err := os.WriteFile(filepath.Join(s.dataDir, fileName), []byte(b.String()), 0o644); err != nil {
		return errors.Join(domain.ErrOperationFailed, err)
	}

	return nil
}

// upsertRecord replaces the record whose first field equals id, or appends.
func upsertRecord(records [][]string, id domain.EntityID, fields []string) [][]string {
	for i, existing := range records {
		if len(existing) > 0 && existing[0] == id {
			records[i] = fields

			return records
		}
	}

	return append(records, fields)
}

// removeRecord drops the record whose first field equals id, if present.
func removeRecord(records [][]string, id domain.EntityID) [][]string {
	kept := records[:0]
	for _, existing := range records {
		if len(existing) > 0 && existing[0] == id {
			continue
		}
		kept = append(kept, existing)
	}

	return kept
}

func (s *Store) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// --- Authors: id,name ---

// SaveAuthor upserts one author row and rewrites authors.csv.
func (s *Store) SaveAuthor(_ context.Context, author *domain.Author) error {
	if author == nil {
		return errors.Join(domain.ErrInvalidArgument, errors.New("nil author supplied"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(authorsFileName)
	if err != nil {
		return err
	}

	return s.writeRecords(authorsFileName, upsertRecord(records, author.ID(), []string{author.ID(), author.Name()}))
}

// LoadAuthor reads authors.csv and rebuilds the matching author, or nil.
func (s *Store) LoadAuthor(_ context.Context, authorID domain.EntityID) (*domain.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadAuthorLocked(authorID)
}

func (s *Store) loadAuthorLocked(authorID domain.EntityID) (*domain.Author, error) {
	records, err := s.readRecords(authorsFileName)
	if err != nil {
		return nil, err
	}

	for _, fields := range records {
		if len(fields) == 2 && fields[0] == authorID {
			author, buildErr := domain.NewAuthor(fields[0], fields[1])
			if buildErr != nil {
				return nil, errors.Join(domain.ErrOperationFailed, buildErr)
			}

			return author, nil
		}
	}

	return nil, nil
}

// LoadAllAuthors rebuilds every parseable author row; malformed rows are
// logged and skipped.
func (s *Store) LoadAllAuthors(_ context.Context) ([]*domain.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadAllAuthorsLocked()
}

func (s *Store) loadAllAuthorsLocked() ([]*domain.Author, error) {
	records, err := s.readRecords(authorsFileName)
	if err != nil {
		return nil, err
	}

	authors := make([]*domain.Author, 0, len(records))
	for _, fields := range records {
		if len(fields) != 2 {
			s.logWarn(logMsgSkippingRecord, logAttrFile, authorsFileName, logAttrRecordID, firstField(fields))
			continue
		}
		author, buildErr := domain.NewAuthor(fields[0], fields[1])
		if buildErr != nil {
			s.logWarn(logMsgSkippingRecord, logAttrFile, authorsFileName, logAttrRecordID, fields[0], logAttrError, buildErr.Error())
			continue
		}
		authors = append(authors, author)
	}

	return authors, nil
}

// DeleteAuthor removes an author row; absent ids rewrite the file unchanged.
func (s *Store) DeleteAuthor(_ context.Context, authorID domain.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(authorsFileName)
	if err != nil {
		return err
	}

	return s.writeRecords(authorsFileName, removeRecord(records, authorID))
}

// --- Users: id,name ---

// SaveUser upserts one user row and rewrites users.csv.
func (s *Store) SaveUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(usersFileName)
	if err != nil {
		return err
	}

	return s.writeRecords(usersFileName, upsertRecord(records, user.ID(), []string{user.ID(), user.Name()}))
}

// LoadUser rebuilds the matching user row, or nil.
func (s *Store) LoadUser(_ context.Context, userID domain.EntityID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(usersFileName)
	if err != nil {
		return nil, err
	}

	for _, fields := range records {
		if len(fields) == 2 && fields[0] == userID {
			user, buildErr := domain.NewUser(fields[0], fields[1])
			if buildErr != nil {
				return nil, errors.Join(domain.ErrOperationFailed, buildErr)
			}

			return &user, nil
		}
	}

	return nil, nil
}

// LoadAllUsers rebuilds every parseable user row; malformed rows are logged
// and skipped.
func (s *Store) LoadAllUsers(_ context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(usersFileName)
	if err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(records))
	for _, fields := range records {
		if len(fields) != 2 {
			s.logWarn(logMsgSkippingRecord, logAttrFile, usersFileName, logAttrRecordID, firstField(fields))
			continue
		}
		user, buildErr := domain.NewUser(fields[0], fields[1])
		if buildErr != nil {
			s.logWarn(logMsgSkippingRecord, logAttrFile, usersFileName, logAttrRecordID, fields[0], logAttrError, buildErr.Error())
			continue
		}
		users = append(users, &user)
	}

	return users, nil
}

// DeleteUser removes a user row; absent ids rewrite the file unchanged.
func (s *Store) DeleteUser(_ context.Context, userID domain.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(usersFileName)
	if err != nil {
		return err
	}

	return s.writeRecords(usersFileName, removeRecord(records, userID))
}

// --- Items: id,type,title,author_id,isbn,year,status ---

const itemFieldCount = 7

func itemFields(item *domain.LibraryItem) []string {
	authorID := ""
	if item.Author() != nil {
		authorID = item.Author().ID()
	}

	return []string{
		item.ID(),
		string(item.Kind()),
		item.Title(),
		authorID,
		item.ISBN(),
		strconv.Itoa(item.PublicationYear()),
		strconv.Itoa(int(item.Status())),
	}
}

// SaveItem upserts one item row and rewrites items.csv.
func (s *Store) SaveItem(_ context.Context, item *domain.LibraryItem) error {
	if item == nil {
		return errors.Join(domain.ErrInvalidArgument, errors.New("nil item supplied"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(itemsFileName)
	if err != nil {
		return err
	}

	return s.writeRecords(itemsFileName, upsertRecord(records, item.ID(), itemFields(item)))
}

// itemFromFields rebuilds a Book row, resolving its author against
// authors.csv. A dangling author id is tolerated: the item loads without an
// author reference and the miss is logged.
func (s *Store) itemFromFields(fields []string) (*domain.LibraryItem, error) {
	if len(fields) != itemFieldCount || domain.ItemKind(fields[1]) != domain.BookKind {
		return nil, fmt.Errorf("malformed item record, want %d Book fields, got %d", itemFieldCount, len(fields))
	}

	var author *domain.Author
	if fields[3] != "" {
		var err error
		author, err = s.loadAuthorLocked(fields[3])
		if err != nil {
			return nil, err
		}
		if author == nil {
			s.logWarn(logMsgAuthorNotFound, logAttrAuthorID, fields[3], logAttrItemID, fields[0])
		}
	}

	year, err := strconv.Atoi(fields[5])
	if err != nil {
		return nil, fmt.Errorf("bad publication year %q: %w", fields[5], err)
	}

	statusInt, err := strconv.Atoi(fields[6])
	if err != nil {
		return nil, fmt.Errorf("bad availability status %q: %w", fields[6], err)
	}
	status, err := domain.StatusFromInt(statusInt)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateBook(fields[0], fields[2], author, fields[4], year, status)
}

// LoadItem rebuilds the matching item row, or nil.
func (s *Store) LoadItem(_ context.Context, itemID domain.EntityID) (*domain.LibraryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(itemsFileName)
	if err != nil {
		return nil, err
	}

	for _, fields := range records {
		if len(fields) > 0 && fields[0] == itemID {
			item, buildErr := s.itemFromFields(fields)
			if buildErr != nil {
				return nil, errors.Join(domain.ErrOperationFailed, buildErr)
			}

			return item, nil
		}
	}

	return nil, nil
}

// LoadAllItems rebuilds every parseable item row; malformed rows are logged
// and skipped.
func (s *Store) LoadAllItems(_ context.Context) ([]*domain.LibraryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(itemsFileName)
	if err != nil {
		return nil, err
	}

	items := make([]*domain.LibraryItem, 0, len(records))
	for _, fields := range records {
		item, buildErr := s.itemFromFields(fields)
		if buildErr != nil {
			s.logWarn(logMsgSkippingRecord, logAttrFile, itemsFileName, logAttrRecordID, firstField(fields), logAttrError, buildErr.Error())
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// DeleteItem removes an item row; absent ids rewrite the file unchanged.
func (s *Store) DeleteItem(_ context.Context, itemID domain.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(itemsFileName)
	if err != nil {
		return err
	}

	return s.writeRecords(itemsFileName, removeRecord(records, itemID))
}

// --- Loans: id,item_id,user_id,loan_date,due_date,return_date ---

const loanFieldCount = 6

func loanFields(record domain.LoanRecord) []string {
	returnDate := ""
	if rd, ok := record.ReturnDate(); ok {
		returnDate = datetime.Format(rd)
	}

	return []string{
		record.ID(),
		record.ItemID(),
		record.UserID(),
		datetime.Format(record.LoanDate()),
		datetime.Format(record.DueDate()),
		returnDate,
	}
}

// loanFromFields rebuilds one loan row. An unparseable return date alone is
// dropped with a log line and the loan still loads as active.
func (s *Store) loanFromFields(fields []string) (domain.LoanRecord, error) {
	if len(fields) != loanFieldCount {
		return domain.LoanRecord{}, fmt.Errorf("malformed loan record, want %d fields, got %d", loanFieldCount, len(fields))
	}

	loanDate, err := datetime.Parse(fields[3])
	if err != nil {
		return domain.LoanRecord{}, fmt.Errorf("bad loan date %q: %w", fields[3], err)
	}
	dueDate, err := datetime.Parse(fields[4])
	if err != nil {
		return domain.LoanRecord{}, fmt.Errorf("bad due date %q: %w", fields[4], err)
	}

	record, err := domain.NewLoanRecord(fields[0], fields[1], fields[2], loanDate, dueDate)
	if err != nil {
		return domain.LoanRecord{}, err
	}

	if fields[5] != "" {
		returnDate, parseErr := datetime.Parse(fields[5])
		if parseErr != nil {
			s.logWarn(logMsgSkippingReturnDate, logAttrFile, loansFileName, logAttrRecordID, fields[0], logAttrError, parseErr.Error())
		} else if setErr := record.SetReturnDate(returnDate); setErr != nil {
			return domain.LoanRecord{}, setErr
		}
	}

	return record, nil
}

// SaveLoanRecord upserts one loan row and rewrites loans.csv.
func (s *Store) SaveLoanRecord(_ context.Context, record domain.LoanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(loansFileName)
	if err != nil {
		return err
	}

	return s.writeRecords(loansFileName, upsertRecord(records, record.ID(), loanFields(record)))
}

// UpdateLoanRecord has the same read-modify-rewrite semantics as SaveLoanRecord.
func (s *Store) UpdateLoanRecord(ctx context.Context, record domain.LoanRecord) error {
	return s.SaveLoanRecord(ctx, record)
}

// LoadLoanRecord rebuilds the matching loan row, or nil.
func (s *Store) LoadLoanRecord(_ context.Context, recordID domain.EntityID) (*domain.LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(loansFileName)
	if err != nil {
		return nil, err
	}

	for _, fields := range records {
		if len(fields) > 0 && fields[0] == recordID {
			record, buildErr := s.loanFromFields(fields)
			if buildErr != nil {
				return nil, errors.Join(domain.ErrOperationFailed, buildErr)
			}

			return &record, nil
		}
	}

	return nil, nil
}

func (s *Store) loadAllLoanRecordsLocked() ([]domain.LoanRecord, error) {
	records, err := s.readRecords(loansFileName)
	if err != nil {
		return nil, err
	}

	loans := make([]domain.LoanRecord, 0, len(records))
	for _, fields := range records {
		record, buildErr := s.loanFromFields(fields)
		if buildErr != nil {
			s.logWarn(logMsgSkippingRecord, logAttrFile, loansFileName, logAttrRecordID, firstField(fields), logAttrError, buildErr.Error())
			continue
		}
		loans = append(loans, record)
	}

	return loans, nil
}

// LoadAllLoanRecords rebuilds every parseable loan row; rows with a bad
// date or field count are logged and skipped.
func (s *Store) LoadAllLoanRecords(_ context.Context) ([]domain.LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadAllLoanRecordsLocked()
}

// LoadLoanRecordsByUser filters the full loan load by user id.
func (s *Store) LoadLoanRecordsByUser(_ context.Context, userID domain.EntityID) ([]domain.LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadAllLoanRecordsLocked()
	if err != nil {
		return nil, err
	}

	matching := make([]domain.LoanRecord, 0)
	for _, record := range all {
		if record.UserID() == userID {
			matching = append(matching, record)
		}
	}

	return matching, nil
}

// LoadLoanRecordsByItem filters the full loan load by item id.
func (s *Store) LoadLoanRecordsByItem(_ context.Context, itemID domain.EntityID) ([]domain.LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadAllLoanRecordsLocked()
	if err != nil {
		return nil, err
	}

	matching := make([]domain.LoanRecord, 0)
	for _, record := range all {
		if record.ItemID() == itemID {
			matching = append(matching, record)
		}
	}

	return matching, nil
}

// DeleteLoanRecord removes a loan row; absent ids rewrite the file unchanged.
func (s *Store) DeleteLoanRecord(_ context.Context, recordID domain.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords(loansFileName)
	if err != nil {
		return err
	}

	return s.writeRecords(loansFileName, removeRecord(records, recordID))
}

func firstField(fields []string) string {
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

var _ storage.Store = (*Store)(nil)
