package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jmoiron/sqlx"

	"github.com/datdd/library-management-system/domain"
	"github.com/datdd/library-management-system/storage"
	"github.com/datdd/library-management-system/storage/sqlengine/internal/adapters"
)

const (
	dialectPostgres = "postgres"

	tableAuthors = "Authors"
	tableUsers   = "Users"
	tableItems   = "LibraryItems"
	tableLoans   = "LoanRecords"

	colAuthorID     = "AuthorId"
	colAuthorName   = "Name"
	colUserID       = "UserId"
	colUserName     = "Name"
	colItemID       = "ItemId"
	colItemType     = "ItemType"
	colTitle        = "Title"
	colISBN         = "ISBN"
	colPubYear      = "PublicationYear"
	colStatus       = "AvailabilityStatus"
	colLoanRecordID = "LoanRecordId"
	colLoanItemID   = "ItemId"
	colLoanUserID   = "UserId"
	colLoanDate     = "LoanDate"
	colDueDate      = "DueDate"
	colReturnDate   = "ReturnDate"

	logMsgConnected          = "established connection to relational store"
	logMsgReconnecting       = "cached connection unusable, reconnecting"
	logMsgRollbackAtClose    = "rolling back open transaction at close"
	logMsgSkippingRow        = "skipping malformed row"
	logMsgAuthorNotFoundInDB = "author id not found for item, loading without author"
	logAttrError             = "error"
	logAttrTable             = "table"
	logAttrRecordID          = "record_id"
	logAttrAuthorID          = "author_id"
	logAttrItemID            = "item_id"
)

var (
	// ErrEmptyConnectionString is returned by NewStoreFromDSN for a blank DSN.
	ErrEmptyConnectionString = errors.New("empty connection string supplied")

	// ErrNilDatabaseHandle is returned when a constructor receives a nil handle.
	ErrNilDatabaseHandle = errors.New("nil database handle supplied")

	// ErrTransactionInProgress is returned by BeginTransaction when one is already open.
	ErrTransactionInProgress = errors.New("transaction already in progress")

	// ErrNoTransaction is returned by Commit when no transaction is open.
	ErrNoTransaction = errors.New("no transaction in progress")
)

// Connector establishes one session with the relational store. The engine
// calls it lazily and again after the cached session reports disconnected.
type Connector func(ctx context.Context) (adapters.Connection, error)

// Store is the remote relational backend.
type Store struct {
	mu        sync.Mutex
	connect   Connector
	conn      adapters.Connection
	inTx      bool
	logger    storage.Logger
	ctxLogger storage.ContextualLogger
}

// Option defines a functional option for configuring the Store.
type Option func(*Store)

// WithLogger sets the logger for the Store.
func WithLogger(logger storage.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithContextualLogger sets a context-aware logger for the Store. When both
// loggers are configured the contextual one wins.
func WithContextualLogger(logger storage.ContextualLogger) Option {
	return func(s *Store) {
		s.ctxLogger = logger
	}
}

// NewStoreFromDSN creates a store that dials the given connection string
// with pgx. The connection is established on first use, not here.
func NewStoreFromDSN(dsn string, options ...Option) (*Store, error) {
	if dsn == "" {
		return nil, errors.Join(domain.ErrInvalidArgument, ErrEmptyConnectionString)
	}

	connect := func(ctx context.Context) (adapters.Connection, error) {
		return adapters.ConnectPGX(ctx, dsn)
	}

	return NewStoreWithConnector(connect, options...)
}

// NewStoreFromSQLDB creates a store over a database/sql pool. One session
// is checked out lazily and pinned for the life of the store.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.Join(domain.ErrInvalidArgument, ErrNilDatabaseHandle)
	}

	connect := func(ctx context.Context) (adapters.Connection, error) {
		return adapters.ConnectSQL(ctx, db)
	}

	return NewStoreWithConnector(connect, options...)
}

// NewStoreFromSQLX creates a store over a sqlx pool.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.Join(domain.ErrInvalidArgument, ErrNilDatabaseHandle)
	}

	connect := func(ctx context.Context) (adapters.Connection, error) {
		return adapters.ConnectSQLX(ctx, db)
	}

	return NewStoreWithConnector(connect, options...)
}

// NewStoreWithConnector creates a store over a custom connector; tests use
// this to substitute a fake protocol session.
func NewStoreWithConnector(connect Connector, options ...Option) (*Store, error) {
	if connect == nil {
		return nil, errors.Join(domain.ErrInvalidArgument, ErrNilDatabaseHandle)
	}

	s := &Store{connect: connect}
	for _, option := range options {
		option(s)
	}

	return s, nil
}

// getConnLocked returns the cached session, dialing or re-dialing when it
// is missing or no longer answers. Callers hold s.mu.
func (s *Store) getConnLocked(ctx context.Context) (adapters.Connection, error) {
	if s.conn != nil {
		if pingErr := s.conn.Ping(ctx); pingErr == nil {
			return s.conn, nil
		}
		s.logWarn(ctx, logMsgReconnecting)
		_ = s.conn.Close(ctx)
		s.conn = nil
		s.inTx = false
	}

	conn, err := s.connect(ctx)
	if err != nil {
		return nil, errors.Join(domain.ErrOperationFailed, fmt.Errorf("connecting to relational store: %w", err))
	}
	s.conn = conn

	s.logInfo(ctx, logMsgConnected)

	return s.conn, nil
}

// BeginTransaction opens an explicit, non-nested transaction for compound
// operations. Single saves and loads never call this implicitly.
func (s *Store) BeginTransaction(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inTx {
		return errors.Join(domain.ErrOperationFailed, ErrTransactionInProgress)
	}

	conn, err := s.getConnLocked(ctx)
	if err != nil {
		return err
	}
	if beginErr := conn.Begin(ctx); beginErr != nil {
		return errors.Join(domain.ErrOperationFailed, fmt.Errorf("beginning transaction: %w", beginErr))
	}
	s.inTx = true

	return nil
}

// CommitTransaction commits the open transaction.
func (s *Store) CommitTransaction(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inTx {
		return errors.Join(domain.ErrOperationFailed, ErrNoTransaction)
	}

	conn, err := s.getConnLocked(ctx)
	if err != nil {
		return err
	}
	if commitErr := conn.Commit(ctx); commitErr != nil {
		return errors.Join(domain.ErrOperationFailed, fmt.Errorf("committing transaction: %w", commitErr))
	}
	s.inTx = false

	return nil
}

// RollbackTransaction aborts the open transaction; without one it is a no-op.
func (s *Store) RollbackTransaction(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rollbackLocked(ctx)
}

func (s *Store) rollbackLocked(ctx context.Context) error {
	if !s.inTx || s.conn == nil {
		s.inTx = false

		return nil
	}

	if err := s.conn.Rollback(ctx); err != nil {
		s.inTx = false

		return errors.Join(domain.ErrOperationFailed, fmt.Errorf("rolling back transaction: %w", err))
	}
	s.inTx = false

	return nil
}

// Close rolls back any transaction still open and releases the cached
// session, guaranteeing no in-flight transaction outlives the store.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	if s.inTx {
		s.logWarn(ctx, logMsgRollbackAtClose)
		if rbErr := s.rollbackLocked(ctx); rbErr != nil {
			s.logWarn(ctx, logMsgRollbackAtClose, logAttrError, rbErr.Error())
		}
	}

	err := s.conn.Close(ctx)
	s.conn = nil
	if err != nil {
		return errors.Join(domain.ErrOperationFailed, fmt.Errorf("closing connection: %w", err))
	}

	return nil
}

// execLocked builds, binds and executes one statement. Callers hold s.mu.
func (s *Store) execLocked(ctx context.Context, sqlQuery string, args []any) error {
	conn, err := s.getConnLocked(ctx)
	if err != nil {
		return err
	}

	stmt := conn.Prepare(sqlQuery)
	bindArgs(stmt, args)

	if _, execErr := stmt.Exec(ctx); execErr != nil {
		return execErr
	}

	return nil
}

// queryLocked builds, binds and runs one query. Callers hold s.mu and must
// close the returned rows.
func (s *Store) queryLocked(ctx context.Context, sqlQuery string, args []any) (adapters.Rows, error) {
	conn, err := s.getConnLocked(ctx)
	if err != nil {
		return nil, err
	}

	stmt := conn.Prepare(sqlQuery)
	bindArgs(stmt, args)

	return stmt.Query(ctx)
}

// bindArgs copies each prepared argument into its own statement slot.
func bindArgs(stmt adapters.Statement, args []any) {
	for i, arg := range args {
		switch v := arg.(type) {
		case nil:
			stmt.BindNull(i + 1)
		case string:
			stmt.BindString(i+1, v)
		case int:
			stmt.BindInt(i+1, v)
		case int64:
			stmt.BindInt(i+1, int(v))
		default:
			stmt.BindString(i+1, fmt.Sprint(v))
		}
	}
}

func builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// failOp rewraps any protocol-level failure into the uniform storage error
// kind, keeping the protocol's diagnostic text.
func failOp(what string, id domain.EntityID, err error) error {
	if id == "" {
		return errors.Join(domain.ErrOperationFailed, fmt.Errorf("db error %s: %w", what, err))
	}

	return errors.Join(domain.ErrOperationFailed, fmt.Errorf("db error %s %s: %w", what, id, err))
}

func (s *Store) logWarn(ctx context.Context, msg string, args ...any) {
	if s.ctxLogger != nil {
		s.ctxLogger.WarnContext(ctx, msg, args...)

		return
	}
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Store) logInfo(ctx context.Context, msg string, args ...any) {
	if s.ctxLogger != nil {
		s.ctxLogger.InfoContext(ctx, msg, args...)

		return
	}
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Store) closeRows(ctx context.Context, rows adapters.Rows) {
	if err := rows.Close(); err != nil {
		s.logWarn(ctx, "failed to close rows", logAttrError, err.Error())
	}
}

var _ storage.Store = (*Store)(nil)
