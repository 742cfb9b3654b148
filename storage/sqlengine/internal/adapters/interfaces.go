package adapters

import "context"

// Connection is one live session with the relational store.
type Connection interface {
	// Ping reports whether the session is still usable; the engine
	// reconnects when it fails.
	Ping(ctx context.Context) error
	// Prepare builds a statement for a parameterized query. Binding and
	// execution happen on the returned Statement.
	Prepare(query string) Statement
	// Begin starts an explicit transaction on this session.
	Begin(ctx context.Context) error
	// Commit commits the open transaction.
	Commit(ctx context.Context) error
	// Rollback aborts the open transaction.
	Rollback(ctx context.Context) error
	// Close releases the session.
	Close(ctx context.Context) error
}

// Statement is a parameterized query with its own bind slots. Parameter
// indexes are 1-based, matching the $1, $2, ... placeholders in the query.
type Statement interface {
	BindString(index int, value string)
	BindInt(index int, value int)
	// BindNull binds an explicit SQL NULL, used for absent foreign keys and
	// optional columns; an empty string is never a null marker.
	BindNull(index int)
	Query(ctx context.Context) (Rows, error)
	Exec(ctx context.Context) (Result, error)
}

// Rows is the result set of a query.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// Result reports the outcome of an execution.
type Result interface {
	RowsAffected() (int64, error)
}
