package adapters

import (
	"context"
	"database/sql"
)

// SQLConnection implements Connection over a single sql.Conn checked out of
// a database/sql pool. Holding one sql.Conn pins the session, so explicit
// BEGIN/COMMIT/ROLLBACK statements stay on it.
type SQLConnection struct {
	conn *sql.Conn
}

// ConnectSQL checks a dedicated session out of the pool and wraps it.
func ConnectSQL(ctx context.Context, db *sql.DB) (*SQLConnection, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	return &SQLConnection{conn: conn}, nil
}

// NewSQLConnection wraps an already checked-out sql.Conn.
func NewSQLConnection(conn *sql.Conn) *SQLConnection {
	return &SQLConnection{conn: conn}
}

// Ping reports whether the session is still usable.
func (c *SQLConnection) Ping(ctx context.Context) error {
	return c.conn.PingContext(ctx)
}

// Prepare builds a statement with its own bind slots.
func (c *SQLConnection) Prepare(query string) Statement {
	return &sqlStatement{conn: c.conn, query: query}
}

// Begin starts a transaction on this session.
func (c *SQLConnection) Begin(ctx context.Context) error {
	_, err := c.conn.ExecContext(ctx, "BEGIN")

	return err
}

// Commit commits the open transaction.
func (c *SQLConnection) Commit(ctx context.Context) error {
	_, err := c.conn.ExecContext(ctx, "COMMIT")

	return err
}

// Rollback aborts the open transaction.
func (c *SQLConnection) Rollback(ctx context.Context) error {
	_, err := c.conn.ExecContext(ctx, "ROLLBACK")

	return err
}

// Close returns the session to the pool.
func (c *SQLConnection) Close(_ context.Context) error {
	return c.conn.Close()
}

// sqlStatement executes one parameterized query on the sql session.
type sqlStatement struct {
	bindSlots
	conn  *sql.Conn
	query string
}

// Query runs the statement and wraps the standard rows.
func (s *sqlStatement) Query(ctx context.Context) (Rows, error) {
	rows, err := s.conn.QueryContext(ctx, s.query, s.params...)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

// Exec runs the statement and wraps the standard result.
func (s *sqlStatement) Exec(ctx context.Context) (Result, error) {
	result, err := s.conn.ExecContext(ctx, s.query, s.params...)
	if err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}

var _ Connection = (*SQLConnection)(nil)
