package adapters

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQLXConnection implements Connection over a single sqlx.Conn.
type SQLXConnection struct {
	conn *sqlx.Conn
}

// ConnectSQLX checks a dedicated session out of the sqlx pool and wraps it.
func ConnectSQLX(ctx context.Context, db *sqlx.DB) (*SQLXConnection, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, err
	}

	return &SQLXConnection{conn: conn}, nil
}

// NewSQLXConnection wraps an already checked-out sqlx.Conn.
func NewSQLXConnection(conn *sqlx.Conn) *SQLXConnection {
	return &SQLXConnection{conn: conn}
}

// Ping reports whether the session is still usable.
func (c *SQLXConnection) Ping(ctx context.Context) error {
	return c.conn.PingContext(ctx)
}

// Prepare builds a statement with its own bind slots.
func (c *SQLXConnection) Prepare(query string) Statement {
	return &sqlxStatement{conn: c.conn, query: query}
}

// Begin starts a transaction on this session.
func (c *SQLXConnection) Begin(ctx context.Context) error {
	_, err := c.conn.ExecContext(ctx, "BEGIN")

	return err
}

// Commit commits the open transaction.
func (c *SQLXConnection) Commit(ctx context.Context) error {
	_, err := c.conn.ExecContext(ctx, "COMMIT")

	return err
}

// Rollback aborts the open transaction.
func (c *SQLXConnection) Rollback(ctx context.Context) error {
	_, err := c.conn.ExecContext(ctx, "ROLLBACK")

	return err
}

// Close returns the session to the pool.
func (c *SQLXConnection) Close(_ context.Context) error {
	return c.conn.Close()
}

// sqlxStatement executes one parameterized query on the sqlx session.
type sqlxStatement struct {
	bindSlots
	conn  *sqlx.Conn
	query string
}

// Query runs the statement and wraps the standard rows.
func (s *sqlxStatement) Query(ctx context.Context) (Rows, error) {
	rows, err := s.conn.QueryContext(ctx, s.query, s.params...)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

// Exec runs the statement and wraps the standard result.
func (s *sqlxStatement) Exec(ctx context.Context) (Result, error) {
	result, err := s.conn.ExecContext(ctx, s.query, s.params...)
	if err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}

var _ Connection = (*SQLXConnection)(nil)
