package adapters

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// PGXConnection implements Connection over a single pgx.Conn.
type PGXConnection struct {
	conn *pgx.Conn
}

// ConnectPGX dials the store with pgx and wraps the session.
func ConnectPGX(ctx context.Context, dsn string) (*PGXConnection, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return &PGXConnection{conn: conn}, nil
}

// NewPGXConnection wraps an already established pgx.Conn.
func NewPGXConnection(conn *pgx.Conn) *PGXConnection {
	return &PGXConnection{conn: conn}
}

// Ping reports whether the session is still usable.
func (c *PGXConnection) Ping(ctx context.Context) error {
	if c.conn.IsClosed() {
		return errors.New("pgx connection is closed")
	}

	return c.conn.Ping(ctx)
}

// Prepare builds a statement with its own bind slots.
func (c *PGXConnection) Prepare(query string) Statement {
	return &pgxStatement{conn: c.conn, query: query}
}

// Begin starts a transaction on this session.
func (c *PGXConnection) Begin(ctx context.Context) error {
	_, err := c.conn.Exec(ctx, "BEGIN")

	return err
}

// Commit commits the open transaction.
func (c *PGXConnection) Commit(ctx context.Context) error {
	_, err := c.conn.Exec(ctx, "COMMIT")

	return err
}

// Rollback aborts the open transaction.
func (c *PGXConnection) Rollback(ctx context.Context) error {
	_, err := c.conn.Exec(ctx, "ROLLBACK")

	return err
}

// Close releases the session.
func (c *PGXConnection) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// pgxStatement executes one parameterized query on the pgx session.
type pgxStatement struct {
	bindSlots
	conn  *pgx.Conn
	query string
}

// Query runs the statement and wraps the pgx rows.
func (s *pgxStatement) Query(ctx context.Context) (Rows, error) {
	rows, err := s.conn.Query(ctx, s.query, s.params...)
	if err != nil {
		return nil, err
	}

	return &pgxRows{rows: rows}, nil
}

// Exec runs the statement and wraps the command tag.
func (s *pgxStatement) Exec(ctx context.Context) (Result, error) {
	tag, err := s.conn.Exec(ctx, s.query, s.params...)
	if err != nil {
		return nil, err
	}

	return pgxResult{rowsAffected: tag.RowsAffected()}, nil
}

// pgxRows wraps pgx.Rows to implement the Rows interface.
type pgxRows struct {
	rows pgx.Rows
}

// Next advances to the next row.
func (p *pgxRows) Next() bool {
	return p.rows.Next()
}

// Scan copies row values into provided destinations.
func (p *pgxRows) Scan(dest ...any) error {
	return p.rows.Scan(dest...)
}

// Close closes the rows iterator.
func (p *pgxRows) Close() error {
	p.rows.Close()
	return nil
}

// pgxResult carries the rows-affected count of a command tag.
type pgxResult struct {
	rowsAffected int64
}

// RowsAffected returns the number of rows affected by the command.
func (p pgxResult) RowsAffected() (int64, error) {
	return p.rowsAffected, nil
}

var _ Connection = (*PGXConnection)(nil)
