// Package adapters provides the connection/prepared-statement/result-set
// protocol layer the SQL storage engine talks through.
//
// This package implements the adapter pattern to support multiple PostgreSQL
// database libraries: pgx.Conn, sql.Conn, and sqlx.Conn. All adapters provide
// equivalent functionality through a common Connection interface, so the
// engine works the same over any supported client library.
//
// Each connection is a single database session, not a pool: transactions are
// plain BEGIN/COMMIT/ROLLBACK on that session, and the engine serializes all
// statement execution through one connection. Statements own one bind slot
// per parameter; binding never shares a scratch buffer between parameters or
// between statements.
package adapters
