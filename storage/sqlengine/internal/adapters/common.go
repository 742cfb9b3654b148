package adapters

import "database/sql"

// bindSlots holds one owned slot per bound parameter, scoped to the
// statement that created it. The original design reused a single mutable
// scratch buffer across binds, which is unsafe the moment a prepared
// statement is reused; every bind here writes its own slot instead.
type bindSlots struct {
	params []any
}

func (b *bindSlots) set(index int, value any) {
	for len(b.params) < index {
		b.params = append(b.params, nil)
	}
	b.params[index-1] = value
}

// BindString binds a string parameter into its own slot.
func (b *bindSlots) BindString(index int, value string) {
	b.set(index, value)
}

// BindInt binds an integer parameter into its own slot.
func (b *bindSlots) BindInt(index int, value int) {
	b.set(index, value)
}

// BindNull binds an explicit SQL NULL into its own slot.
func (b *bindSlots) BindNull(index int) {
	b.set(index, nil)
}

// stdRows wraps standard library sql.Rows to implement the Rows interface.
type stdRows struct {
	rows *sql.Rows
}

// Next advances to the next row.
func (s *stdRows) Next() bool {
	return s.rows.Next()
}

// Scan copies row values into provided destinations.
func (s *stdRows) Scan(dest ...any) error {
	return s.rows.Scan(dest...)
}

// Close closes the rows iterator.
func (s *stdRows) Close() error {
	return s.rows.Close()
}

// stdResult wraps standard library sql.Result to implement the Result interface.
type stdResult struct {
	result sql.Result
}

// RowsAffected returns the number of rows affected by the command.
func (s *stdResult) RowsAffected() (int64, error) {
	return s.result.RowsAffected()
}
