// Package datetime fixes the textual timestamp formats shared by the file
// and SQL backends and provides the clock used by the loan lifecycle.
package datetime

import (
	"strings"
	"time"
)

const (
	// TimestampLayout is the persisted date format for flat files: YYYY-MM-DD HH:MM:SS.
	TimestampLayout = "2006-01-02 15:04:05"

	// SQLTimestampLayout is the format written to the relational store; it
	// carries microseconds that are truncated again on the way back.
	SQLTimestampLayout = "2006-01-02 15:04:05.000000"
)

// Format renders a time in the flat-file layout.
func Format(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Parse reads a flat-file timestamp in the local timezone.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}

// FormatSQL renders a time in the SQL timestamp layout, microsecond precision.
func FormatSQL(t time.Time) string {
	return t.Format(SQLTimestampLayout)
}

// ParseSQL reads a SQL timestamp string. Sub-second precision is truncated:
// the relational store may hand back more fractional digits than were
// written, and the system accepts second resolution as the fidelity floor.
func ParseSQL(s string) (time.Time, error) {
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		s = s[:dot]
	}
	if len(s) > len(TimestampLayout) {
		s = s[:len(TimestampLayout)]
	}

	return Parse(s)
}

// AddDays shifts a time by whole days.
func AddDays(t time.Time, days int) time.Time {
	return t.Add(time.Duration(days) * 24 * time.Hour)
}

// Midnight truncates a time to 00:00:00 of the same local day.
func Midnight(t time.Time) time.Time {
	year, month, day := t.Date()

	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// Clock supplies the current time to components that must stay testable.
type Clock interface {
	// Now is the current instant.
	Now() time.Time
	// Today is midnight of the current local day, the boundary used for
	// overdue detection.
	Today() time.Time
}

// SystemClock is the production Clock reading the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Today implements Clock.
func (SystemClock) Today() time.Time {
	return Midnight(time.Now())
}
