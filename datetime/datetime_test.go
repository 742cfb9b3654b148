package datetime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datdd/library-management-system/datetime"
)

func Test_Format_And_Parse_RoundTrip(t *testing.T) {
	moment := time.Date(2024, 6, 15, 13, 45, 9, 0, time.Local)

	parsed, err := datetime.Parse(datetime.Format(moment))

	require.NoError(t, err)
	assert.True(t, parsed.Equal(moment))
}

func Test_Parse_RejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty_string", input: ""},
		{name: "wrong_separator", input: "2024/06/15 13:45:09"},
		{name: "date_only", input: "2024-06-15"},
		{name: "garbage", input: "not a date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := datetime.Parse(tt.input)
			assert.Error(t, err)
		})
	}
}

func Test_ParseSQL_TruncatesSubSecondPrecision(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "microseconds", input: "2024-06-15 13:45:09.123456"},
		{name: "nanoseconds", input: "2024-06-15 13:45:09.123456789"},
		{name: "no_fraction", input: "2024-06-15 13:45:09"},
	}

	want := time.Date(2024, 6, 15, 13, 45, 9, 0, time.Local)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := datetime.ParseSQL(tt.input)

			require.NoError(t, err)
			assert.True(t, parsed.Equal(want), "sub-second precision must truncate to whole seconds")
		})
	}
}

func Test_FormatSQL_CarriesMicroseconds(t *testing.T) {
	moment := time.Date(2024, 6, 15, 13, 45, 9, 123456000, time.Local)

	assert.Equal(t, "2024-06-15 13:45:09.123456", datetime.FormatSQL(moment))
}

func Test_AddDays(t *testing.T) {
	start := time.Date(2024, 2, 27, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC), datetime.AddDays(start, 2),
		"leap day must be counted")
	assert.Equal(t, time.Date(2024, 2, 26, 8, 0, 0, 0, time.UTC), datetime.AddDays(start, -1))
}

func Test_Midnight(t *testing.T) {
	moment := time.Date(2024, 6, 15, 23, 59, 59, 999999999, time.Local)

	midnight := datetime.Midnight(moment)

	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.Local), midnight)
}

func Test_SystemClock_TodayIsMidnightOfNow(t *testing.T) {
	clock := datetime.SystemClock{}

	today := clock.Today()

	hour, minute, sec := today.Clock()
	assert.Zero(t, hour)
	assert.Zero(t, minute)
	assert.Zero(t, sec)
	assert.False(t, today.After(clock.Now()))
}
