package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDayDate(t *testing.T) {
	t.Parallel()

	day, err := ParseDayDate("2026-08-15")
	require.NoError(t, err)
	assert.Equal(t, 2026, day.Year())
	assert.Equal(t, time.August, day.Month())
	assert.Equal(t, 15, day.Day())

	for _, bad := range []string{"", "15-08-2026", "2026/08/15", "2026-13-01", "yesterday"} {
		_, err := ParseDayDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestValidateDateRange(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, ValidateDateRange(from, from))
	assert.NoError(t, ValidateDateRange(from, from.AddDate(0, 0, 7)))
	assert.Error(t, ValidateDateRange(from.AddDate(0, 0, 1), from))
}
