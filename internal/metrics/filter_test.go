package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRangeInclusiveBounds(t *testing.T) {
	r, err := ParseDateRange("2025-03-01", "2025-03-02", time.UTC)
	require.NoError(t, err)

	assert.False(t, r.Contains(day(2025, 2, 28)))
	assert.True(t, r.Contains(day(2025, 3, 1)))
	assert.True(t, r.Contains(day(2025, 3, 2)))
	assert.True(t, r.Contains(day(2025, 3, 2).Add(23*time.Hour+59*time.Minute)))
	assert.False(t, r.Contains(day(2025, 3, 3)))
}

func TestDateRangeOpenBounds(t *testing.T) {
	r, err := ParseDateRange("", "", time.UTC)
	require.NoError(t, err)
	assert.True(t, r.Unbounded())
	assert.True(t, r.Contains(day(1999, 1, 1)))
	assert.True(t, r.Contains(day(2999, 1, 1)))

	r, err = ParseDateRange("2025-03-05", "", time.UTC)
	require.NoError(t, err)
	assert.False(t, r.Contains(day(2025, 3, 4)))
	assert.True(t, r.Contains(day(2030, 1, 1)))
	assert.Equal(t, "2025-03-05..*", r.String())

	r, err = ParseDateRange("", "2025-03-05", time.UTC)
	require.NoError(t, err)
	assert.True(t, r.Contains(day(2000, 1, 1)))
	assert.False(t, r.Contains(day(2025, 3, 6)))
}

func TestDateRangeRejectsMalformedBounds(t *testing.T) {
	_, err := ParseDateRange("01/03/2025", "", time.UTC)
	assert.ErrorContains(t, err, "startDate")
	_, err = ParseDateRange("", "tomorrow", time.UTC)
	assert.ErrorContains(t, err, "endDate")
}

func TestDateRangeUsesLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	r, err := ParseDateRange("2025-03-02", "2025-03-02", paris)
	require.NoError(t, err)

	rec, ok := ParseSheetDate("02/03/2025", paris)
	require.True(t, ok)
	assert.True(t, r.Contains(rec))

	prev, _ := ParseSheetDate("01/03/2025", paris)
	assert.False(t, r.Contains(prev))
}
