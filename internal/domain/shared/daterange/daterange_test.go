package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewRejectsInvertedRange(t *testing.T) {
	_, err := New(date(2026, 3, 10), date(2026, 3, 10))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(date(2026, 3, 10), date(2026, 3, 8))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestNormalizeTruncatesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	noisy := time.Date(2026, 3, 10, 4, 59, 30, 12, loc)
	got := Normalize(noisy)
	assert.Equal(t, date(2026, 3, 9), got, "04:59 UTC+5 is still March 9 in UTC")
	assert.Equal(t, time.UTC, got.Location())
}

func TestDaysExcludesCheckout(t *testing.T) {
	dr, err := New(date(2026, 3, 10), date(2026, 3, 13))
	require.NoError(t, err)

	var days []time.Time
	for d := range dr.Days() {
		days = append(days, d)
	}
	require.Len(t, days, 3)
	assert.Equal(t, date(2026, 3, 10), days[0])
	assert.Equal(t, date(2026, 3, 12), days[2])
	assert.Equal(t, 3, dr.Nights())
}

func TestOverlaps(t *testing.T) {
	base, err := New(date(2026, 3, 10), date(2026, 3, 15))
	require.NoError(t, err)

	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     bool
	}{
		{"identical", date(2026, 3, 10), date(2026, 3, 15), true},
		{"back to back before", date(2026, 3, 5), date(2026, 3, 10), false},
		{"back to back after", date(2026, 3, 15), date(2026, 3, 20), false},
		{"one shared night", date(2026, 3, 14), date(2026, 3, 16), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			other, err := New(tc.checkIn, tc.checkOut)
			require.NoError(t, err)
			assert.Equal(t, tc.want, base.Overlaps(other))
		})
	}
}

func TestContainsDate(t *testing.T) {
	dr, err := New(date(2026, 3, 10), date(2026, 3, 13))
	require.NoError(t, err)

	assert.True(t, dr.ContainsDate(date(2026, 3, 10)))
	assert.True(t, dr.ContainsDate(date(2026, 3, 12)))
	assert.False(t, dr.ContainsDate(date(2026, 3, 13)), "checkout day is outside the stay")
}

func TestShiftPreservesLength(t *testing.T) {
	dr, err := New(date(2026, 3, 10), date(2026, 3, 13))
	require.NoError(t, err)

	moved := dr.Shift(5)
	assert.Equal(t, date(2026, 3, 15), moved.CheckIn)
	assert.Equal(t, dr.Nights(), moved.Nights())
}
