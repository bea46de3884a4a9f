package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesCurrency(t *testing.T) {
	_, err := New(100, "DOLLARS")
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	m, err := New(100, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)
}

func TestAddRequiresSameCurrency(t *testing.T) {
	usd := Must(100, "USD")
	eur := Must(100, "EUR")

	_, err := usd.Add(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	sum, err := usd.Add(Must(80, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(180), sum.Amount)
}

func TestDivideRound(t *testing.T) {
	tests := []struct {
		amount  int64
		divisor int64
		want    int64
	}{
		{1260, 7, 180},
		{1000, 3, 333},
		{1001, 2, 501},
		{100, 0, 0},
	}
	for _, tc := range tests {
		got := Money{Amount: tc.amount, Currency: "USD"}.DivideRound(tc.divisor)
		assert.Equal(t, tc.want, got.Amount, "%d / %d", tc.amount, tc.divisor)
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, Must(1, "USD").IsPositive())
	assert.False(t, Must(0, "USD").IsPositive())
	assert.True(t, Must(0, "USD").IsZero())
	assert.True(t, Must(5, "USD").LessThan(Must(6, "USD")))
	assert.Equal(t, int64(540), Must(180, "USD").Multiply(3).Amount)
}
