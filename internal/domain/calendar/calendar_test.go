package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"furnishedstay/internal/domain/shared/daterange"
	"furnishedstay/internal/domain/shared/money"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestCalendar() *Calendar {
	return New("prop-1", money.Must(180, "USD"))
}

func TestDaySynthesizesAvailableAtEffectivePrice(t *testing.T) {
	cal := newTestCalendar()

	day := cal.Day(date(2026, 4, 1))
	assert.Equal(t, StatusAvailable, day.Status)
	assert.Equal(t, int64(180), day.Price.Amount)

	require.NoError(t, cal.SetPrices([]time.Time{date(2026, 4, 1)}, money.Must(250, "USD"), testNow))
	assert.Equal(t, int64(250), cal.Day(date(2026, 4, 1)).Price.Amount)
	assert.Equal(t, StatusAvailable, cal.Day(date(2026, 4, 1)).Status, "pricing never flips status")
}

func TestBlockBatchIsAtomic(t *testing.T) {
	cal := newTestCalendar()
	dates := []time.Time{
		date(2026, 4, 10),
		date(2026, 4, 11),
		date(2026, 2, 1), // in the past relative to testNow
	}

	err := cal.Block(dates, ReasonMaintenance, "", testNow)
	require.ErrorIs(t, err, ErrPastDate)

	assert.Empty(t, cal.TrackedDays(), "a failing batch must not touch any date")
	assert.Empty(t, cal.PendingEvents())
}

func TestBlockRejectsBookedDates(t *testing.T) {
	cal := newTestCalendar()
	r, err := daterange.New(date(2026, 4, 10), date(2026, 4, 12))
	require.NoError(t, err)
	require.NoError(t, cal.MarkBooked(r, "bk-1", false, testNow))

	err = cal.Block([]time.Time{date(2026, 4, 20), date(2026, 4, 11)}, ReasonPersonal, "", testNow)
	require.ErrorIs(t, err, ErrDateBooked)
	assert.Equal(t, StatusAvailable, cal.Day(date(2026, 4, 20)).Status)
}

func TestBlockValidatesInput(t *testing.T) {
	cal := newTestCalendar()

	assert.ErrorIs(t, cal.Block(nil, ReasonOther, "", testNow), ErrNoDates)
	assert.ErrorIs(t, cal.Block([]time.Time{date(2026, 4, 1)}, "vacation", "", testNow), ErrInvalidReason)
}

func TestUnblockRoundTripKeepsOverride(t *testing.T) {
	cal := newTestCalendar()
	target := date(2026, 4, 10)

	require.NoError(t, cal.SetPrices([]time.Time{target}, money.Must(250, "USD"), testNow))
	require.NoError(t, cal.Block([]time.Time{target}, ReasonMaintenance, "boiler", testNow))

	day := cal.Day(target)
	assert.Equal(t, StatusBlocked, day.Status)
	assert.Equal(t, ReasonMaintenance, day.BlockReason)
	assert.Equal(t, "boiler", day.BlockNote)
	assert.Equal(t, int64(250), day.Price.Amount, "blocked day carries the effective price")

	require.NoError(t, cal.Unblock(target, testNow))
	day = cal.Day(target)
	assert.Equal(t, StatusAvailable, day.Status)
	assert.Equal(t, int64(250), day.Price.Amount, "override survives the block/unblock cycle")
}

func TestUnblockOnlyWorksOnBlockedDates(t *testing.T) {
	cal := newTestCalendar()

	assert.ErrorIs(t, cal.Unblock(date(2026, 4, 10), testNow), ErrNotBlocked)

	r, err := daterange.New(date(2026, 4, 10), date(2026, 4, 11))
	require.NoError(t, err)
	require.NoError(t, cal.MarkBooked(r, "bk-1", false, testNow))
	assert.ErrorIs(t, cal.Unblock(date(2026, 4, 10), testNow), ErrNotBlocked)
}

func TestSetPricesValidation(t *testing.T) {
	cal := newTestCalendar()
	target := []time.Time{date(2026, 4, 10)}

	assert.ErrorIs(t, cal.SetPrices(nil, money.Must(100, "USD"), testNow), ErrNoDates)
	assert.ErrorIs(t, cal.SetPrices(target, money.Must(0, "USD"), testNow), ErrInvalidPrice)
	assert.ErrorIs(t, cal.SetPrices(target, money.Must(-5, "USD"), testNow), ErrInvalidPrice)
	assert.ErrorIs(t, cal.SetPrices(target, money.Must(100, "EUR"), testNow), money.ErrCurrencyMismatch)
}

func TestSetPricesOnBookedDateKeepsStatus(t *testing.T) {
	cal := newTestCalendar()
	r, err := daterange.New(date(2026, 4, 10), date(2026, 4, 11))
	require.NoError(t, err)
	require.NoError(t, cal.MarkBooked(r, "bk-1", false, testNow))

	require.NoError(t, cal.SetPrices([]time.Time{date(2026, 4, 10)}, money.Must(300, "USD"), testNow))
	day := cal.Day(date(2026, 4, 10))
	assert.Equal(t, StatusBooked, day.Status)
	assert.Equal(t, int64(300), day.Price.Amount)
	assert.Equal(t, "bk-1", day.GuestRef)
}

func TestMarkBookedPreventsOverbooking(t *testing.T) {
	cal := newTestCalendar()
	first, err := daterange.New(date(2026, 4, 10), date(2026, 4, 15))
	require.NoError(t, err)
	require.NoError(t, cal.MarkBooked(first, "bk-1", false, testNow))
	cal.ClearEvents()

	overlap, err := daterange.New(date(2026, 4, 14), date(2026, 4, 16))
	require.NoError(t, err)
	err = cal.MarkBooked(overlap, "bk-2", false, testNow)
	require.ErrorIs(t, err, ErrRangeUnavailable)

	events := cal.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "calendar.overbooking_prevented", events[0].EventName())
	assert.Equal(t, StatusAvailable, cal.Day(date(2026, 4, 15)).Status, "rejected range left untouched")
}

func TestPendingHoldDoesNotBlockBooking(t *testing.T) {
	cal := newTestCalendar()
	r, err := daterange.New(date(2026, 4, 10), date(2026, 4, 12))
	require.NoError(t, err)
	require.NoError(t, cal.MarkBooked(r, "hold-1", true, testNow))
	assert.Equal(t, StatusPending, cal.Day(date(2026, 4, 10)).Status)

	require.NoError(t, cal.MarkBooked(r, "bk-2", false, testNow))
	assert.Equal(t, StatusBooked, cal.Day(date(2026, 4, 10)).Status)
}

func TestReleaseBookingFreesOnlyMatchingDays(t *testing.T) {
	cal := newTestCalendar()
	first, err := daterange.New(date(2026, 4, 10), date(2026, 4, 12))
	require.NoError(t, err)
	second, err := daterange.New(date(2026, 4, 20), date(2026, 4, 22))
	require.NoError(t, err)
	require.NoError(t, cal.MarkBooked(first, "bk-1", false, testNow))
	require.NoError(t, cal.MarkBooked(second, "bk-2", false, testNow))

	released := cal.ReleaseBooking("bk-1", testNow)
	assert.Equal(t, 2, released)
	assert.Equal(t, StatusAvailable, cal.Day(date(2026, 4, 10)).Status)
	assert.Equal(t, StatusBooked, cal.Day(date(2026, 4, 20)).Status)

	assert.Equal(t, 0, cal.ReleaseBooking("bk-unknown", testNow))
}

func TestStatsPartitionTrackedDays(t *testing.T) {
	cal := newTestCalendar()

	booked, err := daterange.New(date(2026, 4, 1), date(2026, 4, 4))
	require.NoError(t, err)
	require.NoError(t, cal.MarkBooked(booked, "bk-1", false, testNow))
	require.NoError(t, cal.Block([]time.Time{date(2026, 4, 10), date(2026, 4, 11)}, ReasonPersonal, "", testNow))
	hold, err := daterange.New(date(2026, 4, 20), date(2026, 4, 21))
	require.NoError(t, err)
	require.NoError(t, cal.MarkBooked(hold, "hold-1", true, testNow))

	stats := cal.Stats()
	assert.Equal(t, 3, stats.BookedDays)
	assert.Equal(t, 2, stats.BlockedDays)
	assert.Equal(t, 1, stats.AvailableDays, "the pending day counts as available")
	total := stats.AvailableDays + stats.BookedDays + stats.BlockedDays
	assert.Equal(t, len(cal.TrackedDays()), total)
	assert.Equal(t, 50, stats.OccupancyRate, "3 booked of 6 tracked")
}

func TestStatsOnEmptyCalendar(t *testing.T) {
	stats := newTestCalendar().Stats()
	assert.Zero(t, stats.OccupancyRate)
	assert.Zero(t, stats.AvailableDays)
}

func TestPricingStatsOverOverridesOnly(t *testing.T) {
	cal := newTestCalendar()

	stats := cal.PricingStats()
	assert.Equal(t, int64(180), stats.AveragePrice.Amount, "no overrides means every figure equals base")
	assert.Equal(t, int64(180), stats.MinPrice.Amount)

	require.NoError(t, cal.SetPrices([]time.Time{date(2026, 4, 10), date(2026, 4, 11)}, money.Must(250, "USD"), testNow))
	stats = cal.PricingStats()
	assert.Equal(t, int64(180), stats.BasePrice.Amount)
	assert.Equal(t, int64(250), stats.AveragePrice.Amount)
	assert.Equal(t, int64(250), stats.MaxPrice.Amount)
	assert.Equal(t, int64(250), stats.MinPrice.Amount, "base price does not dilute the override aggregate")

	require.NoError(t, cal.SetPrices([]time.Time{date(2026, 4, 12)}, money.Must(100, "USD"), testNow))
	stats = cal.PricingStats()
	assert.Equal(t, int64(200), stats.AveragePrice.Amount)
	assert.Equal(t, int64(100), stats.MinPrice.Amount)
	assert.Equal(t, int64(250), stats.MaxPrice.Amount)
}

func TestRehydrateRestoresState(t *testing.T) {
	cal := newTestCalendar()
	require.NoError(t, cal.SetPrices([]time.Time{date(2026, 4, 10)}, money.Must(250, "USD"), testNow))
	require.NoError(t, cal.Block([]time.Time{date(2026, 4, 11)}, ReasonExternal, "feed", testNow))
	cal.Version = 4

	clone := Rehydrate(cal.PropertyID, cal.BasePrice, cal.Version, cal.TrackedDays(), cal.Overrides())
	assert.Equal(t, cal.Stats(), clone.Stats())
	assert.Equal(t, cal.PricingStats(), clone.PricingStats())
	assert.Equal(t, int64(4), clone.Version)
	assert.Empty(t, clone.PendingEvents())
}

func TestDomainEventsAreRecorded(t *testing.T) {
	cal := newTestCalendar()
	require.NoError(t, cal.Block([]time.Time{date(2026, 4, 10)}, ReasonMaintenance, "", testNow))
	require.NoError(t, cal.SetPrices([]time.Time{date(2026, 4, 12)}, money.Must(90, "USD"), testNow))
	require.NoError(t, cal.Unblock(date(2026, 4, 10), testNow))

	var names []string
	for _, ev := range cal.PendingEvents() {
		names = append(names, ev.EventName())
	}
	assert.Equal(t, []string{"calendar.blocked", "calendar.repriced", "calendar.released"}, names)

	cal.ClearEvents()
	assert.Empty(t, cal.PendingEvents())
}
