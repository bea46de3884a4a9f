package calendar

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"furnishedstay/internal/domain/shared/daterange"
	"furnishedstay/internal/domain/shared/events"
	"furnishedstay/internal/domain/shared/money"
)

var (
	ErrNoDates          = errors.New("calendar: no dates supplied")
	ErrPastDate         = errors.New("calendar: date is in the past")
	ErrDateBooked       = errors.New("calendar: date is occupied by a confirmed booking")
	ErrNotBlocked       = errors.New("calendar: date is not blocked")
	ErrInvalidPrice     = errors.New("calendar: price must be positive")
	ErrInvalidReason    = errors.New("calendar: unknown block reason")
	ErrRangeUnavailable = errors.New("calendar: range overlaps occupied dates")
)

type PropertyID string

type DayStatus string

const (
	StatusAvailable DayStatus = "available"
	StatusBooked    DayStatus = "booked"
	StatusBlocked   DayStatus = "blocked"
	StatusPending   DayStatus = "pending"
)

type BlockReason string

const (
	ReasonMaintenance BlockReason = "maintenance"
	ReasonPersonal    BlockReason = "personal"
	ReasonExternal    BlockReason = "external"
	ReasonOther       BlockReason = "other"
)

func (r BlockReason) valid() bool {
	switch r {
	case ReasonMaintenance, ReasonPersonal, ReasonExternal, ReasonOther:
		return true
	}
	return false
}

// Day is the per-date record. Absent dates are available at the effective
// price, so the calendar stays sparse.
type Day struct {
	Date        time.Time
	Status      DayStatus
	Price       money.Money
	GuestRef    string
	BlockReason BlockReason
	BlockNote   string
}

// Occupied reports whether the day rejects a booking request. Pending holds
// do not block a new request.
func (d Day) Occupied() bool {
	return d.Status == StatusBooked || d.Status == StatusBlocked
}

type Stats struct {
	AvailableDays int
	BookedDays    int
	BlockedDays   int
	OccupancyRate int
}

type PricingStats struct {
	BasePrice    money.Money
	AveragePrice money.Money
	MaxPrice     money.Money
	MinPrice     money.Money
}

// Calendar is the per-property aggregate holding day records, price
// overrides and the base nightly rate.
type Calendar struct {
	PropertyID PropertyID
	BasePrice  money.Money
	Version    int64
	days       map[time.Time]Day
	overrides  map[time.Time]money.Money
	events.EventRecorder
}

type Repository interface {
	ByProperty(ctx context.Context, id PropertyID) (*Calendar, error)
	Save(ctx context.Context, cal *Calendar) error
}

func New(id PropertyID, basePrice money.Money) *Calendar {
	return &Calendar{
		PropertyID: id,
		BasePrice:  basePrice,
		days:       make(map[time.Time]Day),
		overrides:  make(map[time.Time]money.Money),
	}
}

// Rehydrate rebuilds an aggregate from persisted state.
func Rehydrate(id PropertyID, basePrice money.Money, version int64, days []Day, overrides map[time.Time]money.Money) *Calendar {
	cal := New(id, basePrice)
	cal.Version = version
	for _, d := range days {
		d.Date = daterange.Normalize(d.Date)
		cal.days[d.Date] = d
	}
	for date, price := range overrides {
		cal.overrides[daterange.Normalize(date)] = price
	}
	return cal
}

// Day returns the stored record for a date, or a synthesized available day
// at the effective price. It never fails.
func (c *Calendar) Day(date time.Time) Day {
	date = daterange.Normalize(date)
	if d, ok := c.days[date]; ok {
		return d
	}
	return Day{Date: date, Status: StatusAvailable, Price: c.EffectivePrice(date)}
}

// EffectivePrice is the per-date override when one exists, the base price
// otherwise. Pricing and availability are independent axes.
func (c *Calendar) EffectivePrice(date time.Time) money.Money {
	if price, ok := c.overrides[daterange.Normalize(date)]; ok {
		return price
	}
	return c.BasePrice
}

// Days walks the range through stored and synthesized records in ascending
// order, excluding the checkout day.
func (c *Calendar) Days(r daterange.DateRange) []Day {
	out := make([]Day, 0, r.Nights())
	for date := range r.Days() {
		out = append(out, c.Day(date))
	}
	return out
}

// TrackedDays returns every stored record sorted by date.
func (c *Calendar) TrackedDays() []Day {
	out := make([]Day, 0, len(c.days))
	for _, d := range c.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Overrides returns a copy of the per-date price overrides.
func (c *Calendar) Overrides() map[time.Time]money.Money {
	out := make(map[time.Time]money.Money, len(c.overrides))
	for date, price := range c.overrides {
		out[date] = price
	}
	return out
}

// Block marks every date unavailable for a non-booking reason. The batch is
// all-or-nothing: validation runs over the full set before any date is
// touched. Dates already held by a confirmed booking are never overridden.
func (c *Calendar) Block(dates []time.Time, reason BlockReason, note string, now time.Time) error {
	if len(dates) == 0 {
		return ErrNoDates
	}
	if !reason.valid() {
		return ErrInvalidReason
	}
	today := daterange.Normalize(now)
	normalized := make([]time.Time, 0, len(dates))
	for _, date := range dates {
		date = daterange.Normalize(date)
		if date.Before(today) {
			return fmt.Errorf("%w: %s", ErrPastDate, date.Format(time.DateOnly))
		}
		if c.Day(date).Status == StatusBooked {
			return fmt.Errorf("%w: %s", ErrDateBooked, date.Format(time.DateOnly))
		}
		normalized = append(normalized, date)
	}
	for _, date := range normalized {
		c.days[date] = Day{
			Date:        date,
			Status:      StatusBlocked,
			Price:       c.EffectivePrice(date),
			BlockReason: reason,
			BlockNote:   note,
		}
	}
	c.Record(DatesBlockedEvent(c.PropertyID, normalized, reason, now))
	return nil
}

// Unblock resets a blocked date to available. The price override, when one
// exists, survives the block/unblock cycle.
func (c *Calendar) Unblock(date time.Time, now time.Time) error {
	date = daterange.Normalize(date)
	day, ok := c.days[date]
	if !ok || day.Status != StatusBlocked {
		return fmt.Errorf("%w: %s", ErrNotBlocked, date.Format(time.DateOnly))
	}
	c.days[date] = Day{Date: date, Status: StatusAvailable, Price: c.EffectivePrice(date)}
	c.Record(DateReleasedEvent(c.PropertyID, date, now))
	return nil
}

// SetPrices applies a per-date override to every date in the batch. Status is
// untouched; a booked date may receive a forward-looking price change.
func (c *Calendar) SetPrices(dates []time.Time, price money.Money, now time.Time) error {
	if len(dates) == 0 {
		return ErrNoDates
	}
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	if price.Currency != c.BasePrice.Currency {
		return money.ErrCurrencyMismatch
	}
	normalized := make([]time.Time, 0, len(dates))
	for _, date := range dates {
		normalized = append(normalized, daterange.Normalize(date))
	}
	for _, date := range normalized {
		c.overrides[date] = price
		if day, ok := c.days[date]; ok {
			day.Price = price
			c.days[date] = day
		}
	}
	c.Record(DatesRepricedEvent(c.PropertyID, normalized, price, now))
	return nil
}

// MarkBooked occupies a stay range on behalf of a booking. Pending holds use
// StatusPending and can later be confirmed or dropped by another event.
func (c *Calendar) MarkBooked(r daterange.DateRange, guestRef string, pending bool, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	for date := range r.Days() {
		if c.Day(date).Occupied() {
			c.Record(OverbookingPreventedEvent(c.PropertyID, r, now))
			return fmt.Errorf("%w: %s", ErrRangeUnavailable, date.Format(time.DateOnly))
		}
	}
	status := StatusBooked
	if pending {
		status = StatusPending
	}
	for date := range r.Days() {
		c.days[date] = Day{Date: date, Status: status, Price: c.EffectivePrice(date), GuestRef: guestRef}
	}
	c.Record(RangeBookedEvent(c.PropertyID, r, guestRef, now))
	return nil
}

// ReleaseBooking frees every day held under the given guest reference.
func (c *Calendar) ReleaseBooking(guestRef string, now time.Time) int {
	released := 0
	for date, day := range c.days {
		if day.GuestRef != guestRef {
			continue
		}
		c.days[date] = Day{Date: date, Status: StatusAvailable, Price: c.EffectivePrice(date)}
		released++
	}
	if released > 0 {
		c.Record(BookingReleasedEvent(c.PropertyID, guestRef, now))
	}
	return released
}

// Stats aggregates over the tracked days. Pending days count as available so
// available + booked + blocked always equals the tracked total.
func (c *Calendar) Stats() Stats {
	total := len(c.days)
	if total == 0 {
		return Stats{}
	}
	var booked, blocked int
	for _, day := range c.days {
		switch day.Status {
		case StatusBooked:
			booked++
		case StatusBlocked:
			blocked++
		}
	}
	return Stats{
		AvailableDays: total - booked - blocked,
		BookedDays:    booked,
		BlockedDays:   blocked,
		OccupancyRate: int(math.Round(float64(booked) / float64(total) * 100)),
	}
}

// PricingStats aggregates over the override set only. Without overrides all
// three derived prices equal the base price.
func (c *Calendar) PricingStats() PricingStats {
	stats := PricingStats{
		BasePrice:    c.BasePrice,
		AveragePrice: c.BasePrice,
		MaxPrice:     c.BasePrice,
		MinPrice:     c.BasePrice,
	}
	if len(c.overrides) == 0 {
		return stats
	}
	var sum int64
	first := true
	for _, price := range c.overrides {
		sum += price.Amount
		if first {
			stats.MaxPrice, stats.MinPrice = price, price
			first = false
			continue
		}
		if stats.MaxPrice.LessThan(price) {
			stats.MaxPrice = price
		}
		if price.LessThan(stats.MinPrice) {
			stats.MinPrice = price
		}
	}
	avg := money.Money{Amount: sum, Currency: c.BasePrice.Currency}
	stats.AveragePrice = avg.DivideRound(int64(len(c.overrides)))
	return stats
}
