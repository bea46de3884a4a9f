package calendar

import (
	"errors"
	"fmt"
	"time"

	"furnishedstay/internal/domain/shared/daterange"
	"furnishedstay/internal/domain/shared/money"
)

var ErrInvalidGuests = errors.New("calendar: guest count must be positive")

// QuotePolicy tunes the conflict checker. Zero values fall back to the
// defaults below.
type QuotePolicy struct {
	OfferMinNights  int
	MaxAlternatives int
	ScanHorizonDays int
}

const (
	defaultOfferMinNights  = 7
	defaultMaxAlternatives = 2
	defaultScanHorizonDays = 90
)

func (p QuotePolicy) withDefaults() QuotePolicy {
	if p.OfferMinNights <= 0 {
		p.OfferMinNights = defaultOfferMinNights
	}
	if p.MaxAlternatives <= 0 {
		p.MaxAlternatives = defaultMaxAlternatives
	}
	if p.ScanHorizonDays <= 0 {
		p.ScanHorizonDays = defaultScanHorizonDays
	}
	return p
}

// AlternativeStay is a verified-open window suggested when the requested
// range conflicts.
type AlternativeStay struct {
	Range      daterange.DateRange
	TotalPrice money.Money
}

// Quote is the transient result of a conflict check; it is never persisted.
type Quote struct {
	Available        bool
	Nights           int
	PricePerNight    money.Money
	TotalPrice       money.Money
	SpecialOffer     string
	UnavailableDates []time.Time
	Alternatives     []AlternativeStay
}

// Quote answers whether the half-open range is bookable and prices it. The
// read never mutates the calendar. On conflict it reports every occupied
// date and suggests alternative windows of the same length, each re-checked
// against the calendar before being returned.
func (c *Calendar) Quote(r daterange.DateRange, guests int, policy QuotePolicy) (Quote, error) {
	if err := r.Validate(); err != nil {
		return Quote{}, err
	}
	if guests <= 0 {
		return Quote{}, ErrInvalidGuests
	}
	policy = policy.withDefaults()

	var unavailable []time.Time
	for date := range r.Days() {
		if c.Day(date).Occupied() {
			unavailable = append(unavailable, date)
		}
	}
	if len(unavailable) > 0 {
		return Quote{
			Available:        false,
			Nights:           r.Nights(),
			UnavailableDates: unavailable,
			Alternatives:     c.alternatives(r, policy),
		}, nil
	}

	total := c.rangeTotal(r)
	nights := r.Nights()
	quote := Quote{
		Available:     true,
		Nights:        nights,
		TotalPrice:    total,
		PricePerNight: total.DivideRound(int64(nights)),
	}
	if nights >= policy.OfferMinNights {
		quote.SpecialOffer = fmt.Sprintf("%d+ night discount applied", policy.OfferMinNights)
	}
	return quote, nil
}

// alternatives scans forward from the requested checkout for windows of the
// same length with no occupied day.
func (c *Calendar) alternatives(r daterange.DateRange, policy QuotePolicy) []AlternativeStay {
	var out []AlternativeStay
	candidate := daterange.DateRange{CheckIn: r.CheckOut, CheckOut: r.CheckOut.AddDate(0, 0, r.Nights())}
	for offset := 0; offset < policy.ScanHorizonDays && len(out) < policy.MaxAlternatives; offset++ {
		if c.rangeOpen(candidate) {
			out = append(out, AlternativeStay{Range: candidate, TotalPrice: c.rangeTotal(candidate)})
			candidate = candidate.Shift(candidate.Nights())
			continue
		}
		candidate = candidate.Shift(1)
	}
	return out
}

func (c *Calendar) rangeOpen(r daterange.DateRange) bool {
	for date := range r.Days() {
		if c.Day(date).Occupied() {
			return false
		}
	}
	return true
}

// rangeTotal sums the effective per-date price over the half-open range;
// with overrides in play this differs from nights times base price.
func (c *Calendar) rangeTotal(r daterange.DateRange) money.Money {
	total := money.Money{Amount: 0, Currency: c.BasePrice.Currency}
	for date := range r.Days() {
		total, _ = total.Add(c.EffectivePrice(date))
	}
	return total
}
