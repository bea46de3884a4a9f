package daterange

import (
	"errors"
	"iter"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// DateRange represents a half-open interval [checkIn, checkOut) at day
// granularity. The checkout day itself is never part of the stay.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Normalize(checkIn), CheckOut: Normalize(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Normalize truncates a timestamp to UTC midnight so calendar days compare
// and hash by date alone.
func Normalize(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return int(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24)
}

// Days walks every day of the half-open interval in ascending order. The
// sequence is restartable and stops before the checkout day.
func (dr DateRange) Days() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for d := Normalize(dr.CheckIn); d.Before(dr.CheckOut); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
		}
	}
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Normalize(t)
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

// Shift returns the range moved forward by the given number of days,
// preserving its length.
func (dr DateRange) Shift(days int) DateRange {
	return DateRange{
		CheckIn:  dr.CheckIn.AddDate(0, 0, days),
		CheckOut: dr.CheckOut.AddDate(0, 0, days),
	}
}
