package calendar

import (
	"time"

	"furnishedstay/internal/domain/shared/daterange"
	"furnishedstay/internal/domain/shared/money"
)

type DatesBlocked struct {
	PropertyID string
	Dates      []time.Time
	Reason     BlockReason
	At         time.Time
}

func (e DatesBlocked) EventName() string     { return "calendar.blocked" }
func (e DatesBlocked) AggregateID() string   { return e.PropertyID }
func (e DatesBlocked) OccurredAt() time.Time { return e.At }

type DateReleased struct {
	PropertyID string
	Date       time.Time
	At         time.Time
}

func (e DateReleased) EventName() string     { return "calendar.released" }
func (e DateReleased) AggregateID() string   { return e.PropertyID }
func (e DateReleased) OccurredAt() time.Time { return e.At }

type DatesRepriced struct {
	PropertyID string
	Dates      []time.Time
	Price      money.Money
	At         time.Time
}

func (e DatesRepriced) EventName() string     { return "calendar.repriced" }
func (e DatesRepriced) AggregateID() string   { return e.PropertyID }
func (e DatesRepriced) OccurredAt() time.Time { return e.At }

type RangeBooked struct {
	PropertyID string
	Range      daterange.DateRange
	GuestRef   string
	At         time.Time
}

func (e RangeBooked) EventName() string     { return "calendar.booked" }
func (e RangeBooked) AggregateID() string   { return e.PropertyID }
func (e RangeBooked) OccurredAt() time.Time { return e.At }

type BookingReleased struct {
	PropertyID string
	GuestRef   string
	At         time.Time
}

func (e BookingReleased) EventName() string     { return "calendar.booking_released" }
func (e BookingReleased) AggregateID() string   { return e.PropertyID }
func (e BookingReleased) OccurredAt() time.Time { return e.At }

type OverbookingPrevented struct {
	PropertyID string
	Range      daterange.DateRange
	At         time.Time
}

func (e OverbookingPrevented) EventName() string     { return "calendar.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string   { return e.PropertyID }
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }

func DatesBlockedEvent(id PropertyID, dates []time.Time, reason BlockReason, at time.Time) DatesBlocked {
	return DatesBlocked{PropertyID: string(id), Dates: dates, Reason: reason, At: at.UTC()}
}

func DateReleasedEvent(id PropertyID, date time.Time, at time.Time) DateReleased {
	return DateReleased{PropertyID: string(id), Date: date, At: at.UTC()}
}

func DatesRepricedEvent(id PropertyID, dates []time.Time, price money.Money, at time.Time) DatesRepriced {
	return DatesRepriced{PropertyID: string(id), Dates: dates, Price: price, At: at.UTC()}
}

func RangeBookedEvent(id PropertyID, r daterange.DateRange, guestRef string, at time.Time) RangeBooked {
	return RangeBooked{PropertyID: string(id), Range: r, GuestRef: guestRef, At: at.UTC()}
}

func BookingReleasedEvent(id PropertyID, guestRef string, at time.Time) BookingReleased {
	return BookingReleased{PropertyID: string(id), GuestRef: guestRef, At: at.UTC()}
}

func OverbookingPreventedEvent(id PropertyID, r daterange.DateRange, at time.Time) OverbookingPrevented {
	return OverbookingPrevented{PropertyID: string(id), Range: r, At: at.UTC()}
}
