package booking

import (
	"context"
	"fmt"
	"time"

	"furnishedstay/internal/app/commands"
	"furnishedstay/internal/app/outbox"
	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
	"furnishedstay/internal/domain/shared/daterange"
)

const reconcileBookingKey = "booking.reconcile"

const (
	StateConfirmed = "confirmed"
	StatePending   = "pending"
	StateCancelled = "cancelled"
)

// ReconcileBookingCommand mirrors a booking lifecycle event from the booking
// service onto the property calendar.
type ReconcileBookingCommand struct {
	CommandID  string
	PropertyID string
	BookingRef string
	CheckIn    time.Time
	CheckOut   time.Time
	State      string
}

func (c ReconcileBookingCommand) Key() string { return reconcileBookingKey }

type ReconcileBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *ReconcileBookingHandler) Handle(ctx context.Context, cmd ReconcileBookingCommand) (struct{}, error) {
	ctx, unit, release, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return struct{}{}, err
	}
	defer release()

	cal, err := unit.Calendars().ByProperty(ctx, domaincalendar.PropertyID(cmd.PropertyID))
	if err != nil {
		return struct{}{}, err
	}

	switch cmd.State {
	case StateCancelled:
		cal.ReleaseBooking(cmd.BookingRef, h.now())
	case StateConfirmed, StatePending:
		r, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
		if err != nil {
			return struct{}{}, err
		}
		// Re-confirming a pending hold first releases the held days.
		cal.ReleaseBooking(cmd.BookingRef, h.now())
		if err := cal.MarkBooked(r, cmd.BookingRef, cmd.State == StatePending, h.now()); err != nil {
			return struct{}{}, err
		}
	default:
		return struct{}{}, fmt.Errorf("booking: unknown state %q", cmd.State)
	}

	if err := outbox.Stage(ctx, h.Outbox, h.Encoder, cal); err != nil {
		return struct{}{}, err
	}
	if err := unit.Calendars().Save(ctx, cal); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, nil
}

func (h *ReconcileBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

var _ commands.Handler[ReconcileBookingCommand, struct{}] = (*ReconcileBookingHandler)(nil)
