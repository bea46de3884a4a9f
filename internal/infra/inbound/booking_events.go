package inbound

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"furnishedstay/internal/app/commands"
	"furnishedstay/internal/app/handlers/booking"
)

// BookingEvents consumes booking lifecycle CloudEvents and replays them onto
// property calendars through the command bus. Domain validation failures are
// logged and acknowledged; only transient errors trigger a redelivery.
type BookingEvents struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type cloudEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data bookingPayload  `json:"data"`
}

type bookingPayload struct {
	PropertyID string `json:"property_id"`
	BookingID  string `json:"booking_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	State      string `json:"state"`
}

func (c *BookingEvents) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt cloudEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		c.log().Warn("dropping malformed booking event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return nil
	}
	cmd, err := c.toCommand(evt)
	if err != nil {
		c.log().Warn("dropping unusable booking event", "type", evt.Type, "id", evt.ID, "error", err)
		return nil
	}
	if _, err := commands.Dispatch[booking.ReconcileBookingCommand, struct{}](ctx, c.Commands, cmd); err != nil {
		c.log().Error("booking reconcile failed", "booking", cmd.BookingRef, "property", cmd.PropertyID, "error", err)
		return err
	}
	return nil
}

func (c *BookingEvents) toCommand(evt cloudEvent) (booking.ReconcileBookingCommand, error) {
	var cmd booking.ReconcileBookingCommand
	if evt.Data.PropertyID == "" || evt.Data.BookingID == "" {
		return cmd, fmt.Errorf("inbound: booking event %s missing identifiers", evt.ID)
	}
	state := evt.Data.State
	if state == "" {
		state = stateFromType(evt.Type)
	}
	cmd = booking.ReconcileBookingCommand{
		CommandID:  evt.ID,
		PropertyID: evt.Data.PropertyID,
		BookingRef: evt.Data.BookingID,
		State:      state,
	}
	if state == booking.StateCancelled {
		return cmd, nil
	}
	checkIn, err := parseEventDate(evt.Data.CheckIn)
	if err != nil {
		return cmd, fmt.Errorf("inbound: bad check_in: %w", err)
	}
	checkOut, err := parseEventDate(evt.Data.CheckOut)
	if err != nil {
		return cmd, fmt.Errorf("inbound: bad check_out: %w", err)
	}
	cmd.CheckIn = checkIn
	cmd.CheckOut = checkOut
	return cmd, nil
}

// stateFromType extracts the lifecycle state from a CloudEvents type like
// "booking.confirmed.v1".
func stateFromType(eventType string) string {
	s := strings.TrimPrefix(eventType, "booking.")
	if idx := strings.IndexRune(s, '.'); idx > 0 {
		s = s[:idx]
	}
	return s
}

func parseEventDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, value)
}

func (c *BookingEvents) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
