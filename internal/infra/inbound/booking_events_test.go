package inbound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"furnishedstay/internal/app/commands"
	"furnishedstay/internal/app/handlers/booking"
)

type captureBus struct {
	dispatched []commands.Command
	err        error
}

func (b *captureBus) Dispatch(_ context.Context, cmd commands.Command) (any, error) {
	b.dispatched = append(b.dispatched, cmd)
	return struct{}{}, b.err
}

func message(payload string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "booking.events.v1", Value: []byte(payload)}
}

func TestConfirmedEventIsDispatched(t *testing.T) {
	bus := &captureBus{}
	h := &BookingEvents{Commands: bus}

	err := h.Handle(context.Background(), message(`{
		"id": "evt-1",
		"type": "booking.confirmed.v1",
		"data": {
			"property_id": "prop-1",
			"booking_id": "bk-1",
			"check_in": "2026-04-10",
			"check_out": "2026-04-15"
		}
	}`))
	require.NoError(t, err)

	require.Len(t, bus.dispatched, 1)
	cmd, ok := bus.dispatched[0].(booking.ReconcileBookingCommand)
	require.True(t, ok)
	assert.Equal(t, "evt-1", cmd.CommandID)
	assert.Equal(t, "prop-1", cmd.PropertyID)
	assert.Equal(t, "bk-1", cmd.BookingRef)
	assert.Equal(t, booking.StateConfirmed, cmd.State)
	assert.Equal(t, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), cmd.CheckIn)
}

func TestCancelledEventNeedsNoDates(t *testing.T) {
	bus := &captureBus{}
	h := &BookingEvents{Commands: bus}

	err := h.Handle(context.Background(), message(`{
		"id": "evt-2",
		"type": "booking.cancelled.v1",
		"data": {"property_id": "prop-1", "booking_id": "bk-1"}
	}`))
	require.NoError(t, err)

	require.Len(t, bus.dispatched, 1)
	cmd := bus.dispatched[0].(booking.ReconcileBookingCommand)
	assert.Equal(t, booking.StateCancelled, cmd.State)
	assert.True(t, cmd.CheckIn.IsZero())
}

func TestExplicitStateWinsOverType(t *testing.T) {
	bus := &captureBus{}
	h := &BookingEvents{Commands: bus}

	err := h.Handle(context.Background(), message(`{
		"id": "evt-3",
		"type": "booking.updated.v1",
		"data": {
			"property_id": "prop-1",
			"booking_id": "bk-1",
			"state": "pending",
			"check_in": "2026-04-10T00:00:00Z",
			"check_out": "2026-04-12T00:00:00Z"
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, booking.StatePending, bus.dispatched[0].(booking.ReconcileBookingCommand).State)
}

func TestMalformedEventsAreAcknowledged(t *testing.T) {
	bus := &captureBus{}
	h := &BookingEvents{Commands: bus}

	assert.NoError(t, h.Handle(context.Background(), message(`not json`)))
	assert.NoError(t, h.Handle(context.Background(), message(`{"id":"evt-4","type":"booking.confirmed.v1","data":{}}`)))
	assert.NoError(t, h.Handle(context.Background(), message(`{
		"id": "evt-5",
		"type": "booking.confirmed.v1",
		"data": {"property_id": "p", "booking_id": "b", "check_in": "bad", "check_out": "2026-04-12"}
	}`)))
	assert.Empty(t, bus.dispatched, "unusable events are dropped, not dispatched")
}

func TestDispatchFailureTriggersRedelivery(t *testing.T) {
	bus := &captureBus{err: errors.New("store unavailable")}
	h := &BookingEvents{Commands: bus}

	err := h.Handle(context.Background(), message(`{
		"id": "evt-6",
		"type": "booking.cancelled.v1",
		"data": {"property_id": "prop-1", "booking_id": "bk-1"}
	}`))
	assert.Error(t, err)
}
