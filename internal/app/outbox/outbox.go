package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"furnishedstay/internal/domain/shared/events"
)

type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

// Stage encodes and stores every pending event of a recorder, clearing it on
// success.
func Stage(ctx context.Context, box Outbox, enc EventEncoder, recorder interface {
	PendingEvents() []events.DomainEvent
	ClearEvents()
}) error {
	if box == nil || enc == nil || recorder == nil {
		return nil
	}
	for _, ev := range recorder.PendingEvents() {
		record, err := enc.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, record); err != nil {
			return err
		}
	}
	recorder.ClearEvents()
	return nil
}
