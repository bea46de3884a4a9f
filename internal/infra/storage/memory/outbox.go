package memory

import (
	"context"
	"log/slog"
	"sync"

	"furnishedstay/internal/app/outbox"
)

// RecordPublisher delivers a staged event record to the broker.
type RecordPublisher interface {
	Publish(ctx context.Context, record outbox.EventRecord) error
}

// Outbox buffers event records in memory and pushes them to a publisher on
// Flush. Records that fail to publish stay queued for the next flush.
type Outbox struct {
	mu      sync.Mutex
	pending []outbox.EventRecord
	pub     RecordPublisher
	log     *slog.Logger
}

func NewOutbox(pub RecordPublisher, log *slog.Logger) *Outbox {
	if log == nil {
		log = slog.Default()
	}
	return &Outbox{pub: pub, log: log}
}

func (o *Outbox) Add(ctx context.Context, record outbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	batch := o.pending
	o.pending = nil
	o.mu.Unlock()

	if o.pub == nil {
		for _, record := range batch {
			o.log.Debug("event dropped, no publisher attached", "event", record.Name, "aggregate", record.Aggregate)
		}
		return nil
	}

	var requeue []outbox.EventRecord
	var firstErr error
	for _, record := range batch {
		if err := o.pub.Publish(ctx, record); err != nil {
			o.log.Error("failed to publish event", "event", record.Name, "error", err)
			requeue = append(requeue, record)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if len(requeue) > 0 {
		o.mu.Lock()
		o.pending = append(requeue, o.pending...)
		o.mu.Unlock()
	}
	return firstErr
}

// Pending returns a copy of the queued records, mostly useful in tests.
func (o *Outbox) Pending() []outbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]outbox.EventRecord, len(o.pending))
	copy(out, o.pending)
	return out
}

var _ outbox.Outbox = (*Outbox)(nil)
