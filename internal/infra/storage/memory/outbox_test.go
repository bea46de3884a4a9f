package memory

import (
	"context"
	"errors"

	"furnishedstay/internal/app/outbox"
)

type flakyPublisher struct {
	failFirst bool
	calls     int
	delivered []string
}

func (p *flakyPublisher) Publish(_ context.Context, record outbox.EventRecord) error {
	p.calls++
	if p.failFirst && p.calls == 1 {
		return errors.New("broker unavailable")
	}
	p.delivered = append(p.delivered, record.Name)
	return nil
}

func recordNamed(name string) outbox.EventRecord {
	return outbox.EventRecord{ID: name + "-id", Name: name, Payload: []byte("{}")}
}
