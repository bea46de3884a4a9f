package sync

import (
	"context"
	"time"

	"furnishedstay/internal/app/commands"
	"furnishedstay/internal/app/outbox"
	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
)

const removeLinkKey = "sync.remove_link"

type RemoveLinkCommand struct {
	CommandID  string
	PropertyID string
	LinkID     string
}

func (c RemoveLinkCommand) Key() string { return removeLinkKey }

type RemoveLinkHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *RemoveLinkHandler) Handle(ctx context.Context, cmd RemoveLinkCommand) (struct{}, error) {
	ctx, unit, release, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return struct{}{}, err
	}
	defer release()

	reg, err := unit.SyncLinks().ByProperty(ctx, domaincalendar.PropertyID(cmd.PropertyID))
	if err != nil {
		return struct{}{}, err
	}
	if err := reg.Remove(cmd.LinkID, h.now()); err != nil {
		return struct{}{}, err
	}
	if err := outbox.Stage(ctx, h.Outbox, h.Encoder, reg); err != nil {
		return struct{}{}, err
	}
	if err := unit.SyncLinks().Save(ctx, reg); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, nil
}

func (h *RemoveLinkHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

var _ commands.Handler[RemoveLinkCommand, struct{}] = (*RemoveLinkHandler)(nil)
