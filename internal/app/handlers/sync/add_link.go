package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"furnishedstay/internal/app/commands"
	"furnishedstay/internal/app/dto"
	"furnishedstay/internal/app/outbox"
	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
	domainsync "furnishedstay/internal/domain/sync"
)

const addLinkKey = "sync.add_link"

type AddLinkCommand struct {
	CommandID       string
	PropertyID      string
	Name            string
	Type            string
	URL             string
	AutoSync        bool
	IdempotencyKeyV string
}

func (c AddLinkCommand) Key() string { return addLinkKey }

func (c AddLinkCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c AddLinkCommand) ResultPrototype() any { return &dto.SyncLink{} }

type AddLinkHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	NewID      domainsync.IDGenerator
	Clock      func() time.Time
}

func (h *AddLinkHandler) Handle(ctx context.Context, cmd AddLinkCommand) (*dto.SyncLink, error) {
	ctx, unit, release, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer release()

	reg, err := unit.SyncLinks().ByProperty(ctx, domaincalendar.PropertyID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	link, err := reg.Add(h.idGen(), cmd.Name, domainsync.LinkType(cmd.Type), cmd.URL, cmd.AutoSync, h.now())
	if err != nil {
		return nil, err
	}
	if err := outbox.Stage(ctx, h.Outbox, h.Encoder, reg); err != nil {
		return nil, err
	}
	if err := unit.SyncLinks().Save(ctx, reg); err != nil {
		return nil, err
	}

	mapped := dto.MapLink(link)
	return &mapped, nil
}

func (h *AddLinkHandler) idGen() domainsync.IDGenerator {
	if h.NewID != nil {
		return h.NewID
	}
	return uuid.NewString
}

func (h *AddLinkHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

var _ commands.Handler[AddLinkCommand, *dto.SyncLink] = (*AddLinkHandler)(nil)
