package sync

import (
	"context"

	"furnishedstay/internal/app/commands"
	"furnishedstay/internal/app/dto"
	"furnishedstay/internal/app/policies"
	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
)

const triggerSyncKey = "sync.trigger"

type TriggerSyncCommand struct {
	CommandID  string
	PropertyID string
	LinkID     string
}

func (c TriggerSyncCommand) Key() string { return triggerSyncKey }

// TriggerSyncHandler moves the link into the syncing state and hands the
// fetch off to the runner. Callers poll the link for the outcome; sync
// failures are recorded on the link, never raised here.
type TriggerSyncHandler struct {
	UoWFactory uow.UoWFactory
	Runner     policies.SyncRunner
}

func (h *TriggerSyncHandler) Handle(ctx context.Context, cmd TriggerSyncCommand) (*dto.SyncLink, error) {
	ctx, unit, release, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer release()

	reg, err := unit.SyncLinks().ByProperty(ctx, domaincalendar.PropertyID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	link, err := reg.BeginSync(cmd.LinkID)
	if err != nil {
		return nil, err
	}
	if err := unit.SyncLinks().Save(ctx, reg); err != nil {
		return nil, err
	}

	if h.Runner != nil {
		h.Runner.Kick(cmd.PropertyID, cmd.LinkID)
	}

	mapped := dto.MapLink(link)
	return &mapped, nil
}

var _ commands.Handler[TriggerSyncCommand, *dto.SyncLink] = (*TriggerSyncHandler)(nil)
