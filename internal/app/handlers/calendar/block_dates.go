package calendar

import (
	"context"
	"time"

	"furnishedstay/internal/app/commands"
	"furnishedstay/internal/app/dto"
	"furnishedstay/internal/app/outbox"
	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
)

const blockDatesKey = "calendar.block_dates"

type BlockDatesCommand struct {
	CommandID       string
	PropertyID      string
	Dates           []time.Time
	Reason          string
	Note            string
	IdempotencyKeyV string
}

func (c BlockDatesCommand) Key() string { return blockDatesKey }

func (c BlockDatesCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c BlockDatesCommand) ResultPrototype() any { return &dto.CalendarStats{} }

type BlockDatesHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *BlockDatesHandler) Handle(ctx context.Context, cmd BlockDatesCommand) (*dto.CalendarStats, error) {
	ctx, unit, release, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer release()

	cal, err := unit.Calendars().ByProperty(ctx, domaincalendar.PropertyID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}

	reason := domaincalendar.BlockReason(cmd.Reason)
	if cmd.Reason == "" {
		reason = domaincalendar.ReasonOther
	}
	if err := cal.Block(cmd.Dates, reason, cmd.Note, h.now()); err != nil {
		return nil, err
	}
	if err := outbox.Stage(ctx, h.Outbox, h.Encoder, cal); err != nil {
		return nil, err
	}
	if err := unit.Calendars().Save(ctx, cal); err != nil {
		return nil, err
	}

	stats := dto.MapStats(cal.Stats())
	return &stats, nil
}

func (h *BlockDatesHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

var _ commands.Handler[BlockDatesCommand, *dto.CalendarStats] = (*BlockDatesHandler)(nil)
