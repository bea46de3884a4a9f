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

const unblockDateKey = "calendar.unblock_date"

type UnblockDateCommand struct {
	CommandID       string
	PropertyID      string
	Date            time.Time
	IdempotencyKeyV string
}

func (c UnblockDateCommand) Key() string { return unblockDateKey }

func (c UnblockDateCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c UnblockDateCommand) ResultPrototype() any { return &dto.CalendarStats{} }

type UnblockDateHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *UnblockDateHandler) Handle(ctx context.Context, cmd UnblockDateCommand) (*dto.CalendarStats, error) {
	ctx, unit, release, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer release()

	cal, err := unit.Calendars().ByProperty(ctx, domaincalendar.PropertyID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	if err := cal.Unblock(cmd.Date, h.now()); err != nil {
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

func (h *UnblockDateHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

var _ commands.Handler[UnblockDateCommand, *dto.CalendarStats] = (*UnblockDateHandler)(nil)
