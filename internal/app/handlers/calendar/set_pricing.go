package calendar

import (
	"context"
	"time"

	"furnishedstay/internal/app/commands"
	"furnishedstay/internal/app/dto"
	"furnishedstay/internal/app/outbox"
	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
	"furnishedstay/internal/domain/shared/money"
)

const setPricingKey = "calendar.set_pricing"

type SetPricingCommand struct {
	CommandID       string
	PropertyID      string
	Dates           []time.Time
	Price           int64
	IdempotencyKeyV string
}

func (c SetPricingCommand) Key() string { return setPricingKey }

func (c SetPricingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SetPricingCommand) ResultPrototype() any { return &dto.PricingProfile{} }

type SetPricingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *SetPricingHandler) Handle(ctx context.Context, cmd SetPricingCommand) (*dto.PricingProfile, error) {
	ctx, unit, release, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer release()

	cal, err := unit.Calendars().ByProperty(ctx, domaincalendar.PropertyID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	price := money.Money{Amount: cmd.Price, Currency: cal.BasePrice.Currency}
	if err := cal.SetPrices(cmd.Dates, price, h.now()); err != nil {
		return nil, err
	}
	if err := outbox.Stage(ctx, h.Outbox, h.Encoder, cal); err != nil {
		return nil, err
	}
	if err := unit.Calendars().Save(ctx, cal); err != nil {
		return nil, err
	}

	profile := dto.MapPricing(cal)
	return &profile, nil
}

func (h *SetPricingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

var _ commands.Handler[SetPricingCommand, *dto.PricingProfile] = (*SetPricingHandler)(nil)
