package availability

import (
	"context"
	"time"

	"furnishedstay/internal/app/dto"
	"furnishedstay/internal/app/queries"
	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
	"furnishedstay/internal/domain/shared/daterange"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	PropertyID string
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Policy     domaincalendar.QuotePolicy
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.Quote, error) {
	r, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Quote{}, err
	}

	ctx, unit, release, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.Quote{}, err
	}
	defer release()

	cal, err := unit.Calendars().ByProperty(ctx, domaincalendar.PropertyID(q.PropertyID))
	if err != nil {
		return dto.Quote{}, err
	}
	quote, err := cal.Quote(r, q.Guests, h.Policy)
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(quote), nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.Quote] = (*CheckAvailabilityHandler)(nil)
