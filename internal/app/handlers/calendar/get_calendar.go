package calendar

import (
	"context"

	"furnishedstay/internal/app/dto"
	"furnishedstay/internal/app/queries"
	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
)

const getCalendarKey = "calendar.snapshot"

type GetCalendarQuery struct {
	PropertyID string
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	ctx, unit, release, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.Calendar{}, err
	}
	defer release()

	cal, err := unit.Calendars().ByProperty(ctx, domaincalendar.PropertyID(q.PropertyID))
	if err != nil {
		return dto.Calendar{}, err
	}
	reg, err := unit.SyncLinks().ByProperty(ctx, domaincalendar.PropertyID(q.PropertyID))
	if err != nil {
		return dto.Calendar{}, err
	}
	return dto.MapCalendar(cal, reg), nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
