package calendar

import (
	"context"
	"fmt"
	"time"

	"furnishedstay/internal/app/dto"
	"furnishedstay/internal/app/policies"
	"furnishedstay/internal/app/queries"
	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
)

const exportCalendarKey = "calendar.export"

type ExportCalendarQuery struct {
	PropertyID string
	Format     string
	Publish    bool
}

func (q ExportCalendarQuery) Key() string { return exportCalendarKey }

type ExportResult struct {
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
	Data        []byte `json:"-"`
	URL         string `json:"url,omitempty"`
}

type ExportCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    policies.CalendarEncoder
	Publisher  policies.ExportPublisher
	Clock      func() time.Time
}

func (h *ExportCalendarHandler) Handle(ctx context.Context, q ExportCalendarQuery) (ExportResult, error) {
	ctx, unit, release, err := uow.Require(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return ExportResult{}, err
	}
	defer release()

	cal, err := unit.Calendars().ByProperty(ctx, domaincalendar.PropertyID(q.PropertyID))
	if err != nil {
		return ExportResult{}, err
	}
	reg, err := unit.SyncLinks().ByProperty(ctx, domaincalendar.PropertyID(q.PropertyID))
	if err != nil {
		return ExportResult{}, err
	}

	data, contentType, err := h.Encoder.Encode(q.Format, dto.MapCalendar(cal, reg))
	if err != nil {
		return ExportResult{}, err
	}

	result := ExportResult{
		Format:      q.Format,
		ContentType: contentType,
		Filename:    fmt.Sprintf("%s-calendar.%s", q.PropertyID, extensionFor(q.Format)),
		Data:        data,
	}
	if q.Publish && h.Publisher != nil {
		key := fmt.Sprintf("exports/%s/%d.%s", q.PropertyID, h.now().UnixMilli(), extensionFor(q.Format))
		url, err := h.Publisher.Publish(ctx, key, data, contentType)
		if err != nil {
			return ExportResult{}, err
		}
		result.URL = url
	}
	return result, nil
}

func (h *ExportCalendarHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

func extensionFor(format string) string {
	if format == "ical" {
		return "ics"
	}
	return format
}

var _ queries.Handler[ExportCalendarQuery, ExportResult] = (*ExportCalendarHandler)(nil)
