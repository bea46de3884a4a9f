package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/emersion/go-ical"

	"furnishedstay/internal/app/dto"
	"furnishedstay/internal/app/policies"
)

const (
	FormatICal = "ical"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Encoder renders a calendar snapshot in the supported export formats.
type Encoder struct {
	ProductID string
}

func (e Encoder) Encode(format string, snapshot dto.Calendar) ([]byte, string, error) {
	switch format {
	case FormatICal:
		data, err := e.encodeICal(snapshot)
		return data, "text/calendar", err
	case FormatCSV:
		data, err := e.encodeCSV(snapshot)
		return data, "text/csv", err
	case FormatJSON:
		data, err := json.MarshalIndent(snapshot, "", "  ")
		return data, "application/json", err
	}
	return nil, "", fmt.Errorf("%w: %q", policies.ErrUnsupportedFormat, format)
}

// encodeICal emits one all-day VEVENT per occupied stretch, merging
// consecutive days with the same status into a single event.
func (e Encoder) encodeICal(snapshot dto.Calendar) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, e.productID())

	for _, stretch := range occupiedStretches(snapshot.Days) {
		ev := ical.NewEvent()
		ev.Props.SetText(ical.PropUID, fmt.Sprintf("%s-%s@furnishedstay", snapshot.PropertyID, stretch.start.Format(time.DateOnly)))
		ev.Props.SetText(ical.PropSummary, stretch.summary())
		ev.Props.SetDate(ical.PropDateTimeStart, stretch.start)
		ev.Props.SetDate(ical.PropDateTimeEnd, stretch.end)
		ev.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
		cal.Children = append(cal.Children, ev.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e Encoder) encodeCSV(snapshot dto.Calendar) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"date", "status", "price", "currency", "block_reason", "note"}); err != nil {
		return nil, err
	}
	for _, day := range snapshot.Days {
		record := []string{
			day.Date,
			day.Status,
			strconv.FormatInt(day.Price, 10),
			snapshot.Pricing.Currency,
			day.BlockReason,
			day.BlockNote,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type stretch struct {
	status string
	reason string
	start  time.Time
	end    time.Time
}

func (s stretch) summary() string {
	switch s.status {
	case "booked", "pending":
		return "Reserved"
	default:
		if s.reason != "" {
			return "Blocked (" + s.reason + ")"
		}
		return "Blocked"
	}
}

// occupiedStretches folds the sorted day list into contiguous non-available
// runs. End dates are exclusive per the iCalendar all-day convention.
func occupiedStretches(days []dto.CalendarDay) []stretch {
	var out []stretch
	for _, day := range days {
		if day.Status == "available" {
			continue
		}
		date, err := time.Parse(time.DateOnly, day.Date)
		if err != nil {
			continue
		}
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.status == day.Status && last.reason == day.BlockReason && last.end.Equal(date) {
				last.end = date.AddDate(0, 0, 1)
				continue
			}
		}
		out = append(out, stretch{
			status: day.Status,
			reason: day.BlockReason,
			start:  date,
			end:    date.AddDate(0, 0, 1),
		})
	}
	return out
}

func (e Encoder) productID() string {
	if e.ProductID != "" {
		return e.ProductID
	}
	return "-//FurnishedStay//Calendar//EN"
}

var _ policies.CalendarEncoder = Encoder{}
