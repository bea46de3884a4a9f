package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/emersion/go-ical"
)

var (
	ErrFeedStatus = errors.New("feed: unexpected response status")
	ErrFeedDecode = errors.New("feed: not a parseable icalendar document")
)

// ReservedRange is one busy interval advertised by an external feed. End is
// exclusive, matching the checkout convention of calendar ranges.
type ReservedRange struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
}

// Fetcher pulls the busy intervals of an external calendar feed.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]ReservedRange, error)
}

// HTTPFetcher downloads and decodes an iCalendar feed over HTTP. Airbnb,
// VRBO and Booking.com all export availability this way.
type HTTPFetcher struct {
	Client       *http.Client
	MaxBodyBytes int64
}

func (f *HTTPFetcher) Fetch(ctx context.Context, feedURL string) ([]ReservedRange, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrFeedStatus, resp.Status)
	}

	body := io.LimitReader(resp.Body, f.maxBody())
	cal, err := ical.NewDecoder(body).Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedDecode, err)
	}
	return extractRanges(cal), nil
}

func extractRanges(cal *ical.Calendar) []ReservedRange {
	var out []ReservedRange
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		rr, ok := eventRange(comp)
		if !ok {
			continue
		}
		out = append(out, rr)
	}
	return out
}

func eventRange(comp *ical.Component) (ReservedRange, bool) {
	var rr ReservedRange
	start := comp.Props.Get(ical.PropDateTimeStart)
	if start == nil {
		return rr, false
	}
	startAt, err := start.DateTime(time.UTC)
	if err != nil {
		return rr, false
	}
	rr.Start = startAt

	if end := comp.Props.Get(ical.PropDateTimeEnd); end != nil {
		endAt, err := end.DateTime(time.UTC)
		if err != nil {
			return rr, false
		}
		rr.End = endAt
	} else {
		// Feeds for all-day bookings may omit DTEND; treat as one night.
		rr.End = startAt.AddDate(0, 0, 1)
	}
	if !rr.Start.Before(rr.End) {
		return rr, false
	}
	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		rr.UID = prop.Value
	}
	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		rr.Summary = prop.Value
	}
	return rr, true
}

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *HTTPFetcher) maxBody() int64 {
	if f.MaxBodyBytes > 0 {
		return f.MaxBodyBytes
	}
	return 4 << 20
}
