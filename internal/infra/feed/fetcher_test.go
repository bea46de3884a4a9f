package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Airbnb Inc//Hosting Calendar 1.0//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:abc123@airbnb.com\r\n" +
	"DTSTAMP:20260301T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20260410\r\n" +
	"DTEND;VALUE=DATE:20260413\r\n" +
	"SUMMARY:Reserved\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:short@airbnb.com\r\n" +
	"DTSTAMP:20260301T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20260420\r\n" +
	"SUMMARY:Airbnb (Not available)\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func serveFeed(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchParsesBusyRanges(t *testing.T) {
	srv := serveFeed(t, http.StatusOK, sampleFeed)

	ranges, err := (&HTTPFetcher{}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, ranges, 2)

	assert.Equal(t, "abc123@airbnb.com", ranges[0].UID)
	assert.Equal(t, "Reserved", ranges[0].Summary)
	assert.Equal(t, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), ranges[0].Start)
	assert.Equal(t, time.Date(2026, 4, 13, 0, 0, 0, 0, time.UTC), ranges[0].End)

	assert.Equal(t, time.Date(2026, 4, 21, 0, 0, 0, 0, time.UTC), ranges[1].End, "missing DTEND defaults to one night")
}

func TestFetchRejectsBadStatus(t *testing.T) {
	srv := serveFeed(t, http.StatusForbidden, "denied")

	_, err := (&HTTPFetcher{}).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrFeedStatus)
}

func TestFetchRejectsNonCalendarBody(t *testing.T) {
	srv := serveFeed(t, http.StatusOK, "<html>not a calendar</html>")

	_, err := (&HTTPFetcher{}).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrFeedDecode)
}

func TestFetchHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := (&HTTPFetcher{}).Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "deadline") || strings.Contains(err.Error(), "canceled"))
}
