package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"furnishedstay/internal/app/dto"
	"furnishedstay/internal/app/policies"
)

func snapshotFixture() dto.Calendar {
	return dto.Calendar{
		PropertyID: "prop-1",
		Days: []dto.CalendarDay{
			{Date: "2026-04-10", Status: "blocked", Price: 180, BlockReason: "maintenance"},
			{Date: "2026-04-11", Status: "blocked", Price: 180, BlockReason: "maintenance"},
			{Date: "2026-04-12", Status: "available", Price: 180},
			{Date: "2026-04-13", Status: "booked", Price: 250, GuestRef: "bk-1"},
			{Date: "2026-04-14", Status: "booked", Price: 250, GuestRef: "bk-1"},
		},
		Pricing: dto.PricingProfile{Currency: "USD", BasePrice: 180},
	}
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	_, _, err := Encoder{}.Encode("xml", snapshotFixture())
	assert.ErrorIs(t, err, policies.ErrUnsupportedFormat)
}

func TestEncodeJSON(t *testing.T) {
	data, contentType, err := Encoder{}.Encode(FormatJSON, snapshotFixture())
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)

	var decoded dto.Calendar
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "prop-1", decoded.PropertyID)
	assert.Len(t, decoded.Days, 5)
}

func TestEncodeCSV(t *testing.T) {
	data, contentType, err := Encoder{}.Encode(FormatCSV, snapshotFixture())
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6, "header plus five days")
	assert.Equal(t, "date,status,price,currency,block_reason,note", lines[0])
	assert.Equal(t, "2026-04-13,booked,250,USD,,", lines[4])
}

func TestEncodeICalMergesStretches(t *testing.T) {
	data, contentType, err := Encoder{}.Encode(FormatICal, snapshotFixture())
	require.NoError(t, err)
	assert.Equal(t, "text/calendar", contentType)

	text := string(data)
	assert.Equal(t, 2, strings.Count(text, "BEGIN:VEVENT"), "two contiguous occupied stretches")
	assert.Contains(t, text, "SUMMARY:Blocked (maintenance)")
	assert.Contains(t, text, "SUMMARY:Reserved")
	assert.Contains(t, text, "DTSTART;VALUE=DATE:20260410")
	assert.Contains(t, text, "DTEND;VALUE=DATE:20260412", "end date is exclusive")
	assert.NotContains(t, text, "20260412T", "the available day is not exported")
}

func TestOccupiedStretchesSplitOnStatusChange(t *testing.T) {
	days := []dto.CalendarDay{
		{Date: "2026-04-10", Status: "blocked", BlockReason: "personal"},
		{Date: "2026-04-11", Status: "booked"},
		{Date: "2026-04-12", Status: "booked"},
		{Date: "2026-04-14", Status: "booked"},
	}
	stretches := occupiedStretches(days)
	require.Len(t, stretches, 3)
	assert.Equal(t, "blocked", stretches[0].status)
	assert.Equal(t, "booked", stretches[1].status)
	assert.Equal(t, 2, int(stretches[1].end.Sub(stretches[1].start).Hours()/24), "gap breaks the run")
}
