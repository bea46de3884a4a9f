package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sequentialIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return string(rune('a' + n - 1))
	}
}

func addTestLink(t *testing.T, reg *Registry, name, url string) Link {
	t.Helper()
	link, err := reg.Add(sequentialIDs(), name, TypeAirbnb, url, false, testNow)
	require.NoError(t, err)
	return link
}

func TestAddValidatesInput(t *testing.T) {
	reg := NewRegistry("prop-1")
	newID := sequentialIDs()

	_, err := reg.Add(newID, "  ", TypeAirbnb, "https://airbnb.example/feed.ics", false, testNow)
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = reg.Add(newID, "Main", "fax", "https://airbnb.example/feed.ics", false, testNow)
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = reg.Add(newID, "Main", TypeAirbnb, "not a url", false, testNow)
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = reg.Add(newID, "Main", TypeAirbnb, "ftp://airbnb.example/feed.ics", false, testNow)
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestAddRejectsDuplicateURL(t *testing.T) {
	reg := NewRegistry("prop-1")
	addTestLink(t, reg, "Main", "https://airbnb.example/feed.ics")

	_, err := reg.Add(sequentialIDs(), "Second", TypeICal, "https://airbnb.example/feed.ics", false, testNow)
	assert.ErrorIs(t, err, ErrDuplicateURL)
	assert.Len(t, reg.Links(), 1)
}

func TestAddStartsActive(t *testing.T) {
	reg := NewRegistry("prop-1")
	link := addTestLink(t, reg, "Main", "https://airbnb.example/feed.ics")

	assert.Equal(t, StatusActive, link.Status)
	assert.True(t, link.LastSyncAt.IsZero())
	assert.Zero(t, link.EventsCount)

	events := reg.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "synclink.added", events[0].EventName())
}

func TestRemoveUnknownLinkErrors(t *testing.T) {
	reg := NewRegistry("prop-1")
	link := addTestLink(t, reg, "Main", "https://airbnb.example/feed.ics")

	assert.ErrorIs(t, reg.Remove("missing", testNow), ErrLinkNotFound)

	require.NoError(t, reg.Remove(link.ID, testNow))
	assert.Empty(t, reg.Links())
	assert.ErrorIs(t, reg.Remove(link.ID, testNow), ErrLinkNotFound)
}

func TestSyncStateMachine(t *testing.T) {
	reg := NewRegistry("prop-1")
	link := addTestLink(t, reg, "Main", "https://airbnb.example/feed.ics")

	started, err := reg.BeginSync(link.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSyncing, started.Status)

	_, err = reg.BeginSync(link.ID)
	assert.ErrorIs(t, err, ErrSyncInProgress, "a link mid-sync rejects a second run")

	done, err := reg.CompleteSync(link.ID, 12, testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, done.Status)
	assert.Equal(t, 12, done.EventsCount)
	assert.Equal(t, testNow.UTC(), done.LastSyncAt)
	assert.Empty(t, done.ErrorMessage)
}

func TestFailSyncKeepsLastGoodRun(t *testing.T) {
	reg := NewRegistry("prop-1")
	link := addTestLink(t, reg, "Main", "https://airbnb.example/feed.ics")

	_, err := reg.BeginSync(link.ID)
	require.NoError(t, err)
	_, err = reg.CompleteSync(link.ID, 7, testNow)
	require.NoError(t, err)

	later := testNow.Add(time.Hour)
	_, err = reg.BeginSync(link.ID)
	require.NoError(t, err)
	failed, err := reg.FailSync(link.ID, "fetch timed out", later)
	require.NoError(t, err)

	assert.Equal(t, StatusError, failed.Status)
	assert.Equal(t, "fetch timed out", failed.ErrorMessage)
	assert.Equal(t, testNow.UTC(), failed.LastSyncAt, "failure keeps the previous sync timestamp")
	assert.Equal(t, 7, failed.EventsCount)

	// An errored link can be retried.
	retried, err := reg.BeginSync(link.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSyncing, retried.Status)

	recovered, err := reg.CompleteSync(link.ID, 9, later)
	require.NoError(t, err)
	assert.Empty(t, recovered.ErrorMessage, "recovery clears the error message")
}

func TestSyncTransitionsOnUnknownLink(t *testing.T) {
	reg := NewRegistry("prop-1")

	_, err := reg.BeginSync("missing")
	assert.ErrorIs(t, err, ErrLinkNotFound)
	_, err = reg.CompleteSync("missing", 1, testNow)
	assert.ErrorIs(t, err, ErrLinkNotFound)
	_, err = reg.FailSync("missing", "boom", testNow)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestAutoSyncLinks(t *testing.T) {
	reg := NewRegistry("prop-1")
	auto, err := reg.Add(sequentialIDs(), "Auto", TypeAirbnb, "https://a.example/feed.ics", true, testNow)
	require.NoError(t, err)
	_, err = reg.Add(func() string { return "manual" }, "Manual", TypeVRBO, "https://b.example/feed.ics", false, testNow)
	require.NoError(t, err)

	due := reg.AutoSyncLinks()
	require.Len(t, due, 1)
	assert.Equal(t, auto.ID, due[0].ID)

	_, err = reg.BeginSync(auto.ID)
	require.NoError(t, err)
	assert.Empty(t, reg.AutoSyncLinks(), "a link mid-sync is not due")
}

func TestRehydrateRegistry(t *testing.T) {
	reg := NewRegistry("prop-1")
	addTestLink(t, reg, "Main", "https://airbnb.example/feed.ics")
	reg.Version = 3

	clone := RehydrateRegistry(reg.PropertyID, reg.Version, reg.Links())
	assert.Equal(t, reg.Links(), clone.Links())
	assert.Equal(t, int64(3), clone.Version)
	assert.Empty(t, clone.PendingEvents())
}
