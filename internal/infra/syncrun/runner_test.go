package syncrun

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"furnishedstay/internal/app/outbox"
	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
	"furnishedstay/internal/domain/shared/daterange"
	"furnishedstay/internal/domain/shared/money"
	domainsync "furnishedstay/internal/domain/sync"
	"furnishedstay/internal/infra/feed"
	"furnishedstay/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type stubFetcher struct {
	ranges []feed.ReservedRange
	err    error
}

func (s stubFetcher) Fetch(context.Context, string) ([]feed.ReservedRange, error) {
	return s.ranges, s.err
}

type runnerFixture struct {
	runner    *Runner
	calendars *memory.CalendarRepository
	links     *memory.RegistryRepository
	box       *memory.Outbox
	linkID    string
}

func newRunnerFixture(t *testing.T, fetcher feed.Fetcher) runnerFixture {
	t.Helper()
	calendars := memory.NewCalendarRepository(money.Must(180, "USD"))
	links := memory.NewRegistryRepository()
	box := memory.NewOutbox(nil, nil)

	reg, err := links.ByProperty(context.Background(), "prop-1")
	require.NoError(t, err)
	_, err = reg.Add(func() string { return "link-1" }, "Airbnb", domainsync.TypeAirbnb, "https://a.example/feed.ics", false, testNow)
	require.NoError(t, err)
	_, err = reg.BeginSync("link-1")
	require.NoError(t, err)
	reg.ClearEvents()
	require.NoError(t, links.Save(context.Background(), reg))

	return runnerFixture{
		runner: &Runner{
			UoWFactory: memory.NewFactory(calendars, links),
			Fetcher:    fetcher,
			Outbox:     box,
			Encoder:    outbox.JSONEventEncoder{},
			Timeout:    time.Second,
			Clock:      func() time.Time { return testNow },
		},
		calendars: calendars,
		links:     links,
		box:       box,
		linkID:    "link-1",
	}
}

func (f runnerFixture) link(t *testing.T) domainsync.Link {
	t.Helper()
	reg, err := f.links.ByProperty(context.Background(), "prop-1")
	require.NoError(t, err)
	link, err := reg.Link(f.linkID)
	require.NoError(t, err)
	return link
}

func TestSuccessfulSyncBlocksFutureDates(t *testing.T) {
	fx := newRunnerFixture(t, stubFetcher{ranges: []feed.ReservedRange{
		{UID: "r1", Start: date(2026, 4, 10), End: date(2026, 4, 13)},
		{UID: "r2", Start: date(2026, 2, 1), End: date(2026, 2, 3)}, // entirely in the past
	}})

	fx.runner.Kick("prop-1", fx.linkID)
	fx.runner.Wait()

	link := fx.link(t)
	assert.Equal(t, domainsync.StatusActive, link.Status)
	assert.Equal(t, 2, link.EventsCount)
	assert.Equal(t, testNow.UTC(), link.LastSyncAt)

	cal, err := fx.calendars.ByProperty(context.Background(), "prop-1")
	require.NoError(t, err)
	for _, d := range []time.Time{date(2026, 4, 10), date(2026, 4, 11), date(2026, 4, 12)} {
		day := cal.Day(d)
		assert.Equal(t, domaincalendar.StatusBlocked, day.Status)
		assert.Equal(t, domaincalendar.ReasonExternal, day.BlockReason)
	}
	assert.Equal(t, domaincalendar.StatusAvailable, cal.Day(date(2026, 4, 13)).Status, "checkout day stays open")
	assert.Equal(t, domaincalendar.StatusAvailable, cal.Day(date(2026, 2, 1)).Status, "past ranges are ignored")
}

func TestSyncSkipsDatesWeAlreadyTrack(t *testing.T) {
	fx := newRunnerFixture(t, stubFetcher{ranges: []feed.ReservedRange{
		{UID: "r1", Start: date(2026, 4, 10), End: date(2026, 4, 12)},
	}})

	cal, err := fx.calendars.ByProperty(context.Background(), "prop-1")
	require.NoError(t, err)
	require.NoError(t, cal.MarkBooked(mustRange(t, date(2026, 4, 10), date(2026, 4, 11)), "bk-1", false, testNow))
	cal.ClearEvents()
	require.NoError(t, fx.calendars.Save(context.Background(), cal))

	fx.runner.Kick("prop-1", fx.linkID)
	fx.runner.Wait()

	cal, err = fx.calendars.ByProperty(context.Background(), "prop-1")
	require.NoError(t, err)
	day := cal.Day(date(2026, 4, 10))
	assert.Equal(t, domaincalendar.StatusBooked, day.Status, "a feed never clobbers a confirmed stay")
	assert.Equal(t, "bk-1", day.GuestRef)
	assert.Equal(t, domaincalendar.StatusBlocked, cal.Day(date(2026, 4, 11)).Status)
}

func TestFailedFetchMarksLinkErrored(t *testing.T) {
	fx := newRunnerFixture(t, stubFetcher{err: errors.New("connection refused")})

	fx.runner.Kick("prop-1", fx.linkID)
	fx.runner.Wait()

	link := fx.link(t)
	assert.Equal(t, domainsync.StatusError, link.Status)
	assert.Contains(t, link.ErrorMessage, "connection refused")
	assert.True(t, link.LastSyncAt.IsZero(), "a failed run records no sync timestamp")

	cal, err := fx.calendars.ByProperty(context.Background(), "prop-1")
	require.NoError(t, err)
	assert.Empty(t, cal.TrackedDays())
}

func TestSyncStagesOutboxEvents(t *testing.T) {
	fx := newRunnerFixture(t, stubFetcher{ranges: []feed.ReservedRange{
		{UID: "r1", Start: date(2026, 4, 10), End: date(2026, 4, 11)},
	}})

	fx.runner.Kick("prop-1", fx.linkID)
	fx.runner.Wait()

	var names []string
	for _, rec := range fx.box.Pending() {
		names = append(names, rec.Name)
	}
	assert.Contains(t, names, "calendar.blocked")
	assert.Contains(t, names, "synclink.completed")
}

// contendedUnit makes the first registry saves lose the version race, the
// way a trigger commit landing after the run has started does.
type contendedUnit struct {
	uow.UnitOfWork
	registries *contendedRegistries
}

func (u contendedUnit) SyncLinks() domainsync.Repository { return u.registries }

type contendedRegistries struct {
	domainsync.Repository
	failures int
}

func (c *contendedRegistries) Save(ctx context.Context, reg *domainsync.Registry) error {
	if c.failures > 0 {
		c.failures--
		return memory.ErrConcurrentUpdate
	}
	return c.Repository.Save(ctx, reg)
}

type contendedFactory struct {
	inner      uow.UoWFactory
	registries *contendedRegistries
}

func (f contendedFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.inner.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return contendedUnit{UnitOfWork: unit, registries: f.registries}, nil
}

func TestSyncOutcomeSurvivesVersionRace(t *testing.T) {
	fx := newRunnerFixture(t, stubFetcher{err: errors.New("no such host")})
	fx.runner.UoWFactory = contendedFactory{
		inner:      fx.runner.UoWFactory,
		registries: &contendedRegistries{Repository: fx.links, failures: 1},
	}

	fx.runner.Kick("prop-1", fx.linkID)
	fx.runner.Wait()

	link := fx.link(t)
	assert.Equal(t, domainsync.StatusError, link.Status, "link must not stay stuck in syncing")
	assert.Contains(t, link.ErrorMessage, "no such host")
}

func TestSyncOutcomeGivesUpAfterRepeatedRaces(t *testing.T) {
	fx := newRunnerFixture(t, stubFetcher{err: errors.New("no such host")})
	contended := &contendedRegistries{Repository: fx.links, failures: outcomeSaveAttempts}
	fx.runner.UoWFactory = contendedFactory{inner: fx.runner.UoWFactory, registries: contended}

	fx.runner.Kick("prop-1", fx.linkID)
	fx.runner.Wait()

	assert.Zero(t, contended.failures, "every attempt is used before giving up")
	assert.Equal(t, domainsync.StatusSyncing, fx.link(t).Status)
}

func mustRange(t *testing.T, checkIn, checkOut time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(checkIn, checkOut)
	require.NoError(t, err)
	return dr
}
