package syncrun

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"furnishedstay/internal/app/outbox"
	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
	"furnishedstay/internal/domain/shared/daterange"
	domainsync "furnishedstay/internal/domain/sync"
	"furnishedstay/internal/infra/feed"
)

// Runner performs feed syncs in the background. A sync downloads the feed,
// blocks the future dates it reserves and records the outcome on the link.
// Failures never propagate to the caller that kicked the run.
type Runner struct {
	UoWFactory uow.UoWFactory
	Fetcher    feed.Fetcher
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Timeout    time.Duration
	Clock      func() time.Time

	wg sync.WaitGroup
}

func (r *Runner) Kick(propertyID string, linkID string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout())
		defer cancel()
		r.run(ctx, domaincalendar.PropertyID(propertyID), linkID)
	}()
}

// Wait blocks until every in-flight sync has reported its outcome.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, propertyID domaincalendar.PropertyID, linkID string) {
	link, err := r.lookupLink(ctx, propertyID, linkID)
	if err != nil {
		r.log().Error("sync run aborted, link lookup failed", "property", propertyID, "link", linkID, "error", err)
		return
	}

	ranges, err := r.Fetcher.Fetch(ctx, link.URL)
	if err != nil {
		r.finish(propertyID, linkID, 0, err)
		return
	}

	if err := r.applyRanges(ctx, propertyID, ranges); err != nil {
		r.finish(propertyID, linkID, 0, err)
		return
	}
	r.finish(propertyID, linkID, len(ranges), nil)
}

func (r *Runner) lookupLink(ctx context.Context, propertyID domaincalendar.PropertyID, linkID string) (domainsync.Link, error) {
	ctx, unit, release, err := uow.Require(ctx, r.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return domainsync.Link{}, err
	}
	defer release()
	reg, err := unit.SyncLinks().ByProperty(ctx, propertyID)
	if err != nil {
		return domainsync.Link{}, err
	}
	return reg.Link(linkID)
}

// applyRanges blocks every future date the feed reserves that is still free
// on our side. Dates we already track as booked or blocked are skipped so a
// feed can never clobber a confirmed stay.
func (r *Runner) applyRanges(ctx context.Context, propertyID domaincalendar.PropertyID, ranges []feed.ReservedRange) error {
	ctx, unit, release, err := uow.Require(ctx, r.UoWFactory, uow.TxOptions{})
	if err != nil {
		return err
	}
	defer release()

	cal, err := unit.Calendars().ByProperty(ctx, propertyID)
	if err != nil {
		return err
	}

	now := r.now()
	today := daterange.Normalize(now)
	var dates []time.Time
	for _, rr := range ranges {
		for date := daterange.Normalize(rr.Start); date.Before(daterange.Normalize(rr.End)); date = date.AddDate(0, 0, 1) {
			if date.Before(today) {
				continue
			}
			if cal.Day(date).Status != domaincalendar.StatusAvailable {
				continue
			}
			dates = append(dates, date)
		}
	}
	if len(dates) == 0 {
		return nil
	}
	if err := cal.Block(dates, domaincalendar.ReasonExternal, "external calendar sync", now); err != nil {
		return err
	}
	if err := outbox.Stage(ctx, r.Outbox, r.Encoder, cal); err != nil {
		return err
	}
	if err := unit.Calendars().Save(ctx, cal); err != nil {
		return err
	}
	return unit.Commit(ctx)
}

const outcomeSaveAttempts = 3

// finish records the outcome on the link in its own unit of work. A fresh
// background context is used so a timed-out fetch can still be reported.
// The commit that moved the link into syncing may land after the run has
// already started, so a save losing the version race re-reads the registry
// and tries again; the link must never stay stuck in syncing.
func (r *Runner) finish(propertyID domaincalendar.PropertyID, linkID string, eventsCount int, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout())
	defer cancel()

	var err error
	for attempt := 0; attempt < outcomeSaveAttempts; attempt++ {
		if err = r.recordOutcome(ctx, propertyID, linkID, eventsCount, cause); err == nil {
			return
		}
		if !errors.Is(err, uow.ErrConcurrentUpdate) {
			break
		}
	}
	r.log().Error("sync outcome lost", "property", propertyID, "link", linkID, "error", err)
}

func (r *Runner) recordOutcome(ctx context.Context, propertyID domaincalendar.PropertyID, linkID string, eventsCount int, cause error) error {
	ctx, unit, release, err := uow.Require(ctx, r.UoWFactory, uow.TxOptions{})
	if err != nil {
		return err
	}
	defer release()

	reg, err := unit.SyncLinks().ByProperty(ctx, propertyID)
	if err != nil {
		return err
	}
	if cause != nil {
		_, err = reg.FailSync(linkID, cause.Error(), r.now())
	} else {
		_, err = reg.CompleteSync(linkID, eventsCount, r.now())
	}
	if err != nil {
		return err
	}
	if err := outbox.Stage(ctx, r.Outbox, r.Encoder, reg); err != nil {
		return err
	}
	if err := unit.SyncLinks().Save(ctx, reg); err != nil {
		return err
	}
	return unit.Commit(ctx)
}

func (r *Runner) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return 15 * time.Second
}

func (r *Runner) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

func (r *Runner) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
