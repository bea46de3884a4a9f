package memory

import (
	"context"
	"fmt"
	"sync"

	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
	"furnishedstay/internal/domain/shared/money"
	domainsync "furnishedstay/internal/domain/sync"
	"furnishedstay/internal/infra/sched"
)

// ErrConcurrentUpdate is returned when a save races with another writer for
// the same property.
var ErrConcurrentUpdate = fmt.Errorf("memory: %w", uow.ErrConcurrentUpdate)

// CalendarRepository keeps per-property calendars in memory. Reads hand out
// deep copies and saves swap whole aggregates under the lock, so readers
// always observe a consistent snapshot and multi-date batches apply
// atomically per property.
type CalendarRepository struct {
	mu        sync.RWMutex
	basePrice money.Money
	items     map[domaincalendar.PropertyID]*domaincalendar.Calendar
}

// NewCalendarRepository builds an empty repository; unknown properties are
// onboarded lazily at the given base price.
func NewCalendarRepository(basePrice money.Money) *CalendarRepository {
	return &CalendarRepository{
		basePrice: basePrice,
		items:     make(map[domaincalendar.PropertyID]*domaincalendar.Calendar),
	}
}

func (r *CalendarRepository) ByProperty(ctx context.Context, id domaincalendar.PropertyID) (*domaincalendar.Calendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cal, ok := r.items[id]
	if !ok {
		cal = domaincalendar.New(id, r.basePrice)
		r.items[id] = cal
	}
	return cloneCalendar(cal), nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domaincalendar.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[cal.PropertyID]; ok && stored.Version != cal.Version {
		return ErrConcurrentUpdate
	}
	cal.Version++
	r.items[cal.PropertyID] = cloneCalendar(cal)
	return nil
}

func cloneCalendar(cal *domaincalendar.Calendar) *domaincalendar.Calendar {
	return domaincalendar.Rehydrate(cal.PropertyID, cal.BasePrice, cal.Version, cal.TrackedDays(), cal.Overrides())
}

// RegistryRepository keeps sync-link registries in memory with the same
// copy-on-read, swap-on-save discipline as the calendar store.
type RegistryRepository struct {
	mu    sync.RWMutex
	items map[domaincalendar.PropertyID]*domainsync.Registry
}

func NewRegistryRepository() *RegistryRepository {
	return &RegistryRepository{items: make(map[domaincalendar.PropertyID]*domainsync.Registry)}
}

func (r *RegistryRepository) ByProperty(ctx context.Context, id domaincalendar.PropertyID) (*domainsync.Registry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.items[id]
	if !ok {
		reg = domainsync.NewRegistry(id)
		r.items[id] = reg
	}
	return cloneRegistry(reg), nil
}

func (r *RegistryRepository) Save(ctx context.Context, reg *domainsync.Registry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[reg.PropertyID]; ok && stored.Version != reg.Version {
		return ErrConcurrentUpdate
	}
	reg.Version++
	r.items[reg.PropertyID] = cloneRegistry(reg)
	return nil
}

func cloneRegistry(reg *domainsync.Registry) *domainsync.Registry {
	return domainsync.RehydrateRegistry(reg.PropertyID, reg.Version, reg.Links())
}

// AutoSyncTargets lists every auto-sync link across all properties for the
// scheduler.
func (r *RegistryRepository) AutoSyncTargets(ctx context.Context) ([]sched.Target, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []sched.Target
	for id, reg := range r.items {
		for _, link := range reg.AutoSyncLinks() {
			out = append(out, sched.Target{PropertyID: string(id), LinkID: link.ID})
		}
	}
	return out, nil
}
