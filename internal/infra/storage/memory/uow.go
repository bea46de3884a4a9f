package memory

import (
	"context"

	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
	domainsync "furnishedstay/internal/domain/sync"
)

// Factory hands out units of work backed by shared in-memory repositories.
// There is no real transaction here; atomicity comes from whole-aggregate
// swaps inside the repositories.
type Factory struct {
	calendars *CalendarRepository
	registries *RegistryRepository
}

func NewFactory(calendars *CalendarRepository, registries *RegistryRepository) *Factory {
	return &Factory{calendars: calendars, registries: registries}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return &unit{calendars: f.calendars, registries: f.registries}, nil
}

type unit struct {
	calendars  *CalendarRepository
	registries *RegistryRepository
}

func (u *unit) Calendars() domaincalendar.Repository { return u.calendars }
func (u *unit) SyncLinks() domainsync.Repository     { return u.registries }

func (u *unit) Commit(ctx context.Context) error   { return nil }
func (u *unit) Rollback(ctx context.Context) error { return nil }

var _ uow.UoWFactory = (*Factory)(nil)
