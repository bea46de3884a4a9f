package uow

import (
	"context"
	"errors"

	domaincalendar "furnishedstay/internal/domain/calendar"
	domainsync "furnishedstay/internal/domain/sync"
)

// ErrConcurrentUpdate reports an optimistic save that lost a version race
// with another writer. Storage backends wrap it in their own sentinel.
var ErrConcurrentUpdate = errors.New("uow: concurrent update detected")

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Calendars() domaincalendar.Repository
	SyncLinks() domainsync.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
