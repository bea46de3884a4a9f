package sync

import (
	"time"

	"furnishedstay/internal/domain/calendar"
)

type LinkAdded struct {
	PropertyID string
	LinkID     string
	Type       LinkType
	URL        string
	At         time.Time
}

func (e LinkAdded) EventName() string     { return "synclink.added" }
func (e LinkAdded) AggregateID() string   { return e.PropertyID }
func (e LinkAdded) OccurredAt() time.Time { return e.At }

type LinkRemoved struct {
	PropertyID string
	LinkID     string
	At         time.Time
}

func (e LinkRemoved) EventName() string     { return "synclink.removed" }
func (e LinkRemoved) AggregateID() string   { return e.PropertyID }
func (e LinkRemoved) OccurredAt() time.Time { return e.At }

type SyncCompleted struct {
	PropertyID  string
	LinkID      string
	EventsCount int
	At          time.Time
}

func (e SyncCompleted) EventName() string     { return "synclink.completed" }
func (e SyncCompleted) AggregateID() string   { return e.PropertyID }
func (e SyncCompleted) OccurredAt() time.Time { return e.At }

type SyncFailed struct {
	PropertyID string
	LinkID     string
	Message    string
	At         time.Time
}

func (e SyncFailed) EventName() string     { return "synclink.failed" }
func (e SyncFailed) AggregateID() string   { return e.PropertyID }
func (e SyncFailed) OccurredAt() time.Time { return e.At }

func LinkAddedEvent(id calendar.PropertyID, link Link, at time.Time) LinkAdded {
	return LinkAdded{PropertyID: string(id), LinkID: link.ID, Type: link.Type, URL: link.URL, At: at.UTC()}
}

func LinkRemovedEvent(id calendar.PropertyID, link Link, at time.Time) LinkRemoved {
	return LinkRemoved{PropertyID: string(id), LinkID: link.ID, At: at.UTC()}
}

func SyncCompletedEvent(id calendar.PropertyID, link Link, at time.Time) SyncCompleted {
	return SyncCompleted{PropertyID: string(id), LinkID: link.ID, EventsCount: link.EventsCount, At: at.UTC()}
}

func SyncFailedEvent(id calendar.PropertyID, link Link, message string, at time.Time) SyncFailed {
	return SyncFailed{PropertyID: string(id), LinkID: link.ID, Message: message, At: at.UTC()}
}
