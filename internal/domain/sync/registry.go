package sync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"furnishedstay/internal/domain/calendar"
	"furnishedstay/internal/domain/shared/events"
)

var (
	ErrDuplicateURL   = errors.New("sync: a link with this feed url already exists")
	ErrLinkNotFound   = errors.New("sync: link not found")
	ErrSyncInProgress = errors.New("sync: link is already syncing")
	ErrInvalidType    = errors.New("sync: unknown calendar type")
	ErrInvalidURL     = errors.New("sync: feed url is not a valid http(s) url")
	ErrEmptyName      = errors.New("sync: link name is required")
)

type LinkType string

const (
	TypeGoogle  LinkType = "google"
	TypeOutlook LinkType = "outlook"
	TypeICal    LinkType = "ical"
	TypeAirbnb  LinkType = "airbnb"
	TypeVRBO    LinkType = "vrbo"
	TypeBooking LinkType = "booking"
)

func (t LinkType) valid() bool {
	switch t {
	case TypeGoogle, TypeOutlook, TypeICal, TypeAirbnb, TypeVRBO, TypeBooking:
		return true
	}
	return false
}

type LinkStatus string

const (
	StatusActive  LinkStatus = "active"
	StatusError   LinkStatus = "error"
	StatusSyncing LinkStatus = "syncing"
)

// Link is a configured external calendar feed. Sync outcome fields are
// mutated only through the registry's sync transitions.
type Link struct {
	ID           string
	Name         string
	Type         LinkType
	URL          string
	Status       LinkStatus
	AutoSync     bool
	LastSyncAt   time.Time
	EventsCount  int
	ErrorMessage string
	CreatedAt    time.Time
}

// Registry owns every external calendar link of one property. Links are
// never shared across properties.
type Registry struct {
	PropertyID calendar.PropertyID
	Version    int64
	links      []Link
	events.EventRecorder
}

type Repository interface {
	ByProperty(ctx context.Context, id calendar.PropertyID) (*Registry, error)
	Save(ctx context.Context, reg *Registry) error
}

// IDGenerator produces link identifiers; wired to uuid in the composition root.
type IDGenerator func() string

func NewRegistry(id calendar.PropertyID) *Registry {
	return &Registry{PropertyID: id}
}

// RehydrateRegistry rebuilds an aggregate from persisted state.
func RehydrateRegistry(id calendar.PropertyID, version int64, links []Link) *Registry {
	reg := NewRegistry(id)
	reg.Version = version
	reg.links = append(reg.links, links...)
	return reg
}

// Links returns a copy of the configured links.
func (r *Registry) Links() []Link {
	out := make([]Link, len(r.links))
	copy(out, r.links)
	return out
}

func (r *Registry) Link(id string) (Link, error) {
	for _, link := range r.links {
		if link.ID == id {
			return link, nil
		}
	}
	return Link{}, fmt.Errorf("%w: %s", ErrLinkNotFound, id)
}

// Add registers a feed. The feed url must be unique within the property.
func (r *Registry) Add(newID IDGenerator, name string, linkType LinkType, feedURL string, autoSync bool, now time.Time) (Link, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Link{}, ErrEmptyName
	}
	if !linkType.valid() {
		return Link{}, fmt.Errorf("%w: %s", ErrInvalidType, linkType)
	}
	parsed, err := url.Parse(strings.TrimSpace(feedURL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Link{}, ErrInvalidURL
	}
	for _, existing := range r.links {
		if existing.URL == parsed.String() {
			return Link{}, fmt.Errorf("%w: %s", ErrDuplicateURL, parsed.String())
		}
	}
	link := Link{
		ID:        newID(),
		Name:      name,
		Type:      linkType,
		URL:       parsed.String(),
		Status:    StatusActive,
		AutoSync:  autoSync,
		CreatedAt: now.UTC(),
	}
	r.links = append(r.links, link)
	r.Record(LinkAddedEvent(r.PropertyID, link, now))
	return link, nil
}

// Remove deletes a link. Removing an unknown id is an error, not a no-op,
// so callers learn about stale ids.
func (r *Registry) Remove(id string, now time.Time) error {
	for i, link := range r.links {
		if link.ID != id {
			continue
		}
		r.links = append(r.links[:i], r.links[i+1:]...)
		r.Record(LinkRemovedEvent(r.PropertyID, link, now))
		return nil
	}
	return fmt.Errorf("%w: %s", ErrLinkNotFound, id)
}

// BeginSync moves an active or errored link into the syncing state. A link
// already syncing rejects a second run.
func (r *Registry) BeginSync(id string) (Link, error) {
	for i, link := range r.links {
		if link.ID != id {
			continue
		}
		if link.Status == StatusSyncing {
			return Link{}, fmt.Errorf("%w: %s", ErrSyncInProgress, id)
		}
		r.links[i].Status = StatusSyncing
		return r.links[i], nil
	}
	return Link{}, fmt.Errorf("%w: %s", ErrLinkNotFound, id)
}

// CompleteSync records a successful run: the link returns to active with a
// fresh sync timestamp, ingested event count and a cleared error message.
func (r *Registry) CompleteSync(id string, eventsCount int, now time.Time) (Link, error) {
	for i, link := range r.links {
		if link.ID != id {
			continue
		}
		r.links[i].Status = StatusActive
		r.links[i].LastSyncAt = now.UTC()
		r.links[i].EventsCount = eventsCount
		r.links[i].ErrorMessage = ""
		r.Record(SyncCompletedEvent(r.PropertyID, r.links[i], now))
		return r.links[i], nil
	}
	return Link{}, fmt.Errorf("%w: %s", ErrLinkNotFound, id)
}

// FailSync records a failed run. EventsCount and LastSyncAt keep their
// previous values so the link still reports the last good sync.
func (r *Registry) FailSync(id string, message string, now time.Time) (Link, error) {
	for i, link := range r.links {
		if link.ID != id {
			continue
		}
		r.links[i].Status = StatusError
		r.links[i].ErrorMessage = message
		r.Record(SyncFailedEvent(r.PropertyID, r.links[i], message, now))
		return r.links[i], nil
	}
	return Link{}, fmt.Errorf("%w: %s", ErrLinkNotFound, id)
}

// AutoSyncLinks returns the links flagged for scheduled syncing that are not
// currently mid-run.
func (r *Registry) AutoSyncLinks() []Link {
	var out []Link
	for _, link := range r.links {
		if link.AutoSync && link.Status != StatusSyncing {
			out = append(out, link)
		}
	}
	return out
}
