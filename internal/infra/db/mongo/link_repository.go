package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincalendar "furnishedstay/internal/domain/calendar"
	domainsync "furnishedstay/internal/domain/sync"
	"furnishedstay/internal/infra/sched"
)

// RegistryRepository stores one sync-link registry document per property.
type RegistryRepository struct {
	col *mongo.Collection
}

func NewRegistryRepository(db *mongo.Database) *RegistryRepository {
	return &RegistryRepository{col: db.Collection("agg_sync_registry")}
}

func (r *RegistryRepository) ByProperty(ctx context.Context, id domaincalendar.PropertyID) (*domainsync.Registry, error) {
	var doc registryDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domainsync.NewRegistry(id), nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RegistryRepository) Save(ctx context.Context, reg *domainsync.Registry) error {
	doc := newRegistryDocument(reg)
	filter := bson.M{"_id": doc.ID, "version": reg.Version}
	doc.Version = reg.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	reg.Version = doc.Version
	return nil
}

// AutoSyncTargets scans every registry for links flagged auto-sync that are
// not currently mid-run.
func (r *RegistryRepository) AutoSyncTargets(ctx context.Context) ([]sched.Target, error) {
	filter := bson.M{"links": bson.M{"$elemMatch": bson.M{"auto_sync": true}}}
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []sched.Target
	for cursor.Next(ctx) {
		var doc registryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		for _, link := range doc.Links {
			if link.AutoSync && link.Status != string(domainsync.StatusSyncing) {
				out = append(out, sched.Target{PropertyID: doc.ID, LinkID: link.ID})
			}
		}
	}
	return out, cursor.Err()
}

type registryDocument struct {
	ID      string         `bson:"_id"`
	Links   []linkDocument `bson:"links"`
	Version int64          `bson:"version"`
}

type linkDocument struct {
	ID           string `bson:"id"`
	Name         string `bson:"name"`
	Type         string `bson:"type"`
	URL          string `bson:"url"`
	Status       string `bson:"status"`
	AutoSync     bool   `bson:"auto_sync"`
	LastSyncAt   int64  `bson:"last_sync_at,omitempty"`
	EventsCount  int    `bson:"events_count"`
	ErrorMessage string `bson:"error_message,omitempty"`
	CreatedAt    int64  `bson:"created_at"`
}

func newRegistryDocument(reg *domainsync.Registry) registryDocument {
	links := reg.Links()
	doc := registryDocument{
		ID:      string(reg.PropertyID),
		Links:   make([]linkDocument, 0, len(links)),
		Version: reg.Version,
	}
	for _, l := range links {
		ld := linkDocument{
			ID:           l.ID,
			Name:         l.Name,
			Type:         string(l.Type),
			URL:          l.URL,
			Status:       string(l.Status),
			AutoSync:     l.AutoSync,
			EventsCount:  l.EventsCount,
			ErrorMessage: l.ErrorMessage,
			CreatedAt:    l.CreatedAt.UnixMilli(),
		}
		if !l.LastSyncAt.IsZero() {
			ld.LastSyncAt = l.LastSyncAt.UnixMilli()
		}
		doc.Links = append(doc.Links, ld)
	}
	return doc
}

func (d registryDocument) toAggregate() *domainsync.Registry {
	links := make([]domainsync.Link, 0, len(d.Links))
	for _, ld := range d.Links {
		link := domainsync.Link{
			ID:           ld.ID,
			Name:         ld.Name,
			Type:         domainsync.LinkType(ld.Type),
			URL:          ld.URL,
			Status:       domainsync.LinkStatus(ld.Status),
			AutoSync:     ld.AutoSync,
			EventsCount:  ld.EventsCount,
			ErrorMessage: ld.ErrorMessage,
			CreatedAt:    timestampToTime(ld.CreatedAt),
		}
		if ld.LastSyncAt != 0 {
			link.LastSyncAt = timestampToTime(ld.LastSyncAt)
		}
		links = append(links, link)
	}
	return domainsync.RehydrateRegistry(domaincalendar.PropertyID(d.ID), d.Version, links)
}
