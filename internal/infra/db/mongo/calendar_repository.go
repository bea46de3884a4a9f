package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
	"furnishedstay/internal/domain/shared/money"
)

var ErrConcurrentUpdate = fmt.Errorf("mongo: %w", uow.ErrConcurrentUpdate)

// CalendarRepository stores one document per property. Saves are guarded by
// an optimistic version check so a whole batch of day changes lands
// atomically or not at all.
type CalendarRepository struct {
	col       *mongo.Collection
	basePrice money.Money
}

func NewCalendarRepository(db *mongo.Database, basePrice money.Money) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("agg_calendar"), basePrice: basePrice}
}

func (r *CalendarRepository) ByProperty(ctx context.Context, id domaincalendar.PropertyID) (*domaincalendar.Calendar, error) {
	var doc calendarDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domaincalendar.New(id, r.basePrice), nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toAggregate()
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domaincalendar.Calendar) error {
	doc := newCalendarDocument(cal)
	filter := bson.M{"_id": doc.ID, "version": cal.Version}
	doc.Version = cal.Version + 1
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
	cal.Version = doc.Version
	return nil
}

type calendarDocument struct {
	ID        string             `bson:"_id"`
	BasePrice moneyDocument      `bson:"base_price"`
	Days      []dayDocument      `bson:"days"`
	Overrides []overrideDocument `bson:"overrides"`
	Version   int64              `bson:"version"`
}

type dayDocument struct {
	Date        int64         `bson:"date"`
	Status      string        `bson:"status"`
	Price       moneyDocument `bson:"price"`
	GuestRef    string        `bson:"guest_ref,omitempty"`
	BlockReason string        `bson:"block_reason,omitempty"`
	BlockNote   string        `bson:"block_note,omitempty"`
}

type overrideDocument struct {
	Date  int64         `bson:"date"`
	Price moneyDocument `bson:"price"`
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newCalendarDocument(cal *domaincalendar.Calendar) calendarDocument {
	days := cal.TrackedDays()
	doc := calendarDocument{
		ID:        string(cal.PropertyID),
		BasePrice: moneyDocument{Amount: cal.BasePrice.Amount, Currency: cal.BasePrice.Currency},
		Days:      make([]dayDocument, 0, len(days)),
		Version:   cal.Version,
	}
	for _, d := range days {
		doc.Days = append(doc.Days, dayDocument{
			Date:        d.Date.UnixMilli(),
			Status:      string(d.Status),
			Price:       moneyDocument{Amount: d.Price.Amount, Currency: d.Price.Currency},
			GuestRef:    d.GuestRef,
			BlockReason: string(d.BlockReason),
			BlockNote:   d.BlockNote,
		})
	}
	for date, price := range cal.Overrides() {
		doc.Overrides = append(doc.Overrides, overrideDocument{
			Date:  date.UnixMilli(),
			Price: moneyDocument{Amount: price.Amount, Currency: price.Currency},
		})
	}
	return doc
}

func (d calendarDocument) toAggregate() (*domaincalendar.Calendar, error) {
	days := make([]domaincalendar.Day, 0, len(d.Days))
	for _, dd := range d.Days {
		days = append(days, domaincalendar.Day{
			Date:        timestampToTime(dd.Date),
			Status:      domaincalendar.DayStatus(dd.Status),
			Price:       money.Money{Amount: dd.Price.Amount, Currency: dd.Price.Currency},
			GuestRef:    dd.GuestRef,
			BlockReason: domaincalendar.BlockReason(dd.BlockReason),
			BlockNote:   dd.BlockNote,
		})
	}
	overrides := make(map[time.Time]money.Money, len(d.Overrides))
	for _, od := range d.Overrides {
		overrides[timestampToTime(od.Date)] = money.Money{Amount: od.Price.Amount, Currency: od.Price.Currency}
	}
	base := money.Money{Amount: d.BasePrice.Amount, Currency: d.BasePrice.Currency}
	return domaincalendar.Rehydrate(domaincalendar.PropertyID(d.ID), base, d.Version, days, overrides), nil
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
