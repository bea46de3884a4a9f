package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"furnishedstay/internal/app/commands"
	"furnishedstay/internal/app/middleware"
	"furnishedstay/internal/app/outbox"
	"furnishedstay/internal/app/policies"
	"furnishedstay/internal/app/queries"

	availabilityapp "furnishedstay/internal/app/handlers/availability"
	bookingapp "furnishedstay/internal/app/handlers/booking"
	calendarapp "furnishedstay/internal/app/handlers/calendar"
	syncapp "furnishedstay/internal/app/handlers/sync"

	appuow "furnishedstay/internal/app/uow"
	domaincalendar "furnishedstay/internal/domain/calendar"
	"furnishedstay/internal/domain/shared/money"
	domainsync "furnishedstay/internal/domain/sync"
	"furnishedstay/internal/infra/broker/kafka"
	"furnishedstay/internal/infra/config"
	mongodb "furnishedstay/internal/infra/db/mongo"
	"furnishedstay/internal/infra/export"
	"furnishedstay/internal/infra/feed"
	ginserver "furnishedstay/internal/infra/http/gin"
	"furnishedstay/internal/infra/inbound"
	"furnishedstay/internal/infra/obs"
	infraoutbox "furnishedstay/internal/infra/outbox"
	"furnishedstay/internal/infra/sched"
	"furnishedstay/internal/infra/storage/memory"
	"furnishedstay/internal/infra/storage/s3"
	"furnishedstay/internal/infra/syncrun"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	fixturesPath := cfg.FixturesPath
	if fixturesPath == "" {
		fixturesPath = defaultFixturesPath()
	}
	if err := app.loadFixtures(ctx, fixturesPath, logger); err != nil {
		logger.Warn("calendar fixtures load failed", "error", err, "path", fixturesPath)
	}

	for _, run := range app.background {
		go run(ctx)
	}

	go func() {
		<-ctx.Done()
		app.runner.Wait()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	runner     *syncrun.Runner
	background []func(context.Context)
	ready      func() error

	uowFactory  appuow.UoWFactory
	outboxStore outbox.Outbox
	encoder     outbox.EventEncoder
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	basePrice, err := money.New(cfg.BasePrice, cfg.BaseCurrency)
	if err != nil {
		return nil, fmt.Errorf("base price: %w", err)
	}

	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
	}

	app := &application{
		encoder: outbox.JSONEventEncoder{},
		ready:   func() error { return nil },
	}

	var autoSyncSource sched.AutoSyncSource
	var background []func(context.Context)

	switch cfg.StoreMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		calendarRepo := mongodb.NewCalendarRepository(client.DB, basePrice)
		registryRepo := mongodb.NewRegistryRepository(client.DB)
		store := infraoutbox.NewStore(client.DB)

		app.uowFactory = mongodb.Factory{
			DB:           client.DB,
			CalendarRepo: calendarRepo,
			RegistryRepo: registryRepo,
		}
		app.outboxStore = store
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		autoSyncSource = registryRepo

		if producer != nil {
			worker := &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Logger:      logger,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
			background = append(background, func(ctx context.Context) {
				if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("outbox worker stopped", "error", err)
				}
			})
		}
	default:
		calendarRepo := memory.NewCalendarRepository(basePrice)
		registryRepo := memory.NewRegistryRepository()

		var pub memory.RecordPublisher
		if producer != nil {
			pub = topicRouter{producer: producer, prefix: cfg.KafkaTopicPrefix}
		}
		app.uowFactory = memory.NewFactory(calendarRepo, registryRepo)
		app.outboxStore = memory.NewOutbox(pub, logger)
		autoSyncSource = registryRepo
	}

	idStore := memory.NewIdempotencyStore(cfg.IdempotencyTTL)

	runner := &syncrun.Runner{
		UoWFactory: app.uowFactory,
		Fetcher:    &feed.HTTPFetcher{Client: &http.Client{Timeout: cfg.SyncTimeout}},
		Outbox:     app.outboxStore,
		Encoder:    app.encoder,
		Logger:     logger,
		Timeout:    cfg.SyncTimeout,
	}
	app.runner = runner

	var publisher *s3.Publisher
	if cfg.S3Endpoint != "" {
		publisher, err = s3.NewPublisher(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			return nil, fmt.Errorf("s3 publisher: %w", err)
		}
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, calendarapp.BlockDatesCommand{}.Key(), &calendarapp.BlockDatesHandler{
		UoWFactory: app.uowFactory,
		Outbox:     app.outboxStore,
		Encoder:    app.encoder,
	})
	commands.RegisterHandler(commandBus, calendarapp.UnblockDateCommand{}.Key(), &calendarapp.UnblockDateHandler{
		UoWFactory: app.uowFactory,
		Outbox:     app.outboxStore,
		Encoder:    app.encoder,
	})
	commands.RegisterHandler(commandBus, calendarapp.SetPricingCommand{}.Key(), &calendarapp.SetPricingHandler{
		UoWFactory: app.uowFactory,
		Outbox:     app.outboxStore,
		Encoder:    app.encoder,
	})
	commands.RegisterHandler(commandBus, syncapp.AddLinkCommand{}.Key(), &syncapp.AddLinkHandler{
		UoWFactory: app.uowFactory,
		Outbox:     app.outboxStore,
		Encoder:    app.encoder,
	})
	commands.RegisterHandler(commandBus, syncapp.RemoveLinkCommand{}.Key(), &syncapp.RemoveLinkHandler{
		UoWFactory: app.uowFactory,
		Outbox:     app.outboxStore,
		Encoder:    app.encoder,
	})
	commands.RegisterHandler(commandBus, syncapp.TriggerSyncCommand{}.Key(), &syncapp.TriggerSyncHandler{
		UoWFactory: app.uowFactory,
		Runner:     runner,
	})
	commands.RegisterHandler(commandBus, bookingapp.ReconcileBookingCommand{}.Key(), &bookingapp.ReconcileBookingHandler{
		UoWFactory: app.uowFactory,
		Outbox:     app.outboxStore,
		Encoder:    app.encoder,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, calendarapp.GetCalendarQuery{}.Key(), &calendarapp.GetCalendarHandler{
		UoWFactory: app.uowFactory,
	})
	queries.RegisterHandler(queryBus, calendarapp.ExportCalendarQuery{}.Key(), &calendarapp.ExportCalendarHandler{
		UoWFactory: app.uowFactory,
		Encoder:    export.Encoder{},
		Publisher:  exportPublisher(publisher),
	})
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{
		UoWFactory: app.uowFactory,
		Policy:     domaincalendar.QuotePolicy{OfferMinNights: cfg.OfferMinNights},
	})

	commandBusChained := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(app.uowFactory, nil),
		middleware.OutboxFlush(app.outboxStore),
	)
	queryBusChained := middleware.ChainQueries(
		queryBus,
		middleware.ReadOnlyTransaction(app.uowFactory),
	)

	if producer != nil {
		consumerHandler := &inbound.BookingEvents{Commands: commandBusChained, Logger: logger}
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, nil, consumerHandler)
		if err != nil {
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		topic := cfg.BookingTopic
		background = append(background, func(ctx context.Context) {
			defer consumer.Close()
			if err := consumer.Run(ctx, []string{topic}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("booking consumer stopped", "error", err)
			}
		})
	}

	if cfg.AutoSyncSpec != "" && autoSyncSource != nil {
		scheduler := sched.New(cfg.AutoSyncSpec, autoSyncSource, commandBusChained, logger)
		background = append(background, func(ctx context.Context) {
			if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("scheduler stopped", "error", err)
			}
			scheduler.Stop()
		})
	}

	app.background = background
	app.handlers = ginserver.Handlers{
		Calendar:     ginserver.CalendarHandler{Commands: commandBusChained, Queries: queryBusChained},
		Availability: ginserver.AvailabilityHandler{Queries: queryBusChained},
		Sync:         ginserver.SyncHandler{Commands: commandBusChained},
	}
	return app, nil
}

// topicRouter publishes in-memory outbox records straight to Kafka using the
// same topic convention as the durable worker.
type topicRouter struct {
	producer *kafka.Producer
	prefix   string
}

func (t topicRouter) Publish(ctx context.Context, record outbox.EventRecord) error {
	topic := kafka.TopicFor(t.prefix, record.Name)
	return t.producer.Publish(ctx, topic, record.Aggregate, record.Payload, record.Headers)
}

// exportPublisher avoids handing a typed nil pointer to the interface field.
func exportPublisher(p *s3.Publisher) policies.ExportPublisher {
	if p == nil {
		return nil
	}
	return p
}

func (a *application) loadFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("calendar fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fixtures []calendarFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		if err := a.importFixture(ctx, fx, now); err != nil {
			logger.Error("fixture import failed", "property_id", fx.PropertyID, "error", err)
			continue
		}
		logger.Info("calendar fixture imported", "property_id", fx.PropertyID)
	}
	return nil
}

func (a *application) importFixture(ctx context.Context, fx calendarFixture, now time.Time) error {
	ctx, unit, release, err := appuow.Require(ctx, a.uowFactory, appuow.TxOptions{})
	if err != nil {
		return err
	}
	defer release()

	cal, err := unit.Calendars().ByProperty(ctx, domaincalendar.PropertyID(fx.PropertyID))
	if err != nil {
		return err
	}
	for dateStr, amount := range fx.Prices {
		date, err := time.Parse(time.DateOnly, dateStr)
		if err != nil {
			return fmt.Errorf("price date %q: %w", dateStr, err)
		}
		price, err := money.New(amount, cal.BasePrice.Currency)
		if err != nil {
			return err
		}
		if err := cal.SetPrices([]time.Time{date}, price, now); err != nil {
			return err
		}
	}
	if len(fx.BlockedDates) > 0 {
		dates := make([]time.Time, 0, len(fx.BlockedDates))
		for _, dateStr := range fx.BlockedDates {
			date, err := time.Parse(time.DateOnly, dateStr)
			if err != nil {
				return fmt.Errorf("blocked date %q: %w", dateStr, err)
			}
			dates = append(dates, date)
		}
		if err := cal.Block(dates, domaincalendar.ReasonOther, "seeded", now); err != nil {
			return err
		}
	}
	cal.ClearEvents()
	if err := unit.Calendars().Save(ctx, cal); err != nil {
		return err
	}

	if len(fx.Links) > 0 {
		reg, err := unit.SyncLinks().ByProperty(ctx, domaincalendar.PropertyID(fx.PropertyID))
		if err != nil {
			return err
		}
		for _, lf := range fx.Links {
			if _, err := reg.Add(fixtureLinkID(lf), lf.Name, domainsync.LinkType(lf.Type), lf.URL, lf.AutoSync, now); err != nil {
				return err
			}
		}
		reg.ClearEvents()
		if err := unit.SyncLinks().Save(ctx, reg); err != nil {
			return err
		}
	}
	return unit.Commit(ctx)
}

func fixtureLinkID(lf linkFixture) domainsync.IDGenerator {
	if lf.ID != "" {
		return func() string { return lf.ID }
	}
	return uuid.NewString
}

type calendarFixture struct {
	PropertyID   string           `json:"property_id"`
	BlockedDates []string         `json:"blocked_dates"`
	Prices       map[string]int64 `json:"prices"`
	Links        []linkFixture    `json:"links"`
}

type linkFixture struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	URL      string `json:"url"`
	AutoSync bool   `json:"auto_sync"`
}

func defaultFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "calendars.json"),
		filepath.Join("deploy", "data", "calendars.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
