package main

import (
	"context"
	"fmt"
	"log/slog"

	"rentalspot/internal/app/commands"
	availabilityapp "rentalspot/internal/app/handlers/availability"
	calendarapp "rentalspot/internal/app/handlers/calendar"
	holdapp "rentalspot/internal/app/handlers/holds"
	quoteapp "rentalspot/internal/app/handlers/quotes"
	"rentalspot/internal/app/middleware"
	appoutbox "rentalspot/internal/app/outbox"
	"rentalspot/internal/app/queries"
	"rentalspot/internal/app/schedule"
	"rentalspot/internal/app/services/calendars"
	"rentalspot/internal/app/services/holds"
	"rentalspot/internal/app/services/quoting"
	"rentalspot/internal/domain/availability"
	"rentalspot/internal/domain/pricing"
	"rentalspot/internal/infra/broker/kafka"
	"rentalspot/internal/infra/config"
	mongostore "rentalspot/internal/infra/db/mongo"
	ginserver "rentalspot/internal/infra/http/gin"
	"rentalspot/internal/infra/obs"
	infraoutbox "rentalspot/internal/infra/outbox"
	"rentalspot/internal/infra/storage/memory"
	"rentalspot/internal/infra/storage/ruledoc"
	"rentalspot/internal/infra/storage/s3"
)

type outboxStore interface {
	appoutbox.Outbox
	appoutbox.RelayStore
}

type producer interface {
	infraoutbox.Producer
	Close() error
}

type ruleStore interface {
	pricing.RuleStore
	calendars.PropertyCatalog
}

// stores are the persistence adapters of one STORAGE mode.
type stores struct {
	rules        ruleStore
	availability availability.Store
	calendars    pricing.CalendarRepository
	outbox       outboxStore
	idempotency  middleware.IdempotencyStore
	inbox        kafka.Inbox
	saveFixture  func(ctx context.Context, fx ruledoc.Fixture) error
	checks       map[string]obs.Check
	closers      []func(context.Context) error
}

type application struct {
	handlers  ginserver.Handlers
	health    obs.HealthHandlers
	relay     *infraoutbox.Worker
	sweeper   schedule.HoldSweeper
	consumer  *kafka.Consumer
	topics    []string
	rebuilder *calendars.Rebuilder
	stores    stores
	closers   []func(context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &application{stores: st, closers: st.closers}
	fail := func(err error) (*application, error) {
		app.close(logger)
		return nil, err
	}

	sink := appoutbox.Sink{Box: st.outbox, Encoder: appoutbox.JSONEventEncoder{}, Logger: logger}
	ledger := &availability.Ledger{Store: st.availability, Events: sink, Logger: logger.With("component", "ledger")}
	builder := pricing.NewBuilder(cfg.Pricing)
	engine := &quoting.Engine{
		Rules:        st.rules,
		Calendars:    st.calendars,
		Availability: ledger,
		Builder:      builder,
	}
	manager := &holds.Manager{
		Ledger: ledger,
		Quotes: engine,
		TTL:    cfg.HoldTTL,
		Events: sink,
		Logger: logger.With("component", "holds"),
	}
	app.rebuilder = &calendars.Rebuilder{
		Rules:       st.rules,
		Properties:  st.rules,
		Calendars:   st.calendars,
		Builder:     builder,
		MonthsAhead: cfg.CalendarMonthsAhead,
		Logger:      logger.With("component", "calendars"),
	}
	if cfg.S3Endpoint != "" {
		client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, "", logger)
		if err != nil {
			return fail(fmt.Errorf("s3 client: %w", err))
		}
		app.rebuilder.Publisher = s3.CalendarPublisher{Uploader: client}
		st.checks["s3"] = client.Ping
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, holdapp.PlaceHoldCommand{}.Key(), &holdapp.PlaceHoldHandler{Holds: manager})
	commands.RegisterHandler(commandBus, holdapp.ReleaseHoldCommand{}.Key(), &holdapp.ReleaseHoldHandler{Holds: manager})
	commands.RegisterHandler(commandBus, holdapp.ConfirmBookingCommand{}.Key(), &holdapp.ConfirmBookingHandler{Holds: manager})
	commands.RegisterHandler(commandBus, holdapp.SweepHoldsCommand{}.Key(), &holdapp.SweepHoldsHandler{Holds: manager})
	commands.RegisterHandler(commandBus, calendarapp.RebuildCalendarCommand{}.Key(), &calendarapp.RebuildCalendarHandler{Calendars: app.rebuilder})
	commands.RegisterHandler(commandBus, calendarapp.RebuildAllCalendarsCommand{}.Key(), &calendarapp.RebuildAllCalendarsHandler{Calendars: app.rebuilder})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, quoteapp.GetQuoteQuery{}.Key(), &quoteapp.GetQuoteHandler{Quotes: engine})
	queries.RegisterHandler(queryBus, availabilityapp.GetMonthQuery{}.Key(), &availabilityapp.GetMonthHandler{Ledger: ledger})
	queries.RegisterHandler(queryBus, calendarapp.GetPriceCalendarQuery{}.Key(), &calendarapp.GetPriceCalendarHandler{Calendars: app.rebuilder})

	commandsWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Authorization(middleware.TokenAuthorizer{Token: cfg.CronToken}),
		middleware.Validation(),
		middleware.Idempotency(st.idempotency, nil, logger),
		middleware.OutboxFlush(st.outbox, logger),
	)
	queriesWithMiddleware := middleware.ChainQueries(queryBus, middleware.QueryValidation())

	app.handlers = ginserver.Handlers{
		Quote:        ginserver.QuoteHandler{Queries: queriesWithMiddleware},
		Availability: ginserver.AvailabilityHandler{Queries: queriesWithMiddleware},
		Calendar:     ginserver.CalendarHandler{Queries: queriesWithMiddleware},
		Hold:         ginserver.HoldHandler{Commands: commandsWithMiddleware},
		Internal:     ginserver.InternalHandler{Commands: commandsWithMiddleware},
	}
	app.health = obs.HealthHandlers{Checks: st.checks}
	app.sweeper = schedule.HoldSweeper{
		Commands: commandsWithMiddleware,
		Interval: cfg.HoldSweepInterval,
		Logger:   logger.With("component", "sweeper"),
	}

	var prod producer = kafka.LogProducer{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return fail(fmt.Errorf("kafka producer: %w", err))
		}
		prod = p
		router := kafka.Router{
			Inbox: st.inbox,
			Handlers: map[string]kafka.EventFunc{
				calendarapp.RulesChangedEvent: calendarapp.RulesChangedSubscriber{Commands: commandsWithMiddleware}.Handle,
			},
			Logger: logger.With("component", "consumer"),
		}
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, router, logger.With("component", "consumer"))
		if err != nil {
			_ = p.Close()
			return fail(fmt.Errorf("kafka consumer: %w", err))
		}
		app.consumer = consumer
		app.topics = []string{cfg.KafkaTopicPrefix + "pricing.events.v1"}
		app.closers = append(app.closers, func(context.Context) error { return consumer.Close() })
	}
	app.closers = append(app.closers, func(context.Context) error { return prod.Close() })
	app.relay = &infraoutbox.Worker{
		Store:       st.outbox,
		Producer:    prod,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger.With("component", "outbox"),
	}
	return app, nil
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	if cfg.Storage != config.StorageMongo {
		rules := memory.NewRuleRepository()
		return stores{
			rules:        rules,
			availability: memory.NewAvailabilityStore(),
			calendars:    memory.NewCalendarRepository(),
			outbox:       memory.NewOutbox(),
			idempotency:  memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			inbox:        memory.NewInbox(),
			saveFixture: func(ctx context.Context, fx ruledoc.Fixture) error {
				cfgDoc, seasons, overrides, err := fx.Rules(cfg.OverrideFlatRateDefault)
				if err != nil {
					return err
				}
				rules.SaveConfig(cfgDoc)
				for _, s := range seasons {
					rules.SaveSeason(s)
				}
				for _, o := range overrides {
					rules.SaveOverride(o)
				}
				return nil
			},
			checks: map[string]obs.Check{},
		}, nil
	}

	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return stores{}, fmt.Errorf("mongo connect: %w", err)
	}
	logger.Info("mongo connected", "database", cfg.MongoDB, "transactions", cfg.MongoTransactions)
	var ledgerStore availability.Store = mongostore.NewAvailabilityStore(client.DB)
	if cfg.MongoTransactions {
		ledgerStore = mongostore.NewTxAvailabilityStore(client.DB)
	}
	rules := mongostore.NewRuleStore(client.DB, cfg.OverrideFlatRateDefault)
	return stores{
		rules:        rules,
		availability: ledgerStore,
		calendars:    mongostore.NewCalendarRepository(client.DB),
		outbox:       infraoutbox.NewStore(client.DB),
		idempotency:  mongostore.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL),
		inbox:        mongostore.NewInbox(client.DB, cfg.KafkaGroupID),
		saveFixture:  rules.SaveFixture,
		checks:       map[string]obs.Check{"mongo": client.Ping},
		closers:      []func(context.Context) error{client.Close},
	}, nil
}

func (a *application) close(logger *slog.Logger) {
	ctx := context.Background()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}
