package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/commander/core/audit"
	"github.com/dmitrymomot/commander/core/command"
	"github.com/dmitrymomot/commander/core/config"
	"github.com/dmitrymomot/commander/core/email"
	"github.com/dmitrymomot/commander/core/execctx"
	"github.com/dmitrymomot/commander/core/identity"
	"github.com/dmitrymomot/commander/core/logger"
	"github.com/dmitrymomot/commander/core/notify"
	"github.com/dmitrymomot/commander/core/queue"
	"github.com/dmitrymomot/commander/core/runner"
	"github.com/dmitrymomot/commander/core/server"
	"github.com/dmitrymomot/commander/integration/database/mongo"
	"github.com/dmitrymomot/commander/integration/database/opensearch"
	"github.com/dmitrymomot/commander/integration/database/pg"
	"github.com/dmitrymomot/commander/integration/database/redis"
	"github.com/dmitrymomot/commander/integration/email/postmark"
	"github.com/dmitrymomot/commander/integration/storage/s3"
	"github.com/dmitrymomot/commander/internal/demo"
)

// Audit backends selectable through AUDIT_BACKENDS.
const (
	backendMongo      = "mongo"
	backendOpenSearch = "opensearch"
	backendS3         = "s3"
)

type appConfig struct {
	Name          string   `env:"APP_NAME" envDefault:"commander"`
	Environment   string   `env:"APP_ENV" envDefault:"development"`
	AuditBackends []string `env:"AUDIT_BACKENDS" envSeparator:"," envDefault:"mongo"`
	NotifyEmail   string   `env:"NOTIFY_EMAIL" envDefault:"admin@example.com"`
	EmailRetries  int      `env:"EMAIL_RETRIES" envDefault:"3"`

	// Demo accounts are seeded only when a password is set.
	AdminPassword  string `env:"DEMO_ADMIN_PASSWORD"`
	EditorPassword string `env:"DEMO_EDITOR_PASSWORD"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := newLogger(cfg)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("application stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("application stopped")
}

func newLogger(cfg appConfig) *slog.Logger {
	opts := []logger.Option{logger.WithContextExtractors(logger.ExecContextExtractor)}
	switch cfg.Environment {
	case "production":
		opts = append(opts, logger.WithProduction(cfg.Name))
	case "staging":
		opts = append(opts, logger.WithStaging(cfg.Name))
	default:
		opts = append(opts, logger.WithDevelopment(cfg.Name))
	}
	return logger.New(opts...)
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	var (
		pgCfg       pg.Config
		redisCfg    redis.Config
		auditCfg    audit.Config
		queueCfg    queue.Config
		runnerCfg   runner.Config
		identityCfg identity.Config
		notifyCfg   notify.Config
		serverCfg   server.Config
	)
	if err := errors.Join(
		config.Load(&pgCfg),
		config.Load(&redisCfg),
		config.Load(&auditCfg),
		config.Load(&queueCfg),
		config.Load(&runnerCfg),
		config.Load(&identityCfg),
		config.Load(&notifyCfg),
		config.Load(&serverCfg),
	); err != nil {
		return err
	}

	// PostgreSQL: transactional store, schema and demo accounts.
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, demo.Migrations, log.With(logger.Component("migrations"))); err != nil {
		return err
	}
	if err := seedUsers(ctx, pool, cfg); err != nil {
		return err
	}

	// Redis: durable queue and token revocation.
	rdb, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	jobs := redis.NewQueueFromConfig(redisCfg, rdb, redis.WithQueueLogger(log.With(logger.Component("queue"))))
	recovered, err := jobs.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recover queue: %w", err)
	}
	if recovered > 0 {
		log.Info("requeued interrupted items", logger.Count("count", recovered))
	}

	checks := []server.Check{
		{Name: "postgres", Fn: pg.Healthcheck(pool)},
		{Name: "redis", Fn: redis.Healthcheck(rdb)},
	}

	auditStore, auditChecks, closeAudit, err := newAuditStore(ctx, cfg, auditCfg)
	if err != nil {
		return err
	}
	defer closeAudit()
	checks = append(checks, auditChecks...)

	tokens, err := identity.NewJWTProviderFromConfig(identityCfg,
		identity.WithRevocationStore(redis.NewRevocationList(rdb, redisCfg.KeyPrefix)),
		identity.WithLogger(log.With(logger.Component("identity"))),
	)
	if err != nil {
		return err
	}

	mailer, err := newMailer(log)
	if err != nil {
		return err
	}

	enqueuer, err := queue.NewEnqueuerFromConfig(queueCfg, jobs, queue.WithEnqueuerLogger(log.With(logger.Component("enqueuer"))))
	if err != nil {
		return err
	}

	hub := notify.NewHubFromConfig(notifyCfg, notify.WithLogger(log.With(logger.Component("notify"))))
	defer func() { _ = hub.Close() }()

	pgStore := pg.NewPoolStore(pool, pg.WithStoreLogger(log.With(logger.Component("store"))))

	// The bus freezes the registry, so the service publishes through a
	// closure bound once the bus exists.
	var bus *command.Bus
	svc := demo.NewService(
		demo.NewPGContacts(pgStore),
		demo.NewPGUsers(pool),
		tokens,
		mailer,
		demo.WithEnqueuer(enqueuer),
		demo.WithPublisher(demo.PublisherFunc(func(ctx context.Context, n any) error {
			return bus.Publish(ctx, n)
		})),
		demo.WithNotifyAddress(cfg.NotifyEmail),
		demo.WithEmailRetries(cfg.EmailRetries),
		demo.WithLogger(log.With(logger.Component("demo"))),
	)

	reg := command.NewRegistry()
	if err := svc.Register(reg, hub); err != nil {
		return fmt.Errorf("register demo handlers: %w", err)
	}

	auditor := audit.NewFromConfig(auditCfg, auditStore, audit.WithLogger(log.With(logger.Component("audit"))))
	bus, err = command.NewBus(reg,
		command.WithStore(pgStore),
		command.WithAuditor(auditor),
		command.WithLogger(log.With(logger.Component("bus"))),
	)
	if err != nil {
		return fmt.Errorf("verify request policies: %w", err)
	}

	consumer, err := runner.NewQueueConsumer(bus, jobs,
		runner.WithConsumerLogger(log.With(logger.Component("consumer"))),
		runner.WithRetryDelay(runnerCfg.RetryDelay),
	)
	if err != nil {
		return err
	}

	tasks := runner.NewFromConfig(runnerCfg, runner.WithLogger(log.With(logger.Component("runner"))))
	system := execctx.System(runnerCfg.SystemUser, demo.RoleAdmin)
	if err := errors.Join(
		tasks.ScheduleInterval("ping", runnerCfg.PingInterval,
			runner.SendAs(bus, system, func() any { return demo.Ping{Name: "Schedule"} })),
		tasks.RunConsumer("queue-consumer", delayed(runnerCfg.ConsumerDelay, consumer.Consume)),
	); err != nil {
		return err
	}

	srv, err := server.NewFromConfig(serverCfg, server.WithLogger(log.With(logger.Component("server"))))
	if err != nil {
		return err
	}
	router := server.Chain(server.NewRouter(log, hub, checks...),
		server.RequestID,
		server.Logging(log, 0),
	)

	log.Info("application started",
		slog.String("addr", serverCfg.Addr),
		slog.Any("requests", reg.Names()),
		slog.Any("audit_backends", cfg.AuditBackends))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(ctx, router))
	g.Go(tasks.Run(ctx))
	return g.Wait()
}

// delayed postpones fn by d unless ctx ends first.
func delayed(d time.Duration, fn runner.TaskFunc) runner.TaskFunc {
	return func(ctx context.Context) error {
		if d > 0 {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return nil
			case <-timer.C:
			}
		}
		return fn(ctx)
	}
}

func seedUsers(ctx context.Context, db pg.Querier, cfg appConfig) error {
	var users []demo.User
	if cfg.AdminPassword != "" {
		u, err := demo.NewUser("admin", cfg.AdminPassword, demo.RoleAdmin)
		if err != nil {
			return err
		}
		users = append(users, u)
	}
	if cfg.EditorPassword != "" {
		u, err := demo.NewUser("editor", cfg.EditorPassword)
		if err != nil {
			return err
		}
		users = append(users, u)
	}
	if len(users) == 0 {
		return nil
	}
	return demo.SeedUsers(ctx, db, users...)
}

func newMailer(log *slog.Logger) (email.EmailSender, error) {
	var cfg postmark.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		log.Warn("postmark tokens are not set, emails are logged only")
		return email.NewDevSender(log.With(logger.Component("email"))), nil
	}
	client, err := postmark.New(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newAuditStore connects every backend listed in AUDIT_BACKENDS. The returned
// func releases the connections.
func newAuditStore(ctx context.Context, cfg appConfig, auditCfg audit.Config) (audit.Store, []server.Check, func(), error) {
	var (
		stores  []audit.Store
		checks  []server.Check
		closers []func()
	)
	closeAll := func() {
		for _, c := range slices.Backward(closers) {
			c()
		}
	}

	for _, backend := range cfg.AuditBackends {
		switch backend {
		case backendMongo:
			var mcfg mongo.Config
			if err := config.Load(&mcfg); err != nil {
				closeAll()
				return nil, nil, nil, err
			}
			db, err := mongo.NewWithDatabase(ctx, mcfg)
			if err != nil {
				closeAll()
				return nil, nil, nil, err
			}
			client := db.Client()
			closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
			stores = append(stores, mongo.NewAuditStoreFromConfig(auditCfg, db))
			checks = append(checks, server.Check{Name: backendMongo, Fn: mongo.Healthcheck(client)})

		case backendOpenSearch:
			var ocfg opensearch.Config
			if err := config.Load(&ocfg); err != nil {
				closeAll()
				return nil, nil, nil, err
			}
			client, err := opensearch.New(ctx, ocfg)
			if err != nil {
				closeAll()
				return nil, nil, nil, err
			}
			stores = append(stores, opensearch.NewAuditStoreFromConfig(auditCfg, client))
			checks = append(checks, server.Check{Name: backendOpenSearch, Fn: opensearch.Healthcheck(client)})

		case backendS3:
			var scfg s3.Config
			if err := config.Load(&scfg); err != nil {
				closeAll()
				return nil, nil, nil, err
			}
			archive, err := s3.New(ctx, scfg)
			if err != nil {
				closeAll()
				return nil, nil, nil, err
			}
			stores = append(stores, archive)
			checks = append(checks, server.Check{Name: backendS3, Fn: archive.Healthcheck})

		case "":
		default:
			closeAll()
			return nil, nil, nil, fmt.Errorf("unknown audit backend %q", backend)
		}
	}

	if len(stores) == 0 {
		return audit.NewMemoryStore(), checks, closeAll, nil
	}
	return audit.MultiStore(stores...), checks, closeAll, nil
}
