package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	paymentsplitterservice "gavel/contexts/distribution/payment-splitter-service"
	splittermemory "gavel/contexts/distribution/payment-splitter-service/adapters/memory"
	splitterpostgres "gavel/contexts/distribution/payment-splitter-service/adapters/postgres"
	splitterworkers "gavel/contexts/distribution/payment-splitter-service/application/workers"
	vestingservice "gavel/contexts/distribution/vesting-service"
	vestingmemory "gavel/contexts/distribution/vesting-service/adapters/memory"
	vestingpostgres "gavel/contexts/distribution/vesting-service/adapters/postgres"
	vestingworkers "gavel/contexts/distribution/vesting-service/application/workers"
	listingservice "gavel/contexts/marketplace/listing-service"
	listingmemory "gavel/contexts/marketplace/listing-service/adapters/memory"
	listingpostgres "gavel/contexts/marketplace/listing-service/adapters/postgres"
	listingworkers "gavel/contexts/marketplace/listing-service/application/workers"
	"gavel/internal/platform/cache"
	"gavel/internal/platform/config"
	"gavel/internal/platform/db"
	"gavel/internal/platform/httpserver"
	"gavel/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.
//
// Listings, splitters and plans persist in postgres; the treasury
// collaborators (asset registry, ledger, terminals, allocators) run on the
// in-process fakes until the external treasury integration lands.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	settler       listingworkers.ExpirySettlerJob
	sweeper       vestingworkers.AwardSweeper
	listingRelay  listingworkers.OutboxRelay
	splitterRelay splitterworkers.OutboxRelay
	vestingRelay  vestingworkers.OutboxRelay
	relayEnabled  bool
	pollInterval  time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	pg, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	marketModule, _ := buildMarketplace(pg, logger)
	splitterModule := buildSplitter(pg, logger)
	vestingModule := buildVesting(pg, logger)

	server := httpserver.New(
		marketModule,
		splitterModule,
		vestingModule,
		cache.NewIdempotencyStore(cfg.IdempotencyTTL),
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	pg, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	marketModule, listingRepo := buildMarketplace(pg, logger)
	vestingModule := buildVesting(pg, logger)
	splitterRepo := splitterpostgres.NewRepository(pg.DB, logger)
	vestingRepo := vestingpostgres.NewRepository(pg.DB, logger)

	settler := marketModule.Settler
	settler.Disabled = !cfg.EnableExpirySettler
	settler.BatchSize = cfg.WorkerBatchSize

	sweeper := vestingModule.Sweeper
	sweeper.Disabled = !cfg.EnableAwardSweeper
	sweeper.BatchSize = cfg.WorkerBatchSize

	return &WorkerApp{
		postgres: pg,
		settler:  settler,
		sweeper:  sweeper,
		listingRelay: listingworkers.OutboxRelay{
			Outbox:    listingRepo,
			Publisher: bus,
			Clock:     listingRepo,
			BatchSize: cfg.WorkerBatchSize,
			Logger:    logger,
		},
		splitterRelay: splitterworkers.OutboxRelay{
			Outbox:    splitterRepo,
			Publisher: bus,
			Clock:     splitterRepo,
			BatchSize: cfg.WorkerBatchSize,
			Logger:    logger,
		},
		vestingRelay: vestingworkers.OutboxRelay{
			Outbox:    vestingRepo,
			Publisher: bus,
			Clock:     vestingRepo,
			BatchSize: cfg.WorkerBatchSize,
			Logger:    logger,
		},
		relayEnabled: cfg.EnableOutboxRelay,
		pollInterval: cfg.RelayPollInterval,
		logger:       logger,
	}, nil
}

func buildMarketplace(pg *db.Postgres, logger *slog.Logger) (listingservice.Module, *listingpostgres.Repository) {
	repo := listingpostgres.NewRepository(pg.DB, logger)
	treasury := listingmemory.NewTreasury()
	module := listingservice.NewModule(listingservice.Dependencies{
		Listings:   repo,
		Settings:   repo,
		Assets:     treasury.Assets(),
		Ledger:     treasury.Ledger(),
		Directory:  treasury,
		Terminals:  treasury,
		Allocators: treasury,
		Outbox:     repo,
		Clock:      repo,
		IDGen:      repo,
		Logger:     logger,
	})
	module.Treasury = treasury
	return module, repo
}

func buildSplitter(pg *db.Postgres, logger *slog.Logger) paymentsplitterservice.Module {
	repo := splitterpostgres.NewRepository(pg.DB, logger)
	fakes := splittermemory.NewStore()
	module := paymentsplitterservice.NewModule(paymentsplitterservice.Dependencies{
		Splitters: repo,
		Ledger:    fakes,
		Directory: fakes,
		Terminals: fakes,
		Outbox:    repo,
		Clock:     repo,
		IDGen:     repo,
		Logger:    logger,
	})
	return module
}

func buildVesting(pg *db.Postgres, logger *slog.Logger) vestingservice.Module {
	repo := vestingpostgres.NewRepository(pg.DB, logger)
	ledger := vestingmemory.NewStore()
	module := vestingservice.NewModule(vestingservice.Dependencies{
		Plans:  repo,
		Ledger: ledger,
		Outbox: repo,
		Clock:  repo,
		IDGen:  repo,
		Logger: logger,
	})
	return module
}

func connect(cfg config.Config) (*db.Postgres, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	return db.Connect(cfg.PostgresDSN)
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	return a.postgres.Close()
}

// Run drives the worker loops until the context is cancelled. Each cycle
// sweeps expired listings, pushes matured vesting awards, and relays pending
// outbox rows.
func (w *WorkerApp) Run(ctx context.Context) error {
	if w.logger != nil {
		w.logger.Info("worker app started",
			"event", "bootstrap_worker_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *WorkerApp) runCycle(ctx context.Context) {
	if err := w.settler.RunOnce(ctx); err != nil {
		w.logger.Error("expiry settler cycle failed",
			"event", "bootstrap_settler_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
	if err := w.sweeper.RunOnce(ctx); err != nil {
		w.logger.Error("award sweeper cycle failed",
			"event", "bootstrap_sweeper_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
	if !w.relayEnabled {
		return
	}
	for _, relay := range []interface {
		RunOnce(context.Context) error
	}{w.listingRelay, w.splitterRelay, w.vestingRelay} {
		if err := relay.RunOnce(ctx); err != nil {
			w.logger.Error("outbox relay cycle failed",
				"event", "bootstrap_relay_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}
}

func (w *WorkerApp) Close() error {
	return w.postgres.Close()
}

func normalizeAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
