package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	allocationservice "tokenvault/contexts/token-distribution/allocation-service"
	allocationpostgres "tokenvault/contexts/token-distribution/allocation-service/adapters/postgres"
	vestingservice "tokenvault/contexts/token-distribution/vesting-service"
	ledgeradapter "tokenvault/contexts/token-distribution/vesting-service/adapters/ledger"
	vestingpostgres "tokenvault/contexts/token-distribution/vesting-service/adapters/postgres"
	"tokenvault/contexts/token-distribution/vesting-service/application/workers"
	"tokenvault/internal/platform/config"
	"tokenvault/internal/platform/db"
	"tokenvault/internal/platform/httpserver"
	"tokenvault/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres           *db.Postgres
	claimReconciler    workers.ClaimReconciler
	scheduleReconciler workers.ScheduleReconciler
	lockReconciler     workers.LockReconciler
	outboxRelay        workers.OutboxRelay
	cfg                config.Config
	logger             *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	allocationRepo := allocationpostgres.NewRepository(pg.DB, logger)
	allocationModule := allocationservice.NewModule(allocationservice.Dependencies{
		Repository:    allocationRepo,
		Contributions: allocationRepo,
		Clock:         allocationpostgres.SystemClock{},
		Salts:         allocationpostgres.RandomSaltGenerator{},
		Logger:        logger,
	})

	vestingRepo := vestingpostgres.NewRepository(pg.DB, logger)
	ledger := ledgeradapter.NewSimulatedLedger()
	vestingModule := vestingservice.NewModule(vestingservice.Dependencies{
		Schedules:   vestingRepo,
		Allocations: vestingRepo,
		Claims:      vestingRepo,
		Locks:       vestingRepo,
		Rounds:      vestingRepo,
		Commitments: vestingpostgres.NewCommitmentReader(pg.DB),
		Ledger:      ledger,
		Verifier:    ledger,
		Outbox:      vestingRepo,
		OutboxRepo:  vestingRepo,
		Clock:       vestingpostgres.SystemClock{},
		IDGen:       vestingpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	server := httpserver.New(allocationModule, vestingModule, logger, normalizeAddr(cfg.HTTPPort))
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
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := vestingpostgres.NewRepository(pg.DB, logger)
	ledger := ledgeradapter.NewSimulatedLedger()
	clock := vestingpostgres.SystemClock{}
	idGen := vestingpostgres.UUIDGenerator{}

	return &WorkerApp{
		postgres: pg,
		claimReconciler: workers.ClaimReconciler{
			Claims:       repo,
			Verifier:     ledger,
			Outbox:       repo,
			Clock:        clock,
			IDGen:        idGen,
			BatchSize:    cfg.ReconcileBatchSize,
			CheckTimeout: cfg.LedgerCheckTimeout,
			Logger:       logger,
		},
		scheduleReconciler: workers.ScheduleReconciler{
			Schedules:    repo,
			Rounds:       repo,
			Verifier:     ledger,
			Outbox:       repo,
			Clock:        clock,
			IDGen:        idGen,
			BatchSize:    cfg.ReconcileBatchSize,
			CheckTimeout: cfg.LedgerCheckTimeout,
			Logger:       logger,
		},
		lockReconciler: workers.LockReconciler{
			Locks:        repo,
			Rounds:       repo,
			Verifier:     ledger,
			Outbox:       repo,
			Clock:        clock,
			IDGen:        idGen,
			BatchSize:    cfg.ReconcileBatchSize,
			CheckTimeout: cfg.LedgerCheckTimeout,
			Logger:       logger,
		},
		outboxRelay: workers.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     clock,
			BatchSize: cfg.ReconcileBatchSize,
			Logger:    logger,
		},
		cfg:    cfg,
		logger: logger,
	}, nil
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
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.WorkerPollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.cfg.WorkerPollInterval.String(),
	)

	for {
		if w.cfg.EnableScheduleReconciler {
			if err := w.scheduleReconciler.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.cfg.EnableLockReconciler {
			if err := w.lockReconciler.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.cfg.EnableClaimReconciler {
			if err := w.claimReconciler.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.cfg.EnableOutboxRelay {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
