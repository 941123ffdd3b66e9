package vestingservice

import (
	"log/slog"

	httpadapter "tokenvault/contexts/token-distribution/vesting-service/adapters/http"
	ledgeradapter "tokenvault/contexts/token-distribution/vesting-service/adapters/ledger"
	"tokenvault/contexts/token-distribution/vesting-service/adapters/memory"
	"tokenvault/contexts/token-distribution/vesting-service/application/commands"
	"tokenvault/contexts/token-distribution/vesting-service/application/queries"
	"tokenvault/contexts/token-distribution/vesting-service/application/workers"
	"tokenvault/contexts/token-distribution/vesting-service/ports"
)

type Module struct {
	Handler            httpadapter.Handler
	ClaimReconciler    workers.ClaimReconciler
	ScheduleReconciler workers.ScheduleReconciler
	LockReconciler     workers.LockReconciler
	OutboxRelay        workers.OutboxRelay
	Store              *memory.Store
	Ledger             *ledgeradapter.SimulatedLedger
}

type Dependencies struct {
	Schedules   ports.ScheduleRepository
	Allocations ports.AllocationRepository
	Claims      ports.ClaimRepository
	Locks       ports.LockRepository
	Rounds      ports.RoundRepository
	Commitments ports.CommitmentReader
	Ledger      ports.LedgerSubmitter
	Verifier    ports.LedgerVerifier
	Outbox      ports.OutboxWriter
	OutboxRepo  ports.OutboxRepository
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	commandUseCase := commands.UseCase{
		Schedules:   deps.Schedules,
		Allocations: deps.Allocations,
		Claims:      deps.Claims,
		Commitments: deps.Commitments,
		Ledger:      deps.Ledger,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	queryUseCase := queries.UseCase{
		Schedules:   deps.Schedules,
		Allocations: deps.Allocations,
		Claims:      deps.Claims,
		Rounds:      deps.Rounds,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Commands: commandUseCase,
			Queries:  queryUseCase,
			Logger:   deps.Logger,
		},
		ClaimReconciler: workers.ClaimReconciler{
			Claims:   deps.Claims,
			Verifier: deps.Verifier,
			Outbox:   deps.Outbox,
			Clock:    deps.Clock,
			IDGen:    deps.IDGen,
			Logger:   deps.Logger,
		},
		ScheduleReconciler: workers.ScheduleReconciler{
			Schedules: deps.Schedules,
			Rounds:    deps.Rounds,
			Verifier:  deps.Verifier,
			Outbox:    deps.Outbox,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Logger:    deps.Logger,
		},
		LockReconciler: workers.LockReconciler{
			Locks:    deps.Locks,
			Rounds:   deps.Rounds,
			Verifier: deps.Verifier,
			Outbox:   deps.Outbox,
			Clock:    deps.Clock,
			IDGen:    deps.IDGen,
			Logger:   deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.OutboxRepo,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory store and the
// simulated ledger. Used by the in-process profile and the black-box tests.
func NewInMemoryModule(
	clock ports.Clock,
	idGen ports.IDGenerator,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	ledger := ledgeradapter.NewSimulatedLedger()
	module := NewModule(Dependencies{
		Schedules:   store,
		Allocations: store,
		Claims:      store,
		Locks:       store,
		Rounds:      store,
		Commitments: store,
		Ledger:      ledger,
		Verifier:    ledger,
		Outbox:      store,
		OutboxRepo:  store,
		Publisher:   publisher,
		Clock:       clock,
		IDGen:       idGen,
		Logger:      logger,
	})
	module.Store = store
	module.Ledger = ledger
	return module
}
