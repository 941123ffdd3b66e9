package allocationservice

import (
	"log/slog"

	httpadapter "tokenvault/contexts/token-distribution/allocation-service/adapters/http"
	"tokenvault/contexts/token-distribution/allocation-service/adapters/memory"
	"tokenvault/contexts/token-distribution/allocation-service/application/commands"
	"tokenvault/contexts/token-distribution/allocation-service/application/queries"
	"tokenvault/contexts/token-distribution/allocation-service/domain/entities"
	"tokenvault/contexts/token-distribution/allocation-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository    ports.Repository
	Contributions ports.ContributionSource
	Clock         ports.Clock
	Salts         ports.SaltGenerator
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	commandUseCase := commands.UseCase{
		Repository:    deps.Repository,
		Contributions: deps.Contributions,
		Clock:         deps.Clock,
		Salts:         deps.Salts,
		Logger:        deps.Logger,
	}
	queryUseCase := queries.UseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Commands: commandUseCase,
			Queries:  queryUseCase,
			Logger:   deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Contribution, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository:    store,
		Contributions: store,
		Clock:         store,
		Salts:         store,
		Logger:        logger,
	})
	module.Store = store
	return module
}
