package vestingservice

import (
	"log/slog"

	httpadapter "gavel/contexts/distribution/vesting-service/adapters/http"
	"gavel/contexts/distribution/vesting-service/adapters/memory"
	"gavel/contexts/distribution/vesting-service/application/commands"
	"gavel/contexts/distribution/vesting-service/application/queries"
	"gavel/contexts/distribution/vesting-service/application/workers"
	"gavel/contexts/distribution/vesting-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Sweeper workers.AwardSweeper
	Store   *memory.Store
}

type Dependencies struct {
	Plans  ports.PlanRepository
	Ledger ports.Ledger
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createPlan := commands.CreatePlanUseCase{
		Plans:  deps.Plans,
		Ledger: deps.Ledger,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	distributeAward := commands.DistributeAwardUseCase{
		Plans:  deps.Plans,
		Ledger: deps.Ledger,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	terminatePlan := commands.TerminatePlanUseCase{
		Plans:  deps.Plans,
		Ledger: deps.Ledger,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	planDetails := queries.PlanDetailsUseCase{
		Plans: deps.Plans,
		Clock: deps.Clock,
	}
	unvestedBalance := queries.UnvestedBalanceUseCase{
		Plans: deps.Plans,
		Clock: deps.Clock,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreatePlan:      createPlan,
			DistributeAward: distributeAward,
			TerminatePlan:   terminatePlan,
			PlanDetails:     planDetails,
			UnvestedBalance: unvestedBalance,
			Logger:          deps.Logger,
		},
		Sweeper: workers.AwardSweeper{
			Plans:      deps.Plans,
			Distribute: distributeAward,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory store, for tests
// and local runs.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Plans:  store,
		Ledger: store,
		Outbox: store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
