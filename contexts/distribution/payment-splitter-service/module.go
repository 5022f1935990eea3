package paymentsplitterservice

import (
	"log/slog"

	httpadapter "gavel/contexts/distribution/payment-splitter-service/adapters/http"
	"gavel/contexts/distribution/payment-splitter-service/adapters/memory"
	"gavel/contexts/distribution/payment-splitter-service/application/commands"
	"gavel/contexts/distribution/payment-splitter-service/application/queries"
	"gavel/contexts/distribution/payment-splitter-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Splitters ports.SplitterRepository
	Ledger    ports.Ledger
	Directory ports.Directory
	Terminals ports.TerminalGateway
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createSplitter := commands.CreateSplitterUseCase{
		Splitters: deps.Splitters,
		Directory: deps.Directory,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	receivePayment := commands.ReceivePaymentUseCase{
		Splitters: deps.Splitters,
		Ledger:    deps.Ledger,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	distribute := commands.DistributeUseCase{
		Splitters: deps.Splitters,
		Ledger:    deps.Ledger,
		Directory: deps.Directory,
		Terminals: deps.Terminals,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	addPayee := commands.AddPayeeUseCase{
		Splitters: deps.Splitters,
		Directory: deps.Directory,
		Logger:    deps.Logger,
	}
	pending := queries.PendingUseCase{
		Splitters: deps.Splitters,
		Ledger:    deps.Ledger,
	}
	getSplitter := queries.GetSplitterUseCase{
		Splitters: deps.Splitters,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateSplitter: createSplitter,
			ReceivePayment: receivePayment,
			Distribute:     distribute,
			AddPayee:       addPayee,
			Pending:        pending,
			GetSplitter:    getSplitter,
			Logger:         deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory store, for tests
// and local runs.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Splitters: store,
		Ledger:    store,
		Directory: store,
		Terminals: store,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
