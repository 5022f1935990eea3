package listingservice

import (
	"log/slog"

	httpadapter "gavel/contexts/marketplace/listing-service/adapters/http"
	"gavel/contexts/marketplace/listing-service/adapters/memory"
	"gavel/contexts/marketplace/listing-service/application/commands"
	"gavel/contexts/marketplace/listing-service/application/queries"
	"gavel/contexts/marketplace/listing-service/application/workers"
	"gavel/contexts/marketplace/listing-service/domain/entities"
	"gavel/contexts/marketplace/listing-service/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Settler  workers.ExpirySettlerJob
	Store    *memory.Store
	Treasury *memory.Treasury
}

type Dependencies struct {
	Listings   ports.ListingRepository
	Settings   ports.SettingsRepository
	Assets     ports.AssetRegistry
	Ledger     ports.Ledger
	Directory  ports.Directory
	Terminals  ports.TerminalGateway
	Allocators ports.Allocator
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	engine := commands.SettlementEngine{
		Listings:   deps.Listings,
		Assets:     deps.Assets,
		Ledger:     deps.Ledger,
		Directory:  deps.Directory,
		Terminals:  deps.Terminals,
		Allocators: deps.Allocators,
		Outbox:     deps.Outbox,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}

	createListing := commands.CreateListingUseCase{
		Listings: deps.Listings,
		Settings: deps.Settings,
		Assets:   deps.Assets,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	takeOffer := commands.TakeOfferUseCase{
		Listings: deps.Listings,
		Ledger:   deps.Ledger,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	placeBid := commands.PlaceBidUseCase{
		Listings: deps.Listings,
		Settings: deps.Settings,
		Ledger:   deps.Ledger,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	settleListing := commands.SettleListingUseCase{
		Settings: deps.Settings,
		Clock:    deps.Clock,
		Engine:   engine,
	}
	distributeProceeds := commands.DistributeProceedsUseCase{
		Settings: deps.Settings,
		Clock:    deps.Clock,
		Engine:   engine,
	}
	updateSplits := commands.UpdateSplitsUseCase{
		Listings: deps.Listings,
		Logger:   deps.Logger,
	}
	updateSettings := commands.UpdateSettingsUseCase{
		Settings:  deps.Settings,
		Directory: deps.Directory,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	getListing := queries.GetListingUseCase{
		Listings: deps.Listings,
		Settings: deps.Settings,
		Clock:    deps.Clock,
	}
	currentPrice := queries.CurrentPriceUseCase{
		Listings: deps.Listings,
		Settings: deps.Settings,
		Clock:    deps.Clock,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateListing:      createListing,
			TakeOffer:          takeOffer,
			PlaceBid:           placeBid,
			SettleListing:      settleListing,
			DistributeProceeds: distributeProceeds,
			UpdateSplits:       updateSplits,
			UpdateSettings:     updateSettings,
			GetListing:         getListing,
			CurrentPrice:       currentPrice,
			Logger:             deps.Logger,
		},
		Settler: workers.ExpirySettlerJob{
			Listings:   deps.Listings,
			Settle:     settleListing,
			Distribute: distributeProceeds,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory store and a fake
// treasury, for tests and local runs.
func NewInMemoryModule(settings entities.Settings, seed []entities.Listing, logger *slog.Logger) Module {
	store := memory.NewStore(settings, seed)
	treasury := memory.NewTreasury()
	module := NewModule(Dependencies{
		Listings:   store,
		Settings:   store,
		Assets:     treasury.Assets(),
		Ledger:     treasury.Ledger(),
		Directory:  treasury,
		Terminals:  treasury,
		Allocators: treasury,
		Outbox:     store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	module.Treasury = treasury
	return module
}
