package ports

import (
	"context"
	"time"

	"gavel/contexts/marketplace/listing-service/domain/entities"
	contractsv1 "gavel/contracts/gen/events/v1"
)

// NativeToken is the ledger token name for the native currency pool.
const NativeToken = "native"

// EscrowAccount holds listing payments between conclusion and distribution.
const EscrowAccount = "marketplace-escrow"

type ListingRepository interface {
	CreateListing(ctx context.Context, listing entities.Listing) error
	GetListing(ctx context.Context, assetContract string, tokenID uint64) (entities.Listing, error)
	UpdateListing(ctx context.Context, listing entities.Listing) error
	DeleteListing(ctx context.Context, assetContract string, tokenID uint64) error
	ListExpiredListings(ctx context.Context, now time.Time, limit int) ([]entities.Listing, error)
}

type SettingsRepository interface {
	GetSettings(ctx context.Context) (entities.Settings, error)
	PutSettings(ctx context.Context, settings entities.Settings) error
}

// AssetRegistry is the external asset collaborator: ownership queries plus
// approval-gated custody transfer.
type AssetRegistry interface {
	OwnerOf(ctx context.Context, assetContract string, tokenID uint64) (string, error)
	IsApproved(ctx context.Context, assetContract, owner, operator string, tokenID uint64) (bool, error)
	TransferFrom(ctx context.Context, assetContract, from, to string, tokenID uint64) error
}

// Ledger is the external funds collaborator. Token-scoped accounts; the
// NativeToken pool carries sale payments.
type Ledger interface {
	Transfer(ctx context.Context, token, from, to string, amount uint64) error
	TransferFrom(ctx context.Context, token, owner, spender, to string, amount uint64) error
	Balance(ctx context.Context, token, account string) (uint64, error)
}

// Directory resolves project identifiers to treasury terminals.
type Directory interface {
	IsTerminalOf(ctx context.Context, projectID uint64, terminalID string) (bool, error)
	PrimaryTerminalOf(ctx context.Context, projectID uint64, token string) (string, error)
}

// TerminalGateway forwards value into a treasury terminal. AddToBalance is
// the passive top-up entry point, Pay the contribution entry point; splits
// pick one via the PreferAddToBalance flag.
type TerminalGateway interface {
	AddToBalance(ctx context.Context, terminalID string, projectID uint64, token, from string, amount uint64, memo string) error
	Pay(ctx context.Context, terminalID string, projectID uint64, token, from, beneficiary string, amount uint64, memo string) error
}

type Allocation struct {
	Token       string
	Amount      uint64
	ProjectID   uint64
	Beneficiary string
}

// Allocator is the delegated-payout collaborator a split may target.
type Allocator interface {
	Allocate(ctx context.Context, allocatorID, from string, allocation Allocation) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
