package ports

import (
	"context"
	"time"

	"gavel/contexts/distribution/vesting-service/domain/entities"
	contractsv1 "gavel/contracts/gen/events/v1"
)

// NativeToken is the ledger token name for the native currency pool.
const NativeToken = "native"

// EscrowAccount holds granted funds until they vest.
const EscrowAccount = "vesting-escrow"

type PlanRepository interface {
	CreatePlan(ctx context.Context, plan entities.Plan) error
	GetPlan(ctx context.Context, planID string) (entities.Plan, error)
	UpdatePlan(ctx context.Context, plan entities.Plan) error
	DeletePlan(ctx context.Context, planID string) error
	ListPlans(ctx context.Context, limit int) ([]entities.Plan, error)
}

// Ledger is the external funds collaborator, token-scoped. TransferFrom
// honors a spender allowance; plan creation pulls the grant with it.
type Ledger interface {
	Transfer(ctx context.Context, token, from, to string, amount uint64) error
	TransferFrom(ctx context.Context, token, owner, spender, to string, amount uint64) error
	Balance(ctx context.Context, token, account string) (uint64, error)
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
