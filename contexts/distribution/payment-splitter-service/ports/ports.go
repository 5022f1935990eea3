package ports

import (
	"context"
	"time"

	"gavel/contexts/distribution/payment-splitter-service/domain/entities"
	contractsv1 "gavel/contracts/gen/events/v1"
)

// NativeToken is the ledger token name for the native currency pool.
const NativeToken = "native"

type SplitterRepository interface {
	CreateSplitter(ctx context.Context, splitter entities.Splitter) error
	GetSplitter(ctx context.Context, name string) (entities.Splitter, error)
	UpdateSplitter(ctx context.Context, splitter entities.Splitter) error
}

// Ledger is the external funds collaborator, token-scoped.
type Ledger interface {
	Transfer(ctx context.Context, token, from, to string, amount uint64) error
	Balance(ctx context.Context, token, account string) (uint64, error)
}

// Directory resolves project identifiers to treasury terminals.
type Directory interface {
	PrimaryTerminalOf(ctx context.Context, projectID uint64, token string) (string, error)
}

// TerminalGateway forwards value into a project's treasury terminal.
type TerminalGateway interface {
	AddToBalance(ctx context.Context, terminalID string, projectID uint64, token, from string, amount uint64, memo string) error
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
