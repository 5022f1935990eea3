package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"gavel/contexts/distribution/vesting-service/domain/entities"
	domainerrors "gavel/contexts/distribution/vesting-service/domain/errors"
	"gavel/contexts/distribution/vesting-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

// Store is the in-memory plan repository plus a fake allowance-aware ledger
// for tests and local runs.
type Store struct {
	mu sync.RWMutex

	plans  map[string]entities.Plan
	outbox map[string]outboxRecord

	balances   map[string]uint64 // token/account -> balance
	allowances map[string]uint64 // token/owner/spender -> allowance
}

func NewStore() *Store {
	return &Store{
		plans:      make(map[string]entities.Plan),
		outbox:     make(map[string]outboxRecord),
		balances:   make(map[string]uint64),
		allowances: make(map[string]uint64),
	}
}

func (s *Store) CreatePlan(_ context.Context, plan entities.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[plan.PlanID]; exists {
		return domainerrors.ErrDuplicateConfiguration
	}
	s.plans[plan.PlanID] = plan
	return nil
}

func (s *Store) GetPlan(_ context.Context, planID string) (entities.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.plans[strings.TrimSpace(planID)]
	if !exists {
		return entities.Plan{}, domainerrors.ErrInvalidPlan
	}
	return item, nil
}

func (s *Store) UpdatePlan(_ context.Context, plan entities.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[plan.PlanID]; !exists {
		return domainerrors.ErrInvalidPlan
	}
	s.plans[plan.PlanID] = plan
	return nil
}

func (s *Store) DeletePlan(_ context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[strings.TrimSpace(planID)]; !exists {
		return domainerrors.ErrInvalidPlan
	}
	delete(s.plans, strings.TrimSpace(planID))
	return nil
}

func (s *Store) ListPlans(_ context.Context, limit int) ([]entities.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.Plan, 0, len(s.plans))
	for _, item := range s.plans {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].PlanID < items[j].PlanID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Credit seeds a token balance on an account.
func (s *Store) Credit(token, account string, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[token+"/"+account] += amount
}

// Approve seeds a spending allowance for a spender over an owner's funds.
func (s *Store) Approve(token, owner, spender string, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowances[token+"/"+owner+"/"+spender] = amount
}

// AccountBalance reports a token balance for test assertions.
func (s *Store) AccountBalance(token, account string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[token+"/"+account]
}

func (s *Store) Transfer(_ context.Context, token, from, to string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(token, from, to, amount)
}

func (s *Store) TransferFrom(_ context.Context, token, owner, spender, to string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowanceKey := token + "/" + owner + "/" + spender
	if s.allowances[allowanceKey] < amount {
		return domainerrors.ErrPaymentFailure
	}
	if err := s.move(token, owner, to, amount); err != nil {
		return err
	}
	s.allowances[allowanceKey] -= amount
	return nil
}

func (s *Store) Balance(_ context.Context, token, account string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[token+"/"+account], nil
}

// move assumes the lock is held.
func (s *Store) move(token, from, to string, amount uint64) error {
	fromKey := token + "/" + from
	if s.balances[fromKey] < amount {
		return domainerrors.ErrPaymentFailure
	}
	s.balances[fromKey] -= amount
	s.balances[token+"/"+to] += amount
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, exists := s.outbox[outboxID]; exists {
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		OutboxID:     outboxID,
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRecord, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.PublishedAt == nil {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrInvalidPlan
	}
	timestamp := publishedAt.UTC()
	row.PublishedAt = &timestamp
	s.outbox[outboxID] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.PlanRepository = (*Store)(nil)
var _ ports.Ledger = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
