package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gavel/contexts/distribution/payment-splitter-service/domain/entities"
	domainerrors "gavel/contexts/distribution/payment-splitter-service/domain/errors"
	"gavel/contexts/distribution/payment-splitter-service/ports"

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

// Store is the in-memory splitter repository plus a fake ledger, directory
// and terminal gateway for tests and local runs.
type Store struct {
	mu sync.RWMutex

	splitters map[string]entities.Splitter
	outbox    map[string]outboxRecord

	balances         map[string]uint64 // token/account -> balance
	primaryTerminals map[string]string // projectID/token -> terminal ID
	terminalBalances map[string]uint64 // terminalID/token -> balance
}

func NewStore() *Store {
	return &Store{
		splitters:        make(map[string]entities.Splitter),
		outbox:           make(map[string]outboxRecord),
		balances:         make(map[string]uint64),
		primaryTerminals: make(map[string]string),
		terminalBalances: make(map[string]uint64),
	}
}

func (s *Store) CreateSplitter(_ context.Context, splitter entities.Splitter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.splitters[splitter.Name]; exists {
		return domainerrors.ErrSplitterExists
	}
	s.splitters[splitter.Name] = cloneSplitter(splitter)
	return nil
}

func (s *Store) GetSplitter(_ context.Context, name string) (entities.Splitter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.splitters[strings.TrimSpace(name)]
	if !exists {
		return entities.Splitter{}, domainerrors.ErrUnknownSplitter
	}
	return cloneSplitter(item), nil
}

func (s *Store) UpdateSplitter(_ context.Context, splitter entities.Splitter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.splitters[splitter.Name]; !exists {
		return domainerrors.ErrUnknownSplitter
	}
	s.splitters[splitter.Name] = cloneSplitter(splitter)
	return nil
}

// cloneSplitter deep-copies the release bookkeeping so callers cannot mutate
// stored state through a returned value.
func cloneSplitter(item entities.Splitter) entities.Splitter {
	copied := item
	copied.Payees = append([]entities.Payee(nil), item.Payees...)
	copied.Released = make(map[string]map[string]uint64, len(item.Released))
	for token, perPayee := range item.Released {
		inner := make(map[string]uint64, len(perPayee))
		for key, amount := range perPayee {
			inner[key] = amount
		}
		copied.Released[token] = inner
	}
	copied.TotalReleased = make(map[string]uint64, len(item.TotalReleased))
	for token, amount := range item.TotalReleased {
		copied.TotalReleased[token] = amount
	}
	return copied
}

// Credit seeds a token balance on an account.
func (s *Store) Credit(token, account string, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[token+"/"+account] += amount
}

// RegisterTerminal sets a project's primary terminal for a token.
func (s *Store) RegisterTerminal(projectID uint64, terminalID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.primaryTerminals[fmt.Sprintf("%d/%s", projectID, token)] = terminalID
}

// TerminalBalance reports a terminal's accumulated token balance.
func (s *Store) TerminalBalance(terminalID, token string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminalBalances[terminalID+"/"+token]
}

func (s *Store) Transfer(_ context.Context, token, from, to string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fromKey := token + "/" + from
	if s.balances[fromKey] < amount {
		return domainerrors.ErrPaymentFailure
	}
	s.balances[fromKey] -= amount
	s.balances[token+"/"+to] += amount
	return nil
}

func (s *Store) Balance(_ context.Context, token, account string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[token+"/"+account], nil
}

func (s *Store) PrimaryTerminalOf(_ context.Context, projectID uint64, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.primaryTerminals[fmt.Sprintf("%d/%s", projectID, token)], nil
}

func (s *Store) AddToBalance(_ context.Context, terminalID string, projectID uint64, token, from string, amount uint64, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fromKey := token + "/" + from
	if s.balances[fromKey] < amount {
		return domainerrors.ErrPaymentFailure
	}
	s.balances[fromKey] -= amount
	s.terminalBalances[terminalID+"/"+token] += amount
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
		return domainerrors.ErrUnknownSplitter
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

var _ ports.SplitterRepository = (*Store)(nil)
var _ ports.Ledger = (*Store)(nil)
var _ ports.Directory = (*Store)(nil)
var _ ports.TerminalGateway = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
