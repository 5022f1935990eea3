package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"gavel/contexts/marketplace/listing-service/domain/entities"
	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	"gavel/contexts/marketplace/listing-service/ports"

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

// Store is the in-memory listing repository used by tests and local runs.
type Store struct {
	mu sync.RWMutex

	listings map[string]entities.Listing
	settings entities.Settings
	outbox   map[string]outboxRecord
}

func NewStore(settings entities.Settings, seed []entities.Listing) *Store {
	listings := make(map[string]entities.Listing, len(seed))
	for _, item := range seed {
		listings[item.Key()] = item
	}
	return &Store{
		listings: listings,
		settings: settings,
		outbox:   make(map[string]outboxRecord),
	}
}

func (s *Store) CreateListing(_ context.Context, listing entities.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.listings[listing.Key()]; exists {
		if listing.IsAuction() {
			return domainerrors.ErrAuctionExists
		}
		return domainerrors.ErrSaleExists
	}
	s.listings[listing.Key()] = listing
	return nil
}

func (s *Store) GetListing(_ context.Context, assetContract string, tokenID uint64) (entities.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.listings[entities.ListingKey(strings.TrimSpace(assetContract), tokenID)]
	if !exists {
		return entities.Listing{}, domainerrors.ErrInvalidSale
	}
	return item, nil
}

func (s *Store) UpdateListing(_ context.Context, listing entities.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.listings[listing.Key()]; !exists {
		return domainerrors.ErrInvalidSale
	}
	s.listings[listing.Key()] = listing
	return nil
}

func (s *Store) DeleteListing(_ context.Context, assetContract string, tokenID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entities.ListingKey(strings.TrimSpace(assetContract), tokenID)
	if _, exists := s.listings[key]; !exists {
		return domainerrors.ErrInvalidSale
	}
	delete(s.listings, key)
	return nil
}

func (s *Store) ListExpiredListings(_ context.Context, now time.Time, limit int) ([]entities.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.Listing, 0)
	for _, item := range s.listings {
		if item.Expired(now) || item.State == entities.StateConcluded {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Expiration().Before(items[j].Expiration())
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) GetSettings(_ context.Context) (entities.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settings, nil
}

func (s *Store) PutSettings(_ context.Context, settings entities.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
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
		return domainerrors.ErrInvalidSale
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

var _ ports.ListingRepository = (*Store)(nil)
var _ ports.SettingsRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
