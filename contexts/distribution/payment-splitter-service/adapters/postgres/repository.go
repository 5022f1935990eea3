package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gavel/contexts/distribution/payment-splitter-service/domain/entities"
	domainerrors "gavel/contexts/distribution/payment-splitter-service/domain/errors"
	"gavel/contexts/distribution/payment-splitter-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateSplitter(ctx context.Context, splitter entities.Splitter) error {
	row, err := splitterModelFromEntity(splitter)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrSplitterExists
		}
		return err
	}
	return nil
}

func (r *Repository) GetSplitter(ctx context.Context, name string) (entities.Splitter, error) {
	var row splitterModel
	err := r.db.WithContext(ctx).
		Where("name = ?", strings.TrimSpace(name)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Splitter{}, domainerrors.ErrUnknownSplitter
		}
		return entities.Splitter{}, err
	}
	return row.toEntity()
}

func (r *Repository) UpdateSplitter(ctx context.Context, splitter entities.Splitter) error {
	row, err := splitterModelFromEntity(splitter)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&splitterModel{}).
		Where("name = ?", row.Name).
		Updates(map[string]any{
			"payees":         row.Payees,
			"released":       row.Released,
			"total_released": row.TotalReleased,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUnknownSplitter
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
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

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUnknownSplitter
	}
	return nil
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

func (r *Repository) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type splitterModel struct {
	Name          string    `gorm:"column:name;primaryKey"`
	Owner         string    `gorm:"column:owner"`
	Payees        []byte    `gorm:"column:payees"`
	Released      []byte    `gorm:"column:released"`
	TotalReleased []byte    `gorm:"column:total_released"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (splitterModel) TableName() string {
	return "payment_splitters"
}

type payeeRecord struct {
	Address    string `json:"address,omitempty"`
	ProjectID  uint64 `json:"project_id,omitempty"`
	ShareUnits uint64 `json:"share_units"`
}

func splitterModelFromEntity(item entities.Splitter) (splitterModel, error) {
	payees := make([]payeeRecord, 0, len(item.Payees))
	for _, payee := range item.Payees {
		payees = append(payees, payeeRecord{
			Address:    payee.Address,
			ProjectID:  payee.ProjectID,
			ShareUnits: payee.ShareUnits,
		})
	}
	payeesJSON, err := json.Marshal(payees)
	if err != nil {
		return splitterModel{}, err
	}
	releasedJSON, err := json.Marshal(item.Released)
	if err != nil {
		return splitterModel{}, err
	}
	totalJSON, err := json.Marshal(item.TotalReleased)
	if err != nil {
		return splitterModel{}, err
	}
	return splitterModel{
		Name:          strings.TrimSpace(item.Name),
		Owner:         strings.TrimSpace(item.Owner),
		Payees:        payeesJSON,
		Released:      releasedJSON,
		TotalReleased: totalJSON,
		CreatedAt:     item.CreatedAt.UTC(),
	}, nil
}

func (m splitterModel) toEntity() (entities.Splitter, error) {
	var payees []payeeRecord
	if len(m.Payees) > 0 {
		if err := json.Unmarshal(m.Payees, &payees); err != nil {
			return entities.Splitter{}, err
		}
	}
	released := map[string]map[string]uint64{}
	if len(m.Released) > 0 {
		if err := json.Unmarshal(m.Released, &released); err != nil {
			return entities.Splitter{}, err
		}
	}
	totalReleased := map[string]uint64{}
	if len(m.TotalReleased) > 0 {
		if err := json.Unmarshal(m.TotalReleased, &totalReleased); err != nil {
			return entities.Splitter{}, err
		}
	}
	item := entities.Splitter{
		Name:          m.Name,
		Owner:         m.Owner,
		Payees:        make([]entities.Payee, 0, len(payees)),
		Released:      released,
		TotalReleased: totalReleased,
		CreatedAt:     m.CreatedAt.UTC(),
	}
	for _, payee := range payees {
		item.Payees = append(item.Payees, entities.Payee{
			Address:    payee.Address,
			ProjectID:  payee.ProjectID,
			ShareUnits: payee.ShareUnits,
		})
	}
	return item, nil
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "splitter_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.SplitterRepository = (*Repository)(nil)
var _ ports.Clock = (*Repository)(nil)
var _ ports.IDGenerator = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
