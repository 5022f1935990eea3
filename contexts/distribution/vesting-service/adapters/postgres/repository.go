package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gavel/contexts/distribution/vesting-service/domain/entities"
	domainerrors "gavel/contexts/distribution/vesting-service/domain/errors"
	"gavel/contexts/distribution/vesting-service/ports"

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

func (r *Repository) CreatePlan(ctx context.Context, plan entities.Plan) error {
	row := planModelFromEntity(plan)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateConfiguration
		}
		return err
	}
	return nil
}

func (r *Repository) GetPlan(ctx context.Context, planID string) (entities.Plan, error) {
	var row planModel
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", strings.TrimSpace(planID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Plan{}, domainerrors.ErrInvalidPlan
		}
		return entities.Plan{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdatePlan(ctx context.Context, plan entities.Plan) error {
	result := r.db.WithContext(ctx).
		Model(&planModel{}).
		Where("plan_id = ?", plan.PlanID).
		Updates(map[string]any{
			"released": plan.Released,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidPlan
	}
	return nil
}

func (r *Repository) DeletePlan(ctx context.Context, planID string) error {
	result := r.db.WithContext(ctx).
		Where("plan_id = ?", strings.TrimSpace(planID)).
		Delete(&planModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidPlan
	}
	return nil
}

func (r *Repository) ListPlans(ctx context.Context, limit int) ([]entities.Plan, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []planModel
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.Plan, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
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
		return domainerrors.ErrInvalidPlan
	}
	return nil
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

func (r *Repository) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type planModel struct {
	PlanID        string    `gorm:"column:plan_id;primaryKey"`
	Recipient     string    `gorm:"column:recipient"`
	Sponsor       string    `gorm:"column:sponsor"`
	Token         string    `gorm:"column:token"`
	PeriodicGrant uint64    `gorm:"column:periodic_grant"`
	Cliff         time.Time `gorm:"column:cliff"`
	PeriodSec     int64     `gorm:"column:period_seconds"`
	Periods       uint64    `gorm:"column:periods"`
	Released      uint64    `gorm:"column:released"`
	Memo          string    `gorm:"column:memo"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (planModel) TableName() string {
	return "vesting_plans"
}

func planModelFromEntity(item entities.Plan) planModel {
	return planModel{
		PlanID:        item.PlanID,
		Recipient:     strings.TrimSpace(item.Recipient),
		Sponsor:       strings.TrimSpace(item.Sponsor),
		Token:         strings.TrimSpace(item.Token),
		PeriodicGrant: item.PeriodicGrant,
		Cliff:         item.Cliff.UTC(),
		PeriodSec:     int64(item.PeriodDuration / time.Second),
		Periods:       item.Periods,
		Released:      item.Released,
		Memo:          item.Memo,
		CreatedAt:     item.CreatedAt.UTC(),
	}
}

func (m planModel) toEntity() entities.Plan {
	return entities.Plan{
		PlanID:         m.PlanID,
		Recipient:      m.Recipient,
		Sponsor:        m.Sponsor,
		Token:          m.Token,
		PeriodicGrant:  m.PeriodicGrant,
		Cliff:          m.Cliff.UTC(),
		PeriodDuration: time.Duration(m.PeriodSec) * time.Second,
		Periods:        m.Periods,
		Released:       m.Released,
		Memo:           m.Memo,
		CreatedAt:      m.CreatedAt.UTC(),
	}
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
	return "vesting_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.PlanRepository = (*Repository)(nil)
var _ ports.Clock = (*Repository)(nil)
var _ ports.IDGenerator = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
