package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gavel/contexts/marketplace/listing-service/domain/entities"
	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	"gavel/contexts/marketplace/listing-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	settingsRowID = 1
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

func (r *Repository) CreateListing(ctx context.Context, listing entities.Listing) error {
	row, err := listingModelFromEntity(listing)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			if listing.IsAuction() {
				return domainerrors.ErrAuctionExists
			}
			return domainerrors.ErrSaleExists
		}
		return err
	}
	return nil
}

func (r *Repository) GetListing(ctx context.Context, assetContract string, tokenID uint64) (entities.Listing, error) {
	var row listingModel
	err := r.db.WithContext(ctx).
		Where("listing_key = ?", entities.ListingKey(strings.TrimSpace(assetContract), tokenID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Listing{}, domainerrors.ErrInvalidSale
		}
		return entities.Listing{}, err
	}
	return row.toEntity()
}

func (r *Repository) UpdateListing(ctx context.Context, listing entities.Listing) error {
	row, err := listingModelFromEntity(listing)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&listingModel{}).
		Where("listing_key = ?", row.ListingKey).
		Updates(map[string]any{
			"bidder":     row.Bidder,
			"bid_amount": row.BidAmount,
			"state":      row.State,
			"splits":     row.Splits,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidSale
	}
	return nil
}

func (r *Repository) DeleteListing(ctx context.Context, assetContract string, tokenID uint64) error {
	result := r.db.WithContext(ctx).
		Where("listing_key = ?", entities.ListingKey(strings.TrimSpace(assetContract), tokenID)).
		Delete(&listingModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidSale
	}
	return nil
}

func (r *Repository) ListExpiredListings(ctx context.Context, now time.Time, limit int) ([]entities.Listing, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []listingModel
	err := r.db.WithContext(ctx).
		Where("expires_at <= ? OR state = ?", now.UTC(), string(entities.StateConcluded)).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.Listing, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) GetSettings(ctx context.Context) (entities.Settings, error) {
	var row settingsModel
	err := r.db.WithContext(ctx).
		Where("id = ?", settingsRowID).
		First(&row).
		Error
	if err != nil {
		return entities.Settings{}, err
	}
	return row.toEntity()
}

func (r *Repository) PutSettings(ctx context.Context, settings entities.Settings) error {
	row, err := settingsModelFromEntity(settings)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
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
		return domainerrors.ErrInvalidSale
	}
	return nil
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

func (r *Repository) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type listingModel struct {
	ListingKey    string    `gorm:"column:listing_key;primaryKey"`
	AssetContract string    `gorm:"column:asset_contract"`
	TokenID       uint64    `gorm:"column:token_id"`
	Seller        string    `gorm:"column:seller"`
	Mode          string    `gorm:"column:mode"`
	Price         uint64    `gorm:"column:price"`
	StartPrice    uint64    `gorm:"column:start_price"`
	EndPrice      uint64    `gorm:"column:end_price"`
	BasePrice     uint64    `gorm:"column:base_price"`
	ReservePrice  uint64    `gorm:"column:reserve_price"`
	StartTime     time.Time `gorm:"column:start_time"`
	DurationSec   int64     `gorm:"column:duration_seconds"`
	ExpiresAt     time.Time `gorm:"column:expires_at"`
	Splits        []byte    `gorm:"column:splits"`
	Bidder        string    `gorm:"column:bidder"`
	BidAmount     uint64    `gorm:"column:bid_amount"`
	State         string    `gorm:"column:state"`
	Memo          string    `gorm:"column:memo"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (listingModel) TableName() string {
	return "listings"
}

func listingModelFromEntity(item entities.Listing) (listingModel, error) {
	splits, err := json.Marshal(item.Splits)
	if err != nil {
		return listingModel{}, err
	}
	return listingModel{
		ListingKey:    item.Key(),
		AssetContract: strings.TrimSpace(item.AssetContract),
		TokenID:       item.TokenID,
		Seller:        strings.TrimSpace(item.Seller),
		Mode:          string(item.Mode),
		Price:         item.Price,
		StartPrice:    item.StartPrice,
		EndPrice:      item.EndPrice,
		BasePrice:     item.BasePrice,
		ReservePrice:  item.ReservePrice,
		StartTime:     item.StartTime.UTC(),
		DurationSec:   int64(item.Duration / time.Second),
		ExpiresAt:     item.Expiration().UTC(),
		Splits:        splits,
		Bidder:        strings.TrimSpace(item.Bidder),
		BidAmount:     item.BidAmount,
		State:         string(item.State),
		Memo:          item.Memo,
		CreatedAt:     item.CreatedAt.UTC(),
	}, nil
}

func (m listingModel) toEntity() (entities.Listing, error) {
	var splits []entities.Split
	if len(m.Splits) > 0 {
		if err := json.Unmarshal(m.Splits, &splits); err != nil {
			return entities.Listing{}, err
		}
	}
	return entities.Listing{
		AssetContract: m.AssetContract,
		TokenID:       m.TokenID,
		Seller:        m.Seller,
		Mode:          entities.SaleMode(m.Mode),
		Price:         m.Price,
		StartPrice:    m.StartPrice,
		EndPrice:      m.EndPrice,
		BasePrice:     m.BasePrice,
		ReservePrice:  m.ReservePrice,
		StartTime:     m.StartTime.UTC(),
		Duration:      time.Duration(m.DurationSec) * time.Second,
		Splits:        splits,
		Bidder:        m.Bidder,
		BidAmount:     m.BidAmount,
		State:         entities.ListingState(m.State),
		Memo:          m.Memo,
		CreatedAt:     m.CreatedAt.UTC(),
	}, nil
}

type settingsModel struct {
	ID                  int       `gorm:"column:id;primaryKey"`
	Owner               string    `gorm:"column:owner"`
	ProjectID           uint64    `gorm:"column:project_id"`
	FeeReceiverTerminal string    `gorm:"column:fee_receiver_terminal"`
	FeeRatePPB          uint64    `gorm:"column:fee_rate_ppb"`
	AllowPublicSales    bool      `gorm:"column:allow_public_sales"`
	AllowPublicAuctions bool      `gorm:"column:allow_public_auctions"`
	PricingPeriodSec    int64     `gorm:"column:pricing_period_seconds"`
	MinBidIncrementPPB  uint64    `gorm:"column:min_bid_increment_ppb"`
	AuthorizedSellers   []byte    `gorm:"column:authorized_sellers"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (settingsModel) TableName() string {
	return "marketplace_settings"
}

func settingsModelFromEntity(item entities.Settings) (settingsModel, error) {
	sellers, err := json.Marshal(item.AuthorizedSellers)
	if err != nil {
		return settingsModel{}, err
	}
	return settingsModel{
		ID:                  settingsRowID,
		Owner:               strings.TrimSpace(item.Owner),
		ProjectID:           item.ProjectID,
		FeeReceiverTerminal: strings.TrimSpace(item.FeeReceiverTerminal),
		FeeRatePPB:          item.FeeRatePPB,
		AllowPublicSales:    item.AllowPublicSales,
		AllowPublicAuctions: item.AllowPublicAuctions,
		PricingPeriodSec:    int64(item.PricingPeriod / time.Second),
		MinBidIncrementPPB:  item.MinBidIncrementPPB,
		AuthorizedSellers:   sellers,
		UpdatedAt:           item.UpdatedAt.UTC(),
	}, nil
}

func (m settingsModel) toEntity() (entities.Settings, error) {
	sellers := map[string]bool{}
	if len(m.AuthorizedSellers) > 0 {
		if err := json.Unmarshal(m.AuthorizedSellers, &sellers); err != nil {
			return entities.Settings{}, err
		}
	}
	return entities.Settings{
		Owner:               m.Owner,
		ProjectID:           m.ProjectID,
		FeeReceiverTerminal: m.FeeReceiverTerminal,
		FeeRatePPB:          m.FeeRatePPB,
		AllowPublicSales:    m.AllowPublicSales,
		AllowPublicAuctions: m.AllowPublicAuctions,
		PricingPeriod:       time.Duration(m.PricingPeriodSec) * time.Second,
		MinBidIncrementPPB:  m.MinBidIncrementPPB,
		AuthorizedSellers:   sellers,
		UpdatedAt:           m.UpdatedAt.UTC(),
	}, nil
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
	return "listing_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ListingRepository = (*Repository)(nil)
var _ ports.SettingsRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.Clock = (*Repository)(nil)
var _ ports.IDGenerator = (*Repository)(nil)
