package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "gavel/contexts/marketplace/listing-service/application"
	"gavel/contexts/marketplace/listing-service/domain/entities"
	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	"gavel/contexts/marketplace/listing-service/ports"
)

type CreateListingCommand struct {
	Seller        string
	AssetContract string
	TokenID       uint64
	Mode          entities.SaleMode

	Price        uint64
	StartPrice   uint64
	EndPrice     uint64
	BasePrice    uint64
	ReservePrice uint64

	Duration time.Duration
	Splits   []entities.Split
	Memo     string
}

type CreateListingUseCase struct {
	Listings ports.ListingRepository
	Settings ports.SettingsRepository
	Assets   ports.AssetRegistry
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

type CreateListingResult struct {
	Listing entities.Listing
}

// Execute escrows the asset and records an active listing. The (contract,
// tokenID) pair is the natural idempotency key: a live listing for the same
// asset rejects with SALE_EXISTS/AUCTION_EXISTS.
func (uc CreateListingUseCase) Execute(ctx context.Context, cmd CreateListingCommand) (CreateListingResult, error) {
	seller := strings.TrimSpace(cmd.Seller)
	assetContract := strings.TrimSpace(cmd.AssetContract)
	if seller == "" || assetContract == "" {
		return CreateListingResult{}, domainerrors.ErrNotAuthorized
	}

	settings, err := uc.Settings.GetSettings(ctx)
	if err != nil {
		return CreateListingResult{}, err
	}

	now := uc.Clock.Now().UTC()
	listing := entities.Listing{
		AssetContract: assetContract,
		TokenID:       cmd.TokenID,
		Seller:        seller,
		Mode:          cmd.Mode,
		Price:         cmd.Price,
		StartPrice:    cmd.StartPrice,
		EndPrice:      cmd.EndPrice,
		BasePrice:     cmd.BasePrice,
		ReservePrice:  cmd.ReservePrice,
		StartTime:     now,
		Duration:      cmd.Duration,
		Splits:        append([]entities.Split(nil), cmd.Splits...),
		State:         entities.StateActive,
		Memo:          cmd.Memo,
		CreatedAt:     now,
	}

	if !settings.SellerAuthorized(seller, listing.IsAuction()) {
		return CreateListingResult{}, domainerrors.ErrNotAuthorized
	}
	if !listing.ValidatePriceTerms() {
		return CreateListingResult{}, domainerrors.ErrInvalidPrice
	}
	if !entities.ValidDuration(cmd.Duration) {
		return CreateListingResult{}, domainerrors.ErrInvalidDuration
	}
	if !entities.ValidateSplits(listing.Splits) {
		return CreateListingResult{}, domainerrors.ErrInvalidSplits
	}

	if _, err := uc.Listings.GetListing(ctx, assetContract, cmd.TokenID); err == nil {
		return CreateListingResult{}, existsError(listing.Mode)
	} else if !isUnknownListing(err) {
		return CreateListingResult{}, err
	}

	owner, err := uc.Assets.OwnerOf(ctx, assetContract, cmd.TokenID)
	if err != nil {
		return CreateListingResult{}, err
	}
	if owner != seller {
		return CreateListingResult{}, domainerrors.ErrNotAuthorized
	}
	approved, err := uc.Assets.IsApproved(ctx, assetContract, seller, ports.EscrowAccount, cmd.TokenID)
	if err != nil {
		return CreateListingResult{}, err
	}
	if !approved {
		return CreateListingResult{}, domainerrors.ErrNotAuthorized
	}

	if err := uc.Listings.CreateListing(ctx, listing); err != nil {
		return CreateListingResult{}, err
	}

	// Asset custody moves last; a transfer failure aborts the transaction
	// and the repository write above is rolled back by the adapter.
	if err := uc.Assets.TransferFrom(ctx, assetContract, seller, ports.EscrowAccount, cmd.TokenID); err != nil {
		_ = uc.Listings.DeleteListing(ctx, assetContract, cmd.TokenID)
		return CreateListingResult{}, err
	}

	if err := uc.appendCreatedOutbox(ctx, listing, now); err != nil {
		return CreateListingResult{}, err
	}

	application.ResolveLogger(uc.Logger).Info("listing created",
		"event", "listing_created",
		"module", "marketplace/listing-service",
		"layer", "application",
		"listing_key", listing.Key(),
		"seller", seller,
		"mode", string(listing.Mode),
	)
	return CreateListingResult{Listing: listing}, nil
}

func (uc CreateListingUseCase) appendCreatedOutbox(ctx context.Context, listing entities.Listing, now time.Time) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}

	var eventType string
	payload := map[string]any{
		"seller":   listing.Seller,
		"asset":    listing.AssetContract,
		"token_id": listing.TokenID,
		"memo":     listing.Memo,
	}
	switch listing.Mode {
	case entities.ModeFixedPrice:
		eventType = EventCreateFixedPriceSale
		payload["price"] = listing.Price
		payload["expiration"] = listing.Expiration().Unix()
	case entities.ModeDutchAuction:
		eventType = EventCreateDutchAuction
		payload["starting_price"] = listing.StartPrice
	case entities.ModeEnglishAuction:
		eventType = EventCreateEnglishAuction
		payload["starting_price"] = listing.BasePrice
	}

	envelope, err := newListingEnvelope(eventID, eventType, listing.Key(), now, payload)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func existsError(mode entities.SaleMode) error {
	if mode == entities.ModeFixedPrice {
		return domainerrors.ErrSaleExists
	}
	return domainerrors.ErrAuctionExists
}

func isUnknownListing(err error) bool {
	return errors.Is(err, domainerrors.ErrInvalidSale) || errors.Is(err, domainerrors.ErrInvalidAuction)
}

// unknownError maps a missing listing to the mode-appropriate sentinel when
// the caller knows which surface it came through.
func unknownError(auction bool) error {
	if auction {
		return domainerrors.ErrInvalidAuction
	}
	return domainerrors.ErrInvalidSale
}
