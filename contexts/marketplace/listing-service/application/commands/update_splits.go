package commands

import (
	"context"
	"log/slog"

	application "gavel/contexts/marketplace/listing-service/application"
	"gavel/contexts/marketplace/listing-service/domain/entities"
	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	"gavel/contexts/marketplace/listing-service/ports"
)

type UpdateSplitsCommand struct {
	AssetContract string
	TokenID       uint64
	Caller        string
	Splits        []entities.Split
}

// UpdateSplitsUseCase replaces the payout splits of a live listing. Only the
// seller may do this, and only while the listing has not concluded.
type UpdateSplitsUseCase struct {
	Listings ports.ListingRepository
	Logger   *slog.Logger
}

func (uc UpdateSplitsUseCase) Execute(ctx context.Context, cmd UpdateSplitsCommand) error {
	listing, err := uc.Listings.GetListing(ctx, cmd.AssetContract, cmd.TokenID)
	if err != nil {
		return err
	}
	if listing.Seller != cmd.Caller {
		return domainerrors.ErrNotAuthorized
	}
	if listing.State != entities.StateActive {
		return unknownError(listing.IsAuction())
	}
	if !entities.ValidateSplits(cmd.Splits) {
		return domainerrors.ErrInvalidSplits
	}

	listing.Splits = cmd.Splits
	if err := uc.Listings.UpdateListing(ctx, listing); err != nil {
		return err
	}

	application.ResolveLogger(uc.Logger).Info("listing splits updated",
		"event", "listing_splits_updated",
		"module", "marketplace/listing-service",
		"layer", "application",
		"listing_key", listing.Key(),
		"split_count", len(cmd.Splits),
	)
	return nil
}
