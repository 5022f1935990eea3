package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "gavel/contexts/marketplace/listing-service/application"
	"gavel/contexts/marketplace/listing-service/application/commands"
	"gavel/contexts/marketplace/listing-service/domain/entities"
	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	"gavel/contexts/marketplace/listing-service/ports"
)

// ExpirySettlerJob sweeps expired listings and settles each one: auctions
// conclude and distribute, fixed-price sales release an accepted offer or
// return an unsold asset. Settlement is idempotent per listing because a
// settled listing is deleted, so a crashed sweep simply reprocesses the
// remainder on the next cycle.
type ExpirySettlerJob struct {
	Listings   ports.ListingRepository
	Settle     commands.SettleListingUseCase
	Distribute commands.DistributeProceedsUseCase
	Clock      ports.Clock
	BatchSize  int
	Disabled   bool
	Logger     *slog.Logger
}

func (j ExpirySettlerJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	if j.Disabled {
		logger.Info("listing expiry settler disabled by feature flag",
			"event", "listing_expiry_settler_disabled",
			"module", "marketplace/listing-service",
			"layer", "worker",
		)
		return nil
	}
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}
	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}

	expired, err := j.Listings.ListExpiredListings(ctx, now, limit)
	if err != nil {
		logger.Error("listing expiry list failed",
			"event", "listing_expiry_list_failed",
			"module", "marketplace/listing-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	settled := 0
	for _, listing := range expired {
		var settleErr error
		if listing.IsAuction() {
			settleErr = j.Settle.Execute(ctx, commands.SettleListingCommand{
				AssetContract: listing.AssetContract,
				TokenID:       listing.TokenID,
				Memo:          "expiry sweep",
			})
		} else {
			settleErr = j.Distribute.Execute(ctx, commands.DistributeProceedsCommand{
				AssetContract: listing.AssetContract,
				TokenID:       listing.TokenID,
				Memo:          "expiry sweep",
			})
		}
		if settleErr != nil {
			// Another settler may have won the race; a vanished listing
			// is not a failure of this sweep.
			if errors.Is(settleErr, domainerrors.ErrInvalidSale) || errors.Is(settleErr, domainerrors.ErrInvalidAuction) {
				continue
			}
			logger.Error("listing expiry settle failed",
				"event", "listing_expiry_settle_failed",
				"module", "marketplace/listing-service",
				"layer", "worker",
				"listing_key", entities.ListingKey(listing.AssetContract, listing.TokenID),
				"error", settleErr.Error(),
			)
			return settleErr
		}
		settled++
	}

	if settled > 0 {
		logger.Info("listing expiry sweep completed",
			"event", "listing_expiry_sweep_completed",
			"module", "marketplace/listing-service",
			"layer", "worker",
			"settled_count", settled,
		)
	}
	return nil
}
