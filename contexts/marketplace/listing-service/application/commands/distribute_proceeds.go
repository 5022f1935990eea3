package commands

import (
	"context"

	"gavel/contexts/marketplace/listing-service/domain/entities"
	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	"gavel/contexts/marketplace/listing-service/ports"
)

type DistributeProceedsCommand struct {
	AssetContract string
	TokenID       uint64
	Memo          string
}

// DistributeProceedsUseCase completes a fixed-price sale. An accepted offer
// pays out fee, splits and seller remainder and hands over the asset; an
// expired sale that never found a buyer returns the asset to the seller.
type DistributeProceedsUseCase struct {
	Settings ports.SettingsRepository
	Clock    ports.Clock
	Engine   SettlementEngine
}

func (uc DistributeProceedsUseCase) Execute(ctx context.Context, cmd DistributeProceedsCommand) error {
	listing, err := uc.Engine.Listings.GetListing(ctx, cmd.AssetContract, cmd.TokenID)
	if err != nil {
		if isUnknownListing(err) {
			return domainerrors.ErrInvalidSale
		}
		return err
	}
	if listing.Mode != entities.ModeFixedPrice {
		return domainerrors.ErrInvalidSale
	}

	now := uc.Clock.Now().UTC()
	if listing.State != entities.StateConcluded {
		if !listing.Expired(now) {
			return domainerrors.ErrSaleInProgress
		}
		return uc.Engine.concludeWithoutWinner(ctx, listing, cmd.Memo, now)
	}

	settings, err := uc.Settings.GetSettings(ctx)
	if err != nil {
		return err
	}
	return uc.Engine.concludeWithWinner(ctx, listing, settings, listing.BidAmount, cmd.Memo, now)
}
