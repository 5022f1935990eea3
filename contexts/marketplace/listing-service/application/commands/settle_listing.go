package commands

import (
	"context"

	"gavel/contexts/marketplace/listing-service/domain/entities"
	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	"gavel/contexts/marketplace/listing-service/domain/services"
	"gavel/contexts/marketplace/listing-service/ports"
)

type SettleListingCommand struct {
	AssetContract string
	TokenID       uint64
	Memo          string
}

// SettleListingUseCase concludes an auction and distributes its proceeds in
// one step. A Dutch auction settles once its standing bid meets the current
// price (or the auction has expired); an English auction settles only after
// expiry, and only when the standing bid clears the reserve.
type SettleListingUseCase struct {
	Settings ports.SettingsRepository
	Clock    ports.Clock
	Engine   SettlementEngine
}

func (uc SettleListingUseCase) Execute(ctx context.Context, cmd SettleListingCommand) error {
	listing, err := uc.Engine.Listings.GetListing(ctx, cmd.AssetContract, cmd.TokenID)
	if err != nil {
		if isUnknownListing(err) {
			return domainerrors.ErrInvalidAuction
		}
		return err
	}
	if !listing.IsAuction() {
		return domainerrors.ErrInvalidAuction
	}

	settings, err := uc.Settings.GetSettings(ctx)
	if err != nil {
		return err
	}
	now := uc.Clock.Now().UTC()
	expired := listing.Expired(now)

	switch listing.Mode {
	case entities.ModeDutchAuction:
		if !listing.HasBid() {
			if !expired {
				return domainerrors.ErrAuctionInProgress
			}
			return uc.Engine.concludeWithoutWinner(ctx, listing, cmd.Memo, now)
		}
		// A standing bid always clears the floor, so expiry alone also
		// settles it. The winner pays the full bid, not the decayed price.
		if !expired && services.CurrentPrice(listing, now, settings.PricingPeriod) > listing.BidAmount {
			return domainerrors.ErrAuctionInProgress
		}
		return uc.Engine.concludeWithWinner(ctx, listing, settings, listing.BidAmount, cmd.Memo, now)

	case entities.ModeEnglishAuction:
		if !expired {
			return domainerrors.ErrAuctionInProgress
		}
		if !listing.HasBid() || !listing.MeetsReserve() {
			return uc.Engine.concludeWithoutWinner(ctx, listing, cmd.Memo, now)
		}
		return uc.Engine.concludeWithWinner(ctx, listing, settings, listing.BidAmount, cmd.Memo, now)

	default:
		return domainerrors.ErrInvalidAuction
	}
}
