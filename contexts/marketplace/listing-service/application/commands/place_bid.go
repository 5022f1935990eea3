package commands

import (
	"context"
	"log/slog"
	"strings"

	application "gavel/contexts/marketplace/listing-service/application"
	"gavel/contexts/marketplace/listing-service/domain/entities"
	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	"gavel/contexts/marketplace/listing-service/ports"
	"gavel/internal/shared/ppb"
)

type PlaceBidCommand struct {
	Bidder        string
	AssetContract string
	TokenID       uint64
	Amount        uint64
	Memo          string
}

type PlaceBidUseCase struct {
	Listings ports.ListingRepository
	Settings ports.SettingsRepository
	Ledger   ports.Ledger
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

type PlaceBidResult struct {
	Listing entities.Listing
}

// Execute records a competitive bid on a dutch or english listing. Accepted
// bids beat the standing one by the configured minimum increment; the outbid
// party is refunded as the final step, after listing state is committed.
func (uc PlaceBidUseCase) Execute(ctx context.Context, cmd PlaceBidCommand) (PlaceBidResult, error) {
	bidder := strings.TrimSpace(cmd.Bidder)
	if bidder == "" {
		return PlaceBidResult{}, domainerrors.ErrInvalidBid
	}

	listing, err := uc.Listings.GetListing(ctx, strings.TrimSpace(cmd.AssetContract), cmd.TokenID)
	if err != nil {
		if isUnknownListing(err) {
			return PlaceBidResult{}, domainerrors.ErrInvalidAuction
		}
		return PlaceBidResult{}, err
	}
	if !listing.IsAuction() || listing.State != entities.StateActive {
		return PlaceBidResult{}, domainerrors.ErrInvalidAuction
	}

	now := uc.Clock.Now().UTC()
	if listing.Expired(now) {
		return PlaceBidResult{}, domainerrors.ErrAuctionEnded
	}

	settings, err := uc.Settings.GetSettings(ctx)
	if err != nil {
		return PlaceBidResult{}, err
	}
	if !uc.acceptable(listing, settings, cmd.Amount) {
		return PlaceBidResult{}, domainerrors.ErrInvalidBid
	}

	if err := uc.Ledger.Transfer(ctx, ports.NativeToken, bidder, ports.EscrowAccount, cmd.Amount); err != nil {
		return PlaceBidResult{}, err
	}

	previousBidder := listing.Bidder
	previousAmount := listing.BidAmount
	listing.Bidder = bidder
	listing.BidAmount = cmd.Amount
	if err := uc.Listings.UpdateListing(ctx, listing); err != nil {
		return PlaceBidResult{}, err
	}

	if previousBidder != "" && previousAmount > 0 {
		if err := uc.Ledger.Transfer(ctx, ports.NativeToken, ports.EscrowAccount, previousBidder, previousAmount); err != nil {
			return PlaceBidResult{}, err
		}
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return PlaceBidResult{}, err
		}
		envelope, err := newListingEnvelope(eventID, EventPlaceBid, listing.Key(), now, map[string]any{
			"bidder":   bidder,
			"asset":    listing.AssetContract,
			"token_id": listing.TokenID,
			"amount":   cmd.Amount,
			"memo":     cmd.Memo,
		})
		if err != nil {
			return PlaceBidResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return PlaceBidResult{}, err
		}
	}

	application.ResolveLogger(uc.Logger).Info("bid placed",
		"event", "bid_placed",
		"module", "marketplace/listing-service",
		"layer", "application",
		"listing_key", listing.Key(),
		"bidder", bidder,
		"amount", cmd.Amount,
	)
	return PlaceBidResult{Listing: listing}, nil
}

func (uc PlaceBidUseCase) acceptable(listing entities.Listing, settings entities.Settings, amount uint64) bool {
	floor := listing.EndPrice
	if listing.Mode == entities.ModeEnglishAuction {
		floor = listing.BasePrice
	}
	if amount < floor {
		return false
	}
	if !listing.HasBid() {
		return true
	}
	// With no configured increment a bid must strictly exceed the standing
	// one; with an increment, meeting the raised bar exactly is enough.
	if settings.MinBidIncrementPPB == 0 {
		return amount > listing.BidAmount
	}
	return amount >= listing.BidAmount+ppb.Share(listing.BidAmount, settings.MinBidIncrementPPB)
}
