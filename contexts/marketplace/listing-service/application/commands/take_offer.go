package commands

import (
	"context"
	"log/slog"
	"strings"

	application "gavel/contexts/marketplace/listing-service/application"
	"gavel/contexts/marketplace/listing-service/domain/entities"
	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	"gavel/contexts/marketplace/listing-service/ports"
)

type TakeOfferCommand struct {
	Buyer         string
	AssetContract string
	TokenID       uint64
	Payment       uint64
	Memo          string
}

type TakeOfferUseCase struct {
	Listings ports.ListingRepository
	Ledger   ports.Ledger
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

type TakeOfferResult struct {
	Listing entities.Listing
}

// Execute accepts a fixed-price offer. The exact asking price must be paid
// while the window is open; the sale concludes immediately and waits for
// DistributeProceeds to release asset and funds.
func (uc TakeOfferUseCase) Execute(ctx context.Context, cmd TakeOfferCommand) (TakeOfferResult, error) {
	buyer := strings.TrimSpace(cmd.Buyer)
	if buyer == "" {
		return TakeOfferResult{}, domainerrors.ErrInvalidSale
	}

	listing, err := uc.Listings.GetListing(ctx, strings.TrimSpace(cmd.AssetContract), cmd.TokenID)
	if err != nil {
		if isUnknownListing(err) {
			return TakeOfferResult{}, domainerrors.ErrInvalidSale
		}
		return TakeOfferResult{}, err
	}
	if listing.Mode != entities.ModeFixedPrice || listing.State != entities.StateActive {
		return TakeOfferResult{}, domainerrors.ErrInvalidSale
	}

	now := uc.Clock.Now().UTC()
	if listing.Expired(now) {
		return TakeOfferResult{}, domainerrors.ErrSaleEnded
	}
	if cmd.Payment != listing.Price {
		return TakeOfferResult{}, domainerrors.ErrInvalidPrice
	}

	if err := uc.Ledger.Transfer(ctx, ports.NativeToken, buyer, ports.EscrowAccount, cmd.Payment); err != nil {
		return TakeOfferResult{}, err
	}

	listing.Bidder = buyer
	listing.BidAmount = cmd.Payment
	listing.State = entities.StateConcluded
	if err := uc.Listings.UpdateListing(ctx, listing); err != nil {
		return TakeOfferResult{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return TakeOfferResult{}, err
		}
		envelope, err := newListingEnvelope(eventID, EventConcludeFixedPriceSale, listing.Key(), now, map[string]any{
			"seller":   listing.Seller,
			"buyer":    buyer,
			"asset":    listing.AssetContract,
			"token_id": listing.TokenID,
			"price":    listing.Price,
			"memo":     cmd.Memo,
		})
		if err != nil {
			return TakeOfferResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return TakeOfferResult{}, err
		}
	}

	application.ResolveLogger(uc.Logger).Info("fixed price sale concluded",
		"event", "sale_concluded",
		"module", "marketplace/listing-service",
		"layer", "application",
		"listing_key", listing.Key(),
		"buyer", buyer,
		"price", listing.Price,
	)
	return TakeOfferResult{Listing: listing}, nil
}
