package commands

import (
	"context"
	"log/slog"
	"time"

	application "gavel/contexts/marketplace/listing-service/application"
	"gavel/contexts/marketplace/listing-service/domain/entities"
	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	"gavel/contexts/marketplace/listing-service/ports"
	"gavel/internal/shared/ppb"
)

// SettlementEngine performs the exactly-once release of an escrowed asset and
// its proceeds. Both the auction Settle command and the fixed-price
// DistributeProceeds command run through it.
//
// Ordering is checks-effects-interactions: the payout plan is computed and
// validated first, the listing is deleted second (making repeat settlement
// observably impossible), and only then do funds and the asset move.
type SettlementEngine struct {
	Listings   ports.ListingRepository
	Assets     ports.AssetRegistry
	Ledger     ports.Ledger
	Directory  ports.Directory
	Terminals  ports.TerminalGateway
	Allocators ports.Allocator
	Outbox     ports.OutboxWriter
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

type payout struct {
	split  entities.Split
	amount uint64
}

// concludeWithWinner distributes fee + splits + seller remainder and hands
// the asset to the winner.
func (e SettlementEngine) concludeWithWinner(ctx context.Context, listing entities.Listing, settings entities.Settings, price uint64, memo string, now time.Time) error {
	fee := ppb.Share(price, settings.FeeRatePPB)
	remainder := price - fee

	payouts := make([]payout, 0, len(listing.Splits))
	var distributed uint64
	for _, split := range listing.Splits {
		amount := ppb.Share(remainder, split.PercentPPB)
		if amount == 0 {
			continue
		}
		if split.ProjectID != 0 {
			terminalID, err := e.Directory.PrimaryTerminalOf(ctx, split.ProjectID, ports.NativeToken)
			if err != nil {
				return err
			}
			if terminalID == "" {
				return domainerrors.ErrPaymentFailure
			}
		}
		payouts = append(payouts, payout{split: split, amount: amount})
		distributed += amount
	}
	// Truncation loss and any unassigned percentage accrue to the seller.
	sellerShare := remainder - distributed

	if err := e.Listings.DeleteListing(ctx, listing.AssetContract, listing.TokenID); err != nil {
		return err
	}

	if fee > 0 {
		if err := e.Terminals.AddToBalance(ctx, settings.FeeReceiverTerminal, settings.ProjectID, ports.NativeToken, ports.EscrowAccount, fee, memo); err != nil {
			return err
		}
	}
	for _, item := range payouts {
		if err := e.payOut(ctx, item, memo); err != nil {
			return err
		}
	}
	if sellerShare > 0 {
		if err := e.Ledger.Transfer(ctx, ports.NativeToken, ports.EscrowAccount, listing.Seller, sellerShare); err != nil {
			return err
		}
	}
	if err := e.Assets.TransferFrom(ctx, listing.AssetContract, ports.EscrowAccount, listing.Bidder, listing.TokenID); err != nil {
		return err
	}

	if err := e.appendConcludeOutbox(ctx, listing, listing.Bidder, price, memo, now); err != nil {
		return err
	}

	application.ResolveLogger(e.Logger).Info("listing settled",
		"event", "listing_settled",
		"module", "marketplace/listing-service",
		"layer", "application",
		"listing_key", listing.Key(),
		"winner", listing.Bidder,
		"price", price,
		"fee", fee,
		"seller_share", sellerShare,
	)
	return nil
}

// concludeWithoutWinner returns the asset to the seller. A standing bid that
// failed to clear the reserve is refunded.
func (e SettlementEngine) concludeWithoutWinner(ctx context.Context, listing entities.Listing, memo string, now time.Time) error {
	if err := e.Listings.DeleteListing(ctx, listing.AssetContract, listing.TokenID); err != nil {
		return err
	}
	if listing.HasBid() {
		if err := e.Ledger.Transfer(ctx, ports.NativeToken, ports.EscrowAccount, listing.Bidder, listing.BidAmount); err != nil {
			return err
		}
	}
	if err := e.Assets.TransferFrom(ctx, listing.AssetContract, ports.EscrowAccount, listing.Seller, listing.TokenID); err != nil {
		return err
	}

	if err := e.appendConcludeOutbox(ctx, listing, "", 0, memo, now); err != nil {
		return err
	}

	application.ResolveLogger(e.Logger).Info("listing returned to seller",
		"event", "listing_returned",
		"module", "marketplace/listing-service",
		"layer", "application",
		"listing_key", listing.Key(),
	)
	return nil
}

func (e SettlementEngine) payOut(ctx context.Context, item payout, memo string) error {
	split := item.split
	switch {
	case split.ProjectID != 0:
		terminalID, err := e.Directory.PrimaryTerminalOf(ctx, split.ProjectID, ports.NativeToken)
		if err != nil {
			return err
		}
		if terminalID == "" {
			return domainerrors.ErrPaymentFailure
		}
		if split.PreferAddToBalance {
			return e.Terminals.AddToBalance(ctx, terminalID, split.ProjectID, ports.NativeToken, ports.EscrowAccount, item.amount, memo)
		}
		return e.Terminals.Pay(ctx, terminalID, split.ProjectID, ports.NativeToken, ports.EscrowAccount, split.Beneficiary, item.amount, memo)
	case split.Allocator != "":
		return e.Allocators.Allocate(ctx, split.Allocator, ports.EscrowAccount, ports.Allocation{
			Token:       ports.NativeToken,
			Amount:      item.amount,
			ProjectID:   split.ProjectID,
			Beneficiary: split.Beneficiary,
		})
	default:
		return e.Ledger.Transfer(ctx, ports.NativeToken, ports.EscrowAccount, split.Beneficiary, item.amount)
	}
}

func (e SettlementEngine) appendConcludeOutbox(ctx context.Context, listing entities.Listing, winner string, price uint64, memo string, now time.Time) error {
	if e.Outbox == nil {
		return nil
	}
	eventID, err := e.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	eventType := EventConcludeAuction
	if listing.Mode == entities.ModeFixedPrice {
		eventType = EventConcludeFixedPriceSale
	}
	envelope, err := newListingEnvelope(eventID, eventType, listing.Key(), now, map[string]any{
		"seller":   listing.Seller,
		"buyer":    winner,
		"asset":    listing.AssetContract,
		"token_id": listing.TokenID,
		"price":    price,
		"memo":     memo,
	})
	if err != nil {
		return err
	}
	return e.Outbox.AppendOutbox(ctx, envelope)
}
