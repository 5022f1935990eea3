package listingservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	listingservice "gavel/contexts/marketplace/listing-service"
	"gavel/contexts/marketplace/listing-service/adapters/memory"
	"gavel/contexts/marketplace/listing-service/application/commands"
	"gavel/contexts/marketplace/listing-service/application/queries"
	"gavel/contexts/marketplace/listing-service/application/workers"
	"gavel/contexts/marketplace/listing-service/domain/entities"
	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	"gavel/contexts/marketplace/listing-service/ports"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now.UTC()
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type capturePublisher struct {
	topics []string
}

func (p *capturePublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	p.topics = append(p.topics, topic)
	return nil
}

type fixture struct {
	module   listingservice.Module
	store    *memory.Store
	treasury *memory.Treasury
	clock    *testClock
}

func defaultSettings() entities.Settings {
	return entities.Settings{
		Owner:               "owner",
		ProjectID:           1,
		FeeReceiverTerminal: "terminal-fees",
		FeeRatePPB:          25_000_000, // 2.5%
		AllowPublicSales:    true,
		AllowPublicAuctions: true,
		PricingPeriod:       time.Hour,
	}
}

func newFixture(t *testing.T, settings entities.Settings) fixture {
	t.Helper()
	store := memory.NewStore(settings, nil)
	treasury := memory.NewTreasury()
	treasury.RegisterTerminal(settings.ProjectID, settings.FeeReceiverTerminal, ports.NativeToken)
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	module := listingservice.NewModule(listingservice.Dependencies{
		Listings:   store,
		Settings:   store,
		Assets:     treasury.Assets(),
		Ledger:     treasury.Ledger(),
		Directory:  treasury,
		Terminals:  treasury,
		Allocators: treasury,
		Outbox:     store,
		Clock:      clock,
		IDGen:      store,
	})
	return fixture{module: module, store: store, treasury: treasury, clock: clock}
}

func (f fixture) seedAsset(assetContract string, tokenID uint64, owner string) {
	f.treasury.MintAsset(assetContract, tokenID, owner)
	f.treasury.ApproveOperator(assetContract, tokenID, ports.EscrowAccount)
}

func (f fixture) balance(t *testing.T, account string) uint64 {
	t.Helper()
	amount, err := f.treasury.Ledger().Balance(context.Background(), ports.NativeToken, account)
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	return amount
}

func createListing(t *testing.T, f fixture, cmd commands.CreateListingCommand) {
	t.Helper()
	if _, err := f.module.Handler.CreateListing.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("create listing failed: %v", err)
	}
}

func TestFixedPriceSaleLifecycle(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()
	f.seedAsset("gallery", 7, "seller-1")
	f.treasury.Credit(ports.NativeToken, "buyer-1", 1_000)

	createListing(t, f, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       7,
		Mode:          entities.ModeFixedPrice,
		Price:         1_000,
		Duration:      24 * time.Hour,
		Splits: []entities.Split{
			{Beneficiary: "artist", PercentPPB: 250_000_000},
		},
	})
	if owner := f.treasury.AssetOwner("gallery", 7); owner != ports.EscrowAccount {
		t.Fatalf("expected escrowed asset, owner is %s", owner)
	}

	_, err := f.module.Handler.CreateListing.Execute(ctx, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       7,
		Mode:          entities.ModeFixedPrice,
		Price:         2_000,
		Duration:      24 * time.Hour,
	})
	if !errors.Is(err, domainerrors.ErrSaleExists) {
		t.Fatalf("expected SALE_EXISTS for duplicate listing, got %v", err)
	}

	_, err = f.module.Handler.TakeOffer.Execute(ctx, commands.TakeOfferCommand{
		Buyer: "buyer-1", AssetContract: "gallery", TokenID: 7, Payment: 999,
	})
	if !errors.Is(err, domainerrors.ErrInvalidPrice) {
		t.Fatalf("expected INVALID_PRICE for wrong payment, got %v", err)
	}

	if _, err := f.module.Handler.TakeOffer.Execute(ctx, commands.TakeOfferCommand{
		Buyer: "buyer-1", AssetContract: "gallery", TokenID: 7, Payment: 1_000,
	}); err != nil {
		t.Fatalf("take offer failed: %v", err)
	}
	if got := f.balance(t, ports.EscrowAccount); got != 1_000 {
		t.Fatalf("expected escrow to hold payment, got %d", got)
	}

	_, err = f.module.Handler.TakeOffer.Execute(ctx, commands.TakeOfferCommand{
		Buyer: "buyer-2", AssetContract: "gallery", TokenID: 7, Payment: 1_000,
	})
	if !errors.Is(err, domainerrors.ErrInvalidSale) {
		t.Fatalf("expected INVALID_SALE for concluded sale, got %v", err)
	}

	if err := f.module.Handler.DistributeProceeds.Execute(ctx, commands.DistributeProceedsCommand{
		AssetContract: "gallery", TokenID: 7,
	}); err != nil {
		t.Fatalf("distribute proceeds failed: %v", err)
	}

	// fee 2.5% of 1000 = 25; artist 25% of 975 = 243; remainder 732 to seller.
	if got := f.treasury.TerminalBalance("terminal-fees", ports.NativeToken); got != 25 {
		t.Fatalf("expected 25 fee in terminal, got %d", got)
	}
	if got := f.balance(t, "artist"); got != 243 {
		t.Fatalf("expected 243 for artist, got %d", got)
	}
	if got := f.balance(t, "seller-1"); got != 732 {
		t.Fatalf("expected 732 for seller, got %d", got)
	}
	if got := f.balance(t, ports.EscrowAccount); got != 0 {
		t.Fatalf("expected empty escrow, got %d", got)
	}
	if owner := f.treasury.AssetOwner("gallery", 7); owner != "buyer-1" {
		t.Fatalf("expected buyer to own asset, owner is %s", owner)
	}

	err = f.module.Handler.DistributeProceeds.Execute(ctx, commands.DistributeProceedsCommand{
		AssetContract: "gallery", TokenID: 7,
	})
	if !errors.Is(err, domainerrors.ErrInvalidSale) {
		t.Fatalf("expected INVALID_SALE for repeated distribution, got %v", err)
	}

	// The asset is re-listable by its new owner.
	f.treasury.ApproveOperator("gallery", 7, ports.EscrowAccount)
	createListing(t, f, commands.CreateListingCommand{
		Seller:        "buyer-1",
		AssetContract: "gallery",
		TokenID:       7,
		Mode:          entities.ModeFixedPrice,
		Price:         5_000,
		Duration:      time.Hour,
	})
}

func TestCreateListingValidation(t *testing.T) {
	settings := defaultSettings()
	settings.AllowPublicSales = false
	f := newFixture(t, settings)
	ctx := context.Background()
	f.seedAsset("gallery", 1, "seller-1")

	base := commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       1,
		Mode:          entities.ModeFixedPrice,
		Price:         100,
		Duration:      time.Hour,
	}

	if _, err := f.module.Handler.CreateListing.Execute(ctx, base); !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected NOT_AUTHORIZED with public sales disabled, got %v", err)
	}

	if err := f.module.Handler.UpdateSettings.Execute(ctx, commands.UpdateSettingsCommand{
		Caller:          "owner",
		AuthorizeSeller: ptr("seller-1"),
	}); err != nil {
		t.Fatalf("authorize seller failed: %v", err)
	}

	zeroPrice := base
	zeroPrice.Price = 0
	if _, err := f.module.Handler.CreateListing.Execute(ctx, zeroPrice); !errors.Is(err, domainerrors.ErrInvalidPrice) {
		t.Fatalf("expected INVALID_PRICE for zero price, got %v", err)
	}

	invertedDutch := base
	invertedDutch.Mode = entities.ModeDutchAuction
	invertedDutch.StartPrice = 100
	invertedDutch.EndPrice = 100
	if _, err := f.module.Handler.CreateListing.Execute(ctx, invertedDutch); !errors.Is(err, domainerrors.ErrInvalidPrice) {
		t.Fatalf("expected INVALID_PRICE for flat dutch range, got %v", err)
	}

	tooLong := base
	tooLong.Duration = entities.MaxListingDuration + time.Second
	if _, err := f.module.Handler.CreateListing.Execute(ctx, tooLong); !errors.Is(err, domainerrors.ErrInvalidDuration) {
		t.Fatalf("expected INVALID_DURATION, got %v", err)
	}

	overSplit := base
	overSplit.Splits = []entities.Split{
		{Beneficiary: "a", PercentPPB: 800_000_000},
		{Beneficiary: "b", PercentPPB: 300_000_000},
	}
	if _, err := f.module.Handler.CreateListing.Execute(ctx, overSplit); !errors.Is(err, domainerrors.ErrInvalidSplits) {
		t.Fatalf("expected INVALID_SPLITS for oversubscribed splits, got %v", err)
	}

	notOwner := base
	notOwner.TokenID = 2
	f.treasury.MintAsset("gallery", 2, "somebody-else")
	if _, err := f.module.Handler.CreateListing.Execute(ctx, notOwner); !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected NOT_AUTHORIZED for non-owner, got %v", err)
	}

	unapproved := base
	unapproved.TokenID = 3
	f.treasury.MintAsset("gallery", 3, "seller-1")
	if _, err := f.module.Handler.CreateListing.Execute(ctx, unapproved); !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected NOT_AUTHORIZED without escrow approval, got %v", err)
	}
}

func TestFixedPriceExpiryReturnsAsset(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()
	f.seedAsset("gallery", 9, "seller-1")

	createListing(t, f, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       9,
		Mode:          entities.ModeFixedPrice,
		Price:         500,
		Duration:      time.Hour,
	})

	err := f.module.Handler.DistributeProceeds.Execute(ctx, commands.DistributeProceedsCommand{
		AssetContract: "gallery", TokenID: 9,
	})
	if !errors.Is(err, domainerrors.ErrSaleInProgress) {
		t.Fatalf("expected SALE_IN_PROGRESS before expiry, got %v", err)
	}

	f.clock.Advance(time.Hour)

	_, err = f.module.Handler.TakeOffer.Execute(ctx, commands.TakeOfferCommand{
		Buyer: "buyer-1", AssetContract: "gallery", TokenID: 9, Payment: 500,
	})
	if !errors.Is(err, domainerrors.ErrSaleEnded) {
		t.Fatalf("expected SALE_ENDED after expiry, got %v", err)
	}

	if err := f.module.Handler.DistributeProceeds.Execute(ctx, commands.DistributeProceedsCommand{
		AssetContract: "gallery", TokenID: 9,
	}); err != nil {
		t.Fatalf("distribute after expiry failed: %v", err)
	}
	if owner := f.treasury.AssetOwner("gallery", 9); owner != "seller-1" {
		t.Fatalf("expected asset returned to seller, owner is %s", owner)
	}
	if _, err := f.module.Handler.GetListing.Execute(ctx, queries.GetListingQuery{
		AssetContract: "gallery", TokenID: 9,
	}); !errors.Is(err, domainerrors.ErrInvalidSale) {
		t.Fatalf("expected listing gone, got %v", err)
	}
}

func TestDutchAuctionPriceDecay(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()
	f.seedAsset("gallery", 11, "seller-1")

	createListing(t, f, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       11,
		Mode:          entities.ModeDutchAuction,
		StartPrice:    1_000,
		EndPrice:      100,
		Duration:      10 * time.Hour,
	})

	price := func() uint64 {
		t.Helper()
		got, err := f.module.Handler.CurrentPrice.Execute(ctx, queries.CurrentPriceQuery{
			AssetContract: "gallery", TokenID: 11,
		})
		if err != nil {
			t.Fatalf("current price failed: %v", err)
		}
		return got
	}

	if got := price(); got != 1_000 {
		t.Fatalf("expected start price at t0, got %d", got)
	}
	previous := price()
	for i := 0; i < 10; i++ {
		f.clock.Advance(time.Hour)
		current := price()
		if current > previous {
			t.Fatalf("price increased from %d to %d", previous, current)
		}
		previous = current
	}
	if previous != 100 {
		t.Fatalf("expected end price after full window, got %d", previous)
	}
	f.clock.Advance(48 * time.Hour)
	if got := price(); got != 100 {
		t.Fatalf("expected price pinned at end price, got %d", got)
	}
}

func TestDutchAuctionBidAndSettle(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()
	f.seedAsset("gallery", 12, "seller-1")
	f.treasury.Credit(ports.NativeToken, "bidder-1", 1_000)

	createListing(t, f, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       12,
		Mode:          entities.ModeDutchAuction,
		StartPrice:    1_000,
		EndPrice:      100,
		Duration:      10 * time.Hour,
	})

	_, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "bidder-1", AssetContract: "gallery", TokenID: 12, Amount: 50,
	})
	if !errors.Is(err, domainerrors.ErrInvalidBid) {
		t.Fatalf("expected INVALID_BID below floor, got %v", err)
	}

	if _, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "bidder-1", AssetContract: "gallery", TokenID: 12, Amount: 500,
	}); err != nil {
		t.Fatalf("standing bid failed: %v", err)
	}
	if got := f.balance(t, ports.EscrowAccount); got != 500 {
		t.Fatalf("expected escrowed bid, got %d", got)
	}

	err = f.module.Handler.SettleListing.Execute(ctx, commands.SettleListingCommand{
		AssetContract: "gallery", TokenID: 12,
	})
	if !errors.Is(err, domainerrors.ErrAuctionInProgress) {
		t.Fatalf("expected AUCTION_IN_PROGRESS above bid, got %v", err)
	}

	// After 6 periods the price is 460, below the standing 500 bid.
	f.clock.Advance(6 * time.Hour)
	if err := f.module.Handler.SettleListing.Execute(ctx, commands.SettleListingCommand{
		AssetContract: "gallery", TokenID: 12,
	}); err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	// Winner pays the full bid: fee 12, seller 488.
	if got := f.treasury.TerminalBalance("terminal-fees", ports.NativeToken); got != 12 {
		t.Fatalf("expected 12 fee, got %d", got)
	}
	if got := f.balance(t, "seller-1"); got != 488 {
		t.Fatalf("expected 488 for seller, got %d", got)
	}
	if owner := f.treasury.AssetOwner("gallery", 12); owner != "bidder-1" {
		t.Fatalf("expected bidder to own asset, owner is %s", owner)
	}
}

func TestOutbidRefundsPreviousBidder(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()
	f.seedAsset("gallery", 13, "seller-1")
	f.treasury.Credit(ports.NativeToken, "alice", 300)
	f.treasury.Credit(ports.NativeToken, "bob", 400)

	createListing(t, f, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       13,
		Mode:          entities.ModeDutchAuction,
		StartPrice:    1_000,
		EndPrice:      100,
		Duration:      10 * time.Hour,
	})

	if _, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "alice", AssetContract: "gallery", TokenID: 13, Amount: 300,
	}); err != nil {
		t.Fatalf("first bid failed: %v", err)
	}

	_, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "bob", AssetContract: "gallery", TokenID: 13, Amount: 300,
	})
	if !errors.Is(err, domainerrors.ErrInvalidBid) {
		t.Fatalf("expected INVALID_BID for equal bid, got %v", err)
	}

	if _, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "bob", AssetContract: "gallery", TokenID: 13, Amount: 400,
	}); err != nil {
		t.Fatalf("outbid failed: %v", err)
	}

	if got := f.balance(t, "alice"); got != 300 {
		t.Fatalf("expected alice refunded, got %d", got)
	}
	if got := f.balance(t, ports.EscrowAccount); got != 400 {
		t.Fatalf("expected escrow to hold only the standing bid, got %d", got)
	}
}

func TestEnglishAuctionReserveNotMet(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()
	f.seedAsset("gallery", 14, "seller-1")
	f.treasury.Credit(ports.NativeToken, "bidder-1", 200)

	createListing(t, f, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       14,
		Mode:          entities.ModeEnglishAuction,
		BasePrice:     100,
		ReservePrice:  500,
		Duration:      2 * time.Hour,
	})

	_, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "bidder-1", AssetContract: "gallery", TokenID: 14, Amount: 99,
	})
	if !errors.Is(err, domainerrors.ErrInvalidBid) {
		t.Fatalf("expected INVALID_BID below base price, got %v", err)
	}

	if _, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "bidder-1", AssetContract: "gallery", TokenID: 14, Amount: 200,
	}); err != nil {
		t.Fatalf("bid failed: %v", err)
	}

	err = f.module.Handler.SettleListing.Execute(ctx, commands.SettleListingCommand{
		AssetContract: "gallery", TokenID: 14,
	})
	if !errors.Is(err, domainerrors.ErrAuctionInProgress) {
		t.Fatalf("expected AUCTION_IN_PROGRESS before expiry, got %v", err)
	}

	f.clock.Advance(2 * time.Hour)

	_, err = f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "bidder-1", AssetContract: "gallery", TokenID: 14, Amount: 600,
	})
	if !errors.Is(err, domainerrors.ErrAuctionEnded) {
		t.Fatalf("expected AUCTION_ENDED, got %v", err)
	}

	if err := f.module.Handler.SettleListing.Execute(ctx, commands.SettleListingCommand{
		AssetContract: "gallery", TokenID: 14,
	}); err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if owner := f.treasury.AssetOwner("gallery", 14); owner != "seller-1" {
		t.Fatalf("expected asset back with seller, owner is %s", owner)
	}
	if got := f.balance(t, "bidder-1"); got != 200 {
		t.Fatalf("expected bid refunded, got %d", got)
	}
}

func TestEnglishAuctionReserveMet(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()
	f.seedAsset("gallery", 15, "seller-1")
	f.treasury.Credit(ports.NativeToken, "bidder-1", 600)

	createListing(t, f, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       15,
		Mode:          entities.ModeEnglishAuction,
		BasePrice:     100,
		ReservePrice:  500,
		Duration:      2 * time.Hour,
	})

	if _, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "bidder-1", AssetContract: "gallery", TokenID: 15, Amount: 600,
	}); err != nil {
		t.Fatalf("bid failed: %v", err)
	}

	f.clock.Advance(3 * time.Hour)
	if err := f.module.Handler.SettleListing.Execute(ctx, commands.SettleListingCommand{
		AssetContract: "gallery", TokenID: 15,
	}); err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	if got := f.treasury.TerminalBalance("terminal-fees", ports.NativeToken); got != 15 {
		t.Fatalf("expected 15 fee, got %d", got)
	}
	if got := f.balance(t, "seller-1"); got != 585 {
		t.Fatalf("expected 585 for seller, got %d", got)
	}
	if owner := f.treasury.AssetOwner("gallery", 15); owner != "bidder-1" {
		t.Fatalf("expected bidder to own asset, owner is %s", owner)
	}
}

func TestMinimumBidIncrement(t *testing.T) {
	settings := defaultSettings()
	settings.MinBidIncrementPPB = 100_000_000 // 10%
	f := newFixture(t, settings)
	ctx := context.Background()
	f.seedAsset("gallery", 16, "seller-1")
	f.treasury.Credit(ports.NativeToken, "alice", 1_000)
	f.treasury.Credit(ports.NativeToken, "bob", 2_000)

	createListing(t, f, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       16,
		Mode:          entities.ModeEnglishAuction,
		BasePrice:     100,
		Duration:      2 * time.Hour,
	})

	if _, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "alice", AssetContract: "gallery", TokenID: 16, Amount: 1_000,
	}); err != nil {
		t.Fatalf("first bid failed: %v", err)
	}

	_, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "bob", AssetContract: "gallery", TokenID: 16, Amount: 1_099,
	})
	if !errors.Is(err, domainerrors.ErrInvalidBid) {
		t.Fatalf("expected INVALID_BID below the increment, got %v", err)
	}
	// Exactly prior + increment clears the bar.
	if _, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "bob", AssetContract: "gallery", TokenID: 16, Amount: 1_100,
	}); err != nil {
		t.Fatalf("bid at exactly the increment failed: %v", err)
	}
}

func TestBidIncrementCappedAtFullPrice(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()
	f.seedAsset("gallery", 26, "seller-1")
	f.treasury.Credit(ports.NativeToken, "alice", 1_000)
	f.treasury.Credit(ports.NativeToken, "bob", 3_000)

	err := f.module.Handler.UpdateSettings.Execute(ctx, commands.UpdateSettingsCommand{
		Caller:             "owner",
		MinBidIncrementPPB: ptr(uint64(2_000_000_000)),
	})
	if !errors.Is(err, domainerrors.ErrInvalidFeeRate) {
		t.Fatalf("expected INVALID_FEERATE above 100%% increment, got %v", err)
	}

	// A 100% increment is the accepted maximum and must not break bidding.
	if err := f.module.Handler.UpdateSettings.Execute(ctx, commands.UpdateSettingsCommand{
		Caller:             "owner",
		MinBidIncrementPPB: ptr(uint64(1_000_000_000)),
	}); err != nil {
		t.Fatalf("full-price increment update failed: %v", err)
	}

	createListing(t, f, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       26,
		Mode:          entities.ModeEnglishAuction,
		BasePrice:     100,
		Duration:      2 * time.Hour,
	})
	if _, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "alice", AssetContract: "gallery", TokenID: 26, Amount: 1_000,
	}); err != nil {
		t.Fatalf("first bid failed: %v", err)
	}
	if _, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "bob", AssetContract: "gallery", TokenID: 26, Amount: 2_000,
	}); err != nil {
		t.Fatalf("doubled bid failed: %v", err)
	}
}

func TestSplitRoutingToProjectAndAllocator(t *testing.T) {
	settings := defaultSettings()
	settings.FeeRatePPB = 0
	f := newFixture(t, settings)
	ctx := context.Background()
	f.seedAsset("gallery", 17, "seller-1")
	f.treasury.Credit(ports.NativeToken, "buyer-1", 10_000)
	f.treasury.RegisterTerminal(7, "terminal-7", ports.NativeToken)

	createListing(t, f, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       17,
		Mode:          entities.ModeFixedPrice,
		Price:         10_000,
		Duration:      time.Hour,
		Splits: []entities.Split{
			{ProjectID: 7, PercentPPB: 100_000_000, PreferAddToBalance: true},
			{Allocator: "alloc-1", PercentPPB: 200_000_000},
			{Beneficiary: "collab", PercentPPB: 300_000_000},
		},
	})

	if _, err := f.module.Handler.TakeOffer.Execute(ctx, commands.TakeOfferCommand{
		Buyer: "buyer-1", AssetContract: "gallery", TokenID: 17, Payment: 10_000,
	}); err != nil {
		t.Fatalf("take offer failed: %v", err)
	}
	if err := f.module.Handler.DistributeProceeds.Execute(ctx, commands.DistributeProceedsCommand{
		AssetContract: "gallery", TokenID: 17,
	}); err != nil {
		t.Fatalf("distribute failed: %v", err)
	}

	if got := f.treasury.TerminalBalance("terminal-7", ports.NativeToken); got != 1_000 {
		t.Fatalf("expected 1000 routed to project terminal, got %d", got)
	}
	allocations := f.treasury.Allocations("alloc-1")
	if len(allocations) != 1 || allocations[0].Amount != 2_000 {
		t.Fatalf("expected one 2000 allocation, got %+v", allocations)
	}
	if got := f.balance(t, "collab"); got != 3_000 {
		t.Fatalf("expected 3000 for collaborator, got %d", got)
	}
	if got := f.balance(t, "seller-1"); got != 4_000 {
		t.Fatalf("expected 4000 remainder for seller, got %d", got)
	}
	if got := f.balance(t, ports.EscrowAccount); got != 0 {
		t.Fatalf("expected drained escrow, got %d", got)
	}
}

func TestUpdateSettingsAuthorization(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()

	err := f.module.Handler.UpdateSettings.Execute(ctx, commands.UpdateSettingsCommand{
		Caller:     "intruder",
		FeeRatePPB: ptr(uint64(0)),
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED for non-owner, got %v", err)
	}

	err = f.module.Handler.UpdateSettings.Execute(ctx, commands.UpdateSettingsCommand{
		Caller:     "owner",
		FeeRatePPB: ptr(entities.MaxFeeRatePPB + 1),
	})
	if !errors.Is(err, domainerrors.ErrInvalidFeeRate) {
		t.Fatalf("expected INVALID_FEERATE above cap, got %v", err)
	}

	err = f.module.Handler.UpdateSettings.Execute(ctx, commands.UpdateSettingsCommand{
		Caller:              "owner",
		FeeReceiverTerminal: ptr("unregistered-terminal"),
	})
	if !errors.Is(err, domainerrors.ErrPaymentFailure) {
		t.Fatalf("expected PAYMENT_FAILURE for foreign terminal, got %v", err)
	}

	if err := f.module.Handler.UpdateSettings.Execute(ctx, commands.UpdateSettingsCommand{
		Caller:     "owner",
		FeeRatePPB: ptr(uint64(50_000_000)),
	}); err != nil {
		t.Fatalf("fee rate update failed: %v", err)
	}
	current, err := f.store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings failed: %v", err)
	}
	if current.FeeRatePPB != 50_000_000 {
		t.Fatalf("expected updated fee rate, got %d", current.FeeRatePPB)
	}
}

func TestUpdateSplitsSellerOnly(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()
	f.seedAsset("gallery", 18, "seller-1")

	createListing(t, f, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       18,
		Mode:          entities.ModeFixedPrice,
		Price:         100,
		Duration:      time.Hour,
	})

	err := f.module.Handler.UpdateSplits.Execute(ctx, commands.UpdateSplitsCommand{
		AssetContract: "gallery", TokenID: 18, Caller: "intruder",
		Splits: []entities.Split{{Beneficiary: "x", PercentPPB: 1}},
	})
	if !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected NOT_AUTHORIZED for non-seller, got %v", err)
	}

	err = f.module.Handler.UpdateSplits.Execute(ctx, commands.UpdateSplitsCommand{
		AssetContract: "gallery", TokenID: 18, Caller: "seller-1",
		Splits: []entities.Split{{PercentPPB: 1}},
	})
	if !errors.Is(err, domainerrors.ErrInvalidSplits) {
		t.Fatalf("expected INVALID_SPLITS for targetless split, got %v", err)
	}

	if err := f.module.Handler.UpdateSplits.Execute(ctx, commands.UpdateSplitsCommand{
		AssetContract: "gallery", TokenID: 18, Caller: "seller-1",
		Splits: []entities.Split{{Beneficiary: "artist", PercentPPB: 500_000_000}},
	}); err != nil {
		t.Fatalf("update splits failed: %v", err)
	}
	result, err := f.module.Handler.GetListing.Execute(ctx, queries.GetListingQuery{
		AssetContract: "gallery", TokenID: 18,
	})
	if err != nil {
		t.Fatalf("get listing failed: %v", err)
	}
	if len(result.Listing.Splits) != 1 || result.Listing.Splits[0].Beneficiary != "artist" {
		t.Fatalf("expected replaced splits, got %+v", result.Listing.Splits)
	}
}

func TestOutboxRelayPublishesListingEvents(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()
	f.seedAsset("gallery", 19, "seller-1")
	f.treasury.Credit(ports.NativeToken, "buyer-1", 100)

	createListing(t, f, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       19,
		Mode:          entities.ModeFixedPrice,
		Price:         100,
		Duration:      time.Hour,
	})
	if _, err := f.module.Handler.TakeOffer.Execute(ctx, commands.TakeOfferCommand{
		Buyer: "buyer-1", AssetContract: "gallery", TokenID: 19, Payment: 100,
	}); err != nil {
		t.Fatalf("take offer failed: %v", err)
	}

	publisher := &capturePublisher{}
	relay := workers.OutboxRelay{
		Outbox:    f.store,
		Publisher: publisher,
		Clock:     f.clock,
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	seen := map[string]bool{}
	for _, topic := range publisher.topics {
		seen[topic] = true
	}
	if !seen[commands.EventCreateFixedPriceSale] {
		t.Fatalf("expected CreateFixedPriceSale event, saw %v", publisher.topics)
	}
	if !seen[commands.EventConcludeFixedPriceSale] {
		t.Fatalf("expected ConcludeFixedPriceSale event, saw %v", publisher.topics)
	}

	pending, err := f.store.ListPendingOutbox(ctx, 100)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected drained outbox, %d rows remain", len(pending))
	}
}

func TestExpirySettlerSweepsExpiredListings(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()
	f.seedAsset("gallery", 20, "seller-1")
	f.treasury.Credit(ports.NativeToken, "bidder-1", 600)

	createListing(t, f, commands.CreateListingCommand{
		Seller:        "seller-1",
		AssetContract: "gallery",
		TokenID:       20,
		Mode:          entities.ModeEnglishAuction,
		BasePrice:     100,
		Duration:      time.Hour,
	})
	if _, err := f.module.Handler.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder: "bidder-1", AssetContract: "gallery", TokenID: 20, Amount: 600,
	}); err != nil {
		t.Fatalf("bid failed: %v", err)
	}

	f.clock.Advance(2 * time.Hour)
	if err := f.module.Settler.RunOnce(ctx); err != nil {
		t.Fatalf("settler run failed: %v", err)
	}

	if owner := f.treasury.AssetOwner("gallery", 20); owner != "bidder-1" {
		t.Fatalf("expected sweep to settle auction, owner is %s", owner)
	}
	if _, err := f.module.Handler.GetListing.Execute(ctx, queries.GetListingQuery{
		AssetContract: "gallery", TokenID: 20,
	}); !errors.Is(err, domainerrors.ErrInvalidSale) {
		t.Fatalf("expected listing gone after sweep, got %v", err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
