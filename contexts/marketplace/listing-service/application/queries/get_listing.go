package queries

import (
	"context"
	"time"

	"gavel/contexts/marketplace/listing-service/domain/entities"
	"gavel/contexts/marketplace/listing-service/domain/services"
	"gavel/contexts/marketplace/listing-service/ports"
)

type GetListingQuery struct {
	AssetContract string
	TokenID       uint64
}

type GetListingResult struct {
	Listing      entities.Listing
	CurrentPrice uint64
	TimeLeft     time.Duration
}

// GetListingUseCase reads a listing together with its live price and the
// remaining sale window.
type GetListingUseCase struct {
	Listings ports.ListingRepository
	Settings ports.SettingsRepository
	Clock    ports.Clock
}

func (uc GetListingUseCase) Execute(ctx context.Context, q GetListingQuery) (GetListingResult, error) {
	listing, err := uc.Listings.GetListing(ctx, q.AssetContract, q.TokenID)
	if err != nil {
		return GetListingResult{}, err
	}
	settings, err := uc.Settings.GetSettings(ctx)
	if err != nil {
		return GetListingResult{}, err
	}
	now := uc.Clock.Now().UTC()
	return GetListingResult{
		Listing:      listing,
		CurrentPrice: services.CurrentPrice(listing, now, settings.PricingPeriod),
		TimeLeft:     services.TimeLeft(listing, now),
	}, nil
}
