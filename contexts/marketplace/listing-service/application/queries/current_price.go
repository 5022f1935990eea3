package queries

import (
	"context"

	"gavel/contexts/marketplace/listing-service/domain/services"
	"gavel/contexts/marketplace/listing-service/ports"
)

type CurrentPriceQuery struct {
	AssetContract string
	TokenID       uint64
}

type CurrentPriceUseCase struct {
	Listings ports.ListingRepository
	Settings ports.SettingsRepository
	Clock    ports.Clock
}

func (uc CurrentPriceUseCase) Execute(ctx context.Context, q CurrentPriceQuery) (uint64, error) {
	listing, err := uc.Listings.GetListing(ctx, q.AssetContract, q.TokenID)
	if err != nil {
		return 0, err
	}
	settings, err := uc.Settings.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	return services.CurrentPrice(listing, uc.Clock.Now().UTC(), settings.PricingPeriod), nil
}
