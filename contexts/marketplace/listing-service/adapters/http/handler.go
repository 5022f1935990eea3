package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"gavel/contexts/marketplace/listing-service/application/commands"
	"gavel/contexts/marketplace/listing-service/application/queries"
	"gavel/contexts/marketplace/listing-service/domain/entities"
	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	httptransport "gavel/contexts/marketplace/listing-service/transport/http"
)

type Handler struct {
	CreateListing      commands.CreateListingUseCase
	TakeOffer          commands.TakeOfferUseCase
	PlaceBid           commands.PlaceBidUseCase
	SettleListing      commands.SettleListingUseCase
	DistributeProceeds commands.DistributeProceedsUseCase
	UpdateSplits       commands.UpdateSplitsUseCase
	UpdateSettings     commands.UpdateSettingsUseCase
	GetListing         queries.GetListingUseCase
	CurrentPrice       queries.CurrentPriceUseCase
	Logger             *slog.Logger
}

func (h Handler) CreateListingHandler(
	ctx context.Context,
	seller string,
	req httptransport.CreateListingRequest,
) (httptransport.GetListingResponse, error) {
	mode, err := parseMode(req.Mode)
	if err != nil {
		return httptransport.GetListingResponse{}, err
	}
	splits, err := mapSplitsIn(req.Splits)
	if err != nil {
		return httptransport.GetListingResponse{}, err
	}
	result, err := h.CreateListing.Execute(ctx, commands.CreateListingCommand{
		Seller:        seller,
		AssetContract: req.AssetContract,
		TokenID:       req.TokenID,
		Mode:          mode,
		Price:         req.Price,
		StartPrice:    req.StartPrice,
		EndPrice:      req.EndPrice,
		BasePrice:     req.BasePrice,
		ReservePrice:  req.ReservePrice,
		Duration:      time.Duration(req.DurationSeconds) * time.Second,
		Splits:        splits,
		Memo:          req.Memo,
	})
	if err != nil {
		return httptransport.GetListingResponse{}, err
	}
	return httptransport.GetListingResponse{
		Listing: mapListing(result.Listing, 0, 0),
	}, nil
}

func (h Handler) TakeOfferHandler(
	ctx context.Context,
	buyer, assetContract string,
	tokenID uint64,
	req httptransport.TakeOfferRequest,
) error {
	_, err := h.TakeOffer.Execute(ctx, commands.TakeOfferCommand{
		Buyer:         buyer,
		AssetContract: assetContract,
		TokenID:       tokenID,
		Payment:       req.Amount,
		Memo:          req.Memo,
	})
	return err
}

func (h Handler) PlaceBidHandler(
	ctx context.Context,
	bidder, assetContract string,
	tokenID uint64,
	req httptransport.PlaceBidRequest,
) error {
	_, err := h.PlaceBid.Execute(ctx, commands.PlaceBidCommand{
		Bidder:        bidder,
		AssetContract: assetContract,
		TokenID:       tokenID,
		Amount:        req.Amount,
		Memo:          req.Memo,
	})
	return err
}

func (h Handler) SettleListingHandler(
	ctx context.Context,
	assetContract string,
	tokenID uint64,
	req httptransport.SettleListingRequest,
) error {
	return h.SettleListing.Execute(ctx, commands.SettleListingCommand{
		AssetContract: assetContract,
		TokenID:       tokenID,
		Memo:          req.Memo,
	})
}

func (h Handler) DistributeProceedsHandler(
	ctx context.Context,
	assetContract string,
	tokenID uint64,
	req httptransport.SettleListingRequest,
) error {
	return h.DistributeProceeds.Execute(ctx, commands.DistributeProceedsCommand{
		AssetContract: assetContract,
		TokenID:       tokenID,
		Memo:          req.Memo,
	})
}

func (h Handler) UpdateSplitsHandler(
	ctx context.Context,
	caller, assetContract string,
	tokenID uint64,
	req httptransport.UpdateSplitsRequest,
) error {
	splits, err := mapSplitsIn(req.Splits)
	if err != nil {
		return err
	}
	return h.UpdateSplits.Execute(ctx, commands.UpdateSplitsCommand{
		AssetContract: assetContract,
		TokenID:       tokenID,
		Caller:        caller,
		Splits:        splits,
	})
}

func (h Handler) UpdateSettingsHandler(
	ctx context.Context,
	caller string,
	req httptransport.UpdateSettingsRequest,
) error {
	return h.UpdateSettings.Execute(ctx, commands.UpdateSettingsCommand{
		Caller:              caller,
		FeeRatePPB:          req.FeeRatePPB,
		FeeReceiverTerminal: req.FeeReceiverTerminal,
		AllowPublicSales:    req.AllowPublicSales,
		AllowPublicAuctions: req.AllowPublicAuctions,
		MinBidIncrementPPB:  req.MinBidIncrementPPB,
		AuthorizeSeller:     req.AuthorizeSeller,
		RevokeSeller:        req.RevokeSeller,
	})
}

func (h Handler) GetListingHandler(
	ctx context.Context,
	assetContract string,
	tokenID uint64,
) (httptransport.GetListingResponse, error) {
	result, err := h.GetListing.Execute(ctx, queries.GetListingQuery{
		AssetContract: assetContract,
		TokenID:       tokenID,
	})
	if err != nil {
		return httptransport.GetListingResponse{}, err
	}
	return httptransport.GetListingResponse{
		Listing: mapListing(result.Listing, result.CurrentPrice, result.TimeLeft),
	}, nil
}

func (h Handler) CurrentPriceHandler(
	ctx context.Context,
	assetContract string,
	tokenID uint64,
) (httptransport.CurrentPriceResponse, error) {
	price, err := h.CurrentPrice.Execute(ctx, queries.CurrentPriceQuery{
		AssetContract: assetContract,
		TokenID:       tokenID,
	})
	if err != nil {
		return httptransport.CurrentPriceResponse{}, err
	}
	return httptransport.CurrentPriceResponse{CurrentPrice: price}, nil
}

func parseMode(raw string) (entities.SaleMode, error) {
	switch entities.SaleMode(raw) {
	case entities.ModeFixedPrice:
		return entities.ModeFixedPrice, nil
	case entities.ModeDutchAuction:
		return entities.ModeDutchAuction, nil
	case entities.ModeEnglishAuction:
		return entities.ModeEnglishAuction, nil
	}
	return "", domainerrors.ErrInvalidSale
}

func mapSplitsIn(items []httptransport.SplitDTO) ([]entities.Split, error) {
	if len(items) == 0 {
		return nil, nil
	}
	splits := make([]entities.Split, 0, len(items))
	for _, item := range items {
		split := entities.Split{
			Beneficiary:        item.Beneficiary,
			Allocator:          item.Allocator,
			ProjectID:          item.ProjectID,
			PercentPPB:         item.PercentPPB,
			PreferClaimed:      item.PreferClaimed,
			PreferAddToBalance: item.PreferAddToBalance,
		}
		if item.LockedUntil != "" {
			lockedUntil, err := time.Parse(time.RFC3339, item.LockedUntil)
			if err != nil {
				return nil, domainerrors.ErrInvalidSplits
			}
			split.LockedUntil = lockedUntil.UTC()
		}
		splits = append(splits, split)
	}
	return splits, nil
}

func mapSplitsOut(items []entities.Split) []httptransport.SplitDTO {
	if len(items) == 0 {
		return nil
	}
	splits := make([]httptransport.SplitDTO, 0, len(items))
	for _, item := range items {
		dto := httptransport.SplitDTO{
			Beneficiary:        item.Beneficiary,
			Allocator:          item.Allocator,
			ProjectID:          item.ProjectID,
			PercentPPB:         item.PercentPPB,
			PreferClaimed:      item.PreferClaimed,
			PreferAddToBalance: item.PreferAddToBalance,
		}
		if !item.LockedUntil.IsZero() {
			dto.LockedUntil = item.LockedUntil.UTC().Format(time.RFC3339)
		}
		splits = append(splits, dto)
	}
	return splits
}

func mapListing(item entities.Listing, currentPrice uint64, timeLeft time.Duration) httptransport.ListingDTO {
	return httptransport.ListingDTO{
		AssetContract:   item.AssetContract,
		TokenID:         item.TokenID,
		Seller:          item.Seller,
		Mode:            string(item.Mode),
		State:           string(item.State),
		Price:           item.Price,
		StartPrice:      item.StartPrice,
		EndPrice:        item.EndPrice,
		BasePrice:       item.BasePrice,
		ReservePrice:    item.ReservePrice,
		StartTime:       item.StartTime.UTC().Format(time.RFC3339),
		DurationSeconds: int64(item.Duration / time.Second),
		Bidder:          item.Bidder,
		BidAmount:       item.BidAmount,
		Splits:          mapSplitsOut(item.Splits),
		Memo:            item.Memo,
		CurrentPrice:    currentPrice,
		TimeLeftSeconds: int64(timeLeft / time.Second),
	}
}
