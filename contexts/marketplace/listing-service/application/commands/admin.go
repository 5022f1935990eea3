package commands

import (
	"context"
	"log/slog"

	application "gavel/contexts/marketplace/listing-service/application"
	"gavel/contexts/marketplace/listing-service/domain/entities"
	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	"gavel/contexts/marketplace/listing-service/ports"
)

// UpdateSettingsCommand mutates one field of the marketplace settings. Which
// field is driven by which pointer is non-nil; every mutation is owner-gated.
type UpdateSettingsCommand struct {
	Caller string

	FeeRatePPB          *uint64
	FeeReceiverTerminal *string
	AllowPublicSales    *bool
	AllowPublicAuctions *bool
	MinBidIncrementPPB  *uint64
	AuthorizeSeller     *string
	RevokeSeller        *string
}

type UpdateSettingsUseCase struct {
	Settings  ports.SettingsRepository
	Directory ports.Directory
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc UpdateSettingsUseCase) Execute(ctx context.Context, cmd UpdateSettingsCommand) error {
	settings, err := uc.Settings.GetSettings(ctx)
	if err != nil {
		return err
	}
	if cmd.Caller != settings.Owner {
		return domainerrors.ErrUnauthorized
	}

	if cmd.FeeRatePPB != nil {
		if !entities.ValidFeeRate(*cmd.FeeRatePPB) {
			return domainerrors.ErrInvalidFeeRate
		}
		settings.FeeRatePPB = *cmd.FeeRatePPB
	}
	if cmd.FeeReceiverTerminal != nil {
		ok, err := uc.Directory.IsTerminalOf(ctx, settings.ProjectID, *cmd.FeeReceiverTerminal)
		if err != nil {
			return err
		}
		if !ok {
			return domainerrors.ErrPaymentFailure
		}
		settings.FeeReceiverTerminal = *cmd.FeeReceiverTerminal
	}
	if cmd.AllowPublicSales != nil {
		settings.AllowPublicSales = *cmd.AllowPublicSales
	}
	if cmd.AllowPublicAuctions != nil {
		settings.AllowPublicAuctions = *cmd.AllowPublicAuctions
	}
	if cmd.MinBidIncrementPPB != nil {
		if !entities.ValidBidIncrement(*cmd.MinBidIncrementPPB) {
			return domainerrors.ErrInvalidFeeRate
		}
		settings.MinBidIncrementPPB = *cmd.MinBidIncrementPPB
	}
	if cmd.AuthorizeSeller != nil {
		if settings.AuthorizedSellers == nil {
			settings.AuthorizedSellers = map[string]bool{}
		}
		settings.AuthorizedSellers[*cmd.AuthorizeSeller] = true
	}
	if cmd.RevokeSeller != nil {
		delete(settings.AuthorizedSellers, *cmd.RevokeSeller)
	}

	settings.UpdatedAt = uc.Clock.Now().UTC()
	if err := uc.Settings.PutSettings(ctx, settings); err != nil {
		return err
	}

	application.ResolveLogger(uc.Logger).Info("marketplace settings updated",
		"event", "marketplace_settings_updated",
		"module", "marketplace/listing-service",
		"layer", "application",
		"fee_rate_ppb", settings.FeeRatePPB,
		"allow_public_sales", settings.AllowPublicSales,
		"allow_public_auctions", settings.AllowPublicAuctions,
	)
	return nil
}
