package commands

import (
	"context"
	"log/slog"
	"strings"

	application "gavel/contexts/distribution/payment-splitter-service/application"
	"gavel/contexts/distribution/payment-splitter-service/domain/entities"
	domainerrors "gavel/contexts/distribution/payment-splitter-service/domain/errors"
	"gavel/contexts/distribution/payment-splitter-service/ports"
)

type AddPayeeCommand struct {
	SplitterName string
	Caller       string
	Address      string
	ProjectID    uint64
	ShareUnits   uint64
}

// AddPayeeUseCase appends a payee to an existing splitter. Owner only; the
// payee set never shrinks and the share total stays within the denominator.
type AddPayeeUseCase struct {
	Splitters ports.SplitterRepository
	Directory ports.Directory
	Logger    *slog.Logger
}

func (uc AddPayeeUseCase) Execute(ctx context.Context, cmd AddPayeeCommand) error {
	splitter, err := uc.Splitters.GetSplitter(ctx, strings.TrimSpace(cmd.SplitterName))
	if err != nil {
		return err
	}
	if splitter.Owner != strings.TrimSpace(cmd.Caller) {
		return domainerrors.ErrUnauthorized
	}
	if cmd.ShareUnits == 0 {
		return domainerrors.ErrInvalidShare
	}

	payee := entities.Payee{
		Address:    strings.TrimSpace(cmd.Address),
		ProjectID:  cmd.ProjectID,
		ShareUnits: cmd.ShareUnits,
	}
	if payee.Address == "" && payee.ProjectID == 0 {
		return domainerrors.ErrInvalidPayee
	}
	if payee.Address != "" && payee.ProjectID != 0 {
		return domainerrors.ErrInvalidPayee
	}
	if _, exists := splitter.FindPayee(payee.Key()); exists {
		return domainerrors.ErrInvalidPayee
	}
	if splitter.ShareUnitsTotal()+payee.ShareUnits > entities.TotalShareUnits {
		return domainerrors.ErrInvalidShareTotal
	}
	if payee.IsProject() {
		terminalID, err := uc.Directory.PrimaryTerminalOf(ctx, payee.ProjectID, ports.NativeToken)
		if err != nil {
			return err
		}
		if terminalID == "" {
			return domainerrors.ErrMissingProjectTerminal
		}
	}

	splitter.Payees = append(splitter.Payees, payee)
	if err := uc.Splitters.UpdateSplitter(ctx, splitter); err != nil {
		return err
	}

	application.ResolveLogger(uc.Logger).Info("splitter payee added",
		"event", "splitter_payee_added",
		"module", "distribution/payment-splitter-service",
		"layer", "application",
		"splitter_name", splitter.Name,
		"payee_key", payee.Key(),
		"share_units", payee.ShareUnits,
	)
	return nil
}
