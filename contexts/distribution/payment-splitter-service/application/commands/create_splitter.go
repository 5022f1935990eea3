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

type CreateSplitterCommand struct {
	Name  string
	Owner string
	Payees   []string
	Projects []uint64
	Shares   []uint64
}

type CreateSplitterUseCase struct {
	Splitters ports.SplitterRepository
	Directory ports.Directory
	Clock     ports.Clock
	Logger    *slog.Logger
}

type CreateSplitterResult struct {
	Splitter entities.Splitter
}

// Execute registers a named splitter. Address payees and project payees share
// one shares array: the first len(Payees) entries belong to addresses, the
// rest to projects. Every project payee must already expose a primary
// terminal for the native token.
func (uc CreateSplitterUseCase) Execute(ctx context.Context, cmd CreateSplitterCommand) (CreateSplitterResult, error) {
	name := strings.TrimSpace(cmd.Name)
	owner := strings.TrimSpace(cmd.Owner)
	if name == "" || owner == "" {
		return CreateSplitterResult{}, domainerrors.ErrInvalidPayee
	}
	if uc.Directory == nil {
		return CreateSplitterResult{}, domainerrors.ErrInvalidDirectory
	}
	total := len(cmd.Payees) + len(cmd.Projects)
	if total == 0 || len(cmd.Shares) != total {
		return CreateSplitterResult{}, domainerrors.ErrInvalidLength
	}

	payees := make([]entities.Payee, 0, total)
	for i, address := range cmd.Payees {
		address = strings.TrimSpace(address)
		if address == "" {
			return CreateSplitterResult{}, domainerrors.ErrInvalidPayee
		}
		if cmd.Shares[i] == 0 {
			return CreateSplitterResult{}, domainerrors.ErrInvalidShare
		}
		payees = append(payees, entities.Payee{Address: address, ShareUnits: cmd.Shares[i]})
	}
	for i, projectID := range cmd.Projects {
		if projectID == 0 {
			return CreateSplitterResult{}, domainerrors.ErrInvalidPayee
		}
		share := cmd.Shares[len(cmd.Payees)+i]
		if share == 0 {
			return CreateSplitterResult{}, domainerrors.ErrInvalidShare
		}
		terminalID, err := uc.Directory.PrimaryTerminalOf(ctx, projectID, ports.NativeToken)
		if err != nil {
			return CreateSplitterResult{}, err
		}
		if terminalID == "" {
			return CreateSplitterResult{}, domainerrors.ErrMissingProjectTerminal
		}
		payees = append(payees, entities.Payee{ProjectID: projectID, ShareUnits: share})
	}

	splitter := entities.Splitter{
		Name:      name,
		Owner:     owner,
		Payees:    payees,
		CreatedAt: uc.Clock.Now().UTC(),
	}
	if splitter.ShareUnitsTotal() > entities.TotalShareUnits {
		return CreateSplitterResult{}, domainerrors.ErrInvalidShareTotal
	}

	if err := uc.Splitters.CreateSplitter(ctx, splitter); err != nil {
		return CreateSplitterResult{}, err
	}

	application.ResolveLogger(uc.Logger).Info("splitter created",
		"event", "splitter_created",
		"module", "distribution/payment-splitter-service",
		"layer", "application",
		"splitter_name", name,
		"payee_count", len(payees),
	)
	return CreateSplitterResult{Splitter: splitter}, nil
}
