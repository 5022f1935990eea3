package commands

import (
	"context"
	"log/slog"
	"strings"

	application "gavel/contexts/distribution/payment-splitter-service/application"
	"gavel/contexts/distribution/payment-splitter-service/domain/entities"
	domainerrors "gavel/contexts/distribution/payment-splitter-service/domain/errors"
	"gavel/contexts/distribution/payment-splitter-service/domain/services"
	"gavel/contexts/distribution/payment-splitter-service/ports"
)

// DistributeCommand releases one payee's pending balance from one token pool.
// Token empty means the native pool. Exactly one of Payee / ProjectID is set.
type DistributeCommand struct {
	SplitterName string
	Token        string
	Payee        string
	ProjectID    uint64
	Memo         string
}

type DistributeUseCase struct {
	Splitters ports.SplitterRepository
	Ledger    ports.Ledger
	Directory ports.Directory
	Terminals ports.TerminalGateway
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

type DistributeResult struct {
	Amount uint64
}

func (uc DistributeUseCase) Execute(ctx context.Context, cmd DistributeCommand) (DistributeResult, error) {
	token := strings.TrimSpace(cmd.Token)
	if token == "" {
		token = ports.NativeToken
	}

	splitter, err := uc.Splitters.GetSplitter(ctx, strings.TrimSpace(cmd.SplitterName))
	if err != nil {
		return DistributeResult{}, err
	}

	payeeKey := entities.Payee{Address: strings.TrimSpace(cmd.Payee)}.Key()
	if cmd.ProjectID != 0 {
		payeeKey = entities.Payee{ProjectID: cmd.ProjectID}.Key()
	}
	payee, registered := splitter.FindPayee(payeeKey)
	if !registered {
		return DistributeResult{}, domainerrors.ErrNoShare
	}

	poolBalance, err := uc.Ledger.Balance(ctx, token, splitter.Account())
	if err != nil {
		return DistributeResult{}, err
	}
	amount := services.Pending(splitter, token, payeeKey, poolBalance)
	if amount == 0 {
		return DistributeResult{}, domainerrors.ErrNothingDue
	}

	// Resolve the payout route before touching release bookkeeping.
	var terminalID string
	if payee.IsProject() {
		terminalID, err = uc.Directory.PrimaryTerminalOf(ctx, payee.ProjectID, token)
		if err != nil {
			return DistributeResult{}, err
		}
		if terminalID == "" {
			return DistributeResult{}, domainerrors.ErrPaymentFailure
		}
	}

	splitter.RecordRelease(token, payeeKey, amount)
	if err := uc.Splitters.UpdateSplitter(ctx, splitter); err != nil {
		return DistributeResult{}, err
	}

	if payee.IsProject() {
		if err := uc.Terminals.AddToBalance(ctx, terminalID, payee.ProjectID, token, splitter.Account(), amount, cmd.Memo); err != nil {
			return DistributeResult{}, err
		}
	} else {
		if err := uc.Ledger.Transfer(ctx, token, splitter.Account(), payee.Address, amount); err != nil {
			return DistributeResult{}, err
		}
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return DistributeResult{}, err
		}
		payload := map[string]any{
			"amount": amount,
		}
		if payee.IsProject() {
			payload["project_id"] = payee.ProjectID
		} else {
			payload["payee"] = payee.Address
		}
		if token != ports.NativeToken {
			payload["token"] = token
		}
		envelope, err := newSplitterEnvelope(eventID, releaseEventType(token, payee.IsProject()), splitter.Name, uc.Clock.Now().UTC(), payload)
		if err != nil {
			return DistributeResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return DistributeResult{}, err
		}
	}

	application.ResolveLogger(uc.Logger).Info("splitter payment released",
		"event", "splitter_payment_released",
		"module", "distribution/payment-splitter-service",
		"layer", "application",
		"splitter_name", splitter.Name,
		"payee_key", payeeKey,
		"token", token,
		"amount", amount,
	)
	return DistributeResult{Amount: amount}, nil
}
