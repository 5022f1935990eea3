package commands

import (
	"context"
	"log/slog"
	"strings"

	application "gavel/contexts/distribution/payment-splitter-service/application"
	domainerrors "gavel/contexts/distribution/payment-splitter-service/domain/errors"
	"gavel/contexts/distribution/payment-splitter-service/ports"
)

type ReceivePaymentCommand struct {
	SplitterName string
	From         string
	Amount       uint64
}

// ReceivePaymentUseCase credits the splitter's native pool. Token pools have
// no entry point of their own; they accrue by direct ledger transfer to the
// splitter account.
type ReceivePaymentUseCase struct {
	Splitters ports.SplitterRepository
	Ledger    ports.Ledger
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc ReceivePaymentUseCase) Execute(ctx context.Context, cmd ReceivePaymentCommand) error {
	from := strings.TrimSpace(cmd.From)
	if from == "" || cmd.Amount == 0 {
		return domainerrors.ErrPaymentFailure
	}

	splitter, err := uc.Splitters.GetSplitter(ctx, strings.TrimSpace(cmd.SplitterName))
	if err != nil {
		return err
	}

	if err := uc.Ledger.Transfer(ctx, ports.NativeToken, from, splitter.Account(), cmd.Amount); err != nil {
		return err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		envelope, err := newSplitterEnvelope(eventID, EventPaymentReceived, splitter.Name, uc.Clock.Now().UTC(), map[string]any{
			"from":   from,
			"amount": cmd.Amount,
		})
		if err != nil {
			return err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return err
		}
	}

	application.ResolveLogger(uc.Logger).Info("splitter payment received",
		"event", "splitter_payment_received",
		"module", "distribution/payment-splitter-service",
		"layer", "application",
		"splitter_name", splitter.Name,
		"from", from,
		"amount", cmd.Amount,
	)
	return nil
}
