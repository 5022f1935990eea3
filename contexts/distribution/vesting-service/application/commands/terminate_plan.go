package commands

import (
	"context"
	"log/slog"
	"strings"

	application "gavel/contexts/distribution/vesting-service/application"
	domainerrors "gavel/contexts/distribution/vesting-service/domain/errors"
	"gavel/contexts/distribution/vesting-service/ports"
)

type TerminatePlanCommand struct {
	PlanID string
	Caller string
}

// TerminatePlanUseCase ends a plan early: the recipient keeps everything
// vested up to now, the sponsor takes back the rest.
type TerminatePlanUseCase struct {
	Plans  ports.PlanRepository
	Ledger ports.Ledger
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

type TerminatePlanResult struct {
	PaidToRecipient   uint64
	RefundedToSponsor uint64
}

func (uc TerminatePlanUseCase) Execute(ctx context.Context, cmd TerminatePlanCommand) (TerminatePlanResult, error) {
	plan, err := uc.Plans.GetPlan(ctx, strings.TrimSpace(cmd.PlanID))
	if err != nil {
		return TerminatePlanResult{}, err
	}
	if strings.TrimSpace(cmd.Caller) != plan.Sponsor {
		return TerminatePlanResult{}, domainerrors.ErrUnauthorized
	}

	now := uc.Clock.Now().UTC()
	payable := plan.Releasable(now)
	refund := plan.TotalGrant() - plan.Released - payable

	// Delete first so a concurrent Distribute observes INVALID_PLAN rather
	// than paying out of an emptied escrow.
	if err := uc.Plans.DeletePlan(ctx, plan.PlanID); err != nil {
		return TerminatePlanResult{}, err
	}
	if payable > 0 {
		if err := uc.Ledger.Transfer(ctx, plan.Token, ports.EscrowAccount, plan.Recipient, payable); err != nil {
			return TerminatePlanResult{}, err
		}
	}
	if refund > 0 {
		if err := uc.Ledger.Transfer(ctx, plan.Token, ports.EscrowAccount, plan.Sponsor, refund); err != nil {
			return TerminatePlanResult{}, err
		}
	}

	if uc.Outbox != nil && payable > 0 {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return TerminatePlanResult{}, err
		}
		envelope, err := newPlanEnvelope(eventID, EventDistributeAward, plan.PlanID, now, map[string]any{
			"plan_id":        plan.PlanID,
			"recipient":      plan.Recipient,
			"token":          plan.Token,
			"periodic_grant": plan.PeriodicGrant,
			"paid":           payable,
			"remaining":      refund,
		})
		if err != nil {
			return TerminatePlanResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return TerminatePlanResult{}, err
		}
	}

	application.ResolveLogger(uc.Logger).Info("vesting plan terminated",
		"event", "vesting_plan_terminated",
		"module", "distribution/vesting-service",
		"layer", "application",
		"plan_id", plan.PlanID,
		"paid", payable,
		"refunded", refund,
	)
	return TerminatePlanResult{PaidToRecipient: payable, RefundedToSponsor: refund}, nil
}
