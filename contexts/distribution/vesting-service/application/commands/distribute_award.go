package commands

import (
	"context"
	"log/slog"
	"strings"

	application "gavel/contexts/distribution/vesting-service/application"
	domainerrors "gavel/contexts/distribution/vesting-service/domain/errors"
	"gavel/contexts/distribution/vesting-service/ports"
)

type DistributeAwardCommand struct {
	PlanID string
}

// DistributeAwardUseCase pays out every period that has vested since the
// last distribution. Callable by anyone; the recipient is fixed by the plan.
type DistributeAwardUseCase struct {
	Plans  ports.PlanRepository
	Ledger ports.Ledger
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

type DistributeAwardResult struct {
	Paid      uint64
	Remaining uint64
}

func (uc DistributeAwardUseCase) Execute(ctx context.Context, cmd DistributeAwardCommand) (DistributeAwardResult, error) {
	plan, err := uc.Plans.GetPlan(ctx, strings.TrimSpace(cmd.PlanID))
	if err != nil {
		return DistributeAwardResult{}, err
	}

	now := uc.Clock.Now().UTC()
	if now.Before(plan.Cliff) {
		return DistributeAwardResult{}, domainerrors.ErrCliffNotReached
	}
	payable := plan.Releasable(now)
	if payable == 0 {
		return DistributeAwardResult{}, domainerrors.ErrIncompletePeriod
	}

	plan.Released += payable
	if err := uc.Plans.UpdatePlan(ctx, plan); err != nil {
		return DistributeAwardResult{}, err
	}
	if err := uc.Ledger.Transfer(ctx, plan.Token, ports.EscrowAccount, plan.Recipient, payable); err != nil {
		return DistributeAwardResult{}, err
	}
	remaining := plan.TotalGrant() - plan.Released

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return DistributeAwardResult{}, err
		}
		envelope, err := newPlanEnvelope(eventID, EventDistributeAward, plan.PlanID, now, map[string]any{
			"plan_id":        plan.PlanID,
			"recipient":      plan.Recipient,
			"token":          plan.Token,
			"periodic_grant": plan.PeriodicGrant,
			"paid":           payable,
			"remaining":      remaining,
		})
		if err != nil {
			return DistributeAwardResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return DistributeAwardResult{}, err
		}
	}

	application.ResolveLogger(uc.Logger).Info("vesting award distributed",
		"event", "vesting_award_distributed",
		"module", "distribution/vesting-service",
		"layer", "application",
		"plan_id", plan.PlanID,
		"paid", payable,
		"remaining", remaining,
	)
	return DistributeAwardResult{Paid: payable, Remaining: remaining}, nil
}
