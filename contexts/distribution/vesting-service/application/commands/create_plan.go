package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "gavel/contexts/distribution/vesting-service/application"
	"gavel/contexts/distribution/vesting-service/domain/entities"
	domainerrors "gavel/contexts/distribution/vesting-service/domain/errors"
	"gavel/contexts/distribution/vesting-service/ports"
)

type CreatePlanCommand struct {
	Sponsor        string
	Recipient      string
	Token          string
	PeriodicGrant  uint64
	Cliff          time.Time
	PeriodDuration time.Duration
	Periods        uint64
	Memo           string
}

type CreatePlanUseCase struct {
	Plans  ports.PlanRepository
	Ledger ports.Ledger
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

type CreatePlanResult struct {
	Plan entities.Plan
}

// Execute registers a vesting plan and escrows the full grant from the
// sponsor through a ledger allowance.
func (uc CreatePlanUseCase) Execute(ctx context.Context, cmd CreatePlanCommand) (CreatePlanResult, error) {
	token := strings.TrimSpace(cmd.Token)
	if token == "" {
		token = ports.NativeToken
	}
	plan := entities.Plan{
		Recipient:      strings.TrimSpace(cmd.Recipient),
		Sponsor:        strings.TrimSpace(cmd.Sponsor),
		Token:          token,
		PeriodicGrant:  cmd.PeriodicGrant,
		Cliff:          cmd.Cliff.UTC(),
		PeriodDuration: cmd.PeriodDuration,
		Periods:        cmd.Periods,
		Memo:           cmd.Memo,
		CreatedAt:      uc.Clock.Now().UTC(),
	}
	if !plan.Validate() {
		return CreatePlanResult{}, domainerrors.ErrInvalidConfiguration
	}
	plan.PlanID = entities.PlanID(plan.Recipient, plan.Sponsor, plan.Token,
		plan.PeriodicGrant, plan.Cliff, plan.PeriodDuration, plan.Periods)

	if err := uc.Plans.CreatePlan(ctx, plan); err != nil {
		return CreatePlanResult{}, err
	}

	// Escrow the full grant; an allowance or balance shortfall aborts the
	// transaction and the adapter rolls back the plan row.
	if err := uc.Ledger.TransferFrom(ctx, plan.Token, plan.Sponsor, ports.EscrowAccount, ports.EscrowAccount, plan.TotalGrant()); err != nil {
		_ = uc.Plans.DeletePlan(ctx, plan.PlanID)
		return CreatePlanResult{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return CreatePlanResult{}, err
		}
		envelope, err := newPlanEnvelope(eventID, EventCreatePlan, plan.PlanID, plan.CreatedAt, map[string]any{
			"recipient":       plan.Recipient,
			"sponsor":         plan.Sponsor,
			"token":           plan.Token,
			"periodic_grant":  plan.PeriodicGrant,
			"cliff":           plan.Cliff.Unix(),
			"period_duration": int64(plan.PeriodDuration / time.Second),
			"periods":         plan.Periods,
			"memo":            plan.Memo,
			"plan_id":         plan.PlanID,
		})
		if err != nil {
			return CreatePlanResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return CreatePlanResult{}, err
		}
	}

	application.ResolveLogger(uc.Logger).Info("vesting plan created",
		"event", "vesting_plan_created",
		"module", "distribution/vesting-service",
		"layer", "application",
		"plan_id", plan.PlanID,
		"recipient", plan.Recipient,
		"total_grant", plan.TotalGrant(),
	)
	return CreatePlanResult{Plan: plan}, nil
}
