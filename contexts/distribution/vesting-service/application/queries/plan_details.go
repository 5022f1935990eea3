package queries

import (
	"context"
	"strings"

	"gavel/contexts/distribution/vesting-service/domain/entities"
	"gavel/contexts/distribution/vesting-service/ports"
)

type PlanDetailsQuery struct {
	PlanID string
}

type PlanDetailsResult struct {
	Plan          entities.Plan
	VestedPeriods uint64
	Releasable    uint64
	Unvested      uint64
}

// PlanDetailsUseCase reports a plan together with its vesting position at
// the current clock reading.
type PlanDetailsUseCase struct {
	Plans ports.PlanRepository
	Clock ports.Clock
}

func (uc PlanDetailsUseCase) Execute(ctx context.Context, query PlanDetailsQuery) (PlanDetailsResult, error) {
	plan, err := uc.Plans.GetPlan(ctx, strings.TrimSpace(query.PlanID))
	if err != nil {
		return PlanDetailsResult{}, err
	}
	now := uc.Clock.Now().UTC()
	return PlanDetailsResult{
		Plan:          plan,
		VestedPeriods: plan.VestedPeriods(now),
		Releasable:    plan.Releasable(now),
		Unvested:      plan.Unvested(now),
	}, nil
}

type UnvestedBalanceQuery struct {
	PlanID string
}

type UnvestedBalanceResult struct {
	Unvested uint64
}

// UnvestedBalanceUseCase returns the portion of the grant the sponsor would
// recover if the plan were terminated now.
type UnvestedBalanceUseCase struct {
	Plans ports.PlanRepository
	Clock ports.Clock
}

func (uc UnvestedBalanceUseCase) Execute(ctx context.Context, query UnvestedBalanceQuery) (UnvestedBalanceResult, error) {
	plan, err := uc.Plans.GetPlan(ctx, strings.TrimSpace(query.PlanID))
	if err != nil {
		return UnvestedBalanceResult{}, err
	}
	return UnvestedBalanceResult{Unvested: plan.Unvested(uc.Clock.Now().UTC())}, nil
}
