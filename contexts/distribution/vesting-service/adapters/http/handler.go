package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"gavel/contexts/distribution/vesting-service/application/commands"
	"gavel/contexts/distribution/vesting-service/application/queries"
	"gavel/contexts/distribution/vesting-service/domain/entities"
	domainerrors "gavel/contexts/distribution/vesting-service/domain/errors"
	httptransport "gavel/contexts/distribution/vesting-service/transport/http"
)

type Handler struct {
	CreatePlan      commands.CreatePlanUseCase
	DistributeAward commands.DistributeAwardUseCase
	TerminatePlan   commands.TerminatePlanUseCase
	PlanDetails     queries.PlanDetailsUseCase
	UnvestedBalance queries.UnvestedBalanceUseCase
	Logger          *slog.Logger
}

func (h Handler) CreatePlanHandler(
	ctx context.Context,
	sponsor string,
	req httptransport.CreatePlanRequest,
) (httptransport.PlanDetailsResponse, error) {
	cliff, err := time.Parse(time.RFC3339, req.Cliff)
	if err != nil {
		return httptransport.PlanDetailsResponse{}, domainerrors.ErrInvalidConfiguration
	}
	result, err := h.CreatePlan.Execute(ctx, commands.CreatePlanCommand{
		Sponsor:        sponsor,
		Recipient:      req.Recipient,
		Token:          req.Token,
		PeriodicGrant:  req.PeriodicGrant,
		Cliff:          cliff,
		PeriodDuration: time.Duration(req.PeriodSeconds) * time.Second,
		Periods:        req.Periods,
		Memo:           req.Memo,
	})
	if err != nil {
		return httptransport.PlanDetailsResponse{}, err
	}
	return httptransport.PlanDetailsResponse{Plan: mapPlan(result.Plan)}, nil
}

func (h Handler) DistributeAwardHandler(ctx context.Context, planID string) (httptransport.DistributeAwardResponse, error) {
	result, err := h.DistributeAward.Execute(ctx, commands.DistributeAwardCommand{PlanID: planID})
	if err != nil {
		return httptransport.DistributeAwardResponse{}, err
	}
	return httptransport.DistributeAwardResponse{
		Paid:      result.Paid,
		Remaining: result.Remaining,
	}, nil
}

func (h Handler) TerminatePlanHandler(ctx context.Context, caller, planID string) (httptransport.TerminatePlanResponse, error) {
	result, err := h.TerminatePlan.Execute(ctx, commands.TerminatePlanCommand{
		PlanID: planID,
		Caller: caller,
	})
	if err != nil {
		return httptransport.TerminatePlanResponse{}, err
	}
	return httptransport.TerminatePlanResponse{
		PaidToRecipient:   result.PaidToRecipient,
		RefundedToSponsor: result.RefundedToSponsor,
	}, nil
}

func (h Handler) PlanDetailsHandler(ctx context.Context, planID string) (httptransport.PlanDetailsResponse, error) {
	result, err := h.PlanDetails.Execute(ctx, queries.PlanDetailsQuery{PlanID: planID})
	if err != nil {
		return httptransport.PlanDetailsResponse{}, err
	}
	return httptransport.PlanDetailsResponse{
		Plan:          mapPlan(result.Plan),
		VestedPeriods: result.VestedPeriods,
		Releasable:    result.Releasable,
		Unvested:      result.Unvested,
	}, nil
}

func (h Handler) UnvestedBalanceHandler(ctx context.Context, planID string) (httptransport.UnvestedBalanceResponse, error) {
	result, err := h.UnvestedBalance.Execute(ctx, queries.UnvestedBalanceQuery{PlanID: planID})
	if err != nil {
		return httptransport.UnvestedBalanceResponse{}, err
	}
	return httptransport.UnvestedBalanceResponse{Unvested: result.Unvested}, nil
}

func mapPlan(plan entities.Plan) httptransport.PlanDTO {
	return httptransport.PlanDTO{
		PlanID:        plan.PlanID,
		Recipient:     plan.Recipient,
		Sponsor:       plan.Sponsor,
		Token:         plan.Token,
		PeriodicGrant: plan.PeriodicGrant,
		Cliff:         plan.Cliff.UTC().Format(time.RFC3339),
		PeriodSeconds: int64(plan.PeriodDuration / time.Second),
		Periods:       plan.Periods,
		Released:      plan.Released,
		Memo:          plan.Memo,
		CreatedAt:     plan.CreatedAt.UTC().Format(time.RFC3339),
	}
}
