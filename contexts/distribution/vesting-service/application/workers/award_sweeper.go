package workers

import (
	"context"
	"errors"
	"log/slog"

	application "gavel/contexts/distribution/vesting-service/application"
	"gavel/contexts/distribution/vesting-service/application/commands"
	domainerrors "gavel/contexts/distribution/vesting-service/domain/errors"
	"gavel/contexts/distribution/vesting-service/ports"
)

// AwardSweeper walks registered plans and pushes matured awards to their
// recipients so nobody has to poll for their own money.
type AwardSweeper struct {
	Plans      ports.PlanRepository
	Distribute commands.DistributeAwardUseCase
	BatchSize  int
	Disabled   bool
	Logger     *slog.Logger
}

func (j AwardSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	if j.Disabled {
		return nil
	}
	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}

	plans, err := j.Plans.ListPlans(ctx, limit)
	if err != nil {
		logger.Error("vesting sweep list failed",
			"event", "vesting_sweep_list_failed",
			"module", "distribution/vesting-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	var swept int
	for _, plan := range plans {
		_, err := j.Distribute.Execute(ctx, commands.DistributeAwardCommand{PlanID: plan.PlanID})
		switch {
		case err == nil:
			swept++
		case errors.Is(err, domainerrors.ErrCliffNotReached),
			errors.Is(err, domainerrors.ErrIncompletePeriod),
			errors.Is(err, domainerrors.ErrInvalidPlan):
			// Nothing due yet, or the plan was terminated under us.
			continue
		default:
			return err
		}
	}

	if swept > 0 {
		logger.Info("vesting sweep cycle completed",
			"event", "vesting_sweep_completed",
			"module", "distribution/vesting-service",
			"layer", "worker",
			"distributed_count", swept,
		)
	}
	return nil
}
