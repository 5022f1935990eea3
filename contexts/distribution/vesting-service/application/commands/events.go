package commands

import (
	"time"

	"gavel/contexts/distribution/vesting-service/ports"
	contractsv1 "gavel/contracts/gen/events/v1"
)

const sourceService = "distribution/vesting-service"

// Event type names reproduce the vesting contract's event signatures
// bit-for-bit; consumers key on them.
const (
	EventCreatePlan      = "CreatePlan"
	EventDistributeAward = "DistributeAward"
)

func newPlanEnvelope(eventID, eventType, planID string, occurredAt time.Time, payload map[string]any) (ports.EventEnvelope, error) {
	return contractsv1.New(eventID, eventType, sourceService, "plan_id", planID, occurredAt, payload)
}
