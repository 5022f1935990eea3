package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"
)

// Plan is a linear vesting schedule with a cliff. The first period's grant
// releases at the cliff itself; each later period releases after a further
// PeriodDuration. Plans are keyed by a deterministic content hash of their
// parameters, so identical configurations collide by construction.
type Plan struct {
	PlanID         string
	Recipient      string
	Sponsor        string
	Token          string
	PeriodicGrant  uint64
	Cliff          time.Time
	PeriodDuration time.Duration
	Periods        uint64

	Released  uint64
	Memo      string
	CreatedAt time.Time
}

// PlanID derives the content hash identifying a plan configuration.
func PlanID(recipient, sponsor, token string, periodicGrant uint64, cliff time.Time, periodDuration time.Duration, periods uint64) string {
	payload := fmt.Sprintf("%s|%s|%s|%d|%d|%d|%d",
		recipient, sponsor, token, periodicGrant,
		cliff.UTC().Unix(), int64(periodDuration/time.Second), periods,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// TotalGrant is the full escrowed amount.
func (p Plan) TotalGrant() uint64 {
	return p.PeriodicGrant * p.Periods
}

// VestedPeriods counts how many periods have unlocked by now. Zero before
// the cliff.
func (p Plan) VestedPeriods(now time.Time) uint64 {
	if now.Before(p.Cliff) {
		return 0
	}
	vested := 1 + uint64(now.Sub(p.Cliff)/p.PeriodDuration)
	if vested > p.Periods {
		return p.Periods
	}
	return vested
}

// Releasable is the amount currently payable to the recipient.
func (p Plan) Releasable(now time.Time) uint64 {
	vested := p.VestedPeriods(now) * p.PeriodicGrant
	if vested <= p.Released {
		return 0
	}
	return vested - p.Released
}

// Unvested is the amount still locked by the schedule.
func (p Plan) Unvested(now time.Time) uint64 {
	return p.TotalGrant() - p.VestedPeriods(now)*p.PeriodicGrant
}

// Validate checks plan parameters at creation time. The grant-times-periods
// product must fit in uint64, otherwise TotalGrant would wrap and the wrong
// amount would be escrowed.
func (p Plan) Validate() bool {
	return p.Recipient != "" &&
		p.Sponsor != "" &&
		p.PeriodicGrant > 0 &&
		p.PeriodDuration > 0 &&
		p.Periods > 0 &&
		p.Periods <= math.MaxUint64/p.PeriodicGrant
}
