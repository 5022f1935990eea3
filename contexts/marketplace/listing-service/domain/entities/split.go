package entities

import (
	"time"

	"gavel/internal/shared/ppb"
)

// Split is a proportional payee entry applied to sale proceeds after the
// protocol fee. Exactly one of Beneficiary, Allocator or ProjectID should be
// set; allocator takes precedence over beneficiary, project over both, which
// mirrors the routing order in Apply sites.
type Split struct {
	Beneficiary        string
	Allocator          string
	ProjectID          uint64
	PercentPPB         uint64
	PreferClaimed      bool
	PreferAddToBalance bool
	LockedUntil        time.Time
}

func (s Split) HasTarget() bool {
	return s.Beneficiary != "" || s.Allocator != "" || s.ProjectID != 0
}

// ValidateSplits enforces that percentages stay within the PPB denominator
// and every entry routes somewhere.
func ValidateSplits(splits []Split) bool {
	var total uint64
	for _, split := range splits {
		if split.PercentPPB == 0 || !split.HasTarget() {
			return false
		}
		total += split.PercentPPB
		if total > ppb.Denominator {
			return false
		}
	}
	return true
}
