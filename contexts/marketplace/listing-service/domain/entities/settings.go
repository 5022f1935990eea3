package entities

import (
	"time"

	"gavel/internal/shared/ppb"
)

// MaxFeeRatePPB caps the protocol fee at 10%.
const MaxFeeRatePPB uint64 = 100_000_000

// Settings is the singleton marketplace configuration. Mutated only through
// owner-gated admin commands.
type Settings struct {
	Owner               string
	ProjectID           uint64
	FeeReceiverTerminal string
	FeeRatePPB          uint64
	AllowPublicSales    bool
	AllowPublicAuctions bool
	PricingPeriod       time.Duration
	MinBidIncrementPPB  uint64
	AuthorizedSellers   map[string]bool
	UpdatedAt           time.Time
}

func (s Settings) SellerAuthorized(seller string, auction bool) bool {
	if auction {
		if s.AllowPublicAuctions {
			return true
		}
	} else if s.AllowPublicSales {
		return true
	}
	return s.AuthorizedSellers[seller]
}

func ValidFeeRate(ratePPB uint64) bool {
	return ratePPB <= MaxFeeRatePPB
}

// ValidBidIncrement bounds the increment at 100%; ppb.Share rejects anything
// above the denominator.
func ValidBidIncrement(incrementPPB uint64) bool {
	return incrementPPB <= ppb.Denominator
}
