package services

import (
	"gavel/contexts/distribution/payment-splitter-service/domain/entities"
	"gavel/internal/shared/ppb"
)

// Pending computes how much a payee can pull from one token pool right now.
// The historical pool total is the live balance plus everything already
// released from that pool; the payee's cut is floored against the share
// denominator, minus what they have already drawn.
func Pending(splitter entities.Splitter, token, payeeKey string, poolBalance uint64) uint64 {
	share := splitter.ShareOf(payeeKey)
	if share == 0 {
		return 0
	}
	totalReceived := poolBalance + splitter.TotalReleased[token]
	owed := ppb.MulDiv(totalReceived, share, entities.TotalShareUnits)
	released := splitter.ReleasedTo(token, payeeKey)
	if owed <= released {
		return 0
	}
	return owed - released
}
