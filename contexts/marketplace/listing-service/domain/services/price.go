package services

import (
	"time"

	"gavel/contexts/marketplace/listing-service/domain/entities"
	"gavel/internal/shared/ppb"
)

// CurrentPrice is the pure pricing function for every sale mode.
//
// Fixed: the asking price while the window is open, 0 after expiry.
// Dutch: stepwise descent from StartPrice to EndPrice, dropping once per
// pricingPeriod and clamped at EndPrice from expiry onward. Monotonically
// non-increasing in now.
// English: the highest accepted bid, or BasePrice before any bid.
func CurrentPrice(listing entities.Listing, now time.Time, pricingPeriod time.Duration) uint64 {
	switch listing.Mode {
	case entities.ModeFixedPrice:
		if listing.Expired(now) && listing.State == entities.StateActive {
			return 0
		}
		return listing.Price

	case entities.ModeDutchAuction:
		return dutchPrice(listing, now, pricingPeriod)

	case entities.ModeEnglishAuction:
		if listing.HasBid() {
			return listing.BidAmount
		}
		return listing.BasePrice
	}
	return 0
}

func dutchPrice(listing entities.Listing, now time.Time, pricingPeriod time.Duration) uint64 {
	if listing.Expired(now) || pricingPeriod <= 0 {
		return listing.EndPrice
	}
	elapsed := now.Sub(listing.StartTime)
	if elapsed < 0 {
		return listing.StartPrice
	}

	totalPeriods := uint64(listing.Duration / pricingPeriod)
	if totalPeriods == 0 {
		return listing.StartPrice
	}
	elapsedPeriods := uint64(elapsed / pricingPeriod)
	if elapsedPeriods >= totalPeriods {
		return listing.EndPrice
	}

	span := listing.StartPrice - listing.EndPrice
	price := listing.StartPrice - ppb.MulDiv(span, elapsedPeriods, totalPeriods)
	if price < listing.EndPrice {
		return listing.EndPrice
	}
	return price
}

// TimeLeft returns the remaining sale window, floored at zero.
func TimeLeft(listing entities.Listing, now time.Time) time.Duration {
	left := listing.Expiration().Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
