package entities

import (
	"fmt"
	"time"
)

type SaleMode string
type ListingState string

const (
	ModeFixedPrice     SaleMode = "fixed"
	ModeDutchAuction   SaleMode = "dutch"
	ModeEnglishAuction SaleMode = "english"

	// StateActive listings accept offers/bids. StateConcluded listings have a
	// recorded winner and wait for proceeds distribution (fixed-price mode
	// settles in two phases). Fully settled listings are deleted, so there is
	// no terminal state value in storage.
	StateActive    ListingState = "active"
	StateConcluded ListingState = "concluded"
)

// MaxListingDuration bounds the sale window; longer requests are rejected as
// INVALID_DURATION.
const MaxListingDuration = 365 * 24 * time.Hour

// Listing is an escrowed asset pending sale under one of three modes. Keyed
// uniquely by (AssetContract, TokenID); at most one active listing per key.
type Listing struct {
	AssetContract string
	TokenID       uint64
	Seller        string
	Mode          SaleMode

	// Price terms; which fields apply depends on Mode.
	Price        uint64 // fixed
	StartPrice   uint64 // dutch
	EndPrice     uint64 // dutch
	BasePrice    uint64 // english
	ReservePrice uint64 // english, 0 = no reserve

	StartTime time.Time
	Duration  time.Duration
	Splits    []Split

	Bidder    string
	BidAmount uint64

	State     ListingState
	Memo      string
	CreatedAt time.Time
}

// ListingKey derives the storage key for a (contract, token) pair.
func ListingKey(assetContract string, tokenID uint64) string {
	return fmt.Sprintf("%s/%d", assetContract, tokenID)
}

func (l Listing) Key() string {
	return ListingKey(l.AssetContract, l.TokenID)
}

func (l Listing) Expiration() time.Time {
	return l.StartTime.Add(l.Duration)
}

func (l Listing) Expired(now time.Time) bool {
	return !now.Before(l.Expiration())
}

func (l Listing) IsAuction() bool {
	return l.Mode == ModeDutchAuction || l.Mode == ModeEnglishAuction
}

// HasBid reports whether a bid or accepted offer has been recorded.
func (l Listing) HasBid() bool {
	return l.Bidder != "" && l.BidAmount > 0
}

// MeetsReserve reports whether the standing bid clears the english-mode
// reserve. Modes without a reserve always pass.
func (l Listing) MeetsReserve() bool {
	if l.Mode != ModeEnglishAuction || l.ReservePrice == 0 {
		return true
	}
	return l.BidAmount >= l.ReservePrice
}

// ValidatePriceTerms checks mode-specific price parameters. Amounts are
// already range-limited by the uint64 representation; zero and inverted
// ranges are the remaining invalid shapes.
func (l Listing) ValidatePriceTerms() bool {
	switch l.Mode {
	case ModeFixedPrice:
		return l.Price > 0
	case ModeDutchAuction:
		return l.EndPrice > 0 && l.StartPrice > l.EndPrice
	case ModeEnglishAuction:
		return l.BasePrice > 0 && (l.ReservePrice == 0 || l.ReservePrice >= l.BasePrice)
	default:
		return false
	}
}

func ValidDuration(d time.Duration) bool {
	return d > 0 && d <= MaxListingDuration
}
