package commands

import (
	"time"

	"gavel/contexts/marketplace/listing-service/ports"
	contractsv1 "gavel/contracts/gen/events/v1"
)

const sourceService = "marketplace/listing-service"

// Event type names reproduce the settlement contract's event signatures
// bit-for-bit; consumers key on them.
const (
	EventCreateFixedPriceSale   = "CreateFixedPriceSale"
	EventConcludeFixedPriceSale = "ConcludeFixedPriceSale"
	EventCreateDutchAuction     = "CreateDutchAuction"
	EventCreateEnglishAuction   = "CreateEnglishAuction"
	EventPlaceBid               = "PlaceBid"
	EventConcludeAuction        = "ConcludeAuction"
)

func newListingEnvelope(eventID, eventType, listingKey string, occurredAt time.Time, payload map[string]any) (ports.EventEnvelope, error) {
	return contractsv1.New(eventID, eventType, sourceService, "listing_key", listingKey, occurredAt, payload)
}
