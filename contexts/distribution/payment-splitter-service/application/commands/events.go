package commands

import (
	"time"

	"gavel/contexts/distribution/payment-splitter-service/ports"
	contractsv1 "gavel/contracts/gen/events/v1"
)

const sourceService = "distribution/payment-splitter-service"

// Event type names reproduce the splitter contract's event signatures
// bit-for-bit; consumers key on them.
const (
	EventPaymentReceived             = "PaymentReceived"
	EventPaymentReleased             = "PaymentReleased"
	EventProjectPaymentReleased      = "ProjectPaymentReleased"
	EventTokenPaymentReleased        = "TokenPaymentReleased"
	EventTokenProjectPaymentReleased = "TokenProjectPaymentReleased"
)

func newSplitterEnvelope(eventID, eventType, splitterName string, occurredAt time.Time, payload map[string]any) (ports.EventEnvelope, error) {
	return contractsv1.New(eventID, eventType, sourceService, "splitter_name", splitterName, occurredAt, payload)
}

// releaseEventType picks the release event name for a (token pool, payee
// kind) combination.
func releaseEventType(token string, project bool) string {
	native := token == ports.NativeToken
	switch {
	case native && project:
		return EventProjectPaymentReleased
	case native:
		return EventPaymentReleased
	case project:
		return EventTokenProjectPaymentReleased
	default:
		return EventTokenPaymentReleased
	}
}
