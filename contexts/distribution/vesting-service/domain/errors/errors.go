package errors

import "errors"

// Sentinel errors carry the vesting contract's stable error codes.
var (
	ErrInvalidConfiguration   = errors.New("INVALID_CONFIGURATION")
	ErrDuplicateConfiguration = errors.New("DUPLICATE_CONFIGURATION")
	ErrCliffNotReached        = errors.New("CLIFF_NOT_REACHED")
	ErrIncompletePeriod       = errors.New("INCOMPLETE_PERIOD")
	ErrInvalidPlan            = errors.New("INVALID_PLAN")
	ErrUnauthorized           = errors.New("UNAUTHORIZED")
	ErrPaymentFailure         = errors.New("PAYMENT_FAILURE")
)
