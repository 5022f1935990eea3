package errors

import "errors"

// Sentinel errors carry the splitter contract's stable error codes.
var (
	ErrNoShare                = errors.New("NO_SHARE")
	ErrNothingDue             = errors.New("NOTHING_DUE")
	ErrInvalidPayee           = errors.New("INVALID_PAYEE")
	ErrInvalidShare           = errors.New("INVALID_SHARE")
	ErrInvalidShareTotal      = errors.New("INVALID_SHARE_TOTAL")
	ErrInvalidLength          = errors.New("INVALID_LENGTH")
	ErrInvalidDirectory       = errors.New("INVALID_DIRECTORY")
	ErrMissingProjectTerminal = errors.New("MISSING_PROJECT_TERMINAL")
	ErrSplitterExists         = errors.New("SPLITTER_EXISTS")
	ErrUnknownSplitter        = errors.New("UNKNOWN_SPLITTER")
	ErrUnauthorized           = errors.New("UNAUTHORIZED")
	ErrPaymentFailure         = errors.New("PAYMENT_FAILURE")
)
