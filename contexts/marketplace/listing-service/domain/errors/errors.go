package errors

import "errors"

// Sentinel errors carry the stable error codes of the settlement contract.
// The code strings are part of the observable API surface; transports expose
// them verbatim.
var (
	ErrSaleExists        = errors.New("SALE_EXISTS")
	ErrAuctionExists     = errors.New("AUCTION_EXISTS")
	ErrInvalidPrice      = errors.New("INVALID_PRICE")
	ErrInvalidDuration   = errors.New("INVALID_DURATION")
	ErrInvalidSplits     = errors.New("INVALID_SPLITS")
	ErrNotAuthorized     = errors.New("NOT_AUTHORIZED")
	ErrInvalidSale       = errors.New("INVALID_SALE")
	ErrSaleEnded         = errors.New("SALE_ENDED")
	ErrSaleInProgress    = errors.New("SALE_IN_PROGRESS")
	ErrInvalidAuction    = errors.New("INVALID_AUCTION")
	ErrAuctionEnded      = errors.New("AUCTION_ENDED")
	ErrAuctionInProgress = errors.New("AUCTION_IN_PROGRESS")
	ErrInvalidBid        = errors.New("INVALID_BID")
	ErrInvalidFeeRate    = errors.New("INVALID_FEERATE")
	ErrUnauthorized      = errors.New("UNAUTHORIZED")
	ErrPaymentFailure    = errors.New("PAYMENT_FAILURE")
)
