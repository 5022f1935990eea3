package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SplitDTO struct {
	Beneficiary        string `json:"beneficiary,omitempty"`
	Allocator          string `json:"allocator,omitempty"`
	ProjectID          uint64 `json:"project_id,omitempty"`
	PercentPPB         uint64 `json:"percent_ppb"`
	PreferClaimed      bool   `json:"prefer_claimed,omitempty"`
	PreferAddToBalance bool   `json:"prefer_add_to_balance,omitempty"`
	LockedUntil        string `json:"locked_until,omitempty"`
}

type CreateListingRequest struct {
	Mode            string     `json:"mode"`
	AssetContract   string     `json:"asset_contract"`
	TokenID         uint64     `json:"token_id"`
	Price           uint64     `json:"price,omitempty"`
	StartPrice      uint64     `json:"start_price,omitempty"`
	EndPrice        uint64     `json:"end_price,omitempty"`
	BasePrice       uint64     `json:"base_price,omitempty"`
	ReservePrice    uint64     `json:"reserve_price,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	Splits          []SplitDTO `json:"splits,omitempty"`
	Memo            string     `json:"memo,omitempty"`
}

type TakeOfferRequest struct {
	Amount uint64 `json:"amount"`
	Memo   string `json:"memo,omitempty"`
}

type PlaceBidRequest struct {
	Amount uint64 `json:"amount"`
	Memo   string `json:"memo,omitempty"`
}

type SettleListingRequest struct {
	Memo string `json:"memo,omitempty"`
}

type UpdateSplitsRequest struct {
	Splits []SplitDTO `json:"splits"`
}

type UpdateSettingsRequest struct {
	FeeRatePPB          *uint64 `json:"fee_rate_ppb,omitempty"`
	FeeReceiverTerminal *string `json:"fee_receiver_terminal,omitempty"`
	AllowPublicSales    *bool   `json:"allow_public_sales,omitempty"`
	AllowPublicAuctions *bool   `json:"allow_public_auctions,omitempty"`
	MinBidIncrementPPB  *uint64 `json:"min_bid_increment_ppb,omitempty"`
	AuthorizeSeller     *string `json:"authorize_seller,omitempty"`
	RevokeSeller        *string `json:"revoke_seller,omitempty"`
}

type ListingDTO struct {
	AssetContract   string     `json:"asset_contract"`
	TokenID         uint64     `json:"token_id"`
	Seller          string     `json:"seller"`
	Mode            string     `json:"mode"`
	State           string     `json:"state"`
	Price           uint64     `json:"price,omitempty"`
	StartPrice      uint64     `json:"start_price,omitempty"`
	EndPrice        uint64     `json:"end_price,omitempty"`
	BasePrice       uint64     `json:"base_price,omitempty"`
	ReservePrice    uint64     `json:"reserve_price,omitempty"`
	StartTime       string     `json:"start_time"`
	DurationSeconds int64      `json:"duration_seconds"`
	Bidder          string     `json:"bidder,omitempty"`
	BidAmount       uint64     `json:"bid_amount,omitempty"`
	Splits          []SplitDTO `json:"splits,omitempty"`
	Memo            string     `json:"memo,omitempty"`
	CurrentPrice    uint64     `json:"current_price"`
	TimeLeftSeconds int64      `json:"time_left_seconds"`
}

type GetListingResponse struct {
	Listing ListingDTO `json:"listing"`
}

type CurrentPriceResponse struct {
	CurrentPrice uint64 `json:"current_price"`
}
