package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePlanRequest struct {
	Recipient     string `json:"recipient"`
	Token         string `json:"token,omitempty"`
	PeriodicGrant uint64 `json:"periodic_grant"`
	Cliff         string `json:"cliff"`
	PeriodSeconds int64  `json:"period_seconds"`
	Periods       uint64 `json:"periods"`
	Memo          string `json:"memo,omitempty"`
}

type PlanDTO struct {
	PlanID        string `json:"plan_id"`
	Recipient     string `json:"recipient"`
	Sponsor       string `json:"sponsor"`
	Token         string `json:"token"`
	PeriodicGrant uint64 `json:"periodic_grant"`
	Cliff         string `json:"cliff"`
	PeriodSeconds int64  `json:"period_seconds"`
	Periods       uint64 `json:"periods"`
	Released      uint64 `json:"released"`
	Memo          string `json:"memo,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type PlanDetailsResponse struct {
	Plan          PlanDTO `json:"plan"`
	VestedPeriods uint64  `json:"vested_periods"`
	Releasable    uint64  `json:"releasable"`
	Unvested      uint64  `json:"unvested"`
}

type DistributeAwardResponse struct {
	Paid      uint64 `json:"paid"`
	Remaining uint64 `json:"remaining"`
}

type TerminatePlanResponse struct {
	PaidToRecipient   uint64 `json:"paid_to_recipient"`
	RefundedToSponsor uint64 `json:"refunded_to_sponsor"`
}

type UnvestedBalanceResponse struct {
	Unvested uint64 `json:"unvested"`
}
