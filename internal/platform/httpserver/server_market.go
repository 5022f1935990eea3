package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	marketerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	markethttp "gavel/contexts/marketplace/listing-service/transport/http"
)

func (s *Server) registerMarketRoutes() {
	s.mux.HandleFunc("POST /api/market/v1/listings", s.idempotent(s.handleCreateListing))
	s.mux.HandleFunc("GET /api/market/v1/listings/{asset_contract}/{token_id}", s.handleGetListing)
	s.mux.HandleFunc("GET /api/market/v1/listings/{asset_contract}/{token_id}/price", s.handleCurrentPrice)
	s.mux.HandleFunc("POST /api/market/v1/listings/{asset_contract}/{token_id}/offer", s.idempotent(s.handleTakeOffer))
	s.mux.HandleFunc("POST /api/market/v1/listings/{asset_contract}/{token_id}/bids", s.idempotent(s.handlePlaceBid))
	s.mux.HandleFunc("POST /api/market/v1/listings/{asset_contract}/{token_id}/settle", s.idempotent(s.handleSettleListing))
	s.mux.HandleFunc("POST /api/market/v1/listings/{asset_contract}/{token_id}/distribute", s.idempotent(s.handleDistributeProceeds))
	s.mux.HandleFunc("PUT /api/market/v1/listings/{asset_contract}/{token_id}/splits", s.handleUpdateSplits)
	s.mux.HandleFunc("PATCH /api/market/v1/settings", s.handleUpdateSettings)
}

func listingPathParams(w http.ResponseWriter, r *http.Request) (string, uint64, bool) {
	assetContract := r.PathValue("asset_contract")
	tokenID, err := strconv.ParseUint(r.PathValue("token_id"), 10, 64)
	if err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_token_id", "token_id must be an unsigned integer")
		return "", 0, false
	}
	return assetContract, tokenID, true
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	seller := callerID(r)
	if seller == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req markethttp.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.marketplace.Handler.CreateListingHandler(r.Context(), seller, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	assetContract, tokenID, ok := listingPathParams(w, r)
	if !ok {
		return
	}
	resp, err := s.marketplace.Handler.GetListingHandler(r.Context(), assetContract, tokenID)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCurrentPrice(w http.ResponseWriter, r *http.Request) {
	assetContract, tokenID, ok := listingPathParams(w, r)
	if !ok {
		return
	}
	resp, err := s.marketplace.Handler.CurrentPriceHandler(r.Context(), assetContract, tokenID)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTakeOffer(w http.ResponseWriter, r *http.Request) {
	buyer := callerID(r)
	if buyer == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	assetContract, tokenID, ok := listingPathParams(w, r)
	if !ok {
		return
	}
	var req markethttp.TakeOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.marketplace.Handler.TakeOfferHandler(r.Context(), buyer, assetContract, tokenID, req); err != nil {
		writeMarketDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	bidder := callerID(r)
	if bidder == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	assetContract, tokenID, ok := listingPathParams(w, r)
	if !ok {
		return
	}
	var req markethttp.PlaceBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.marketplace.Handler.PlaceBidHandler(r.Context(), bidder, assetContract, tokenID, req); err != nil {
		writeMarketDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSettleListing(w http.ResponseWriter, r *http.Request) {
	assetContract, tokenID, ok := listingPathParams(w, r)
	if !ok {
		return
	}
	var req markethttp.SettleListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.marketplace.Handler.SettleListingHandler(r.Context(), assetContract, tokenID, req); err != nil {
		writeMarketDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDistributeProceeds(w http.ResponseWriter, r *http.Request) {
	assetContract, tokenID, ok := listingPathParams(w, r)
	if !ok {
		return
	}
	var req markethttp.SettleListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.marketplace.Handler.DistributeProceedsHandler(r.Context(), assetContract, tokenID, req); err != nil {
		writeMarketDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateSplits(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	assetContract, tokenID, ok := listingPathParams(w, r)
	if !ok {
		return
	}
	var req markethttp.UpdateSplitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.marketplace.Handler.UpdateSplitsHandler(r.Context(), caller, assetContract, tokenID, req); err != nil {
		writeMarketDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req markethttp.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.marketplace.Handler.UpdateSettingsHandler(r.Context(), caller, req); err != nil {
		writeMarketDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeMarketDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, marketerrors.ErrSaleExists),
		errors.Is(err, marketerrors.ErrAuctionExists):
		writeMarketError(w, http.StatusConflict, err.Error(), "asset is already listed")
	case errors.Is(err, marketerrors.ErrInvalidSale),
		errors.Is(err, marketerrors.ErrInvalidAuction):
		writeMarketError(w, http.StatusNotFound, err.Error(), "no matching listing")
	case errors.Is(err, marketerrors.ErrSaleEnded),
		errors.Is(err, marketerrors.ErrAuctionEnded):
		writeMarketError(w, http.StatusGone, err.Error(), "listing has expired")
	case errors.Is(err, marketerrors.ErrSaleInProgress),
		errors.Is(err, marketerrors.ErrAuctionInProgress):
		writeMarketError(w, http.StatusConflict, err.Error(), "listing cannot settle yet")
	case errors.Is(err, marketerrors.ErrInvalidPrice),
		errors.Is(err, marketerrors.ErrInvalidDuration),
		errors.Is(err, marketerrors.ErrInvalidSplits),
		errors.Is(err, marketerrors.ErrInvalidBid),
		errors.Is(err, marketerrors.ErrInvalidFeeRate):
		writeMarketError(w, http.StatusUnprocessableEntity, err.Error(), "request violates listing rules")
	case errors.Is(err, marketerrors.ErrNotAuthorized),
		errors.Is(err, marketerrors.ErrUnauthorized):
		writeMarketError(w, http.StatusForbidden, err.Error(), "caller is not allowed to do that")
	case errors.Is(err, marketerrors.ErrPaymentFailure):
		writeMarketError(w, http.StatusPaymentRequired, err.Error(), "funds movement failed")
	default:
		writeMarketError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeMarketError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, markethttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
