package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	vestingerrors "gavel/contexts/distribution/vesting-service/domain/errors"
	vestinghttp "gavel/contexts/distribution/vesting-service/transport/http"
)

func (s *Server) registerVestingRoutes() {
	s.mux.HandleFunc("POST /api/vesting/v1/plans", s.idempotent(s.handleCreatePlan))
	s.mux.HandleFunc("GET /api/vesting/v1/plans/{plan_id}", s.handlePlanDetails)
	s.mux.HandleFunc("GET /api/vesting/v1/plans/{plan_id}/unvested", s.handleUnvestedBalance)
	s.mux.HandleFunc("POST /api/vesting/v1/plans/{plan_id}/distribute", s.idempotent(s.handleDistributeAward))
	s.mux.HandleFunc("DELETE /api/vesting/v1/plans/{plan_id}", s.handleTerminatePlan)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	sponsor := callerID(r)
	if sponsor == "" {
		writeVestingError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req vestinghttp.CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVestingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.vesting.Handler.CreatePlanHandler(r.Context(), sponsor, req)
	if err != nil {
		writeVestingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handlePlanDetails(w http.ResponseWriter, r *http.Request) {
	resp, err := s.vesting.Handler.PlanDetailsHandler(r.Context(), r.PathValue("plan_id"))
	if err != nil {
		writeVestingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnvestedBalance(w http.ResponseWriter, r *http.Request) {
	resp, err := s.vesting.Handler.UnvestedBalanceHandler(r.Context(), r.PathValue("plan_id"))
	if err != nil {
		writeVestingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDistributeAward(w http.ResponseWriter, r *http.Request) {
	resp, err := s.vesting.Handler.DistributeAwardHandler(r.Context(), r.PathValue("plan_id"))
	if err != nil {
		writeVestingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTerminatePlan(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writeVestingError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.vesting.Handler.TerminatePlanHandler(r.Context(), caller, r.PathValue("plan_id"))
	if err != nil {
		writeVestingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeVestingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vestingerrors.ErrInvalidPlan):
		writeVestingError(w, http.StatusNotFound, err.Error(), "no matching plan")
	case errors.Is(err, vestingerrors.ErrDuplicateConfiguration):
		writeVestingError(w, http.StatusConflict, err.Error(), "identical plan already exists")
	case errors.Is(err, vestingerrors.ErrInvalidConfiguration):
		writeVestingError(w, http.StatusUnprocessableEntity, err.Error(), "plan parameters are invalid")
	case errors.Is(err, vestingerrors.ErrCliffNotReached),
		errors.Is(err, vestingerrors.ErrIncompletePeriod):
		writeVestingError(w, http.StatusConflict, err.Error(), "nothing has vested yet")
	case errors.Is(err, vestingerrors.ErrUnauthorized):
		writeVestingError(w, http.StatusForbidden, err.Error(), "caller is not allowed to do that")
	case errors.Is(err, vestingerrors.ErrPaymentFailure):
		writeVestingError(w, http.StatusPaymentRequired, err.Error(), "funds movement failed")
	default:
		writeVestingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVestingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, vestinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
