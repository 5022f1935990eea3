package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	splittererrors "gavel/contexts/distribution/payment-splitter-service/domain/errors"
	splitterhttp "gavel/contexts/distribution/payment-splitter-service/transport/http"
)

func (s *Server) registerSplitterRoutes() {
	s.mux.HandleFunc("POST /api/splitters/v1/splitters", s.idempotent(s.handleCreateSplitter))
	s.mux.HandleFunc("GET /api/splitters/v1/splitters/{name}", s.handleGetSplitter)
	s.mux.HandleFunc("POST /api/splitters/v1/splitters/{name}/receive", s.idempotent(s.handleReceivePayment))
	s.mux.HandleFunc("POST /api/splitters/v1/splitters/{name}/distribute", s.idempotent(s.handleDistribute))
	s.mux.HandleFunc("POST /api/splitters/v1/splitters/{name}/payees", s.handleAddPayee)
	s.mux.HandleFunc("GET /api/splitters/v1/splitters/{name}/pending", s.handlePending)
}

func (s *Server) handleCreateSplitter(w http.ResponseWriter, r *http.Request) {
	owner := callerID(r)
	if owner == "" {
		writeSplitterError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req splitterhttp.CreateSplitterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSplitterError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.splitter.Handler.CreateSplitterHandler(r.Context(), owner, req)
	if err != nil {
		writeSplitterDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSplitter(w http.ResponseWriter, r *http.Request) {
	resp, err := s.splitter.Handler.GetSplitterHandler(r.Context(), r.PathValue("name"))
	if err != nil {
		writeSplitterDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReceivePayment(w http.ResponseWriter, r *http.Request) {
	from := callerID(r)
	if from == "" {
		writeSplitterError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req splitterhttp.ReceivePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSplitterError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.splitter.Handler.ReceivePaymentHandler(r.Context(), from, r.PathValue("name"), req); err != nil {
		writeSplitterDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	var req splitterhttp.DistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSplitterError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.splitter.Handler.DistributeHandler(r.Context(), r.PathValue("name"), req)
	if err != nil {
		writeSplitterDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddPayee(w http.ResponseWriter, r *http.Request) {
	caller := callerID(r)
	if caller == "" {
		writeSplitterError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req splitterhttp.AddPayeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSplitterError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.splitter.Handler.AddPayeeHandler(r.Context(), caller, r.PathValue("name"), req); err != nil {
		writeSplitterDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var projectID uint64
	if raw := query.Get("project_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeSplitterError(w, http.StatusBadRequest, "invalid_project_id", "project_id must be an unsigned integer")
			return
		}
		projectID = parsed
	}
	resp, err := s.splitter.Handler.PendingHandler(
		r.Context(),
		r.PathValue("name"),
		query.Get("token"),
		query.Get("payee"),
		projectID,
	)
	if err != nil {
		writeSplitterDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeSplitterDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, splittererrors.ErrUnknownSplitter):
		writeSplitterError(w, http.StatusNotFound, err.Error(), "no matching splitter")
	case errors.Is(err, splittererrors.ErrSplitterExists):
		writeSplitterError(w, http.StatusConflict, err.Error(), "splitter name is taken")
	case errors.Is(err, splittererrors.ErrNoShare),
		errors.Is(err, splittererrors.ErrNothingDue):
		writeSplitterError(w, http.StatusConflict, err.Error(), "nothing to distribute")
	case errors.Is(err, splittererrors.ErrInvalidPayee),
		errors.Is(err, splittererrors.ErrInvalidShare),
		errors.Is(err, splittererrors.ErrInvalidShareTotal),
		errors.Is(err, splittererrors.ErrInvalidLength),
		errors.Is(err, splittererrors.ErrInvalidDirectory),
		errors.Is(err, splittererrors.ErrMissingProjectTerminal):
		writeSplitterError(w, http.StatusUnprocessableEntity, err.Error(), "request violates splitter rules")
	case errors.Is(err, splittererrors.ErrUnauthorized):
		writeSplitterError(w, http.StatusForbidden, err.Error(), "caller is not allowed to do that")
	case errors.Is(err, splittererrors.ErrPaymentFailure):
		writeSplitterError(w, http.StatusPaymentRequired, err.Error(), "funds movement failed")
	default:
		writeSplitterError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeSplitterError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, splitterhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
