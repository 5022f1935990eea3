package httpserver

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	paymentsplitterservice "gavel/contexts/distribution/payment-splitter-service"
	vestingservice "gavel/contexts/distribution/vesting-service"
	listingservice "gavel/contexts/marketplace/listing-service"
	"gavel/internal/platform/cache"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "gavel/internal/platform/httpserver/docs"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	addr        string
	marketplace listingservice.Module
	splitter    paymentsplitterservice.Module
	vesting     vestingservice.Module
	idempotency *cache.IdempotencyStore
}

func New(
	marketplace listingservice.Module,
	splitter paymentsplitterservice.Module,
	vesting vestingservice.Module,
	idempotency *cache.IdempotencyStore,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		marketplace: marketplace,
		splitter:    splitter,
		vesting:     vesting,
		idempotency: idempotency,
	}
	s.registerRoutes()
	return s
}

// Mux exposes the routing table for in-process tests.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.registerMarketRoutes()
	s.registerSplitterRoutes()
	s.registerVestingRoutes()
}

// idempotent replays the recorded response when a mutating request carries an
// Idempotency-Key it has seen before.
func (s *Server) idempotent(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if s.idempotency == nil || key == "" {
			next(w, r)
			return
		}
		key = r.Method + " " + r.URL.Path + " " + key
		if recorded, found := s.idempotency.Get(key); found {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(recorded.Status)
			_, _ = w.Write(recorded.Body)
			return
		}

		recorder := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		if recorder.status < http.StatusInternalServerError {
			s.idempotency.Put(key, cache.Response{
				Status: recorder.status,
				Body:   recorder.body.Bytes(),
			})
		}
	}
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func callerID(r *http.Request) string {
	if caller := strings.TrimSpace(r.Header.Get("X-User-Id")); caller != "" {
		return caller
	}
	return strings.TrimSpace(r.Header.Get("X-Subject-Id"))
}
