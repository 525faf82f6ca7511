package dashboard

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/encoding/json"

	"github.com/sawpanic/fundarb/internal/metrics"
	"github.com/sawpanic/fundarb/internal/model"
)

// Server is the read-only HTTP status surface: /healthz, /status (the
// opportunity projection as JSON), and /metrics (Prometheus exposition).
type Server struct {
	router *mux.Router
	server *http.Server
	opps   func() []model.Opportunity
}

// NewServer builds a Server bound to addr. opps is called fresh on every
// /status request; it must return a safe point-in-time copy
// (Engine.Opportunities already does).
func NewServer(addr string, opps func() []model.Opportunity, reg *prometheus.Registry) (*Server, error) {
	if err := checkPortAvailable(addr); err != nil {
		return nil, err
	}
	s := &Server{router: mux.NewRouter(), opps: opps}
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.timeoutMiddleware)

	api := s.router.PathPrefix("/").Subrouter()
	api.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	if reg != nil {
		api.Handle("/metrics", metrics.Handler(reg)).Methods(http.MethodGet)
	}
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Start runs the server until it errors or is shut down; ErrServerClosed
// is swallowed so callers can treat a clean Shutdown as success.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus serves every current opportunity, in the order opps returns
// them, as JSON — the HTTP counterpart to the text Render sink. No top-N
// cut is applied.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"opportunities": s.opps(),
		"time":          time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": "not found"})
}

// checkPortAvailable fails fast with a readable error if addr is already
// bound.
func checkPortAvailable(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is busy or unavailable: %w", addr, err)
	}
	return l.Close()
}
