// Package web provides the JSON HTTP API over the house registry.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/curbing/internal/logging"
	"github.com/evcraddock/curbing/internal/registry"
	"github.com/evcraddock/curbing/internal/session"
)

// Server is the curbing HTTP server.
type Server struct {
	reg     *registry.Registry
	sess    *session.Session
	logger  *slog.Logger
	metrics http.Handler
	timeout time.Duration
	mux     *http.ServeMux
	handler http.Handler
}

// DefaultOperationTimeout bounds a state-changing request once it no
// longer follows the client's context.
const DefaultOperationTimeout = 2 * time.Minute

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics serves h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithOperationTimeout bounds each state-changing operation. Values of zero
// or less are ignored.
func WithOperationTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer creates a server over reg and sess.
func NewServer(reg *registry.Registry, sess *session.Session, opts ...Option) *Server {
	s := &Server{
		reg:     reg,
		sess:    sess,
		logger:  slog.Default(),
		timeout: DefaultOperationTimeout,
		mux:     http.NewServeMux(),
	}
	for _, o := range opts {
		o(s)
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics)
	}
	s.mux.HandleFunc("/api/houses", s.handleAPIHouses)
	s.mux.HandleFunc("/api/houses/", s.handleAPIHouses)
	s.mux.HandleFunc("/api/reload", s.apiReload)
	s.mux.HandleFunc("/api/finish-day", s.apiFinishDay)

	s.handler = logging.RequestLogger(s.logger, s.mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// detach returns a context for work that changes state. It keeps the
// request's values but not its cancellation, so a client that hangs up
// does not abandon a mutation halfway.
func (s *Server) detach(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), s.timeout)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]any{"status": "ok", "loaded": s.reg.State().Loaded}, http.StatusOK)
}
