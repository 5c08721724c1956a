// Package session runs the end-of-day workflow over a registry.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/curbing/internal/house"
	"github.com/evcraddock/curbing/internal/registry"
)

// DefaultConcurrency bounds the number of status resets in flight.
const DefaultConcurrency = 4

// ErrInProgress is returned when FinishDay is called while one is running.
var ErrInProgress = errors.New("finish day already in progress")

// Phase is the session's position in the finish-day workflow.
type Phase int

const (
	Idle Phase = iota
	Resetting
	Reloading
)

func (p Phase) String() string {
	switch p {
	case Resetting:
		return "resetting"
	case Reloading:
		return "reloading"
	default:
		return "idle"
	}
}

// Summary reports what a FinishDay run did.
type Summary struct {
	Scanned  int  `json:"scanned"`
	Reset    int  `json:"reset"`
	Failed   int  `json:"failed"`
	Reloaded bool `json:"reloaded"`
	// ReloadError is set when the closing reload failed.
	ReloadError string `json:"reload_error,omitempty"`
}

// Session resets unanswered houses and reloads the registry.
type Session struct {
	reg         *registry.Registry
	logger      *slog.Logger
	concurrency int

	mu    sync.Mutex
	phase Phase
}

// Option configures a Session.
type Option func(*Session)

// WithConcurrency limits concurrent status resets. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(s *Session) {
		if n >= 1 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates a Session over reg.
func New(reg *registry.Registry, opts ...Option) *Session {
	s := &Session{
		reg:         reg,
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// FinishDay sets every No Answer house in the current list back to
// Unvisited, waits until every house has settled, then reloads the active
// list. Individual reset failures are logged and counted; they do not stop
// the other resets or the reload.
func (s *Session) FinishDay(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	if s.phase != Idle {
		s.mu.Unlock()
		return Summary{}, ErrInProgress
	}
	s.phase = Resetting
	s.mu.Unlock()
	defer s.setPhase(Idle)

	houses := s.reg.State().Houses
	sum := Summary{Scanned: len(houses)}
	s.logger.Info("finishing day", "houses", len(houses))

	var reset, failed, remaining atomic.Int64
	remaining.Store(int64(len(houses)))
	done := make(chan struct{})
	settle := func() {
		if remaining.Add(-1) == 0 {
			close(done)
		}
	}
	if len(houses) == 0 {
		close(done)
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, h := range houses {
		if h.Status != house.StatusNoAnswer {
			settle()
			continue
		}
		g.Go(func() error {
			defer settle()
			if err := s.reg.UpdateStatus(ctx, h.ID, house.StatusUnvisited); err != nil {
				failed.Add(1)
				s.logger.Warn("resetting house", "id", h.ID, "error", err)
				return nil
			}
			reset.Add(1)
			return nil
		})
	}
	<-done
	_ = g.Wait()

	sum.Reset = int(reset.Load())
	sum.Failed = int(failed.Load())

	s.setPhase(Reloading)
	if err := s.reg.LoadActive(ctx); err != nil {
		err = fmt.Errorf("reloading after finish day: %w", err)
		sum.ReloadError = err.Error()
		return sum, err
	}
	sum.Reloaded = true
	s.logger.Info("day finished", "reset", sum.Reset, "failed", sum.Failed)
	return sum, nil
}
