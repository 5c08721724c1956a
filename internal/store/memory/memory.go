// Package memory provides an in-process store.Store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/evcraddock/curbing/internal/house"
	"github.com/evcraddock/curbing/internal/store"
)

// Hooks run before the matching operation, outside the store lock.
// A non-nil error fails the operation without touching the data,
// which lets callers inject failures or hold a call in flight.
type Hooks struct {
	Insert func(ctx context.Context, f store.Fields) error
	Get    func(ctx context.Context, id string) error
	Update func(ctx context.Context, id string, status house.Status) error
	Delete func(ctx context.Context, id string) error
	Query  func(ctx context.Context, f store.Filter) error
}

// Store keeps documents in a map plus an insertion-ordered id slice.
type Store struct {
	mu    sync.Mutex
	docs  map[string]house.House
	order []string
	hooks Hooks
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithHooks installs per-operation hooks.
func WithHooks(h Hooks) Option {
	return func(s *Store) { s.hooks = h }
}

// WithIDs overrides ID generation.
func WithIDs(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		docs:  make(map[string]house.House),
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Seed appends documents as-is, keeping their IDs. Intended for tests and demos.
func (s *Store) Seed(houses ...house.House) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range houses {
		if _, ok := s.docs[h.ID]; !ok {
			s.order = append(s.order, h.ID)
		}
		s.docs[h.ID] = h
	}
}

// Insert implements store.Store.
func (s *Store) Insert(ctx context.Context, f store.Fields) (string, error) {
	if err := f.Validate(); err != nil {
		return "", store.NewError("insert", "", store.KindInvalid, err)
	}
	if err := s.before(ctx, "insert", "", func() error {
		if s.hooks.Insert == nil {
			return nil
		}
		return s.hooks.Insert(ctx, f)
	}); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.docs[id] = house.House{ID: id, Address: f.Address, Status: f.Status}
	s.order = append(s.order, id)
	return id, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, id string) (house.House, error) {
	if err := s.before(ctx, "get", id, func() error {
		if s.hooks.Get == nil {
			return nil
		}
		return s.hooks.Get(ctx, id)
	}); err != nil {
		return house.House{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.docs[id]
	if !ok {
		return house.House{}, store.NotFound("get", id)
	}
	return h, nil
}

// UpdateStatus implements store.Store.
func (s *Store) UpdateStatus(ctx context.Context, id string, status house.Status) error {
	if !status.IsValid() {
		return store.NewError("update", id, store.KindInvalid, fmt.Errorf("invalid status: %q", status))
	}
	if err := s.before(ctx, "update", id, func() error {
		if s.hooks.Update == nil {
			return nil
		}
		return s.hooks.Update(ctx, id, status)
	}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.docs[id]
	if !ok {
		return store.NotFound("update", id)
	}
	h.Status = status
	s.docs[id] = h
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.before(ctx, "delete", id, func() error {
		if s.hooks.Delete == nil {
			return nil
		}
		return s.hooks.Delete(ctx, id)
	}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return store.NotFound("delete", id)
	}
	delete(s.docs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Query implements store.Store.
func (s *Store) Query(ctx context.Context, f store.Filter) ([]house.House, error) {
	if err := f.Validate(); err != nil {
		return nil, store.NewError("query", "", store.KindInvalid, err)
	}
	if err := s.before(ctx, "query", "", func() error {
		if s.hooks.Query == nil {
			return nil
		}
		return s.hooks.Query(ctx, f)
	}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []house.House
	for _, id := range s.order {
		if h := s.docs[id]; f.Match(h) {
			out = append(out, h)
		}
	}
	return out, nil
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// before checks the context and runs the hook, wrapping any failure.
func (s *Store) before(ctx context.Context, op, id string, hook func() error) error {
	if err := ctx.Err(); err != nil {
		return store.Wrap(op, id, err)
	}
	return store.Wrap(op, id, hook())
}
