// Package registry keeps the local, ordered list of houses in sync with a
// store.Store.
//
// The registry separates confirmed state (what the store acknowledged) from
// the view it exposes through State, which overlays status updates that are
// still in flight. Remote calls are made without holding the lock; every
// local mutation is applied atomically and announced to subscribers.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/evcraddock/curbing/internal/house"
	"github.com/evcraddock/curbing/internal/store"
)

// Policy decides what the view shows after a status update fails remotely.
type Policy int

const (
	// KeepOptimistic keeps showing the requested status, flagged unconfirmed.
	KeepOptimistic Policy = iota
	// RollbackOnFailure drops the update so the confirmed status shows again.
	RollbackOnFailure
)

func (p Policy) String() string {
	if p == RollbackOnFailure {
		return "rollback"
	}
	return "keep"
}

// ParsePolicy accepts "keep" or "rollback".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "keep":
		return KeepOptimistic, nil
	case "rollback":
		return RollbackOnFailure, nil
	}
	return KeepOptimistic, fmt.Errorf("unknown policy %q", s)
}

// ErrRemoveInProgress is returned when a remove of the same id is already in flight.
var ErrRemoveInProgress = errors.New("remove already in progress")

// State is a snapshot of the registry.
type State struct {
	Version     uint64        `json:"version"`
	Houses      []house.House `json:"houses"`
	Loading     bool          `json:"loading"`
	Loaded      bool          `json:"loaded"`
	Submitting  bool          `json:"submitting"`
	Draft       string        `json:"draft"`
	Deleting    []string      `json:"deleting"`
	Unconfirmed []string      `json:"unconfirmed"`
}

type update struct {
	seq    uint64
	status house.Status
}

// Registry owns the local house list.
type Registry struct {
	store  store.Store
	logger *slog.Logger
	policy Policy

	mu      sync.Mutex
	houses  []house.House
	pending map[string][]update // in flight, in issue order
	failed  map[string]update   // rejected remotely but still shown (KeepOptimistic)
	settled map[string]uint64   // highest seq confirmed per id
	seq     uint64

	issuedLoad  uint64
	appliedLoad uint64
	loading     int

	// Creates and removes confirmed while a load is in flight, keyed by
	// mutation number, so an older load result cannot undo them.
	mutation uint64
	created  map[string]uint64
	removed  map[string]uint64

	loaded      bool
	submitting  int
	draft       string
	deleting    map[string]bool

	version   uint64
	listeners map[int]func(State)
	nextSub   int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithPolicy sets the status update failure policy.
func WithPolicy(p Policy) Option {
	return func(r *Registry) { r.policy = p }
}

// New creates an empty registry backed by s.
func New(s store.Store, opts ...Option) *Registry {
	r := &Registry{
		store:     s,
		logger:    slog.Default(),
		pending:   make(map[string][]update),
		failed:    make(map[string]update),
		settled:   make(map[string]uint64),
		deleting:  make(map[string]bool),
		created:   make(map[string]uint64),
		removed:   make(map[string]uint64),
		listeners: make(map[int]func(State)),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Policy returns the configured failure policy.
func (r *Registry) Policy() Policy { return r.policy }

// LoadActive replaces the local list with the store's active houses, in
// store order. A result never replaces one from a later-issued load, and
// houses created or removed after the load started stay that way. On
// failure the previous list is kept.
func (r *Registry) LoadActive(ctx context.Context) error {
	r.mu.Lock()
	r.issuedLoad++
	gen := r.issuedLoad
	since := r.mutation
	r.loading++
	r.unlockAndNotify()

	houses, err := r.store.Query(ctx, store.ActiveFilter())

	r.mu.Lock()
	r.loading--
	switch {
	case err != nil:
		r.logger.Error("loading houses", "kind", store.KindOf(err), "error", err)
	case gen < r.appliedLoad:
		r.logger.Debug("discarding stale load", "load", gen, "applied", r.appliedLoad)
	default:
		r.appliedLoad = gen
		r.houses = r.reconcile(houses, since)
		r.loaded = true
		clear(r.failed)
	}
	if r.loading == 0 {
		clear(r.created)
		clear(r.removed)
	}
	r.unlockAndNotify()

	if err != nil {
		return fmt.Errorf("loading houses: %w", err)
	}
	return nil
}

// SetDraft records the address currently being typed.
func (r *Registry) SetDraft(address string) {
	r.mu.Lock()
	r.draft = address
	r.unlockAndNotify()
}

// Draft returns the address currently being typed.
func (r *Registry) Draft() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft
}

// Create inserts a new Unvisited house and prepends the stored record.
// Blank addresses are rejected without a remote call and leave the draft
// alone; otherwise the draft is cleared once the store responds.
func (r *Registry) Create(ctx context.Context, address string) (house.House, error) {
	addr, err := house.NormalizeAddress(address)
	if err != nil {
		r.logger.Warn("rejecting house", "address", address, "error", err)
		return house.House{}, store.NewError("create", "", store.KindInvalid, err)
	}

	r.mu.Lock()
	r.submitting++
	r.unlockAndNotify()

	h, err := r.insert(ctx, addr)

	r.mu.Lock()
	r.submitting--
	r.draft = ""
	if err == nil {
		r.houses = slices.DeleteFunc(r.houses, func(x house.House) bool { return x.ID == h.ID })
		r.houses = slices.Insert(r.houses, 0, h)
		if r.loading > 0 {
			r.mutation++
			r.created[h.ID] = r.mutation
		}
	}
	r.unlockAndNotify()

	if err != nil {
		r.logger.Error("creating house", "address", addr, "kind", store.KindOf(err), "error", err)
		return house.House{}, fmt.Errorf("creating house: %w", err)
	}
	r.logger.Info("house created", "id", h.ID, "address", h.Address)
	return h, nil
}

func (r *Registry) insert(ctx context.Context, addr string) (house.House, error) {
	id, err := r.store.Insert(ctx, store.Fields{Address: addr, Status: house.StatusUnvisited})
	if err != nil {
		return house.House{}, err
	}
	return r.store.Get(ctx, id)
}

// UpdateStatus shows the new status immediately, then writes it to the
// store. What the view shows on failure depends on the Policy.
func (r *Registry) UpdateStatus(ctx context.Context, id string, status house.Status) error {
	if !status.IsValid() {
		err := store.NewError("update", id, store.KindInvalid, fmt.Errorf("invalid status: %q", status))
		r.logger.Warn("rejecting status update", "id", id, "error", err)
		return err
	}

	r.mu.Lock()
	if r.index(id) < 0 {
		r.mu.Unlock()
		err := store.NotFound("update", id)
		r.logger.Warn("rejecting status update", "id", id, "error", err)
		return err
	}
	r.seq++
	u := update{seq: r.seq, status: status}
	r.pending[id] = append(r.pending[id], u)
	r.unlockAndNotify()

	err := r.store.UpdateStatus(ctx, id, status)

	r.mu.Lock()
	r.pending[id] = slices.DeleteFunc(r.pending[id], func(p update) bool { return p.seq == u.seq })
	if len(r.pending[id]) == 0 {
		delete(r.pending, id)
	}
	switch {
	case err == nil:
		if u.seq > r.settled[id] {
			r.settled[id] = u.seq
			if i := r.index(id); i >= 0 {
				r.houses[i].Status = status
			}
			if f, ok := r.failed[id]; ok && f.seq < u.seq {
				delete(r.failed, id)
			}
		}
	case r.policy == KeepOptimistic:
		if f, ok := r.failed[id]; u.seq > r.settled[id] && (!ok || f.seq < u.seq) {
			r.failed[id] = u
		}
	}
	r.unlockAndNotify()

	if err != nil {
		r.logger.Error("updating status", "id", id, "status", status, "policy", r.policy, "kind", store.KindOf(err), "error", err)
		return fmt.Errorf("updating status of %s: %w", id, err)
	}
	r.logger.Debug("status updated", "id", id, "status", status)
	return nil
}

// Remove deletes a house remotely, then drops it from the local list.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	if r.index(id) < 0 {
		r.mu.Unlock()
		err := store.NotFound("delete", id)
		r.logger.Warn("rejecting remove", "id", id, "error", err)
		return err
	}
	if r.deleting[id] {
		r.mu.Unlock()
		r.logger.Warn("rejecting remove", "id", id, "error", ErrRemoveInProgress)
		return fmt.Errorf("removing %s: %w", id, ErrRemoveInProgress)
	}
	r.deleting[id] = true
	r.unlockAndNotify()

	err := r.store.Delete(ctx, id)

	r.mu.Lock()
	delete(r.deleting, id)
	if err == nil {
		r.houses = slices.DeleteFunc(r.houses, func(h house.House) bool { return h.ID == id })
		delete(r.failed, id)
		delete(r.settled, id)
		if r.loading > 0 {
			r.mutation++
			r.removed[id] = r.mutation
			delete(r.created, id)
		}
	}
	r.unlockAndNotify()

	if err != nil {
		r.logger.Error("removing house", "id", id, "kind", store.KindOf(err), "error", err)
		return fmt.Errorf("removing %s: %w", id, err)
	}
	r.logger.Info("house removed", "id", id)
	return nil
}

// State returns the current view.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Confirmed returns the houses with the statuses the store acknowledged.
func (r *Registry) Confirmed() []house.House {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.houses)
}

// Len returns the number of houses in the local list.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.houses)
}

// Subscribe registers fn to receive a snapshot after every change and
// returns a function that removes it. Snapshots from concurrent changes can
// arrive out of order; compare Version to drop older ones.
func (r *Registry) Subscribe(fn func(State)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.listeners[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// unlockAndNotify bumps the version, releases r.mu and hands the new
// snapshot to every listener. Listeners run after the lock is released so
// they may call back into r.
func (r *Registry) unlockAndNotify() {
	r.version++
	if len(r.listeners) == 0 {
		r.mu.Unlock()
		return
	}
	st := r.snapshot()
	fns := make([]func(State), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (r *Registry) snapshot() State {
	st := State{
		Version:    r.version,
		Houses:     make([]house.House, len(r.houses)),
		Loading:    r.loading > 0,
		Loaded:     r.loaded,
		Submitting: r.submitting > 0,
		Draft:      r.draft,
	}
	for i, h := range r.houses {
		if p := r.pending[h.ID]; len(p) > 0 {
			h.Status = p[len(p)-1].status
			st.Unconfirmed = append(st.Unconfirmed, h.ID)
		} else if f, ok := r.failed[h.ID]; ok {
			h.Status = f.status
			st.Unconfirmed = append(st.Unconfirmed, h.ID)
		}
		st.Houses[i] = h
	}
	for id := range r.deleting {
		st.Deleting = append(st.Deleting, id)
	}
	slices.Sort(st.Deleting)
	return st
}

// reconcile applies the creates and removes confirmed after mutation since
// to a freshly loaded list. Houses created since then go first, newest first.
func (r *Registry) reconcile(loaded []house.House, since uint64) []house.House {
	loaded = slices.DeleteFunc(loaded, func(h house.House) bool { return r.removed[h.ID] > since })
	var fresh []house.House
	for _, h := range r.houses {
		if r.created[h.ID] <= since {
			continue
		}
		loaded = slices.DeleteFunc(loaded, func(x house.House) bool { return x.ID == h.ID })
		fresh = append(fresh, h)
	}
	return append(fresh, loaded...)
}

func (r *Registry) index(id string) int {
	return slices.IndexFunc(r.houses, func(h house.House) bool { return h.ID == id })
}
