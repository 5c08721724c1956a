// Package store defines the document store contract that houses are
// persisted in, along with the error kinds every backend reports.
package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/evcraddock/curbing/internal/house"
)

// DefaultCollection is the collection houses are stored in.
const DefaultCollection = "curbing"

// Fields are the writable fields of a new document.
type Fields struct {
	Address string
	Status  house.Status
}

// Validate checks the fields before they are sent to a backend.
func (f Fields) Validate() error {
	if strings.TrimSpace(f.Address) == "" {
		return house.ErrEmptyAddress
	}
	if !f.Status.IsValid() {
		return fmt.Errorf("invalid status: %q", f.Status)
	}
	return nil
}

// Filter selects documents whose status equals any of AnyStatus.
// An empty filter matches every document.
type Filter struct {
	AnyStatus []house.Status
}

// ActiveFilter matches Unvisited OR No Answer.
func ActiveFilter() Filter {
	return Filter{AnyStatus: append([]house.Status(nil), house.ActiveStatuses...)}
}

// Match reports whether h satisfies the filter.
func (f Filter) Match(h house.House) bool {
	if len(f.AnyStatus) == 0 {
		return true
	}
	for _, s := range f.AnyStatus {
		if h.Status == s {
			return true
		}
	}
	return false
}

// Validate rejects filters that name unknown statuses.
func (f Filter) Validate() error {
	for _, s := range f.AnyStatus {
		if !s.IsValid() {
			return fmt.Errorf("invalid status in filter: %q", s)
		}
	}
	return nil
}

// Store is the remote collaborator holding house documents.
// Every method may block on I/O; implementations must be safe for
// concurrent use.
type Store interface {
	// Insert stores a new document and returns its assigned ID.
	Insert(ctx context.Context, f Fields) (string, error)
	// Get returns the document with the given ID.
	Get(ctx context.Context, id string) (house.House, error)
	// UpdateStatus sets the status of an existing document.
	UpdateStatus(ctx context.Context, id string, status house.Status) error
	// Delete removes a document.
	Delete(ctx context.Context, id string) error
	// Query returns matching documents in store order.
	Query(ctx context.Context, f Filter) ([]house.House, error)
	// Close releases the backend's resources.
	Close() error
}

var collectionRe = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// ValidCollection reports whether name is usable as a collection name
// (it doubles as a SQL table name and a Redis key prefix).
func ValidCollection(name string) bool {
	return collectionRe.MatchString(name)
}
