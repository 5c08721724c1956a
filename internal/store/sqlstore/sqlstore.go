// Package sqlstore stores house documents in a SQL table, one table per
// collection. It speaks both SQLite and Postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/evcraddock/curbing/internal/db"
	"github.com/evcraddock/curbing/internal/house"
	"github.com/evcraddock/curbing/internal/store"
)

// Store is a store.Store over database/sql.
type Store struct {
	db      *sql.DB
	dialect db.Dialect
	table   string
	newID   func() string
}

var _ store.Store = (*Store)(nil)

// New wraps an already-migrated database.
func New(conn *sql.DB, d db.Dialect, collection string) (*Store, error) {
	if !store.ValidCollection(collection) {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}
	return &Store{db: conn, dialect: d, table: collection, newID: uuid.NewString}, nil
}

// Open opens and migrates the database, then wraps it.
func Open(d db.Dialect, dsn, collection string) (*Store, error) {
	conn, err := db.Open(d, dsn, collection)
	if err != nil {
		return nil, err
	}
	s, err := New(conn, d, collection)
	if err != nil {
		if cerr := conn.Close(); cerr != nil {
			return nil, fmt.Errorf("%w (also failed to close: %v)", err, cerr)
		}
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying connection pool.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) ph(n int) string { return s.dialect.Placeholder(n) }

// Insert implements store.Store.
func (s *Store) Insert(ctx context.Context, f store.Fields) (string, error) {
	if err := f.Validate(); err != nil {
		return "", store.NewError("insert", "", store.KindInvalid, err)
	}

	id := s.newID()
	query := fmt.Sprintf("INSERT INTO %s (id, address, status) VALUES (%s, %s, %s)",
		s.table, s.ph(1), s.ph(2), s.ph(3))
	if _, err := s.db.ExecContext(ctx, query, id, f.Address, string(f.Status)); err != nil {
		return "", store.Wrap("insert", "", fmt.Errorf("inserting house: %w", err), classify)
	}
	return id, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, id string) (house.House, error) {
	query := fmt.Sprintf("SELECT id, address, status FROM %s WHERE id = %s", s.table, s.ph(1))

	var h house.House
	var status string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&h.ID, &h.Address, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return house.House{}, store.NotFound("get", id)
	}
	if err != nil {
		return house.House{}, store.Wrap("get", id, fmt.Errorf("querying house: %w", err), classify)
	}
	h.Status = house.Status(status)
	return h, nil
}

// UpdateStatus implements store.Store.
func (s *Store) UpdateStatus(ctx context.Context, id string, status house.Status) error {
	if !status.IsValid() {
		return store.NewError("update", id, store.KindInvalid, fmt.Errorf("invalid status: %q", status))
	}

	query := fmt.Sprintf("UPDATE %s SET status = %s, updated_at = CURRENT_TIMESTAMP WHERE id = %s",
		s.table, s.ph(1), s.ph(2))
	result, err := s.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return store.Wrap("update", id, fmt.Errorf("updating status: %w", err), classify)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return store.Wrap("update", id, fmt.Errorf("checking rows affected: %w", err), classify)
	}
	if rows == 0 {
		return store.NotFound("update", id)
	}
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = %s", s.table, s.ph(1))
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return store.Wrap("delete", id, fmt.Errorf("deleting house: %w", err), classify)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return store.Wrap("delete", id, fmt.Errorf("checking rows affected: %w", err), classify)
	}
	if rows == 0 {
		return store.NotFound("delete", id)
	}
	return nil
}

// Query implements store.Store.
func (s *Store) Query(ctx context.Context, f store.Filter) (houses []house.House, err error) {
	if err := f.Validate(); err != nil {
		return nil, store.NewError("query", "", store.KindInvalid, err)
	}

	query, args := s.selectQuery(f)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Wrap("query", "", fmt.Errorf("listing houses: %w", err), classify)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = store.Wrap("query", "", fmt.Errorf("closing rows: %w", closeErr), classify)
		}
	}()

	for rows.Next() {
		var h house.House
		var status string
		if err := rows.Scan(&h.ID, &h.Address, &status); err != nil {
			return nil, store.Wrap("query", "", fmt.Errorf("scanning house: %w", err), classify)
		}
		h.Status = house.Status(status)
		houses = append(houses, h)
	}

	if err := rows.Err(); err != nil {
		return nil, store.Wrap("query", "", fmt.Errorf("iterating houses: %w", err), classify)
	}

	return houses, nil
}

// selectQuery builds the OR-of-equalities query for f.
func (s *Store) selectQuery(f store.Filter) (string, []any) {
	query := fmt.Sprintf("SELECT id, address, status FROM %s", s.table)
	var args []any
	var conditions []string

	for i, st := range f.AnyStatus {
		conditions = append(conditions, "status = "+s.ph(i+1))
		args = append(args, string(st))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " OR ")
	}

	query += " ORDER BY seq"
	return query, args
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.db.Close()
}
