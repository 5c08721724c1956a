package sqlstore

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/suite"

	"github.com/evcraddock/curbing/internal/db"
	"github.com/evcraddock/curbing/internal/house"
	"github.com/evcraddock/curbing/internal/store"
	"github.com/evcraddock/curbing/internal/store/storetest"
)

func TestSQLiteContract(t *testing.T) {
	suite.Run(t, &storetest.Suite{Open: func(t *testing.T) store.Store {
		return openTestStore(t, db.SQLite)
	}})
}

func TestPureSQLiteContract(t *testing.T) {
	suite.Run(t, &storetest.Suite{Open: func(t *testing.T) store.Store {
		return openTestStore(t, db.PureSQLite)
	}})
}

func TestPostgresContract(t *testing.T) {
	dsn := os.Getenv("CURBING_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CURBING_TEST_POSTGRES_DSN not set")
	}
	suite.Run(t, &storetest.Suite{Open: func(t *testing.T) store.Store {
		s, err := Open(db.Postgres, dsn, "curbing_test")
		if err != nil {
			t.Fatalf("open postgres: %v", err)
		}
		if _, err := s.DB().Exec("TRUNCATE curbing_test"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return s
	}})
}

func TestNewRejectsBadCollection(t *testing.T) {
	conn, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := New(conn, db.SQLite, "Bad-Name"); err == nil {
		t.Fatal("expected error for invalid collection")
	}
}

func TestPostgresPlaceholders(t *testing.T) {
	s, mock := mockStore(t, db.Postgres)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, address, status FROM curbing WHERE status = $1 OR status = $2 ORDER BY seq")).
		WithArgs("Unvisited", "No Answer").
		WillReturnRows(sqlmock.NewRows([]string{"id", "address", "status"}).
			AddRow("a", "1 Main St", "Unvisited").
			AddRow("b", "2 Main St", "No Answer"))

	got, err := s.Query(context.Background(), store.ActiveFilter())
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 || got[1].Status != house.StatusNoAnswer {
		t.Errorf("got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want store.Kind
	}{
		{"network", &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")}, store.KindUnavailable},
		{"sqlite readonly", sqlite3.Error{Code: sqlite3.ErrReadonly}, store.KindPermission},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, store.KindUnavailable},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, store.KindInvalid},
		{"postgres privilege", &pgconn.PgError{Code: "42501"}, store.KindPermission},
		{"postgres admin shutdown", &pgconn.PgError{Code: "57P01"}, store.KindUnavailable},
		{"postgres check violation", &pgconn.PgError{Code: "23514"}, store.KindInvalid},
		{"other", errors.New("boom"), store.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := mockStore(t, db.SQLite)
			mock.ExpectExec(regexp.QuoteMeta("UPDATE curbing SET status = ?")).
				WithArgs("Accepted", "abc").
				WillReturnError(tt.err)

			err := s.UpdateStatus(context.Background(), "abc", house.StatusAccepted)
			if got := store.KindOf(err); got != tt.want {
				t.Errorf("kind = %v, want %v (err: %v)", got, tt.want, err)
			}
		})
	}
}

func TestUpdateNoRowsIsNotFound(t *testing.T) {
	s, mock := mockStore(t, db.SQLite)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE curbing SET status = ?")).
		WithArgs("Declined", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateStatus(context.Background(), "gone", house.StatusDeclined)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestDeleteNoRowsIsNotFound(t *testing.T) {
	s, mock := mockStore(t, db.SQLite)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM curbing WHERE id = ?")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Delete(context.Background(), "gone")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestInvalidWritesSkipDatabase(t *testing.T) {
	s, mock := mockStore(t, db.SQLite)

	if _, err := s.Insert(context.Background(), store.Fields{Address: "", Status: house.StatusUnvisited}); store.KindOf(err) != store.KindInvalid {
		t.Errorf("insert kind = %v, want invalid", store.KindOf(err))
	}
	if err := s.UpdateStatus(context.Background(), "a", "Maybe"); store.KindOf(err) != store.KindInvalid {
		t.Errorf("update kind = %v, want invalid", store.KindOf(err))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database calls: %v", err)
	}
}

func openTestStore(t *testing.T, d db.Dialect) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "curbing.db")
	s, err := Open(d, path, store.DefaultCollection)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func mockStore(t *testing.T, d db.Dialect) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	s, err := New(conn, d, store.DefaultCollection)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s, mock
}
