package sqlstore

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/evcraddock/curbing/internal/store"
)

// SQLite primary result codes, shared by both SQLite drivers.
const (
	sqlitePerm       = 3
	sqliteBusy       = 5
	sqliteLocked     = 6
	sqliteReadonly   = 8
	sqliteIOErr      = 10
	sqliteCantOpen   = 14
	sqliteConstraint = 19
	sqliteAuth       = 23
)

// classify maps driver errors from mattn/go-sqlite3, modernc.org/sqlite
// and pgx to store kinds.
func classify(err error) store.Kind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPostgres(pgErr.Code)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return store.KindUnavailable
	}

	var mattnErr sqlite3.Error
	if errors.As(err, &mattnErr) {
		return classifySQLite(int(mattnErr.Code))
	}

	// modernc.org/sqlite errors expose their result code through Code().
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return classifySQLite(coded.Code() & 0xff)
	}

	return store.KindUnknown
}

func classifySQLite(code int) store.Kind {
	switch code {
	case sqlitePerm, sqliteReadonly, sqliteAuth:
		return store.KindPermission
	case sqliteConstraint:
		return store.KindInvalid
	case sqliteBusy, sqliteLocked, sqliteIOErr, sqliteCantOpen:
		return store.KindUnavailable
	}
	return store.KindUnknown
}

func classifyPostgres(code string) store.Kind {
	switch {
	case code == "42501", strings.HasPrefix(code, "28"):
		return store.KindPermission
	case strings.HasPrefix(code, "23"), strings.HasPrefix(code, "22"):
		return store.KindInvalid
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "57P"), strings.HasPrefix(code, "53"):
		return store.KindUnavailable
	}
	return store.KindUnknown
}
