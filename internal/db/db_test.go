package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name       string
		dialect    Dialect
		collection string
		setup      func(t *testing.T) string
		wantErr    bool
	}{
		{
			name:       "creates new database",
			dialect:    SQLite,
			collection: "curbing",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "curbing.db")
			},
		},
		{
			name:       "creates nested directories",
			dialect:    SQLite,
			collection: "curbing",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "a", "b", "curbing.db")
			},
		},
		{
			name:       "opens existing database",
			dialect:    SQLite,
			collection: "curbing",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "curbing.db")
				d, err := Open(SQLite, path, "curbing")
				if err != nil {
					t.Fatalf("setup: %v", err)
				}
				if err := d.Close(); err != nil {
					t.Fatalf("setup close: %v", err)
				}
				return path
			},
		},
		{
			name:       "pure go driver",
			dialect:    PureSQLite,
			collection: "curbing",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "curbing.db")
			},
		},
		{
			name:       "rejects bad collection name",
			dialect:    SQLite,
			collection: "curbing; DROP TABLE x",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "curbing.db")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			d, err := Open(tt.dialect, path, tt.collection)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer func() {
				if err := d.Close(); err != nil {
					t.Errorf("close: %v", err)
				}
			}()

			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Error("database file was not created")
			}
		})
	}
}

func TestWALMode(t *testing.T) {
	d := openTestDB(t)

	var mode string
	if err := d.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestMigrations(t *testing.T) {
	d := openTestDB(t)

	want := []string{"seq", "id", "address", "status", "created_at", "updated_at"}
	cols := tableColumns(t, d, "curbing")
	if len(cols) != len(want) {
		t.Fatalf("got %d columns, want %d: %v", len(cols), len(want), cols)
	}
	for i, c := range want {
		if cols[i] != c {
			t.Errorf("column %d = %q, want %q", i, cols[i], c)
		}
	}
}

func TestStatusConstraint(t *testing.T) {
	d := openTestDB(t)

	tests := []struct {
		name    string
		status  string
		wantErr bool
	}{
		{"Unvisited is valid", "Unvisited", false},
		{"Accepted is valid", "Accepted", false},
		{"Declined is valid", "Declined", false},
		{"No Answer is valid", "No Answer", false},
		{"lowercase is invalid", "unvisited", true},
		{"empty is invalid", "", true},
		{"unknown is invalid", "Maybe", true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Exec(`INSERT INTO curbing (id, address, status) VALUES (?, ?, ?)`,
				fmt.Sprintf("doc-%d", i), "123 Test St", tt.status)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAddressConstraint(t *testing.T) {
	d := openTestDB(t)

	_, err := d.Exec(`INSERT INTO curbing (id, address, status) VALUES (?, ?, ?)`, "doc-1", "", "Unvisited")
	if err == nil {
		t.Error("expected error for empty address")
	}
}

func TestUniqueID(t *testing.T) {
	d := openTestDB(t)

	insert := `INSERT INTO curbing (id, address, status) VALUES (?, ?, ?)`
	if _, err := d.Exec(insert, "doc-1", "1 Main St", "Unvisited"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := d.Exec(insert, "doc-1", "2 Main St", "Unvisited"); err == nil {
		t.Error("expected unique constraint violation")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curbing.db")

	// Open twice; migrations should not fail on second run
	d1, err := Open(SQLite, path, "curbing")
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := d1.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}

	d2, err := Open(SQLite, path, "curbing")
	if err != nil {
		t.Fatalf("second open (idempotency): %v", err)
	}
	if err := d2.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestDefaultPath(t *testing.T) {
	p, err := DefaultPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Base(p) != "curbing.db" {
		t.Errorf("expected filename curbing.db, got %s", filepath.Base(p))
	}

	dir := filepath.Base(filepath.Dir(p))
	if dir != ".curbing" {
		t.Errorf("expected directory .curbing, got %s", dir)
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		name    string
		want    Dialect
		wantErr bool
	}{
		{"sqlite3", SQLite, false},
		{"sqlite", PureSQLite, false},
		{"postgres", Postgres, false},
		{"mysql", Dialect{}, true},
	}
	for _, tt := range tests {
		got, err := DialectFor(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("DialectFor(%q) err = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("DialectFor(%q) = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	if got := SQLite.Placeholder(3); got != "?" {
		t.Errorf("sqlite placeholder = %q, want ?", got)
	}
	if got := Postgres.Placeholder(3); got != "$3" {
		t.Errorf("postgres placeholder = %q, want $3", got)
	}
}

// openTestDB creates a temporary database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "curbing.db")
	d, err := Open(SQLite, path, "curbing")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	return d
}

// tableColumns returns column names for a table using PRAGMA table_info.
func tableColumns(t *testing.T, d *sql.DB, table string) []string {
	t.Helper()
	rows, err := d.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		t.Fatalf("pragma table_info(%s): %v", table, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			t.Errorf("close rows: %v", err)
		}
	}()

	var cols []string
	for rows.Next() {
		var cid int
		var name, typ string
		var notnull int
		var dflt *string
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}
