package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewDevMode(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	l.Debug("test debug")
	l.Info("test info")

	if !bytes.Contains(buf.Bytes(), []byte("test debug")) {
		t.Error("expected debug message visible in dev mode")
	}
	if !bytes.Contains(buf.Bytes(), []byte("test info")) {
		t.Error("expected info message visible in dev mode")
	}
}

func TestNewProdMode(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	l.Debug("hidden")
	l.Info("prod test", "id", "abc")

	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Error("debug message should be dropped in prod mode")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if entry["msg"] != "prod test" || entry["id"] != "abc" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSetupInstallsDefault(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	l := Setup(false)
	if slog.Default() != l {
		t.Error("Setup should install the returned logger as default")
	}
}

func serve(t *testing.T, status int, path string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	req := httptest.NewRequest("GET", path, nil)
	RequestLogger(l, inner).ServeHTTP(httptest.NewRecorder(), req)
	return &buf
}

func TestRequestLogger(t *testing.T) {
	buf := serve(t, http.StatusOK, "/api/houses")

	if buf.Len() == 0 {
		t.Fatal("expected log output")
	}
	if !bytes.Contains(buf.Bytes(), []byte("GET")) {
		t.Error("expected method in log")
	}
	if !bytes.Contains(buf.Bytes(), []byte("/api/houses")) {
		t.Error("expected path in log")
	}
	if !bytes.Contains(buf.Bytes(), []byte("level=INFO")) {
		t.Error("expected info level for 200")
	}
}

func TestRequestLoggerSkipsProbes(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		if buf := serve(t, http.StatusOK, path); buf.Len() > 0 {
			t.Errorf("expected no log for %s", path)
		}
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusNotFound, "level=WARN"},
		{http.StatusServiceUnavailable, "level=ERROR"},
	}
	for _, tt := range tests {
		buf := serve(t, tt.status, "/api/houses/x")
		if !bytes.Contains(buf.Bytes(), []byte(tt.want)) {
			t.Errorf("status %d: expected %s in %q", tt.status, tt.want, buf.String())
		}
	}
}
