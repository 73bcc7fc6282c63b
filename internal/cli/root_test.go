package cli

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVersionCommandPrintsVersion(t *testing.T) {
	var out bytes.Buffer
	root := NewRoot(testLogger())
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != version {
		t.Fatalf("version output = %q, want %q", got, version)
	}
}

func TestTasksCommandPrintsSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tasks" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"t1","title":"Fix login","stage":"BUILD","metadata":{"adw_id":"adw-3"}}],"count":1}`))
	}))
	defer server.Close()
	t.Setenv("TASKDECK_SERVER_URL", server.URL)

	var out bytes.Buffer
	root := NewRoot(testLogger())
	root.SetOut(&out)
	root.SetArgs([]string{"tasks"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"t1", "build", "Fix login", "adw-3"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}
