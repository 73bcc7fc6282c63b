package plans

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherInvalidatesCachedResolution(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "p1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plan.md"), []byte("nested"), 0o644); err != nil {
		t.Fatal(err)
	}

	library := NewLibrary(root)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	watcher, err := NewWatcher(library, logger, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)

	// Cache the nested resolution, then add the flat file that should
	// win once the watcher drops the cached path.
	if content, err := library.Read("p1"); err != nil || content != "nested" {
		t.Fatalf("Read() = %q, %v", content, err)
	}
	if err := os.WriteFile(filepath.Join(root, "p1.md"), []byte("flat"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		content, err := library.Read("p1")
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if content == "flat" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("watcher never invalidated the cached resolution")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}
