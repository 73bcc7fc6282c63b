package plans

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReadFlatPlanFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "task-42.md"), []byte("# Plan\n\ndo it"), 0o644); err != nil {
		t.Fatal(err)
	}

	library := NewLibrary(root)
	content, err := library.Read("task-42")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if content != "# Plan\n\ndo it" {
		t.Fatalf("Read() = %q", content)
	}
}

func TestReadNestedPlanFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "task-7")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plan.md"), []byte("nested"), 0o644); err != nil {
		t.Fatal(err)
	}

	content, err := NewLibrary(root).Read("task-7")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if content != "nested" {
		t.Fatalf("Read() = %q", content)
	}
}

func TestFlatFileWinsOverNested(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "p1.md"), []byte("flat"), 0o644); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(root, "p1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plan.md"), []byte("nested"), 0o644); err != nil {
		t.Fatal(err)
	}

	content, err := NewLibrary(root).Read("p1")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if content != "flat" {
		t.Fatalf("flat file should win, got %q", content)
	}
}

func TestReadMissingPlan(t *testing.T) {
	library := NewLibrary(t.TempDir())
	if _, err := library.Read("ghost"); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("Read() error = %v, want ErrPlanNotFound", err)
	}
	if _, err := library.Read(""); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("Read() with empty id error = %v, want ErrPlanNotFound", err)
	}
}

func TestInvalidateRefreshesResolution(t *testing.T) {
	root := t.TempDir()
	library := NewLibrary(root)

	if _, err := library.Read("late"); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("Read() before write error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "late.md"), []byte("arrived"), 0o644); err != nil {
		t.Fatal(err)
	}
	library.Invalidate()

	content, err := library.Read("late")
	if err != nil {
		t.Fatalf("Read() after invalidate error = %v", err)
	}
	if content != "arrived" {
		t.Fatalf("Read() = %q", content)
	}
}

func TestReadAfterDeletionReturnsNotFound(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "gone.md")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	library := NewLibrary(root)
	if _, err := library.Read("gone"); err != nil {
		t.Fatalf("first Read() error = %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := library.Read("gone"); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("Read() after delete error = %v, want ErrPlanNotFound", err)
	}
}
