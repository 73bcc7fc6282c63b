package plans

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrPlanNotFound reports that no plan document exists for the id.
var ErrPlanNotFound = errors.New("plan not found")

// Library resolves plan documents under a single root directory. A plan
// for id lives at <root>/<id>.md or <root>/<id>/plan.md, checked in
// that order. Lookups cache resolved paths until Invalidate is called.
type Library struct {
	root string

	mu    sync.Mutex
	paths map[string]string
}

func NewLibrary(root string) *Library {
	return &Library{
		root:  root,
		paths: make(map[string]string),
	}
}

func (l *Library) Root() string {
	return l.root
}

// Read returns the plan document for id. Returns ErrPlanNotFound when
// neither candidate path exists.
func (l *Library) Read(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrPlanNotFound
	}
	path, err := l.resolve(id)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.forget(id)
			return "", fmt.Errorf("plan %s: %w", id, ErrPlanNotFound)
		}
		return "", fmt.Errorf("read plan %s: %w", id, err)
	}
	return string(content), nil
}

// Invalidate drops every cached path. The next Read re-probes the
// filesystem.
func (l *Library) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = make(map[string]string)
}

func (l *Library) resolve(id string) (string, error) {
	l.mu.Lock()
	if path, ok := l.paths[id]; ok {
		l.mu.Unlock()
		return path, nil
	}
	l.mu.Unlock()

	candidates := []string{
		filepath.Join(l.root, id+".md"),
		filepath.Join(l.root, id, "plan.md"),
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		l.mu.Lock()
		l.paths[id] = candidate
		l.mu.Unlock()
		return candidate, nil
	}
	return "", fmt.Errorf("plan %s: %w", id, ErrPlanNotFound)
}

func (l *Library) forget(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.paths, id)
}
