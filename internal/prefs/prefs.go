package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a durable key-value preference store backed by sqlite.
// taskdeck uses it to keep UI preferences (section collapse state, last
// board filters) across runs.
type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create prefs dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite pragmas: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) AutoMigrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at_unix INTEGER NOT NULL
	);`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("run migration: %w", err)
	}
	return nil
}

// Get returns the stored value for key, or fallback when the key has
// never been written.
func (s *Store) Get(ctx context.Context, key, fallback string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fallback, nil
		}
		return fallback, fmt.Errorf("get preference: %w", err)
	}
	return value, nil
}

// Set upserts a preference value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("preference key is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO preferences (key, value, updated_at_unix) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at_unix = excluded.updated_at_unix`,
		key,
		value,
		time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}

// GetBool reads a boolean preference stored as "1"/"0".
func (s *Store) GetBool(ctx context.Context, key string, fallback bool) (bool, error) {
	stored, err := s.Get(ctx, key, boolString(fallback))
	if err != nil {
		return fallback, err
	}
	switch stored {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return fallback, nil
	}
}

// SetBool writes a boolean preference as "1"/"0".
func (s *Store) SetBool(ctx context.Context, key string, value bool) error {
	return s.Set(ctx, key, boolString(value))
}

// SectionKey builds the preference key for a result section's collapse
// state.
func SectionKey(name string) string {
	return "section:" + name
}

func (s *Store) Close() error {
	return s.db.Close()
}

func boolString(value bool) string {
	if value {
		return "1"
	}
	return "0"
}
