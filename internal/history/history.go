// Package history keeps a local SQLite ledger of renders: what was rendered,
// with which timeline and encoder, and how it ended.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown render ID.
var ErrNotFound = errors.New("render not found")

// ErrAmbiguousID is returned by Find when a prefix matches several renders.
var ErrAmbiguousID = errors.New("ambiguous render id")

// Status is the outcome of a render.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
	StatusDryRun Status = "dry-run"
)

// Entry is one row of the ledger.
type Entry struct {
	ID        string
	CreatedAt time.Time

	ImagePath  string
	AudioPath  string
	OutputPath string

	FrameRate      float64
	SourceDuration float64
	Frames         int64
	Duration       float64

	Encoder  string
	FellBack bool

	Status      Status
	Error       string
	OutputBytes int64
	Elapsed     time.Duration
	ObjectURL   string
}

// Store is an open ledger.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger at path, creating parent directories and
// applying pending migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps writes serialized without SQLITE_BUSY handling.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts e, assigning an ID and timestamp when they are unset.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO renders (
			id, created_at, image_path, audio_path, output_path,
			frame_rate, source_duration, frames, duration,
			encoder, fell_back, status, error, output_bytes, elapsed_ms, object_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UnixMilli(), e.ImagePath, e.AudioPath, e.OutputPath,
		e.FrameRate, e.SourceDuration, e.Frames, e.Duration,
		e.Encoder, boolToInt(e.FellBack), string(e.Status), e.Error, e.OutputBytes, e.Elapsed.Milliseconds(), e.ObjectURL,
	)
	if err != nil {
		return fmt.Errorf("record render %s: %w", e.ID, err)
	}
	return nil
}

const selectColumns = `
	SELECT id, created_at, image_path, audio_path, output_path,
		frame_rate, source_duration, frames, duration,
		encoder, fell_back, status, error, output_bytes, elapsed_ms, object_url
	FROM renders`

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query renders: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating renders: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Find returns the entry whose ID equals or starts with prefix, so the
// short IDs printed by the history table can be used directly.
func (s *Store) Find(ctx context.Context, prefix string) (*Entry, error) {
	if prefix == "" {
		return nil, ErrNotFound
	}
	if e, err := s.Get(ctx, prefix); !errors.Is(err, ErrNotFound) {
		return e, err
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE substr(id, 1, ?) = ? LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("query renders: %w", err)
	}
	defer rows.Close()

	var found []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating renders: %w", err)
	}
	switch len(found) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousID, prefix)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(r scanner) (*Entry, error) {
	var (
		e         Entry
		createdMs int64
		elapsedMs int64
		status    string
		fellBack  int64
	)
	err := r.Scan(
		&e.ID, &createdMs, &e.ImagePath, &e.AudioPath, &e.OutputPath,
		&e.FrameRate, &e.SourceDuration, &e.Frames, &e.Duration,
		&e.Encoder, &fellBack, &status, &e.Error, &e.OutputBytes, &elapsedMs, &e.ObjectURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning render: %w", err)
	}
	e.CreatedAt = time.UnixMilli(createdMs)
	e.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	e.Status = Status(status)
	e.FellBack = fellBack != 0
	return &e, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
