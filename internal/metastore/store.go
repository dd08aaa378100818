// Package metastore records generated story videos in SQLite.
package metastore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/types"
)

// ErrNotFound is ports.ErrNotFound, so callers need not import this package.
var ErrNotFound = ports.ErrNotFound

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store manages video metadata persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the database at path and applies
// migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string { return s.path }

// SaveVideo inserts or replaces the record for rec.RequestID.
func (s *Store) SaveVideo(ctx context.Context, rec types.VideoRecord) error {
	if strings.TrimSpace(rec.RequestID) == "" {
		return errors.New("metastore: request id is required")
	}
	parts := rec.Parts
	if parts == nil {
		parts = []types.VideoPart{}
	}
	partsJSON, err := json.Marshal(parts)
	if err != nil {
		return fmt.Errorf("marshal parts: %w", err)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO videos (
            request_id, title, content, duration, created_at, full_video_key, parts_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID,
		rec.Title,
		rec.Content,
		rec.Duration,
		created.UTC().Format(time.RFC3339Nano),
		rec.FullVideoKey,
		string(partsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert video %s: %w", rec.RequestID, err)
	}
	return nil
}

func (s *Store) GetVideo(ctx context.Context, requestID string) (types.VideoRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT request_id, title, content, duration, created_at, full_video_key, parts_json
         FROM videos WHERE request_id = ?`, requestID)
	return scanVideo(row)
}

// ListVideos returns the most recent records first.
func (s *Store) ListVideos(ctx context.Context, limit int) ([]types.VideoRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, title, content, duration, created_at, full_video_key, parts_json
         FROM videos ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var out []types.VideoRecord
	for rows.Next() {
		rec, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(sc scanner) (types.VideoRecord, error) {
	var (
		rec       types.VideoRecord
		created   string
		partsJSON string
	)
	err := sc.Scan(&rec.RequestID, &rec.Title, &rec.Content, &rec.Duration, &created, &rec.FullVideoKey, &partsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return types.VideoRecord{}, ErrNotFound
	}
	if err != nil {
		return types.VideoRecord{}, fmt.Errorf("scan video: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return types.VideoRecord{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	if err := json.Unmarshal([]byte(partsJSON), &rec.Parts); err != nil {
		return types.VideoRecord{}, fmt.Errorf("decode parts: %w", err)
	}
	return rec, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	for _, name := range names {
		version := strings.TrimSuffix(name, ".sql")
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", version).Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		body, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("record migration %s: %w", version, err)
		}
	}
	return tx.Commit()
}
