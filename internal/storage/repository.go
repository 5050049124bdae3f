package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"teddy/internal/blob"

	_ "modernc.org/sqlite"
)

// SQLiteRepository keeps blob documents in a single SQLite table.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite would otherwise return SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Read implements blob.Reader
func (r *SQLiteRepository) Read(ctx context.Context, path string) ([]byte, error) {
	content, err := r.queries.GetBlobContent(ctx, path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, blob.ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", path, err)
	}
	return content, nil
}

// Write implements blob.Writer
func (r *SQLiteRepository) Write(ctx context.Context, path string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	err := r.queries.UpsertBlob(ctx, UpsertBlobParams{
		Path:      path,
		Content:   data,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("upsert blob %s: %w", path, err)
	}

	slog.DebugContext(ctx, "Blob saved to SQLite", "path", path, "bytes", len(data))
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
