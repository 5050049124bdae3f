package storage

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

const getBlobContent = `-- name: GetBlobContent :one
SELECT content FROM blobs WHERE path = ?
`

func (q *Queries) GetBlobContent(ctx context.Context, path string) ([]byte, error) {
	row := q.db.QueryRowContext(ctx, getBlobContent, path)
	var content []byte
	err := row.Scan(&content)
	return content, err
}

const upsertBlob = `-- name: UpsertBlob :exec
INSERT INTO blobs (path, content, updated_at) VALUES (?, ?, ?)
ON CONFLICT(path) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
`

type UpsertBlobParams struct {
	Path      string
	Content   []byte
	UpdatedAt time.Time
}

func (q *Queries) UpsertBlob(ctx context.Context, arg UpsertBlobParams) error {
	_, err := q.db.ExecContext(ctx, upsertBlob, arg.Path, arg.Content, arg.UpdatedAt)
	return err
}
