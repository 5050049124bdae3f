package backend

import (
	"context"

	"teddy/internal/blob"
)

// CleanupFunc releases resources held by a backend
type CleanupFunc func() error

// PingFunc reports whether a backend can currently serve requests
type PingFunc func(ctx context.Context) error

// BackendResult contains the document store and its lifecycle hooks
type BackendResult struct {
	Store   blob.Store
	Cleanup CleanupFunc
	Ping    PingFunc
}

// Close runs Cleanup when one is set
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates document stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory and file backends
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string

	// MongoDB specific
	MongoURI      string
	MongoDatabase string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	MongoBackend  BackendType = "mongo"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, MongoBackend:
		return true
	default:
		return false
	}
}
