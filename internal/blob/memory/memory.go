package memory

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"teddy/internal/blob"
)

// Store keeps documents in process memory. Contents are lost on restart.
type Store struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// NewFromFiles seeds the store with every *.json file under base, keyed by its
// slash-separated path relative to base. A missing directory yields an empty store.
func NewFromFiles(base string) *Store {
	s := New()
	if base == "" {
		return s
	}
	_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return nil
		}
		s.docs[filepath.ToSlash(rel)] = data
		return nil
	})
	return s
}

func (s *Store) Read(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[normalize(path)]
	if !ok {
		return nil, blob.ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) Write(_ context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[normalize(path)] = append([]byte(nil), data...)
	return nil
}

// Paths returns the stored document paths.
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.docs))
	for p := range s.docs {
		out = append(out, p)
	}
	return out
}

func normalize(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "/")
}
