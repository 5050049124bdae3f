// Package blob defines the document store the transaction list lives in.
//
// A store maps a path to an opaque byte document. There is no partial
// update: every write replaces the whole document, and concurrent writers
// simply overwrite each other.
package blob

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Read when nothing was ever written at the path.
var ErrNotExist = errors.New("blob does not exist")

// Ports for document storage backends.
type (
	Reader interface {
		Read(ctx context.Context, path string) ([]byte, error)
	}

	Writer interface {
		// Write replaces the document at path, creating missing parents.
		Write(ctx context.Context, path string, data []byte) error
	}

	Store interface {
		Reader
		Writer
	}
)
