package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Object describes a blob to persist.
type Object struct {
	Owner       string
	FileName    string
	ContentType string
	Body        io.Reader
}

// Stored is the result of a successful Put.
type Stored struct {
	Key         string
	SizeBytes   int64
	ContentType string
}

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	Put(ctx context.Context, obj Object) (Stored, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
