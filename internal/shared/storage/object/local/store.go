// Package local stores objects on disk for development and single-host deploys.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/suiscode/ai-resume/internal/shared/storage/object"
)

type Store struct {
	root string
	now  func() time.Time
}

// New roots a store at dir. The directory is created on first Put.
func New(dir string) *Store {
	return &Store{root: dir, now: time.Now}
}

// Put writes to a temp file in the target directory and renames it into
// place, so readers never see a partial object.
func (s *Store) Put(ctx context.Context, obj object.Object) (object.Stored, error) {
	if err := ctx.Err(); err != nil {
		return object.Stored{}, err
	}
	key, err := object.BuildKey(obj.Owner, obj.FileName, s.now())
	if err != nil {
		return object.Stored{}, err
	}
	dest := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return object.Stored{}, fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return object.Stored{}, fmt.Errorf("create temp: %w", err)
	}
	n, copyErr := io.Copy(tmp, obj.Body)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())
		return object.Stored{}, fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return object.Stored{}, fmt.Errorf("commit %s: %w", key, err)
	}
	return object.Stored{Key: key, SizeBytes: n, ContentType: obj.ContentType}, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := filepath.Clean(filepath.FromSlash(key))
	if rel == "." || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("invalid storage key %q", key)
	}
	f, err := os.Open(filepath.Join(s.root, rel))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, object.ErrNotFound
	}
	return f, err
}

var _ object.ObjectStore = (*Store)(nil)
