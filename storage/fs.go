package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FSStore is a filesystem-backed Store rooted at a base directory.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem store rooted at root, creating it if
// needed.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, WrapWriteError(err, root)
	}
	return &FSStore{root: root}, nil
}

// Root returns the absolute base directory.
func (s *FSStore) Root() string { return s.root }

func (s *FSStore) abs(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

// WriteFile writes data atomically: the bytes land in a temp file in the
// target directory which is then renamed over the destination. Rename is
// atomic on POSIX filesystems, so a crash mid-write leaves either the old
// file or nothing, never a torn file.
func (s *FSStore) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := s.abs(path)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return WrapWriteError(err, path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return WrapWriteError(err, path)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return WrapWriteError(err, path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return WrapWriteError(err, path)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return WrapWriteError(err, path)
	}
	return nil
}

// ReadFile returns the content at path, or ErrNotFound.
func (s *FSStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.abs(path))
	if err != nil {
		return nil, WrapReadError(err, path)
	}
	return data, nil
}

// Exists reports whether path holds a regular file.
func (s *FSStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(s.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, WrapReadError(err, path)
	}
	return info.Mode().IsRegular(), nil
}

// Size returns the file size at path, or ErrNotFound.
func (s *FSStore) Size(ctx context.Context, path string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	info, err := os.Stat(s.abs(path))
	if err != nil {
		return 0, WrapReadError(err, path)
	}
	return info.Size(), nil
}

// List returns every file path under prefix, relative to the root, using
// slash separators, in lexical order. A missing prefix yields an empty list.
func (s *FSStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := s.abs(prefix)
	var paths []string
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, WrapReadError(err, prefix)
	}
	sort.Strings(paths)
	return paths, nil
}

// Join composes a slash-separated storage path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Verify FSStore implements Store.
var _ Store = (*FSStore)(nil)
