// Package storage provides the hierarchical store the dictionary store
// persists into.
//
// Paths are slash-separated and relative to the store root
// ("dictionaries/plugins/demo/fr.json"). The Bucket implementation is
// backed by gocloud.dev/blob, so the root can be a local directory
// ("file:///home/me/.local/share/polyglot") or an in-memory bucket
// ("mem://") used by tests.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob" // registers mem://
	"gocloud.dev/gcerrors"
)

// ErrNotFound is returned by Read for missing paths.
var ErrNotFound = errors.New("storage: not found")

// Storage is the hierarchical store capability.
type Storage interface {
	Exists(ctx context.Context, p string) (bool, error)
	Read(ctx context.Context, p string) ([]byte, error)
	// Write creates or overwrites p.
	Write(ctx context.Context, p string, data []byte) error
	Remove(ctx context.Context, p string) error
	// List returns the names (not paths) of the files and sub-directories
	// directly under dir.
	List(ctx context.Context, dir string) (files, dirs []string, err error)
	// Mkdir creates dir. Creating an existing directory is not an error.
	Mkdir(ctx context.Context, dir string) error
}

// Bucket implements Storage on a gocloud.dev blob bucket.
type Bucket struct {
	b *blob.Bucket
}

var _ Storage = (*Bucket)(nil)

// Open opens a bucket by URL. A plain directory path is treated as a
// file:// bucket and created if needed.
func Open(ctx context.Context, urlOrDir string) (*Bucket, error) {
	if !strings.Contains(urlOrDir, "://") {
		b, err := fileblob.OpenBucket(urlOrDir, &fileblob.Options{CreateDir: true})
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", urlOrDir, err)
		}
		return &Bucket{b: b}, nil
	}

	b, err := blob.OpenBucket(ctx, urlOrDir)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", urlOrDir, err)
	}
	return &Bucket{b: b}, nil
}

// NewBucket wraps an already opened bucket.
func NewBucket(b *blob.Bucket) *Bucket {
	return &Bucket{b: b}
}

// Close releases the underlying bucket.
func (s *Bucket) Close() error {
	return s.b.Close()
}

func clean(p string) string {
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// Exists reports whether a file exists at p.
func (s *Bucket) Exists(ctx context.Context, p string) (bool, error) {
	ok, err := s.b.Exists(ctx, clean(p))
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", p, err)
	}
	return ok, nil
}

// Read returns the contents of p, or ErrNotFound.
func (s *Bucket) Read(ctx context.Context, p string) ([]byte, error) {
	data, err := s.b.ReadAll(ctx, clean(p))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("reading %s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

// Write stores data at p, replacing any previous content.
func (s *Bucket) Write(ctx context.Context, p string, data []byte) error {
	opts := &blob.WriterOptions{ContentType: contentType(p)}
	if err := s.b.WriteAll(ctx, clean(p), data, opts); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	return nil
}

// Remove deletes p. Removing a missing path is not an error.
func (s *Bucket) Remove(ctx context.Context, p string) error {
	if err := s.b.Delete(ctx, clean(p)); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("removing %s: %w", p, err)
	}
	return nil
}

// List returns the entries directly under dir.
func (s *Bucket) List(ctx context.Context, dir string) (files, dirs []string, err error) {
	prefix := clean(dir)
	if prefix != "" {
		prefix += "/"
	}

	it := s.b.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	for {
		obj, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("listing %s: %w", dir, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), "/")
		if name == "" {
			continue
		}
		if obj.IsDir {
			dirs = append(dirs, name)
		} else {
			files = append(files, name)
		}
	}
	return files, dirs, nil
}

// Mkdir is a no-op: blob directories exist implicitly once a file is
// written beneath them.
func (s *Bucket) Mkdir(ctx context.Context, dir string) error {
	return nil
}

func contentType(p string) string {
	switch path.Ext(p) {
	case ".json":
		return "application/json"
	case ".lock", ".yaml", ".yml":
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}
