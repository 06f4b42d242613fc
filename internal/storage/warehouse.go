// Package storage exposes a warehouse location as a blob bucket.
//
// Local paths and file:// URLs are served by fileblob, mem:// by memblob and
// any other scheme (gs://, s3://, ...) through the gocloud URL openers.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// ErrNotFound is returned when an object does not exist
var ErrNotFound = errors.New("object not found")

// ErrOutsideWarehouse is returned for locations not under the warehouse root
var ErrOutsideWarehouse = errors.New("location is outside the warehouse")

// Warehouse is a blob bucket rooted at a warehouse location
type Warehouse struct {
	bucket *blob.Bucket
	root   string
}

// Open opens the bucket behind a warehouse location
func Open(ctx context.Context, location string) (*Warehouse, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("warehouse location is required")
	}

	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// plain path (len 1 covers windows drive letters)
		return openDir(location)
	}

	switch u.Scheme {
	case "file":
		return openDir(u.Path)
	case "mem":
		return &Warehouse{bucket: memblob.OpenBucket(nil), root: strings.TrimRight(location, "/")}, nil
	}

	bucketURL := url.URL{Scheme: u.Scheme, Host: u.Host, RawQuery: u.RawQuery}
	bucket, err := blob.OpenBucket(ctx, bucketURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse %s: %w", location, err)
	}
	if prefix := strings.Trim(u.Path, "/"); prefix != "" {
		bucket = blob.PrefixedBucket(bucket, prefix+"/")
	}

	root := url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/" + strings.Trim(u.Path, "/")}
	return &Warehouse{bucket: bucket, root: strings.TrimRight(root.String(), "/")}, nil
}

// New wraps an already opened bucket; root is the location of its top level
func New(bucket *blob.Bucket, root string) *Warehouse {
	return &Warehouse{bucket: bucket, root: strings.TrimRight(root, "/")}
}

func openDir(path string) (*Warehouse, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve warehouse %s: %w", path, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create warehouse %s: %w", dir, err)
	}
	bucket, err := fileblob.OpenBucket(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse %s: %w", dir, err)
	}
	return &Warehouse{bucket: bucket, root: filepath.ToSlash(dir)}, nil
}

// Root returns the warehouse location without a trailing slash
func (w *Warehouse) Root() string {
	return w.root
}

// Location returns the full location of a key
func (w *Warehouse) Location(key string) string {
	return w.root + "/" + strings.TrimLeft(key, "/")
}

// Key maps a location under the warehouse back to its bucket key
func (w *Warehouse) Key(location string) (string, error) {
	key, ok := strings.CutPrefix(location, w.root+"/")
	if !ok || key == "" {
		return "", fmt.Errorf("%w: %s", ErrOutsideWarehouse, location)
	}
	return key, nil
}

// Read returns the contents of key
func (w *Warehouse) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := w.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, w.Location(key))
		}
		return nil, fmt.Errorf("failed to read %s: %w", w.Location(key), err)
	}
	return data, nil
}

// Write replaces the contents of key
func (w *Warehouse) Write(ctx context.Context, key string, data []byte, contentType string) error {
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := w.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return fmt.Errorf("failed to write %s: %w", w.Location(key), err)
	}
	return nil
}

// Exists reports whether key exists
func (w *Warehouse) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := w.bucket.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", w.Location(key), err)
	}
	return ok, nil
}

// Delete removes key; a missing key is not an error
func (w *Warehouse) Delete(ctx context.Context, key string) error {
	if err := w.bucket.Delete(ctx, key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("failed to delete %s: %w", w.Location(key), err)
	}
	return nil
}

// DeletePrefix removes every object whose key starts with prefix
func (w *Warehouse) DeletePrefix(ctx context.Context, prefix string) error {
	iter := w.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", w.Location(prefix), err)
		}
		if err := w.Delete(ctx, obj.Key); err != nil {
			return err
		}
	}
}

// ListDirs returns the names of the immediate "directories" under prefix.
// prefix must be empty or end with "/".
func (w *Warehouse) ListDirs(ctx context.Context, prefix string) ([]string, error) {
	iter := w.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})

	var dirs []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			return dirs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", w.Location(prefix), err)
		}
		if !obj.IsDir {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), "/")
		if name != "" {
			dirs = append(dirs, name)
		}
	}
}

// Close releases the bucket
func (w *Warehouse) Close() error {
	return w.bucket.Close()
}
