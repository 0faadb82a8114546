// Package storage reads audio inputs and writes reports through a FileStore
// so that the command line accepts local paths and s3:// URIs alike.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore is a minimal interface for file-oriented storage.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file for reading. The caller must close the
	// returned ReadCloser. A missing file yields an error wrapping
	// os.ErrNotExist.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named file for writing, replacing any existing
	// content once the returned WriteCloser is closed. Writers that also
	// implement Aborter can discard the data instead.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)
}

// Aborter is implemented by writers that can drop everything written so far
// without replacing the destination.
type Aborter interface {
	Abort() error
}

// Location is a parsed file URI.
type Location struct {
	Bucket string // empty for local files
	Path   string // object key, or file path for local files
}

// IsS3 reports whether l names an S3 object.
func (l Location) IsS3() bool { return l.Bucket != "" }

func (l Location) String() string {
	if l.IsS3() {
		return "s3://" + l.Bucket + "/" + l.Path
	}
	return l.Path
}

// Parse splits uri into a Location. Strings starting with s3:// name an
// object as s3://bucket/key; anything else is a local path.
func Parse(uri string) (Location, error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		if uri == "" {
			return Location{}, errors.New("storage: empty path")
		}
		return Location{Path: uri}, nil
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return Location{}, fmt.Errorf("storage: invalid s3 uri %q", uri)
	}
	return Location{Bucket: bucket, Path: key}, nil
}

// Opener resolves URIs to stores. It is safe for concurrent use.
type Opener struct {
	cfg S3Config

	mu     sync.Mutex
	client S3Client
}

// NewOpener returns an Opener whose S3 client is built from cfg on the
// first s3:// URI.
func NewOpener(cfg S3Config) *Opener {
	return &Opener{cfg: cfg}
}

// NewOpenerWithClient returns an Opener that serves s3:// URIs with client.
func NewOpenerWithClient(client S3Client) *Opener {
	return &Opener{client: client}
}

func (o *Opener) s3Client() S3Client {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.client == nil {
		o.client = NewS3Client(o.cfg)
	}
	return o.client
}

// Open returns the store holding uri and the path of uri within it.
func (o *Opener) Open(uri string) (FileStore, string, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, "", err
	}
	if loc.IsS3() {
		return NewS3(o.s3Client(), loc.Bucket, ""), loc.Path, nil
	}
	abs, err := filepath.Abs(loc.Path)
	if err != nil {
		return nil, "", err
	}
	return NewLocal(filepath.Dir(abs)), filepath.Base(abs), nil
}

// ReadFile reads the whole file at uri.
func (o *Opener) ReadFile(ctx context.Context, uri string) ([]byte, error) {
	fs, path, err := o.Open(uri)
	if err != nil {
		return nil, err
	}
	r, err := fs.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// WriteFile replaces the file at uri with data.
func (o *Opener) WriteFile(ctx context.Context, uri string, data []byte) error {
	fs, path, err := o.Open(uri)
	if err != nil {
		return err
	}
	w, err := fs.Write(ctx, path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		abort(w)
		return err
	}
	return w.Close()
}

// Exists reports whether a file exists at uri.
func (o *Opener) Exists(ctx context.Context, uri string) (bool, error) {
	fs, path, err := o.Open(uri)
	if err != nil {
		return false, err
	}
	return fs.Exists(ctx, path)
}

// abort discards w when it supports it and closes it otherwise.
func abort(w io.WriteCloser) {
	if a, ok := w.(Aborter); ok {
		a.Abort()
		return
	}
	w.Close()
}
