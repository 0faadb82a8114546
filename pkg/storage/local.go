package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local implements FileStore on the local filesystem. Paths resolve
// relative to the root directory.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir. The directory is created on
// the first Write beneath it.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

func (l *Local) resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

func (l *Local) Read(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(l.resolve(path))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Write stages data in a temporary file beside path and moves it into place
// on Close, so readers never see a partially written report. Parent
// directories are created as needed.
func (l *Local) Write(_ context.Context, path string) (io.WriteCloser, error) {
	full := l.resolve(path)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(full)+".*")
	if err != nil {
		return nil, err
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	return &stagedFile{File: f, dst: full}, nil
}

// stagedFile renames itself to dst when closed. After a failed write or an
// Abort the temporary file is removed and dst is left untouched.
type stagedFile struct {
	*os.File
	dst    string
	failed bool
}

func (s *stagedFile) Write(p []byte) (int, error) {
	n, err := s.File.Write(p)
	if err != nil {
		s.failed = true
	}
	return n, err
}

func (s *stagedFile) Close() error {
	if s.failed {
		return s.Abort()
	}
	err := s.File.Close()
	if err == nil {
		err = os.Rename(s.Name(), s.dst)
	}
	if err != nil {
		os.Remove(s.Name())
	}
	return err
}

// Abort removes the temporary file without touching dst.
func (s *stagedFile) Abort() error {
	s.File.Close()
	err := os.Remove(s.Name())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (l *Local) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(l.resolve(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

var _ FileStore = (*Local)(nil)
