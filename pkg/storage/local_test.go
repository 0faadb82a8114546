package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalWriteAndRead(t *testing.T) {
	s := NewLocal(t.TempDir())
	ctx := context.Background()

	const data = "report"
	w, err := s.Write(ctx, "runs/a/report.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := s.Read(ctx, "runs/a/report.json")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != data {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestLocalReadNotExist(t *testing.T) {
	s := NewLocal(t.TempDir())
	r, err := s.Read(context.Background(), "missing.wav")
	if !os.IsNotExist(err) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
	if r != nil {
		t.Fatalf("reader = %v, want nil", r)
	}
}

func TestLocalExists(t *testing.T) {
	s := NewLocal(t.TempDir())
	ctx := context.Background()

	ok, err := s.Exists(ctx, "tmp")
	if err != nil || ok {
		t.Fatalf("Exists before write = %v, %v, want false", ok, err)
	}
	w, err := s.Write(ctx, "tmp")
	if err != nil {
		t.Fatal(err)
	}
	w.Close()

	ok, err = s.Exists(ctx, "tmp")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v, want true", ok, err)
	}
}

func TestLocalAbortKeepsOld(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(dir)
	ctx := context.Background()
	dst := filepath.Join(dir, "report.json")
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := s.Write(ctx, "report.json")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "partial")
	if err := w.(Aborter).Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	assertFile(t, dir, "report.json", "old")
}

func TestLocalFailedWriteKeepsOld(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(dir)
	ctx := context.Background()
	if err := os.WriteFile(filepath.Join(dir, "report.json"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := s.Write(ctx, "report.json")
	if err != nil {
		t.Fatal(err)
	}
	sf := w.(*stagedFile)
	io.WriteString(w, "part")
	sf.File.Close() // the next write fails
	if _, err := io.WriteString(w, "ial"); err == nil {
		t.Fatal("Write to a closed file succeeded")
	}
	w.Close()
	assertFile(t, dir, "report.json", "old")
}

// assertFile checks that dir holds only name, with the given content.
func assertFile(t *testing.T, dir, name, want string) {
	t.Helper()
	got, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Fatalf("%s = %q, want %q", name, got, want)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir holds %d entries, want only %s", len(entries), name)
	}
}

func TestLocalWriteTruncates(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(dir)
	ctx := context.Background()
	for _, data := range []string{"long content here", "short"} {
		w, err := s.Write(ctx, "f")
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(w, data)
		w.Close()
	}
	got, err := os.ReadFile(filepath.Join(dir, "f"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "short" {
		t.Fatalf("got %q, want %q", got, "short")
	}
}

func TestNewLocalDoesNotCreateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	NewLocal(dir)
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("Stat = %v, want not exist", err)
	}
}

func TestLocalWriteIsStaged(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(dir)
	ctx := context.Background()

	w, err := s.Write(ctx, "reports/run.json")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, `{"ok": 1}`)
	if ok, _ := s.Exists(ctx, "reports/run.json"); ok {
		t.Fatal("report visible before Close")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "reports"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "run.json" {
		t.Fatalf("reports dir = %v, want only run.json", entries)
	}
	info, err := entries[0].Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("mode = %v, want 0644", info.Mode().Perm())
	}
}
