package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_CreateAndRead(t *testing.T) {
	var osfs OSFileSystem
	dir := filepath.Join(t.TempDir(), "nested", "out")

	if err := osfs.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	path := filepath.Join(dir, "frame.png")
	w, err := osfs.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("png")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !osfs.Exists(path) {
		t.Error("expected file to exist")
	}
	data, err := osfs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("expected %q, got %q", "png", data)
	}
	if osfs.Exists(filepath.Join(dir, "missing.png")) {
		t.Error("expected missing file to not exist")
	}
}

func TestMemoryFileSystem_CreateNeedsParent(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_, err := mfs.Create("/plots/frame.png")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}

	if err := mfs.MkdirAll("/plots", 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if _, err := mfs.Create("/plots/frame.png"); err != nil {
		t.Fatalf("Create after MkdirAll failed: %v", err)
	}
}

func TestMemoryFileSystem_ContentsVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if err := mfs.MkdirAll("out/a/b", 0o755); err != nil {
		t.Fatal(err)
	}
	if !mfs.Exists("out/a") {
		t.Error("expected parent directory to exist")
	}

	w, err := mfs.Create("out/a/b/x.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = w.Write([]byte("hello, "))
	_, _ = w.Write([]byte("world"))

	data, err := mfs.ReadFile("out/a/b/x.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty file before Close, got %q", data)
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	data, err = mfs.ReadFile("out/a/b/x.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello, world" {
		t.Errorf("expected %q, got %q", "hello, world", data)
	}
}

func TestMemoryFileSystem_ReadMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if _, err := mfs.ReadFile("/nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_List(t *testing.T) {
	mfs := NewMemoryFileSystem()
	for _, dir := range []string{"/plots", "/plots/old"} {
		if err := mfs.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"/plots/b.png", "/plots/a.png", "/plots/old/c.png"} {
		w, err := mfs.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		_ = w.Close()
	}

	got := mfs.List("/plots")
	if len(got) != 2 || got[0] != "a.png" || got[1] != "b.png" {
		t.Errorf("List(/plots) = %v, want [a.png b.png]", got)
	}
}
