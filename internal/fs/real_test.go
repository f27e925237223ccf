package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/npygen/internal/fs"
)

func TestReal_WriteFileAtomic_SetsPermAndReplaces(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	fsys := fs.NewReal()

	err := fsys.WriteFileAtomic(path, []byte("first"), 0o644)
	if err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	err = fsys.WriteFileAtomic(path, []byte("second"), 0o644)
	if err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	got, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "second" {
		t.Fatalf("content=%q, want %q", got, "second")
	}

	info, err := fsys.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if got, want := info.Mode().Perm(), os.FileMode(0o644); got != want {
		t.Fatalf("perm=%v, want %v", got, want)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, want 1 (temp files left behind?)", len(entries))
	}
}

func TestReal_Exists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fsys := fs.NewReal()

	ok, err := fsys.Exists(filepath.Join(dir, "missing.npy"))
	if err != nil || ok {
		t.Fatalf("Exists(missing)=(%v, %v), want (false, nil)", ok, err)
	}

	path := filepath.Join(dir, "present.npy")

	err = os.WriteFile(path, nil, 0o600)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ok, err = fsys.Exists(path)
	if err != nil || !ok {
		t.Fatalf("Exists(present)=(%v, %v), want (true, nil)", ok, err)
	}
}
