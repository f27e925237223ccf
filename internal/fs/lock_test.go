package fs_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/calvinalkan/npygen/internal/fs"
)

func TestLocker_TryLock_ExcludesSecondHolder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "records.json.lock")
	locker := fs.NewLocker(fs.NewReal())

	first, err := locker.TryLock(path)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}

	_, err = locker.TryLock(path)
	if !errors.Is(err, fs.ErrWouldBlock) {
		t.Fatalf("second TryLock err=%v, want ErrWouldBlock", err)
	}

	err = first.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	again, err := locker.TryLock(path)
	if err != nil {
		t.Fatalf("TryLock after release: %v", err)
	}

	_ = again.Close()
}

func TestLocker_LockWithTimeout(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.json.lock")
	locker := fs.NewLocker(fs.NewReal())

	_, err := locker.LockWithTimeout(path, 0)
	if !errors.Is(err, fs.ErrInvalidTimeout) {
		t.Fatalf("err=%v, want ErrInvalidTimeout", err)
	}

	held, err := locker.TryLock(path)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	defer held.Close()

	start := time.Now()

	_, err = locker.LockWithTimeout(path, 20*time.Millisecond)
	if !errors.Is(err, fs.ErrWouldBlock) {
		t.Fatalf("err=%v, want ErrWouldBlock", err)
	}

	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("returned after %s, want at least the timeout", elapsed)
	}
}

func TestLock_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	locker := fs.NewLocker(fs.NewReal())

	lk, err := locker.TryLock(filepath.Join(t.TempDir(), "x.lock"))
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}

	if err := lk.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}

	if err := lk.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
