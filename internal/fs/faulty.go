package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"strings"
	"sync"
	"syscall"
)

// Op names an [FS] operation that [Faulty] can fail.
type Op string

// Operations that can be failed.
const (
	OpOpen            Op = "open"
	OpOpenFile        Op = "openfile"
	OpReadFile        Op = "readfile"
	OpWriteFileAtomic Op = "writefileatomic"
	OpMkdirAll        Op = "mkdirall"
	OpStat            Op = "stat"
	OpRemove          Op = "remove"
)

// InjectedError marks an error as intentionally injected by [Faulty].
//
// It wraps the underlying error so errors.Is/As continue to work.
type InjectedError struct {
	Err error
}

// Error returns the underlying error's message.
func (e *InjectedError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by
// [Faulty].
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}

type faultRule struct {
	op      Op
	pathSub string
	errno   syscall.Errno
}

// Faulty wraps an [FS] and fails chosen operations on chosen paths.
//
// Rules are matched by operation and path substring. Injected errors are
// *[os.PathError] values carrying a [syscall.Errno], wrapped in
// [InjectedError], so os.IsPermission and friends still work.
//
// Faulty also records every path passed to WriteFileAtomic, injected or not,
// so tests can assert which files a run touched.
type Faulty struct {
	fs FS

	mu     sync.Mutex
	rules  []faultRule
	writes []string
}

// NewFaulty wraps fs with no rules; it behaves like fs until [Faulty.Fail]
// is called.
func NewFaulty(fs FS) *Faulty {
	return &Faulty{fs: fs}
}

// Fail makes op fail with errno for every path containing pathSub. An empty
// pathSub matches all paths.
func (f *Faulty) Fail(op Op, pathSub string, errno syscall.Errno) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rules = append(f.rules, faultRule{op: op, pathSub: pathSub, errno: errno})
}

// Reset removes all rules and forgets recorded writes.
func (f *Faulty) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rules = nil
	f.writes = nil
}

// Writes returns the paths passed to WriteFileAtomic, in call order.
func (f *Faulty) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.writes...)
}

func (f *Faulty) check(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.rules {
		if r.op == op && strings.Contains(path, r.pathSub) {
			return &InjectedError{Err: &iofs.PathError{Op: string(op), Path: path, Err: r.errno}}
		}
	}

	return nil
}

func (f *Faulty) Open(path string) (File, error) {
	if err := f.check(OpOpen, path); err != nil {
		return nil, err
	}

	return f.fs.Open(path)
}

func (f *Faulty) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if err := f.check(OpOpenFile, path); err != nil {
		return nil, err
	}

	return f.fs.OpenFile(path, flag, perm)
}

func (f *Faulty) ReadFile(path string) ([]byte, error) {
	if err := f.check(OpReadFile, path); err != nil {
		return nil, err
	}

	return f.fs.ReadFile(path)
}

func (f *Faulty) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	f.mu.Lock()
	f.writes = append(f.writes, path)
	f.mu.Unlock()

	if err := f.check(OpWriteFileAtomic, path); err != nil {
		return err
	}

	return f.fs.WriteFileAtomic(path, data, perm)
}

func (f *Faulty) MkdirAll(path string, perm os.FileMode) error {
	if err := f.check(OpMkdirAll, path); err != nil {
		return err
	}

	return f.fs.MkdirAll(path, perm)
}

func (f *Faulty) Stat(path string) (os.FileInfo, error) {
	if err := f.check(OpStat, path); err != nil {
		return nil, err
	}

	return f.fs.Stat(path)
}

func (f *Faulty) Exists(path string) (bool, error) {
	if err := f.check(OpStat, path); err != nil {
		return false, err
	}

	return f.fs.Exists(path)
}

func (f *Faulty) Remove(path string) error {
	if err := f.check(OpRemove, path); err != nil {
		return err
	}

	return f.fs.Remove(path)
}

var _ FS = (*Faulty)(nil)
