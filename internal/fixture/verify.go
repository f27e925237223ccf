package fixture

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/calvinalkan/npygen/internal/fs"
	"github.com/calvinalkan/npygen/internal/npy"
)

// Verification errors.
var (
	ErrFixtureMissing = errors.New("fixture file missing")
	ErrTailMismatch   = errors.New("tail does not match ledger")
)

// Check is the verification result for one ledger key. Err is nil when the
// fixture decodes and its tail equals the recorded sample.
type Check struct {
	Key  string
	Path string
	Err  error
}

// Verify decodes the fixture of every ledger key and compares its tail with
// the recorded sample. Results are in sorted key order.
func Verify(fsys fs.FS, root string, ledger Ledger) []Check {
	keys := ledger.Keys()
	checks := make([]Check, 0, len(keys))

	for _, key := range keys {
		path := Path(root, key)
		checks = append(checks, Check{
			Key:  key,
			Path: path,
			Err:  verifyOne(fsys, path, ledger[key]),
		})
	}

	return checks
}

func verifyOne(fsys fs.FS, path string, want []float64) error {
	a, err := ReadFixture(fsys, path)
	if err != nil {
		return err
	}

	got := Tail(a)
	if !slices.Equal(got, want) {
		return fmt.Errorf("%w: file has %v, ledger has %v", ErrTailMismatch, got, want)
	}

	return nil
}

// ReadFixture decodes the npy file at path.
func ReadFixture(fsys fs.FS, path string) (*npy.Array, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFixtureMissing, path)
		}

		return nil, err
	}

	a, err := npy.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return a, nil
}
