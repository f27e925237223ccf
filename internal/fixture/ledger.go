package fixture

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-json"

	"github.com/calvinalkan/npygen/internal/fs"
)

// ErrLedgerMalformed is returned when an existing ledger file is not a JSON
// object of number arrays.
var ErrLedgerMalformed = errors.New("malformed ledger")

const (
	ledgerPerm = 0o644
	dirPerm    = 0o755
)

// Ledger maps fixture keys to the tail sample recorded when the fixture was
// generated. A key present in the ledger is never regenerated.
type Ledger map[string][]float64

// LoadLedger reads the ledger at path. A missing file yields an empty
// ledger.
func LoadLedger(fsys fs.FS, path string) (Ledger, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Ledger{}, nil
		}

		return nil, fmt.Errorf("reading ledger: %w", err)
	}

	return DecodeLedger(data)
}

// DecodeLedger parses ledger JSON.
func DecodeLedger(data []byte) (Ledger, error) {
	var ledger Ledger

	err := json.Unmarshal(data, &ledger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerMalformed, err)
	}

	if ledger == nil {
		ledger = Ledger{}
	}

	return ledger, nil
}

// Encode returns the ledger as JSON indented by two spaces, keys sorted,
// with a trailing newline.
func (l Ledger) Encode() ([]byte, error) {
	if l == nil {
		l = Ledger{}
	}

	data, err := json.MarshalIndent(map[string][]float64(l), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding ledger: %w", err)
	}

	return append(data, '\n'), nil
}

// Save atomically replaces the ledger file at path, creating parent
// directories as needed.
func (l Ledger) Save(fsys fs.FS, path string) error {
	data, err := l.Encode()
	if err != nil {
		return err
	}

	err = fsys.MkdirAll(filepath.Dir(path), dirPerm)
	if err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	err = fsys.WriteFileAtomic(path, data, ledgerPerm)
	if err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}

	return nil
}

// Has reports whether key is recorded.
func (l Ledger) Has(key string) bool {
	_, ok := l[key]

	return ok
}

// Keys returns the recorded keys in sorted order.
func (l Ledger) Keys() []string {
	return slices.Sorted(maps.Keys(l))
}

// Clone returns a deep copy.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for k, v := range l {
		out[k] = slices.Clone(v)
	}

	return out
}
