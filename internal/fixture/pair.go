// Package fixture generates npy test fixtures and keeps the ledger of their
// trailing values.
//
// A run walks a shape x dtype cross product. Pairs already recorded in the
// [Ledger] are skipped. Every other pair gets random content, a tail sample
// recorded under its key, and a "<key>.npy" file on disk.
package fixture

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/calvinalkan/npygen/internal/npy"
)

// ErrInvalidShape is returned for empty shapes or non-positive dimensions.
var ErrInvalidShape = errors.New("invalid shape")

// Shape is the ordered list of array dimensions.
type Shape []int

// String joins the dimensions with "x", e.g. "65x65".
func (s Shape) String() string {
	dims := make([]string, len(s))
	for i, d := range s {
		dims[i] = strconv.Itoa(d)
	}

	return strings.Join(dims, "x")
}

// Size returns the number of elements.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}

	return n
}

// Validate reports whether s is non-empty with positive dimensions.
func (s Shape) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no dimensions", ErrInvalidShape)
	}

	for _, d := range s {
		if d <= 0 {
			return fmt.Errorf("%w: %v", ErrInvalidShape, []int(s))
		}
	}

	return nil
}

// Pair is one fixture to generate: a shape and an element type.
type Pair struct {
	Shape Shape
	DType npy.DType
}

// Name returns the key's file name part, e.g. "65x65-float32".
func (p Pair) Name() string {
	return p.Shape.String() + "-" + p.DType.String()
}

// Pairs returns the cross product of shapes and dtypes, shapes outer.
func Pairs(shapes []Shape, dtypes []npy.DType) []Pair {
	pairs := make([]Pair, 0, len(shapes)*len(dtypes))

	for _, s := range shapes {
		for _, d := range dtypes {
			pairs = append(pairs, Pair{Shape: s, DType: d})
		}
	}

	return pairs
}

// Key returns the ledger key for p under dataDir, e.g. "./data/10-int8".
//
// dataDir is used verbatim (only a trailing slash is dropped) so keys stay
// stable across platforms and match ledgers written by other tools.
func Key(dataDir string, p Pair) string {
	return strings.TrimSuffix(dataDir, "/") + "/" + p.Name()
}

// FileName returns the fixture file path for key, relative to the run root.
func FileName(key string) string {
	return key + ".npy"
}
