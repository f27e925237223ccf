package fixture

import (
	"fmt"
	"math/rand/v2"

	"github.com/calvinalkan/npygen/internal/npy"
)

// Value ranges for generated content. Bounds are half-open.
const (
	realMin    = 0
	realMax    = 255
	complexMin = -128
	complexMax = 128
)

// Synthesize allocates an array for p and fills it from rng.
//
// Integer and float elements are integers drawn uniformly from [0, 255) and
// converted to the element type: int8 wraps (128..254 become -128..-2),
// every other type holds the value exactly. Complex elements draw real and
// imaginary parts independently from [-128, 128).
func Synthesize(rng *rand.Rand, p Pair) (*npy.Array, error) {
	a, err := npy.New(p.DType, p.Shape)
	if err != nil {
		return nil, err
	}

	n := a.Len()

	switch p.DType.Kind() {
	case npy.KindInt:
		for i := range n {
			a.SetInt(i, drawInt(rng, realMin, realMax))
		}
	case npy.KindFloat:
		for i := range n {
			a.SetFloat(i, float64(drawInt(rng, realMin, realMax)))
		}
	case npy.KindComplex:
		for i := range n {
			re := drawInt(rng, complexMin, complexMax)
			im := drawInt(rng, complexMin, complexMax)
			a.SetComplex(i, complex(float64(re), float64(im)))
		}
	default:
		return nil, fmt.Errorf("%w: %d", npy.ErrUnknownDType, int(p.DType))
	}

	return a, nil
}

func drawInt(rng *rand.Rand, lo, hi int64) int64 {
	return lo + rng.Int64N(hi-lo)
}
