package fixture

import (
	"fmt"

	"github.com/calvinalkan/npygen/internal/npy"
)

// TailElements is how many trailing elements are sampled from each array.
const TailElements = 5

// Tail returns the sample recorded in the ledger for a.
//
// The last min(5, n) elements of the row-major flattened array are sampled:
//   - int8, int16, int64: the integer values;
//   - float32, float64: the values;
//   - float16: the raw binary16 bit patterns, so readers that keep halves
//     undecoded can compare without a conversion;
//   - complex64, complex128: each element's real then imaginary component,
//     so the sample holds twice as many values as elements.
func Tail(a *npy.Array) []float64 {
	n := a.Len()
	start := max(0, n-TailElements)

	switch a.DType {
	case npy.Int8, npy.Int16, npy.Int64:
		out := make([]float64, 0, n-start)
		for i := start; i < n; i++ {
			out = append(out, float64(a.Int(i)))
		}

		return out
	case npy.Float16:
		out := make([]float64, 0, n-start)
		for i := start; i < n; i++ {
			out = append(out, float64(a.HalfBits(i)))
		}

		return out
	case npy.Float32, npy.Float64:
		out := make([]float64, 0, n-start)
		for i := start; i < n; i++ {
			out = append(out, a.Float(i))
		}

		return out
	case npy.Complex64, npy.Complex128:
		out := make([]float64, 0, 2*(n-start))
		for i := start; i < n; i++ {
			c := a.Complex(i)
			out = append(out, real(c), imag(c))
		}

		return out
	default:
		panic(fmt.Sprintf("fixture: no tail strategy for dtype %d", int(a.DType)))
	}
}
