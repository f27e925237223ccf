package npy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/apache/arrow/go/v17/arrow/float16"
)

// ErrInvalidShape is returned for shapes with negative dimensions.
var ErrInvalidShape = errors.New("invalid shape")

// Array is a C-order, little-endian n-dimensional array of one [DType].
//
// Data holds the raw element bytes exactly as they appear after the npy
// header. Accessors index the flattened (row-major) array.
type Array struct {
	DType DType
	Shape []int
	Data  []byte
}

// New allocates a zero-filled array of the given type and shape.
func New(dtype DType, shape []int) (*Array, error) {
	if !dtype.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDType, int(dtype))
	}

	size, err := byteCount(dtype, shape)
	if err != nil {
		return nil, err
	}

	return &Array{
		DType: dtype,
		Shape: append([]int(nil), shape...),
		Data:  make([]byte, size),
	}, nil
}

// Len returns the number of elements (the product of the shape).
func (a *Array) Len() int {
	return len(a.Data) / a.DType.ItemSize()
}

// byteCount returns the payload size of shape. Negative dimensions and
// sizes that do not fit an int fail with [ErrInvalidShape].
func byteCount(dtype DType, shape []int) (int, error) {
	n := 1

	for _, dim := range shape {
		if dim < 0 {
			return 0, fmt.Errorf("%w: %v", ErrInvalidShape, shape)
		}

		if dim != 0 && n > math.MaxInt/dim {
			return 0, fmt.Errorf("%w: %v overflows", ErrInvalidShape, shape)
		}

		n *= dim
	}

	itemSize := dtype.ItemSize()
	if n > math.MaxInt/itemSize {
		return 0, fmt.Errorf("%w: %v of %s overflows", ErrInvalidShape, shape, dtype)
	}

	return n * itemSize, nil
}

func (a *Array) offset(i int) int {
	return i * a.DType.ItemSize()
}

// SetInt stores v at flat index i of an integer array.
//
// The value is narrowed with two's-complement wraparound, so 200 stored in
// an int8 array reads back as -56.
func (a *Array) SetInt(i int, v int64) {
	off := a.offset(i)

	switch a.DType {
	case Int8:
		a.Data[off] = uint8(v)
	case Int16:
		binary.LittleEndian.PutUint16(a.Data[off:], uint16(v))
	case Int64:
		binary.LittleEndian.PutUint64(a.Data[off:], uint64(v))
	case Float16, Float32, Float64, Complex64, Complex128:
		panic(fmt.Sprintf("npy: SetInt on %s array", a.DType))
	default:
		panic(fmt.Sprintf("npy: unknown dtype %d", int(a.DType)))
	}
}

// Int returns the element at flat index i of an integer array.
func (a *Array) Int(i int) int64 {
	off := a.offset(i)

	switch a.DType {
	case Int8:
		return int64(int8(a.Data[off]))
	case Int16:
		return int64(int16(binary.LittleEndian.Uint16(a.Data[off:])))
	case Int64:
		return int64(binary.LittleEndian.Uint64(a.Data[off:]))
	case Float16, Float32, Float64, Complex64, Complex128:
		panic(fmt.Sprintf("npy: Int on %s array", a.DType))
	default:
		panic(fmt.Sprintf("npy: unknown dtype %d", int(a.DType)))
	}
}

// SetFloat stores v at flat index i of a float array, rounding to the
// array's precision. float16 conversion truncates the mantissa, which is
// exact for integers up to 2048.
func (a *Array) SetFloat(i int, v float64) {
	off := a.offset(i)

	switch a.DType {
	case Float16:
		binary.LittleEndian.PutUint16(a.Data[off:], float16.New(float32(v)).Uint16())
	case Float32:
		binary.LittleEndian.PutUint32(a.Data[off:], math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(a.Data[off:], math.Float64bits(v))
	case Int8, Int16, Int64, Complex64, Complex128:
		panic(fmt.Sprintf("npy: SetFloat on %s array", a.DType))
	default:
		panic(fmt.Sprintf("npy: unknown dtype %d", int(a.DType)))
	}
}

// Float returns the element at flat index i of a float array.
func (a *Array) Float(i int) float64 {
	off := a.offset(i)

	switch a.DType {
	case Float16:
		return float64(float16.FromBits(a.HalfBits(i)).Float32())
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(a.Data[off:])))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(a.Data[off:]))
	case Int8, Int16, Int64, Complex64, Complex128:
		panic(fmt.Sprintf("npy: Float on %s array", a.DType))
	default:
		panic(fmt.Sprintf("npy: unknown dtype %d", int(a.DType)))
	}
}

// HalfBits returns the raw binary16 pattern at flat index i of a float16
// array.
func (a *Array) HalfBits(i int) uint16 {
	if a.DType != Float16 {
		panic(fmt.Sprintf("npy: HalfBits on %s array", a.DType))
	}

	return binary.LittleEndian.Uint16(a.Data[a.offset(i):])
}

// SetComplex stores v at flat index i of a complex array. Each component is
// rounded to the array's component precision.
func (a *Array) SetComplex(i int, v complex128) {
	off := a.offset(i)

	switch a.DType {
	case Complex64:
		binary.LittleEndian.PutUint32(a.Data[off:], math.Float32bits(float32(real(v))))
		binary.LittleEndian.PutUint32(a.Data[off+4:], math.Float32bits(float32(imag(v))))
	case Complex128:
		binary.LittleEndian.PutUint64(a.Data[off:], math.Float64bits(real(v)))
		binary.LittleEndian.PutUint64(a.Data[off+8:], math.Float64bits(imag(v)))
	case Int8, Int16, Int64, Float16, Float32, Float64:
		panic(fmt.Sprintf("npy: SetComplex on %s array", a.DType))
	default:
		panic(fmt.Sprintf("npy: unknown dtype %d", int(a.DType)))
	}
}

// Complex returns the element at flat index i of a complex array.
func (a *Array) Complex(i int) complex128 {
	off := a.offset(i)

	switch a.DType {
	case Complex64:
		re := math.Float32frombits(binary.LittleEndian.Uint32(a.Data[off:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(a.Data[off+4:]))

		return complex(float64(re), float64(im))
	case Complex128:
		re := math.Float64frombits(binary.LittleEndian.Uint64(a.Data[off:]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(a.Data[off+8:]))

		return complex(re, im)
	case Int8, Int16, Int64, Float16, Float32, Float64:
		panic(fmt.Sprintf("npy: Complex on %s array", a.DType))
	default:
		panic(fmt.Sprintf("npy: unknown dtype %d", int(a.DType)))
	}
}
