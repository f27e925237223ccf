package npy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDType is returned when a type name or descr is not one of the
// supported element types.
var ErrUnknownDType = errors.New("unknown dtype")

// DType is an element type that npygen can generate and read back.
//
// The set is closed. Code that needs per-type behavior switches over all
// values, so a new type fails loudly until every switch handles it.
type DType int

// Supported element types.
const (
	Int8 DType = iota + 1
	Int16
	Int64
	Float16
	Float32
	Float64
	Complex64
	Complex128
)

// Kind groups element types by how their values are generated and sampled.
type Kind int

// Element kinds.
const (
	KindInt Kind = iota + 1
	KindFloat
	KindComplex
)

type dtypeInfo struct {
	name     string
	descr    string
	itemSize int
	kind     Kind
}

var dtypeTable = map[DType]dtypeInfo{
	Int8:       {name: "int8", descr: "|i1", itemSize: 1, kind: KindInt},
	Int16:      {name: "int16", descr: "<i2", itemSize: 2, kind: KindInt},
	Int64:      {name: "int64", descr: "<i8", itemSize: 8, kind: KindInt},
	Float16:    {name: "float16", descr: "<f2", itemSize: 2, kind: KindFloat},
	Float32:    {name: "float32", descr: "<f4", itemSize: 4, kind: KindFloat},
	Float64:    {name: "float64", descr: "<f8", itemSize: 8, kind: KindFloat},
	Complex64:  {name: "complex64", descr: "<c8", itemSize: 8, kind: KindComplex},
	Complex128: {name: "complex128", descr: "<c16", itemSize: 16, kind: KindComplex},
}

// DTypes returns every supported element type in declaration order.
func DTypes() []DType {
	return []DType{Int8, Int16, Int64, Float16, Float32, Float64, Complex64, Complex128}
}

// String returns the numpy type name, e.g. "float32".
func (d DType) String() string {
	info, ok := dtypeTable[d]
	if !ok {
		return fmt.Sprintf("DType(%d)", int(d))
	}

	return info.name
}

// Descr returns the npy header descr, e.g. "<f4".
func (d DType) Descr() string {
	return dtypeTable[d].descr
}

// ItemSize returns the size of one element in bytes.
func (d DType) ItemSize() int {
	return dtypeTable[d].itemSize
}

// Kind returns the element kind.
func (d DType) Kind() Kind {
	return dtypeTable[d].kind
}

// Valid reports whether d is one of the supported types.
func (d DType) Valid() bool {
	_, ok := dtypeTable[d]

	return ok
}

// MarshalText implements [encoding.TextMarshaler] using the type name.
func (d DType) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDType, int(d))
	}

	return []byte(d.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler] via [ParseDType].
func (d *DType) UnmarshalText(text []byte) error {
	parsed, err := ParseDType(string(text))
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// ParseDType accepts a type name ("int16") or an npy descr ("<i2", "=i2",
// "i2"). Big-endian descrs are rejected.
func ParseDType(s string) (DType, error) {
	s = strings.TrimSpace(s)

	for _, d := range DTypes() {
		if dtypeTable[d].name == s {
			return d, nil
		}
	}

	code := s
	if code != "" {
		switch code[0] {
		case '<', '=', '|':
			code = code[1:]
		case '>':
			return 0, fmt.Errorf("%w: %q (big-endian)", ErrUnknownDType, s)
		}
	}

	for _, d := range DTypes() {
		if dtypeTable[d].descr[1:] == code {
			return d, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownDType, s)
}
