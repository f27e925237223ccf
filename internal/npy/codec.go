package npy

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Decode errors.
var (
	ErrNotNpy          = errors.New("not an npy file")
	ErrUnsupported     = errors.New("unsupported npy version")
	ErrMalformedHeader = errors.New("malformed npy header")
	ErrFortranOrder    = errors.New("fortran-ordered arrays are not supported")
	ErrTruncated       = errors.New("npy payload size does not match header")
)

const magic = "\x93NUMPY"

// headerAlign is the alignment of the full preamble (magic, version, length
// and header dict). numpy uses 64 so the payload is aligned for any dtype.
const headerAlign = 64

// Header is the decoded npy header dict.
type Header struct {
	Descr        string
	FortranOrder bool
	Shape        []int
}

// Encode writes a as an npy file to w.
//
// The header is version 1.0 unless the dict does not fit a uint16 length,
// in which case version 2.0 is used.
func Encode(w io.Writer, a *Array) error {
	if !a.DType.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownDType, int(a.DType))
	}

	want, err := byteCount(a.DType, a.Shape)
	if err != nil {
		return err
	}

	if len(a.Data) != want {
		return fmt.Errorf("data is %d bytes, shape %v of %s needs %d", len(a.Data), a.Shape, a.DType, want)
	}

	preamble := encodeHeader(Header{Descr: a.DType.Descr(), Shape: a.Shape})

	if _, err := w.Write(preamble); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if _, err := w.Write(a.Data); err != nil {
		return fmt.Errorf("writing data: %w", err)
	}

	return nil
}

// Marshal returns the npy encoding of a.
func Marshal(a *Array) ([]byte, error) {
	var buf bytes.Buffer

	buf.Grow(headerAlign + len(a.Data))

	if err := Encode(&buf, a); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func encodeHeader(h Header) []byte {
	dict := formatDict(h)

	// v1.0: magic(6) + version(2) + uint16 length(2).
	prefix := len(magic) + 4
	total := align(prefix+len(dict)+1, headerAlign)
	headerLen := total - prefix
	major := byte(1)

	if headerLen > math.MaxUint16 {
		prefix = len(magic) + 6
		total = align(prefix+len(dict)+1, headerAlign)
		headerLen = total - prefix
		major = 2
	}

	out := make([]byte, 0, total)
	out = append(out, magic...)
	out = append(out, major, 0)

	if major == 1 {
		out = binary.LittleEndian.AppendUint16(out, uint16(headerLen))
	} else {
		out = binary.LittleEndian.AppendUint32(out, uint32(headerLen))
	}

	out = append(out, dict...)
	out = append(out, bytes.Repeat([]byte{' '}, total-len(out)-1)...)
	out = append(out, '\n')

	return out
}

func align(n, to int) int {
	return (n + to - 1) / to * to
}

// formatDict renders the header the way numpy does, including the trailing
// ", }" and the one-element tuple comma.
func formatDict(h Header) string {
	fortran := "False"
	if h.FortranOrder {
		fortran = "True"
	}

	return fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s, }", h.Descr, fortran, formatShape(h.Shape))
}

func formatShape(shape []int) string {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.Itoa(d)
	}

	if len(dims) == 1 {
		return "(" + dims[0] + ",)"
	}

	return "(" + strings.Join(dims, ", ") + ")"
}

// Decode reads an npy file from r.
//
// Versions 1.0 through 3.0 are accepted. Only little-endian (or
// byte-sized), C-ordered arrays of the supported dtypes can be decoded.
// The payload must be exactly the size the header describes: r is read to
// EOF and both short and long payloads fail with [ErrTruncated].
func Decode(r io.Reader) (*Array, error) {
	h, dtype, size, err := readLayout(r)
	if err != nil {
		return nil, err
	}

	// Read at most one byte past the expected size; the buffer grows with
	// the input, so a lying header cannot force a large allocation.
	data, err := io.ReadAll(io.LimitReader(r, int64(size)+1))
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	return newDecoded(h, dtype, size, data)
}

// Unmarshal decodes an npy file held in memory.
func Unmarshal(data []byte) (*Array, error) {
	r := bytes.NewReader(data)

	h, dtype, size, err := readLayout(r)
	if err != nil {
		return nil, err
	}

	payload := data[len(data)-r.Len():]

	return newDecoded(h, dtype, size, payload)
}

// readLayout reads the header and resolves its dtype and payload size.
func readLayout(r io.Reader) (Header, DType, int, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return Header{}, 0, 0, err
	}

	if h.FortranOrder {
		return Header{}, 0, 0, ErrFortranOrder
	}

	dtype, err := ParseDType(h.Descr)
	if err != nil {
		return Header{}, 0, 0, err
	}

	size, err := byteCount(dtype, h.Shape)
	if err != nil {
		return Header{}, 0, 0, err
	}

	return h, dtype, size, nil
}

func newDecoded(h Header, dtype DType, size int, payload []byte) (*Array, error) {
	if len(payload) != size {
		return nil, fmt.Errorf("%w: want %d bytes for shape %v of %s, have %s",
			ErrTruncated, size, h.Shape, dtype, payloadLen(len(payload), size))
	}

	return &Array{
		DType: dtype,
		Shape: h.Shape,
		Data:  bytes.Clone(payload),
	}, nil
}

func payloadLen(got, want int) string {
	if got > want {
		return "more than that"
	}

	return strconv.Itoa(got)
}

// ReadHeader reads the preamble and header dict from r, leaving r positioned
// at the first payload byte.
func ReadHeader(r io.Reader) (Header, error) {
	var pre [8]byte

	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrNotNpy, err)
	}

	if string(pre[:6]) != magic {
		return Header{}, ErrNotNpy
	}

	var headerLen int

	switch major := pre[6]; major {
	case 1:
		var lenBuf [2]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return Header{}, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
		}

		headerLen = int(binary.LittleEndian.Uint16(lenBuf[:]))
	case 2, 3:
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return Header{}, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
		}

		headerLen = int(binary.LittleEndian.Uint32(lenBuf[:]))
	default:
		return Header{}, fmt.Errorf("%w: %d.%d", ErrUnsupported, major, pre[7])
	}

	raw := make([]byte, headerLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}

	return parseDict(string(raw))
}

var (
	descrRe   = regexp.MustCompile(`'descr'\s*:\s*'([^']+)'`)
	fortranRe = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapeRe   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

func parseDict(dict string) (Header, error) {
	dict = strings.TrimSpace(dict)

	descr := descrRe.FindStringSubmatch(dict)
	if descr == nil {
		return Header{}, fmt.Errorf("%w: missing descr in %q", ErrMalformedHeader, dict)
	}

	fortran := fortranRe.FindStringSubmatch(dict)
	if fortran == nil {
		return Header{}, fmt.Errorf("%w: missing fortran_order in %q", ErrMalformedHeader, dict)
	}

	shapeMatch := shapeRe.FindStringSubmatch(dict)
	if shapeMatch == nil {
		return Header{}, fmt.Errorf("%w: missing shape in %q", ErrMalformedHeader, dict)
	}

	shape := []int{}

	for _, part := range strings.Split(shapeMatch[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		dim, err := strconv.Atoi(strings.TrimSuffix(part, "L"))
		if err != nil || dim < 0 {
			return Header{}, fmt.Errorf("%w: bad dimension %q", ErrMalformedHeader, part)
		}

		shape = append(shape, dim)
	}

	return Header{
		Descr:        descr[1],
		FortranOrder: fortran[1] == "True",
		Shape:        shape,
	}, nil
}
