// Package multiarray - Dense numeric arrays for model outputs.
//
// Model outputs arrive as typed multi-dimensional arrays (float16, float32,
// float64 or int32 elements). This package turns them into
// gorgonia.org/tensor values and exposes the contiguous float32 view that the
// post processors work on.
package multiarray

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"github.com/x448/float16"
	"gorgonia.org/tensor"
)

var (
	// ErrUnsupportedDataType is returned for element types that cannot be decoded.
	ErrUnsupportedDataType = errors.New("unsupported data type")
	// ErrDataLength is returned when the element count does not match the shape.
	ErrDataLength = errors.New("data length does not match shape")
)

// DataType is the element type of a model output array.
type DataType string

const (
	// Float16 is an IEEE 754 half precision element.
	Float16 DataType = "float16"
	// Float32 is an IEEE 754 single precision element.
	Float32 DataType = "float32"
	// Float64 is an IEEE 754 double precision element.
	Float64 DataType = "float64"
	// Int32 is a signed 32-bit integer element.
	Int32 DataType = "int32"
)

// Size returns the number of bytes used by one element.
func (d DataType) Size() int {
	switch d {
	case Float16:
		return 2
	case Float32, Int32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// New wraps data in a float32 tensor of the given shape. A nil data builds
// an empty tensor, for shapes with a zero axis.
func New(shape []int, data []float32) *tensor.Dense {
	if data == nil {
		data = []float32{}
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
}

// Volume returns the number of elements described by shape. A shape with a
// zero axis has volume 0, as does the empty shape. A negative axis gives -1.
func Volume(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return -1
		}
		n *= d
	}
	return n
}

// FromBytes decodes a raw element buffer into a float32 tensor.
//
// Arguments:
//   - raw: The packed elements.
//   - shape: The array shape.
//   - dt: The element type of raw.
//   - order: The byte order of raw (CoreML and numpy use little endian).
//
// Returns:
//   - A float32 tensor with the given shape.
//   - ErrUnsupportedDataType or ErrDataLength (wrapped) on bad input.
func FromBytes(raw []byte, shape []int, dt DataType, order binary.ByteOrder) (*tensor.Dense, error) {
	size := dt.Size()
	if size == 0 {
		return nil, errors.Wrapf(ErrUnsupportedDataType, "decode %q", dt)
	}

	n := Volume(shape)
	if len(shape) == 0 || n < 0 || len(raw) != n*size {
		return nil, errors.Wrapf(ErrDataLength, "shape %v of %s needs %d bytes, got %d", shape, dt, n*size, len(raw))
	}

	out := make([]float32, n)
	for i := range out {
		b := raw[i*size : (i+1)*size]
		switch dt {
		case Float16:
			out[i] = float16.Frombits(order.Uint16(b)).Float32()
		case Float32:
			out[i] = math.Float32frombits(order.Uint32(b))
		case Float64:
			out[i] = float32(math.Float64frombits(order.Uint64(b)))
		case Int32:
			out[i] = float32(int32(order.Uint32(b)))
		}
	}

	return New(shape, out), nil
}

// Float32s returns the elements of t in row-major order as float32.
//
// Contiguous float32 tensors are returned without copying; any other layout or
// element type is copied.
func Float32s(t tensor.Tensor) ([]float32, error) {
	if t == nil {
		return nil, errors.New("nil tensor")
	}

	if !t.RequiresIterator() {
		if data, ok := t.Data().([]float32); ok {
			return data, nil
		}
	}

	at, err := elementReader(t.Data())
	if err != nil {
		return nil, err
	}

	out := make([]float32, 0, t.Shape().TotalSize())
	if !t.RequiresIterator() {
		for i := 0; i < t.DataSize(); i++ {
			out = append(out, at(i))
		}
		return out, nil
	}

	it := t.Iterator()
	for i, err := it.Start(); err == nil; i, err = it.Next() {
		out = append(out, at(i))
	}
	return out, nil
}

func elementReader(data interface{}) (func(int) float32, error) {
	switch d := data.(type) {
	case []float32:
		return func(i int) float32 { return d[i] }, nil
	case []float64:
		return func(i int) float32 { return float32(d[i]) }, nil
	case []int32:
		return func(i int) float32 { return float32(d[i]) }, nil
	case []int64:
		return func(i int) float32 { return float32(d[i]) }, nil
	case []int:
		return func(i int) float32 { return float32(d[i]) }, nil
	case []uint8:
		return func(i int) float32 { return float32(d[i]) }, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedDataType, "element type %T", data)
	}
}

// SqueezeTo removes leading unit axes (such as the batch axis) until shape
// has dims axes.
//
// Returns an error if shape has fewer than dims axes or a non-unit leading axis
// would have to be dropped.
func SqueezeTo(shape []int, dims int) ([]int, error) {
	s := shape
	for len(s) > dims && s[0] == 1 {
		s = s[1:]
	}
	if len(s) != dims {
		return nil, errors.Errorf("shape %v cannot be reduced to %d dimensions", shape, dims)
	}
	return s, nil
}
