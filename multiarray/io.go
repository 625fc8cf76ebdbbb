package multiarray

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ReadNpy decodes a numpy .npy stream.
func ReadNpy(r io.Reader) (*tensor.Dense, error) {
	d := new(tensor.Dense)
	if err := d.ReadNpy(r); err != nil {
		return nil, errors.Wrap(err, "read npy")
	}
	return d, nil
}

// LoadNpy reads a numpy .npy file from disk.
func LoadNpy(path string) (*tensor.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	d, err := ReadNpy(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return d, nil
}

// Array is the JSON form of a model output.
//
// Either Data carries the elements as numbers, or Raw carries them packed
// little endian with DataType describing the element encoding.
type Array struct {
	Shape    []int     `json:"shape" yaml:"shape"`
	DataType DataType  `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	Data     []float32 `json:"data,omitempty" yaml:"data,omitempty"`
	Raw      []byte    `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// Dense converts the array into a float32 tensor. A shape with a zero axis
// and no data gives an empty tensor.
func (a Array) Dense() (*tensor.Dense, error) {
	if len(a.Raw) > 0 {
		dt := a.DataType
		if dt == "" {
			dt = Float32
		}
		return FromBytes(a.Raw, a.Shape, dt, binary.LittleEndian)
	}

	n := Volume(a.Shape)
	if len(a.Shape) == 0 || n < 0 || n != len(a.Data) {
		return nil, errors.Wrapf(ErrDataLength, "shape %v needs %d elements, got %d", a.Shape, n, len(a.Data))
	}
	return New(a.Shape, a.Data), nil
}
