package multiarray

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
	"gorgonia.org/tensor"
)

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

func TestFromBytes(t *testing.T) {
	values := []float32{0.5, -1.25, 3, 0.125}
	shape := []int{2, 2}

	tests := []struct {
		name  string
		dt    DataType
		order byteOrder
		pack  func(byteOrder) []byte
		want  []float32
	}{
		{
			name:  "float32 little endian",
			dt:    Float32,
			order: binary.LittleEndian,
			pack: func(o byteOrder) []byte {
				b := make([]byte, 0, 16)
				for _, v := range values {
					b = o.AppendUint32(b, math.Float32bits(v))
				}
				return b
			},
			want: values,
		},
		{
			name:  "float16 little endian",
			dt:    Float16,
			order: binary.LittleEndian,
			pack: func(o byteOrder) []byte {
				b := make([]byte, 0, 8)
				for _, v := range values {
					b = o.AppendUint16(b, float16.Fromfloat32(v).Bits())
				}
				return b
			},
			want: values,
		},
		{
			name:  "float64 big endian",
			dt:    Float64,
			order: binary.BigEndian,
			pack: func(o byteOrder) []byte {
				b := make([]byte, 0, 32)
				for _, v := range values {
					b = o.AppendUint64(b, math.Float64bits(float64(v)))
				}
				return b
			},
			want: values,
		},
		{
			name:  "int32",
			dt:    Int32,
			order: binary.LittleEndian,
			pack: func(o byteOrder) []byte {
				b := make([]byte, 0, 16)
				for _, v := range []int32{1, -2, 3, 40} {
					b = o.AppendUint32(b, uint32(v))
				}
				return b
			},
			want: []float32{1, -2, 3, 40},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := FromBytes(tt.pack(tt.order), shape, tt.dt, tt.order)
			require.NoError(t, err)
			assert.Equal(t, tensor.Shape{2, 2}, d.Shape())

			got, err := Float32s(d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromBytesErrors(t *testing.T) {
	_, err := FromBytes(make([]byte, 8), []int{2}, "bfloat16", binary.LittleEndian)
	assert.True(t, errors.Is(err, ErrUnsupportedDataType))

	_, err = FromBytes(make([]byte, 6), []int{2}, Float32, binary.LittleEndian)
	assert.True(t, errors.Is(err, ErrDataLength))
}

func TestFloat32sConvertsElementTypes(t *testing.T) {
	d := tensor.New(tensor.WithShape(3), tensor.WithBacking([]float64{1.5, 2.5, -3}))
	got, err := Float32s(d)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, 2.5, -3}, got)

	i := tensor.New(tensor.WithShape(2), tensor.WithBacking([]int32{7, 9}))
	got, err = Float32s(i)
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 9}, got)

	_, err = Float32s(nil)
	assert.Error(t, err)
}

func TestFloat32sSharesContiguousBacking(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	got, err := Float32s(New([]int{2, 3}, data))
	require.NoError(t, err)
	assert.Same(t, &data[0], &got[0], "contiguous float32 tensors must not be copied")
}

func TestSqueezeTo(t *testing.T) {
	s, err := SqueezeTo([]int{1, 84, 8400}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{84, 8400}, s)

	s, err = SqueezeTo([]int{1, 1, 10, 4}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 4}, s)

	s, err = SqueezeTo([]int{10, 4}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 4}, s)

	_, err = SqueezeTo([]int{2, 10, 4}, 2)
	assert.Error(t, err)

	_, err = SqueezeTo([]int{40}, 2)
	assert.Error(t, err)
}

func TestNpyRoundTripFromDisk(t *testing.T) {
	orig := New([]int{1, 2, 3}, []float32{1, 2, 3, 4, 5, 6})

	var buf bytes.Buffer
	require.NoError(t, orig.WriteNpy(&buf))

	path := filepath.Join(t.TempDir(), "output.npy")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	loaded, err := LoadNpy(path)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, 3}, loaded.Shape())

	got, err := Float32s(loaded)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, got)

	_, err = LoadNpy(filepath.Join(t.TempDir(), "missing.npy"))
	assert.Error(t, err)
}

func TestArrayDense(t *testing.T) {
	d, err := Array{Shape: []int{2, 2}, Data: []float32{1, 2, 3, 4}}.Dense()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, d.Shape())

	raw := binary.LittleEndian.AppendUint16(nil, float16.Fromfloat32(0.75).Bits())
	d, err = Array{Shape: []int{1}, DataType: Float16, Raw: raw}.Dense()
	require.NoError(t, err)
	got, err := Float32s(d)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.75}, got)

	_, err = Array{Shape: []int{3}, Data: []float32{1, 2}}.Dense()
	assert.True(t, errors.Is(err, ErrDataLength))

	d, err = Array{Shape: []int{0, 4}}.Dense()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{0, 4}, d.Shape())
	got, err = Float32s(d)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Array{Shape: []int{0, 4}, Data: []float32{1}}.Dense()
	assert.True(t, errors.Is(err, ErrDataLength))

	_, err = Array{Shape: []int{-2, -2}, Data: []float32{1, 2, 3, 4}}.Dense()
	assert.True(t, errors.Is(err, ErrDataLength))

	_, err = Array{}.Dense()
	assert.True(t, errors.Is(err, ErrDataLength))
}
