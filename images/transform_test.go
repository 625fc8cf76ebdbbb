package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransform(t *testing.T) {
	camera := Size{Width: 1920, Height: 1080}
	model := Size{Width: 640, Height: 640}

	tests := []struct {
		name     string
		mode     ScaleMode
		expected Transform
	}{
		{
			name:     "fill stretches each axis",
			mode:     ScaleFill,
			expected: Transform{ScaleX: 640.0 / 1920, ScaleY: 640.0 / 1080},
		},
		{
			name:     "empty mode defaults to fill",
			mode:     "",
			expected: Transform{ScaleX: 640.0 / 1920, ScaleY: 640.0 / 1080},
		},
		{
			name:     "fit letterboxes the short side",
			mode:     ScaleFit,
			expected: Transform{ScaleX: 1.0 / 3, ScaleY: 1.0 / 3, PadX: 0, PadY: 140},
		},
		{
			name: "crop trims the long side",
			mode: ScaleCrop,
			expected: Transform{
				ScaleX: 640.0 / 1080,
				ScaleY: 640.0 / 1080,
				PadX:   (640 - 1920*(640.0/1080)) / 2,
				PadY:   0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransform(camera, model, tt.mode)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected.ScaleX, tr.ScaleX, 1e-5)
			assert.InDelta(t, tt.expected.ScaleY, tr.ScaleY, 1e-5)
			assert.InDelta(t, tt.expected.PadX, tr.PadX, 1e-3)
			assert.InDelta(t, tt.expected.PadY, tr.PadY, 1e-3)
		})
	}
}

func TestTransformRoundTrip(t *testing.T) {
	camera := Size{Width: 1280, Height: 720}
	model := Size{Width: 416, Height: 416}

	for _, mode := range []ScaleMode{ScaleFill, ScaleFit, ScaleCrop} {
		t.Run(string(mode), func(t *testing.T) {
			tr, err := NewTransform(camera, model, mode)
			require.NoError(t, err)

			for _, p := range [][2]float32{{0, 0}, {640, 360}, {1279, 719}, {13.5, 700.25}} {
				mx, my := tr.ToModel(p[0], p[1])
				cx, cy := tr.ToCamera(mx, my)
				assert.InDelta(t, p[0], cx, 1e-2)
				assert.InDelta(t, p[1], cy, 1e-2)
			}
		})
	}
}

func TestTransformRectToCamera(t *testing.T) {
	tr, err := NewTransform(Size{Width: 1920, Height: 1080}, Size{Width: 640, Height: 640}, ScaleFit)
	require.NoError(t, err)

	// The letterbox band occupies y in [0, 140) of the model input.
	box := tr.RectToCamera(Rect{X1: 0, Y1: 140, X2: 640, Y2: 500})
	assert.InDelta(t, 0, box.X1, 1e-3)
	assert.InDelta(t, 0, box.Y1, 1e-3)
	assert.InDelta(t, 1920, box.X2, 1e-2)
	assert.InDelta(t, 1080, box.Y2, 1e-2)
}

func TestNewTransformErrors(t *testing.T) {
	_, err := NewTransform(Size{}, Size{Width: 640, Height: 640}, ScaleFill)
	assert.Error(t, err)

	_, err = NewTransform(Size{Width: 640, Height: 480}, Size{Width: -1, Height: 640}, ScaleFill)
	assert.Error(t, err)

	_, err = NewTransform(Size{Width: 640, Height: 480}, Size{Width: 640, Height: 640}, "zoom")
	assert.Error(t, err)
}

func TestParseSize(t *testing.T) {
	s, err := ParseSize("1920x1080")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 1920, Height: 1080}, s)
	assert.Equal(t, "1920x1080", s.String())

	s, err = ParseSize(" 640X640 ")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 640, Height: 640}, s)

	for _, bad := range []string{"", "640", "ax480", "640x-1", "0x0"} {
		_, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}
