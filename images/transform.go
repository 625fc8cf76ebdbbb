package images

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  float32 `json:"width" yaml:"width"`
	Height float32 `json:"height" yaml:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// IsZero reports whether the size was left unset.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// String formats the size as WxH.
func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

// ParseSize parses a WxH string such as "1920x1080" or a resolution alias
// such as "1080p".
func ParseSize(v string) (Size, error) {
	if r, ok := LookupResolution(v); ok {
		return r.Size(), nil
	}
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(v)), "x")
	if !ok {
		return Size{}, errors.Errorf("size %q is not in WxH form", v)
	}
	width, err := strconv.ParseFloat(w, 32)
	if err != nil {
		return Size{}, errors.Wrapf(err, "parse width of %q", v)
	}
	height, err := strconv.ParseFloat(h, 32)
	if err != nil {
		return Size{}, errors.Wrapf(err, "parse height of %q", v)
	}
	s := Size{Width: float32(width), Height: float32(height)}
	if !s.Valid() {
		return Size{}, errors.Errorf("size %q must be positive", v)
	}
	return s, nil
}

// ScaleMode describes how a camera frame was fitted into the model input.
type ScaleMode string

const (
	// ScaleFill stretches the frame to the model input, ignoring aspect ratio.
	ScaleFill ScaleMode = "fill"
	// ScaleFit preserves aspect ratio and pads the short side (letterbox).
	ScaleFit ScaleMode = "fit"
	// ScaleCrop preserves aspect ratio and crops the long side around the center.
	ScaleCrop ScaleMode = "crop"
)

// Transform maps camera coordinates into model input coordinates:
//
//	model = camera*scale + pad
//
// Pads are negative for ScaleCrop because part of the frame lies outside the
// model input.
type Transform struct {
	ScaleX float32
	ScaleY float32
	PadX   float32
	PadY   float32
}

// NewTransform computes the mapping used to fit a camera frame into the
// model input.
//
// Arguments:
//   - camera: The size of the source frame.
//   - model: The size of the model input.
//   - mode: How the frame was fitted. An empty mode is ScaleFill.
//
// Returns:
//   - The Transform, or an error for non-positive sizes and unknown modes.
func NewTransform(camera, model Size, mode ScaleMode) (Transform, error) {
	if !camera.Valid() {
		return Transform{}, errors.Errorf("invalid camera size %s", camera)
	}
	if !model.Valid() {
		return Transform{}, errors.Errorf("invalid model input size %s", model)
	}

	sx := model.Width / camera.Width
	sy := model.Height / camera.Height

	switch mode {
	case ScaleFill, "":
		return Transform{ScaleX: sx, ScaleY: sy}, nil
	case ScaleFit, ScaleCrop:
		s := math32.Min(sx, sy)
		if mode == ScaleCrop {
			s = math32.Max(sx, sy)
		}
		return Transform{
			ScaleX: s,
			ScaleY: s,
			PadX:   (model.Width - camera.Width*s) / 2,
			PadY:   (model.Height - camera.Height*s) / 2,
		}, nil
	default:
		return Transform{}, errors.Errorf("unknown scale mode %q", mode)
	}
}

// ToModel maps a camera point into model input space.
func (t Transform) ToModel(x, y float32) (float32, float32) {
	return x*t.ScaleX + t.PadX, y*t.ScaleY + t.PadY
}

// ToCamera maps a model input point back into camera space.
func (t Transform) ToCamera(x, y float32) (float32, float32) {
	return (x - t.PadX) / t.ScaleX, (y - t.PadY) / t.ScaleY
}

// RectToCamera maps a box in model input pixels back into camera pixels.
func (t Transform) RectToCamera(r Rect) Rect {
	x1, y1 := t.ToCamera(r.X1, r.Y1)
	x2, y2 := t.ToCamera(r.X2, r.Y2)
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}
