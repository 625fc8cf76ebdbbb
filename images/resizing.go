package images

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/chewxy/math32"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// LetterboxColor is the padding colour used by Ultralytics exports.
var LetterboxColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// Letterbox fits a frame into the model input the same way the detection
// pipeline does, and returns the Transform needed to map detections back.
//
// Arguments:
//   - img: The source frame.
//   - model: The model input size.
//   - mode: How to fit the frame (fill, fit or crop).
//
// Returns:
//   - The model-sized RGBA image.
//   - The camera to model Transform.
//   - An error if either size is invalid.
//
// @example
//
//	input, tr, err := images.Letterbox(frame, images.Size{Width: 640, Height: 640}, images.ScaleFit)
//	// ... run the model on input ...
//	box := tr.RectToCamera(detection.Box)
func Letterbox(img image.Image, model Size, mode ScaleMode) (*image.RGBA, Transform, error) {
	if img == nil {
		return nil, Transform{}, errors.New("letterbox: nil image")
	}

	b := img.Bounds()
	camera := Size{Width: float32(b.Dx()), Height: float32(b.Dy())}

	t, err := NewTransform(camera, model, mode)
	if err != nil {
		return nil, Transform{}, errors.Wrap(err, "letterbox")
	}

	w := uint(math32.Floor(camera.Width*t.ScaleX + 0.5))
	h := uint(math32.Floor(camera.Height*t.ScaleY + 0.5))
	resized := resize.Resize(max(w, 1), max(h, 1), img, resize.Bilinear)

	dst := image.NewRGBA(image.Rect(0, 0, int(model.Width), int(model.Height)))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: LetterboxColor}, image.Point{}, draw.Src)

	offset := image.Pt(int(math32.Floor(t.PadX+0.5)), int(math32.Floor(t.PadY+0.5)))
	rb := resized.Bounds()
	draw.Draw(dst, rb.Sub(rb.Min).Add(offset), resized, rb.Min, draw.Src)

	return dst, t, nil
}
