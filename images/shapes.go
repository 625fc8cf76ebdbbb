// Package images - Geometry utilities for detection boxes.
package images

import (
	"image"

	"github.com/chewxy/math32"
)

// Rect is a lightweight bounding box in corner form.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 float32
}

// Width returns the horizontal extent of the box, or 0 when the box is inverted.
func (r Rect) Width() float32 {
	return math32.Max(0, r.X2-r.X1)
}

// Height returns the vertical extent of the box, or 0 when the box is inverted.
func (r Rect) Height() float32 {
	return math32.Max(0, r.Y2-r.Y1)
}

// Area returns Width * Height.
func (r Rect) Area() float32 {
	return r.Width() * r.Height()
}

// Empty reports whether the box covers no area. A box with a NaN coordinate
// is empty.
func (r Rect) Empty() bool {
	return !(r.Area() > 0)
}

// Clamp restricts every coordinate of the box to [0, width] x [0, height].
//
// Arguments:
//   - width: The exclusive upper bound for X coordinates.
//   - height: The exclusive upper bound for Y coordinates.
//
// Returns:
//   - The clamped rectangle.
func (r Rect) Clamp(width, height float32) Rect {
	return Rect{
		X1: clamp(r.X1, 0, width),
		Y1: clamp(r.Y1, 0, height),
		X2: clamp(r.X2, 0, width),
		Y2: clamp(r.Y2, 0, height),
	}
}

// Scale multiplies the X coordinates by sx and the Y coordinates by sy.
func (r Rect) Scale(sx, sy float32) Rect {
	return Rect{X1: r.X1 * sx, Y1: r.Y1 * sy, X2: r.X2 * sx, Y2: r.Y2 * sy}
}

// ToRectangle converts the box to an integral image.Rectangle.
//
// The minimum corner is floored and the maximum corner is ceiled so the
// resulting rectangle always covers the floating point box.
func (r Rect) ToRectangle() image.Rectangle {
	return image.Rect(
		int(math32.Floor(r.X1)),
		int(math32.Floor(r.Y1)),
		int(math32.Ceil(r.X2)),
		int(math32.Ceil(r.Y2)),
	).Canon()
}

// CenterToCorners converts a center/size box (cx, cy, w, h) to corner form.
func CenterToCorners(cx, cy, w, h float32) Rect {
	return Rect{
		X1: cx - w/2,
		Y1: cy - h/2,
		X2: cx + w/2,
		Y2: cy + h/2,
	}
}

// CalculateIoU measures the overlap of two boxes as Intersection over Union.
//
// See also:
//   - http://ronny.rest/tutorials/module/localization_001/iou
//
// The result is a number between 0.0 and 1.0:
//
//	IoU = Area of Intersection / Area of Union
//
//	- 1.0 means the boxes are identical.
//	- 0.0 means the boxes do not overlap (touching edges included).
//
// The intersection corners are the maximum of the two minimum corners and the
// minimum of the two maximum corners. If the resulting width or height is not
// positive the boxes are disjoint and 0 is returned before any division.
// The union uses inclusion-exclusion: Area(A) + Area(B) - Area(A ∩ B).
//
// Arguments:
//   - r: The first rectangle.
//   - o: The other rectangle to compare against.
//
// Returns:
//   - float32: A value between 0.0 and 1.0 representing the IoU score.
//
// Example Usage:
// ```go
//
//	rect1 := Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
//	rect2 := Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}
//
//	iouScore := CalculateIoU(rect1, rect2) // 25 / 175 = 0.142857
//
// ```
func CalculateIoU(r, o Rect) float32 {
	ix1 := max(r.X1, o.X1)
	iy1 := max(r.Y1, o.Y1)
	ix2 := min(r.X2, o.X2)
	iy2 := min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}

	return interArea / unionArea
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
