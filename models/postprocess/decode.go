package postprocess

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/multiarray"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

var (
	// ErrInvalidShape is returned when an output tensor does not have the
	// layout a processor expects.
	ErrInvalidShape = errors.New("invalid output shape")
	// ErrShapeMismatch is returned when two related outputs disagree on the
	// number of candidates.
	ErrShapeMismatch = errors.New("output shapes do not match")
)

// Params holds the settings shared by every YOLO post processor.
type Params struct {
	// ConfidenceThreshold is the minimum score a candidate needs to be kept.
	ConfidenceThreshold float32
	// NMS configures Non-Maximum Suppression.
	NMS NMSConfig
	// MaxDetections caps the number of returned results. Values <= 0 keep all.
	MaxDetections int
	// Classes restricts results to these class indices. Empty keeps all.
	Classes []int
	// Labels maps class indices to names.
	Labels []string
}

// DefaultParams returns confidence 0.25, class-aware greedy NMS at IoU 0.45
// and at most 100 detections.
func DefaultParams() Params {
	return Params{
		ConfidenceThreshold: 0.25,
		NMS:                 DefaultNMSConfig(),
		MaxDetections:       100,
	}
}

// Allowed reports whether class passes the class filter.
func (p *Params) Allowed(class int) bool {
	if len(p.Classes) == 0 {
		return true
	}
	for _, c := range p.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Label returns the name of class, or "class_<n>" when it is not labelled.
func (p *Params) Label(class int) string {
	if class >= 0 && class < len(p.Labels) && p.Labels[class] != "" {
		return p.Labels[class]
	}
	return fmt.Sprintf("class_%d", class)
}

// Finish suppresses overlapping candidates, applies the detection cap and
// attaches labels.
func (p *Params) Finish(candidates []Result) []Result {
	if len(candidates) == 0 {
		return []Result{}
	}

	kept := TopK(Suppress(candidates, &p.NMS), p.MaxDetections)
	for i := range kept {
		kept[i].Label = p.Label(kept[i].Class)
	}
	return kept
}

// ArgMax returns the index and value of the largest element of scores.
// NaN elements are ignored. An empty or all-NaN slice yields (-1, NaN).
func ArgMax(scores []float32) (int, float32) {
	idx, best := -1, math32.NaN()
	for i, s := range scores {
		if math32.IsNaN(s) {
			continue
		}
		if idx < 0 || s > best {
			idx, best = i, s
		}
	}
	return idx, best
}

// DecodeSplit decodes the confidence/coordinates output pair produced by a
// pipeline exported with embedded NMS.
//
// Arguments:
//   - confidence: Class scores shaped [N, C] (leading unit axes are ignored).
//   - coordinates: Boxes shaped [N, 4] as normalized cx, cy, w, h.
//   - threshold: Minimum best-class score for a row to be kept.
//   - allow: Class filter, nil keeps every class.
//
// Returns:
//   - Candidates in normalized corner form, in row order.
//   - ErrInvalidShape or ErrShapeMismatch (wrapped) for malformed outputs.
func DecodeSplit(confidence, coordinates tensor.Tensor, threshold float32, allow func(int) bool) ([]Result, error) {
	if confidence == nil || coordinates == nil {
		return nil, errors.Wrap(ErrInvalidShape, "confidence and coordinates are required")
	}

	cshape, err := multiarray.SqueezeTo(confidence.Shape(), 2)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidShape, "confidence: %v", err)
	}
	bshape, err := multiarray.SqueezeTo(coordinates.Shape(), 2)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidShape, "coordinates: %v", err)
	}
	if bshape[1] != 4 {
		return nil, errors.Wrapf(ErrInvalidShape, "coordinates shape %v, want [N 4]", coordinates.Shape())
	}
	if cshape[1] == 0 {
		return nil, errors.Wrapf(ErrInvalidShape, "confidence shape %v has no classes", confidence.Shape())
	}
	if cshape[0] != bshape[0] {
		return nil, errors.Wrapf(ErrShapeMismatch, "confidence has %d rows, coordinates has %d", cshape[0], bshape[0])
	}

	scores, err := multiarray.Float32s(confidence)
	if err != nil {
		return nil, errors.Wrap(err, "confidence")
	}
	boxes, err := multiarray.Float32s(coordinates)
	if err != nil {
		return nil, errors.Wrap(err, "coordinates")
	}

	rows, classes := cshape[0], cshape[1]
	results := make([]Result, 0, rows)

	for i := 0; i < rows; i++ {
		class, score := ArgMax(scores[i*classes : (i+1)*classes])
		if class < 0 || score < threshold {
			continue
		}
		if allow != nil && !allow(class) {
			continue
		}

		b := boxes[i*4 : i*4+4]
		results = append(results, Result{
			Box:   images.CenterToCorners(b[0], b[1], b[2], b[3]),
			Score: score,
			Class: class,
		})
	}

	return results, nil
}
