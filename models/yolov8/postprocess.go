// Package yolov8 - postprocess YOLOv8 model outputs.
package yolov8

import (
	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/models/model"
	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/nvr-ai/go-yolo/multiarray"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ProcessOutput decodes the single output tensor of an anchor-free YOLOv8
// export.
//
// Every anchor carries cx, cy, w, h in model input pixels followed by C class
// scores. There is no objectness score: the best class score is the detection
// score.
//
// With the auto layout the axis order is guessed from the shape: the shorter
// axis holds the features. An output with more features than anchors (a
// large class count over a small input, or a cropped tensor) is then read
// transposed. Set Config.Layout to channels-first or channels-last when the
// export is known. An axis of length 0 is taken as the anchor axis.
//
// Arguments:
//   - output: [1, 4+C, A] (channels first) or [1, A, 4+C] (channels last).
//   - threshold: Minimum score for an anchor to be kept.
//
// Returns:
//   - Detections in model input pixels, highest score first.
func (m *YOLOv8) ProcessOutput(output tensor.Tensor, threshold float32) ([]postprocess.Result, error) {
	if output == nil {
		return nil, errors.Wrap(postprocess.ErrInvalidShape, "yolov8: output is required")
	}

	shape, err := multiarray.SqueezeTo(output.Shape(), 2)
	if err != nil {
		return nil, errors.Wrapf(postprocess.ErrInvalidShape, "yolov8: %v", err)
	}

	channelsFirst, err := m.channelsFirst(shape)
	if err != nil {
		return nil, err
	}

	numFeatures, numAnchors := shape[1], shape[0]
	if channelsFirst {
		numFeatures, numAnchors = shape[0], shape[1]
	}
	if numFeatures <= 4 {
		return nil, errors.Wrapf(postprocess.ErrInvalidShape, "yolov8: %d features per anchor, want at least 5", numFeatures)
	}

	data, err := multiarray.Float32s(output)
	if err != nil {
		return nil, errors.Wrap(err, "yolov8")
	}

	// feature returns feature f of anchor a.
	feature := func(a, f int) float32 {
		if channelsFirst {
			return data[f*numAnchors+a]
		}
		return data[a*numFeatures+f]
	}

	numClasses := numFeatures - 4
	scores := make([]float32, numClasses)
	size := m.options.InputSize
	results := make([]postprocess.Result, 0, 64)

	for a := 0; a < numAnchors; a++ {
		if channelsFirst {
			for c := range scores {
				scores[c] = data[(4+c)*numAnchors+a]
			}
		} else {
			copy(scores, data[a*numFeatures+4:(a+1)*numFeatures])
		}

		classID, score := postprocess.ArgMax(scores)
		if classID < 0 || !(score >= threshold) || !m.params.Allowed(classID) {
			continue
		}

		box := images.CenterToCorners(feature(a, 0), feature(a, 1), feature(a, 2), feature(a, 3))
		if size.Valid() {
			box = box.Clamp(size.Width, size.Height)
		}
		if box.Empty() {
			continue
		}

		results = append(results, postprocess.Result{Box: box, Score: score, Class: classID})
	}

	return m.params.Finish(results), nil
}

// Process implements model.Processor using the configured confidence
// threshold.
func (m *YOLOv8) Process(outputs model.Outputs) ([]postprocess.Result, error) {
	output, err := outputs.Lookup(m.options.Outputs.Raw)
	if err != nil {
		return nil, errors.Wrap(err, "yolov8")
	}
	return m.ProcessOutput(output, m.params.ConfidenceThreshold)
}

// channelsFirst resolves the axis order of a squeezed [rows, cols] output.
// In auto mode the feature axis is the shorter one, since exports have far
// more anchors than classes.
func (m *YOLOv8) channelsFirst(shape []int) (bool, error) {
	switch m.options.Layout {
	case model.LayoutChannelsFirst:
		return true, nil
	case model.LayoutChannelsLast:
		return false, nil
	case model.LayoutAuto:
		if shape[0] == 0 || shape[1] == 0 {
			return shape[1] == 0, nil
		}
		return shape[0] <= shape[1], nil
	default:
		return false, errors.Errorf("yolov8: unknown layout %q", m.options.Layout)
	}
}
