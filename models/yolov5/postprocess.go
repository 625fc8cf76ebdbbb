// Package yolov5 - postprocess YOLOv5 model outputs.
package yolov5

import (
	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/models/model"
	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/nvr-ai/go-yolo/multiarray"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ProcessOutput decodes the confidence/coordinates pair of a YOLOv5 export
// with an embedded NMS stage.
//
// Arguments:
//   - confidence: Class scores shaped [N, C].
//   - coordinates: Normalized cx, cy, w, h boxes shaped [N, 4].
//
// Returns:
//   - Detections with boxes normalized to [0, 1] of the model input, highest
//     score first.
func (m *YOLOv5) ProcessOutput(confidence, coordinates tensor.Tensor) ([]postprocess.Result, error) {
	candidates, err := postprocess.DecodeSplit(confidence, coordinates, m.params.ConfidenceThreshold, m.params.Allowed)
	if err != nil {
		return nil, errors.Wrap(err, "yolov5")
	}

	return m.params.Finish(clampNormalized(candidates)), nil
}

// ProcessRaw decodes the single output of a YOLOv5 export without NMS.
//
// Each of the N rows holds cx, cy, w, h in model input pixels, the objectness
// score and C class scores. The final score is objectness * class score.
//
// Arguments:
//   - output: The output tensor shaped [N, 5+C] (leading unit axes are ignored).
//
// Returns:
//   - Detections with boxes normalized to [0, 1] of the model input.
func (m *YOLOv5) ProcessRaw(output tensor.Tensor) ([]postprocess.Result, error) {
	if output == nil {
		return nil, errors.Wrap(postprocess.ErrInvalidShape, "yolov5: output is required")
	}

	shape, err := multiarray.SqueezeTo(output.Shape(), 2)
	if err != nil {
		return nil, errors.Wrapf(postprocess.ErrInvalidShape, "yolov5: %v", err)
	}

	numRows, numCols := shape[0], shape[1]
	if numCols < 6 {
		return nil, errors.Wrapf(postprocess.ErrInvalidShape, "yolov5: rows of %d values, want at least 6", numCols)
	}

	data, err := multiarray.Float32s(output)
	if err != nil {
		return nil, errors.Wrap(err, "yolov5")
	}

	threshold := m.params.ConfidenceThreshold
	sx, sy := 1/m.options.InputSize.Width, 1/m.options.InputSize.Height
	results := make([]postprocess.Result, 0, numRows)

	for i := 0; i < numRows; i++ {
		row := data[i*numCols : (i+1)*numCols]
		objConf := row[4]
		if !(objConf >= threshold) {
			continue
		}

		classID, maxScore := postprocess.ArgMax(row[5:])
		if classID < 0 {
			continue
		}

		finalScore := objConf * maxScore
		if !(finalScore >= threshold) || !m.params.Allowed(classID) {
			continue
		}

		results = append(results, postprocess.Result{
			Box:   images.CenterToCorners(row[0], row[1], row[2], row[3]).Scale(sx, sy),
			Score: finalScore,
			Class: classID,
		})
	}

	return m.params.Finish(clampNormalized(results)), nil
}

// Process implements model.Processor. The confidence/coordinates pair is
// used when present, otherwise the raw output.
func (m *YOLOv5) Process(outputs model.Outputs) ([]postprocess.Result, error) {
	names := m.options.Outputs
	confidence, okConf := outputs[names.Confidence]
	coordinates, okCoords := outputs[names.Coordinates]
	if okConf && okCoords {
		return m.ProcessOutput(confidence, coordinates)
	}

	raw, err := outputs.Lookup(names.Raw)
	if err != nil {
		return nil, errors.Wrap(err, "yolov5")
	}
	return m.ProcessRaw(raw)
}

// clampNormalized clips boxes to the unit square and drops the ones left
// without area.
func clampNormalized(results []postprocess.Result) []postprocess.Result {
	kept := results[:0]
	for _, r := range results {
		r.Box = r.Box.Clamp(1, 1)
		if r.Box.Empty() {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
