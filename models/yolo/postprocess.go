// Package yolo - postprocess YOLO model outputs into camera coordinates.
package yolo

import (
	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/models/model"
	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ProcessOutput decodes the confidence/coordinates pair and maps every box
// from the model input into the camera frame.
//
// Arguments:
//   - confidence: Class scores shaped [N, C].
//   - coordinates: Normalized cx, cy, w, h boxes shaped [N, 4].
//   - cameraSize: The size of the frame that was fed to the model.
//   - modelInputSize: The size of the model input.
//
// Returns:
//   - Detections in camera pixels, clamped to the frame, highest score first.
func (m *YOLO) ProcessOutput(
	confidence, coordinates tensor.Tensor,
	cameraSize, modelInputSize images.Size,
) ([]postprocess.Result, error) {
	transform, err := images.NewTransform(cameraSize, modelInputSize, m.options.ScaleMode)
	if err != nil {
		return nil, errors.Wrap(err, "yolo")
	}

	candidates, err := postprocess.DecodeSplit(confidence, coordinates, m.params.ConfidenceThreshold, m.params.Allowed)
	if err != nil {
		return nil, errors.Wrap(err, "yolo")
	}

	kept := candidates[:0]
	for _, r := range candidates {
		box := r.Box.Scale(modelInputSize.Width, modelInputSize.Height)
		r.Box = transform.RectToCamera(box).Clamp(cameraSize.Width, cameraSize.Height)
		if r.Box.Empty() {
			continue
		}
		kept = append(kept, r)
	}

	return m.params.Finish(kept), nil
}

// Process implements model.Processor with the configured camera and model
// input sizes.
func (m *YOLO) Process(outputs model.Outputs) ([]postprocess.Result, error) {
	if m.options.CameraSize.IsZero() {
		return nil, errors.New("yolo: camera size is not configured")
	}

	names := m.options.Outputs
	return m.ProcessOutput(outputs[names.Confidence], outputs[names.Coordinates], m.options.CameraSize, m.options.InputSize)
}
