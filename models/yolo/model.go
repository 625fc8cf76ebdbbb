// Package yolo - camera-space YOLO post processor.
package yolo

import (
	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/models/model"
	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/pkg/errors"
)

// Options is the options for the YOLO post processor.
type Options struct {
	Name       model.Name        `json:"name" yaml:"name"`
	InputSize  images.Size       `json:"inputSize" yaml:"inputSize"`
	CameraSize images.Size       `json:"cameraSize" yaml:"cameraSize"`
	ScaleMode  images.ScaleMode  `json:"scaleMode" yaml:"scaleMode"`
	Outputs    model.OutputNames `json:"outputs" yaml:"outputs"`
}

// YOLO decodes the confidence/coordinates pair of an NMS pipeline export and
// maps the boxes into the camera frame.
type YOLO struct {
	options Options
	params  postprocess.Params
}

// NewModel creates a new YOLO post processor.
//
// Arguments:
//   - cfg: The post processor configuration. CameraSize may be left unset
//     when only ProcessOutput is used.
//
// Returns:
//   - The post processor, or an error if the configuration is invalid.
func NewModel(cfg model.Config) (*YOLO, error) {
	cfg = cfg.WithDefaults()

	params, err := cfg.Params()
	if err != nil {
		return nil, errors.Wrap(err, "yolo")
	}

	return &YOLO{
		options: Options{
			Name:       model.ModelNameYOLO,
			InputSize:  cfg.InputSize,
			CameraSize: cfg.CameraSize,
			ScaleMode:  cfg.ScaleMode,
			Outputs:    cfg.Outputs,
		},
		params: params,
	}, nil
}

// Name returns model.ModelNameYOLO.
func (m *YOLO) Name() model.Name {
	return m.options.Name
}

// Options returns the options for the YOLO post processor.
func (m *YOLO) Options() Options {
	return m.options
}

// Params returns the post processing parameters.
func (m *YOLO) Params() postprocess.Params {
	return m.params
}
