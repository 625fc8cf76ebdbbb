// Package yolov8 - YOLOv8 post processor.
package yolov8

import (
	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/models/model"
	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/pkg/errors"
)

// Options is the options for the YOLOv8 post processor.
type Options struct {
	Name      model.Name        `json:"name" yaml:"name"`
	InputSize images.Size       `json:"inputSize" yaml:"inputSize"`
	Layout    model.Layout      `json:"layout" yaml:"layout"`
	Outputs   model.OutputNames `json:"outputs" yaml:"outputs"`
}

// YOLOv8 is the instance of the YOLOv8 post processor.
type YOLOv8 struct {
	options Options
	params  postprocess.Params
}

// NewModel creates a new YOLOv8 post processor.
//
// Arguments:
//   - cfg: The post processor configuration. Unset fields take defaults.
//
// Returns:
//   - The post processor, or an error if the configuration is invalid.
func NewModel(cfg model.Config) (*YOLOv8, error) {
	cfg = cfg.WithDefaults()

	params, err := cfg.Params()
	if err != nil {
		return nil, errors.Wrap(err, "yolov8")
	}

	return &YOLOv8{
		options: Options{
			Name:      model.ModelNameYOLOv8,
			InputSize: cfg.InputSize,
			Layout:    cfg.Layout,
			Outputs:   cfg.Outputs,
		},
		params: params,
	}, nil
}

// Name returns model.ModelNameYOLOv8.
func (m *YOLOv8) Name() model.Name {
	return m.options.Name
}

// Options returns the options for the YOLOv8 post processor.
func (m *YOLOv8) Options() Options {
	return m.options
}

// Params returns the post processing parameters.
func (m *YOLOv8) Params() postprocess.Params {
	return m.params
}
