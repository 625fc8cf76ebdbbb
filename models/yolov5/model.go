// Package yolov5 - YOLOv5 post processor.
package yolov5

import (
	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/models/model"
	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/pkg/errors"
)

// Options is the options for the YOLOv5 post processor.
type Options struct {
	Name      model.Name        `json:"name" yaml:"name"`
	InputSize images.Size       `json:"inputSize" yaml:"inputSize"`
	Outputs   model.OutputNames `json:"outputs" yaml:"outputs"`
}

// YOLOv5 is the instance of the YOLOv5 post processor.
//
// It is immutable after construction and safe for concurrent use.
type YOLOv5 struct {
	options Options
	params  postprocess.Params
}

// NewModel creates a new YOLOv5 post processor.
//
// Arguments:
//   - cfg: The post processor configuration. Unset fields take defaults.
//
// Returns:
//   - The post processor, or an error if the configuration is invalid.
func NewModel(cfg model.Config) (*YOLOv5, error) {
	cfg = cfg.WithDefaults()

	params, err := cfg.Params()
	if err != nil {
		return nil, errors.Wrap(err, "yolov5")
	}

	return &YOLOv5{
		options: Options{
			Name:      model.ModelNameYOLOv5,
			InputSize: cfg.InputSize,
			Outputs:   cfg.Outputs,
		},
		params: params,
	}, nil
}

// Name returns model.ModelNameYOLOv5.
func (m *YOLOv5) Name() model.Name {
	return m.options.Name
}

// Options returns the options for the YOLOv5 post processor.
func (m *YOLOv5) Options() Options {
	return m.options
}

// Params returns the post processing parameters.
func (m *YOLOv5) Params() postprocess.Params {
	return m.params
}
