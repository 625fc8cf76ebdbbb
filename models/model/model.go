// Package model - Definitions shared by the YOLO post processors.
package model

import (
	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Name is the unique identifier of a post processor.
type Name string

const (
	// ModelNameYOLO decodes a confidence/coordinates pair into camera pixels.
	ModelNameYOLO Name = "yolo"
	// ModelNameYOLOv5 decodes YOLOv5 outputs into normalized boxes.
	ModelNameYOLOv5 Name = "yolov5"
	// ModelNameYOLOv8 decodes the single YOLOv8 output tensor.
	ModelNameYOLOv8 Name = "yolov8"
)

// Names lists every supported post processor.
var Names = []Name{ModelNameYOLO, ModelNameYOLOv5, ModelNameYOLOv8}

// Default output feature names of an Ultralytics CoreML export.
const (
	OutputConfidence  = "confidence"
	OutputCoordinates = "coordinates"
	OutputRaw         = "output"
)

// Layout is the axis order of a single YOLOv8 output tensor.
type Layout string

const (
	// LayoutAuto picks the layout from the tensor shape.
	LayoutAuto Layout = ""
	// LayoutChannelsFirst is [1, 4+C, anchors], the Ultralytics default.
	LayoutChannelsFirst Layout = "channels-first"
	// LayoutChannelsLast is [1, anchors, 4+C].
	LayoutChannelsLast Layout = "channels-last"
)

// OutputNames maps the logical outputs onto the model's feature names.
type OutputNames struct {
	Confidence  string `json:"confidence" yaml:"confidence"`
	Coordinates string `json:"coordinates" yaml:"coordinates"`
	Raw         string `json:"raw" yaml:"raw"`
}

// DefaultOutputNames returns the Ultralytics feature names.
func DefaultOutputNames() OutputNames {
	return OutputNames{
		Confidence:  OutputConfidence,
		Coordinates: OutputCoordinates,
		Raw:         OutputRaw,
	}
}

// NoThreshold and NoLimit disable the confidence threshold and the detection
// cap in a Config, where zero selects the default.
const (
	NoThreshold float32 = -1
	NoLimit     int     = -1
)

// Config is the configuration of a post processor.
//
// Zero values select the defaults. A non-nil NMS is used as given, except
// that a zero IoUThreshold is replaced by the default; YAML and JSON decoding
// fill the NMS keys that are left out.
type Config struct {
	Name                Name                   `json:"name" yaml:"name"`
	// ConfidenceThreshold is the minimum detection score. 0 selects 0.25 and
	// a negative value (NoThreshold) keeps every candidate.
	ConfidenceThreshold float32                `json:"confidenceThreshold" yaml:"confidenceThreshold"`
	NMS                 *postprocess.NMSConfig `json:"nms" yaml:"nms"`
	// MaxDetections caps the number of results. 0 selects 100 and a negative
	// value (NoLimit) keeps every result.
	MaxDetections       int                    `json:"maxDetections" yaml:"maxDetections"`
	InputSize           images.Size            `json:"inputSize" yaml:"inputSize"`
	CameraSize          images.Size            `json:"cameraSize" yaml:"cameraSize"`
	ScaleMode           images.ScaleMode       `json:"scaleMode" yaml:"scaleMode"`
	Layout              Layout                 `json:"layout" yaml:"layout"`
	Outputs             OutputNames            `json:"outputs" yaml:"outputs"`
	Labels              []string               `json:"labels" yaml:"labels"`
	LabelsFile          string                 `json:"labelsFile" yaml:"labelsFile"`
	LabelSet            string                 `json:"labelSet" yaml:"labelSet"`
	Classes             []string               `json:"classes" yaml:"classes"`
}

// DefaultInputSize is the input resolution of the stock YOLO exports.
var DefaultInputSize = images.Size{Width: 640, Height: 640}

// WithDefaults returns a copy of c with every unset field filled in.
func (c Config) WithDefaults() Config {
	def := postprocess.DefaultParams()

	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if c.NMS == nil {
		nms := def.NMS
		c.NMS = &nms
	} else {
		nms := *c.NMS
		if nms.IoUThreshold == 0 {
			nms.IoUThreshold = def.NMS.IoUThreshold
		}
		c.NMS = &nms
	}
	if c.MaxDetections == 0 {
		c.MaxDetections = def.MaxDetections
	}
	if c.InputSize.IsZero() {
		c.InputSize = DefaultInputSize
	}
	if c.ScaleMode == "" {
		c.ScaleMode = images.ScaleFill
	}

	names := DefaultOutputNames()
	if c.Outputs.Confidence == "" {
		c.Outputs.Confidence = names.Confidence
	}
	if c.Outputs.Coordinates == "" {
		c.Outputs.Coordinates = names.Coordinates
	}
	if c.Outputs.Raw == "" {
		c.Outputs.Raw = names.Raw
	}

	return c
}

// Validate checks the ranges of a defaulted configuration.
func (c Config) Validate() error {
	if !(c.ConfidenceThreshold <= 1) {
		return errors.Errorf("confidence threshold %v above 1", c.ConfidenceThreshold)
	}
	if c.NMS != nil && (c.NMS.IoUThreshold < 0 || c.NMS.IoUThreshold > 1) {
		return errors.Errorf("iou threshold %v outside [0, 1]", c.NMS.IoUThreshold)
	}
	if !c.InputSize.Valid() {
		return errors.Errorf("invalid input size %s", c.InputSize)
	}
	if !c.CameraSize.IsZero() && !c.CameraSize.Valid() {
		return errors.Errorf("invalid camera size %s", c.CameraSize)
	}
	switch c.ScaleMode {
	case images.ScaleFill, images.ScaleFit, images.ScaleCrop:
	default:
		return errors.Errorf("unknown scale mode %q", c.ScaleMode)
	}
	switch c.Layout {
	case LayoutAuto, LayoutChannelsFirst, LayoutChannelsLast:
	default:
		return errors.Errorf("unknown layout %q", c.Layout)
	}
	return nil
}

// Params converts the configuration into post processing parameters.
//
// Class names listed in Classes are resolved against Labels.
func (c Config) Params() (postprocess.Params, error) {
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return postprocess.Params{}, err
	}

	p := postprocess.Params{
		ConfidenceThreshold: c.ConfidenceThreshold,
		NMS:                 *c.NMS,
		MaxDetections:       c.MaxDetections,
		Labels:              c.Labels,
	}
	if p.ConfidenceThreshold < 0 {
		p.ConfidenceThreshold = 0
	}
	if p.MaxDetections < 0 {
		p.MaxDetections = 0
	}

	for _, name := range c.Classes {
		idx := -1
		for i, l := range c.Labels {
			if l == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return postprocess.Params{}, errors.Errorf("class %q is not in the label set", name)
		}
		p.Classes = append(p.Classes, idx)
	}

	return p, nil
}

// Outputs maps output feature names to tensors.
type Outputs map[string]tensor.Tensor

// Lookup returns the tensor stored under name. When name is missing and the
// map holds exactly one tensor, that tensor is returned.
func (o Outputs) Lookup(name string) (tensor.Tensor, error) {
	if t, ok := o[name]; ok && t != nil {
		return t, nil
	}
	if len(o) == 1 {
		for _, t := range o {
			if t != nil {
				return t, nil
			}
		}
	}
	return nil, errors.Errorf("output %q not found", name)
}

// Processor turns named model outputs into detections.
type Processor interface {
	Name() Name
	Process(outputs Outputs) ([]postprocess.Result, error)
}
