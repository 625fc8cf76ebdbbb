// Package models - registry for post processors.
package models

import (
	"github.com/nvr-ai/go-yolo/models/model"
	"github.com/nvr-ai/go-yolo/models/yolo"
	"github.com/nvr-ai/go-yolo/models/yolov5"
	"github.com/nvr-ai/go-yolo/models/yolov8"
	"github.com/pkg/errors"
)

// NewProcessor creates a post processor for the model named in cfg.
//
// Labels are resolved before construction: LabelsFile wins over an inline
// Labels list, which wins over LabelSet.
//
// Arguments:
//   - cfg: The post processor configuration.
//
// Returns:
//   - model.Processor: The configured post processor.
//   - error: An error if the name is unsupported, the labels cannot be loaded
//     or the configuration is invalid.
//
// Example:
//
//	p, err := models.NewProcessor(model.Config{
//	    Name:     model.ModelNameYOLOv8,
//	    LabelSet: string(models.LabelSetCOCO),
//	})
//	if err != nil {
//	    log.Fatalf("Failed to create post processor: %v", err)
//	}
//	detections, err := p.Process(model.Outputs{"output": output})
func NewProcessor(cfg model.Config) (model.Processor, error) {
	labels, err := ResolveLabels(cfg)
	if err != nil {
		return nil, err
	}
	cfg.Labels = labels

	switch cfg.Name {
	case model.ModelNameYOLO:
		m, err := yolo.NewModel(cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	case model.ModelNameYOLOv5:
		m, err := yolov5.NewModel(cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	case model.ModelNameYOLOv8:
		m, err := yolov8.NewModel(cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedProcessor, "%q", cfg.Name)
	}
}

// ErrUnsupportedProcessor is returned by NewProcessor for unknown names.
var ErrUnsupportedProcessor = errors.New("unsupported post processor")

// ResolveLabels returns the class labels configured in cfg, or nil when none
// are configured.
func ResolveLabels(cfg model.Config) (Labels, error) {
	switch {
	case cfg.LabelsFile != "":
		return LoadLabels(cfg.LabelsFile)
	case len(cfg.Labels) > 0:
		return cfg.Labels, nil
	case cfg.LabelSet != "":
		return LookupLabelSet(LabelSet(cfg.LabelSet))
	default:
		return nil, nil
	}
}
