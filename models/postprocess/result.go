// Package postprocess - Postprocessing utilities for YOLO model outputs.
package postprocess

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/nvr-ai/go-yolo/images"
)

// Dictionary keys of a detection.
const (
	KeyX          = "x"
	KeyY          = "y"
	KeyWidth      = "width"
	KeyHeight     = "height"
	KeyConfidence = "confidence"
	KeyClassIndex = "classIndex"
	KeyLabel      = "label"
)

// Result represents a single detection result.
type Result struct {
	// The bounding box of the result.
	Box images.Rect
	// The confidence score of the result.
	Score float32
	// The predicted class index of the result.
	Class int
	// The human-readable class name, empty when no labels are configured.
	Label string
}

// String formats the result for logs.
func (r Result) String() string {
	return fmt.Sprintf("Object %s#%d (confidence %f): (%.2f, %.2f), (%.2f, %.2f)",
		r.Label, r.Class, r.Score, r.Box.X1, r.Box.Y1, r.Box.X2, r.Box.Y2)
}

// Map returns the dictionary form of the result: top-left x/y, width, height,
// confidence, classIndex and (when set) label.
func (r Result) Map() map[string]any {
	m := map[string]any{
		KeyX:          r.Box.X1,
		KeyY:          r.Box.Y1,
		KeyWidth:      r.Box.Width(),
		KeyHeight:     r.Box.Height(),
		KeyConfidence: r.Score,
		KeyClassIndex: r.Class,
	}
	if r.Label != "" {
		m[KeyLabel] = r.Label
	}
	return m
}

// MarshalJSON encodes the dictionary form.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// Maps converts results into a slice of dictionaries.
func Maps(results []Result) []map[string]any {
	out := make([]map[string]any, len(results))
	for i, r := range results {
		out[i] = r.Map()
	}
	return out
}
