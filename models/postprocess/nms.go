// Package postprocess - provides Non-Maximum Suppression for detection results.
package postprocess

import (
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/nvr-ai/go-yolo/images"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// parallelMinCandidates is the number of remaining candidates below which
// ApplyNMS compares boxes inline instead of fanning out to workers.
const parallelMinCandidates = 64

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	Greedy       bool    `json:"greedy" yaml:"greedy"`             // If true, use sequential greedy NMS.
	IoUThreshold float32 `json:"iouThreshold" yaml:"iouThreshold"` // Overlap threshold for suppression.
	ClassAware   bool    `json:"classAware" yaml:"classAware"`     // If true, suppress only within same class.
	NumWorkers   int     `json:"numWorkers" yaml:"numWorkers"`     // Number of goroutines for parallel IoU computation.
}

// DefaultNMSConfig returns the thresholds used by Ultralytics exports:
// class-aware suppression at IoU 0.45.
func DefaultNMSConfig() NMSConfig {
	return NMSConfig{
		Greedy:       true,
		IoUThreshold: 0.45,
		ClassAware:   true,
		NumWorkers:   1,
	}
}

// nmsKeys are the YAML keys of NMSConfig.
var nmsKeys = map[string]bool{"greedy": true, "iouThreshold": true, "classAware": true, "numWorkers": true}

// UnmarshalYAML decodes an nms block over DefaultNMSConfig, so keys that are
// left out keep their defaults. Unknown keys are rejected.
func (c *NMSConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			key := value.Content[i]
			if !nmsKeys[key.Value] {
				return errors.Errorf("line %d: unknown nms field %q", key.Line, key.Value)
			}
		}
	}

	type plain NMSConfig
	p := plain(DefaultNMSConfig())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*c = NMSConfig(p)
	return nil
}

// UnmarshalJSON decodes an nms object over DefaultNMSConfig.
func (c *NMSConfig) UnmarshalJSON(data []byte) error {
	type plain NMSConfig
	p := plain(DefaultNMSConfig())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = NMSConfig(p)
	return nil
}

func (c *NMSConfig) suppresses(anchor, candidate Result) bool {
	if c.ClassAware && anchor.Class != candidate.Class {
		return false
	}
	return images.CalculateIoU(anchor.Box, candidate.Box) > c.IoUThreshold
}

// SortByScore orders detections by descending score. Equal scores keep their
// input order.
func SortByScore(detections []Result) {
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Score > detections[j].Score
	})
}

// TopK truncates detections to at most k entries. k <= 0 keeps everything.
func TopK(detections []Result, k int) []Result {
	if k > 0 && len(detections) > k {
		return detections[:k]
	}
	return detections
}

// Suppress sorts detections and runs the NMS variant selected by config.
//
// Arguments:
//   - detections: Candidate detections in any order. The slice is reordered in place.
//   - config: NMS configuration. A nil config uses DefaultNMSConfig.
//
// Returns:
//   - The kept detections, highest score first.
func Suppress(detections []Result, config *NMSConfig) []Result {
	if config == nil {
		def := DefaultNMSConfig()
		config = &def
	}

	SortByScore(detections)

	if config.Greedy {
		return ApplyGreedyNMS(detections, config)
	}
	return ApplyNMS(detections, config)
}

// ApplyNMS filters overlapping detections using Non-Maximum Suppression.
//
// For every kept anchor the remaining candidates are split into NumWorkers
// contiguous ranges and compared concurrently. Each worker only writes the
// suppression flags of its own range, so the output is identical to
// ApplyGreedyNMS.
//
// Arguments:
//   - detections: Sorted slice of detections (highest score first).
//
// - config: NMS configuration. If ClassAware, suppress only within same class. If not, suppress all
// overlapping detections.
//
// Returns:
//   - Filtered slice of detections. If no detections are provided, returns nil.
func ApplyNMS(detections []Result, config *NMSConfig) []Result {
	n := len(detections)
	if n == 0 {
		return nil
	}

	workers := config.NumWorkers
	if workers <= 1 {
		return ApplyGreedyNMS(detections, config)
	}

	suppressed := make([]bool, n)
	filtered := make([]Result, 0, n)

	for i := 0; i < n; i++ {
		if suppressed[i] {
			continue
		}

		anchor := detections[i]
		filtered = append(filtered, anchor)

		rest := n - i - 1
		if rest < parallelMinCandidates {
			for j := i + 1; j < n; j++ {
				if !suppressed[j] && config.suppresses(anchor, detections[j]) {
					suppressed[j] = true
				}
			}
			continue
		}

		chunk := (rest + workers - 1) / workers
		var wg sync.WaitGroup
		for start := i + 1; start < n; start += chunk {
			end := min(start+chunk, n)
			wg.Add(1)
			go func(start, end int) {
				defer wg.Done()
				for j := start; j < end; j++ {
					if !suppressed[j] && config.suppresses(anchor, detections[j]) {
						suppressed[j] = true
					}
				}
			}(start, end)
		}
		wg.Wait()
	}

	return filtered
}

// ApplyGreedyNMS performs standard greedy Non-Maximum Suppression.
//
// Arguments:
//   - detections: Slice of detections sorted by descending confidence.
//   - config: IoU threshold above which overlapping boxes are suppressed.
//
// Returns:
//   - Filtered slice of detections.
func ApplyGreedyNMS(detections []Result, config *NMSConfig) []Result {
	n := len(detections)
	if n == 0 {
		return nil
	}

	filtered := make([]Result, 0, n)
	used := make([]bool, n)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}

		anchor := detections[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}

			if config.suppresses(anchor, detections[j]) {
				used[j] = true
			}
		}
	}

	return filtered
}
