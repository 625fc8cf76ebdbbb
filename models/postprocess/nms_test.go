package postprocess

import (
	"math/rand"
	"testing"

	"github.com/goccy/go-json"
	"github.com/nvr-ai/go-yolo/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func box(x1, y1, x2, y2 float32) images.Rect {
	return images.Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func TestApplyGreedyNMS(t *testing.T) {
	tests := []struct {
		name       string
		classAware bool
		input      []Result
		expected   []float32
	}{
		{
			name:     "empty input",
			input:    nil,
			expected: nil,
		},
		{
			name:       "overlapping same class keeps highest",
			classAware: true,
			input: []Result{
				{Box: box(0, 0, 100, 100), Score: 0.9, Class: 0},
				{Box: box(5, 5, 105, 105), Score: 0.8, Class: 0},
				{Box: box(300, 300, 400, 400), Score: 0.7, Class: 0},
			},
			expected: []float32{0.9, 0.7},
		},
		{
			name:       "class aware keeps overlapping boxes of different classes",
			classAware: true,
			input: []Result{
				{Box: box(0, 0, 100, 100), Score: 0.9, Class: 0},
				{Box: box(5, 5, 105, 105), Score: 0.8, Class: 1},
			},
			expected: []float32{0.9, 0.8},
		},
		{
			name:       "class agnostic suppresses across classes",
			classAware: false,
			input: []Result{
				{Box: box(0, 0, 100, 100), Score: 0.9, Class: 0},
				{Box: box(5, 5, 105, 105), Score: 0.8, Class: 1},
			},
			expected: []float32{0.9},
		},
		{
			name:       "overlap below threshold is kept",
			classAware: true,
			input: []Result{
				{Box: box(0, 0, 100, 100), Score: 0.9, Class: 0},
				{Box: box(50, 50, 150, 150), Score: 0.8, Class: 0}, // IoU 0.14
			},
			expected: []float32{0.9, 0.8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &NMSConfig{IoUThreshold: 0.45, ClassAware: tt.classAware}
			got := ApplyGreedyNMS(tt.input, cfg)

			var scores []float32
			for _, r := range got {
				scores = append(scores, r.Score)
			}
			assert.Equal(t, tt.expected, scores)
		})
	}
}

// randomDetections builds clustered boxes so that suppression actually happens.
func randomDetections(rng *rand.Rand, n int) []Result {
	out := make([]Result, n)
	for i := range out {
		cx := float32(rng.Intn(8)) * 80
		cy := float32(rng.Intn(8)) * 80
		jx, jy := rng.Float32()*20, rng.Float32()*20
		out[i] = Result{
			Box:   box(cx+jx, cy+jy, cx+jx+60, cy+jy+60),
			Score: rng.Float32(),
			Class: rng.Intn(3),
		}
	}
	return out
}

func TestApplyNMSMatchesGreedy(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, workers := range []int{0, 1, 2, 4, 7} {
		for _, n := range []int{1, 10, 65, 300} {
			detections := randomDetections(rng, n)
			SortByScore(detections)

			cfg := &NMSConfig{IoUThreshold: 0.5, ClassAware: true, NumWorkers: workers}
			greedy := ApplyGreedyNMS(detections, cfg)
			parallel := ApplyNMS(detections, cfg)

			require.Equal(t, greedy, parallel, "workers=%d n=%d", workers, n)
		}
	}
}

func TestNMSInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	detections := randomDetections(rng, 500)

	cfg := &NMSConfig{IoUThreshold: 0.3, ClassAware: true, NumWorkers: 4}
	kept := Suppress(detections, cfg)

	for i := range kept {
		if i > 0 {
			assert.GreaterOrEqual(t, kept[i-1].Score, kept[i].Score, "results must be sorted")
		}
		for j := i + 1; j < len(kept); j++ {
			if kept[i].Class != kept[j].Class {
				continue
			}
			assert.LessOrEqual(t, images.CalculateIoU(kept[i].Box, kept[j].Box), cfg.IoUThreshold)
		}
	}
}

func TestSuppressNilConfigUsesDefaults(t *testing.T) {
	input := []Result{
		{Box: box(5, 5, 105, 105), Score: 0.5, Class: 2},
		{Box: box(0, 0, 100, 100), Score: 0.9, Class: 2},
	}
	got := Suppress(input, nil)
	require.Len(t, got, 1)
	assert.Equal(t, float32(0.9), got[0].Score)
}

func TestNMSConfigDecodeKeepsDefaults(t *testing.T) {
	want := DefaultNMSConfig()
	want.NumWorkers = 4

	var fromYAML NMSConfig
	require.NoError(t, yaml.Unmarshal([]byte("numWorkers: 4\n"), &fromYAML))
	assert.Equal(t, want, fromYAML)

	var fromJSON NMSConfig
	require.NoError(t, json.Unmarshal([]byte(`{"numWorkers":4}`), &fromJSON))
	assert.Equal(t, want, fromJSON)

	var bad NMSConfig
	assert.Error(t, yaml.Unmarshal([]byte("threshold: 0.4\n"), &bad))
}

func TestSortByScoreIsStable(t *testing.T) {
	input := []Result{
		{Score: 0.5, Class: 1},
		{Score: 0.9, Class: 2},
		{Score: 0.5, Class: 3},
	}
	SortByScore(input)
	assert.Equal(t, []int{2, 1, 3}, []int{input[0].Class, input[1].Class, input[2].Class})
}

func TestTopK(t *testing.T) {
	input := []Result{{Score: 3}, {Score: 2}, {Score: 1}}
	assert.Len(t, TopK(input, 2), 2)
	assert.Len(t, TopK(input, 0), 3)
	assert.Len(t, TopK(input, 10), 3)
}

func BenchmarkApplyNMS(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	detections := randomDetections(rng, 2000)
	SortByScore(detections)

	for _, workers := range []int{1, 4} {
		cfg := &NMSConfig{IoUThreshold: 0.45, ClassAware: true, NumWorkers: workers}
		b.Run(map[int]string{1: "sequential", 4: "workers-4"}[workers], func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = ApplyNMS(detections, cfg)
			}
		})
	}
}
