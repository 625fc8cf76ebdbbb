package model

import (
	"testing"

	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefaults(t *testing.T) {
	c := Config{}.WithDefaults()

	assert.Equal(t, float32(0.25), c.ConfidenceThreshold)
	assert.Equal(t, 100, c.MaxDetections)
	require.NotNil(t, c.NMS)
	assert.Equal(t, postprocess.DefaultNMSConfig(), *c.NMS)
	assert.Equal(t, DefaultInputSize, c.InputSize)
	assert.Equal(t, images.ScaleFill, c.ScaleMode)
	assert.Equal(t, DefaultOutputNames(), c.Outputs)

	nms := &postprocess.NMSConfig{ClassAware: false, NumWorkers: 4}
	c = Config{NMS: nms}.WithDefaults()
	assert.Equal(t, postprocess.NMSConfig{IoUThreshold: 0.45, NumWorkers: 4}, *c.NMS)
	assert.Equal(t, float32(0), nms.IoUThreshold, "caller's NMS is not modified")
}

func TestParamsUnlimited(t *testing.T) {
	p, err := Config{}.Params()
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), p.ConfidenceThreshold)
	assert.Equal(t, 100, p.MaxDetections)

	p, err = Config{ConfidenceThreshold: NoThreshold, MaxDetections: NoLimit}.Params()
	require.NoError(t, err)
	assert.Equal(t, float32(0), p.ConfidenceThreshold)
	assert.Equal(t, 0, p.MaxDetections)

	candidates := make([]postprocess.Result, 150)
	for i := range candidates {
		x := float32(i * 10)
		candidates[i] = postprocess.Result{Box: images.Rect{X1: x, Y1: 0, X2: x + 5, Y2: 5}, Score: 0.5}
	}
	assert.Len(t, p.Finish(candidates), 150)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"no threshold", Config{ConfidenceThreshold: NoThreshold}, false},
		{"threshold above one", Config{ConfidenceThreshold: 1.5}, true},
		{"iou above one", Config{NMS: &postprocess.NMSConfig{IoUThreshold: 2}}, true},
		{"scale mode", Config{ScaleMode: "zoom"}, true},
		{"layout", Config{Layout: "nchw"}, true},
		{"camera size", Config{CameraSize: images.Size{Width: 10}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.WithDefaults().Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
