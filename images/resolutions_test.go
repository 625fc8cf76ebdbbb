package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolution_GetMegaPixels(t *testing.T) {
	testCases := []struct {
		name     string
		res      Resolution
		expected float64
	}{
		{"Full HD 1080p", Resolutions["1080p"], 2.07},
		{"4K UHD", Resolutions["4k"], 8.29},
		{"1MP (5:4)", Resolutions["1mp"], 1.31},
		{"Zero Width", Resolution{Width: 0, Height: 1080}, 0.0},
		{"Zero Height", Resolution{Width: 1920, Height: 0}, 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.res.GetMegaPixels())
		})
	}
}

func TestLookupResolution(t *testing.T) {
	r, ok := LookupResolution(" 1080P ")
	require.True(t, ok)
	assert.Equal(t, Size{Width: 1920, Height: 1080}, r.Size())
	assert.Equal(t, "1080p (1920x1080, 2.07MP)", r.String())

	_, ok = LookupResolution("2160i")
	assert.False(t, ok)

	for alias, r := range Resolutions {
		assert.Equal(t, alias, r.Alias)
		assert.True(t, r.Size().Valid(), alias)
	}
}

func TestParseSizeAlias(t *testing.T) {
	s, err := ParseSize("720p")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 1280, Height: 720}, s)

	s, err = ParseSize("4K")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 3840, Height: 2160}, s)
}
