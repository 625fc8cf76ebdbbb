package images

import (
	"fmt"
	"math"
	"strings"
)

// AspectRatio represents a camera aspect ratio by name (e.g., "16:9").
type AspectRatio string

// Standard aspect ratios of surveillance and phone cameras.
const (
	AspectRatio169 AspectRatio = "16:9"
	AspectRatio43  AspectRatio = "4:3"
	AspectRatio54  AspectRatio = "5:4"
)

// Resolution describes a named camera resolution.
type Resolution struct {
	Alias       string      `json:"alias"`
	AspectRatio AspectRatio `json:"aspectRatio"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
}

// GetMegaPixels returns the pixel count in millions, rounded to two decimal
// places (e.g., 2.07 for 1080p).
func (r Resolution) GetMegaPixels() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Width*r.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// Size returns the resolution as a Size.
func (r Resolution) Size() Size {
	return Size{Width: float32(r.Width), Height: float32(r.Height)}
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Alias, r.Width, r.Height, r.GetMegaPixels())
}

// Resolutions holds the named camera resolutions accepted by ParseSize,
// keyed by lower case alias.
var Resolutions = map[string]Resolution{
	"nhd":   {Alias: "nhd", AspectRatio: AspectRatio169, Width: 640, Height: 360},
	"vga":   {Alias: "vga", AspectRatio: AspectRatio43, Width: 640, Height: 480},
	"720p":  {Alias: "720p", AspectRatio: AspectRatio169, Width: 1280, Height: 720},
	"1mp":   {Alias: "1mp", AspectRatio: AspectRatio54, Width: 1280, Height: 1024},
	"1080p": {Alias: "1080p", AspectRatio: AspectRatio169, Width: 1920, Height: 1080},
	"3mp":   {Alias: "3mp", AspectRatio: AspectRatio43, Width: 2048, Height: 1536},
	"1440p": {Alias: "1440p", AspectRatio: AspectRatio169, Width: 2560, Height: 1440},
	"4k":    {Alias: "4k", AspectRatio: AspectRatio169, Width: 3840, Height: 2160},
	"12mp":  {Alias: "12mp", AspectRatio: AspectRatio43, Width: 4032, Height: 3024},
}

// LookupResolution returns the named resolution, ignoring case.
func LookupResolution(alias string) (Resolution, bool) {
	r, ok := Resolutions[strings.ToLower(strings.TrimSpace(alias))]
	return r, ok
}
