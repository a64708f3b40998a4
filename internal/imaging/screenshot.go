package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/anthonynsimon/bild/blur"
)

// Screenshot size limits enforced before pipeline entry. Captures outside
// these bounds are rejected as input errors rather than fed to detection.
const (
	MinScreenshotWidth  = 320
	MinScreenshotHeight = 240
	MaxScreenshotWidth  = 7680
	MaxScreenshotHeight = 4320
	MaxScreenshotBytes  = 64 << 20
)

// LoadScreenshot reads and decodes a screenshot file, validating it before
// it can enter the detection pipeline.
//
// Returns an error when the file cannot be read, is larger than
// MaxScreenshotBytes, is not a decodable image, or has dimensions outside
// the supported range. A rejected file is an input error for that unit of
// work only; batch callers skip it and continue with sibling files.
func LoadScreenshot(path string) (image.Image, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat screenshot: %w", err)
	}
	if stat.Size() > MaxScreenshotBytes {
		return nil, fmt.Errorf("screenshot %s too large: %d bytes (max %d)", path, stat.Size(), MaxScreenshotBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot: %w", err)
	}
	return DecodeScreenshot(data)
}

// DecodeScreenshot decodes raw image bytes and validates the dimensions.
func DecodeScreenshot(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < MinScreenshotWidth || h < MinScreenshotHeight {
		return nil, fmt.Errorf("screenshot %dx%d below minimum %dx%d", w, h, MinScreenshotWidth, MinScreenshotHeight)
	}
	if w > MaxScreenshotWidth || h > MaxScreenshotHeight {
		return nil, fmt.Errorf("screenshot %dx%d above maximum %dx%d", w, h, MaxScreenshotWidth, MaxScreenshotHeight)
	}
	return img, nil
}

// Smooth applies a light Gaussian blur to suppress single-pixel noise
// before column scanning. The radius is in pixels; values around 1.0 keep
// rarity border colors intact while removing speckle.
func Smooth(img image.Image, radius float64) *image.RGBA {
	return blur.Gaussian(img, radius)
}
