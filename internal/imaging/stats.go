package imaging

import (
	"image"
)

// RegionStats summarizes the pixel content of one region.
type RegionStats struct {
	// MeanBrightness is the average BT.601 luminance, 0-255.
	MeanBrightness float64 `json:"mean_brightness"`

	// TotalVariance is the sum of the per-channel (R, G, B) variances.
	// Uniform fills have variance near zero; icon art scores high.
	TotalVariance float64 `json:"total_variance"`

	// ColorfulRatio is the fraction of sampled pixels whose max-min channel
	// spread exceeds the colorfulness threshold, 0-1. Grayscale content
	// scores near zero.
	ColorfulRatio float64 `json:"colorful_ratio"`

	// SampledPixels is the number of pixels that contributed to the stats.
	SampledPixels int `json:"sampled_pixels"`
}

// Channel spread above which a pixel counts as colorful.
const colorfulSpread = 30

// Luminance returns the BT.601 luminance of an 8-bit RGB pixel, 0-255.
func Luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// AnalyzeRegion computes brightness, variance, and colorfulness statistics
// for a region of an image. Regions partially outside the image are clipped
// to the image bounds. An empty or fully-clipped region yields zero stats.
func AnalyzeRegion(img image.Image, reg Region) RegionStats {
	bounds := img.Bounds()
	clip := reg.Intersect(Region{
		X:      bounds.Min.X,
		Y:      bounds.Min.Y,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	})
	if clip.Area() == 0 {
		return RegionStats{}
	}

	var (
		n                   int
		sumR, sumG, sumB    float64
		sumR2, sumG2, sumB2 float64
		sumLum              float64
		colorful            int
	)

	for y := clip.Y; y < clip.Y+clip.Height; y++ {
		for x := clip.X; x < clip.X+clip.Width; x++ {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r := float64(r16 >> 8)
			g := float64(g16 >> 8)
			b := float64(b16 >> 8)

			sumR += r
			sumG += g
			sumB += b
			sumR2 += r * r
			sumG2 += g * g
			sumB2 += b * b
			sumLum += 0.299*r + 0.587*g + 0.114*b

			maxC, minC := r, r
			for _, c := range [2]float64{g, b} {
				if c > maxC {
					maxC = c
				}
				if c < minC {
					minC = c
				}
			}
			if maxC-minC > colorfulSpread {
				colorful++
			}
			n++
		}
	}

	fn := float64(n)
	varR := sumR2/fn - (sumR/fn)*(sumR/fn)
	varG := sumG2/fn - (sumG/fn)*(sumG/fn)
	varB := sumB2/fn - (sumB/fn)*(sumB/fn)

	return RegionStats{
		MeanBrightness: sumLum / fn,
		TotalVariance:  varR + varG + varB,
		ColorfulRatio:  float64(colorful) / fn,
		SampledPixels:  n,
	}
}

// StripStats computes luminance mean and variance over a horizontal strip,
// sampling every xStep-th column and yStep-th row for speed. Steps below 1
// are treated as 1.
func StripStats(img image.Image, topY, height, xStep, yStep int) (mean, variance float64, samples int) {
	if xStep < 1 {
		xStep = 1
	}
	if yStep < 1 {
		yStep = 1
	}
	bounds := img.Bounds()

	var sum, sum2 float64
	for y := topY; y < topY+height && y < bounds.Max.Y; y += yStep {
		for x := bounds.Min.X; x < bounds.Max.X; x += xStep {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			l := Luminance(uint8(r16>>8), uint8(g16>>8), uint8(b16>>8))
			sum += l
			sum2 += l * l
			samples++
		}
	}
	if samples == 0 {
		return 0, 0, 0
	}
	fn := float64(samples)
	mean = sum / fn
	variance = sum2/fn - mean*mean
	return mean, variance, samples
}
