package matching

import (
	"math"

	"gearsight/internal/imaging"
)

// SSIM stabilization constants for L=1 dynamic range (K1=0.01, K2=0.03).
const (
	ssimC1 = 0.01 * 0.01
	ssimC2 = 0.03 * 0.03
)

// Similarity scores two equal-sized grayscale rasters with the selected
// algorithm. The result is always in [0, 1], with 1 meaning identical
// content. Mismatched raster sizes score 0.
func Similarity(algo Algorithm, a, b *imaging.Raster) float64 {
	if a == nil || b == nil || a.Width != b.Width || a.Height != b.Height || len(a.Pix) == 0 {
		return 0
	}
	switch algo {
	case AlgorithmSSD:
		return ssdScore(a, b)
	case AlgorithmSSIM:
		return ssimScore(a, b)
	default:
		return nccScore(a, b)
	}
}

// nccScore computes zero-mean normalized cross-correlation, mapped from
// [-1, 1] onto [0, 1]. Two flat rasters correlate perfectly when their
// means agree and not at all otherwise.
func nccScore(a, b *imaging.Raster) float64 {
	meanA := meanOf(a.Pix)
	meanB := meanOf(b.Pix)

	var num, denA, denB float64
	for i := range a.Pix {
		da := a.Pix[i] - meanA
		db := b.Pix[i] - meanB
		num += da * db
		denA += da * da
		denB += db * db
	}

	if denA == 0 || denB == 0 {
		// Flat raster(s): correlation is undefined, fall back to mean
		// agreement.
		d := math.Abs(meanA - meanB)
		return 1 - d
	}

	r := num / math.Sqrt(denA*denB)
	return clamp01((r + 1) / 2)
}

// ssdScore converts mean squared difference into a similarity in [0, 1].
func ssdScore(a, b *imaging.Raster) float64 {
	var sum float64
	for i := range a.Pix {
		d := a.Pix[i] - b.Pix[i]
		sum += d * d
	}
	mse := sum / float64(len(a.Pix))
	return clamp01(1 - mse)
}

// ssimScore computes single-window structural similarity over the whole
// raster, mapped from [-1, 1] onto [0, 1].
func ssimScore(a, b *imaging.Raster) float64 {
	meanA := meanOf(a.Pix)
	meanB := meanOf(b.Pix)

	var varA, varB, cov float64
	for i := range a.Pix {
		da := a.Pix[i] - meanA
		db := b.Pix[i] - meanB
		varA += da * da
		varB += db * db
		cov += da * db
	}
	n := float64(len(a.Pix))
	varA /= n
	varB /= n
	cov /= n

	num := (2*meanA*meanB + ssimC1) * (2*cov + ssimC2)
	den := (meanA*meanA + meanB*meanB + ssimC1) * (varA + varB + ssimC2)
	s := num / den
	return clamp01((s + 1) / 2)
}

func meanOf(pix []float64) float64 {
	var sum float64
	for _, v := range pix {
		sum += v
	}
	return sum / float64(len(pix))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
