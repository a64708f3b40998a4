package detection

import (
	"fmt"
	"image"
	"math"
	"sort"

	"gearsight/internal/imaging"
)

// BandRegion is the detected horizontal strip containing the item hotbar.
type BandRegion struct {
	// TopY and BottomY bound the band vertically (TopY < BottomY).
	TopY    int `json:"top_y"`
	BottomY int `json:"bottom_y"`

	// Height is BottomY - TopY, clamped to at most 12% of screen height.
	Height int `json:"height"`

	// Confidence indicates how clearly the band stood out from competing
	// strips (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// StripScores lists every candidate strip that was scored, for
	// diagnosability. Sorted by TopY.
	StripScores []StripScore `json:"strip_scores"`
}

// StripScore is the score of one candidate strip during band detection.
type StripScore struct {
	TopY     int     `json:"top_y"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Score    float64 `json:"score"`
}

// DetectBand locates the hotbar band in the bottom portion of the frame.
//
// Fixed-thickness strips within the bottom BandSearchFraction of the
// screen are scored by a brightness/variance signature that distinguishes
// HUD content (structured, mid-bright, high-variance) from game background
// (either flat or uniformly dark). The arg-max strip wins; its height is
// clamped to BandMaxHeightFraction of screen height.
//
// Works across arbitrary resolutions; strip thickness scales with the
// frame. Returns an error only when the image is too small to hold a
// single strip.
func DetectBand(img image.Image, tun Tuning) (*BandRegion, error) {
	tun = tun.sanitize()
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	stripH := int(float64(h) * tun.BandStripFraction)
	if stripH < 8 {
		stripH = 8
	}
	searchTop := int(float64(h)*(1-tun.BandSearchFraction)) + 1
	if searchTop+stripH > h {
		return nil, fmt.Errorf("image %dx%d too small for band search", w, h)
	}

	// Sample sparsely; band detection needs the signature, not every pixel.
	xStep := w / 320
	if xStep < 1 {
		xStep = 1
	}

	var scores []StripScore
	step := stripH / 2
	if step < 1 {
		step = 1
	}
	for top := searchTop; top+stripH <= h; top += step {
		mean, variance, _ := imaging.StripStats(img, bounds.Min.Y+top, stripH, xStep, 2)
		scores = append(scores, StripScore{
			TopY:     top,
			Mean:     mean,
			Variance: variance,
			Score:    stripScore(mean, variance),
		})
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("no candidate strips in bottom %.0f%% of %dx%d frame", tun.BandSearchFraction*100, w, h)
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}

	maxH := int(float64(h) * tun.BandMaxHeightFraction)
	height := stripH
	if height > maxH {
		height = maxH
	}
	bottom := best.TopY + height
	if bottom > h {
		bottom = h
		height = bottom - best.TopY
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].TopY < scores[j].TopY })

	return &BandRegion{
		TopY:        best.TopY,
		BottomY:     bottom,
		Height:      height,
		Confidence:  bandConfidence(best.Score, scores),
		StripScores: scores,
	}, nil
}

// stripScore rates how hotbar-like a strip's luminance signature is.
// Icon content has high variance; the brightness factor suppresses flat
// bright menus and flat dark background alike.
func stripScore(mean, variance float64) float64 {
	brightness := 1.0 - math.Abs(mean-110)/255.0
	if brightness < 0 {
		brightness = 0
	}
	return variance * brightness
}

// bandConfidence measures how far the winning score stands above the
// median competitor. A band that barely beats its neighbors is suspect.
func bandConfidence(best float64, scores []StripScore) float64 {
	if best <= 0 {
		return 0
	}
	vals := make([]float64, len(scores))
	for i, s := range scores {
		vals[i] = s.Score
	}
	sort.Float64s(vals)
	median := vals[len(vals)/2]
	conf := (best - median) / best
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}
