package detection

import (
	"sort"
)

// IconMetrics is the consistent cell geometry reduced from a noisy edge
// set. All pixel fields are in capture-resolution coordinates.
type IconMetrics struct {
	IconWidth  int `json:"icon_width"`
	IconHeight int `json:"icon_height"`
	XSpacing   int `json:"x_spacing"`
	YSpacing   int `json:"y_spacing"`

	// CellStride is the distance between the left edges of adjacent cells:
	// icon width plus spacing and borders.
	CellStride int `json:"cell_stride"`

	BorderWidth int `json:"border_width"`

	// Confidence is the fraction of observed edge gaps that agree with the
	// modal gap (0-1). Irregular spacing lowers confidence but still
	// produces usable metrics.
	Confidence float64 `json:"confidence"`

	// DetectedCells is the number of cells implied by the edge set.
	DetectedCells int `json:"detected_cells"`

	// FirstCellX is the x of the first cell's content (after its border).
	FirstCellX int `json:"first_cell_x"`

	// CenterOffset is the horizontal offset of the detected row's center
	// from the frame center.
	CenterOffset int `json:"center_offset"`

	// IsDefault is set when fewer than 2 edges were available and the
	// metrics fell back to resolution-scaled defaults. Confidence is
	// forced to 0 in that case.
	IsDefault bool `json:"is_default"`
}

// Reference geometry at 720p used when edge detection fails.
const (
	defaultIconSize720 = 52
	defaultSpacing720  = 6
	defaultBorder720   = 2
	baseWidth          = 1280
	baseHeight         = 720
)

// CalculateIconMetrics reduces the filtered edge set to one consistent
// cell pitch.
//
// Pairwise gaps between sorted edge x-positions vote into buckets of
// GapTolerance pixels; the modal bucket's mean becomes CellStride, and
// confidence is the fraction of gaps that landed in the modal bucket.
// Icon width is the stride minus the observed border and spacing.
//
// With fewer than 2 edges there is nothing to measure: the function
// returns resolution-scaled defaults with IsDefault set and confidence 0.
func CalculateIconMetrics(scan *EdgeScan, screenWidth, screenHeight int, tun Tuning) *IconMetrics {
	tun = tun.sanitize()
	if scan == nil || len(scan.Edges) < 2 {
		return defaultMetrics(screenWidth, screenHeight)
	}

	xs := make([]int, len(scan.Edges))
	borderSum := 0
	for i, e := range scan.Edges {
		xs[i] = e.X
		borderSum += e.BorderWidth
	}
	sort.Ints(xs)
	borderWidth := borderSum / len(scan.Edges)
	if borderWidth < 1 {
		borderWidth = 1
	}

	gaps := make([]int, 0, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		if g := xs[i] - xs[i-1]; g > borderWidth {
			gaps = append(gaps, g)
		}
	}
	if len(gaps) == 0 {
		return defaultMetrics(screenWidth, screenHeight)
	}

	stride, votes := modalGap(gaps, tun.GapTolerance)
	confidence := float64(votes) / float64(len(gaps))

	spacing := 2 * borderWidth
	iconWidth := stride - spacing
	if iconWidth < 4 {
		iconWidth = stride
		spacing = 0
	}

	rowCenter := (xs[0] + xs[len(xs)-1]) / 2

	return &IconMetrics{
		IconWidth:     iconWidth,
		IconHeight:    iconWidth,
		XSpacing:      spacing,
		YSpacing:      spacing,
		CellStride:    stride,
		BorderWidth:   borderWidth,
		Confidence:    confidence,
		DetectedCells: len(xs) - 1,
		FirstCellX:    xs[0] + borderWidth,
		CenterOffset:  rowCenter - screenWidth/2,
	}
}

// modalGap buckets gaps by tolerance and returns the mean of the winning
// bucket along with its vote count.
func modalGap(gaps []int, tolerance int) (stride, votes int) {
	type bucket struct {
		sum   int
		count int
	}
	buckets := make(map[int]*bucket)
	for _, g := range gaps {
		key := g / tolerance
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.sum += g
		b.count++
	}

	var bestKey int
	bestCount := -1
	for key, b := range buckets {
		// Deterministic tie-break: prefer the smaller stride.
		if b.count > bestCount || (b.count == bestCount && key < bestKey) {
			bestKey = key
			bestCount = b.count
		}
	}
	b := buckets[bestKey]
	return b.sum / b.count, b.count
}

// defaultMetrics returns the 720p reference geometry scaled to the actual
// capture resolution, flagged as a fallback.
func defaultMetrics(screenWidth, screenHeight int) *IconMetrics {
	scale := float64(screenHeight) / float64(baseHeight)
	icon := int(defaultIconSize720 * scale)
	spacing := int(defaultSpacing720 * scale)
	border := int(defaultBorder720 * scale)
	if icon < 4 {
		icon = 4
	}
	if border < 1 {
		border = 1
	}
	return &IconMetrics{
		IconWidth:   icon,
		IconHeight:  icon,
		XSpacing:    spacing,
		YSpacing:    spacing,
		CellStride:  icon + spacing,
		BorderWidth: border,
		Confidence:  0,
		FirstCellX:  screenWidth / 4,
		IsDefault:   true,
	}
}
