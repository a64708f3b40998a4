package detection

import (
	"image"

	"gearsight/internal/catalog"
)

// CellEdge is a vertical rarity-border seam detected inside the band.
// Edges are produced transiently per detection pass and are not persisted.
type CellEdge struct {
	// X is the left-most column of the border run.
	X int `json:"x"`

	// BorderWidth is the number of consecutive columns in the run.
	BorderWidth int `json:"border_width"`

	// Rarity is the tier whose border color dominates the run.
	Rarity catalog.Rarity `json:"rarity"`

	// Confidence reflects the vertical coverage of the color run (0-1).
	Confidence float64 `json:"confidence"`

	// Detections is the number of border-colored samples in the run.
	Detections int `json:"detections"`

	// VerticalConsistency is the longest consecutive vertical run of
	// border-colored pixels divided by the sampled band height.
	VerticalConsistency float64 `json:"vertical_consistency"`
}

// EdgeScan holds the raw and filtered edge sets plus a rarity histogram.
type EdgeScan struct {
	// Raw lists every column promoted before run-merging.
	Raw []CellEdge `json:"raw"`

	// Edges is the filtered set after merging adjacent columns.
	Edges []CellEdge `json:"edges"`

	// Histogram counts filtered edges per rarity tier.
	Histogram map[string]int `json:"histogram"`
}

// DetectEdges finds vertical rarity-border seams inside the band.
//
// Scanning is restricted to the horizontal center of the frame: a margin
// of EdgeMarginFraction of the width is skipped on each side to avoid HUD
// chrome. Each x-column is sampled down the band and classified into
// rarity-tier color categories; a column is promoted to an edge only when
// a single tier's color persists across a sufficient consecutive vertical
// run, which rejects single-pixel noise.
//
// Adjacent promoted columns of the same tier are merged into one edge
// whose BorderWidth is the run length.
func DetectEdges(img image.Image, band *BandRegion, tun Tuning) *EdgeScan {
	tun = tun.sanitize()
	bounds := img.Bounds()
	w := bounds.Dx()

	xStart := int(float64(w) * tun.EdgeMarginFraction)
	xEnd := w - xStart
	minRun := int(float64(band.Height) * tun.EdgeMinRunFraction)
	if minRun < 3 {
		minRun = 3
	}

	var raw []CellEdge
	for x := xStart; x < xEnd; x++ {
		if e, ok := scanColumn(img, x, band, minRun); ok {
			raw = append(raw, e)
		}
	}

	merged := mergeColumns(raw)
	hist := make(map[string]int)
	for _, e := range merged {
		hist[e.Rarity.String()]++
	}

	return &EdgeScan{Raw: raw, Edges: merged, Histogram: hist}
}

// scanColumn samples one x-column down the band and promotes it to an
// edge when one rarity's border color forms a long enough vertical run.
func scanColumn(img image.Image, x int, band *BandRegion, minRun int) (CellEdge, bool) {
	var (
		bestTier catalog.Rarity
		bestRun  int
		counts   [catalog.RarityLegendary + 1]int
		run      int
		runTier  catalog.Rarity
		sampled  int
	)

	for y := band.TopY; y < band.BottomY; y++ {
		r16, g16, b16, _ := img.At(x, y).RGBA()
		tier := catalog.ClassifyBorderColor(uint8(r16>>8), uint8(g16>>8), uint8(b16>>8))
		sampled++
		if tier != catalog.RarityUnknown {
			counts[tier]++
		}

		if tier == runTier && tier != catalog.RarityUnknown {
			run++
		} else {
			run = 0
			if tier != catalog.RarityUnknown {
				run = 1
			}
			runTier = tier
		}
		if run > bestRun {
			bestRun = run
			bestTier = runTier
		}
	}

	if bestRun < minRun || sampled == 0 {
		return CellEdge{}, false
	}
	return CellEdge{
		X:                   x,
		BorderWidth:         1,
		Rarity:              bestTier,
		Confidence:          float64(bestRun) / float64(sampled),
		Detections:          counts[bestTier],
		VerticalConsistency: float64(bestRun) / float64(sampled),
	}, true
}

// mergeColumns collapses runs of adjacent promoted columns into single
// edges. The merged edge keeps the left-most X, the max confidence, and
// the tier of its strongest column.
func mergeColumns(cols []CellEdge) []CellEdge {
	var out []CellEdge
	for i := 0; i < len(cols); {
		j := i + 1
		best := cols[i]
		detections := cols[i].Detections
		for j < len(cols) && cols[j].X == cols[j-1].X+1 {
			if cols[j].Confidence > best.Confidence {
				best = cols[j]
			}
			detections += cols[j].Detections
			j++
		}
		out = append(out, CellEdge{
			X:                   cols[i].X,
			BorderWidth:         j - i,
			Rarity:              best.Rarity,
			Confidence:          best.Confidence,
			Detections:          detections,
			VerticalConsistency: best.VerticalConsistency,
		})
		i = j
	}
	return out
}
