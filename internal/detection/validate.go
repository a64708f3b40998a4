package detection

import (
	"image"

	"gearsight/internal/imaging"
)

// CellValidation classifies one cell's pixel statistics ahead of matching.
type CellValidation struct {
	SlotIndex      int     `json:"slot_index"`
	IsEmpty        bool    `json:"is_empty"`
	IsSuspicious   bool    `json:"is_suspicious"`
	MeanBrightness float64 `json:"mean_brightness"`
	TotalVariance  float64 `json:"total_variance"`
	ColorfulRatio  float64 `json:"colorful_ratio"`
}

// GridValidation summarizes per-cell validation for a whole grid.
type GridValidation struct {
	Cells           []CellValidation `json:"cells"`
	EmptyCount      int              `json:"empty_count"`
	SuspiciousCount int              `json:"suspicious_count"`
	ValidCount      int              `json:"valid_count"`

	// Confidence is valid cells over total cells; 0 for an empty grid.
	Confidence float64 `json:"confidence"`
}

// ValidateGrid computes brightness, variance, and colorfulness statistics
// for every cell and classifies each as empty, suspicious, or valid.
//
// Empty means low variance and low brightness together: an unlit slot.
// Suspicious means statistics no real icon produces, such as a washed-out
// or near-black cell with structure. Everything else is valid and worth
// matching.
//
// A grid with no cells yields zero counts and zero confidence, not an
// error.
func ValidateGrid(img image.Image, cells []Cell, tun Tuning) *GridValidation {
	tun = tun.sanitize()
	out := &GridValidation{}

	for _, cell := range cells {
		stats := imaging.AnalyzeRegion(img, cell.Region())
		v := CellValidation{
			SlotIndex:      cell.SlotIndex,
			MeanBrightness: stats.MeanBrightness,
			TotalVariance:  stats.TotalVariance,
			ColorfulRatio:  stats.ColorfulRatio,
		}

		switch {
		case stats.TotalVariance < tun.EmptyVariance && stats.MeanBrightness < tun.EmptyBrightness:
			v.IsEmpty = true
			out.EmptyCount++
		case stats.MeanBrightness < tun.SuspiciousBrightnessLow,
			stats.MeanBrightness > tun.SuspiciousBrightnessHigh:
			v.IsSuspicious = true
			out.SuspiciousCount++
		default:
			out.ValidCount++
		}
		out.Cells = append(out.Cells, v)
	}

	if len(cells) > 0 {
		out.Confidence = float64(out.ValidCount) / float64(len(cells))
	}
	return out
}

// CellStatus reports the validation entry for a slot index, or nil when
// the slot was not validated.
func (g *GridValidation) CellStatus(slotIndex int) *CellValidation {
	for i := range g.Cells {
		if g.Cells[i].SlotIndex == slotIndex {
			return &g.Cells[i]
		}
	}
	return nil
}
