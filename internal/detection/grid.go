package detection

import (
	"math"

	"gearsight/internal/imaging"
)

// Cell is one grid-aligned rectangle hypothesized to contain one icon.
// Cells generated from the same grid never overlap.
type Cell struct {
	X         int `json:"x"`
	Y         int `json:"y"`
	Width     int `json:"width"`
	Height    int `json:"height"`
	Row       int `json:"row"`
	Col       int `json:"col"`
	SlotIndex int `json:"slot_index"`
}

// Region returns the cell's rectangle as an imaging.Region.
func (c Cell) Region() imaging.Region {
	return imaging.Region{X: c.X, Y: c.Y, Width: c.Width, Height: c.Height}
}

// Calibration is the grid geometry expressed in the fixed 1280x720 base
// coordinate space. Reapplying it at any capture resolution reproduces
// geometrically consistent cells; the calibration itself never depends on
// the resolution it was detected at.
type Calibration struct {
	XOffset     int `json:"x_offset"`
	YOffset     int `json:"y_offset"`
	IconWidth   int `json:"icon_width"`
	IconHeight  int `json:"icon_height"`
	XSpacing    int `json:"x_spacing"`
	YSpacing    int `json:"y_spacing"`
	IconsPerRow int `json:"icons_per_row"`
	NumRows     int `json:"num_rows"`
}

// Grid is the materialized cell layout for one capture, plus the
// calibration normalized into base-resolution space.
type Grid struct {
	Cells       []Cell       `json:"cells"`
	Calibration *Calibration `json:"calibration"`

	// ScaleFactor is base-height / capture-height, recorded for
	// traceability of the normalization.
	ScaleFactor float64 `json:"scale_factor"`
}

// BuildGrid materializes cell rectangles from the detected band and icon
// metrics.
//
// The row anchors at FirstCellX and steps by CellStride until the next
// cell would cross the scan margin. The single row sits at the band's
// vertical midpoint minus half the icon height. Row, column, and slot
// indices are assigned in raster order.
//
// The returned calibration is the same geometry rescaled into the
// 1280x720 base space.
func BuildGrid(band *BandRegion, m *IconMetrics, screenWidth, screenHeight int, tun Tuning) *Grid {
	tun = tun.sanitize()

	xLimit := screenWidth - int(float64(screenWidth)*tun.EdgeMarginFraction)
	y := band.TopY + band.Height/2 - m.IconHeight/2
	if y < band.TopY {
		y = band.TopY
	}

	var cells []Cell
	slot := 0
	for x := m.FirstCellX; x+m.IconWidth <= xLimit; x += m.CellStride {
		cells = append(cells, Cell{
			X:         x,
			Y:         y,
			Width:     m.IconWidth,
			Height:    m.IconHeight,
			Row:       0,
			Col:       slot,
			SlotIndex: slot,
		})
		slot++
	}

	scale := float64(baseHeight) / float64(screenHeight)
	cal := &Calibration{
		XOffset:     scaleRound(m.FirstCellX, scale),
		YOffset:     scaleRound(y, scale),
		IconWidth:   scaleRound(m.IconWidth, scale),
		IconHeight:  scaleRound(m.IconHeight, scale),
		XSpacing:    scaleRound(m.XSpacing, scale),
		YSpacing:    scaleRound(m.YSpacing, scale),
		IconsPerRow: len(cells),
		NumRows:     1,
	}

	return &Grid{Cells: cells, Calibration: cal, ScaleFactor: scale}
}

// Apply projects a base-space calibration onto a capture of the given
// resolution, regenerating the cell rectangles.
func (c *Calibration) Apply(screenWidth, screenHeight int) []Cell {
	scale := float64(screenHeight) / float64(baseHeight)
	stride := float64(c.IconWidth + c.XSpacing)

	cells := make([]Cell, 0, c.IconsPerRow*c.NumRows)
	slot := 0
	for row := 0; row < c.NumRows; row++ {
		yf := float64(c.YOffset) + float64(row)*(float64(c.IconHeight+c.YSpacing))
		for col := 0; col < c.IconsPerRow; col++ {
			xf := float64(c.XOffset) + float64(col)*stride
			cells = append(cells, Cell{
				X:         scaleRound(int(xf), scale),
				Y:         scaleRound(int(yf), scale),
				Width:     scaleRound(c.IconWidth, scale),
				Height:    scaleRound(c.IconHeight, scale),
				Row:       row,
				Col:       col,
				SlotIndex: slot,
			})
			slot++
		}
	}
	return cells
}

func scaleRound(v int, scale float64) int {
	return int(math.Round(float64(v) * scale))
}
