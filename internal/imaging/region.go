package imaging

// Region is a rectangular region within an image.
//
// (X, Y) is the top-left corner; the region spans [X, X+Width) horizontally
// and [Y, Y+Height) vertically.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the region's area in pixels. Degenerate regions have area 0.
func (r Region) Area() int {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Intersect returns the overlapping region of r and o. The result has
// non-positive Width or Height when the regions do not overlap.
func (r Region) Intersect(o Region) Region {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.Width, o.X+o.Width)
	y2 := min(r.Y+r.Height, o.Y+o.Height)
	return Region{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// IoU computes the intersection-over-union of two regions, in [0, 1].
// Two regions with zero union area have IoU 0.
func IoU(a, b Region) float64 {
	inter := a.Intersect(b).Area()
	if inter == 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
