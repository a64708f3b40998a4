package detection

// Tuning holds the empirical thresholds of the grid pipeline. The values
// are tuned against hand-labeled captures and centralized here so they can
// be adjusted without touching the algorithms.
type Tuning struct {
	// BandSearchFraction is the fraction of screen height, measured from
	// the bottom, searched for the hotbar band. Default: 0.30.
	BandSearchFraction float64 `json:"band_search_fraction"`

	// BandStripFraction is the thickness of each scored strip as a
	// fraction of screen height. Default: 0.08.
	BandStripFraction float64 `json:"band_strip_fraction"`

	// BandMaxHeightFraction caps the detected band height as a fraction of
	// screen height. Default: 0.12.
	BandMaxHeightFraction float64 `json:"band_max_height_fraction"`

	// EdgeMarginFraction is the fraction of screen width skipped on each
	// side during edge scanning, avoiding HUD chrome. Default: 0.15.
	EdgeMarginFraction float64 `json:"edge_margin_fraction"`

	// EdgeMinRunFraction is the minimum vertical color-run length,
	// as a fraction of band height, for a column to count as an edge.
	// Default: 0.35.
	EdgeMinRunFraction float64 `json:"edge_min_run_fraction"`

	// GapTolerance is the bucket width in pixels when voting for the modal
	// edge gap. Default: 3.
	GapTolerance int `json:"gap_tolerance"`

	// EmptyVariance and EmptyBrightness classify a cell as empty when both
	// its total variance and mean brightness fall below them.
	// Defaults: 120, 40.
	EmptyVariance   float64 `json:"empty_variance"`
	EmptyBrightness float64 `json:"empty_brightness"`

	// SuspiciousBrightnessLow / High bound the brightness range outside of
	// which a non-empty cell is flagged suspicious. Defaults: 12, 243.
	SuspiciousBrightnessLow  float64 `json:"suspicious_brightness_low"`
	SuspiciousBrightnessHigh float64 `json:"suspicious_brightness_high"`

	// SmoothRadius is the Gaussian radius applied before column scanning.
	// Default: 1.0.
	SmoothRadius float64 `json:"smooth_radius"`
}

// DefaultTuning returns the standard thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		BandSearchFraction:       0.30,
		BandStripFraction:        0.08,
		BandMaxHeightFraction:    0.12,
		EdgeMarginFraction:       0.15,
		EdgeMinRunFraction:       0.35,
		GapTolerance:             3,
		EmptyVariance:            120,
		EmptyBrightness:          40,
		SuspiciousBrightnessLow:  12,
		SuspiciousBrightnessHigh: 243,
		SmoothRadius:             1.0,
	}
}

// sanitize corrects malformed tuning fields to defaults. Configuration
// errors are corrected, not raised.
func (t Tuning) sanitize() Tuning {
	def := DefaultTuning()
	if t.BandSearchFraction <= 0 || t.BandSearchFraction > 0.5 {
		t.BandSearchFraction = def.BandSearchFraction
	}
	if t.BandStripFraction <= 0 || t.BandStripFraction > t.BandSearchFraction {
		t.BandStripFraction = def.BandStripFraction
	}
	if t.BandMaxHeightFraction <= 0 || t.BandMaxHeightFraction > 0.5 {
		t.BandMaxHeightFraction = def.BandMaxHeightFraction
	}
	if t.EdgeMarginFraction < 0 || t.EdgeMarginFraction >= 0.5 {
		t.EdgeMarginFraction = def.EdgeMarginFraction
	}
	if t.EdgeMinRunFraction <= 0 || t.EdgeMinRunFraction > 1 {
		t.EdgeMinRunFraction = def.EdgeMinRunFraction
	}
	if t.GapTolerance < 1 {
		t.GapTolerance = def.GapTolerance
	}
	if t.EmptyVariance <= 0 {
		t.EmptyVariance = def.EmptyVariance
	}
	if t.EmptyBrightness <= 0 {
		t.EmptyBrightness = def.EmptyBrightness
	}
	if t.SuspiciousBrightnessLow <= 0 || t.SuspiciousBrightnessLow >= t.SuspiciousBrightnessHigh {
		t.SuspiciousBrightnessLow = def.SuspiciousBrightnessLow
		t.SuspiciousBrightnessHigh = def.SuspiciousBrightnessHigh
	}
	if t.SmoothRadius <= 0 {
		t.SmoothRadius = def.SmoothRadius
	}
	return t
}
