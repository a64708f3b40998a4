package matching

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"gearsight/internal/catalog"
)

// ColorFilterMode selects how the candidate set is narrowed before
// scoring.
type ColorFilterMode int

const (
	// ColorFilterNone scores every template against every cell.
	ColorFilterNone ColorFilterMode = iota

	// ColorFilterColorFirst keeps only templates whose color profile is
	// compatible with the cell's.
	ColorFilterColorFirst

	// ColorFilterRarityFirst keeps only templates whose catalog rarity
	// matches the cell's detected border rarity.
	ColorFilterRarityFirst
)

// ColorAnalysisMode selects the granularity of color-profile comparison.
type ColorAnalysisMode int

const (
	ColorAnalysisSingleDominant ColorAnalysisMode = iota
	ColorAnalysisMultiRegion
)

// Algorithm is the pixel-similarity metric used for template scoring.
type Algorithm int

const (
	AlgorithmNCC  Algorithm = iota // normalized cross-correlation
	AlgorithmSSD                   // sum of squared differences
	AlgorithmSSIM                  // structural similarity
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmNCC:
		return "ncc"
	case AlgorithmSSD:
		return "ssd"
	case AlgorithmSSIM:
		return "ssim"
	default:
		return "ncc"
	}
}

// PassThresholds holds per-rarity confidence thresholds for one matching
// pass.
type PassThresholds map[catalog.Rarity]float64

// Strategy is a named preset controlling the four independent matching
// axes plus feature toggles. Thresholds are empirically tuned data, not
// invariants; rare tiers run lower thresholds because their icons are
// visually distinctive and tolerate weaker matches without false
// positives, while common tiers need stricter confidence.
type Strategy struct {
	Name                 string            `json:"name"`
	ColorFiltering       ColorFilterMode   `json:"color_filtering"`
	ColorAnalysis        ColorAnalysisMode `json:"color_analysis"`
	Algorithm            Algorithm         `json:"algorithm"`
	MultiPassEnabled     bool              `json:"multi_pass_enabled"`
	UseEmptyCellSkip     bool              `json:"use_empty_cell_skip"`
	UseFeedbackLoop      bool              `json:"use_feedback_loop"`
	UseContextBoosting   bool              `json:"use_context_boosting"`
	UseBorderValidation  bool              `json:"use_border_validation"`
	Passes               []PassThresholds  `json:"passes"`
	BorderBonus          float64           `json:"border_bonus"`
	FeedbackPenalty      float64           `json:"feedback_penalty"`
	ContextBonus         float64           `json:"context_bonus"`
	NMSThreshold         float64           `json:"nms_threshold"`
}

// basePassThresholds is the tuned pass-1 threshold set.
func basePassThresholds() PassThresholds {
	return PassThresholds{
		catalog.RarityLegendary: 0.75,
		catalog.RarityEpic:      0.78,
		catalog.RarityRare:      0.82,
		catalog.RarityUncommon:  0.85,
		catalog.RarityCommon:    0.88,
		catalog.RarityUnknown:   0.85,
	}
}

// relaxed returns a copy of t with every threshold lowered by delta.
func (t PassThresholds) relaxed(delta float64) PassThresholds {
	out := make(PassThresholds, len(t))
	for r, v := range t {
		out[r] = v - delta
	}
	return out
}

// Threshold returns the pass threshold for a rarity, falling back to the
// unknown-tier entry when the rarity is not present.
func (t PassThresholds) Threshold(r catalog.Rarity) float64 {
	if v, ok := t[r]; ok {
		return v
	}
	return t[catalog.RarityUnknown]
}

// DefaultStrategy is the balanced preset: NCC scoring, rarity-first
// filtering, multi-pass, all adjustments enabled.
func DefaultStrategy() Strategy {
	base := basePassThresholds()
	return Strategy{
		Name:                "balanced",
		ColorFiltering:      ColorFilterRarityFirst,
		ColorAnalysis:       ColorAnalysisSingleDominant,
		Algorithm:           AlgorithmNCC,
		MultiPassEnabled:    true,
		UseEmptyCellSkip:    true,
		UseFeedbackLoop:     true,
		UseContextBoosting:  true,
		UseBorderValidation: true,
		Passes:              []PassThresholds{base, base.relaxed(0.03), base.relaxed(0.06)},
		BorderBonus:         0.05,
		FeedbackPenalty:     0.05,
		ContextBonus:        0.03,
		NMSThreshold:        0.3,
	}
}

// Presets returns all named strategies.
func Presets() map[string]Strategy {
	balanced := DefaultStrategy()

	thorough := balanced
	thorough.Name = "thorough"
	thorough.ColorFiltering = ColorFilterNone
	thorough.ColorAnalysis = ColorAnalysisMultiRegion
	thorough.Algorithm = AlgorithmSSIM

	fast := balanced
	fast.Name = "fast"
	fast.ColorFiltering = ColorFilterColorFirst
	fast.Algorithm = AlgorithmSSD
	fast.MultiPassEnabled = false
	fast.UseContextBoosting = false
	fast.UseFeedbackLoop = false

	strict := balanced
	strict.Name = "strict"
	base := basePassThresholds()
	strict.Passes = []PassThresholds{base.relaxed(-0.04), base.relaxed(-0.02), base}
	strict.UseBorderValidation = true

	return map[string]Strategy{
		balanced.Name: balanced,
		thorough.Name: thorough,
		fast.Name:     fast,
		strict.Name:   strict,
	}
}

// StrategyByName looks up a named preset. An empty name selects the
// default strategy.
func StrategyByName(name string) (Strategy, error) {
	if name == "" {
		return DefaultStrategy(), nil
	}
	if s, ok := Presets()[name]; ok {
		return s, nil
	}
	return Strategy{}, fmt.Errorf("unknown strategy %q", name)
}

// AdaptiveThreshold derives a confidence threshold from historical match
// scores: half a standard deviation below the mean, clamped to a sane
// band. With no history it returns the neutral default of 0.75.
func AdaptiveThreshold(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.75
	}
	mean := stat.Mean(scores, nil)
	sd := 0.0
	if len(scores) > 1 {
		sd = stat.StdDev(scores, nil)
	}
	t := mean - 0.5*sd
	if t < 0.6 {
		t = 0.6
	}
	if t > 0.9 {
		t = 0.9
	}
	return t
}
