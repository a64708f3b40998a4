package matching

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"gearsight/internal/catalog"
	"gearsight/internal/detection"
	"gearsight/internal/imaging"
)

// DetectionResult is one accepted match: an entity recognized in one grid
// cell. Ephemeral; one screenshot's worth of results at a time.
type DetectionResult struct {
	Type       string         `json:"type"`
	EntityID   string         `json:"entity_id"`
	Name       string         `json:"name"`
	Rarity     catalog.Rarity `json:"rarity"`
	Confidence float64        `json:"confidence"`
	Position   imaging.Region `json:"position"`
	Method     string         `json:"method"`
}

// FeedbackStats tracks entities that keep showing up as false positives
// across benchmark runs so the engine can penalize their raw scores.
type FeedbackStats struct {
	mu             sync.Mutex
	falsePositives map[string]int
	limit          int
}

// NewFeedbackStats creates a tracker that flags an entity once it has
// accumulated `limit` false positives. Limits below 1 default to 3.
func NewFeedbackStats(limit int) *FeedbackStats {
	if limit < 1 {
		limit = 3
	}
	return &FeedbackStats{falsePositives: make(map[string]int), limit: limit}
}

// RecordFalsePositive notes one over-prediction of an entity.
func (f *FeedbackStats) RecordFalsePositive(entityID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.falsePositives[entityID]++
}

// Overpredicted reports whether the entity has crossed the flag limit.
func (f *FeedbackStats) Overpredicted(entityID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.falsePositives[entityID] >= f.limit
}

// Reset clears all recorded feedback.
func (f *FeedbackStats) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.falsePositives = make(map[string]int)
}

// Engine matches grid cells against the template store under a strategy.
// The engine holds all matching state explicitly; construct one per
// logical detector and Reset between unrelated workloads.
type Engine struct {
	Store    *Store
	Strategy Strategy
	Feedback *FeedbackStats
	Log      *slog.Logger
}

// NewEngine wires an engine around a loaded store. A nil logger selects
// slog.Default.
func NewEngine(store *Store, strategy Strategy, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		Store:    store,
		Strategy: strategy,
		Feedback: NewFeedbackStats(3),
		Log:      log,
	}
}

// MatchCells scores every cell against the candidate templates and
// returns the accepted detections, already run through non-maximum
// suppression.
//
// The multi-pass procedure runs up to three passes over a shrinking set
// of unmatched cells. Each pass applies its rarity-specific confidence
// threshold; a cell is accepted at the earliest pass whose best candidate
// clears that threshold and is removed from later passes. Cells still
// unmatched after the final pass stay undetected.
//
// Score adjustments are applied before thresholding: a bonus when the
// cell's detected border rarity equals the template's catalog rarity, a
// penalty for entities the feedback loop flags as chronically
// over-predicted, and a bonus for entity types already confirmed
// elsewhere in the same screenshot.
func (e *Engine) MatchCells(img image.Image, cells []detection.Cell, validation *detection.GridValidation) ([]DetectionResult, error) {
	if e.Store == nil || !e.Store.Loaded() {
		return nil, fmt.Errorf("template store not loaded")
	}

	type cellState struct {
		cell    detection.Cell
		raster  *imaging.Raster
		profile ColorProfile
		rarity  catalog.Rarity
	}

	var unmatched []*cellState
	for _, cell := range cells {
		if e.Strategy.UseEmptyCellSkip && validation != nil {
			if st := validation.CellStatus(cell.SlotIndex); st != nil && st.IsEmpty {
				continue
			}
		}
		reg := cell.Region()
		unmatched = append(unmatched, &cellState{
			cell:    cell,
			raster:  imaging.RasterizeRegion(img, reg, TemplateSize, TemplateSize),
			profile: ProfileRegion(img, reg),
			rarity:  cellBorderRarity(img, reg),
		})
	}

	passes := e.Strategy.Passes
	if len(passes) == 0 {
		passes = DefaultStrategy().Passes
	}
	if !e.Strategy.MultiPassEnabled {
		passes = passes[:1]
	}

	confirmed := make(map[string]bool)
	var results []DetectionResult

	for passIdx, thresholds := range passes {
		var remaining []*cellState
		for _, cs := range unmatched {
			best, score := e.bestCandidate(cs.raster, cs.rarity, cs.profile, confirmed)
			if best == nil || score < thresholds.Threshold(best.Rarity) {
				remaining = append(remaining, cs)
				continue
			}
			confirmed[best.EntityID] = true
			results = append(results, DetectionResult{
				Type:       "item",
				EntityID:   best.EntityID,
				Name:       best.Name,
				Rarity:     best.Rarity,
				Confidence: score,
				Position:   cs.cell.Region(),
				Method:     fmt.Sprintf("%s-pass%d", e.Strategy.Algorithm, passIdx+1),
			})
		}
		unmatched = remaining
		if len(unmatched) == 0 {
			break
		}
	}

	if len(unmatched) > 0 {
		e.Log.Debug("cells left unmatched", "count", len(unmatched))
	}

	return SuppressOverlaps(results, e.Strategy.NMSThreshold), nil
}

// bestCandidate scores all candidate templates for one cell and returns
// the best one with its adjusted score.
func (e *Engine) bestCandidate(raster *imaging.Raster, cellRarity catalog.Rarity, cellProfile ColorProfile, confirmed map[string]bool) (*Template, float64) {
	var (
		best      *Template
		bestScore float64
	)
	for _, tmpl := range e.Store.Candidates(e.Strategy, cellRarity, cellProfile) {
		score := Similarity(e.Strategy.Algorithm, raster, tmpl.Raster)
		score = e.adjustScore(score, tmpl, cellRarity, confirmed)
		if score > bestScore {
			best = tmpl
			bestScore = score
		}
	}
	return best, bestScore
}

// adjustScore applies the strategy's bonuses and penalties to a raw
// similarity score, clamped to [0, 1].
func (e *Engine) adjustScore(score float64, tmpl *Template, cellRarity catalog.Rarity, confirmed map[string]bool) float64 {
	if e.Strategy.UseBorderValidation && cellRarity != catalog.RarityUnknown && cellRarity == tmpl.Rarity {
		score += e.Strategy.BorderBonus
	}
	if e.Strategy.UseFeedbackLoop && e.Feedback != nil && e.Feedback.Overpredicted(tmpl.EntityID) {
		score -= e.Strategy.FeedbackPenalty
	}
	if e.Strategy.UseContextBoosting && confirmed[tmpl.EntityID] {
		score += e.Strategy.ContextBonus
	}
	return clamp01(score)
}

// cellBorderRarity classifies the rarity border around a cell by sampling
// the ring just outside the cell content.
func cellBorderRarity(img image.Image, reg imaging.Region) catalog.Rarity {
	bounds := img.Bounds()
	var counts [catalog.RarityLegendary + 1]int

	sample := func(x, y int) {
		if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
			return
		}
		r16, g16, b16, _ := img.At(x, y).RGBA()
		tier := catalog.ClassifyBorderColor(uint8(r16>>8), uint8(g16>>8), uint8(b16>>8))
		if tier != catalog.RarityUnknown {
			counts[tier]++
		}
	}

	for d := 1; d <= 2; d++ {
		for x := reg.X - d; x < reg.X+reg.Width+d; x++ {
			sample(x, reg.Y-d)
			sample(x, reg.Y+reg.Height+d-1)
		}
		for y := reg.Y - d; y < reg.Y+reg.Height+d; y++ {
			sample(reg.X-d, y)
			sample(reg.X+reg.Width+d-1, y)
		}
	}

	best := catalog.RarityUnknown
	bestCount := 0
	for tier := catalog.RarityCommon; tier <= catalog.RarityLegendary; tier++ {
		if counts[tier] > bestCount {
			best = tier
			bestCount = counts[tier]
		}
	}
	// A handful of stray pixels is not a border.
	if bestCount < reg.Width {
		return catalog.RarityUnknown
	}
	return best
}
