package matching

import (
	"image"
	"image/color"
	"testing"

	"gearsight/internal/catalog"
	"gearsight/internal/detection"
	"gearsight/internal/imaging"
)

// rowGradientIcon brightens top to bottom; colGradientIcon left to right.
// The two are uncorrelated, so cross-matches score near chance.
func rowGradientIcon() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, TemplateSize, TemplateSize))
	for y := 0; y < TemplateSize; y++ {
		v := uint8(y * 8)
		for x := 0; x < TemplateSize; x++ {
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	return img
}

func colGradientIcon() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, TemplateSize, TemplateSize))
	for y := 0; y < TemplateSize; y++ {
		for x := 0; x < TemplateSize; x++ {
			v := uint8(x * 8)
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	return img
}

// neutralStrategy scores every template against every cell with no
// bonuses, penalties, or skips in the way.
func neutralStrategy() Strategy {
	s := DefaultStrategy()
	s.ColorFiltering = ColorFilterNone
	s.MultiPassEnabled = false
	s.UseEmptyCellSkip = false
	s.UseFeedbackLoop = false
	s.UseContextBoosting = false
	s.UseBorderValidation = false
	return s
}

func matchFixture(t *testing.T) (*Store, image.Image, []detection.Cell) {
	t.Helper()
	loader := fakeLoader{
		"wrench.png": rowGradientIcon(),
		"medkit.png": colGradientIcon(),
	}
	items := []catalog.Item{
		{ID: "wrench", Name: "Wrench", Rarity: "epic", ImageRef: "wrench.png"},
		{ID: "medkit", Name: "Medkit", Rarity: "rare", ImageRef: "medkit.png"},
	}
	store := NewStore(nil)
	if count, errs := store.Load(items, loader); count != 2 || len(errs) != 0 {
		t.Fatalf("fixture load: count=%d errs=%v", count, errs)
	}

	// Screenshot with one cell showing each icon.
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	paste := func(src *image.NRGBA, dx, dy int) {
		for y := 0; y < TemplateSize; y++ {
			for x := 0; x < TemplateSize; x++ {
				img.Set(dx+x, dy+y, src.NRGBAAt(x, y))
			}
		}
	}
	paste(rowGradientIcon(), 10, 30)
	paste(colGradientIcon(), 60, 30)

	cells := []detection.Cell{
		{X: 10, Y: 30, Width: TemplateSize, Height: TemplateSize, SlotIndex: 0},
		{X: 60, Y: 30, Width: TemplateSize, Height: TemplateSize, SlotIndex: 1},
	}
	return store, img, cells
}

func TestMatchCellsRecognizesIcons(t *testing.T) {
	store, img, cells := matchFixture(t)
	engine := NewEngine(store, neutralStrategy(), nil)

	results, err := engine.MatchCells(img, cells, nil)
	if err != nil {
		t.Fatalf("MatchCells: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d detections, want 2", len(results))
	}

	byID := map[string]DetectionResult{}
	for _, r := range results {
		byID[r.EntityID] = r
		if r.Confidence <= 0 || r.Confidence > 1 {
			t.Errorf("%s confidence = %v, want (0,1]", r.EntityID, r.Confidence)
		}
		if r.Method != "ncc-pass1" {
			t.Errorf("%s method = %q, want ncc-pass1", r.EntityID, r.Method)
		}
	}

	w, ok := byID["wrench"]
	if !ok {
		t.Fatal("wrench not detected")
	}
	if w.Position.X != 10 {
		t.Errorf("wrench position x = %d, want 10", w.Position.X)
	}
	if w.Rarity != catalog.RarityEpic {
		t.Errorf("wrench rarity = %v, want epic from the catalog", w.Rarity)
	}
	if _, ok := byID["medkit"]; !ok {
		t.Error("medkit not detected")
	}
}

func TestMatchCellsRequiresLoadedStore(t *testing.T) {
	engine := NewEngine(NewStore(nil), neutralStrategy(), nil)
	if _, err := engine.MatchCells(image.NewRGBA(image.Rect(0, 0, 10, 10)), nil, nil); err == nil {
		t.Error("unloaded store should be an error")
	}
}

func TestMatchCellsSkipsEmptyCells(t *testing.T) {
	store, img, cells := matchFixture(t)
	strategy := neutralStrategy()
	strategy.UseEmptyCellSkip = true
	engine := NewEngine(store, strategy, nil)

	validation := &detection.GridValidation{
		Cells: []detection.CellValidation{
			{SlotIndex: 0, IsEmpty: true},
			{SlotIndex: 1},
		},
	}

	results, err := engine.MatchCells(img, cells, validation)
	if err != nil {
		t.Fatalf("MatchCells: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d detections, want 1 with slot 0 skipped", len(results))
	}
	if results[0].EntityID != "medkit" {
		t.Errorf("survivor = %s, want medkit from slot 1", results[0].EntityID)
	}
}

func TestMatchCellsMultiPassRelaxation(t *testing.T) {
	store, img, cells := matchFixture(t)

	// Raise pass 1 above any achievable score so only the relaxed passes
	// can accept.
	strategy := neutralStrategy()
	strategy.MultiPassEnabled = true
	tight := PassThresholds{catalog.RarityUnknown: 1.01}
	loose := PassThresholds{catalog.RarityUnknown: 0.5}
	strategy.Passes = []PassThresholds{tight, tight, loose}

	engine := NewEngine(store, strategy, nil)
	results, err := engine.MatchCells(img, cells, nil)
	if err != nil {
		t.Fatalf("MatchCells: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d detections, want 2 accepted on the relaxed pass", len(results))
	}
	for _, r := range results {
		if r.Method != "ncc-pass3" {
			t.Errorf("method = %q, want ncc-pass3", r.Method)
		}
	}
}

func TestFeedbackStats(t *testing.T) {
	fb := NewFeedbackStats(3)
	if fb.Overpredicted("wrench") {
		t.Error("fresh tracker should not flag anything")
	}
	fb.RecordFalsePositive("wrench")
	fb.RecordFalsePositive("wrench")
	if fb.Overpredicted("wrench") {
		t.Error("two strikes should not flag yet")
	}
	fb.RecordFalsePositive("wrench")
	if !fb.Overpredicted("wrench") {
		t.Error("three strikes should flag")
	}
	fb.Reset()
	if fb.Overpredicted("wrench") {
		t.Error("Reset should clear feedback")
	}
}

func TestFeedbackPenaltyLowersScore(t *testing.T) {
	store, img, cells := matchFixture(t)
	strategy := neutralStrategy()
	strategy.UseFeedbackLoop = true
	engine := NewEngine(store, strategy, nil)

	baseline, err := engine.MatchCells(img, cells, nil)
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	var baseConf float64
	for _, r := range baseline {
		if r.EntityID == "wrench" {
			baseConf = r.Confidence
		}
	}

	for i := 0; i < 3; i++ {
		engine.Feedback.RecordFalsePositive("wrench")
	}
	penalized, err := engine.MatchCells(img, cells, nil)
	if err != nil {
		t.Fatalf("penalized: %v", err)
	}
	for _, r := range penalized {
		if r.EntityID == "wrench" && r.Confidence >= baseConf {
			t.Errorf("penalized confidence %v, want below baseline %v", r.Confidence, baseConf)
		}
	}
}

func TestCellBorderRarityRing(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	reg := imaging.Region{X: 10, Y: 10, Width: 32, Height: 32}

	// No border painted.
	if got := cellBorderRarity(img, reg); got != catalog.RarityUnknown {
		t.Errorf("bare cell rarity = %v, want unknown", got)
	}

	// Paint the 2px ring just outside the cell epic purple.
	purple := color.RGBA{150, 60, 220, 255}
	for d := 1; d <= 2; d++ {
		for x := reg.X - d; x < reg.X+reg.Width+d; x++ {
			img.SetRGBA(x, reg.Y-d, purple)
			img.SetRGBA(x, reg.Y+reg.Height+d-1, purple)
		}
		for y := reg.Y - d; y < reg.Y+reg.Height+d; y++ {
			img.SetRGBA(reg.X-d, y, purple)
			img.SetRGBA(reg.X+reg.Width+d-1, y, purple)
		}
	}
	if got := cellBorderRarity(img, reg); got != catalog.RarityEpic {
		t.Errorf("ringed cell rarity = %v, want epic", got)
	}
}
