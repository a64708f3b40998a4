// Package pipeline composes the grid pipeline, the matching engine, and
// the accuracy session behind the detector surface external collaborators
// call: the advisor UI, the OCR merger, and the batch-scan orchestrator
// all consume these entry points.
package pipeline

import (
	"fmt"
	"image"
	"log/slog"

	"gearsight/internal/accuracy"
	"gearsight/internal/catalog"
	"gearsight/internal/detection"
	"gearsight/internal/imaging"
	"gearsight/internal/matching"
)

// Detector owns all detection state: the template store, the matching
// strategy, and tuning. No hidden globals; construct one per caller and
// Reset for test isolation.
type Detector struct {
	store  *matching.Store
	tuning detection.Tuning
	log    *slog.Logger
}

// New creates a detector with default tuning. A nil logger selects
// slog.Default.
func New(log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{
		store:  matching.NewStore(log),
		tuning: detection.DefaultTuning(),
		log:    log,
	}
}

// SetTuning replaces the grid-pipeline tuning. Malformed fields are
// corrected to defaults by the pipeline itself.
func (d *Detector) SetTuning(t detection.Tuning) {
	d.tuning = t
}

// LoadCatalog prepares templates for the given catalog items. Individual
// asset failures are logged and excluded; the returned error is non-nil
// only when not a single template could be prepared.
func (d *Detector) LoadCatalog(items []catalog.Item, loader matching.AssetLoader) error {
	count, failures := d.store.Load(items, loader)
	if count == 0 {
		return fmt.Errorf("no templates loaded (%d assets failed)", len(failures))
	}
	if len(failures) > 0 {
		d.log.Warn("catalog loaded with exclusions", "loaded", count, "excluded", len(failures))
	}
	return nil
}

// Reset clears the template store.
func (d *Detector) Reset() {
	d.store.Reset()
}

// Result is the full outcome of one detection call.
type Result struct {
	Detections []matching.DetectionResult  `json:"detections"`
	Aggregated []matching.AggregatedResult `json:"aggregated"`
	AutoDetect *detection.AutoDetectResult `json:"auto_detect"`
	Report     *accuracy.Report            `json:"report"`
}

// Detect runs the full pipeline on a decoded screenshot: grid
// auto-detection, template matching under the named strategy, overlap
// suppression, and aggregation, with every phase timed.
//
// An unknown strategy name or an unloaded template store is an error. A
// failed grid auto-detection is not: the structured failure is returned
// inside the result with no detections.
func (d *Detector) Detect(img image.Image, strategyName string, progress detection.ProgressFunc) (*Result, error) {
	return d.detect(img, strategyName, progress, accuracy.NewSession("single"))
}

func (d *Detector) detect(img image.Image, strategyName string, progress detection.ProgressFunc, session *accuracy.Session) (*Result, error) {
	strategy, err := matching.StrategyByName(strategyName)
	if err != nil {
		return nil, err
	}
	if !d.store.Loaded() {
		return nil, fmt.Errorf("catalog not loaded")
	}

	session.StartPhase(accuracy.PhasePreprocess)
	auto := detection.AutoDetect(img, detection.AutoDetectOptions{
		Tuning:   d.tuning,
		Progress: progress,
		Logger:   d.log,
	})
	session.EndPhase(accuracy.PhasePreprocess)

	res := &Result{AutoDetect: auto}
	if !auto.Success {
		d.log.Warn("grid auto-detection failed", "reasons", auto.Reasons, "error", auto.Error)
		res.Report = session.Complete()
		return res, nil
	}
	session.SetValidation(auto.Validation)

	engine := matching.NewEngine(d.store, strategy, d.log)

	session.StartPhase(accuracy.PhaseMatching)
	detections, err := engine.MatchCells(img, auto.Grid.Cells, auto.Validation)
	session.EndPhase(accuracy.PhaseMatching)
	if err != nil {
		return nil, err
	}

	session.StartPhase(accuracy.PhasePostprocess)
	res.Detections = detections
	res.Aggregated = matching.AggregateDetections(detections)
	session.EndPhase(accuracy.PhasePostprocess)

	session.SetDetections(detections)
	res.Report = session.Complete()
	return res, nil
}

// DetectFile loads, validates, and decodes a screenshot file, then runs
// Detect. Decode failures are input errors returned to the caller; in a
// batch they fail only this file.
func (d *Detector) DetectFile(path, strategyName string, progress detection.ProgressFunc) (*Result, error) {
	session := accuracy.NewSession("file")
	session.StartPhase(accuracy.PhaseLoad)
	img, err := imaging.LoadScreenshot(path)
	session.EndPhase(accuracy.PhaseLoad)
	if err != nil {
		return nil, err
	}
	return d.detect(img, strategyName, progress, session)
}
