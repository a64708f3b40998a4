package detection

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"gearsight/internal/imaging"
)

// ProgressFunc observes orchestrator progress. Percent is monotonically
// increasing and ends at 100; message names the stage just completed.
// Callbacks are synchronous and best-effort.
type ProgressFunc func(percent int, message string)

// Failure reason codes emitted by AutoDetect.
const (
	ReasonBandNotFound      = "band-not-found"
	ReasonInsufficientEdges = "insufficient-edges"
	ReasonNoCells           = "no-cells"
	ReasonInternalError     = "internal-error"
)

// AutoDetectResult bundles the outcome of the full grid pipeline. On
// failure, Success is false, Error holds a human-readable message,
// Reasons holds machine-readable codes, and Calibration is nil; partial
// stage outputs are kept when available for diagnosis.
type AutoDetectResult struct {
	Success     bool            `json:"success"`
	Error       string          `json:"error,omitempty"`
	Reasons     []string        `json:"reasons,omitempty"`
	Band        *BandRegion     `json:"band,omitempty"`
	Edges       *EdgeScan       `json:"edges,omitempty"`
	Metrics     *IconMetrics    `json:"metrics,omitempty"`
	Grid        *Grid           `json:"grid,omitempty"`
	Validation  *GridValidation `json:"validation,omitempty"`
	Calibration *Calibration    `json:"calibration"`

	// Confidence blends the stage confidences into one overall score.
	Confidence float64 `json:"confidence"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// AutoDetectOptions configures the orchestrator. The zero value uses
// default tuning, no progress reporting, and the default logger.
type AutoDetectOptions struct {
	Tuning   Tuning
	Progress ProgressFunc
	Logger   *slog.Logger
}

// AutoDetect runs the full grid pipeline: band detection, edge scanning,
// icon metrics, grid building, and validation.
//
// AutoDetect never returns an error and never panics past its own
// boundary. Any failure, including a panic in a stage, is converted into
// a structured result with Success=false and machine-readable reason
// codes. The caller-supplied progress callback sees monotonically
// increasing percentages ending at 100 on both success and failure paths.
func AutoDetect(img image.Image, opts AutoDetectOptions) (result *AutoDetectResult) {
	start := time.Now()
	tun := opts.Tuning.sanitize()
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(int, string) {}
	}

	result = &AutoDetectResult{}
	defer func() {
		if r := recover(); r != nil {
			log.Error("auto-detect panic recovered", "panic", r)
			result = &AutoDetectResult{
				Success: false,
				Error:   fmt.Sprintf("internal error: %v", r),
				Reasons: []string{ReasonInternalError},
			}
		}
		result.Elapsed = time.Since(start)
		progress(100, "done")
	}()

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	progress(5, "detecting hotbar band")
	band, err := DetectBand(img, tun)
	if err != nil {
		result.Error = err.Error()
		result.Reasons = []string{ReasonBandNotFound}
		return result
	}
	result.Band = band

	progress(25, "scanning rarity borders")
	smoothed := imaging.Smooth(img, tun.SmoothRadius)
	scan := DetectEdges(smoothed, band, tun)
	result.Edges = scan
	if len(scan.Edges) < 2 {
		log.Warn("insufficient edges, falling back to default metrics", "edges", len(scan.Edges))
	}

	progress(50, "calculating icon metrics")
	metrics := CalculateIconMetrics(scan, w, h, tun)
	result.Metrics = metrics

	progress(70, "building grid")
	grid := BuildGrid(band, metrics, w, h, tun)
	result.Grid = grid
	if len(grid.Cells) == 0 {
		result.Error = "no cells fit inside the scan region"
		result.Reasons = []string{ReasonNoCells}
		if metrics.IsDefault {
			result.Reasons = append(result.Reasons, ReasonInsufficientEdges)
		}
		return result
	}

	progress(90, "validating cells")
	validation := ValidateGrid(img, grid.Cells, tun)
	result.Validation = validation

	result.Success = true
	result.Calibration = grid.Calibration
	result.Confidence = blendConfidence(band.Confidence, metrics.Confidence, validation.Confidence)
	return result
}

// blendConfidence weights the stage confidences into one overall score.
// Metrics confidence dominates: a wrong stride poisons everything after.
func blendConfidence(band, metrics, validation float64) float64 {
	c := 0.30*band + 0.45*metrics + 0.25*validation
	if c > 1 {
		c = 1
	}
	return c
}
