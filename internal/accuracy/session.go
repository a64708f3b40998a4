package accuracy

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"gearsight/internal/detection"
	"gearsight/internal/matching"
)

// Phase names the four timed pipeline phases.
type Phase string

const (
	PhaseLoad        Phase = "load"
	PhasePreprocess  Phase = "preprocess"
	PhaseMatching    Phase = "matching"
	PhasePostprocess Phase = "postprocess"
)

// Confidence bucket boundaries.
const (
	highConfidenceFloor   = 0.85
	mediumConfidenceFloor = 0.70
)

// Session times the phases of one detection run and collects its results
// for reporting. Start and End calls for a phase are paired; an End
// without a Start is ignored.
type Session struct {
	mode       string
	started    time.Time
	starts     map[Phase]time.Time
	elapsed    map[Phase]time.Duration
	detections []matching.DetectionResult
	validation *detection.GridValidation
	truth      *GroundTruth
}

// NewSession starts a session. Mode is a free-form label recorded in the
// report ("single", "benchmark", ...).
func NewSession(mode string) *Session {
	return &Session{
		mode:    mode,
		started: time.Now(),
		starts:  make(map[Phase]time.Time),
		elapsed: make(map[Phase]time.Duration),
	}
}

// StartPhase marks the beginning of a phase.
func (s *Session) StartPhase(p Phase) {
	s.starts[p] = time.Now()
}

// EndPhase marks the end of a phase, accumulating into its total.
func (s *Session) EndPhase(p Phase) {
	start, ok := s.starts[p]
	if !ok {
		return
	}
	delete(s.starts, p)
	s.elapsed[p] += time.Since(start)
}

// SetDetections records the final detection list.
func (s *Session) SetDetections(results []matching.DetectionResult) {
	s.detections = results
}

// SetValidation records optional per-cell validation stats.
func (s *Session) SetValidation(v *detection.GridValidation) {
	s.validation = v
}

// SetGroundTruth supplies the hand-labeled expectations. Without it the
// report omits accuracy entirely.
func (s *Session) SetGroundTruth(gt *GroundTruth) {
	s.truth = gt
}

// ConfidenceDistribution buckets detection confidences.
type ConfidenceDistribution struct {
	High   int `json:"high"`   // >= 0.85
	Medium int `json:"medium"` // 0.70 - 0.85
	Low    int `json:"low"`    // < 0.70
}

// Report is the completed measurement of one detection run.
type Report struct {
	Mode           string                    `json:"mode"`
	PhaseMillis    map[string]float64        `json:"phase_millis"`
	TotalMillis    float64                   `json:"total_millis"`
	DetectionCount int                       `json:"detection_count"`
	Distribution   ConfidenceDistribution    `json:"distribution"`
	MeanConfidence float64                   `json:"mean_confidence"`
	MedianConfidence float64                 `json:"median_confidence"`
	Validation     *detection.GridValidation `json:"validation,omitempty"`

	// Accuracy is nil when no ground truth was supplied: not measured is
	// different from measured as zero.
	Accuracy *Metrics `json:"accuracy,omitempty"`
}

// Complete closes the session and produces the report. Phases still open
// are ended implicitly.
func (s *Session) Complete() *Report {
	for p := range s.starts {
		s.EndPhase(p)
	}

	phases := make(map[string]float64, len(s.elapsed))
	for p, d := range s.elapsed {
		phases[string(p)] = float64(d.Microseconds()) / 1000.0
	}

	rep := &Report{
		Mode:           s.mode,
		PhaseMillis:    phases,
		TotalMillis:    float64(time.Since(s.started).Microseconds()) / 1000.0,
		DetectionCount: len(s.detections),
		Validation:     s.validation,
	}

	if len(s.detections) > 0 {
		confs := make([]float64, len(s.detections))
		for i, d := range s.detections {
			confs[i] = d.Confidence
			switch {
			case d.Confidence >= highConfidenceFloor:
				rep.Distribution.High++
			case d.Confidence >= mediumConfidenceFloor:
				rep.Distribution.Medium++
			default:
				rep.Distribution.Low++
			}
		}
		rep.MeanConfidence = stat.Mean(confs, nil)
		sort.Float64s(confs)
		rep.MedianConfidence = stat.Quantile(0.5, stat.Empirical, confs, nil)
	}

	if s.truth != nil {
		m := Score(s.truth, s.detections)
		rep.Accuracy = &m
	}
	return rep
}
