package accuracy

import (
	"gearsight/internal/matching"
)

// GroundTruthItem is one expected entity with its hand-labeled count.
type GroundTruthItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GroundTruth is the hand-labeled expected content of one benchmark
// image: a multiset of (entity id, expected count).
type GroundTruth struct {
	Items []GroundTruthItem `json:"items"`
}

// TotalCount returns the total expected occurrences across all items.
func (gt *GroundTruth) TotalCount() int {
	total := 0
	for _, it := range gt.Items {
		total += it.Count
	}
	return total
}

// Metrics holds the accuracy measurement of one scored run.
type Metrics struct {
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

// Score compares detections against ground truth.
//
// Per entity id: TP += min(detected, expected); FP += max(0,
// detected-expected); FN += max(0, expected-detected). Detections of ids
// absent from ground truth count entirely as false positives.
//
// Precision is TP/(TP+FP) and recall TP/(TP+FN), each 0 when its
// denominator is 0; F1 is their harmonic mean, 0 when both are 0.
func Score(gt *GroundTruth, detections []matching.DetectionResult) Metrics {
	detected := make(map[string]int)
	for _, d := range detections {
		detected[d.EntityID]++
	}

	expected := make(map[string]int)
	for _, it := range gt.Items {
		expected[it.ID] += it.Count
	}

	var m Metrics
	for id, exp := range expected {
		det := detected[id]
		m.TruePositives += minInt(det, exp)
		if det > exp {
			m.FalsePositives += det - exp
		}
		if exp > det {
			m.FalseNegatives += exp - det
		}
	}
	for id, det := range detected {
		if _, ok := expected[id]; !ok {
			m.FalsePositives += det
		}
	}

	if m.TruePositives+m.FalsePositives > 0 {
		m.Precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}
	if m.TruePositives+m.FalseNegatives > 0 {
		m.Recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// Grade is the qualitative bucket of an F1 score. It is always derived
// from F1 on demand, never stored independently.
type Grade struct {
	Letter string `json:"letter"`
	Label  string `json:"label"`
}

// GradeF1 buckets an F1 score into a letter grade.
func GradeF1(f1 float64) Grade {
	switch {
	case f1 >= 0.90:
		return Grade{Letter: "A", Label: "Excellent"}
	case f1 >= 0.75:
		return Grade{Letter: "B", Label: "Good"}
	case f1 >= 0.60:
		return Grade{Letter: "C", Label: "Fair"}
	case f1 >= 0.45:
		return Grade{Letter: "D", Label: "Poor"}
	default:
		return Grade{Letter: "F", Label: "Very Poor"}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
