package accuracy

import (
	"math"
	"testing"

	"gearsight/internal/matching"
)

func detections(ids ...string) []matching.DetectionResult {
	out := make([]matching.DetectionResult, len(ids))
	for i, id := range ids {
		out[i] = matching.DetectionResult{EntityID: id, Confidence: 0.9}
	}
	return out
}

func TestScorePerfectRun(t *testing.T) {
	gt := &GroundTruth{Items: []GroundTruthItem{
		{ID: "wrench", Count: 2},
		{ID: "medkit", Count: 1},
	}}

	m := Score(gt, detections("wrench", "wrench", "medkit"))

	if m.TruePositives != 3 || m.FalsePositives != 0 || m.FalseNegatives != 0 {
		t.Fatalf("TP/FP/FN = %d/%d/%d, want 3/0/0", m.TruePositives, m.FalsePositives, m.FalseNegatives)
	}
	if m.Precision != 1 || m.Recall != 1 || m.F1 != 1 {
		t.Errorf("P/R/F1 = %v/%v/%v, want all 1", m.Precision, m.Recall, m.F1)
	}
}

func TestScoreMissedDetections(t *testing.T) {
	gt := &GroundTruth{Items: []GroundTruthItem{
		{ID: "wrench", Count: 3},
		{ID: "medkit", Count: 2},
	}}

	m := Score(gt, detections("wrench", "wrench", "medkit"))

	if m.TruePositives != 3 || m.FalseNegatives != 2 || m.FalsePositives != 0 {
		t.Fatalf("TP/FP/FN = %d/%d/%d, want 3/0/2", m.TruePositives, m.FalsePositives, m.FalseNegatives)
	}
	if m.Precision != 1 {
		t.Errorf("precision = %v, want 1", m.Precision)
	}
	if m.Recall != 0.6 {
		t.Errorf("recall = %v, want 0.6", m.Recall)
	}
	if want := 2 * 1.0 * 0.6 / 1.6; math.Abs(m.F1-want) > 1e-9 {
		t.Errorf("F1 = %v, want %v", m.F1, want)
	}
}

func TestScoreUnknownDetectionsAreFalsePositives(t *testing.T) {
	gt := &GroundTruth{Items: []GroundTruthItem{{ID: "wrench", Count: 1}}}

	m := Score(gt, detections("wrench", "ghost", "ghost"))

	if m.TruePositives != 1 || m.FalsePositives != 2 || m.FalseNegatives != 0 {
		t.Fatalf("TP/FP/FN = %d/%d/%d, want 1/2/0", m.TruePositives, m.FalsePositives, m.FalseNegatives)
	}
}

func TestScoreOverdetectionSplits(t *testing.T) {
	gt := &GroundTruth{Items: []GroundTruthItem{{ID: "wrench", Count: 1}}}

	m := Score(gt, detections("wrench", "wrench", "wrench"))

	if m.TruePositives != 1 || m.FalsePositives != 2 {
		t.Fatalf("TP/FP = %d/%d, want 1/2", m.TruePositives, m.FalsePositives)
	}
}

func TestScoreCountingInvariants(t *testing.T) {
	gt := &GroundTruth{Items: []GroundTruthItem{
		{ID: "wrench", Count: 2},
		{ID: "medkit", Count: 3},
		{ID: "scope", Count: 1},
	}}
	dets := detections("wrench", "wrench", "wrench", "medkit", "ghost")

	m := Score(gt, dets)

	if m.TruePositives+m.FalseNegatives != gt.TotalCount() {
		t.Errorf("TP+FN = %d, want ground-truth total %d",
			m.TruePositives+m.FalseNegatives, gt.TotalCount())
	}
	if m.TruePositives+m.FalsePositives != len(dets) {
		t.Errorf("TP+FP = %d, want detection count %d",
			m.TruePositives+m.FalsePositives, len(dets))
	}
}

func TestScoreZeroDenominators(t *testing.T) {
	// Nothing detected against a populated ground truth.
	gt := &GroundTruth{Items: []GroundTruthItem{{ID: "wrench", Count: 2}}}
	m := Score(gt, nil)
	if m.Precision != 0 || m.Recall != 0 || m.F1 != 0 {
		t.Errorf("empty detections: P/R/F1 = %v/%v/%v, want zeros", m.Precision, m.Recall, m.F1)
	}

	// Nothing expected and nothing detected.
	m = Score(&GroundTruth{}, nil)
	if m.Precision != 0 || m.Recall != 0 || m.F1 != 0 {
		t.Errorf("empty everything: P/R/F1 = %v/%v/%v, want zeros", m.Precision, m.Recall, m.F1)
	}
}

func TestGradeBoundaries(t *testing.T) {
	cases := []struct {
		f1     float64
		letter string
		label  string
	}{
		{1.0, "A", "Excellent"},
		{0.90, "A", "Excellent"},
		{0.899, "B", "Good"},
		{0.75, "B", "Good"},
		{0.749, "C", "Fair"},
		{0.60, "C", "Fair"},
		{0.599, "D", "Poor"},
		{0.45, "D", "Poor"},
		{0.449, "F", "Very Poor"},
		{0, "F", "Very Poor"},
	}
	for _, tc := range cases {
		g := GradeF1(tc.f1)
		if g.Letter != tc.letter || g.Label != tc.label {
			t.Errorf("GradeF1(%v) = %s/%s, want %s/%s", tc.f1, g.Letter, g.Label, tc.letter, tc.label)
		}
	}
}
