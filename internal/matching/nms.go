package matching

import (
	"sort"

	"gearsight/internal/imaging"
)

// DefaultNMSThreshold is the IoU above which two detections are treated
// as the same physical icon.
const DefaultNMSThreshold = 0.3

// SuppressOverlaps resolves overlapping detections by greedy non-maximum
// suppression: candidates are visited in descending confidence order and
// kept only when their bounding-box IoU against every already-kept result
// stays below the threshold.
//
// A threshold outside (0, 1] falls back to DefaultNMSThreshold. The input
// slice is not modified.
func SuppressOverlaps(results []DetectionResult, threshold float64) []DetectionResult {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultNMSThreshold
	}
	if len(results) <= 1 {
		return results
	}

	sorted := make([]DetectionResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]DetectionResult, 0, len(sorted))
	for _, cand := range sorted {
		overlaps := false
		for _, k := range kept {
			if imaging.IoU(cand.Position, k.Position) >= threshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, cand)
		}
	}
	return kept
}

// AggregatedResult groups duplicate detections of the same entity across
// non-overlapping cells.
type AggregatedResult struct {
	EntityID string `json:"entity_id"`
	Name     string `json:"name"`

	// Count is the number of occurrences, always >= 1.
	Count int `json:"count"`

	// Confidence is the maximum confidence across the group.
	Confidence float64 `json:"confidence"`
}

// AggregateDetections groups detections by entity identity: count is the
// number of occurrences and confidence the group maximum. Results are
// sorted by display name for deterministic output.
func AggregateDetections(results []DetectionResult) []AggregatedResult {
	groups := make([]AggregatedResult, 0, len(results))
	for _, r := range results {
		groups = append(groups, AggregatedResult{
			EntityID:   r.EntityID,
			Name:       r.Name,
			Count:      1,
			Confidence: r.Confidence,
		})
	}
	return Aggregate(groups)
}

// Aggregate merges groups sharing an entity id, summing counts and
// keeping the maximum confidence. Aggregate is idempotent:
// Aggregate(Aggregate(x)) equals Aggregate(x).
func Aggregate(groups []AggregatedResult) []AggregatedResult {
	merged := make(map[string]AggregatedResult)
	for _, g := range groups {
		if g.Count < 1 {
			g.Count = 1
		}
		cur, ok := merged[g.EntityID]
		if !ok {
			merged[g.EntityID] = g
			continue
		}
		cur.Count += g.Count
		if g.Confidence > cur.Confidence {
			cur.Confidence = g.Confidence
		}
		merged[g.EntityID] = cur
	}

	out := make([]AggregatedResult, 0, len(merged))
	for _, g := range merged {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}
