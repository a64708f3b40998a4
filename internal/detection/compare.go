package detection

import (
	"math"
)

// FieldDiff is the per-field comparison between two calibrations.
type FieldDiff struct {
	Auto   int     `json:"auto"`
	Preset int     `json:"preset"`
	Diff   int     `json:"diff"`
	Weight float64 `json:"weight"`
}

// CompareResult reports how closely an auto-detected calibration matches
// a hand-tuned preset.
type CompareResult struct {
	Fields map[string]FieldDiff `json:"fields"`

	// MatchScore is 0-100; 100 means the calibrations are identical.
	MatchScore float64 `json:"match_score"`

	// TotalDiff is the weighted sum of absolute field differences.
	TotalDiff float64 `json:"total_diff"`

	Recommendation string `json:"recommendation"`
}

// Field weights for calibration comparison. Icon size dominates: a wrong
// icon size breaks every cell, while a small offset drift only shifts
// them.
var compareWeights = map[string]float64{
	"iconWidth":   2.0,
	"iconHeight":  2.0,
	"xSpacing":    1.5,
	"ySpacing":    1.5,
	"xOffset":     1.0,
	"yOffset":     1.0,
	"iconsPerRow": 1.0,
	"numRows":     0.5,
}

// Per-field difference at which a field contributes zero to the match
// score.
const compareDiffCeiling = 20.0

// CompareCalibrations computes per-field absolute differences between an
// auto-detected and a hand-tuned calibration, blends them into a 0-100
// match score, and buckets the score into a qualitative recommendation.
//
// Nil-safe: if either calibration is nil the result is nil.
func CompareCalibrations(auto, preset *Calibration) *CompareResult {
	if auto == nil || preset == nil {
		return nil
	}

	pairs := map[string][2]int{
		"iconWidth":   {auto.IconWidth, preset.IconWidth},
		"iconHeight":  {auto.IconHeight, preset.IconHeight},
		"xSpacing":    {auto.XSpacing, preset.XSpacing},
		"ySpacing":    {auto.YSpacing, preset.YSpacing},
		"xOffset":     {auto.XOffset, preset.XOffset},
		"yOffset":     {auto.YOffset, preset.YOffset},
		"iconsPerRow": {auto.IconsPerRow, preset.IconsPerRow},
		"numRows":     {auto.NumRows, preset.NumRows},
	}

	fields := make(map[string]FieldDiff, len(pairs))
	var weightedScore, weightSum, totalDiff float64
	for name, pair := range pairs {
		diff := int(math.Abs(float64(pair[0] - pair[1])))
		weight := compareWeights[name]
		fields[name] = FieldDiff{Auto: pair[0], Preset: pair[1], Diff: diff, Weight: weight}

		fieldScore := 1.0 - float64(diff)/compareDiffCeiling
		if fieldScore < 0 {
			fieldScore = 0
		}
		weightedScore += fieldScore * weight
		weightSum += weight
		totalDiff += float64(diff) * weight
	}

	score := 100 * weightedScore / weightSum

	return &CompareResult{
		Fields:         fields,
		MatchScore:     math.Round(score*10) / 10,
		TotalDiff:      totalDiff,
		Recommendation: recommend(score),
	}
}

func recommend(score float64) string {
	switch {
	case score >= 90:
		return "auto-detection matches the preset; either can be used"
	case score >= 70:
		return "minor drift from the preset; auto-detection is usable"
	case score >= 50:
		return "significant drift; review the preset before relying on it"
	default:
		return "calibrations disagree; recalibrate from a fresh capture"
	}
}
