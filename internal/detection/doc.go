// Package detection locates the item hotbar in a screenshot and carves it
// into a calibrated grid of icon cells without hand calibration.
//
// The pipeline runs leaf to root:
//
//  1. Band detection: find the horizontal strip containing item icons by
//     scoring fixed-thickness strips in the bottom 30% of the frame.
//  2. Edge detection: find vertical rarity-border seams inside the band,
//     rejecting single-pixel noise via vertical color-run consistency.
//  3. Icon metrics: reduce the noisy edge set to one consistent cell
//     stride using modal gap analysis.
//  4. Grid building: materialize cell rectangles and a
//     resolution-normalized calibration.
//  5. Validation: flag empty or suspicious cells before matching.
//
// AutoDetect sequences all five stages behind one call with progress
// reporting; failures anywhere in the sequence become structured results,
// never errors or panics at the caller.
//
// # Confidence Scores
//
// Every stage reports a confidence in [0, 1]. Irregular input degrades
// confidence gracefully rather than failing the stage: an uneven hotbar
// yields low-confidence metrics, not an error.
package detection
