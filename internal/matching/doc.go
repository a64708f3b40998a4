// Package matching scores grid cells against a catalog of reference icon
// templates using classical pixel-similarity metrics.
//
// # Template Store
//
// Templates are prepared once per catalog: each entity's icon asset is
// decoded (with a format-fallback retry), normalized to a fixed raster
// size, and profiled by multi-region dominant hue. A single failed asset
// is logged and excluded; it never aborts the load. Templates are indexed
// by rarity tier and by coarse dominant-color bucket so strategies can
// shrink the candidate set before scoring.
//
// # Matching
//
// Matching is strategy-driven along four independent axes: candidate-set
// filtering, color-profile granularity, similarity metric (NCC, SSD, or
// SSIM), and feature toggles. The multi-pass engine runs up to three
// passes over a shrinking set of unmatched cells, each pass applying a
// rarity-specific confidence threshold. Rare tiers tolerate lower
// thresholds because their icons are visually distinctive; common tiers
// need higher confidence to avoid false positives.
//
// Accepted matches pass through non-maximum suppression and are then
// aggregated per entity with deterministic ordering.
package matching
