// Package accuracy measures how well the detection pipeline performs:
// per-phase timing, confidence distributions, scoring against hand-labeled
// ground truth, letter grading, and trend analysis over historical
// benchmark runs.
//
// # Measured vs. Not Measured
//
// When no ground truth is supplied, precision/recall/F1 are omitted (nil),
// never zeroed. "Not measured" and "measured as zero" are different
// answers and the reports keep them distinguishable.
//
// # History
//
// Benchmark history is a versioned, append-only run list produced by an
// external benchmark collaborator. This package only consumes it: the
// document is fetched once per cache and the outcome — including a failed
// fetch — is cached so a broken source is not re-fetched on every call.
package accuracy
