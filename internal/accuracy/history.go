package accuracy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ItemMetrics is the per-entity accuracy inside one benchmark run.
type ItemMetrics struct {
	Name string  `json:"name"`
	F1   float64 `json:"f1"`
}

// ImageMetrics is the per-image accuracy inside one benchmark run.
type ImageMetrics struct {
	Image string  `json:"image"`
	F1    float64 `json:"f1"`
}

// BenchmarkRun is one immutable entry of the benchmark history.
type BenchmarkRun struct {
	ID         string                 `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	Mode       string                 `json:"mode"`
	ImageCount int                    `json:"image_count"`
	TotalItems int                    `json:"total_items"`
	Metrics    Metrics                `json:"metrics"`
	Millis     float64                `json:"millis"`
	PerItem    map[string]ItemMetrics `json:"per_item,omitempty"`
	PerImage   []ImageMetrics         `json:"per_image,omitempty"`
}

// History is the versioned append-only run list. The engine only consumes
// it; an external benchmark collaborator writes it.
type History struct {
	Version int            `json:"version"`
	Runs    []BenchmarkRun `json:"runs"`
}

// Source fetches the raw history document.
type Source interface {
	Fetch() ([]byte, error)
}

// FileSource reads the history document from a fixed file path.
type FileSource struct {
	Path string
}

// Fetch reads the document bytes.
func (f FileSource) Fetch() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history %s: %w", f.Path, err)
	}
	return data, nil
}

// HistoryCache loads the benchmark history once and caches the outcome.
// A failed fetch is cached too — the source is not retried on every call.
// Reset clears the cache for test isolation or an explicit refresh.
type HistoryCache struct {
	mu      sync.Mutex
	source  Source
	loaded  bool
	history *History
	err     error
	log     *slog.Logger
}

// NewHistoryCache wraps a source. A nil logger selects slog.Default.
func NewHistoryCache(source Source, log *slog.Logger) *HistoryCache {
	if log == nil {
		log = slog.Default()
	}
	return &HistoryCache{source: source, log: log}
}

// Load returns the cached history, fetching on first call only. After a
// failed first fetch, subsequent calls return the cached error without
// touching the source again.
func (c *HistoryCache) Load() (*History, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.history, c.err
	}
	c.loaded = true

	data, err := c.source.Fetch()
	if err != nil {
		c.log.Warn("benchmark history unavailable", "error", err)
		c.err = err
		return nil, err
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		c.err = fmt.Errorf("failed to parse history: %w", err)
		c.log.Warn("benchmark history malformed", "error", c.err)
		return nil, c.err
	}
	c.history = &h
	return c.history, nil
}

// Reset clears the cached outcome so the next Load fetches again.
func (c *HistoryCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.history = nil
	c.err = nil
}

// Item F1 boundaries for the summary's weak/strong lists.
const (
	weakItemF1   = 0.5
	strongItemF1 = 0.85
)

// Summary condenses the latest run: its F1 and grade plus the items that
// scored notably weak or strong.
type Summary struct {
	LastF1      float64  `json:"last_f1"`
	LastGrade   Grade    `json:"last_grade"`
	WeakItems   []string `json:"weak_items"`
	StrongItems []string `json:"strong_items"`
	RunCount    int      `json:"run_count"`
}

// Summarize reports the state of the most recent run, or nil when the
// history is empty or unavailable.
func (c *HistoryCache) Summarize() *Summary {
	h, err := c.Load()
	if err != nil || h == nil || len(h.Runs) == 0 {
		return nil
	}

	last := h.Runs[len(h.Runs)-1]
	sum := &Summary{
		LastF1:    last.Metrics.F1,
		LastGrade: GradeF1(last.Metrics.F1),
		RunCount:  len(h.Runs),
	}
	for id, item := range last.PerItem {
		name := item.Name
		if name == "" {
			name = id
		}
		switch {
		case item.F1 < weakItemF1:
			sum.WeakItems = append(sum.WeakItems, name)
		case item.F1 > strongItemF1:
			sum.StrongItems = append(sum.StrongItems, name)
		}
	}
	return sum
}

// Trend directions.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
	TrendUnknown   = "unknown"
)

// Trend analysis constants: window size, minimum runs for a verdict, and
// the mean-F1 delta below which the trend reads as stable.
const (
	trendWindow    = 5
	trendMinRuns   = 10
	trendTolerance = 0.02
	itemTolerance  = 0.1
)

// TrendReport compares the recent window against the preceding one.
type TrendReport struct {
	Direction  string  `json:"direction"`
	RecentMean float64 `json:"recent_mean"`
	PriorMean  float64 `json:"prior_mean"`
	Delta      float64 `json:"delta"`
}

// Trend compares the mean F1 of the most recent five runs against the
// mean of the preceding five. The direction is "improving" or "declining"
// when the delta exceeds the tolerance, otherwise "stable"; with fewer
// than ten total runs it is "unknown".
func (c *HistoryCache) Trend() TrendReport {
	h, err := c.Load()
	if err != nil || h == nil || len(h.Runs) < trendMinRuns {
		return TrendReport{Direction: TrendUnknown}
	}

	recent, prior := trendWindows(h.Runs)
	recentMean := stat.Mean(recent, nil)
	priorMean := stat.Mean(prior, nil)
	delta := recentMean - priorMean

	dir := TrendStable
	if delta > trendTolerance {
		dir = TrendImproving
	} else if delta < -trendTolerance {
		dir = TrendDeclining
	}
	return TrendReport{Direction: dir, RecentMean: recentMean, PriorMean: priorMean, Delta: delta}
}

// ItemTrend flags one entity whose F1 moved between windows.
type ItemTrend struct {
	EntityID  string  `json:"entity_id"`
	Direction string  `json:"direction"`
	Delta     float64 `json:"delta"`
}

// ItemTrends flags entities whose individual F1 moved more than the item
// tolerance between the same two windows used by Trend.
func (c *HistoryCache) ItemTrends() []ItemTrend {
	h, err := c.Load()
	if err != nil || h == nil || len(h.Runs) < trendMinRuns {
		return nil
	}

	n := len(h.Runs)
	recentRuns := h.Runs[n-trendWindow:]
	priorRuns := h.Runs[n-2*trendWindow : n-trendWindow]

	var trends []ItemTrend
	for id := range itemIDs(recentRuns, priorRuns) {
		recentMean, okR := itemWindowMean(recentRuns, id)
		priorMean, okP := itemWindowMean(priorRuns, id)
		if !okR || !okP {
			continue
		}
		delta := recentMean - priorMean
		switch {
		case delta > itemTolerance:
			trends = append(trends, ItemTrend{EntityID: id, Direction: TrendImproving, Delta: delta})
		case delta < -itemTolerance:
			trends = append(trends, ItemTrend{EntityID: id, Direction: TrendDeclining, Delta: delta})
		}
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].EntityID < trends[j].EntityID })
	return trends
}

// trendWindows extracts the recent and prior F1 windows from the run list.
func trendWindows(runs []BenchmarkRun) (recent, prior []float64) {
	n := len(runs)
	for _, r := range runs[n-trendWindow:] {
		recent = append(recent, r.Metrics.F1)
	}
	for _, r := range runs[n-2*trendWindow : n-trendWindow] {
		prior = append(prior, r.Metrics.F1)
	}
	return recent, prior
}

func itemIDs(windows ...[]BenchmarkRun) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, runs := range windows {
		for _, r := range runs {
			for id := range r.PerItem {
				ids[id] = struct{}{}
			}
		}
	}
	return ids
}

func itemWindowMean(runs []BenchmarkRun, id string) (float64, bool) {
	var vals []float64
	for _, r := range runs {
		if m, ok := r.PerItem[id]; ok {
			vals = append(vals, m.F1)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	return stat.Mean(vals, nil), true
}
