package accuracy

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

type fakeSource struct {
	data    []byte
	err     error
	fetches int
}

func (f *fakeSource) Fetch() ([]byte, error) {
	f.fetches++
	return f.data, f.err
}

func historyDoc(t *testing.T, runs []BenchmarkRun) []byte {
	t.Helper()
	data, err := json.Marshal(History{Version: 1, Runs: runs})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func runsWithF1(f1s ...float64) []BenchmarkRun {
	runs := make([]BenchmarkRun, len(f1s))
	for i, f1 := range f1s {
		runs[i] = BenchmarkRun{Metrics: Metrics{F1: f1}}
	}
	return runs
}

func TestHistoryCacheFetchesOnce(t *testing.T) {
	src := &fakeSource{data: historyDoc(t, runsWithF1(0.8))}
	cache := NewHistoryCache(src, nil)

	for i := 0; i < 3; i++ {
		h, err := cache.Load()
		if err != nil {
			t.Fatalf("Load %d: %v", i, err)
		}
		if len(h.Runs) != 1 {
			t.Fatalf("Load %d: %d runs, want 1", i, len(h.Runs))
		}
	}
	if src.fetches != 1 {
		t.Errorf("source fetched %d times, want 1", src.fetches)
	}
}

func TestHistoryCacheCachesFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("disk gone")}
	cache := NewHistoryCache(src, nil)

	if _, err := cache.Load(); err == nil {
		t.Fatal("expected error from failed fetch")
	}
	if _, err := cache.Load(); err == nil {
		t.Fatal("expected cached error on second load")
	}
	if src.fetches != 1 {
		t.Errorf("failed source fetched %d times, want 1 (failure is cached)", src.fetches)
	}

	cache.Reset()
	src.err = nil
	src.data = historyDoc(t, runsWithF1(0.7))
	if _, err := cache.Load(); err != nil {
		t.Fatalf("Load after Reset: %v", err)
	}
	if src.fetches != 2 {
		t.Errorf("source fetched %d times after Reset, want 2", src.fetches)
	}
}

func TestHistoryCacheMalformedDocument(t *testing.T) {
	src := &fakeSource{data: []byte("not json")}
	cache := NewHistoryCache(src, nil)
	if _, err := cache.Load(); err == nil {
		t.Error("malformed history should error")
	}
}

func TestSummarize(t *testing.T) {
	runs := runsWithF1(0.5, 0.7)
	runs[1].Metrics.F1 = 0.8
	runs[1].PerItem = map[string]ItemMetrics{
		"wrench": {Name: "Wrench", F1: 0.95},
		"medkit": {Name: "Medkit", F1: 0.3},
		"scope":  {Name: "Scope", F1: 0.7},
	}
	cache := NewHistoryCache(&fakeSource{data: historyDoc(t, runs)}, nil)

	sum := cache.Summarize()
	if sum == nil {
		t.Fatal("nil summary for populated history")
	}
	if sum.LastF1 != 0.8 || sum.LastGrade.Letter != "B" {
		t.Errorf("last = %v/%s, want 0.8/B", sum.LastF1, sum.LastGrade.Letter)
	}
	if sum.RunCount != 2 {
		t.Errorf("run count = %d, want 2", sum.RunCount)
	}
	if len(sum.WeakItems) != 1 || sum.WeakItems[0] != "Medkit" {
		t.Errorf("weak items = %v, want [Medkit]", sum.WeakItems)
	}
	if len(sum.StrongItems) != 1 || sum.StrongItems[0] != "Wrench" {
		t.Errorf("strong items = %v, want [Wrench]", sum.StrongItems)
	}
}

func TestSummarizeEmptyHistory(t *testing.T) {
	cache := NewHistoryCache(&fakeSource{data: historyDoc(t, nil)}, nil)
	if sum := cache.Summarize(); sum != nil {
		t.Errorf("summary of empty history = %+v, want nil", sum)
	}

	failing := NewHistoryCache(&fakeSource{err: errors.New("gone")}, nil)
	if sum := failing.Summarize(); sum != nil {
		t.Errorf("summary of unavailable history = %+v, want nil", sum)
	}
}

func TestTrendNeedsEnoughRuns(t *testing.T) {
	cache := NewHistoryCache(&fakeSource{data: historyDoc(t, runsWithF1(0.8, 0.8, 0.8))}, nil)
	if tr := cache.Trend(); tr.Direction != TrendUnknown {
		t.Errorf("direction with 3 runs = %s, want unknown", tr.Direction)
	}
}

func TestTrendDirections(t *testing.T) {
	cases := []struct {
		name  string
		prior float64
		rec   float64
		want  string
	}{
		{"improving", 0.6, 0.8, TrendImproving},
		{"declining", 0.8, 0.6, TrendDeclining},
		{"stable", 0.70, 0.71, TrendStable},
	}
	for _, tc := range cases {
		f1s := []float64{tc.prior, tc.prior, tc.prior, tc.prior, tc.prior,
			tc.rec, tc.rec, tc.rec, tc.rec, tc.rec}
		cache := NewHistoryCache(&fakeSource{data: historyDoc(t, runsWithF1(f1s...))}, nil)

		tr := cache.Trend()
		if tr.Direction != tc.want {
			t.Errorf("%s: direction = %s, want %s", tc.name, tr.Direction, tc.want)
		}
		if math.Abs(tr.RecentMean-tc.rec) > 1e-9 || math.Abs(tr.PriorMean-tc.prior) > 1e-9 {
			t.Errorf("%s: means = %v/%v, want %v/%v", tc.name, tr.RecentMean, tr.PriorMean, tc.rec, tc.prior)
		}
	}
}

func TestTrendUsesOnlyLastTwoWindows(t *testing.T) {
	// Ancient terrible runs before the two windows must not matter.
	f1s := []float64{0.1, 0.1, 0.1,
		0.8, 0.8, 0.8, 0.8, 0.8,
		0.8, 0.8, 0.8, 0.8, 0.8}
	cache := NewHistoryCache(&fakeSource{data: historyDoc(t, runsWithF1(f1s...))}, nil)

	tr := cache.Trend()
	if tr.Direction != TrendStable {
		t.Errorf("direction = %s, want stable (old runs excluded)", tr.Direction)
	}
}

func TestItemTrends(t *testing.T) {
	var runs []BenchmarkRun
	for i := 0; i < 5; i++ {
		runs = append(runs, BenchmarkRun{
			Metrics: Metrics{F1: 0.7},
			PerItem: map[string]ItemMetrics{
				"wrench": {Name: "Wrench", F1: 0.5},
				"medkit": {Name: "Medkit", F1: 0.9},
				"scope":  {Name: "Scope", F1: 0.7},
			},
		})
	}
	for i := 0; i < 5; i++ {
		runs = append(runs, BenchmarkRun{
			Metrics: Metrics{F1: 0.7},
			PerItem: map[string]ItemMetrics{
				"wrench": {Name: "Wrench", F1: 0.9},  // improved
				"medkit": {Name: "Medkit", F1: 0.5},  // declined
				"scope":  {Name: "Scope", F1: 0.75},  // within tolerance
			},
		})
	}
	cache := NewHistoryCache(&fakeSource{data: historyDoc(t, runs)}, nil)

	trends := cache.ItemTrends()
	if len(trends) != 2 {
		t.Fatalf("got %d item trends, want 2: %+v", len(trends), trends)
	}
	// Sorted by entity id: medkit before wrench.
	if trends[0].EntityID != "medkit" || trends[0].Direction != TrendDeclining {
		t.Errorf("trend 0 = %+v, want medkit declining", trends[0])
	}
	if trends[1].EntityID != "wrench" || trends[1].Direction != TrendImproving {
		t.Errorf("trend 1 = %+v, want wrench improving", trends[1])
	}
}

func TestItemTrendsNeedEnoughRuns(t *testing.T) {
	cache := NewHistoryCache(&fakeSource{data: historyDoc(t, runsWithF1(0.8))}, nil)
	if trends := cache.ItemTrends(); trends != nil {
		t.Errorf("item trends with 1 run = %+v, want nil", trends)
	}
}
