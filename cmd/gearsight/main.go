// Command gearsight detects the item loadout in a game screenshot.
//
// It loads a catalog of reference icons, auto-detects the hotbar grid,
// matches each cell against the catalog, and prints the results as JSON.
// When ground truth is supplied the output includes accuracy metrics.
//
// Usage:
//
//	gearsight -screenshot capture.png -catalog items.json -assets icons/
//	gearsight -screenshot capture.png -catalog items.json -assets icons/ \
//	    -strategy thorough -truth expected.json -history history.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gearsight/internal/accuracy"
	"gearsight/internal/catalog"
	"gearsight/internal/matching"
	"gearsight/internal/pipeline"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	var (
		screenshotPath = flag.String("screenshot", "", "Path to the screenshot to analyze (required)")
		catalogPath    = flag.String("catalog", "", "Path to the catalog JSON file (required)")
		assetsDir      = flag.String("assets", ".", "Directory holding the icon assets referenced by the catalog")
		strategyName   = flag.String("strategy", "", "Matching strategy preset (default: balanced)")
		truthPath      = flag.String("truth", "", "Optional ground-truth JSON for accuracy scoring")
		historyPath    = flag.String("history", "", "Optional benchmark history JSON for trend summary")
		verbose        = flag.Bool("verbose", false, "Log progress to stderr")
		showVersion    = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("gearsight %s (built %s)\n", Version, BuildTime)
		return
	}
	if *screenshotPath == "" || *catalogPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*screenshotPath, *catalogPath, *assetsDir, *strategyName, *truthPath, *historyPath, *verbose, log); err != nil {
		log.Error("detection failed", "error", err)
		os.Exit(1)
	}
}

type output struct {
	*pipeline.Result
	Accuracy *accuracy.Metrics       `json:"accuracy,omitempty"`
	Grade    *accuracy.Grade         `json:"grade,omitempty"`
	Summary  *accuracy.Summary       `json:"history_summary,omitempty"`
	Trend    *accuracy.TrendReport   `json:"history_trend,omitempty"`
}

func run(screenshotPath, catalogPath, assetsDir, strategyName, truthPath, historyPath string, verbose bool, log *slog.Logger) error {
	items, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}

	det := pipeline.New(log)
	if err := det.LoadCatalog(items, matching.DirLoader{Root: assetsDir}); err != nil {
		return err
	}

	var progress func(int, string)
	if verbose {
		progress = func(percent int, message string) {
			log.Debug("progress", "percent", percent, "stage", message)
		}
	}

	result, err := det.DetectFile(screenshotPath, strategyName, progress)
	if err != nil {
		return err
	}

	out := output{Result: result}

	if truthPath != "" {
		gt, err := loadGroundTruth(truthPath)
		if err != nil {
			return err
		}
		m := accuracy.Score(gt, result.Detections)
		g := accuracy.GradeF1(m.F1)
		out.Accuracy = &m
		out.Grade = &g
	}

	if historyPath != "" {
		cache := accuracy.NewHistoryCache(accuracy.FileSource{Path: historyPath}, log)
		out.Summary = cache.Summarize()
		if t := cache.Trend(); t.Direction != accuracy.TrendUnknown {
			out.Trend = &t
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func loadCatalog(path string) ([]catalog.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var items []catalog.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return items, nil
}

func loadGroundTruth(path string) (*accuracy.GroundTruth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ground truth: %w", err)
	}
	var gt accuracy.GroundTruth
	if err := json.Unmarshal(data, &gt); err != nil {
		return nil, fmt.Errorf("failed to parse ground truth: %w", err)
	}
	return &gt, nil
}
