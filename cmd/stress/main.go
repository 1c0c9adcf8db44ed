// Command stress loads the map with a large dataset repeatedly, measures
// time-to-stable-markers per run, and persists a JSON performance report.
// Exits non-zero when any run misses the time budget.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/Problematy/goodmap-e2e-tests/internal/config"
	"github.com/Problematy/goodmap-e2e-tests/internal/perf"
	"github.com/Problematy/goodmap-e2e-tests/internal/session"
)

func main() {
	cfg := config.Load()

	runs := flag.Int("runs", cfg.StressRuns, "number of measured runs")
	baseURL := flag.String("base-url", cfg.BaseURL, "application under test")
	report := flag.String("report", cfg.ReportPath, "performance report path")
	maxAllowed := flag.Int("max-allowed-ms", cfg.MaxAllowedMs, "per-run time budget in ms")
	minMarkers := flag.Int("min-markers", cfg.MinMarkers, "minimum markers expected in the viewport")
	headless := flag.Bool("headless", cfg.Headless, "run Chrome headless")
	flag.Parse()

	cfg.BaseURL = *baseURL
	cfg.Headless = *headless

	if err := run(cfg, *runs, *report, *maxAllowed, *minMarkers); err != nil {
		slog.Error("stress run failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, runs int, reportPath string, maxAllowedMs, minMarkers int) error {
	ctx := context.Background()

	browser, err := session.Launch(ctx, cfg)
	if err != nil {
		return err
	}
	defer browser.Close()

	s, err := browser.NewDefaultSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	tracker := perf.NewTracker()
	tracker.ExpectedRuns = runs

	for run := 1; run <= runs; run++ {
		fmt.Printf("\nRun %d of %d\n", run, runs)

		count, elapsed, err := measureRun(s, cfg, minMarkers)
		if err != nil {
			return fmt.Errorf("run %d: %w", run, err)
		}

		elapsedMs := float64(elapsed.Microseconds()) / 1000
		fmt.Printf("Run %d took %.0fms and loaded %d markers/clusters\n", run, elapsedMs, count)
		tracker.AddRun(run, elapsedMs, count)

		if count <= minMarkers {
			return fmt.Errorf("run %d: expected more than %d markers but got %d", run, minMarkers, count)
		}
	}

	if err := tracker.Save(reportPath, maxAllowedMs); err != nil {
		return err
	}

	stats := tracker.Stats(maxAllowedMs)
	printSummary(stats)

	if !stats.Passed {
		return fmt.Errorf("slowest run %.2fms exceeded budget %dms", stats.MaxTime, maxAllowedMs)
	}
	return nil
}

// measureRun navigates to the app, waits for the map and the locations
// API, then stabilizes the marker count. Returns the final count and the
// elapsed wall time.
func measureRun(s *session.Session, cfg *config.Config, minMarkers int) (int, time.Duration, error) {
	start := time.Now()

	// Arm the response listener before navigating; the API call fires
	// during page load.
	locations := s.ExpectResponse("/api/locations", cfg.MapLoadTimeout)

	if err := s.Navigate(cfg.BaseURL); err != nil {
		return 0, 0, err
	}
	if err := s.WaitVisible("#map", cfg.MapLoadTimeout); err != nil {
		return 0, 0, err
	}
	if _, err := locations.Wait(); err != nil {
		return 0, 0, err
	}

	count, err := perf.WaitForStableCount(s.Ctx, s.CountMarkers, perf.StabilizeOptions{
		Interval:       cfg.PollInterval,
		MaxAttempts:    cfg.MaxPollAttempts,
		StableReadings: cfg.StableReadings,
		MinCount:       minMarkers,
		OnChange: func(prev, cur int) {
			fmt.Printf("Marker count changed: %d -> %d\n", prev, cur)
		},
	})
	if err != nil {
		return 0, 0, err
	}

	return count, time.Since(start), nil
}

func printSummary(stats perf.Report) {
	fmt.Println("\nPerformance Summary:")
	fmt.Printf("  Runs: %d/%d\n", stats.NumRuns, stats.ExpectedRuns)
	fmt.Printf("  Avg: %.2fms\n", stats.AvgTime)
	fmt.Printf("  Min: %.2fms\n", stats.MinTime)
	fmt.Printf("  Max: %.2fms\n", stats.MaxTime)
	fmt.Printf("  Avg Markers: %.2f\n", stats.AvgEntities)

	if stats.Passed {
		color.Green("PASS: all runs within %dms", stats.MaxAllowed)
	} else {
		color.Red("FAIL: slowest run %.2fms over budget %dms", stats.MaxTime, stats.MaxAllowed)
	}
}
