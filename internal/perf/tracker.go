// Package perf aggregates timed run observations across repeated stress
// runs and decides pass/fail against a wall-clock budget.
package perf

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// RunRecord is one observed run: elapsed wall time and the final entity
// (marker/cluster) count.
type RunRecord struct {
	Run      int     `json:"run"`
	TimeMs   float64 `json:"time"`
	Entities int     `json:"entities"`
}

// Report is the derived summary over all recorded runs. Recomputed on
// demand; never mutated directly.
type Report struct {
	NumRuns      int         `json:"numRuns"`
	ExpectedRuns int         `json:"expectedRuns"`
	RunTimes     []RunRecord `json:"runTimes"`
	AvgTime      float64     `json:"avgTime"`
	MinTime      float64     `json:"minTime"`
	MaxTime      float64     `json:"maxTime"`
	AvgEntities  float64     `json:"avgEntities"`
	MaxAllowed   int         `json:"maxAllowed"`
	Passed       bool        `json:"passed"`
}

// Empty reports whether no runs were recorded. Callers check this instead
// of the tracker raising an error for an empty sequence.
func (r Report) Empty() bool { return r.NumRuns == 0 }

// Tracker accumulates RunRecords for one stress scenario execution. Not
// safe for concurrent use; each scenario owns its own tracker.
type Tracker struct {
	// ExpectedRuns is reported verbatim when set; otherwise the report
	// falls back to the number of recorded runs.
	ExpectedRuns int

	records []RunRecord
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker { return &Tracker{} }

// AddRun appends one observation. Times are rounded to 2 decimal places
// at recording time, matching the persisted report precision.
func (t *Tracker) AddRun(run int, elapsedMs float64, entities int) {
	t.records = append(t.records, RunRecord{
		Run:      run,
		TimeMs:   round2(elapsedMs),
		Entities: entities,
	})
}

// NumRuns returns how many runs were recorded so far.
func (t *Tracker) NumRuns() int { return len(t.records) }

// Stats computes the summary report. With no recorded runs it returns the
// zero report rather than failing.
func (t *Tracker) Stats(maxAllowedMs int) Report {
	if len(t.records) == 0 {
		return Report{}
	}

	times := make([]RunRecord, len(t.records))
	copy(times, t.records)

	minTime := t.records[0].TimeMs
	maxTime := t.records[0].TimeMs
	var sumTime float64
	var sumEntities int
	for _, r := range t.records {
		if r.TimeMs < minTime {
			minTime = r.TimeMs
		}
		if r.TimeMs > maxTime {
			maxTime = r.TimeMs
		}
		sumTime += r.TimeMs
		sumEntities += r.Entities
	}

	expected := t.ExpectedRuns
	if expected == 0 {
		expected = len(t.records)
	}

	return Report{
		NumRuns:      len(t.records),
		ExpectedRuns: expected,
		RunTimes:     times,
		AvgTime:      round2(sumTime / float64(len(t.records))),
		MinTime:      round2(minTime),
		MaxTime:      round2(maxTime),
		AvgEntities:  round2(float64(sumEntities) / float64(len(t.records))),
		MaxAllowed:   maxAllowedMs,
		Passed:       maxTime <= float64(maxAllowedMs),
	}
}

// Save writes the report as indented JSON, creating parent directories.
func (t *Tracker) Save(path string, maxAllowedMs int) error {
	stats := t.Stats(maxAllowedMs)
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
