package perf

import (
	"context"
	"fmt"
	"time"
)

// CountFunc samples the current entity count, typically by querying the
// DOM of a live page.
type CountFunc func(ctx context.Context) (int, error)

// StabilizeOptions parametrizes the stabilization poll loop. Zero fields
// take the defaults below.
type StabilizeOptions struct {
	// Interval between samples.
	Interval time.Duration
	// MaxAttempts bounds the loop; exhausting it is a timeout failure.
	MaxAttempts int
	// StableReadings is how many consecutive equal observations count as
	// stable, including the first observation of the value.
	StableReadings int
	// MinCount gates stabilization: a value below it can never satisfy
	// the loop, no matter how stable, though its streak still accumulates
	// and completes the moment the value reaches the minimum.
	MinCount int

	// OnChange, when set, observes count transitions for diagnostics.
	OnChange func(previous, current int)
}

func (o StabilizeOptions) withDefaults() StabilizeOptions {
	if o.Interval <= 0 {
		o.Interval = 500 * time.Millisecond
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 120
	}
	if o.StableReadings <= 0 {
		o.StableReadings = 3
	}
	return o
}

// StabilizationTimeoutError reports that the count never stabilized at or
// above the minimum within the attempt budget. LastCount carries the
// final observation for diagnosis.
type StabilizationTimeoutError struct {
	LastCount int
	MinCount  int
	Attempts  int
}

func (e *StabilizationTimeoutError) Error() string {
	return fmt.Sprintf("count did not stabilize at minimum %d within %d attempts (last observed %d)",
		e.MinCount, e.Attempts, e.LastCount)
}

// WaitForStableCount polls count until the same value is observed
// opts.StableReadings times in a row and that value is at least
// opts.MinCount. It returns the stabilized value, or
// *StabilizationTimeoutError when the attempt budget runs out, or the
// context error on cancellation.
func WaitForStableCount(ctx context.Context, count CountFunc, opts StabilizeOptions) (int, error) {
	opts = opts.withDefaults()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	var previous, streak, last int
	first := true
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		current, err := count(ctx)
		if err != nil {
			return 0, fmt.Errorf("sample count: %w", err)
		}
		last = current

		if !first && current == previous {
			streak++
		} else {
			if opts.OnChange != nil && current != previous {
				opts.OnChange(previous, current)
			}
			streak = 1
		}
		first = false
		previous = current

		if streak >= opts.StableReadings && current >= opts.MinCount {
			return current, nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}

	return 0, &StabilizationTimeoutError{
		LastCount: last,
		MinCount:  opts.MinCount,
		Attempts:  opts.MaxAttempts,
	}
}
