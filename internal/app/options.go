package app

import (
	"fmt"
	"time"

	"github.com/schedlab/schedlab/internal/config"
	"github.com/schedlab/schedlab/internal/projection"
)

// Options mirrors the CLI surface exactly, plus the --simulate and
// --summary-interval flags.
type Options struct {
	Mode            string
	FilterPID       uint32
	WaitAlertMs     int
	CSV             bool
	CSVHeader       bool
	Simulate        bool
	SummaryInterval time.Duration
}

// DefaultOptions matches the CLI defaults: mode stream, 5ms alert
// threshold, filtering disabled.
func DefaultOptions() Options {
	return Options{
		Mode:        string(projection.ModeStream),
		FilterPID:   0,
		WaitAlertMs: 5,
		CSV:         false,
		CSVHeader:   false,
		Simulate:    false,
	}
}

// Validate checks the flag combination, returning a *CLIError on failure so
// main can map it to exit code 1 without inspecting error text.
func (o Options) Validate() error {
	if _, err := projection.ParseMode(o.Mode); err != nil {
		return &CLIError{Err: err}
	}
	if o.WaitAlertMs < 0 {
		return &CLIError{Err: fmt.Errorf("--wait-alert-ms must be >= 0, got %d", o.WaitAlertMs)}
	}
	if o.CSVHeader && !o.CSV {
		return &CLIError{Err: fmt.Errorf("--csv-header requires --csv")}
	}
	return nil
}

// RuntimeConfig converts the validated CLI options into the single-slot
// configuration record written at startup.
func (o Options) RuntimeConfig() config.Config {
	return config.Config{
		WaitAlertNs: uint64(o.WaitAlertMs) * uint64(time.Millisecond),
		FilterPID:   o.FilterPID,
	}
}

// CLIError marks a malformed-CLI failure: print usage, exit 1.
type CLIError struct{ Err error }

func (e *CLIError) Error() string { return e.Err.Error() }
func (e *CLIError) Unwrap() error { return e.Err }
