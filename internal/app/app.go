// Package app wires the CLI surface to the probe/consumer pipeline and
// maps failures to process exit codes.
package app

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/schedlab/schedlab/internal/consumer"
	"github.com/schedlab/schedlab/internal/probe"
	"github.com/schedlab/schedlab/internal/projection"
)

const defaultChannelSize = 4096

// Run builds the pipeline for opts and blocks until ctx is cancelled or the
// probe source's event channel closes. It returns nil on clean shutdown
// and a classifiable error otherwise; use ExitCode to translate the result.
func Run(ctx context.Context, logger *zap.Logger, opts Options, stdout io.Writer) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	mode, err := projection.ParseMode(opts.Mode)
	if err != nil {
		return &CLIError{Err: err}
	}

	proj, err := projection.New(mode)
	if err != nil {
		return &CLIError{Err: err}
	}

	format := projection.FormatHuman
	if opts.CSV {
		format = projection.FormatCSV
	}
	renderer := projection.NewRenderer(proj, format, opts.CSVHeader, stdout)

	source, err := newSource(logger, opts)
	if err != nil {
		return err
	}

	cfg := opts.RuntimeConfig()
	if err := source.Open(ctx, cfg); err != nil {
		return err
	}

	c := consumer.New(logger, source, renderer, opts.SummaryInterval)
	return c.Run(ctx)
}

// newSource picks the probe backend: the eBPF-backed Source, unless
// --simulate asked for the deterministic in-process one.
func newSource(logger *zap.Logger, opts Options) (probe.Source, error) {
	if opts.Simulate {
		return probe.NewSimulateSource(logger, 4, 0, defaultChannelSize), nil
	}
	src, err := probe.NewProductionSource(logger, defaultChannelSize)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// ExitCode maps a Run error to its process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return 1
	}

	switch {
	case errors.Is(err, probe.ErrLoadFailed):
		return 2
	case errors.Is(err, probe.ErrConfigWriteFailed):
		return 3
	case errors.Is(err, probe.ErrAttachFailed), errors.Is(err, probe.ErrUnsupportedPlatform):
		return 4
	case errors.Is(err, probe.ErrRingSetupFailed):
		return 5
	default:
		return 1
	}
}
