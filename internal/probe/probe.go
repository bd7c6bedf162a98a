// Package probe provides the transport-facing half of the pipeline: a
// Source loads and attaches the scheduler probes, publishes the runtime
// configuration record, and yields decoded events off the ring buffer.
package probe

import (
	"context"
	"errors"

	"github.com/schedlab/schedlab/internal/config"
	"github.com/schedlab/schedlab/internal/sched"
)

// ErrUnsupportedPlatform is returned by NewProductionSource when the Linux
// eBPF backend is requested on a platform that cannot load it.
var ErrUnsupportedPlatform = errors.New("probe: eBPF backend requires Linux")

// Setup-error sentinels, wrapped into the errors Open returns so callers
// can classify a startup failure with errors.Is instead of parsing error
// strings.
var (
	ErrLoadFailed        = errors.New("probe: failed to load eBPF objects")
	ErrConfigWriteFailed = errors.New("probe: failed to write configuration")
	ErrAttachFailed      = errors.New("probe: failed to attach tracepoint")
	ErrRingSetupFailed   = errors.New("probe: failed to set up ring buffer")
)

// Source is the probe/transport boundary the consumer depends on. Exactly
// one implementation is active per run: the real eBPF-backed Source on
// Linux, or the deterministic Simulate Source anywhere (including Linux
// without CAP_BPF), selected by the caller.
type Source interface {
	// Open loads and attaches the probes and publishes cfg as the initial
	// runtime configuration before returning, satisfying the "config
	// written before any probe reads it" invariant.
	Open(ctx context.Context, cfg config.Config) error

	// Events returns the channel events are delivered on. It is closed
	// after Close returns.
	Events() <-chan *sched.Event

	// SetConfig republishes the runtime configuration; probes observe the
	// update on their next firing.
	SetConfig(cfg config.Config)

	// Stats reports transport-level counters for diagnostics.
	Stats() Stats

	// Close tears down in the order required by the termination design:
	// stop polling, detach probes, free maps. Any records produced between
	// the final poll and detach are discarded.
	Close() error
}

// Stats reports the ring buffer's bounded-resource counters: how many
// records were received, how many were dropped for lack of channel space,
// and how many decoded cleanly.
type Stats struct {
	Received uint64
	Dropped  uint64
	Decoded  uint64
	DecodeErrors uint64
}
