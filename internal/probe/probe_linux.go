//go:build linux
// +build linux

package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/ringbuf"
	"github.com/cilium/ebpf/rlimit"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/schedlab/schedlab/internal/config"
	"github.com/schedlab/schedlab/internal/probe/bpf"
	"github.com/schedlab/schedlab/internal/sched"
)

// LinuxSource attaches the compiled scheduler probes to their tracepoints
// and reads the shared ring buffer. It is the production Source.
type LinuxSource struct {
	logger *zap.Logger

	cfg *config.Store

	objs  bpf.SchedObjects
	links []link.Link
	rd    *ringbuf.Reader

	events chan *sched.Event

	received     atomic.Uint64
	dropped      atomic.Uint64
	decoded      atomic.Uint64
	decodeErrors atomic.Uint64

	wg       sync.WaitGroup
	closeOne sync.Once
}

// NewLinuxSource creates an unopened Source; call Open to load and attach.
func NewLinuxSource(logger *zap.Logger, channelSize int) *LinuxSource {
	if channelSize <= 0 {
		channelSize = 4096
	}
	return &LinuxSource{
		logger: logger.Named("probe"),
		cfg:    config.NewStore(config.Config{}),
		events: make(chan *sched.Event, channelSize),
	}
}

func (s *LinuxSource) Open(ctx context.Context, cfg config.Config) error {
	s.logCurrentMemlockLimit()
	if err := rlimit.RemoveMemlock(); err != nil {
		return fmt.Errorf("remove memlock rlimit: %w", err)
	}

	if err := bpf.LoadSchedObjects(&s.objs, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	// Write the runtime configuration before attaching a single tracepoint
	// so no probe can fire against a partially initialized config record.
	if err := s.writeConfig(cfg); err != nil {
		s.objs.Close()
		return fmt.Errorf("%w: %v", ErrConfigWriteFailed, err)
	}

	type tp struct {
		name string
		fn   func() (link.Link, error)
	}
	tps := []tp{
		{"trace_sched_wake", func() (link.Link, error) {
			return link.AttachTracing(link.TracingOptions{Program: s.objs.TraceSchedWake})
		}},
		{"trace_sched_switch", func() (link.Link, error) {
			return link.AttachTracing(link.TracingOptions{Program: s.objs.TraceSchedSwitch})
		}},
		{"trace_sched_exec", func() (link.Link, error) {
			return link.AttachTracing(link.TracingOptions{Program: s.objs.TraceSchedExec})
		}},
		{"trace_sched_exit", func() (link.Link, error) {
			return link.AttachTracing(link.TracingOptions{Program: s.objs.TraceSchedExit})
		}},
		{"trace_sched_fork", func() (link.Link, error) {
			return link.AttachTracing(link.TracingOptions{Program: s.objs.TraceSchedFork})
		}},
	}

	for _, t := range tps {
		l, err := t.fn()
		if err != nil {
			s.teardown()
			return fmt.Errorf("%w %s: %v", ErrAttachFailed, t.name, err)
		}
		s.links = append(s.links, l)
	}

	rd, err := ringbuf.NewReader(s.objs.Events)
	if err != nil {
		s.teardown()
		return fmt.Errorf("%w: %v", ErrRingSetupFailed, err)
	}
	s.rd = rd

	s.wg.Add(1)
	go s.readLoop(ctx)

	s.logger.Info("probes attached", zap.Int("tracepoints", len(s.links)))
	return nil
}

// logCurrentMemlockLimit reports the process's RLIMIT_MEMLOCK before
// rlimit.RemoveMemlock raises it, useful when diagnosing map-load
// failures on hosts with restrictive default limits.
func (s *LinuxSource) logCurrentMemlockLimit() {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &rlim); err != nil {
		return
	}
	s.logger.Debug("current memlock rlimit", zap.Uint64("cur", rlim.Cur), zap.Uint64("max", rlim.Max))
}

// writeConfig publishes cfg to the shared config.Store first, so the
// invariant "no probe observes a partially written record" holds for the
// Go-side snapshot too, then to the BPF config map the kernel probes read.
func (s *LinuxSource) writeConfig(cfg config.Config) error {
	s.cfg.Set(cfg)
	key := uint32(0)
	val := bpf.SchedSchedConfig{
		WaitAlertNs: cfg.WaitAlertNs,
		FilterPid:   cfg.FilterPID,
	}
	return s.objs.ConfigMap.Update(&key, &val, 0)
}

func (s *LinuxSource) SetConfig(cfg config.Config) {
	if err := s.writeConfig(cfg); err != nil {
		s.logger.Warn("failed to update runtime configuration", zap.Error(err))
	}
}

func (s *LinuxSource) Events() <-chan *sched.Event {
	return s.events
}

func (s *LinuxSource) Stats() Stats {
	return Stats{
		Received:     s.received.Load(),
		Dropped:      s.dropped.Load(),
		Decoded:      s.decoded.Load(),
		DecodeErrors: s.decodeErrors.Load(),
	}
}

// readLoop reads records off the ring buffer and decodes each into the
// fixed schema. Read is called with no deadline, so it blocks until a
// record arrives or Close closes the reader; ctx is only checked after a
// Read returns.
func (s *LinuxSource) readLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.events)

	for {
		record, err := s.rd.Read()
		if err != nil {
			if errors.Is(err, ringbuf.ErrClosed) {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.logger.Warn("ring buffer read error", zap.Error(err))
			continue
		}

		s.received.Add(1)
		ev, err := DecodeEvent(record.RawSample)
		if err != nil {
			s.decodeErrors.Add(1)
			continue
		}
		s.decoded.Add(1)

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		default:
			s.dropped.Add(1)
		}
	}
}

func (s *LinuxSource) teardown() {
	for _, l := range s.links {
		if l != nil {
			l.Close()
		}
	}
	s.links = nil
	s.objs.Close()
}

// Close tears down in the required order: stop the ring buffer reader
// (which unblocks readLoop), detach every tracepoint link, then free the
// eBPF maps and programs.
func (s *LinuxSource) Close() error {
	var closeErr error
	s.closeOne.Do(func() {
		if s.rd != nil {
			closeErr = s.rd.Close()
		}
		s.wg.Wait()
		s.teardown()
	})
	return closeErr
}
