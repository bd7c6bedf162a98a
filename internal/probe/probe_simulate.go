package probe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/schedlab/schedlab/internal/config"
	"github.com/schedlab/schedlab/internal/sched"
)

// syntheticTask describes one of the fixed tasks the simulate source cycles
// through. It is deliberately small and deterministic so tests driving
// SimulateSource are reproducible without a random seed.
type syntheticTask struct {
	pid  sched.TaskID
	comm sched.Comm
}

// SimulateSource runs the exact join logic in internal/sched/join.go over a
// deterministic, in-process schedule of wake/switch/exec/fork events. It
// emits no EXIT events: its tasks keep running until the source stops.
// It implements Source so it is a drop-in stand-in for LinuxSource on any
// platform, or on Linux without CAP_BPF, per the supplemented --simulate
// mode.
type SimulateSource struct {
	logger *zap.Logger
	tick   time.Duration
	tasks  []syntheticTask

	cfg *config.Store

	wake  *sched.StampTable
	oncpu *sched.StampTable
	agg   *sched.AggregateTable

	events chan *sched.Event

	produced atomic.Uint64
	dropped  atomic.Uint64

	stop     chan struct{}
	wg       sync.WaitGroup
	closeOne sync.Once
}

// NewSimulateSource creates a simulate source cycling through n synthetic
// tasks, emitting one scheduling decision every tick.
func NewSimulateSource(logger *zap.Logger, n int, tick time.Duration, channelSize int) *SimulateSource {
	if n <= 0 {
		n = 4
	}
	if tick <= 0 {
		tick = 2 * time.Millisecond
	}
	if channelSize <= 0 {
		channelSize = 4096
	}

	tasks := make([]syntheticTask, n)
	for i := range tasks {
		tasks[i] = syntheticTask{
			pid:  sched.TaskID(1000 + i),
			comm: sched.NewComm("worker" + string(rune('a'+i))),
		}
	}

	return &SimulateSource{
		logger: logger.Named("probe.simulate"),
		tick:   tick,
		tasks:  tasks,
		cfg:    config.NewStore(config.Config{}),
		wake:   sched.NewStampTable(0),
		oncpu:  sched.NewStampTable(0),
		agg:    sched.NewAggregateTable(0),
		events: make(chan *sched.Event, channelSize),
		stop:   make(chan struct{}),
	}
}

func (s *SimulateSource) Open(ctx context.Context, cfg config.Config) error {
	s.SetConfig(cfg)
	s.wg.Add(1)
	go s.run(ctx)
	s.logger.Info("simulate source running", zap.Int("tasks", len(s.tasks)), zap.Duration("tick", s.tick))
	return nil
}

func (s *SimulateSource) SetConfig(cfg config.Config) {
	s.cfg.Set(cfg)
}

func (s *SimulateSource) Events() <-chan *sched.Event {
	return s.events
}

func (s *SimulateSource) Stats() Stats {
	return Stats{Received: s.produced.Load(), Decoded: s.produced.Load(), Dropped: s.dropped.Load()}
}

func (s *SimulateSource) Close() error {
	s.closeOne.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

func (s *SimulateSource) emit(ev *sched.Event) {
	if ev == nil {
		return
	}
	s.produced.Add(1)
	select {
	case s.events <- ev:
	default:
		s.dropped.Add(1)
	}
}

// run cycles: exec each task once, then repeatedly wake-and-switch the
// current task out and the next task in, occasionally forking a child of
// the first task, until the context is cancelled or Close is called.
func (s *SimulateSource) run(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.events)

	var now uint64
	step := uint64(s.tick.Nanoseconds())
	if step == 0 {
		step = 1
	}

	for _, t := range s.tasks {
		now += step
		s.emit(sched.Exec(now, t.pid, t.comm, s.agg))
	}

	var cur int
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	childSeq := sched.TaskID(9000)
	iterations := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			now += step
			next := (cur + 1) % len(s.tasks)
			nt := s.tasks[next]

			cfg := s.cfg.Load()
			s.emit(sched.Wake(now, nt.pid, nt.comm, cfg, s.wake, s.agg))

			now += step
			pt := s.tasks[cur]
			for _, ev := range sched.Switch(now, pt.pid, nt.pid, pt.comm, nt.comm, uint32(cur), uint32(next), cfg, s.wake, s.oncpu, s.agg) {
				s.emit(ev)
			}
			cur = next
			iterations++

			if iterations%25 == 0 {
				now += step
				childSeq++
				parent := s.tasks[0]
				s.emit(sched.Fork(now, parent.pid, childSeq, parent.comm, sched.NewComm("child"), cfg))
			}
		}
	}
}
