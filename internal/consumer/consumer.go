// Package consumer implements the user-space half of the pipeline: it
// polls the probe's ring buffer, maintains an independent user-side
// aggregate table, and drives the active mode projection.
package consumer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/schedlab/schedlab/internal/probe"
	"github.com/schedlab/schedlab/internal/projection"
	"github.com/schedlab/schedlab/internal/sched"
)

// pollInterval is how often the poll loop checks the source's drop counter.
// The loop wakes at once for an event or for cancellation of its context;
// it does not wait for this interval to notice either.
const pollInterval = 200 * time.Millisecond

// Consumer drives the event poll loop: maintain the user-side aggregate,
// dispatch to the active projection, and tear the probe source down on
// cancellation.
type Consumer struct {
	logger   *zap.Logger
	source   probe.Source
	renderer *projection.Renderer
	agg      *sched.AggregateTable

	summaryInterval time.Duration

	processed metric.Int64Counter
	waitHist  metric.Float64Histogram
	runHist   metric.Float64Histogram

	lastDropped uint64
}

// New builds a Consumer. summaryInterval of 0 disables the periodic
// summary log line.
func New(logger *zap.Logger, source probe.Source, renderer *projection.Renderer, summaryInterval time.Duration) *Consumer {
	meter := otel.Meter("schedlab.consumer")

	processed, err := meter.Int64Counter("schedlab_events_processed_total",
		metric.WithDescription("Total scheduler events processed by the consumer"))
	if err != nil {
		logger.Warn("failed to create events counter", zap.Error(err))
	}

	waitHist, err := meter.Float64Histogram("schedlab_wait_ns",
		metric.WithDescription("Wake-to-run latency distribution"))
	if err != nil {
		logger.Warn("failed to create wait histogram", zap.Error(err))
	}

	runHist, err := meter.Float64Histogram("schedlab_run_ns",
		metric.WithDescription("On-CPU run-slice distribution"))
	if err != nil {
		logger.Warn("failed to create run histogram", zap.Error(err))
	}

	return &Consumer{
		logger:          logger.Named("consumer"),
		source:          source,
		renderer:        renderer,
		agg:             sched.NewAggregateTable(0),
		summaryInterval: summaryInterval,
		processed:       processed,
		waitHist:        waitHist,
		runHist:         runHist,
	}
}

// Run polls until ctx is cancelled, then tears the probe source down in
// order: stop polling, detach probes, free maps.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.source.Close(); err != nil {
			c.logger.Warn("error during probe teardown", zap.Error(err))
		}
	}()

	var summaryTicker *time.Ticker
	var summaryC <-chan time.Time
	if c.summaryInterval > 0 {
		summaryTicker = time.NewTicker(c.summaryInterval)
		defer summaryTicker.Stop()
		summaryC = summaryTicker.C
	}

	events := c.source.Events()

	pollTicker := time.NewTicker(pollInterval)
	defer pollTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.process(ctx, ev)

		case <-summaryC:
			c.printSummary()

		case <-pollTicker.C:
			c.checkDrops()
		}
	}
}

// process updates the user-side aggregate table from the event stream
// (independently of whatever the kernel-side aggregate saw), then
// dispatches the event to the active projection.
func (c *Consumer) process(ctx context.Context, ev *sched.Event) {
	switch ev.Kind {
	case sched.KindWake:
		c.agg.AddWake(ev.PID)
		c.agg.Touch(ev.PID, ev.TimestampNs)
	case sched.KindSwitch:
		if ev.Switch != nil {
			c.agg.AddRun(ev.Switch.PrevPID, ev.Switch.RunNs)
			c.agg.AddWait(ev.Switch.NextPID, ev.Switch.WaitNs)
			if ev.Switch.PrevPID != 0 {
				c.agg.Touch(ev.Switch.PrevPID, ev.TimestampNs)
			}
			if ev.Switch.NextPID != 0 {
				c.agg.Touch(ev.Switch.NextPID, ev.TimestampNs)
			}
			if c.waitHist != nil {
				c.waitHist.Record(ctx, float64(ev.Switch.WaitNs))
			}
			if c.runHist != nil {
				c.runHist.Record(ctx, float64(ev.Switch.RunNs))
			}
		}
	case sched.KindExec:
		c.agg.MarkExec(ev.PID, ev.TimestampNs)
		c.agg.Touch(ev.PID, ev.TimestampNs)
	case sched.KindExit, sched.KindWaitLong, sched.KindFork:
		c.agg.Touch(ev.PID, ev.TimestampNs)
	}

	if c.processed != nil {
		c.processed.Add(ctx, 1)
	}

	snap, _ := c.agg.Get(ev.PID)
	if _, err := c.renderer.Emit(ev, snap); err != nil {
		c.logger.Warn("failed to render event", zap.Error(err))
	}
}

// checkDrops logs a warning, at most once per poll interval, when the
// source's drop counter has moved since the last check. That counter covers
// records the source discarded because its event channel was full; events
// a probe fails to reserve on a full ring buffer are not counted anywhere.
func (c *Consumer) checkDrops() {
	stats := c.source.Stats()
	if stats.Dropped > c.lastDropped {
		c.logger.Warn("ring buffer dropped events since last check",
			zap.Uint64("dropped_total", stats.Dropped))
		c.lastDropped = stats.Dropped
	}
}

// printSummary logs a periodic summary line carrying the number of tasks in
// the user-side aggregate table; per-task counters are not included. It is
// a plain log line rather than a mode of its own.
func (c *Consumer) printSummary() {
	c.logger.Info("periodic summary", zap.Int("tracked_tasks", c.agg.Len()))
}
