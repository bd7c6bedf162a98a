package projection

import (
	"fmt"

	"github.com/schedlab/schedlab/internal/sched"
)

// --- stream ---------------------------------------------------------------

type streamProjection struct{}

func (streamProjection) Mode() Mode                    { return ModeStream }
func (streamProjection) Triggers(sched.Kind) bool       { return true }
func (streamProjection) Header() []string {
	return []string{"ts_ns", "type", "pid", "comm", "prev_pid", "next_pid", "run_ns", "wait_ns"}
}

func (streamProjection) Row(ev *sched.Event, _ sched.Aggregate) ([]string, bool) {
	row := []string{u64(ev.TimestampNs), ev.Kind.String(), u64(uint64(ev.PID)), ev.Comm.String(), "", "", "", ""}
	if ev.Switch != nil {
		row[4] = u64(uint64(ev.Switch.PrevPID))
		row[5] = u64(uint64(ev.Switch.NextPID))
		row[6] = u64(ev.Switch.RunNs)
		row[7] = u64(ev.Switch.WaitNs)
	}
	return row, true
}

func (s streamProjection) Line(ev *sched.Event, snap sched.Aggregate) (string, bool) {
	if ev.Switch != nil {
		return fmt.Sprintf("%d %-8s pid=%d comm=%s prev=%d next=%d run_ns=%d wait_ns=%d",
			ev.TimestampNs, ev.Kind, ev.PID, ev.Comm, ev.Switch.PrevPID, ev.Switch.NextPID, ev.Switch.RunNs, ev.Switch.WaitNs), true
	}
	return fmt.Sprintf("%d %-8s pid=%d comm=%s", ev.TimestampNs, ev.Kind, ev.PID, ev.Comm), true
}

// --- latency ---------------------------------------------------------------

type latencyProjection struct{}

func (latencyProjection) Mode() Mode              { return ModeLatency }
func (latencyProjection) Triggers(k sched.Kind) bool { return k == sched.KindSwitch }
func (latencyProjection) Header() []string        { return []string{"ts_ns", "pid", "latency_ns"} }

func (latencyProjection) Row(ev *sched.Event, _ sched.Aggregate) ([]string, bool) {
	if ev.Switch == nil {
		return nil, false
	}
	return []string{u64(ev.TimestampNs), u64(uint64(ev.Switch.NextPID)), u64(ev.Switch.WaitNs)}, true
}

func (l latencyProjection) Line(ev *sched.Event, snap sched.Aggregate) (string, bool) {
	if ev.Switch == nil {
		return "", false
	}
	return fmt.Sprintf("%d pid=%d latency_ns=%d", ev.TimestampNs, ev.Switch.NextPID, ev.Switch.WaitNs), true
}

// --- fairness ----------------------------------------------------------------

type fairnessProjection struct{}

func (fairnessProjection) Mode() Mode              { return ModeFairness }
func (fairnessProjection) Triggers(k sched.Kind) bool { return k == sched.KindSwitch }
func (fairnessProjection) Header() []string {
	return []string{"pid", "run_ms", "wait_ms", "switches"}
}

func (fairnessProjection) Row(ev *sched.Event, snap sched.Aggregate) ([]string, bool) {
	if ev.Switch == nil {
		return nil, false
	}
	return []string{
		u64(uint64(ev.Switch.NextPID)),
		msf(snap.TotalRunNs),
		msf(snap.TotalWaitNs),
		u64(snap.Switches),
	}, true
}

func (f fairnessProjection) Line(ev *sched.Event, snap sched.Aggregate) (string, bool) {
	if ev.Switch == nil {
		return "", false
	}
	return fmt.Sprintf("pid=%d run_ms=%s wait_ms=%s switches=%d",
		ev.Switch.NextPID, msf(snap.TotalRunNs), msf(snap.TotalWaitNs), snap.Switches), true
}

// --- ctx ---------------------------------------------------------------------

type ctxProjection struct{}

func (ctxProjection) Mode() Mode              { return ModeCtx }
func (ctxProjection) Triggers(k sched.Kind) bool { return k == sched.KindSwitch }
func (ctxProjection) Header() []string        { return []string{"ts_ns", "prev_pid", "next_pid", "run_ns"} }

func (ctxProjection) Row(ev *sched.Event, _ sched.Aggregate) ([]string, bool) {
	if ev.Switch == nil {
		return nil, false
	}
	return []string{
		u64(ev.TimestampNs), u64(uint64(ev.Switch.PrevPID)), u64(uint64(ev.Switch.NextPID)), u64(ev.Switch.RunNs),
	}, true
}

func (c ctxProjection) Line(ev *sched.Event, snap sched.Aggregate) (string, bool) {
	if ev.Switch == nil {
		return "", false
	}
	return fmt.Sprintf("%d prev=%d next=%d run_ns=%d", ev.TimestampNs, ev.Switch.PrevPID, ev.Switch.NextPID, ev.Switch.RunNs), true
}

// --- timeline ------------------------------------------------------------------

type timelineProjection struct{}

func (timelineProjection) Mode() Mode { return ModeTimeline }
func (timelineProjection) Triggers(k sched.Kind) bool {
	switch k {
	case sched.KindWake, sched.KindSwitch, sched.KindExec, sched.KindExit:
		return true
	default:
		return false
	}
}
func (timelineProjection) Header() []string {
	return []string{"ts_ns", "pid", "event", "wait_ns", "run_prev_ns"}
}

func (timelineProjection) Row(ev *sched.Event, _ sched.Aggregate) ([]string, bool) {
	waitNs, runNs := "", ""
	if ev.Switch != nil {
		waitNs = u64(ev.Switch.WaitNs)
		runNs = u64(ev.Switch.RunNs)
	}
	return []string{u64(ev.TimestampNs), u64(uint64(ev.PID)), ev.Kind.String(), waitNs, runNs}, true
}

func (t timelineProjection) Line(ev *sched.Event, snap sched.Aggregate) (string, bool) {
	if ev.Switch != nil {
		return fmt.Sprintf("%d pid=%d %-8s wait_ns=%d run_prev_ns=%d", ev.TimestampNs, ev.PID, ev.Kind, ev.Switch.WaitNs, ev.Switch.RunNs), true
	}
	return fmt.Sprintf("%d pid=%d %-8s", ev.TimestampNs, ev.PID, ev.Kind), true
}

// --- shortlong -------------------------------------------------------------------

type shortlongProjection struct{}

func (shortlongProjection) Mode() Mode              { return ModeShortLong }
func (shortlongProjection) Triggers(k sched.Kind) bool { return k == sched.KindExit }
func (shortlongProjection) Header() []string {
	return []string{"pid", "lifetime_ms", "wakes", "switches"}
}

func lifetimeMs(snap sched.Aggregate) float64 {
	if snap.FirstExecNs == 0 || snap.LastSeenNs <= snap.FirstExecNs {
		return 0
	}
	return float64(snap.LastSeenNs-snap.FirstExecNs) / 1e6
}

func (shortlongProjection) Row(ev *sched.Event, snap sched.Aggregate) ([]string, bool) {
	return []string{
		u64(uint64(ev.PID)),
		formatMs(lifetimeMs(snap)),
		u64(snap.Wakes),
		u64(snap.Switches),
	}, true
}

func formatMs(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func (s shortlongProjection) Line(ev *sched.Event, snap sched.Aggregate) (string, bool) {
	return fmt.Sprintf("pid=%d lifetime_ms=%s wakes=%d switches=%d",
		ev.PID, formatMs(lifetimeMs(snap)), snap.Wakes, snap.Switches), true
}

// --- starvation ------------------------------------------------------------------

type starvationProjection struct{}

func (starvationProjection) Mode() Mode              { return ModeStarvation }
func (starvationProjection) Triggers(k sched.Kind) bool { return k == sched.KindWaitLong }
func (starvationProjection) Header() []string        { return []string{"ts_ns", "pid", "event"} }

func (starvationProjection) Row(ev *sched.Event, _ sched.Aggregate) ([]string, bool) {
	return []string{u64(ev.TimestampNs), u64(uint64(ev.PID)), "wait_alert"}, true
}

func (s starvationProjection) Line(ev *sched.Event, snap sched.Aggregate) (string, bool) {
	return fmt.Sprintf("%d pid=%d wait_alert", ev.TimestampNs, ev.PID), true
}

// --- fork ------------------------------------------------------------------------

type forkProjection struct{}

func (forkProjection) Mode() Mode              { return ModeFork }
func (forkProjection) Triggers(k sched.Kind) bool { return k == sched.KindFork }
func (forkProjection) Header() []string        { return []string{"ts_ns", "parent_pid", "child_pid"} }

func (forkProjection) Row(ev *sched.Event, _ sched.Aggregate) ([]string, bool) {
	if ev.Fork == nil {
		return nil, false
	}
	return []string{u64(ev.TimestampNs), u64(uint64(ev.Fork.ParentPID)), u64(uint64(ev.Fork.ChildPID))}, true
}

func (f forkProjection) Line(ev *sched.Event, snap sched.Aggregate) (string, bool) {
	if ev.Fork == nil {
		return "", false
	}
	return fmt.Sprintf("%d parent=%d child=%d", ev.TimestampNs, ev.Fork.ParentPID, ev.Fork.ChildPID), true
}
