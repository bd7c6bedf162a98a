// Package projection implements the eight mode-specific views over the
// scheduler event stream, each renderable as a human-readable line or a
// CSV row.
package projection

import (
	"fmt"
	"strconv"

	"github.com/schedlab/schedlab/internal/sched"
)

// Mode selects the active projection. Fixed at consumer startup.
type Mode string

const (
	ModeStream     Mode = "stream"
	ModeLatency    Mode = "latency"
	ModeFairness   Mode = "fairness"
	ModeCtx        Mode = "ctx"
	ModeTimeline   Mode = "timeline"
	ModeShortLong  Mode = "shortlong"
	ModeStarvation Mode = "starvation"
	ModeFork       Mode = "fork"
)

// AllModes lists every supported mode, in the order they appear in the CLI
// help.
var AllModes = []Mode{
	ModeStream, ModeLatency, ModeFairness, ModeCtx,
	ModeTimeline, ModeShortLong, ModeStarvation, ModeFork,
}

// ParseMode validates a --mode flag value.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	for _, candidate := range AllModes {
		if candidate == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Projection renders one row of output for events it cares about. Row and
// Line return ok=false when the event does not trigger this mode, in which
// case the consumer emits nothing for it.
type Projection interface {
	Mode() Mode
	// Triggers reports whether kind is one this projection renders.
	Triggers(kind sched.Kind) bool
	// Header returns the CSV column names, in order.
	Header() []string
	// Row renders one CSV row. snap is the current user-side aggregate for
	// the event's primary task id (zero value if not yet observed).
	Row(ev *sched.Event, snap sched.Aggregate) ([]string, bool)
	// Line renders the human-readable form of the same row.
	Line(ev *sched.Event, snap sched.Aggregate) (string, bool)
}

// New returns the Projection implementation for m.
func New(m Mode) (Projection, error) {
	switch m {
	case ModeStream:
		return streamProjection{}, nil
	case ModeLatency:
		return latencyProjection{}, nil
	case ModeFairness:
		return fairnessProjection{}, nil
	case ModeCtx:
		return ctxProjection{}, nil
	case ModeTimeline:
		return timelineProjection{}, nil
	case ModeShortLong:
		return shortlongProjection{}, nil
	case ModeStarvation:
		return starvationProjection{}, nil
	case ModeFork:
		return forkProjection{}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", m)
	}
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }
func msf(ns uint64) string {
	return strconv.FormatFloat(float64(ns)/1e6, 'f', 3, 64)
}
