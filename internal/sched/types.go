// Package sched holds the fixed event schema and per-task state shared by
// the probe layer, the ring-buffer decoder, and the consumer.
package sched

import "time"

// TaskID is the kernel-assigned numeric task identifier. Zero denotes the
// idle task and never has state associated with it.
type TaskID uint32

// Comm is a short, NUL-padded command name, sized to match the kernel's
// TASK_COMM_LEN so it can be copied directly out of a ring-buffer record.
type Comm [16]byte

// String trims Comm at its first NUL byte.
func (c Comm) String() string {
	for i, b := range c {
		if b == 0 {
			return string(c[:i])
		}
	}
	return string(c[:])
}

// NewComm truncates s to fit a Comm, NUL-padding the remainder.
func NewComm(s string) Comm {
	var c Comm
	copy(c[:], s)
	return c
}

// Kind discriminates the event union delivered through the ring buffer.
type Kind uint8

const (
	KindWake Kind = iota
	KindSwitch
	KindExec
	KindExit
	KindWaitLong
	KindFork
)

func (k Kind) String() string {
	switch k {
	case KindWake:
		return "WAKE"
	case KindSwitch:
		return "SWITCH"
	case KindExec:
		return "EXEC"
	case KindExit:
		return "EXIT"
	case KindWaitLong:
		return "WAITLONG"
	case KindFork:
		return "FORK"
	default:
		return "UNKNOWN"
	}
}

// SwitchPayload carries the two-sided timing data for a SWITCH event. It is
// populated only when Event.Kind == KindSwitch.
type SwitchPayload struct {
	PrevPID  TaskID
	PrevComm Comm
	NextPID  TaskID
	NextComm Comm
	RunNs    uint64 // time prev held the CPU before this switch, 0 if prev was idle
	WaitNs   uint64 // wake-to-run latency for next, 0 if no outstanding wake
	PrevCPU  uint32
	NextCPU  uint32
}

// ForkPayload carries parent/child identity for a FORK event. Kept
// distinct from SwitchPayload rather than reusing its prev/next fields,
// since a fork's parent/child pair has no on-CPU run time or wake latency
// to report.
type ForkPayload struct {
	ParentPID  TaskID
	ParentComm Comm
	ChildPID   TaskID
	ChildComm  Comm
}

// Event is the fixed-schema record produced by every probe handler and
// carried, in submission order per CPU, through the ring buffer.
type Event struct {
	TimestampNs uint64
	Kind        Kind
	PID         TaskID
	Comm        Comm

	Switch *SwitchPayload
	Fork   *ForkPayload
}

// Time renders TimestampNs as a wall-clock time relative to the Unix epoch.
// The monotonic ring buffer clock has no fixed epoch of its own; callers
// that only need relative ordering should compare TimestampNs directly.
func (e *Event) Time() time.Time {
	return time.Unix(0, int64(e.TimestampNs))
}

// Aggregate holds the per-task cumulative counters described in the data
// model. Fields are read/updated through AggregateTable, never directly,
// since concurrent updates from multiple CPUs are not atomic
// read-modify-write and the table is what serializes access per key.
type Aggregate struct {
	TotalRunNs  uint64
	TotalWaitNs uint64
	Switches    uint64
	Wakes       uint64
	FirstExecNs uint64 // 0 means unset
	LastSeenNs  uint64
}
