package sched

import "github.com/schedlab/schedlab/internal/config"

// The functions in this file are the reference implementation of the
// wake/switch/exec/exit/fork temporal-correlation algorithm: the same
// join logic the in-kernel eBPF program (internal/probe/bpf/sched.c) also
// implements. Keeping one copy expressed in Go lets the join logic be
// unit tested and driven by the simulate probe without a kernel; the C
// program is hand-verified against this file rather than the other way
// around.

// Wake implements the wake handler: it stamps the wake time and increments
// the wake counter for pid, subject to the active task filter.
func Wake(now uint64, pid TaskID, comm Comm, cfg config.Config, wake *StampTable, agg *AggregateTable) *Event {
	if !cfg.Matches(uint32(pid)) {
		return nil
	}
	wake.Set(pid, now)
	agg.AddWake(pid)
	agg.Touch(pid, now)
	return &Event{TimestampNs: now, Kind: KindWake, PID: pid, Comm: comm}
}

// Switch implements the switch handler: it closes out prevPID's run slice,
// closes out nextPID's wait slice, and updates both tasks' aggregates. It
// returns zero, one, or two events: a WAITLONG alert ahead of the SWITCH
// event when the wait-alert threshold is armed and crossed.
func Switch(now uint64, prevPID, nextPID TaskID, prevComm, nextComm Comm, prevCPU, nextCPU uint32, cfg config.Config, wake, onCPU *StampTable, agg *AggregateTable) []*Event {
	if !cfg.MatchesEither(uint32(prevPID), uint32(nextPID)) {
		return nil
	}

	var runNs uint64
	if prevPID != 0 {
		if ts, ok := onCPU.Get(prevPID); ok {
			runNs = now - ts
		}
	}

	var waitNs uint64
	if nextPID != 0 {
		if ts, ok := wake.TakeAndDelete(nextPID); ok {
			waitNs = now - ts
		}
		onCPU.Set(nextPID, now)
	}

	agg.AddRun(prevPID, runNs)
	agg.AddWait(nextPID, waitNs)
	if prevPID != 0 {
		agg.Touch(prevPID, now)
	}
	if nextPID != 0 {
		agg.Touch(nextPID, now)
	}

	var events []*Event
	if cfg.AlertsEnabled() && waitNs >= cfg.WaitAlertNs {
		events = append(events, &Event{
			TimestampNs: now,
			Kind:        KindWaitLong,
			PID:         nextPID,
			Comm:        nextComm,
		})
	}

	events = append(events, &Event{
		TimestampNs: now,
		Kind:        KindSwitch,
		PID:         nextPID,
		Comm:        nextComm,
		Switch: &SwitchPayload{
			PrevPID:  prevPID,
			PrevComm: prevComm,
			NextPID:  nextPID,
			NextComm: nextComm,
			RunNs:    runNs,
			WaitNs:   waitNs,
			PrevCPU:  prevCPU,
			NextCPU:  nextCPU,
		},
	})

	return events
}

// Exec implements the exec handler. pid is the thread-group leader id.
func Exec(now uint64, pid TaskID, comm Comm, agg *AggregateTable) *Event {
	agg.MarkExec(pid, now)
	agg.Touch(pid, now)
	return &Event{TimestampNs: now, Kind: KindExec, PID: pid, Comm: comm}
}

// Exit implements the exit handler. It returns nil for a non-leader
// thread: only the thread-group leader's exit ends the process's
// lifetime.
func Exit(now uint64, pid, tgid TaskID, comm Comm, wake, onCPU *StampTable, agg *AggregateTable) *Event {
	if pid != tgid {
		return nil
	}
	wake.Delete(pid)
	onCPU.Delete(pid)
	agg.Touch(pid, now)
	return &Event{TimestampNs: now, Kind: KindExit, PID: pid, Comm: comm}
}

// Fork implements the fork handler. It is filtered against the parent id
// only; the child has not been observed by any other handler yet.
func Fork(now uint64, parentPID, childPID TaskID, parentComm, childComm Comm, cfg config.Config) *Event {
	if !cfg.Matches(uint32(parentPID)) {
		return nil
	}
	return &Event{
		TimestampNs: now,
		Kind:        KindFork,
		PID:         parentPID,
		Comm:        parentComm,
		Fork: &ForkPayload{
			ParentPID:  parentPID,
			ParentComm: parentComm,
			ChildPID:   childPID,
			ChildComm:  childComm,
		},
	}
}
