package probe

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/schedlab/schedlab/internal/sched"
)

// rawSwitchPayload mirrors struct switch_payload in bpf/sched.c byte for
// byte, including field order, so binary.Read can decode it directly off
// the ring buffer.
type rawSwitchPayload struct {
	PrevPID  uint32
	PrevComm [16]byte
	NextPID  uint32
	NextComm [16]byte
	RunNs    uint64
	WaitNs   uint64
	PrevCPU  uint32
	NextCPU  uint32
}

// rawForkPayload mirrors struct fork_payload.
type rawForkPayload struct {
	ParentPID  uint32
	ParentComm [16]byte
	ChildPID   uint32
	ChildComm  [16]byte
}

// rawSchedEvent mirrors struct sched_event, the wire layout submitted to
// the ring buffer by every probe handler. The six padding bytes after the
// two one-byte flags (pad[6] in the C struct) are declared here too so Go's
// layout matches the C one without depending on cgo.
type rawSchedEvent struct {
	TimestampNs uint64
	Kind        uint32
	PID         uint32
	Comm        [16]byte
	HasSwitch   uint8
	HasFork     uint8
	_           [6]byte
	Switch      rawSwitchPayload
	Fork        rawForkPayload
}

// DecodeEvent parses one ring-buffer record into the fixed sched.Event
// schema. It returns an error for records shorter than the wire struct;
// callers should count and drop such records rather than treat them as
// fatal, matching the probe's silent-drop failure policy.
func DecodeEvent(raw []byte) (*sched.Event, error) {
	var re rawSchedEvent
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &re); err != nil {
		return nil, fmt.Errorf("decode ring buffer record: %w", err)
	}

	ev := &sched.Event{
		TimestampNs: re.TimestampNs,
		Kind:        sched.Kind(re.Kind),
		PID:         sched.TaskID(re.PID),
		Comm:        sched.Comm(re.Comm),
	}

	if re.HasSwitch != 0 {
		ev.Switch = &sched.SwitchPayload{
			PrevPID:  sched.TaskID(re.Switch.PrevPID),
			PrevComm: sched.Comm(re.Switch.PrevComm),
			NextPID:  sched.TaskID(re.Switch.NextPID),
			NextComm: sched.Comm(re.Switch.NextComm),
			RunNs:    re.Switch.RunNs,
			WaitNs:   re.Switch.WaitNs,
			PrevCPU:  re.Switch.PrevCPU,
			NextCPU:  re.Switch.NextCPU,
		}
	}

	if re.HasFork != 0 {
		ev.Fork = &sched.ForkPayload{
			ParentPID:  sched.TaskID(re.Fork.ParentPID),
			ParentComm: sched.Comm(re.Fork.ParentComm),
			ChildPID:   sched.TaskID(re.Fork.ChildPID),
			ChildComm:  sched.Comm(re.Fork.ChildComm),
		}
	}

	return ev, nil
}
