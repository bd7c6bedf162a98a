package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedlab/schedlab/internal/config"
)

func newTables() (*StampTable, *StampTable, *AggregateTable) {
	return NewStampTable(0), NewStampTable(0), NewAggregateTable(0)
}

func TestWakeThenSwitch_ComputesWait(t *testing.T) {
	wake, oncpu, agg := newTables()
	cfg := config.Config{}

	wakeEv := Wake(1000, 42, NewComm("app"), cfg, wake, agg)
	require.NotNil(t, wakeEv)
	assert.Equal(t, KindWake, wakeEv.Kind)

	events := Switch(1500, 0, 42, Comm{}, NewComm("app"), 0, 1, cfg, wake, oncpu, agg)
	require.Len(t, events, 1)
	sw := events[0].Switch
	require.NotNil(t, sw)
	assert.Equal(t, uint64(500), sw.WaitNs)

	// The wake stamp is consumed; a second switch-in without an
	// intervening wake sees no outstanding wake.
	events2 := Switch(2000, 42, 42, NewComm("app"), NewComm("app"), 1, 1, cfg, wake, oncpu, agg)
	require.Len(t, events2, 1)
	assert.Equal(t, uint64(0), events2[0].Switch.WaitNs)
}

func TestSwitch_IdlePrevHasZeroRun(t *testing.T) {
	wake, oncpu, agg := newTables()
	cfg := config.Config{}

	events := Switch(1000, 0, 7, Comm{}, NewComm("task"), 0, 0, cfg, wake, oncpu, agg)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(0), events[0].Switch.RunNs)

	_, ok := agg.Get(0)
	assert.False(t, ok)
}

func TestSwitch_RunAccumulatesInAggregate(t *testing.T) {
	wake, oncpu, agg := newTables()
	cfg := config.Config{}

	// task 5 switches in, runs, then switches out for task 6.
	Switch(1000, 0, 5, Comm{}, NewComm("five"), 0, 0, cfg, wake, oncpu, agg)
	Switch(1800, 5, 6, NewComm("five"), NewComm("six"), 0, 0, cfg, wake, oncpu, agg)

	a, ok := agg.Get(5)
	require.True(t, ok)
	assert.Equal(t, uint64(800), a.TotalRunNs)
	assert.Equal(t, uint64(1), a.Switches)
}

func TestWaitAlert_ThresholdZeroNeverFires(t *testing.T) {
	wake, oncpu, agg := newTables()
	cfg := config.Config{WaitAlertNs: 0}

	Wake(1000, 1, NewComm("a"), cfg, wake, agg)
	events := Switch(50_000_000, 0, 1, Comm{}, NewComm("a"), 0, 0, cfg, wake, oncpu, agg)
	require.Len(t, events, 1)
	assert.Equal(t, KindSwitch, events[0].Kind)
}

func TestWaitAlert_FiresBeforeSwitch(t *testing.T) {
	wake, oncpu, agg := newTables()
	cfg := config.Config{WaitAlertNs: 20_000_000}

	Wake(1000, 1, NewComm("a"), cfg, wake, agg)
	events := Switch(1000+30_000_000, 0, 1, Comm{}, NewComm("a"), 0, 0, cfg, wake, oncpu, agg)
	require.Len(t, events, 2)
	assert.Equal(t, KindWaitLong, events[0].Kind)
	assert.Equal(t, KindSwitch, events[1].Kind)
}

func TestFilterPID_ExcludesUnrelatedEvents(t *testing.T) {
	wake, oncpu, agg := newTables()
	cfg := config.Config{FilterPID: 99}

	assert.Nil(t, Wake(1000, 1, NewComm("a"), cfg, wake, agg))
	assert.NotNil(t, Wake(1000, 99, NewComm("a"), cfg, wake, agg))

	// Switch matches if either side is the filtered pid.
	events := Switch(1000, 1, 99, NewComm("a"), NewComm("b"), 0, 0, cfg, wake, oncpu, agg)
	assert.NotEmpty(t, events)

	events2 := Switch(1000, 1, 2, NewComm("a"), NewComm("b"), 0, 0, cfg, wake, oncpu, agg)
	assert.Empty(t, events2)
}

func TestExit_NonLeaderThreadProducesNoEvent(t *testing.T) {
	wake, oncpu, agg := newTables()
	ev := Exit(1000, 42, 41, NewComm("thread"), wake, oncpu, agg)
	assert.Nil(t, ev)
}

func TestExit_LeaderClearsStampsButKeepsAggregate(t *testing.T) {
	wake, oncpu, agg := newTables()
	cfg := config.Config{}

	Wake(1000, 10, NewComm("p"), cfg, wake, agg)
	Switch(1200, 0, 10, Comm{}, NewComm("p"), 0, 0, cfg, wake, oncpu, agg)

	ev := Exit(2000, 10, 10, NewComm("p"), wake, oncpu, agg)
	require.NotNil(t, ev)
	assert.Equal(t, KindExit, ev.Kind)

	_, wakeOK := wake.Get(10)
	_, oncpuOK := oncpu.Get(10)
	assert.False(t, wakeOK)
	assert.False(t, oncpuOK)

	_, aggOK := agg.Get(10)
	assert.True(t, aggOK, "aggregate must survive exit for the terminal summary")
}

func TestFork_FiltersOnParentOnly(t *testing.T) {
	cfg := config.Config{FilterPID: 5}
	ev := Fork(1000, 5, 6, NewComm("parent"), NewComm("child"), cfg)
	require.NotNil(t, ev)
	assert.Equal(t, TaskID(6), ev.Fork.ChildPID)

	assert.Nil(t, Fork(1000, 1, 2, NewComm("parent"), NewComm("child"), cfg))
}
