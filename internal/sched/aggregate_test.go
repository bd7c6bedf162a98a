package sched

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateTable_CreatesLazily(t *testing.T) {
	a := NewAggregateTable(0)
	_, ok := a.Get(1)
	assert.False(t, ok)

	a.AddWake(1)
	snap, ok := a.Get(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), snap.Wakes)
}

func TestAggregateTable_MarkExecOnlySetsFirstOccurrence(t *testing.T) {
	a := NewAggregateTable(0)
	a.MarkExec(1, 100)
	a.MarkExec(1, 200)
	snap, _ := a.Get(1)
	assert.Equal(t, uint64(100), snap.FirstExecNs)
}

func TestAggregateTable_TouchTracksMaxTimestamp(t *testing.T) {
	a := NewAggregateTable(0)
	a.Touch(1, 500)
	a.Touch(1, 200)
	a.Touch(1, 900)
	snap, _ := a.Get(1)
	assert.Equal(t, uint64(900), snap.LastSeenNs)
}

func TestAggregateTable_CapacityBlocksNewEntries(t *testing.T) {
	a := NewAggregateTable(1)
	a.AddWake(1)
	a.AddWake(2) // full, id 2 is new
	_, ok := a.Get(2)
	assert.False(t, ok)

	a.AddWake(1)
	snap, ok := a.Get(1)
	require.True(t, ok)
	assert.Equal(t, uint64(2), snap.Wakes)
}

func TestAggregateTable_ConcurrentUpdatesDoNotRace(t *testing.T) {
	a := NewAggregateTable(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.AddRun(1, 10)
			a.AddWait(1, 5)
			a.AddWake(1)
		}()
	}
	wg.Wait()

	snap, ok := a.Get(1)
	require.True(t, ok)
	assert.Equal(t, uint64(50), snap.Wakes)
	assert.Equal(t, uint64(500), snap.TotalRunNs)
	assert.Equal(t, uint64(250), snap.TotalWaitNs)
}
