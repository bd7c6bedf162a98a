package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStampTable_SetOverwritesUnconsumedWake(t *testing.T) {
	st := NewStampTable(0)
	st.Set(1, 100)
	st.Set(1, 200)
	ts, ok := st.Get(1)
	assert.True(t, ok)
	assert.Equal(t, uint64(200), ts)
}

func TestStampTable_TakeAndDeleteConsumesOnce(t *testing.T) {
	st := NewStampTable(0)
	st.Set(1, 100)

	ts, ok := st.TakeAndDelete(1)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), ts)

	_, ok = st.TakeAndDelete(1)
	assert.False(t, ok)
}

func TestStampTable_CapacityRejectsNewKeysWhenFull(t *testing.T) {
	st := NewStampTable(1)
	st.Set(1, 100)
	st.Set(2, 200) // table full, id 2 is new: dropped silently
	_, ok := st.Get(2)
	assert.False(t, ok)

	// Existing key continues to work.
	st.Set(1, 300)
	ts, ok := st.Get(1)
	assert.True(t, ok)
	assert.Equal(t, uint64(300), ts)
}

func TestStampTable_DeleteIsIdempotent(t *testing.T) {
	st := NewStampTable(0)
	st.Delete(1)
	st.Set(1, 5)
	st.Delete(1)
	st.Delete(1)
	_, ok := st.Get(1)
	assert.False(t, ok)
}
