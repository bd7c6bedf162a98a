package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_LoadReflectsInitial(t *testing.T) {
	s := NewStore(Config{WaitAlertNs: 5_000_000, FilterPID: 42})
	c := s.Load()
	assert.Equal(t, uint64(5_000_000), c.WaitAlertNs)
	assert.Equal(t, uint32(42), c.FilterPID)
}

func TestStore_SetReplacesWholeRecord(t *testing.T) {
	s := NewStore(Config{})
	s.Set(Config{WaitAlertNs: 1, FilterPID: 2})
	c := s.Load()
	assert.Equal(t, uint64(1), c.WaitAlertNs)
	assert.Equal(t, uint32(2), c.FilterPID)
}

func TestConfig_MatchesFilterDisabled(t *testing.T) {
	c := Config{FilterPID: 0}
	assert.True(t, c.Matches(1))
	assert.True(t, c.Matches(999))
}

func TestConfig_MatchesFilterEnabled(t *testing.T) {
	c := Config{FilterPID: 7}
	assert.True(t, c.Matches(7))
	assert.False(t, c.Matches(8))
}

func TestConfig_MatchesEither(t *testing.T) {
	c := Config{FilterPID: 7}
	assert.True(t, c.MatchesEither(7, 1))
	assert.True(t, c.MatchesEither(1, 7))
	assert.False(t, c.MatchesEither(1, 2))
}

func TestConfig_AlertsEnabled(t *testing.T) {
	assert.False(t, Config{WaitAlertNs: 0}.AlertsEnabled())
	assert.True(t, Config{WaitAlertNs: 1}.AlertsEnabled())
}
