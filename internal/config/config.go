// Package config implements the single-slot runtime configuration record
// that the consumer writes once at startup and every probe firing reads.
package config

import "sync/atomic"

// Config is the runtime state boundary: a wait-latency alert threshold and
// an optional filter task id, both mutable only by a full replacement of
// the record (never a partial field update, so a reader never observes a
// half-written value).
type Config struct {
	// WaitAlertNs is the wake-to-run latency threshold in nanoseconds; 0
	// disables WAITLONG alerts entirely.
	WaitAlertNs uint64
	// FilterPID restricts probe output to events touching this task id; 0
	// disables filtering.
	FilterPID uint32
}

// Matches reports whether pid passes the configured filter. With filtering
// disabled every pid matches.
func (c Config) Matches(pid uint32) bool {
	return c.FilterPID == 0 || c.FilterPID == pid
}

// MatchesEither reports whether either side of a two-task event (switch,
// fork) passes the configured filter.
func (c Config) MatchesEither(a, b uint32) bool {
	return c.FilterPID == 0 || c.FilterPID == a || c.FilterPID == b
}

// AlertsEnabled reports whether the wait-alert threshold is active.
func (c Config) AlertsEnabled() bool {
	return c.WaitAlertNs != 0
}

// Store is the single-slot, lock-free configuration record: written once
// by user space at startup (invariant: fully written before any probe
// reads it) and read on every probe firing thereafter. atomic.Pointer
// gives readers a consistent whole-record snapshot with no locking.
type Store struct {
	slot atomic.Pointer[Config]
}

// NewStore creates a store with the given initial configuration already
// published, so there is no window where a probe could observe a zero
// value before Set is called.
func NewStore(initial Config) *Store {
	s := &Store{}
	s.slot.Store(&initial)
	return s
}

// Set atomically replaces the configuration record.
func (s *Store) Set(c Config) {
	cp := c
	s.slot.Store(&cp)
}

// Load returns the current configuration snapshot. Safe to call from any
// number of concurrent probe firings.
func (s *Store) Load() Config {
	p := s.slot.Load()
	if p == nil {
		return Config{}
	}
	return *p
}
