// Package cache holds the in-memory projection of the ledgers shown in the
// current calendar view.
package cache

import (
	"sync"

	"nutrilog/internal/core"
)

// LedgerCache maps date keys to the ledgers of the active grid.
//
// Population: Begin starts a new grid version, Commit replaces the contents
// wholesale with a fetch result for that version. Results for superseded
// versions are rejected. Patch overwrites a single key after a mutation,
// and patches made while a fetch is in flight survive its Commit.
type LedgerCache struct {
	mu      sync.RWMutex
	version uint64
	grid    core.Grid
	entries map[core.DateKey]core.DayLedger
	pending map[core.DateKey]core.DayLedger
}

func NewLedgerCache() *LedgerCache {
	return &LedgerCache{entries: make(map[core.DateKey]core.DayLedger)}
}

// Begin records grid as the active grid and returns its version token.
// Entries for keys outside grid are dropped right away, so a fetch that
// never commits cannot leave the previous month visible.
func (c *LedgerCache) Begin(grid core.Grid) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	c.grid = grid
	for k := range c.entries {
		if !grid.Contains(k) {
			delete(c.entries, k)
		}
	}
	c.pending = make(map[core.DateKey]core.DayLedger)
	return c.version
}

// Commit installs entries if version is still current. It reports whether
// the entries were applied.
func (c *LedgerCache) Commit(version uint64, entries map[core.DateKey]core.DayLedger) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version != c.version {
		return false
	}
	next := make(map[core.DateKey]core.DayLedger, len(entries))
	for k, l := range entries {
		next[k] = l.Clone()
	}
	for k, l := range c.pending {
		next[k] = l
	}
	c.entries = next
	c.pending = nil
	return true
}

// Patch replaces the cached ledger for key when key is in the active grid.
// It reports whether the patch was applied.
func (c *LedgerCache) Patch(key core.DateKey, l core.DayLedger) bool {
	l = l.Clone()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.grid.Contains(key) {
		return false
	}
	c.entries[key] = l
	if c.pending != nil {
		c.pending[key] = l
	}
	return true
}

// Lookup returns the cached ledger for key, or an empty ledger if the key
// was never fetched.
func (c *LedgerCache) Lookup(key core.DateKey) core.DayLedger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[key].Clone()
}

// Has reports whether key holds a fetched or patched ledger.
func (c *LedgerCache) Has(key core.DateKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}

// Grid returns the active grid and its version.
func (c *LedgerCache) Grid() (core.Grid, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.grid, c.version
}

// Len returns the number of cached keys.
func (c *LedgerCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
