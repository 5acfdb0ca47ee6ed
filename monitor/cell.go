// Package monitor keeps the local copy of the remote network in step with
// the network service: a last-writer-wins snapshot cell, a fixed-interval
// poller and a dispatcher for train/reset commands.
package monitor

import (
	"sync"

	"go.uber.org/atomic"

	"go_net_viz/ml"
)

// Hook observes every accepted replacement. Hooks run inside the cell's
// critical section in replace order; they must treat state as read-only
// and must not call back into the cell.
type Hook func(state ml.NetworkState, version uint64)

// Cell holds the single authoritative snapshot. Writers replace it whole;
// whichever Replace call runs last wins.
type Cell struct {
	mu      sync.Mutex
	state   ml.NetworkState
	have    bool
	version uint64
	hooks   []Hook
	closed  atomic.Bool
}

func NewCell() *Cell {
	return &Cell{}
}

// Subscribe registers h for all later replacements.
func (c *Cell) Subscribe(h Hook) {
	c.mu.Lock()
	c.hooks = append(c.hooks, h)
	c.mu.Unlock()
}

// Replace stores state, bumps the version and runs the hooks. It reports
// false, and does nothing, once the cell is closed.
func (c *Cell) Replace(state ml.NetworkState) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return c.version, false
	}

	c.state = state
	c.have = true
	c.version++
	for _, h := range c.hooks {
		h(state, c.version)
	}
	return c.version, true
}

// Load returns the current snapshot, its version and whether any snapshot
// has been stored yet.
func (c *Cell) Load() (ml.NetworkState, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.version, c.have
}

func (c *Cell) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Close drops every later Replace, so responses still in flight at
// teardown are ignored.
func (c *Cell) Close() {
	c.closed.Store(true)
}

func (c *Cell) Closed() bool {
	return c.closed.Load()
}
