package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"go_net_viz/ml"
	"go_net_viz/monitor"
)

// Bridge forwards cell replacements and gate transitions to a running
// program. Publishing never blocks the caller; only the latest snapshot
// and phase are kept.
type Bridge struct {
	mu    sync.Mutex
	state *StateMsg
	phase *PhaseMsg
	wake  chan struct{}
}

func NewBridge() *Bridge {
	return &Bridge{wake: make(chan struct{}, 1)}
}

// Attach subscribes the bridge to the cell and the dispatcher.
func (b *Bridge) Attach(cell *monitor.Cell, disp *monitor.Dispatcher) {
	cell.Subscribe(func(state ml.NetworkState, version uint64) {
		b.mu.Lock()
		b.state = &StateMsg{State: state, Version: version}
		b.mu.Unlock()
		b.signal()
	})
	disp.Watch(func(p monitor.Phase) {
		b.mu.Lock()
		b.phase = &PhaseMsg{Phase: p}
		b.mu.Unlock()
		b.signal()
	})
}

func (b *Bridge) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Run feeds p until ctx is done.
func (b *Bridge) Run(ctx context.Context, p *tea.Program) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.wake:
		}

		b.mu.Lock()
		state, phase := b.state, b.phase
		b.state, b.phase = nil, nil
		b.mu.Unlock()

		if state != nil {
			p.Send(*state)
		}
		if phase != nil {
			p.Send(*phase)
		}
	}
}
