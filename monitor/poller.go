package monitor

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go_net_viz/ml"
)

// Fetcher reads the current network snapshot.
type Fetcher interface {
	State(ctx context.Context) (ml.NetworkState, error)
}

// Poller refreshes the cell from the network service on a fixed period.
// A failed poll is logged and leaves the previous snapshot in place; the
// next tick is the only retry.
type Poller struct {
	svc      Fetcher
	cell     *Cell
	interval time.Duration
	ready    <-chan struct{}
	log      *log.Logger

	polls    atomic.Int64
	failures atomic.Int64
	lastErr  atomic.Error
}

// NewPoller returns a poller that starts once ready is closed. A nil ready
// channel means the target is ready immediately.
func NewPoller(svc Fetcher, cell *Cell, interval time.Duration, ready <-chan struct{}, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	if ready == nil {
		ch := make(chan struct{})
		close(ch)
		ready = ch
	}
	return &Poller{
		svc:      svc,
		cell:     cell,
		interval: interval,
		ready:    ready,
		log:      logger,
	}
}

// Run waits for the render target, polls once, then polls every interval
// until ctx is cancelled. The ticker is stopped before Run returns.
func (p *Poller) Run(ctx context.Context) error {
	select {
	case <-p.ready:
	case <-ctx.Done():
		return nil
	}

	p.Poll(ctx)

	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			p.Poll(ctx)
		}
	}
}

// Poll performs one fetch and replaces the cell on success.
func (p *Poller) Poll(ctx context.Context) error {
	p.polls.Inc()

	s, err := p.svc.State(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.failures.Inc()
		p.lastErr.Store(err)
		p.log.Printf("poll failed, keeping previous state: %v", err)
		return errors.Wrap(err, "poll")
	}

	p.lastErr.Store(nil)
	if _, ok := p.cell.Replace(s); !ok {
		return ErrClosed
	}
	return nil
}

func (p *Poller) Polls() int64    { return p.polls.Load() }
func (p *Poller) Failures() int64 { return p.failures.Load() }

// LastError is the error of the most recent poll, nil if it succeeded.
func (p *Poller) LastError() error { return p.lastErr.Load() }
