package monitor

import (
	"context"
	"log"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go_net_viz/ml"
)

var (
	// ErrBusy is returned when train or reset is issued while another
	// exclusive command is still in flight.
	ErrBusy = errors.New("command already in flight")
	// ErrClosed is returned when a response arrives after teardown.
	ErrClosed = errors.New("monitor closed")
)

// Service is the network service as seen by the dispatcher.
type Service interface {
	Fetcher
	Train(ctx context.Context, patterns []ml.TrainingPattern, epochs int) (ml.NetworkState, error)
	Reset(ctx context.Context) (ml.NetworkState, error)
}

// Phase is the state of the exclusive-command gate.
type Phase int32

const (
	Idle Phase = iota
	InFlight
)

func (p Phase) String() string {
	if p == InFlight {
		return "in-flight"
	}
	return "idle"
}

// Dispatcher issues commands and replaces the cell with each response.
// Train and reset share one Idle/InFlight gate; a second call while the
// gate is held fails with ErrBusy and never reaches the service.
type Dispatcher struct {
	svc  Service
	cell *Cell
	log  *log.Logger

	phase   atomic.Int32
	lastErr atomic.Error

	mu       sync.Mutex
	watchers []func(Phase)
}

func NewDispatcher(svc Service, cell *Cell, logger *log.Logger) *Dispatcher {
	return &Dispatcher{svc: svc, cell: cell, log: logger}
}

// Watch registers f to be told about every gate transition.
func (d *Dispatcher) Watch(f func(Phase)) {
	d.mu.Lock()
	d.watchers = append(d.watchers, f)
	d.mu.Unlock()
}

func (d *Dispatcher) Phase() Phase {
	return Phase(d.phase.Load())
}

func (d *Dispatcher) InFlight() bool {
	return d.Phase() == InFlight
}

// LastError is the error of the most recent command, nil if it succeeded.
func (d *Dispatcher) LastError() error {
	return d.lastErr.Load()
}

// acquire moves the gate from Idle to InFlight. The returned release moves
// it back and must be deferred, so the gate reopens on every exit path.
func (d *Dispatcher) acquire() (release func(), err error) {
	if !d.phase.CompareAndSwap(int32(Idle), int32(InFlight)) {
		return nil, ErrBusy
	}
	d.notify(InFlight)
	return func() {
		d.phase.Store(int32(Idle))
		d.notify(Idle)
	}, nil
}

func (d *Dispatcher) notify(p Phase) {
	d.mu.Lock()
	ws := append([]func(Phase){}, d.watchers...)
	d.mu.Unlock()
	for _, w := range ws {
		w(p)
	}
}

// Train sends the patterns and epoch count and adopts the returned snapshot.
func (d *Dispatcher) Train(ctx context.Context, patterns []ml.TrainingPattern, epochs int) (ml.NetworkState, error) {
	release, err := d.acquire()
	if err != nil {
		return ml.NetworkState{}, err
	}
	defer release()

	d.log.Printf("train: %d patterns, %d epochs", len(patterns), epochs)
	s, err := d.svc.Train(ctx, patterns, epochs)
	return d.adopt("train", s, err)
}

// Reset reinitialises the remote network and adopts the fresh snapshot.
func (d *Dispatcher) Reset(ctx context.Context) (ml.NetworkState, error) {
	release, err := d.acquire()
	if err != nil {
		return ml.NetworkState{}, err
	}
	defer release()

	s, err := d.svc.Reset(ctx)
	return d.adopt("reset", s, err)
}

// State is an idempotent read; it does not take the gate.
func (d *Dispatcher) State(ctx context.Context) (ml.NetworkState, error) {
	s, err := d.svc.State(ctx)
	return d.adopt("state", s, err)
}

func (d *Dispatcher) adopt(op string, s ml.NetworkState, err error) (ml.NetworkState, error) {
	if err != nil {
		d.lastErr.Store(err)
		d.log.Printf("%s failed, keeping previous state: %v", op, err)
		return ml.NetworkState{}, errors.Wrap(err, op)
	}
	d.lastErr.Store(nil)
	if _, ok := d.cell.Replace(s); !ok {
		return s, ErrClosed
	}
	return s, nil
}
