package monitor

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"go_net_viz/ml"
)

var quiet = log.New(io.Discard, "", 0)

func snapshot(epoch int) ml.NetworkState {
	return ml.NetworkState{
		Layers: []ml.LayerState{{Neurons: []ml.NeuronState{{Value: 1}}}},
		Epoch:  &epoch,
	}
}

// fakeService answers from fields; a non-nil gate blocks Train until closed.
type fakeService struct {
	mu      sync.Mutex
	state   ml.NetworkState
	err     error
	gate    chan struct{}
	entered chan struct{}

	calls map[string]int
}

func newFake() *fakeService {
	return &fakeService{state: snapshot(1), calls: make(map[string]int)}
}

func (f *fakeService) record(op string) (ml.NetworkState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.state, f.err
}

func (f *fakeService) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeService) State(ctx context.Context) (ml.NetworkState, error) {
	return f.record("state")
}

func (f *fakeService) Train(ctx context.Context, patterns []ml.TrainingPattern, epochs int) (ml.NetworkState, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	return f.record("train")
}

func (f *fakeService) Reset(ctx context.Context) (ml.NetworkState, error) {
	return f.record("reset")
}

func TestCellReplace(t *testing.T) {
	c := NewCell()
	if _, v, have := c.Load(); have || v != 0 {
		t.Fatalf("new cell have=%v version=%d", have, v)
	}

	var seen []uint64
	c.Subscribe(func(_ ml.NetworkState, v uint64) { seen = append(seen, v) })

	for i := 1; i <= 3; i++ {
		v, ok := c.Replace(snapshot(i))
		if !ok || v != uint64(i) {
			t.Fatalf("replace %d: version=%d ok=%v", i, v, ok)
		}
	}
	s, v, have := c.Load()
	if !have || v != 3 || s.EpochOrZero() != 3 {
		t.Fatalf("load = epoch %d version %d have %v", s.EpochOrZero(), v, have)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Errorf("hook versions = %v", seen)
	}

	c.Close()
	if _, ok := c.Replace(snapshot(9)); ok {
		t.Error("replace after close accepted")
	}
	if s, _, _ := c.Load(); s.EpochOrZero() != 3 {
		t.Errorf("state changed after close: epoch %d", s.EpochOrZero())
	}
	if len(seen) != 3 {
		t.Errorf("hook ran after close")
	}
}

func TestPollerKeepsStateOnFailure(t *testing.T) {
	svc := newFake()
	cell := NewCell()
	p := NewPoller(svc, cell, time.Second, nil, quiet)

	if err := p.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}

	svc.mu.Lock()
	svc.err = errors.New("connection refused")
	svc.mu.Unlock()

	if err := p.Poll(context.Background()); err == nil {
		t.Fatal("failed poll returned nil")
	}
	s, v, _ := cell.Load()
	if v != 1 || s.EpochOrZero() != 1 {
		t.Errorf("after failure: version %d epoch %d", v, s.EpochOrZero())
	}
	if p.Failures() != 1 || p.Polls() != 2 || p.LastError() == nil {
		t.Errorf("polls=%d failures=%d lastErr=%v", p.Polls(), p.Failures(), p.LastError())
	}

	svc.mu.Lock()
	svc.err = nil
	svc.mu.Unlock()
	if err := p.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.LastError() != nil {
		t.Errorf("last error not cleared: %v", p.LastError())
	}
}

func TestPollerWaitsForReady(t *testing.T) {
	svc := newFake()
	cell := NewCell()
	ready := make(chan struct{})
	p := NewPoller(svc, cell, 10*time.Millisecond, ready, quiet)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if n := svc.count("state"); n != 0 {
		t.Fatalf("%d polls before ready", n)
	}

	close(ready)
	deadline := time.Now().Add(2 * time.Second)
	for svc.count("state") < 2 {
		if time.Now().After(deadline) {
			t.Fatal("poller did not tick")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	n := svc.count("state")
	time.Sleep(50 * time.Millisecond)
	if svc.count("state") != n {
		t.Error("poller kept polling after Run returned")
	}
}

func TestPollerStopsBeforeReady(t *testing.T) {
	p := NewPoller(newFake(), NewCell(), time.Second, make(chan struct{}), quiet)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if p.Polls() != 0 {
		t.Errorf("polls = %d", p.Polls())
	}
}

func TestDispatcherRejectsConcurrentTrain(t *testing.T) {
	svc := newFake()
	svc.gate = make(chan struct{})
	svc.entered = make(chan struct{}, 1)
	cell := NewCell()
	d := NewDispatcher(svc, cell, quiet)

	var phases []Phase
	var mu sync.Mutex
	d.Watch(func(p Phase) {
		mu.Lock()
		phases = append(phases, p)
		mu.Unlock()
	})

	errc := make(chan error, 1)
	go func() {
		_, err := d.Train(context.Background(), ml.XORPatterns(), 10)
		errc <- err
	}()
	<-svc.entered

	if !d.InFlight() {
		t.Fatal("gate not held during train")
	}
	if _, err := d.Train(context.Background(), nil, 10); errors.Cause(err) != ErrBusy {
		t.Fatalf("second train err = %v, want ErrBusy", err)
	}
	if _, err := d.Reset(context.Background()); errors.Cause(err) != ErrBusy {
		t.Fatalf("reset err = %v, want ErrBusy", err)
	}
	if _, err := d.State(context.Background()); err != nil {
		t.Fatalf("state during train: %v", err)
	}

	close(svc.gate)
	if err := <-errc; err != nil {
		t.Fatal(err)
	}

	if svc.count("train") != 1 || svc.count("reset") != 0 {
		t.Errorf("service saw train=%d reset=%d", svc.count("train"), svc.count("reset"))
	}
	if d.InFlight() {
		t.Error("gate still held")
	}
	if v := cell.Version(); v != 2 {
		t.Errorf("cell version = %d, want 2", v)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(phases) != 2 || phases[0] != InFlight || phases[1] != Idle {
		t.Errorf("phases = %v", phases)
	}
}

func TestDispatcherReleasesOnFailure(t *testing.T) {
	svc := newFake()
	svc.err = errors.New("500 Internal Server Error")
	cell := NewCell()
	cell.Replace(snapshot(7))
	d := NewDispatcher(svc, cell, quiet)

	if _, err := d.Train(context.Background(), ml.XORPatterns(), 5); err == nil {
		t.Fatal("train succeeded")
	}
	if d.InFlight() {
		t.Fatal("gate held after failure")
	}
	if d.LastError() == nil {
		t.Error("last error not recorded")
	}
	if s, v, _ := cell.Load(); v != 1 || s.EpochOrZero() != 7 {
		t.Errorf("state replaced on failure: version %d epoch %d", v, s.EpochOrZero())
	}

	svc.mu.Lock()
	svc.err = nil
	svc.mu.Unlock()
	if _, err := d.Reset(context.Background()); err != nil {
		t.Fatalf("reset after failure: %v", err)
	}
	if cell.Version() != 2 {
		t.Errorf("version = %d", cell.Version())
	}
}

func TestDispatcherDropsResponseAfterClose(t *testing.T) {
	cell := NewCell()
	d := NewDispatcher(newFake(), cell, quiet)
	cell.Close()

	if _, err := d.Reset(context.Background()); err != ErrClosed {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	if d.InFlight() {
		t.Error("gate held")
	}
}

func TestPhaseString(t *testing.T) {
	if Idle.String() != "idle" || InFlight.String() != "in-flight" {
		t.Errorf("%s %s", Idle, InFlight)
	}
}
