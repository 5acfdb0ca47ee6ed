package render

import (
	"bytes"
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/font"

	"go_net_viz/encode"
	"go_net_viz/ml"
)

// Display is the render target: it keeps the last drawn snapshot and its
// encoded PNG frame. Draw is expected to run inside the snapshot owner's
// critical section, so frames are produced in replace order.
type Display struct {
	mu      sync.RWMutex
	width   int
	height  int
	policy  encode.Policy
	face    font.Face
	state   ml.NetworkState
	frame   []byte
	version uint64
	stats   Stats
	closed  bool

	ready     chan struct{}
	readyOnce sync.Once
}

func NewDisplay(width, height int, p encode.Policy, face font.Face) *Display {
	return &Display{
		width:  width,
		height: height,
		policy: p,
		face:   face,
		ready:  make(chan struct{}),
	}
}

// Init draws the empty frame and marks the display ready. Calling it again
// is a no-op.
func (d *Display) Init() error {
	var err error
	d.readyOnce.Do(func() {
		d.mu.Lock()
		err = d.draw(ml.NetworkState{}, 0)
		d.mu.Unlock()
		close(d.ready)
	})
	return err
}

// Ready is closed once the display can accept frames.
func (d *Display) Ready() <-chan struct{} {
	return d.ready
}

// Draw renders state as frame version. It is ignored after Close.
func (d *Display) Draw(state ml.NetworkState, version uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	return d.draw(state, version)
}

// Resize changes the canvas and redraws the current snapshot.
func (d *Display) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Errorf("invalid canvas size %dx%d", width, height)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.width, d.height = width, height
	return d.draw(d.state, d.version)
}

func (d *Display) draw(state ml.NetworkState, version uint64) error {
	c := NewCanvas(d.width, d.height, d.face)
	stats := Frame(c, state, d.policy)

	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); err != nil {
		return err
	}

	d.state = state
	d.frame = buf.Bytes()
	d.version = version
	d.stats = stats
	return nil
}

// Frame returns the latest PNG and its version.
func (d *Display) Frame() ([]byte, uint64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frame, d.version
}

func (d *Display) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

func (d *Display) Size() (int, int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.width, d.height
}

// WriteFile mirrors the latest frame to path.
func (d *Display) WriteFile(path string) error {
	frame, _ := d.Frame()
	if len(frame) == 0 {
		return nil
	}
	return errors.Wrapf(os.WriteFile(path, frame, 0644), "write %s", path)
}

// Close tears the display down; later draws are dropped.
func (d *Display) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}
