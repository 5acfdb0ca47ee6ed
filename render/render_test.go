package render

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"go_net_viz/encode"
	"go_net_viz/layout"
	"go_net_viz/ml"
)

type op struct {
	kind string
	text string
	at   layout.Point
}

// recorder is a Surface that keeps every call in order.
type recorder struct {
	w, h int
	ops  []op
}

func (r *recorder) Size() (int, int) { return r.w, r.h }
func (r *recorder) Clear(c color.Color) { r.ops = append(r.ops, op{kind: "clear"}) }

func (r *recorder) Line(from, to layout.Point, s encode.Stroke) {
	r.ops = append(r.ops, op{kind: "line", at: from})
}

func (r *recorder) Circle(center layout.Point, f encode.Fill) {
	r.ops = append(r.ops, op{kind: "circle", at: center})
}

func (r *recorder) Text(s string, at layout.Point, c color.Color) {
	r.ops = append(r.ops, op{kind: "text", text: s, at: at})
}

func (r *recorder) Caption(s string, at layout.Point, c color.Color) {
	r.ops = append(r.ops, op{kind: "caption", text: s, at: at})
}

func (r *recorder) count(kind string) int {
	n := 0
	for _, o := range r.ops {
		if o.kind == kind {
			n++
		}
	}
	return n
}

func net(shape ...int) ml.NetworkState {
	var s ml.NetworkState
	for i, n := range shape {
		var l ml.LayerState
		for range n {
			var nr ml.NeuronState
			if i > 0 {
				nr.Weights = make([]float64, shape[i-1])
				for k := range nr.Weights {
					nr.Weights[k] = float64(k) - 1
				}
			}
			nr.Value = 0.5
			l.Neurons = append(l.Neurons, nr)
		}
		s.Layers = append(s.Layers, l)
	}
	return s
}

func TestRenderDrawOrder(t *testing.T) {
	r := &recorder{w: 800, h: 600}
	st := Frame(r, net(2, 3, 1), encode.DefaultPolicy())

	if st.Connections != 9 || st.Neurons != 6 || st.Skipped != 0 {
		t.Fatalf("stats = %+v", st)
	}
	if r.count("line") != 9 || r.count("circle") != 6 {
		t.Fatalf("lines=%d circles=%d", r.count("line"), r.count("circle"))
	}

	if r.ops[0].kind != "clear" {
		t.Errorf("first op = %s, want clear", r.ops[0].kind)
	}
	lastLine, firstCircle := -1, -1
	for i, o := range r.ops {
		switch o.kind {
		case "line":
			lastLine = i
		case "circle":
			if firstCircle < 0 {
				firstCircle = i
			}
		}
	}
	if lastLine > firstCircle {
		t.Errorf("line at op %d drawn after first circle at op %d", lastLine, firstCircle)
	}
	if last := r.ops[len(r.ops)-1]; last.kind != "caption" || last.at != (layout.Point{X: 10, Y: 10}) {
		t.Errorf("last op = %+v, want header caption at (10,10)", last)
	}
}

func TestRenderLabels(t *testing.T) {
	r := &recorder{w: 800, h: 600}
	p := encode.DefaultPolicy()
	Frame(r, net(2, 1), p)

	// 3 value labels plus 1 bias label; the input layer has none.
	if got := r.count("text"); got != 4 {
		t.Fatalf("text ops = %d, want 4", got)
	}
	var bias []op
	for _, o := range r.ops {
		if o.kind == "text" && strings.HasPrefix(o.text, "b=") {
			bias = append(bias, o)
		}
	}
	if len(bias) != 1 || bias[0].text != "b=0.00" {
		t.Fatalf("bias labels = %+v", bias)
	}
	pos := layout.Compute(net(2, 1).Layers, 800, 600)
	if want := pos.Layers[1][0].Y + p.BiasOffset(); bias[0].at.Y != want {
		t.Errorf("bias label y = %v, want %v", bias[0].at.Y, want)
	}

	p.ShowBias = false
	r = &recorder{w: 800, h: 600}
	Frame(r, net(2, 1), p)
	if got := r.count("text"); got != 3 {
		t.Errorf("text ops without bias = %d, want 3", got)
	}
}

func TestRenderShortWeightVector(t *testing.T) {
	s := net(3, 1)
	s.Layers[1].Neurons[0].Weights = []float64{0.2, -0.4}

	r := &recorder{w: 800, h: 600}
	st := Frame(r, s, encode.DefaultPolicy())

	if r.count("line") != 2 {
		t.Errorf("lines = %d, want 2", r.count("line"))
	}
	if st.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", st.Skipped)
	}
	if r.count("circle") != 4 {
		t.Errorf("circles = %d, want 4", r.count("circle"))
	}
}

func TestRenderSurplusWeights(t *testing.T) {
	s := net(2, 1)
	s.Layers[1].Neurons[0].Weights = []float64{1, 2, 3, 4}

	r := &recorder{w: 800, h: 600}
	st := Frame(r, s, encode.DefaultPolicy())

	if r.count("line") != 2 || st.Skipped != 2 {
		t.Errorf("lines = %d skipped = %d, want 2 and 2", r.count("line"), st.Skipped)
	}
}

func TestRenderEmptyState(t *testing.T) {
	r := &recorder{w: 800, h: 600}
	st := Frame(r, ml.NetworkState{}, encode.DefaultPolicy())

	if st != (Stats{}) {
		t.Errorf("stats = %+v", st)
	}
	if len(r.ops) != 2 || r.ops[0].kind != "clear" || r.ops[1].kind != "caption" {
		t.Fatalf("ops = %+v", r.ops)
	}
	if r.ops[1].text != "Epoch: 0  Error: 0.0000" {
		t.Errorf("header = %q", r.ops[1].text)
	}
}

func TestRenderSingleLayer(t *testing.T) {
	r := &recorder{w: 800, h: 600}
	st := Frame(r, net(4), encode.DefaultPolicy())
	if st.Connections != 0 || st.Neurons != 4 {
		t.Errorf("stats = %+v", st)
	}
}

func TestCanvasPNG(t *testing.T) {
	c := NewCanvas(320, 200, nil)
	Frame(c, net(2, 2, 1), encode.DefaultPolicy())

	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 200 {
		t.Errorf("bounds = %v", b)
	}
	// bottom-right corner is background
	if r, g, b, _ := img.At(319, 199).RGBA(); r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("corner = %d,%d,%d, want white", r>>8, g>>8, b>>8)
	}
}
