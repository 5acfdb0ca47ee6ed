package layout

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"go_net_viz/ml"
)

func network(shape ...int) []ml.LayerState {
	layers := make([]ml.LayerState, len(shape))
	for i, n := range shape {
		layers[i].Neurons = make([]ml.NeuronState, n)
		for j := range n {
			if i > 0 {
				layers[i].Neurons[j].Weights = make([]float64, shape[i-1])
			}
		}
	}
	return layers
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		shape := make([]int, 1+rng.Intn(6))
		for i := range shape {
			shape[i] = rng.Intn(12)
		}
		w := float64(100 + rng.Intn(1500))
		h := float64(100 + rng.Intn(1500))

		a := Compute(network(shape...), w, h)
		b := Compute(network(shape...), w, h)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("shape %v: layouts differ", shape)
		}
		for i, n := range shape {
			if len(a.Layers[i]) != n {
				t.Fatalf("shape %v: layer %d has %d positions, want %d", shape, i, len(a.Layers[i]), n)
			}
		}
	}
}

func TestComputeHorizontalPlacement(t *testing.T) {
	p := Compute(network(2, 3, 1), 800, 600)
	for i, want := range []float64{200, 400, 600} {
		for _, pt := range p.Layers[i] {
			if !near(pt.X, want) {
				t.Errorf("layer %d x = %v, want %v", i, pt.X, want)
			}
		}
	}
}

func TestWidestLayerSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 100; iter++ {
		shape := make([]int, 1+rng.Intn(5))
		for i := range shape {
			shape[i] = 1 + rng.Intn(10)
		}
		h := float64(200 + rng.Intn(800))
		p := Compute(network(shape...), 800, h)

		max := ml.MaxNeurons(network(shape...))
		for i, n := range shape {
			if n != max {
				continue
			}
			pts := p.Layers[i]
			for j := range pts {
				mirror := pts[n-1-j]
				if !near(pts[j].Y+mirror.Y, h) {
					t.Fatalf("shape %v layer %d: y[%d]+y[%d] = %v, want %v", shape, i, j, n-1-j, pts[j].Y+mirror.Y, h)
				}
			}
		}
	}
}

func TestNarrowLayerCentred(t *testing.T) {
	p := Compute(network(4, 1, 2), 800, 500)
	if got := p.Layers[1][0].Y; !near(got, 250) {
		t.Errorf("single neuron y = %v, want 250", got)
	}
	spacing := 500.0 / 5
	if !near(p.NeuronSpacing, spacing) {
		t.Errorf("spacing = %v, want %v", p.NeuronSpacing, spacing)
	}
	if a, b := p.Layers[2][0].Y, p.Layers[2][1].Y; !near(b-a, spacing) || !near(a+b, 500) {
		t.Errorf("pair at %v,%v not centred with spacing %v", a, b, spacing)
	}
}

func TestDegenerateInputs(t *testing.T) {
	p := Compute(nil, 800, 600)
	if len(p.Layers) != 0 {
		t.Errorf("empty network produced %d layers", len(p.Layers))
	}

	p = Compute(network(0, 0), 800, 600)
	for i, l := range p.Layers {
		if len(l) != 0 {
			t.Errorf("layer %d: %d positions for zero neurons", i, len(l))
		}
	}
	if math.IsInf(p.NeuronSpacing, 0) || math.IsNaN(p.NeuronSpacing) {
		t.Errorf("spacing = %v", p.NeuronSpacing)
	}

	p = Compute(network(3), 800, 600)
	if len(p.Layers) != 1 || len(p.Layers[0]) != 3 {
		t.Fatalf("single layer layout = %+v", p.Layers)
	}
	if _, _, ok := p.Connection(0, 0, 0); ok {
		t.Error("single layer reports a connection")
	}
}

func TestConnectionEndpoints(t *testing.T) {
	p := Compute(network(2, 3), 800, 600)
	a, b, ok := p.Connection(1, 2, 1)
	if !ok {
		t.Fatal("connection not found")
	}
	if a != p.Layers[0][1] || b != p.Layers[1][2] {
		t.Errorf("endpoints %v -> %v", a, b)
	}
	if _, _, ok := p.Connection(1, 0, 2); ok {
		t.Error("connection from missing neuron reported ok")
	}
}
