// Package layout places every neuron of a layered network on a 2D canvas.
//
// Layers are spread evenly across the width, input on the left. Neurons are
// spaced by the height divided by the size of the widest layer plus one, and
// every layer is centred on the vertical midpoint, so a narrower layer sits
// centred against the widest one.
package layout

import "go_net_viz/ml"

type Point struct {
	X, Y float64
}

// Positions is the output of Compute. Layers[i][j] is the centre of neuron j
// of layer i.
type Positions struct {
	Width, Height float64
	LayerSpacing  float64
	NeuronSpacing float64
	Layers        [][]Point
}

// Compute is pure and deterministic. A layer with no neurons yields an empty
// slice; an empty network yields no layers.
func Compute(layers []ml.LayerState, width, height float64) Positions {
	p := Positions{
		Width:  width,
		Height: height,
		Layers: make([][]Point, len(layers)),
	}

	p.LayerSpacing = width / float64(len(layers)+1)
	p.NeuronSpacing = height / float64(ml.MaxNeurons(layers)+1)

	for i, l := range layers {
		n := len(l.Neurons)
		x := p.LayerSpacing * float64(i+1)
		// Widest layer: offset 0, centres at spacing*(j+1), symmetric about height/2.
		offset := (height - float64(n+1)*p.NeuronSpacing) / 2

		pts := make([]Point, n)
		for j := range n {
			pts[j] = Point{X: x, Y: p.NeuronSpacing*float64(j+1) + offset}
		}
		p.Layers[i] = pts
	}
	return p
}

// Neuron returns the centre of neuron j of layer i.
func (p Positions) Neuron(i, j int) (Point, bool) {
	if i < 0 || i >= len(p.Layers) || j < 0 || j >= len(p.Layers[i]) {
		return Point{}, false
	}
	return p.Layers[i][j], true
}

// Connection returns the endpoints of the edge from neuron from of layer
// i-1 to neuron to of layer i. Edges are straight lines between centres.
func (p Positions) Connection(i, to, from int) (a, b Point, ok bool) {
	a, ok = p.Neuron(i-1, from)
	if !ok {
		return
	}
	b, ok = p.Neuron(i, to)
	return
}
