// Package render draws a network snapshot onto a raster surface.
package render

import (
	"image/color"

	"go_net_viz/encode"
	"go_net_viz/layout"
	"go_net_viz/ml"
)

// Surface is the sink for draw operations.
type Surface interface {
	Size() (width, height int)
	Clear(c color.Color)
	Line(from, to layout.Point, s encode.Stroke)
	Circle(center layout.Point, f encode.Fill)
	// Text draws s centred on at.
	Text(s string, at layout.Point, c color.Color)
	// Caption draws s with its top-left corner at at.
	Caption(s string, at layout.Point, c color.Color)
}

// Stats reports what a pass drew.
type Stats struct {
	Connections int
	Neurons     int
	Skipped     int
}

// Render clears the surface, then draws every connection layer by layer,
// then every neuron with its labels, then the header. Connections go first
// so neuron glyphs cover their endpoints. A neuron whose weight vector does
// not match its preceding layer loses only the connections that cannot be
// resolved.
func Render(s Surface, state ml.NetworkState, pos layout.Positions, p encode.Policy) Stats {
	var st Stats

	s.Clear(p.Background)

	for i := 1; i < len(state.Layers); i++ {
		prev := len(state.Layers[i-1].Neurons)
		for j, n := range state.Layers[i].Neurons {
			for k := range prev {
				if k >= len(n.Weights) {
					st.Skipped++
					continue
				}
				a, b, ok := pos.Connection(i, j, k)
				if !ok {
					st.Skipped++
					continue
				}
				s.Line(a, b, p.Connection(n.Weights[k]))
				st.Connections++
			}
			if extra := len(n.Weights) - prev; extra > 0 {
				st.Skipped += extra
			}
		}
	}

	for i, l := range state.Layers {
		for j, n := range l.Neurons {
			c, ok := pos.Neuron(i, j)
			if !ok {
				st.Skipped++
				continue
			}
			s.Circle(c, p.Neuron(n))
			s.Text(p.ValueLabel(n.Value), c, p.Label)
			if p.ShowBias && i > 0 {
				s.Text(p.BiasLabel(n.Bias), layout.Point{X: c.X, Y: c.Y + p.BiasOffset()}, p.Label)
			}
			st.Neurons++
		}
	}

	s.Caption(p.Header(state), layout.Point{X: 10, Y: 10}, p.Label)
	return st
}

// Frame lays out state for the surface size and renders it.
func Frame(s Surface, state ml.NetworkState, p encode.Policy) Stats {
	w, h := s.Size()
	return Render(s, state, layout.Compute(state.Layers, float64(w), float64(h)), p)
}
