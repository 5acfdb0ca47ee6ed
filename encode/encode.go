// Package encode maps neuron activations and connection weights to colours,
// opacities, stroke widths and labels.
package encode

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"go_net_viz/ml"
)

// Policy fixes the encoding for a deployment.
type Policy struct {
	Background color.NRGBA
	Activation color.NRGBA // alpha is replaced by the clamped activation
	Outline    color.NRGBA
	Label      color.NRGBA
	Positive   color.NRGBA // stroke hue for weights >= 0
	Negative   color.NRGBA // stroke hue for weights < 0

	// Saturation is the |weight| at which opacity and width stop growing.
	Saturation float64
	MinWidth   float64
	MaxWidth   float64

	Radius    float64
	Precision int
	ShowBias  bool
}

func DefaultPolicy() Policy {
	return Policy{
		Background: color.NRGBA{255, 255, 255, 255},
		Activation: color.NRGBA{0, 123, 255, 255},
		Outline:    color.NRGBA{0, 0, 0, 255},
		Label:      color.NRGBA{0, 0, 0, 255},
		Positive:   color.NRGBA{26, 152, 80, 255},
		Negative:   color.NRGBA{215, 48, 39, 255},
		Saturation: 1,
		MinWidth:   1,
		MaxWidth:   4,
		Radius:     20,
		Precision:  2,
		ShowBias:   true,
	}
}

type Stroke struct {
	Color color.NRGBA
	Width float64
}

// Opacity returns the alpha as a fraction in [0,1].
func (s Stroke) Opacity() float64 { return float64(s.Color.A) / 255 }

type Fill struct {
	Color   color.NRGBA
	Outline color.NRGBA
	Radius  float64
}

// magnitude maps |w| to [0,1], saturating at p.Saturation.
func (p Policy) magnitude(w float64) float64 {
	if math.IsNaN(w) {
		return 0
	}
	sat := p.Saturation
	if sat <= 0 {
		sat = 1
	}
	return ml.Clamp01(math.Abs(w) / sat)
}

// Connection encodes a weight. The hue carries the sign, opacity and width
// grow with |w| and saturate above p.Saturation.
func (p Policy) Connection(w float64) Stroke {
	m := p.magnitude(w)

	c := p.Positive
	if w < 0 {
		c = p.Negative
	}
	c.A = alpha(m)

	return Stroke{
		Color: c,
		Width: p.MinWidth + (p.MaxWidth-p.MinWidth)*m,
	}
}

// Neuron encodes an activation as the fill opacity.
func (p Policy) Neuron(n ml.NeuronState) Fill {
	c := p.Activation
	c.A = alpha(ml.Clamp01(n.Value))
	return Fill{Color: c, Outline: p.Outline, Radius: p.Radius}
}

func (p Policy) ValueLabel(v float64) string {
	return strconv.FormatFloat(v, 'f', p.Precision, 64)
}

func (p Policy) BiasLabel(b float64) string {
	return "b=" + strconv.FormatFloat(b, 'f', p.Precision, 64)
}

// BiasOffset is the distance below a neuron centre at which the bias label sits.
func (p Policy) BiasOffset() float64 {
	return p.Radius + 10
}

// Header is the top-left caption. Absent epoch and error read as 0.
func (p Policy) Header(s ml.NetworkState) string {
	return fmt.Sprintf("Epoch: %d  Error: %.4f", s.EpochOrZero(), s.ErrorOrZero())
}

func alpha(f float64) uint8 {
	return uint8(math.Round(f * 255))
}
