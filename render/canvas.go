package render

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"go_net_viz/encode"
	"go_net_viz/layout"
)

// Canvas is a Surface backed by an in-memory RGBA image.
type Canvas struct {
	dc *gg.Context
}

// NewCanvas allocates a width x height raster. A nil face selects the
// built-in 7x13 bitmap font.
func NewCanvas(width, height int, face font.Face) *Canvas {
	dc := gg.NewContext(width, height)
	if face == nil {
		face = basicfont.Face7x13
	}
	dc.SetFontFace(face)
	return &Canvas{dc: dc}
}

// LoadFace reads a TrueType font for labels.
func LoadFace(path string, points float64) (font.Face, error) {
	face, err := gg.LoadFontFace(path, points)
	if err != nil {
		return nil, errors.Wrapf(err, "load font %s", path)
	}
	return face, nil
}

func (c *Canvas) Size() (int, int) {
	return c.dc.Width(), c.dc.Height()
}

func (c *Canvas) Clear(col color.Color) {
	c.dc.SetColor(col)
	c.dc.Clear()
}

func (c *Canvas) Line(from, to layout.Point, s encode.Stroke) {
	c.dc.SetColor(s.Color)
	c.dc.SetLineWidth(s.Width)
	c.dc.DrawLine(from.X, from.Y, to.X, to.Y)
	c.dc.Stroke()
}

func (c *Canvas) Circle(center layout.Point, f encode.Fill) {
	c.dc.DrawCircle(center.X, center.Y, f.Radius)
	c.dc.SetColor(f.Color)
	c.dc.FillPreserve()
	c.dc.SetColor(f.Outline)
	c.dc.SetLineWidth(1)
	c.dc.Stroke()
}

func (c *Canvas) Text(s string, at layout.Point, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawStringAnchored(s, at.X, at.Y, 0.5, 0.5)
}

func (c *Canvas) Caption(s string, at layout.Point, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawStringAnchored(s, at.X, at.Y, 0, 1)
}

func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

func (c *Canvas) EncodePNG(w io.Writer) error {
	return errors.Wrap(c.dc.EncodePNG(w), "encode png")
}
