package world

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"github.com/samuelfneumann/godriving/agents"
	"github.com/samuelfneumann/godriving/geometry"
	"gorgonia.org/tensor"
)

// Channels is the number of colour channels in an RGB frame
const Channels int = 3

var (
	roadShade    color.Color = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	outlineShade color.Color = color.RGBA{R: 10, G: 10, B: 10, A: 255}
)

// canvas is the render surface of a World. The drawing context is
// acquired lazily on first use and dropped on release; one canvas
// belongs to exactly one World.
type canvas struct {
	width  float64
	height float64
	ppm    float64
	dc     *gg.Context
}

func newCanvas(width, height, ppm float64) *canvas {
	return &canvas{width: width, height: height, ppm: ppm}
}

// pixels returns the size of the surface in pixels
func (c *canvas) pixels() (int, int) {
	return int(math.Ceil(c.width * c.ppm)), int(math.Ceil(c.height * c.ppm))
}

func (c *canvas) acquire() *gg.Context {
	if c.dc == nil {
		w, h := c.pixels()
		c.dc = gg.NewContext(w, h)
		c.clear()
	}
	return c.dc
}

func (c *canvas) acquired() bool {
	return c.dc != nil
}

func (c *canvas) clear() {
	if c.dc == nil {
		return
	}
	c.dc.SetColor(roadShade)
	c.dc.Clear()
}

func (c *canvas) release() {
	c.dc = nil
}

// toPixel converts world coordinates, with the origin at the bottom
// left, to pixel coordinates with the origin at the top left
func (c *canvas) toPixel(p geometry.Point) (float64, float64) {
	_, h := c.pixels()
	return p.X * c.ppm, float64(h) - p.Y*c.ppm
}

func (c *canvas) drawRectangle(r geometry.Rectangle, fill color.Color) {
	corners := r.Corners()
	c.dc.ClearPath()
	for _, corner := range corners {
		x, y := c.toPixel(corner)
		c.dc.LineTo(x, y)
	}
	c.dc.ClosePath()
	c.dc.SetColor(fill)
	c.dc.FillPreserve()
	c.dc.SetColor(outlineShade)
	c.dc.SetLineWidth(1)
	c.dc.Stroke()
}

func (c *canvas) drawCircle(circle geometry.Circle, fill color.Color) {
	x, y := c.toPixel(circle.Center)
	c.dc.ClearPath()
	c.dc.DrawCircle(x, y, circle.Radius*c.ppm)
	c.dc.SetColor(fill)
	c.dc.Fill()
}

// drawHeading marks the front of a dynamic agent
func (c *canvas) drawHeading(d agents.Dynamic, length float64) {
	front := d.Position().Add(geometry.FromPolar(length, d.Heading()))
	x1, y1 := c.toPixel(d.Position())
	x2, y2 := c.toPixel(front)
	c.dc.SetColor(outlineShade)
	c.dc.SetLineWidth(2)
	c.dc.DrawLine(x1, y1, x2, y2)
	c.dc.Stroke()
}

// Render draws every agent onto the world's render surface, acquiring
// the surface on first use. The surface is cleared and redrawn on each
// call; simulation state is never modified.
func (w *World) Render() error {
	dc := w.canvas.acquire()
	w.canvas.clear()

	for _, a := range w.agents {
		switch s := a.Shape().(type) {
		case geometry.Rectangle:
			w.canvas.drawRectangle(s, a.Color())
		case geometry.Circle:
			w.canvas.drawCircle(s, a.Color())
		default:
			return errors.Errorf("render: cannot draw shape %T", s)
		}

		if d, ok := a.(agents.Dynamic); ok {
			w.canvas.drawHeading(d, agents.CarLength/2)
		}
	}

	// Keep the drawn frame independent of any dangling path
	dc.ClearPath()
	return nil
}

// Frame returns the image currently held by the render surface. If no
// surface has been acquired yet, a blank surface is acquired.
func (w *World) Frame() image.Image {
	return w.canvas.acquire().Image()
}

// Pixels returns the current render surface as a height x width x
// Channels tensor of 8-bit RGB values
func (w *World) Pixels() tensor.Tensor {
	img := w.Frame()
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	data := make([]uint8, 0, width*height*Channels)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			data = append(data, c.R, c.G, c.B)
		}
	}

	return tensor.New(
		tensor.WithShape(height, width, Channels),
		tensor.WithBacking(data),
	)
}

// SaveFrame writes the current render surface to a PNG file
func (w *World) SaveFrame(path string) error {
	if !w.canvas.acquired() {
		return errors.New("saveFrame: nothing has been rendered")
	}
	if err := w.canvas.dc.SavePNG(path); err != nil {
		return errors.Wrapf(err, "saveFrame: could not save %v", path)
	}
	return nil
}

// Rendering returns whether the render surface is currently acquired
func (w *World) Rendering() bool {
	return w.canvas.acquired()
}
