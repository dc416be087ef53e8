package agents

import (
	"image/color"

	"github.com/samuelfneumann/godriving/geometry"
)

var (
	// Gray80 is the default colour of buildings
	Gray80 color.Color = color.RGBA{R: 204, G: 204, B: 204, A: 255}

	// PaintWhite is the default colour of road paintings
	PaintWhite color.Color = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// static implements the parts of the Agent interface shared by all
// static agents. Static agents are immutable after construction.
type static struct {
	rect   geometry.Rectangle
	colour color.Color
	label  string
}

// Shape implements the Agent interface
func (s static) Shape() geometry.Shape {
	return s.rect
}

// Rectangle returns the footprint of the agent
func (s static) Rectangle() geometry.Rectangle {
	return s.rect
}

// Color implements the Agent interface
func (s static) Color() color.Color {
	return s.colour
}

// Label implements the Agent interface
func (s static) Label() string {
	return s.label
}

// Building is a static, collidable rectangular obstacle
type Building struct {
	static
}

// NewBuilding returns a new axis-aligned Building centred at center
// with the given size, where size.X is the extent along the x axis and
// size.Y the extent along the y axis.
func NewBuilding(center, size geometry.Point, c color.Color) *Building {
	return NewRotatedBuilding(center, size, c, 0)
}

// NewRotatedBuilding returns a new Building whose footprint is rotated
// counter-clockwise by heading radians
func NewRotatedBuilding(center, size geometry.Point, c color.Color,
	heading float64) *Building {
	if c == nil {
		c = Gray80
	}
	rect := geometry.NewRectangle(center, size.X, size.Y, heading)
	return &Building{static{rect, c, "building"}}
}

// Collidable implements the Agent interface
func (b *Building) Collidable() bool {
	return true
}

// Painting is a static marking on the road, such as a lane line. It
// is drawn but never collides.
type Painting struct {
	static
}

// NewPainting returns a new Painting centred at center with the given
// size and heading
func NewPainting(center, size geometry.Point, c color.Color,
	heading float64) *Painting {
	if c == nil {
		c = PaintWhite
	}
	rect := geometry.NewRectangle(center, size.X, size.Y, heading)
	return &Painting{static{rect, c, "painting"}}
}

// Collidable implements the Agent interface
func (p *Painting) Collidable() bool {
	return false
}
