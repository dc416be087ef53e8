package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ContactEpsilon is the penetration depth below which two shapes are
// considered to be touching rather than overlapping. Shapes in
// tangential contact do not collide.
const ContactEpsilon float64 = 1e-9

// Shape is a closed region of the plane that can be tested for overlap
// with other shapes
type Shape interface {
	// Bounds returns the axis-aligned bounding box of the shape
	Bounds() r2.Box

	// Contains returns whether the point lies within the shape
	Contains(p Point) bool
}

// Rectangle is a rectangle of a given length (along its heading) and
// width, centred at Center and rotated counter-clockwise by Heading
// radians
type Rectangle struct {
	Center  Point
	Length  float64
	Width   float64
	Heading float64
}

// NewRectangle returns a new oriented Rectangle
func NewRectangle(center Point, length, width, heading float64) Rectangle {
	return Rectangle{center, length, width, heading}
}

// Axes returns the unit vectors along the length and the width of
// the rectangle
func (r Rectangle) Axes() (Point, Point) {
	sin, cos := math.Sincos(r.Heading)
	return Point{cos, sin}, Point{-sin, cos}
}

// Corners returns the four corners of the rectangle in
// counter-clockwise order, starting at the front-left corner
func (r Rectangle) Corners() [4]Point {
	u, v := r.Axes()
	hl := u.Scale(r.Length / 2)
	hw := v.Scale(r.Width / 2)

	return [4]Point{
		r.Center.Add(hl).Add(hw),
		r.Center.Sub(hl).Add(hw),
		r.Center.Sub(hl).Sub(hw),
		r.Center.Add(hl).Sub(hw),
	}
}

// Bounds implements the Shape interface
func (r Rectangle) Bounds() r2.Box {
	corners := r.Corners()
	box := r2.Box{Min: corners[0].vec(), Max: corners[0].vec()}
	for _, c := range corners[1:] {
		box.Min.X = math.Min(box.Min.X, c.X)
		box.Min.Y = math.Min(box.Min.Y, c.Y)
		box.Max.X = math.Max(box.Max.X, c.X)
		box.Max.Y = math.Max(box.Max.Y, c.Y)
	}
	return box
}

// Contains implements the Shape interface
func (r Rectangle) Contains(p Point) bool {
	u, v := r.Axes()
	d := p.Sub(r.Center)
	return math.Abs(d.Dot(u)) <= r.Length/2 && math.Abs(d.Dot(v)) <= r.Width/2
}

// project returns the interval covered by the rectangle along axis
func (r Rectangle) project(axis Point) (min, max float64) {
	corners := r.Corners()
	min, max = corners[0].Dot(axis), corners[0].Dot(axis)
	for _, c := range corners[1:] {
		d := c.Dot(axis)
		min = math.Min(min, d)
		max = math.Max(max, d)
	}
	return min, max
}

// closest returns the point of the rectangle closest to p
func (r Rectangle) closest(p Point) Point {
	u, v := r.Axes()
	d := p.Sub(r.Center)
	a := clamp(d.Dot(u), -r.Length/2, r.Length/2)
	b := clamp(d.Dot(v), -r.Width/2, r.Width/2)
	return r.Center.Add(u.Scale(a)).Add(v.Scale(b))
}

// String implements the fmt.Stringer interface
func (r Rectangle) String() string {
	return fmt.Sprintf("Rectangle{centre: %v, length: %v, width: %v, "+
		"heading: %v}", r.Center, r.Length, r.Width, r.Heading)
}

// Circle is a disc of a given radius
type Circle struct {
	Center Point
	Radius float64
}

// NewCircle returns a new Circle
func NewCircle(center Point, radius float64) Circle {
	return Circle{center, radius}
}

// Bounds implements the Shape interface
func (c Circle) Bounds() r2.Box {
	return r2.Box{
		Min: r2.Vec{X: c.Center.X - c.Radius, Y: c.Center.Y - c.Radius},
		Max: r2.Vec{X: c.Center.X + c.Radius, Y: c.Center.Y + c.Radius},
	}
}

// Contains implements the Shape interface
func (c Circle) Contains(p Point) bool {
	return p.Distance(c.Center) <= c.Radius
}

// String implements the fmt.Stringer interface
func (c Circle) String() string {
	return fmt.Sprintf("Circle{centre: %v, radius: %v}", c.Center, c.Radius)
}

// Overlap returns whether two shapes overlap by more than
// ContactEpsilon. Overlap is symmetric: Overlap(a, b) == Overlap(b, a).
//
// Overlap panics if either shape is not a Rectangle or a Circle.
func Overlap(a, b Shape) bool {
	switch a := a.(type) {
	case Rectangle:
		switch b := b.(type) {
		case Rectangle:
			return rectanglesOverlap(a, b)
		case Circle:
			return rectangleCircleOverlap(a, b)
		}

	case Circle:
		switch b := b.(type) {
		case Rectangle:
			return rectangleCircleOverlap(b, a)
		case Circle:
			return circlesOverlap(a, b)
		}
	}
	panic(fmt.Sprintf("overlap: unsupported shapes %T and %T", a, b))
}

// rectanglesOverlap uses the separating axis theorem. The rectangles
// overlap only if their projections overlap by more than ContactEpsilon
// on all four candidate axes.
func rectanglesOverlap(a, b Rectangle) bool {
	au, av := a.Axes()
	bu, bv := b.Axes()

	for _, axis := range [...]Point{au, av, bu, bv} {
		aMin, aMax := a.project(axis)
		bMin, bMax := b.project(axis)

		depth := math.Min(aMax, bMax) - math.Max(aMin, bMin)
		if !(depth > ContactEpsilon) {
			return false
		}
	}
	return true
}

func rectangleCircleOverlap(r Rectangle, c Circle) bool {
	d := c.Center.Distance(r.closest(c.Center))
	if d == 0 {
		// Circle centre inside the rectangle
		return true
	}
	return c.Radius-d > ContactEpsilon
}

func circlesOverlap(a, b Circle) bool {
	return a.Radius+b.Radius-a.Center.Distance(b.Center) > ContactEpsilon
}

func clamp(value, min, max float64) float64 {
	return math.Max(min, math.Min(value, max))
}
