// Package geometry implements the 2D primitives used by the driving
// world: points, oriented rectangles, circles and their overlap tests.
//
// All computations follow IEEE-754 semantics. NaN and infinite values
// are propagated and never rejected.
package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// Point is an immutable point or vector in the plane
type Point struct {
	X, Y float64
}

// NewPoint returns a new Point
func NewPoint(x, y float64) Point {
	return Point{x, y}
}

// FromPolar returns the vector of length r pointing in direction angle
func FromPolar(r, angle float64) Point {
	return Point{r * math.Cos(angle), r * math.Sin(angle)}
}

func (p Point) vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

func fromVec(v r2.Vec) Point {
	return Point{v.X, v.Y}
}

// Add returns p + q
func (p Point) Add(q Point) Point {
	return fromVec(r2.Add(p.vec(), q.vec()))
}

// Sub returns p - q
func (p Point) Sub(q Point) Point {
	return fromVec(r2.Sub(p.vec(), q.vec()))
}

// Scale returns f * p
func (p Point) Scale(f float64) Point {
	return fromVec(r2.Scale(f, p.vec()))
}

// Dot returns the dot product of p and q
func (p Point) Dot(q Point) float64 {
	return r2.Dot(p.vec(), q.vec())
}

// Norm returns the Euclidean norm of p
func (p Point) Norm() float64 {
	return r2.Norm(p.vec())
}

// L1 returns the L1 (Manhattan) norm of p
func (p Point) L1() float64 {
	return floats.Norm([]float64{p.X, p.Y}, 1)
}

// Distance returns the Euclidean distance between p and q
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Norm()
}

// Rotate returns p rotated counter-clockwise by angle radians about
// the origin. Rotating by exactly zero returns p unchanged.
func (p Point) Rotate(angle float64) Point {
	sin, cos := math.Sincos(angle)
	return Point{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}

// RotateAbout returns p rotated counter-clockwise by angle radians
// about the point centre
func (p Point) RotateAbout(angle float64, centre Point) Point {
	return p.Sub(centre).Rotate(angle).Add(centre)
}

// String implements the fmt.Stringer interface
func (p Point) String() string {
	return fmt.Sprintf("(%v, %v)", p.X, p.Y)
}
