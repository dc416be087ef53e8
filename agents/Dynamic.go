package agents

import (
	"fmt"
	"image/color"
	"math"

	"github.com/samuelfneumann/godriving/geometry"
)

const (
	// CarLength and CarWidth are the default car dimensions in metres
	CarLength float64 = 4.0
	CarWidth  float64 = 2.0

	// PedestrianRadius is the radius of the disc occupied by a
	// pedestrian in metres
	PedestrianRadius float64 = 0.5
)

var (
	// Red and Blue are the default colours of the two cars in the
	// driving environments
	Red  color.Color = color.RGBA{R: 220, G: 50, B: 47, A: 255}
	Blue color.Color = color.RGBA{R: 38, G: 139, B: 210, A: 255}

	// Orange is the default colour of pedestrians
	Orange color.Color = color.RGBA{R: 255, G: 166, B: 0, A: 255}
)

// body holds the kinematic state shared by all dynamic agents
type body struct {
	position geometry.Point
	velocity geometry.Point
	heading  float64

	steering     float64
	acceleration float64

	colour color.Color
	label  string
}

// SetControl implements the Dynamic interface
func (b *body) SetControl(steering, acceleration float64) {
	b.steering = steering
	b.acceleration = acceleration
}

// Controls returns the currently stored steering and acceleration
func (b *body) Controls() (steering, acceleration float64) {
	return b.steering, b.acceleration
}

// Acceleration returns the currently stored acceleration input
func (b *body) Acceleration() float64 {
	return b.acceleration
}

// Position implements the Dynamic interface
func (b *body) Position() geometry.Point {
	return b.position
}

// Velocity implements the Dynamic interface
func (b *body) Velocity() geometry.Point {
	return b.velocity
}

// Heading implements the Dynamic interface
func (b *body) Heading() float64 {
	return b.heading
}

// SetPose places the agent at position with the given heading
func (b *body) SetPose(position geometry.Point, heading float64) {
	b.position = position
	b.heading = heading
}

// SetVelocity sets the velocity of the agent
func (b *body) SetVelocity(velocity geometry.Point) {
	b.velocity = velocity
}

// Observation implements the Dynamic interface
func (b *body) Observation() []float64 {
	return []float64{
		b.position.X,
		b.position.Y,
		b.heading,
		b.velocity.X,
		b.velocity.Y,
	}
}

// Color implements the Agent interface
func (b *body) Color() color.Color {
	return b.colour
}

// Label implements the Agent interface
func (b *body) Label() string {
	return b.label
}

// Collidable implements the Agent interface
func (b *body) Collidable() bool {
	return true
}

// advance turns the agent by dh radians and integrates its velocity
// and position over dt using the stored acceleration. The velocity is
// rotated with the heading, and acceleration acts along the new
// heading. Braking stops the agent rather than reversing it. Position
// is integrated with the mean of the old and new velocities.
//
// With dh == 0 and zero acceleration the position update is exactly
// position + velocity*dt.
func (b *body) advance(dh, dt float64) {
	heading := b.heading + dh
	direction := geometry.FromPolar(1, heading)

	velocity := b.velocity.Rotate(dh).Add(direction.Scale(b.acceleration * dt))
	if b.acceleration < 0 && velocity.Dot(direction) < 0 &&
		b.velocity.Dot(direction) >= 0 {
		velocity = geometry.Point{}
	}

	b.position = b.position.Add(b.velocity.Add(velocity).Scale(0.5 * dt))
	b.velocity = velocity
	b.heading = heading
}

// Car is a rectangular dynamic agent driven by a kinematic bicycle
// model with the centre of mass at the geometric centre of the car.
//
// The steering control is the front wheel angle in radians and acts as
// a proxy for the turning rate, acceleration is in m/s².
type Car struct {
	body
	length float64
	width  float64
}

// NewCar returns a new Car at position with the given heading and
// colour. The car starts at rest with zero controls.
func NewCar(position geometry.Point, heading float64, c color.Color) *Car {
	if c == nil {
		c = Red
	}
	return &Car{
		body: body{
			position: position,
			heading:  heading,
			colour:   c,
			label:    "car",
		},
		length: CarLength,
		width:  CarWidth,
	}
}

// Shape implements the Agent interface. The rectangle is computed from
// the current pose on every call.
func (c *Car) Shape() geometry.Shape {
	return c.Rectangle()
}

// Rectangle returns the current footprint of the car
func (c *Car) Rectangle() geometry.Rectangle {
	return geometry.NewRectangle(c.position, c.length, c.width, c.heading)
}

// CollidesWith returns whether the car is in collision with other
func (c *Car) CollidesWith(other Agent) bool {
	return Collide(c, other)
}

// Integrate implements the Dynamic interface
func (c *Car) Integrate(dt float64) {
	speed := c.velocity.Norm()
	newSpeed := math.Max(speed+c.acceleration*dt, 0)

	rearDist := c.length / 2
	beta := math.Atan(math.Tan(c.steering) / 2)
	dh := (speed + newSpeed) / 2 * math.Sin(beta) / rearDist * dt

	c.advance(dh, dt)
}

// String implements the fmt.Stringer interface
func (c *Car) String() string {
	return fmt.Sprintf("Car{position: %v, heading: %.3f, velocity: %v}",
		c.position, c.heading, c.velocity)
}

// Pedestrian is a disc shaped dynamic agent following a unicycle model:
// the steering control is the turning rate in rad/s.
type Pedestrian struct {
	body
	radius float64
}

// NewPedestrian returns a new Pedestrian at position with the given
// heading and colour
func NewPedestrian(position geometry.Point, heading float64,
	c color.Color) *Pedestrian {
	if c == nil {
		c = Orange
	}
	return &Pedestrian{
		body: body{
			position: position,
			heading:  heading,
			colour:   c,
			label:    "pedestrian",
		},
		radius: PedestrianRadius,
	}
}

// Shape implements the Agent interface
func (p *Pedestrian) Shape() geometry.Shape {
	return geometry.NewCircle(p.position, p.radius)
}

// CollidesWith returns whether the pedestrian is in collision with
// other
func (p *Pedestrian) CollidesWith(other Agent) bool {
	return Collide(p, other)
}

// Integrate implements the Dynamic interface
func (p *Pedestrian) Integrate(dt float64) {
	p.advance(p.steering*dt, dt)
}
