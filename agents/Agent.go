// Package agents implements the entities that populate a driving
// world. Static agents (buildings, paintings) never move; dynamic
// agents (cars, pedestrians) are integrated by the world on every tick
// using the controls most recently set on them.
package agents

import (
	"image/color"

	"github.com/samuelfneumann/godriving/geometry"
)

// ObservationSize is the number of scalars each dynamic agent
// contributes to the world state vector: x, y, heading, vx and vy, in
// that order.
const ObservationSize int = 5

// ControlSize is the number of scalar controls each dynamic agent
// consumes from the action vector: steering, then acceleration.
const ControlSize int = 2

// Agent is any entity that can be placed in a world
type Agent interface {
	// Shape returns the collision geometry of the agent. For dynamic
	// agents the shape is derived from the current pose on every call.
	Shape() geometry.Shape

	// Collidable returns whether the agent takes part in collisions
	Collidable() bool

	// Color returns the colour the agent is drawn with
	Color() color.Color

	// Label returns a human readable name for the agent
	Label() string
}

// Dynamic is an Agent which moves. Dynamic agents are integrated
// forward in time by the world that owns them.
type Dynamic interface {
	Agent

	// SetControl stores the controls used by the next integration
	// step. No clamping is performed.
	SetControl(steering, acceleration float64)

	// Integrate advances the agent by dt seconds using its stored
	// controls. Integration is deterministic.
	Integrate(dt float64)

	// Observation returns the ObservationSize scalars describing the
	// current pose and velocity of the agent
	Observation() []float64

	Position() geometry.Point
	Velocity() geometry.Point
	Heading() float64
}

// Collide returns whether two agents are in collision. Agents which
// are not collidable never collide with anything. Collide is symmetric.
func Collide(a, b Agent) bool {
	if !a.Collidable() || !b.Collidable() {
		return false
	}
	return geometry.Overlap(a.Shape(), b.Shape())
}
