// Package world implements the fixed-timestep simulation that owns all
// agents of an episode, integrates the dynamic ones and exposes their
// concatenated state.
package world

import (
	"github.com/pkg/errors"
	"github.com/samuelfneumann/godriving/agents"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultPPM is the default number of render pixels per metre
const DefaultPPM float64 = 6

// World is a rectangular area of width x height metres populated by
// agents and advanced in fixed steps of dt seconds.
//
// The order in which agents are added is significant: the state vector
// returned by State is the concatenation of the observations of all
// dynamic agents in insertion order, and external callers decode
// actions and observations positionally using this order.
//
// A World is not safe for concurrent use.
type World struct {
	dt     float64
	width  float64
	height float64

	agents  []agents.Agent
	dynamic []agents.Dynamic

	canvas *canvas
}

// New returns a new, empty World. The ppm argument sets the pixels per
// metre of the render surface.
func New(dt, width, height, ppm float64) (*World, error) {
	if !(dt > 0) {
		return nil, errors.Errorf("new: dt must be positive, got %v", dt)
	}
	if !(width > 0) || !(height > 0) {
		return nil, errors.Errorf("new: world dimensions must be positive, "+
			"got %v x %v", width, height)
	}
	if !(ppm > 0) {
		return nil, errors.Errorf("new: pixels per metre must be positive, "+
			"got %v", ppm)
	}

	return &World{
		dt:     dt,
		width:  width,
		height: height,
		canvas: newCanvas(width, height, ppm),
	}, nil
}

// DT returns the fixed timestep of the world
func (w *World) DT() float64 {
	return w.dt
}

// Width returns the width of the world
func (w *World) Width() float64 {
	return w.width
}

// Height returns the height of the world
func (w *World) Height() float64 {
	return w.height
}

// Bounds returns the simulated area
func (w *World) Bounds() r2.Box {
	return r2.Box{Max: r2.Vec{X: w.width, Y: w.height}}
}

// XBounds returns the horizontal extent of the world
func (w *World) XBounds() r1.Interval {
	return r1.Interval{Min: 0, Max: w.width}
}

// YBounds returns the vertical extent of the world
func (w *World) YBounds() r1.Interval {
	return r1.Interval{Min: 0, Max: w.height}
}

// Add appends an agent to the world. Dynamic agents are also appended
// to the dynamic agent list, keeping their relative insertion order.
func (w *World) Add(a agents.Agent) {
	w.agents = append(w.agents, a)
	if d, ok := a.(agents.Dynamic); ok {
		w.dynamic = append(w.dynamic, d)
	}
}

// Agents returns all agents in insertion order
func (w *World) Agents() []agents.Agent {
	out := make([]agents.Agent, len(w.agents))
	copy(out, w.agents)
	return out
}

// DynamicAgents returns the dynamic agents in insertion order
func (w *World) DynamicAgents() []agents.Dynamic {
	out := make([]agents.Dynamic, len(w.dynamic))
	copy(out, w.dynamic)
	return out
}

// StateSize returns the length of the state vector
func (w *World) StateSize() int {
	return len(w.dynamic) * agents.ObservationSize
}

// ActionSize returns the length of the action vector the world's
// dynamic agents consume
func (w *World) ActionSize() int {
	return len(w.dynamic) * agents.ControlSize
}

// Reset removes all agents from the world and clears the render
// surface. The surface itself is kept for reuse.
func (w *World) Reset() {
	w.agents = nil
	w.dynamic = nil
	w.canvas.clear()
}

// Tick integrates every dynamic agent by one timestep, in insertion
// order, using the controls currently stored on each agent. Tick
// performs no collision response.
func (w *World) Tick() {
	for _, d := range w.dynamic {
		d.Integrate(w.dt)
	}
}

// SetControls distributes an action vector over the dynamic agents.
// Agent i receives the controls at offsets 2i and 2i+1.
func (w *World) SetControls(action mat.Vector) error {
	if action.Len() != w.ActionSize() {
		return errors.Errorf("setControls: action must have %v elements, "+
			"got %v", w.ActionSize(), action.Len())
	}

	for i, d := range w.dynamic {
		offset := i * agents.ControlSize
		d.SetControl(action.AtVec(offset), action.AtVec(offset+1))
	}
	return nil
}

// State returns the concatenated observations of all dynamic agents in
// insertion order. The returned vector is a fresh copy.
func (w *World) State() *mat.VecDense {
	if len(w.dynamic) == 0 {
		return &mat.VecDense{}
	}

	data := make([]float64, 0, w.StateSize())
	for _, d := range w.dynamic {
		data = append(data, d.Observation()...)
	}
	return mat.NewVecDense(len(data), data)
}

// Close releases the render surface. Close is idempotent.
func (w *World) Close() error {
	w.canvas.release()
	return nil
}
