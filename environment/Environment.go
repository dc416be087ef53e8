// Package environment outlines the interfaces and structs needed to
// implement concrete multi-agent environments
package environment

import (
	ts "github.com/samuelfneumann/godriving/timestep"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines whether a timestep ends the episode. If so, End
// marks the timestep as the last in the episode and records why.
type Ender interface {
	End(*ts.TimeStep) bool
}

// RenderMode names a way of rendering an environment
type RenderMode string

const (
	// Human draws the environment onto its render surface and returns
	// nothing
	Human RenderMode = "human"

	// RGBArray draws the environment and returns the render surface as
	// a height x width x 3 tensor of 8-bit RGB values
	RGBArray RenderMode = "rgb_array"
)

// Environment implements a simulated multi-agent environment.
//
// An episode starts with Reset. Step advances the simulation by one
// fixed timestep; once Step returns a last timestep, further calls to
// Step fail with ErrEpisodeOver until the next Reset. Environments are
// reused across episodes and are not safe for concurrent use.
type Environment interface {
	Reset() (ts.TimeStep, error)
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)
	Render(mode RenderMode) (tensor.Tensor, error)
	Close() error

	CurrentTimeStep() ts.TimeStep

	// Agents returns the names of the controlled agents in the order
	// in which their observations and actions are concatenated
	Agents() []string

	ObservationSpec() Spec
	ActionSpec() Spec
}
