// Package controllers implements simple open loop controllers which
// select actions for all agents of a driving environment at once
package controllers

import (
	"fmt"

	env "github.com/samuelfneumann/godriving/environment"
	ts "github.com/samuelfneumann/godriving/timestep"
	"github.com/samuelfneumann/godriving/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Zero always selects the zero action: no steering and no acceleration
// for any agent
type Zero struct {
	size int
}

// NewZero returns a new Zero controller for actions described by spec
func NewZero(spec env.Spec) Zero {
	return Zero{spec.Len()}
}

// Act returns the zero action
func (z Zero) Act(ts.TimeStep) *mat.VecDense {
	return mat.NewVecDense(z.size, nil)
}

// Constant always selects the same action
type Constant struct {
	action []float64
}

// NewConstant returns a new Constant controller selecting action,
// clipped to the bounds of spec. NewConstant panics if the action does
// not have the length described by spec.
func NewConstant(spec env.Spec, action []float64) Constant {
	if len(action) != spec.Len() {
		panic(fmt.Sprintf("newConstant: action must have %v elements, got %v",
			spec.Len(), len(action)))
	}

	clipped := make([]float64, len(action))
	for i, a := range action {
		clipped[i] = floatutils.Clip(a, spec.LowerBound.AtVec(i),
			spec.UpperBound.AtVec(i))
	}
	return Constant{clipped}
}

// Act returns the constant action
func (c Constant) Act(ts.TimeStep) *mat.VecDense {
	action := make([]float64, len(c.action))
	copy(action, c.action)
	return mat.NewVecDense(len(action), action)
}

// Uniform selects each element of its actions uniformly at random
// between the bounds described by an action spec
type Uniform struct {
	dists []distuv.Uniform
	seed  uint64
}

// NewUniform returns a new Uniform controller for actions described by
// spec, drawing random numbers from a source seeded with seed
func NewUniform(spec env.Spec, seed uint64) *Uniform {
	source := rand.NewSource(seed)

	dists := make([]distuv.Uniform, spec.Len())
	for i := range dists {
		dists[i] = distuv.Uniform{
			Min: spec.LowerBound.AtVec(i),
			Max: spec.UpperBound.AtVec(i),
			Src: source,
		}
	}
	return &Uniform{dists, seed}
}

// Act returns a random action
func (u *Uniform) Act(ts.TimeStep) *mat.VecDense {
	action := make([]float64, len(u.dists))
	for i, dist := range u.dists {
		action[i] = dist.Rand()
	}
	return mat.NewVecDense(len(action), action)
}

// Seed returns the seed of the controller's random source
func (u *Uniform) Seed() uint64 {
	return u.seed
}
