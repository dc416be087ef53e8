package environment

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting vectors uniformly from a box
type UniformStarter struct {
	features int
	seed     uint64
	rand     *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter sampling feature i
// uniformly from bounds[i]. Degenerate intervals (Min == Max) always
// produce their single value.
func NewUniformStarter(bounds []r1.Interval, seed uint64) *UniformStarter {
	source := rand.NewSource(seed)
	rand := distmv.NewUniform(bounds, source)

	return &UniformStarter{len(bounds), seed, rand}
}

// Start implements the Starter interface
func (u *UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}

// Seed returns the seed of the starter's random source
func (u *UniformStarter) Seed() uint64 {
	return u.seed
}

// FixedStarter always returns the same starting vector
type FixedStarter struct {
	start []float64
}

// NewFixedStarter returns a new FixedStarter. The argument slice is
// copied.
func NewFixedStarter(start []float64) FixedStarter {
	s := make([]float64, len(start))
	copy(s, start)
	return FixedStarter{s}
}

// Start implements the Starter interface. A fresh vector is returned on
// each call.
func (f FixedStarter) Start() *mat.VecDense {
	s := make([]float64, len(f.start))
	copy(s, f.start)
	return mat.NewVecDense(len(s), s)
}

// Around returns intervals of half-width noise centred on each element
// of centre, suitable for NewUniformStarter. A non-positive noise
// produces degenerate intervals.
func Around(centre []float64, noise float64) []r1.Interval {
	if noise < 0 {
		panic(fmt.Sprintf("around: noise must be non-negative, got %v", noise))
	}
	bounds := make([]r1.Interval, len(centre))
	for i, c := range centre {
		bounds[i] = r1.Interval{Min: c - noise, Max: c + noise}
	}
	return bounds
}
