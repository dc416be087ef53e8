package controllers

import (
	"testing"

	env "github.com/samuelfneumann/godriving/environment"
	ts "github.com/samuelfneumann/godriving/timestep"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func actionSpec() env.Spec {
	return env.NewSpec(mat.NewVecDense(4, nil), env.Action,
		mat.NewVecDense(4, []float64{-0.5, -4, -0.5, -4}),
		mat.NewVecDense(4, []float64{0.5, 4, 0.5, 4}), env.Continuous)
}

func TestZero(t *testing.T) {
	z := NewZero(actionSpec())
	assert.Equal(t, []float64{0, 0, 0, 0}, z.Act(ts.TimeStep{}).RawVector().Data)
}

func TestConstant(t *testing.T) {
	c := NewConstant(actionSpec(), []float64{0.1, 10, -1, -2})
	action := c.Act(ts.TimeStep{})
	assert.Equal(t, []float64{0.1, 4, -0.5, -2}, action.RawVector().Data)

	// Returned actions may be modified freely
	action.SetVec(0, 3)
	assert.Equal(t, 0.1, c.Act(ts.TimeStep{}).AtVec(0))

	assert.Panics(t, func() { NewConstant(actionSpec(), []float64{1}) })
}

func TestUniform(t *testing.T) {
	spec := actionSpec()
	a := NewUniform(spec, 9)
	b := NewUniform(spec, 9)

	for i := 0; i < 100; i++ {
		action := a.Act(ts.TimeStep{})
		assert.True(t, spec.Contains(action))
		assert.True(t, mat.Equal(action, b.Act(ts.TimeStep{})))
	}
	assert.Equal(t, uint64(9), a.Seed())
}
