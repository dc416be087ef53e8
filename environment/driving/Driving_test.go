package driving

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samuelfneumann/godriving/agents"
	env "github.com/samuelfneumann/godriving/environment"
	"github.com/samuelfneumann/godriving/geometry"
	ts "github.com/samuelfneumann/godriving/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newEnv(t *testing.T, c Config) *Env {
	t.Helper()
	e, err := New(c, nil)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	_, err = e.Reset()
	require.NoError(t, err)
	return e
}

func zeros(e *Env) *mat.VecDense {
	return mat.NewVecDense(agents.ControlSize*len(e.Agents()), nil)
}

// run steps the environment with zero controls until the episode ends
// or limit steps have been taken
func run(t *testing.T, e *Env, limit int) ts.TimeStep {
	t.Helper()
	var step ts.TimeStep
	for i := 0; i < limit; i++ {
		var done bool
		var err error
		step, done, err = e.Step(zeros(e))
		require.NoError(t, err)
		if done {
			break
		}
	}
	return step
}

func TestDefaults(t *testing.T) {
	tests := []struct {
		variant VariantName
		dt      float64
		limit   int
	}{
		{Turning, 0.04, 0},
		{Merging, 0.04, 200},
		{Bottleneck, 0.1, 60},
	}

	for _, test := range tests {
		e, err := New(NewConfig(test.variant), nil)
		require.NoError(t, err)

		c := e.Config()
		assert.Equal(t, test.dt, c.DT, test.variant)
		assert.Equal(t, test.limit, c.TimeLimit, test.variant)
		assert.Equal(t, 120.0, c.Width)
		assert.Equal(t, 120.0, c.Height)
		assert.Equal(t, []string{Human, Robot}, e.Agents())
		assert.Equal(t, 10, e.ObservationSpec().Len())
		assert.Equal(t, 4, e.ActionSpec().Len())
	}
}

func TestInitialObservation(t *testing.T) {
	e, err := NewMerging(Config{}, nil)
	require.NoError(t, err)

	first, err := e.Reset()
	require.NoError(t, err)
	assert.True(t, first.First())
	assert.Equal(t, 0, first.Number)
	assert.Equal(t, map[string]float64{Human: 0, Robot: 0}, first.Reward)

	want := []float64{
		58.5, 5, math.Pi / 2, 0, 10,
		61.5, 5, math.Pi / 2, 0, 10,
	}
	assert.Equal(t, want, first.Observation.RawVector().Data)
	assert.Equal(t, 1, e.Episode())
}

func TestStepBeforeReset(t *testing.T) {
	e, err := NewTurning(Config{}, nil)
	require.NoError(t, err)

	_, _, err = e.Step(mat.NewVecDense(4, nil))
	assert.ErrorIs(t, err, env.ErrNotReset)
}

func TestInvalidAction(t *testing.T) {
	e := newEnv(t, NewConfig(Merging))

	_, _, err := e.Step(mat.NewVecDense(3, nil))
	assert.ErrorIs(t, err, env.ErrInvalidAction)
	_, _, err = e.Step(nil)
	assert.ErrorIs(t, err, env.ErrInvalidAction)

	// A rejected action does not advance the episode
	assert.Equal(t, 0, e.CurrentTimeStep().Number)
}

func TestMergingTimeout(t *testing.T) {
	e := newEnv(t, NewConfig(Merging))

	last := run(t, e, 1000)
	require.True(t, last.Last())
	assert.Equal(t, 200, last.Number)
	assert.Equal(t, ts.Timeout, last.EndType)

	reward := MergingReward{Coefficients{
		ProgressWeight: 0.008,
		LaneCentre:     58.5,
		LaneWeight:     0.01,
	}, 120}
	for _, name := range e.Agents() {
		car, ok := e.Car(name)
		require.True(t, ok)

		p := car.Position()
		assert.InDelta(t, 85, p.Y, 1e-9, name)

		want := reward.CarReward(car) + 200*math.Pow(p.Y/120, 4)
		assert.InDelta(t, want, last.Reward[name], 1e-12, name)
	}
	assert.InDelta(t, -0.28+200*math.Pow(85.0/120, 4),
		last.Reward[Human], 1e-9)
	assert.InDelta(t, -0.31+200*math.Pow(85.0/120, 4),
		last.Reward[Robot], 1e-9)
}

func TestStepAfterDone(t *testing.T) {
	e := newEnv(t, NewConfig(Merging))
	last := run(t, e, 1000)
	require.True(t, last.Last())

	_, done, err := e.Step(zeros(e))
	assert.ErrorIs(t, err, env.ErrEpisodeOver)
	assert.True(t, done)

	// Reset starts a fresh episode
	first, err := e.Reset()
	require.NoError(t, err)
	assert.True(t, first.First())
	step, done, err := e.Step(zeros(e))
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 1, step.Number)
	assert.Equal(t, 2, e.Episode())
}

func TestForcedCarCollision(t *testing.T) {
	for _, variant := range []VariantName{Turning, Merging} {
		e := newEnv(t, NewConfig(variant))

		h, _ := e.Car(Human)
		r, _ := e.Car(Robot)
		r.SetPose(h.Position().Add(geometry.NewPoint(0, -1)), h.Heading())
		r.SetVelocity(h.Velocity())

		step, done, err := e.Step(zeros(e))
		require.NoError(t, err, variant)
		require.True(t, done, variant)
		assert.Equal(t, ts.Collision, step.EndType, variant)

		policy := e.Variant().Reward(e.Config())
		for _, name := range e.Agents() {
			car, _ := e.Car(name)
			want := policy.CarReward(car) - 200 + policy.TerminalBonus(car)
			assert.InDelta(t, want, step.Reward[name], 1e-12, variant)
		}
	}
}

func TestForcedBuildingCollision(t *testing.T) {
	e := newEnv(t, NewConfig(Merging))

	r, _ := e.Car(Robot)
	r.SetPose(geometry.NewPoint(56.5, 20), math.Pi/2)

	step, done, err := e.Step(zeros(e))
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, ts.Collision, step.EndType)

	policy := e.Variant().Reward(e.Config())
	h, _ := e.Car(Human)
	assert.InDelta(t, policy.CarReward(h)+policy.TerminalBonus(h),
		step.Reward[Human], 1e-12)
	assert.InDelta(t, policy.CarReward(r)-200+policy.TerminalBonus(r),
		step.Reward[Robot], 1e-12)
}

func TestBottleneckCollisionIsUnpenalized(t *testing.T) {
	e := newEnv(t, NewConfig(Bottleneck))

	// The robot car drives straight into the divider
	last := run(t, e, 1000)
	require.True(t, last.Last())
	assert.Equal(t, ts.Collision, last.EndType)
	assert.Equal(t, 54, last.Number)

	policy := e.Variant().Reward(e.Config())
	for _, name := range e.Agents() {
		car, _ := e.Car(name)
		assert.Equal(t, policy.CarReward(car), last.Reward[name], name)
	}
}

func TestBottleneckOutOfBounds(t *testing.T) {
	e := newEnv(t, NewConfig(Bottleneck))

	r, _ := e.Car(Robot)
	r.SetPose(geometry.NewPoint(58.5, 119.9), math.Pi/2)

	_, _, err := e.Step(zeros(e))
	assert.ErrorIs(t, err, env.ErrOutOfBounds)

	_, _, err = e.Step(zeros(e))
	assert.ErrorIs(t, err, env.ErrEpisodeOver)

	_, err = e.Reset()
	require.NoError(t, err)
	_, _, err = e.Step(zeros(e))
	assert.NoError(t, err)
}

func TestOutOfBoundsEndsEpisode(t *testing.T) {
	e := newEnv(t, NewConfig(Merging))

	r, _ := e.Car(Robot)
	r.SetPose(geometry.NewPoint(60, 119.9), math.Pi/2)

	step, done, err := e.Step(zeros(e))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, ts.OutOfBounds, step.EndType)

	// Only the robot car leaves through the top of the world
	e = newEnv(t, NewConfig(Merging))
	h, _ := e.Car(Human)
	h.SetPose(geometry.NewPoint(58.5, 119.9), math.Pi/2)
	_, done, err = e.Step(zeros(e))
	require.NoError(t, err)
	assert.False(t, done)
}

func TestTurningLeftEdge(t *testing.T) {
	e := newEnv(t, NewConfig(Turning))

	// Drive the human car out through the side road
	h, _ := e.Car(Human)
	h.SetPose(geometry.NewPoint(0.1, 83), math.Pi)
	h.SetVelocity(geometry.NewPoint(-7, 0))

	step, done, err := e.Step(zeros(e))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, ts.OutOfBounds, step.EndType)
}

func TestTurningReward(t *testing.T) {
	policy := TurningReward{Coefficients{
		ProgressWeight: 0.1,
		TurnStart:      80,
		TurnEnd:        86,
	}}

	tests := []struct {
		y    float64
		want float64
	}{
		{50, 0.2},
		{83, -0.3},
		{100, -0.2},
	}
	for _, test := range tests {
		car := agents.NewCar(geometry.NewPoint(58.5, test.y), math.Pi/2, nil)
		car.SetVelocity(geometry.NewPoint(3, 2))
		assert.InDelta(t, test.want, policy.CarReward(car), 1e-12, test.y)
		assert.Equal(t, 0.0, policy.TerminalBonus(car))
	}
}

func TestControlCost(t *testing.T) {
	c := NewConfig(Merging)
	c.CtrlCostWeight = 0.5
	e := newEnv(t, c)

	free := newEnv(t, NewConfig(Merging))

	action := mat.NewVecDense(4, []float64{0, 2, 0, 0})
	step, _, err := e.Step(action)
	require.NoError(t, err)
	freeStep, _, err := free.Step(action)
	require.NoError(t, err)

	assert.InDelta(t, freeStep.Reward[Human]-0.5*4, step.Reward[Human], 1e-12)
	assert.Equal(t, freeStep.Reward[Robot], step.Reward[Robot])
}

func TestDeterminism(t *testing.T) {
	c := NewConfig(Merging)
	c.RandomStart = true
	c.Seed = 11

	a := newEnv(t, c)
	b := newEnv(t, c)
	assert.True(t, mat.Equal(a.CurrentTimeStep().Observation,
		b.CurrentTimeStep().Observation))

	action := mat.NewVecDense(4, []float64{0.05, 1, -0.05, 0.5})
	for i := 0; i < 50; i++ {
		sa, doneA, errA := a.Step(action)
		sb, doneB, errB := b.Step(action)
		require.NoError(t, errA)
		require.NoError(t, errB)

		require.Equal(t, sa.Observation.RawVector().Data,
			sb.Observation.RawVector().Data)
		require.Equal(t, sa.Reward, sb.Reward)
		require.Equal(t, doneA, doneB)
		if doneA {
			break
		}
	}
}

func TestRandomStartStaysNear(t *testing.T) {
	c := NewConfig(Merging)
	c.RandomStart = true
	c.StartNoise = 0.25
	e := newEnv(t, c)

	for _, name := range e.Agents() {
		car, _ := e.Car(name)
		assert.InDelta(t, 5, car.Position().Y, 0.25)
		assert.InDelta(t, 10, car.Velocity().Norm(), 0.25)
		assert.InDelta(t, 0, car.Velocity().X, 1e-12)
	}
}

func TestUnsupportedRenderMode(t *testing.T) {
	for _, variant := range Variants() {
		e := newEnv(t, NewConfig(variant))
		_, _, err := e.Step(zeros(e))
		require.NoError(t, err)

		before := e.CurrentTimeStep()
		state := mat.VecDenseCopyOf(e.World().State())

		_, err = e.Render("orbit")
		assert.ErrorIs(t, err, env.ErrUnsupportedRenderMode)
		assert.Equal(t, before.Number, e.CurrentTimeStep().Number)
		assert.True(t, mat.Equal(state, e.World().State()))
		assert.False(t, e.World().Rendering())

		step, _, err := e.Step(zeros(e))
		require.NoError(t, err)
		assert.Equal(t, 2, step.Number)
	}

	e := newEnv(t, NewConfig(Merging))
	_, err := e.Render(env.RGBArray)
	assert.ErrorIs(t, err, env.ErrUnsupportedRenderMode)
}

func TestRender(t *testing.T) {
	c := NewConfig(Bottleneck)
	c.PPM = 2
	c.FrameDir = t.TempDir()
	e := newEnv(t, c)

	pixels, err := e.Render(env.RGBArray)
	require.NoError(t, err)
	assert.Equal(t, []int{240, 240, 3}, []int(pixels.Shape()))

	human, err := e.Render(env.Human)
	require.NoError(t, err)
	assert.Nil(t, human)

	frames, err := os.ReadDir(c.FrameDir)
	require.NoError(t, err)
	assert.Len(t, frames, 1)
	assert.True(t, strings.HasSuffix(frames[0].Name(), ".png"))
	assert.FileExists(t, filepath.Join(c.FrameDir, frames[0].Name()))

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{Variant: "Roundabout"}, nil)
	assert.ErrorIs(t, err, env.ErrInvalidConfig)

	_, err = NewMerging(Config{DT: -1}, nil)
	assert.ErrorIs(t, err, env.ErrInvalidConfig)

	_, err = NewMerging(Config{CtrlCostWeight: -1}, nil)
	assert.ErrorIs(t, err, env.ErrInvalidConfig)

	_, err = NewMerging(Config{Width: math.Inf(1)}, nil)
	assert.ErrorIs(t, err, env.ErrInvalidConfig)
}

func TestNegativeTimeLimitDisablesLimit(t *testing.T) {
	c := NewConfig(Merging)
	c.TimeLimit = -1
	e := newEnv(t, c)

	// The robot car reaches the top of the world after 288 steps
	last := run(t, e, 1000)
	require.True(t, last.Last())
	assert.Equal(t, ts.OutOfBounds, last.EndType)
	assert.Greater(t, last.Number, 200)
}

func TestLoadConfig(t *testing.T) {
	src := `
variant: Bottleneck
dt: 0.05
ctrl_cost_weight: 0.1
random_start: true
seed: 3
`
	c, err := LoadConfig(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, Bottleneck, c.Variant)
	assert.Equal(t, 0.05, c.DT)
	assert.True(t, c.RandomStart)
	assert.Equal(t, uint64(3), c.Seed)

	e, err := New(c, nil)
	require.NoError(t, err)
	assert.Equal(t, 60, e.Config().TimeLimit)
	assert.Equal(t, DefaultStartNoise, e.Config().StartNoise)

	_, err = LoadConfig(strings.NewReader("variant: Merging\nspeed: 3\n"))
	assert.ErrorIs(t, err, env.ErrInvalidConfig)

	_, err = LoadConfig(strings.NewReader(""))
	assert.ErrorIs(t, err, env.ErrInvalidConfig)
}
