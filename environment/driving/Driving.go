// Package driving implements multi-agent driving tasks in which two
// cars, a human driven car H and a robot car R, share a road lined by
// buildings.
//
// Three variants are provided: Turning, where the cars turn left at an
// intersection; Merging, where the cars drive side by side and merge
// into a single lane; and Bottleneck, where a divider closes one of the
// lanes half way up the road.
package driving

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/godriving/agents"
	env "github.com/samuelfneumann/godriving/environment"
	"github.com/samuelfneumann/godriving/geometry"
	ts "github.com/samuelfneumann/godriving/timestep"
	"github.com/samuelfneumann/godriving/world"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// startSize is the number of starting features of a car: its x and y
// coordinates and its speed
const startSize int = 3

// MaxSteering and MaxAcceleration describe the nominal range of the
// controls of a car. Controls are not clipped to this range.
const (
	MaxSteering     float64 = math.Pi / 4
	MaxAcceleration float64 = 4
)

// status is the lifecycle state of an environment
type status int

const (
	uninitialized status = iota
	ready
	terminated
	faulted
)

func (s status) String() string {
	switch s {
	case ready:
		return "ready"
	case terminated:
		return "terminated"
	case faulted:
		return "faulted"
	default:
		return "uninitialized"
	}
}

var _ env.Environment = &Env{}

// Env implements a driving task. An Env is constructed for a single
// variant and reused across episodes.
type Env struct {
	variant Variant
	config  Config
	logger  *zap.Logger

	world  *world.World
	reward RewardPolicy
	ender  env.StepLimit

	starter env.Starter
	layout  Layout

	cars  map[string]*agents.Car
	names []string

	status   status
	episode  int
	lastStep ts.TimeStep
}

// New returns a new, unreset driving environment for the variant named
// by the configuration. A nil logger disables logging.
func New(c Config, logger *zap.Logger) (*Env, error) {
	variant, ok := Lookup(c.Variant)
	if !ok {
		return nil, errors.Wrapf(env.ErrInvalidConfig,
			"new: unknown variant %q (have %v)", c.Variant, Variants())
	}

	c = c.withDefaults(variant.Defaults)
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "new")
	}

	w, err := world.New(c.DT, c.Width, c.Height, c.PPM)
	if err != nil {
		return nil, errors.Wrap(env.ErrInvalidConfig, err.Error())
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("variant", string(variant.Name)))

	layout := variant.Layout(c)
	names := make([]string, len(layout.Cars))
	start := make([]float64, 0, startSize*len(layout.Cars))
	for i, car := range layout.Cars {
		names[i] = car.Name
		start = append(start, car.Position.X, car.Position.Y,
			car.Velocity.Norm())
	}

	var starter env.Starter = env.NewFixedStarter(start)
	if c.RandomStart {
		starter = env.NewUniformStarter(env.Around(start, c.StartNoise),
			c.Seed)
	}

	e := &Env{
		variant: variant,
		config:  c,
		logger:  logger,
		world:   w,
		reward:  variant.Reward(c),
		ender:   env.NewStepLimit(c.TimeLimit),
		starter: starter,
		layout:  layout,
		cars:    make(map[string]*agents.Car, len(names)),
		names:   names,
	}

	logger.Debug("created environment",
		zap.Float64("dt", c.DT),
		zap.Float64("width", c.Width),
		zap.Float64("height", c.Height),
		zap.Int("timeLimit", c.TimeLimit),
		zap.Bool("randomStart", c.RandomStart),
	)
	return e, nil
}

// NewTurning returns a new Turning environment
func NewTurning(c Config, logger *zap.Logger) (*Env, error) {
	c.Variant = Turning
	return New(c, logger)
}

// NewMerging returns a new Merging environment
func NewMerging(c Config, logger *zap.Logger) (*Env, error) {
	c.Variant = Merging
	return New(c, logger)
}

// NewBottleneck returns a new Bottleneck environment
func NewBottleneck(c Config, logger *zap.Logger) (*Env, error) {
	c.Variant = Bottleneck
	return New(c, logger)
}

// Config returns the resolved configuration of the environment, with
// all defaults filled in
func (e *Env) Config() Config {
	return e.config
}

// Variant returns the variant of the environment
func (e *Env) Variant() Variant {
	return e.variant
}

// World returns the world simulated by the environment
func (e *Env) World() *world.World {
	return e.world
}

// Car returns the car with the given name in the current episode
func (e *Env) Car(name string) (*agents.Car, bool) {
	car, ok := e.cars[name]
	return car, ok
}

// Agents implements the env.Environment interface
func (e *Env) Agents() []string {
	names := make([]string, len(e.names))
	copy(names, e.names)
	return names
}

// Episode returns the number of episodes started so far
func (e *Env) Episode() int {
	return e.episode
}

// Reset implements the env.Environment interface. The world is
// cleared and repopulated with the buildings and cars of the variant,
// the step counter is zeroed, and the first timestep is returned.
func (e *Env) Reset() (ts.TimeStep, error) {
	e.world.Reset()
	for _, b := range e.layout.Buildings {
		e.world.Add(b)
	}

	start := e.starter.Start()
	for i, cs := range e.layout.Cars {
		x := start.AtVec(startSize * i)
		y := start.AtVec(startSize*i + 1)
		speed := start.AtVec(startSize*i + 2)

		car := agents.NewCar(geometry.NewPoint(x, y), cs.Heading, cs.Color)
		car.SetVelocity(scaleSpeed(cs, speed))

		e.cars[cs.Name] = car
		e.world.Add(car)
	}

	e.status = ready
	e.episode++

	rewards := make(map[string]float64, len(e.names))
	for _, name := range e.names {
		rewards[name] = 0
	}
	e.lastStep = ts.New(ts.First, rewards, e.world.State(), 0)

	e.logger.Debug("reset", zap.Int("episode", e.episode))
	return e.lastStep, nil
}

// scaleSpeed returns the starting velocity of a car with the given
// speed, in the direction of the velocity in its layout or, if the
// layout velocity is zero, along its heading. Scaling a layout
// velocity to its own speed leaves it unchanged.
func scaleSpeed(cs CarStart, speed float64) geometry.Point {
	norm := cs.Velocity.Norm()
	if norm == 0 {
		return geometry.FromPolar(speed, cs.Heading)
	}
	if speed == norm {
		return cs.Velocity
	}
	return cs.Velocity.Scale(speed / norm)
}

// Step implements the env.Environment interface. The action holds the
// (steering, acceleration) controls of each car in the order given by
// Agents.
//
// Each step the controls are applied, the world is ticked, the rewards
// are computed, and collisions, out of bounds cars, and the step limit
// are checked in that order. On the last step of an episode the
// terminal bonus of each car is added to its reward.
func (e *Env) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	switch e.status {
	case uninitialized:
		return ts.TimeStep{}, false, errors.Wrap(env.ErrNotReset, "step")
	case terminated, faulted:
		return e.lastStep, true, errors.Wrapf(env.ErrEpisodeOver,
			"step: environment is %v", e.status)
	}

	if action == nil {
		return e.lastStep, false, errors.Wrap(env.ErrInvalidAction,
			"step: nil action")
	}
	if err := e.world.SetControls(action); err != nil {
		return e.lastStep, false, errors.Wrap(env.ErrInvalidAction,
			err.Error())
	}
	e.world.Tick()

	rewards := make(map[string]float64, len(e.names))
	for _, name := range e.names {
		rewards[name] = e.reward.CarReward(e.cars[name])
	}
	step := ts.New(ts.Mid, rewards, e.world.State(), e.lastStep.Number+1)

	e.collide(&step)

	for _, name := range e.names {
		car := e.cars[name]
		if !e.outOfBounds(name, car) {
			continue
		}

		if e.variant.Rules.OutOfBounds == Fail {
			e.status = faulted
			e.lastStep = step
			e.logger.Warn("car out of bounds",
				zap.Int("episode", e.episode),
				zap.Int("step", step.Number),
				zap.String("car", name),
				zap.Stringer("position", car.Position()),
			)
			return step, false, errors.Wrapf(env.ErrOutOfBounds,
				"step: car %v at %v", name, car.Position())
		}
		step.SetEnd(ts.OutOfBounds)
	}

	e.ender.End(&step)

	if step.Last() {
		for _, name := range e.names {
			step.Reward[name] += e.reward.TerminalBonus(e.cars[name])
		}
		e.status = terminated

		e.logger.Debug("episode ended",
			zap.Int("episode", e.episode),
			zap.Int("steps", step.Number),
			zap.Stringer("end", step.EndType),
		)
	}

	e.lastStep = step
	return step, step.Last(), nil
}

// collide applies the collision rules to the current world state
func (e *Env) collide(step *ts.TimeStep) {
	rules := e.variant.Rules

	for _, contact := range e.world.Collisions() {
		nameA, carA := e.carName(contact.A)
		nameB, carB := e.carName(contact.B)

		switch {
		case carA && carB:
			step.Reward[nameA] -= rules.CarCollisionPenalty
			step.Reward[nameB] -= rules.CarCollisionPenalty

		case carA && isBuilding(contact.B):
			step.Reward[nameA] -= rules.BuildingCollisionPenalty

		case carB && isBuilding(contact.A):
			step.Reward[nameB] -= rules.BuildingCollisionPenalty

		default:
			continue
		}
		step.SetEnd(ts.Collision)
	}
}

// carName returns the name of a if it is one of the cars of the
// current episode
func (e *Env) carName(a agents.Agent) (string, bool) {
	for name, car := range e.cars {
		if agents.Agent(car) == a {
			return name, true
		}
	}
	return "", false
}

func isBuilding(a agents.Agent) bool {
	_, ok := a.(*agents.Building)
	return ok
}

// outOfBounds returns whether the named car has left the world. The
// robot car leaves through the top of the world, any car leaves
// through the bottom, and in variants checking the left edge, any car
// leaves through the left edge.
func (e *Env) outOfBounds(name string, car *agents.Car) bool {
	p := car.Position()
	return (name == Robot && p.Y >= e.config.Height) || p.Y <= 0 ||
		(e.variant.Rules.LeftEdge && p.X <= 0)
}

// CurrentTimeStep implements the env.Environment interface
func (e *Env) CurrentTimeStep() ts.TimeStep {
	return e.lastStep
}

// Render implements the env.Environment interface. In the Human mode
// the world is drawn onto its render surface and nil is returned; in
// the RGBArray mode the drawn surface is also returned. If the
// configuration names a frame directory, each rendered frame is saved
// there as a PNG.
//
// Rendering in an unsupported mode returns ErrUnsupportedRenderMode
// and leaves the environment untouched.
func (e *Env) Render(mode env.RenderMode) (tensor.Tensor, error) {
	if !e.variant.Supports(mode) {
		return nil, errors.Wrapf(env.ErrUnsupportedRenderMode,
			"render: %v does not support mode %q", e.variant.Name, mode)
	}

	if err := e.world.Render(); err != nil {
		return nil, errors.Wrap(err, "render")
	}

	if e.config.FrameDir != "" {
		name := fmt.Sprintf("%v-%04d-%05d.png", e.variant.Name, e.episode,
			e.lastStep.Number)
		if err := e.world.SaveFrame(filepath.Join(e.config.FrameDir,
			name)); err != nil {
			return nil, errors.Wrap(err, "render")
		}
	}

	if mode == env.RGBArray {
		return e.world.Pixels(), nil
	}
	return nil, nil
}

// Close implements the env.Environment interface. The render surface
// is released; Close may be called more than once.
func (e *Env) Close() error {
	return e.world.Close()
}

// ObservationSpec implements the env.Environment interface. Positions
// are bounded by the world, headings and velocities are unbounded.
func (e *Env) ObservationSpec() env.Spec {
	size := agents.ObservationSize * len(e.names)
	lower := make([]float64, 0, size)
	upper := make([]float64, 0, size)

	inf := math.Inf(1)
	for range e.names {
		lower = append(lower, 0, 0, -inf, -inf, -inf)
		upper = append(upper, e.config.Width, e.config.Height, inf, inf, inf)
	}

	return env.NewSpec(mat.NewVecDense(size, nil), env.Observation,
		mat.NewVecDense(size, lower), mat.NewVecDense(size, upper),
		env.Continuous)
}

// ActionSpec implements the env.Environment interface. The bounds are
// the nominal control ranges MaxSteering and MaxAcceleration.
func (e *Env) ActionSpec() env.Spec {
	size := agents.ControlSize * len(e.names)
	lower := make([]float64, 0, size)
	upper := make([]float64, 0, size)

	for range e.names {
		lower = append(lower, -MaxSteering, -MaxAcceleration)
		upper = append(upper, MaxSteering, MaxAcceleration)
	}

	return env.NewSpec(mat.NewVecDense(size, nil), env.Action,
		mat.NewVecDense(size, lower), mat.NewVecDense(size, upper),
		env.Continuous)
}

func (e *Env) String() string {
	return fmt.Sprintf("%v{episode: %v, step: %v, status: %v}",
		e.variant.Name, e.episode, e.lastStep.Number, e.status)
}
