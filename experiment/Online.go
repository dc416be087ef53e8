// Package experiment implements functionality for running experiments
// in which controllers drive the agents of an environment
package experiment

import (
	"github.com/pkg/errors"
	env "github.com/samuelfneumann/godriving/environment"
	"github.com/samuelfneumann/godriving/experiment/trackers"
	ts "github.com/samuelfneumann/godriving/timestep"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Controller selects the joint action of all agents of an environment
// given the latest timestep
type Controller interface {
	Act(step ts.TimeStep) *mat.VecDense
}

// Online is an experiment that runs a controller online in an
// environment for a fixed budget of timesteps, sending every timestep
// to its trackers.
type Online struct {
	env.Environment
	Controller

	maxSteps     int
	currentSteps int
	episodes     int

	trackers   []trackers.Tracker
	renderMode env.RenderMode
	logger     *zap.Logger
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given controller. The steps parameter determines
// how many timesteps the experiment is run for, and t determines which
// data is tracked. A nil logger disables logging.
func NewOnline(e env.Environment, c Controller, steps int, logger *zap.Logger,
	t ...trackers.Tracker) *Online {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Online{
		Environment: e,
		Controller:  c,
		maxSteps:    steps,
		trackers:    t,
		logger:      logger,
	}
}

// Register registers a Tracker with the experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t trackers.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RenderEvery makes the experiment render the environment in the given
// mode after every timestep. An empty mode disables rendering.
func (o *Online) RenderEvery(mode env.RenderMode) {
	o.renderMode = mode
}

// Steps returns the number of timesteps taken so far
func (o *Online) Steps() int {
	return o.currentSteps
}

// Episodes returns the number of episodes started so far
func (o *Online) Episodes() int {
	return o.episodes
}

// RunEpisode runs a single episode of the experiment, returning
// whether the step budget has been used up.
//
// An episode aborted because an agent left the world is tracked as
// ending on the failing timestep and is not an error. Any other
// environment error stops the episode and is returned.
func (o *Online) RunEpisode() (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return false, errors.Wrap(err, "runEpisode")
	}
	o.episodes++
	o.track(step)
	if err := o.render(); err != nil {
		return false, err
	}

	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		action := o.Controller.Act(step)
		step, _, err = o.Environment.Step(action)
		if errors.Is(err, env.ErrOutOfBounds) {
			o.logger.Warn("episode aborted",
				zap.Int("episode", o.episodes),
				zap.Int("step", step.Number),
				zap.Error(err),
			)
			step.SetEnd(ts.OutOfBounds)
			o.track(step)
			break
		} else if err != nil {
			return false, errors.Wrap(err, "runEpisode")
		}

		o.track(step)
		if err := o.render(); err != nil {
			return false, err
		}
	}

	if step.Last() {
		o.logger.Debug("episode finished",
			zap.Int("episode", o.episodes),
			zap.Int("steps", step.Number),
			zap.Stringer("end", step.EndType),
			zap.Float64("return", step.TotalReward()),
		)
	}
	return o.currentSteps >= o.maxSteps, nil
}

// Run runs episodes until the step budget is used up
func (o *Online) Run() error {
	for {
		ended, err := o.RunEpisode()
		if err != nil || ended {
			return err
		}
	}
}

// RunEpisodes runs at most n episodes, stopping early if the step
// budget is used up. The callback, if not nil, is called after each
// episode.
func (o *Online) RunEpisodes(n int, callback func(episode int)) error {
	for i := 0; i < n; i++ {
		ended, err := o.RunEpisode()
		if err != nil {
			return err
		}
		if callback != nil {
			callback(o.episodes)
		}
		if ended {
			return nil
		}
	}
	return nil
}

// Save saves all the data cached by the trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return errors.Wrap(err, "save")
		}
	}
	return nil
}

// track sends the timestep to each tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

func (o *Online) render() error {
	if o.renderMode == "" {
		return nil
	}
	if _, err := o.Environment.Render(o.renderMode); err != nil {
		return errors.Wrap(err, "render")
	}
	return nil
}
