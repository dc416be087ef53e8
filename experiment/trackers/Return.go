package trackers

import (
	"fmt"

	ts "github.com/samuelfneumann/godriving/timestep"
)

// Return tracks and saves the episodic return of each agent in an
// experiment. When an environment returns a TimeStep, this Tracker
// extracts the reward of each agent and accumulates the return of each
// agent for each episode in the experiment.
//
// Note: An episode must finish for this Tracker to save its data.
// If the last episode in an experiment does not finish, that episode's
// return will not be saved.
type Return struct {
	lastTimeStep   int
	currentReturn  map[string]float64
	episodeReturns map[string][]float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) *Return {
	return &Return{
		lastTimeStep:   -1,
		currentReturn:  make(map[string]float64),
		episodeReturns: make(map[string][]float64),
		filename:       filename,
	}
}

// Track tracks the rewards seen on a timestep. By calling this method
// on every timestep, the Tracker will store all rewards seen in the
// episode, and save the cumulative reward of each agent for that
// episode as its episodic return.
//
// Track panics if it is called for non-sequential timesteps
func (r *Return) Track(step ts.TimeStep) {
	if r.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("track: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v were tracked",
			r.lastTimeStep, step.Number))
	}

	for name, reward := range step.Reward {
		r.currentReturn[name] += reward
	}
	r.lastTimeStep = step.Number

	if step.Last() {
		// Every agent seen in any episode gets an entry, so that the
		// returns of all agents stay aligned by episode
		for name := range r.episodeReturns {
			if _, ok := r.currentReturn[name]; !ok {
				r.currentReturn[name] = 0
			}
		}
		for name, ret := range r.currentReturn {
			r.episodeReturns[name] = append(r.episodeReturns[name], ret)
		}

		r.currentReturn = make(map[string]float64)
		r.lastTimeStep = -1
	}
}

// Returns returns the episodic returns of the agent with the given name
func (r *Return) Returns(name string) []float64 {
	returns := make([]float64, len(r.episodeReturns[name]))
	copy(returns, r.episodeReturns[name])
	return returns
}

// Save saves the data tracked by the Return Tracker to disk
func (r *Return) Save() error {
	return save(r.filename, r.episodeReturns)
}

// LoadReturns loads the episodic returns saved by a Return tracker,
// keyed by agent name
func LoadReturns(filename string) (map[string][]float64, error) {
	var returns map[string][]float64
	err := load(filename, &returns)
	return returns, err
}
