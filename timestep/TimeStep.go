// Package timestep implements timesteps of the agent-environment
// interaction in multi-agent environments
package timestep

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either
// first environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType describes why an episode ended
type EndType int

const (
	// Unended denotes a timestep which did not end the episode
	Unended EndType = iota

	// Timeout denotes an episode ended by reaching its step limit
	Timeout

	// Collision denotes an episode ended by a collision between two
	// agents or between an agent and a static obstacle
	Collision

	// OutOfBounds denotes an episode ended by an agent leaving the
	// bounds of the world
	OutOfBounds
)

func (e EndType) String() string {
	switch e {
	case Timeout:
		return "Timeout"
	case Collision:
		return "Collision"
	case OutOfBounds:
		return "OutOfBounds"
	default:
		return "Unended"
	}
}

// TimeStep packages together a single timestep in a multi-agent
// environment. Rewards are keyed by agent name.
type TimeStep struct {
	StepType
	EndType
	Reward      map[string]float64
	Observation *mat.VecDense
	Number      int
	Info        map[string]interface{}
}

// New returns a new TimeStep. The reward map is used as is.
func New(t StepType, r map[string]float64, o *mat.VecDense, n int) TimeStep {
	return TimeStep{
		StepType:    t,
		EndType:     Unended,
		Reward:      r,
		Observation: o,
		Number:      n,
		Info:        map[string]interface{}{},
	}
}

// First returns whether a TimeStep is the first in an episode
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an episode
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an episode
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd marks the TimeStep as the last in its episode, ending for the
// reason e. The first recorded reason is kept.
func (t *TimeStep) SetEnd(e EndType) {
	t.StepType = Last
	if t.EndType == Unended {
		t.EndType = e
	}
}

// TotalReward returns the sum of the rewards of all agents
func (t TimeStep) TotalReward() float64 {
	var total float64
	for _, name := range t.Agents() {
		total += t.Reward[name]
	}
	return total
}

// Agents returns the names of the rewarded agents in sorted order
func (t TimeStep) Agents() []string {
	names := make([]string, 0, len(t.Reward))
	for name := range t.Reward {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t TimeStep) String() string {
	var rewards strings.Builder
	for i, name := range t.Agents() {
		if i > 0 {
			rewards.WriteString(", ")
		}
		fmt.Fprintf(&rewards, "%v: %.2f", name, t.Reward[name])
	}

	str := "TimeStep | Type: %v  |  End: %v  |  Rewards:  {%v}  |  " +
		"Step Number:  %v"
	return fmt.Sprintf(str, t.StepType, t.EndType, rewards.String(), t.Number)
}
