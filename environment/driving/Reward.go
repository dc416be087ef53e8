package driving

import (
	"math"

	"github.com/samuelfneumann/godriving/agents"
	"github.com/samuelfneumann/godriving/utils/floatutils"
)

// RewardPolicy computes the per-car rewards of a driving task
type RewardPolicy interface {
	// CarReward returns the reward of a car after a world tick, before
	// collision penalties are applied
	CarReward(car *agents.Car) float64

	// TerminalBonus returns the reward added to a car on the last step
	// of an episode
	TerminalBonus(car *agents.Car) float64
}

// Coefficients holds the tunable constants of the driving rewards.
// Each reward policy reads only the coefficients it needs.
type Coefficients struct {
	// ProgressWeight scales the velocity or distance progress term
	ProgressWeight float64

	// LaneCentre is the x coordinate of the centre of the target lane
	// and LaneWeight the penalty per metre of deviation from it
	LaneCentre float64
	LaneWeight float64

	// CtrlCostWeight scales the squared acceleration penalty
	CtrlCostWeight float64

	// TurnStart and TurnEnd delimit the band of y coordinates in which
	// the turning task rewards leftward motion
	TurnStart float64
	TurnEnd   float64

	// GateY and GateScale position and soften the sigmoid gate which
	// switches on the lane penalty of the bottleneck task
	GateY     float64
	GateScale float64

	// Bonus and BonusExponent shape the terminal bonus
	// Bonus * (y/height)^BonusExponent
	Bonus         float64
	BonusExponent float64
}

// ctrlCost returns the acceleration penalty of a car
func (c Coefficients) ctrlCost(car *agents.Car) float64 {
	a := car.Acceleration()
	return c.CtrlCostWeight * a * a
}

// TurningReward rewards a car for driving up the road, turning left
// through the intersection, and then driving back down the road.
type TurningReward struct {
	Coefficients
}

// CarReward implements the RewardPolicy interface
func (t TurningReward) CarReward(car *agents.Car) float64 {
	p, v := car.Position(), car.Velocity()

	var progress float64
	switch {
	case p.Y <= t.TurnStart:
		progress = v.Y
	case p.Y >= t.TurnEnd:
		progress = -v.Y
	default:
		progress = -v.X
	}
	return t.ProgressWeight*progress - t.ctrlCost(car)
}

// TerminalBonus implements the RewardPolicy interface
func (t TurningReward) TerminalBonus(*agents.Car) float64 {
	return 0
}

// MergingReward penalizes a car for its distance from the top of the
// world and from the centre of the merged lane, and pays a bonus at
// the end of the episode which grows sharply with the distance
// travelled.
type MergingReward struct {
	Coefficients
	Height float64
}

// CarReward implements the RewardPolicy interface
func (m MergingReward) CarReward(car *agents.Car) float64 {
	p := car.Position()
	return -m.ProgressWeight*(m.Height-p.Y) -
		m.LaneWeight*math.Abs(p.X-m.LaneCentre) - m.ctrlCost(car)
}

// TerminalBonus implements the RewardPolicy interface
func (m MergingReward) TerminalBonus(car *agents.Car) float64 {
	return m.Bonus * math.Pow(car.Position().Y/m.Height, m.BonusExponent)
}

// BottleneckReward rewards a car for driving up the road and, close to
// the bottleneck, penalizes it for being right of the merged lane
type BottleneckReward struct {
	Coefficients
}

// CarReward implements the RewardPolicy interface
func (b BottleneckReward) CarReward(car *agents.Car) float64 {
	p, v := car.Position(), car.Velocity()
	gate := floatutils.Sigmoid((p.Y - b.GateY) / b.GateScale)
	return b.ProgressWeight*v.Y - gate*math.Max(p.X-b.LaneCentre, 0) -
		b.ctrlCost(car)
}

// TerminalBonus implements the RewardPolicy interface
func (b BottleneckReward) TerminalBonus(*agents.Car) float64 {
	return 0
}
