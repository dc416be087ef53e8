package driving

import (
	"image/color"
	"math"

	"github.com/samuelfneumann/godriving/agents"
	env "github.com/samuelfneumann/godriving/environment"
	"github.com/samuelfneumann/godriving/geometry"
)

// Names of the two cars in every driving task. The human driven car H
// is always added to the world before the robot car R, so observations
// and actions are laid out as (H, R).
const (
	Human = "H"
	Robot = "R"
)

// OutOfBoundsPolicy determines what happens when a car leaves the world
type OutOfBoundsPolicy int

const (
	// EndEpisode ends the episode normally
	EndEpisode OutOfBoundsPolicy = iota

	// Fail treats leaving the world as a control failure: the step
	// returns env.ErrOutOfBounds and the episode cannot be continued
	Fail
)

// Rules holds the termination and penalty rules of a driving task
type Rules struct {
	// CarCollisionPenalty is subtracted from the reward of both cars
	// involved in a car to car collision
	CarCollisionPenalty float64

	// BuildingCollisionPenalty is subtracted from the reward of a car
	// once per building it collides with
	BuildingCollisionPenalty float64

	OutOfBounds OutOfBoundsPolicy

	// LeftEdge additionally ends the episode when a car reaches the
	// left edge of the world
	LeftEdge bool
}

// CarStart describes the initial state of a car
type CarStart struct {
	Name     string
	Position geometry.Point
	Heading  float64
	Velocity geometry.Point
	Color    color.Color
}

// Layout describes the agents placed in the world at the start of an
// episode
type Layout struct {
	Buildings []*agents.Building
	Cars      []CarStart
}

// Variant describes a driving task
type Variant struct {
	Name VariantName

	// Defaults holds the default configuration of the variant
	Defaults Config

	Rules       Rules
	RenderModes []env.RenderMode

	Layout func(c Config) Layout
	Reward func(c Config) RewardPolicy
}

// Supports returns whether the variant can be rendered in mode
func (v Variant) Supports(mode env.RenderMode) bool {
	for _, m := range v.RenderModes {
		if m == mode {
			return true
		}
	}
	return false
}

const (
	// laneCentre is the x coordinate of the single lane that the cars
	// must merge into
	laneCentre float64 = 58.5

	collisionPenalty float64 = 200
)

var variants = map[VariantName]Variant{
	Turning:    turning,
	Merging:    merging,
	Bottleneck: bottleneck,
}

// Lookup returns the registered variant with the given name
func Lookup(name VariantName) (Variant, bool) {
	v, ok := variants[name]
	return v, ok
}

// building returns a default coloured building
func building(x, y, length, width float64) *agents.Building {
	return agents.NewBuilding(geometry.NewPoint(x, y),
		geometry.NewPoint(length, width), nil)
}

// turning is an intersection: the road runs up the middle of the world
// and a side road leaves to the left. The robot car follows the human
// car and must turn left.
var turning = Variant{
	Name: Turning,
	Defaults: Config{
		DT:     0.04,
		Width:  120,
		Height: 120,
	},
	Rules: Rules{
		CarCollisionPenalty:      collisionPenalty,
		BuildingCollisionPenalty: collisionPenalty,
		OutOfBounds:              EndEpisode,
		LeftEdge:                 true,
	},
	RenderModes: []env.RenderMode{env.Human},
	Layout: func(Config) Layout {
		return Layout{
			Buildings: []*agents.Building{
				building(28.5, 40, 57, 80),
				building(28.5, 103, 57, 34),
				building(91.5, 60, 57, 120),
			},
			Cars: []CarStart{
				{Human, geometry.NewPoint(laneCentre, 10), math.Pi / 2,
					geometry.NewPoint(0, 7), agents.Red},
				{Robot, geometry.NewPoint(laneCentre, 5), math.Pi / 2,
					geometry.NewPoint(0, 7), agents.Blue},
			},
		}
	},
	Reward: func(c Config) RewardPolicy {
		return TurningReward{Coefficients{
			ProgressWeight: 0.1,
			CtrlCostWeight: c.CtrlCostWeight,
			TurnStart:      80,
			TurnEnd:        86,
		}}
	},
}

// mergingCars places the two cars side by side at the bottom of the
// road
func mergingCars(speed float64) []CarStart {
	return []CarStart{
		{Human, geometry.NewPoint(laneCentre, 5), math.Pi / 2,
			geometry.NewPoint(0, speed), agents.Red},
		{Robot, geometry.NewPoint(61.5, 5), math.Pi / 2,
			geometry.NewPoint(0, speed), agents.Blue},
	}
}

// merging is a straight road between two buildings which both cars
// drive up side by side, merging into the centre of the road.
var merging = Variant{
	Name: Merging,
	Defaults: Config{
		DT:        0.04,
		Width:     120,
		Height:    120,
		TimeLimit: 200,
	},
	Rules: Rules{
		CarCollisionPenalty:      collisionPenalty,
		BuildingCollisionPenalty: collisionPenalty,
		OutOfBounds:              EndEpisode,
	},
	RenderModes: []env.RenderMode{env.Human},
	Layout: func(Config) Layout {
		return Layout{
			Buildings: []*agents.Building{
				building(28.5, 60, 57, 120),
				building(91.5, 60, 57, 120),
			},
			Cars: mergingCars(10),
		}
	},
	Reward: func(c Config) RewardPolicy {
		return MergingReward{
			Coefficients: Coefficients{
				ProgressWeight: 0.008,
				LaneCentre:     laneCentre,
				LaneWeight:     0.01,
				CtrlCostWeight: c.CtrlCostWeight,
				Bonus:          collisionPenalty,
				BonusExponent:  4,
			},
			Height: c.Height,
		}
	},
}

// bottleneck is the merging road with a divider in the upper half
// which closes the right lane. Collisions end the episode without a
// penalty, and leaving the world is a control failure.
var bottleneck = Variant{
	Name: Bottleneck,
	Defaults: Config{
		DT:        0.1,
		Width:     120,
		Height:    120,
		TimeLimit: 60,
	},
	Rules: Rules{
		OutOfBounds: Fail,
	},
	RenderModes: []env.RenderMode{env.Human, env.RGBArray},
	Layout: func(Config) Layout {
		return Layout{
			Buildings: []*agents.Building{
				building(28.5, 60, 57, 120),
				building(91.5, 60, 57, 120),
				building(62, 90, 2, 60),
			},
			Cars: mergingCars(10),
		}
	},
	Reward: func(c Config) RewardPolicy {
		return BottleneckReward{Coefficients{
			ProgressWeight: 0.1,
			LaneCentre:     laneCentre,
			CtrlCostWeight: c.CtrlCostWeight,
			GateY:          60,
			GateScale:      7,
		}}
	},
}
