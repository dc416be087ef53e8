package world

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"
	"github.com/samuelfneumann/godriving/agents"
)

// boundsPadding pads bounding boxes so that degenerate (zero-area)
// shapes still produce valid R-tree rectangles
const boundsPadding float64 = 1e-6

// Contact is a pair of colliding agents. I and J are the insertion
// indices of A and B in the world, with I < J.
type Contact struct {
	I, J int
	A, B agents.Agent
}

// spatial adapts an agent to the rtreego.Spatial interface using the
// bounding box of its current shape
type spatial struct {
	index int
	agent agents.Agent
	rect  rtreego.Rect
}

func (s *spatial) Bounds() rtreego.Rect {
	return s.rect
}

func newSpatial(index int, a agents.Agent) (*spatial, error) {
	box := a.Shape().Bounds()
	for _, v := range []float64{box.Min.X, box.Min.Y, box.Max.X, box.Max.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Errorf("newSpatial: agent %v has unbounded "+
				"shape", index)
		}
	}
	rect, err := rtreego.NewRect(
		rtreego.Point{box.Min.X - boundsPadding, box.Min.Y - boundsPadding},
		[]float64{
			box.Max.X - box.Min.X + 2*boundsPadding,
			box.Max.Y - box.Min.Y + 2*boundsPadding,
		},
	)
	if err != nil {
		return nil, err
	}
	return &spatial{index, a, rect}, nil
}

// Collisions returns all pairs of agents currently in collision,
// ordered by the insertion index of the first and then the second
// agent. Candidate pairs are found with an R-tree over the agents'
// bounding boxes and confirmed with the exact shape test.
//
// Agents whose bounding box cannot be indexed (for example because
// their pose is not finite) are tested against every other agent.
func (w *World) Collisions() []Contact {
	spatials := make([]rtreego.Spatial, 0, len(w.agents))
	indexed := make([]*spatial, 0, len(w.agents))
	var unindexed []int

	for i, a := range w.agents {
		if !a.Collidable() {
			continue
		}
		s, err := newSpatial(i, a)
		if err != nil {
			unindexed = append(unindexed, i)
			continue
		}
		spatials = append(spatials, s)
		indexed = append(indexed, s)
	}

	seen := make(map[[2]int]bool)
	var contacts []Contact
	record := func(i, j int) {
		if i > j {
			i, j = j, i
		}
		if i == j || seen[[2]int{i, j}] {
			return
		}
		seen[[2]int{i, j}] = true
		if agents.Collide(w.agents[i], w.agents[j]) {
			contacts = append(contacts, Contact{
				I: i,
				J: j,
				A: w.agents[i],
				B: w.agents[j],
			})
		}
	}

	if len(spatials) > 0 {
		tree := rtreego.NewTree(2, 2, 8, spatials...)
		for _, s := range indexed {
			for _, other := range tree.SearchIntersect(s.rect) {
				record(s.index, other.(*spatial).index)
			}
		}
	}

	for _, i := range unindexed {
		for j, a := range w.agents {
			if a.Collidable() {
				record(i, j)
			}
		}
	}

	sort.Slice(contacts, func(a, b int) bool {
		if contacts[a].I != contacts[b].I {
			return contacts[a].I < contacts[b].I
		}
		return contacts[a].J < contacts[b].J
	})
	return contacts
}
