package fdforce

import (
	"math"

	"oss.terrastruct.com/fdlayout/lib/geo"
)

// simulation holds the per call state of the force simulation. Nodes are addressed
// by slot, their index in the context. Positions and displacements live in slices
// parallel to the slots and positions are written back once the simulation ends.
type simulation struct {
	lc    Context
	nodes []Node
	// slots of the nodes taking part in the simulation, i.e. the nodes of the
	// current containment level
	slots map[string]int

	// springs are links resolved to the slots of their visible endpoints
	springs [][2]int

	pos  []geo.Vector
	disp []geo.Vector

	k  float64
	t0 float64
	t  float64
}

func newSimulation(lc Context, p params) *simulation {
	n := lc.NodeCount()
	s := &simulation{
		lc:    lc,
		nodes: make([]Node, n),
		slots: make(map[string]int, n),
		pos:   make([]geo.Vector, n),
		disp:  make([]geo.Vector, n),
		k:     p.optLinkLength,
		t0:    p.initialTemp,
		t:     p.initialTemp,
	}
	for i := 0; i < n; i++ {
		node := lc.NodeByIndex(i)
		s.nodes[i] = node
		s.slots[node.ID()] = i
	}
	for i := 0; i < lc.LinkCount(); i++ {
		link := lc.LinkByIndex(i)
		start, ok := s.visibleSlot(link.StartID())
		if !ok {
			continue
		}
		end, ok := s.visibleSlot(link.EndID())
		if !ok {
			continue
		}
		s.springs = append(s.springs, [2]int{start, end})
	}
	return s
}

// visibleSlot finds the slot of the node a link end is drawn to at the current
// level. That is the node itself for links within the level, or the closest
// container taking part in the simulation for links into nested nodes.
func (s *simulation) visibleSlot(id string) (int, bool) {
	seen := make(map[string]struct{})
	for id != "" {
		if slot, ok := s.slots[id]; ok {
			return slot, true
		}
		if _, ok := seen[id]; ok {
			return 0, false
		}
		seen[id] = struct{}{}

		node := s.lc.NodeByID(id)
		if node == nil {
			return 0, false
		}
		id = node.ContainerID()
	}
	return 0, false
}

// seed places nodes on a circle so that no two start at the same position.
func (s *simulation) seed() {
	angleStep := 2 * math.Pi / float64(len(s.nodes))
	for i := range s.nodes {
		s.pos[i] = geo.NewVectorFromProperties(s.k, angleStep*float64(i))
		s.nodes[i].SetPosition(s.pos[i].ToPoint())
	}
}

func (s *simulation) run() {
	for i := 0; i < ITERATIONS; i++ {
		s.step()
		s.t = s.temperature(i + 1)
	}
	for i, node := range s.nodes {
		node.SetPosition(s.pos[i].ToPoint())
	}
	s.disp = nil
}

// temperature after i iterations. It decreases linearly to 0 at ITERATIONS.
func (s *simulation) temperature(i int) float64 {
	return s.t0 * (1 - float64(i)/ITERATIONS)
}

func (s *simulation) step() {
	for i := range s.disp {
		s.disp[i] = geo.Vector{}
	}
	s.repulse()
	s.attract()
	s.gravitate()

	// displacement is limited by the temperature
	for i := range s.pos {
		s.pos[i] = s.pos[i].Add(s.disp[i].Limit(s.t))
	}
}

// repulse pushes every pair of nodes apart with a force of k²/d.
func (s *simulation) repulse() {
	k2 := s.k * s.k
	for i := range s.pos {
		for j := range s.pos {
			if i == j {
				continue
			}
			diff := s.pos[i].Minus(s.pos[j])
			d := diff.Length()
			var dir geo.Vector
			if diff.IsZero() {
				// coincident nodes are split along the x axis, lower slot to the right
				dir = geo.NewVector(1, 0)
				if i > j {
					dir = geo.NewVector(-1, 0)
				}
			} else {
				dir = diff.Unit()
			}
			d = math.Max(d, MIN_DISTANCE)
			s.disp[i] = s.disp[i].Add(dir.Multiply(k2 / d))
		}
	}
}

// attract pulls linked nodes together with a force of d²/k.
func (s *simulation) attract() {
	for _, sp := range s.springs {
		diff := s.pos[sp[0]].Minus(s.pos[sp[1]])
		// (diff / d) * (d² / k)
		f := diff.Multiply(diff.Length() / s.k)
		s.disp[sp[0]] = s.disp[sp[0]].Minus(f)
		s.disp[sp[1]] = s.disp[sp[1]].Add(f)
	}
}

// gravitate pulls every node towards the origin so that disconnected nodes and
// branches are not pushed far away.
func (s *simulation) gravitate() {
	for i, p := range s.pos {
		// (p / d) * (d² / k) * GRAVITY
		f := p.Multiply(p.Length() / s.k * GRAVITY)
		s.disp[i] = s.disp[i].Minus(f)
	}
}
