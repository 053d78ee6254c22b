package fdgraph

import (
	"errors"
	"fmt"
	"strings"

	"oss.terrastruct.com/fdlayout/lib/geo"
)

// ValidationError lists every problem found in a graph.
type ValidationError struct {
	Errors []error
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	for i, err := range ve.Errors {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func (ve *ValidationError) Unwrap() []error {
	return ve.Errors
}

var ErrContainerCycle = errors.New("container cycle")

// Validate checks the structure of g: node ids are non-empty and unique, link ids
// are unique, containers exist and do not nest in a cycle, and sizes are finite and
// non-negative. Links to unknown nodes are allowed; layout leaves them unrouted.
func (g *Graph) Validate() error {
	ve := &ValidationError{}
	errorf := func(format string, args ...interface{}) {
		ve.Errors = append(ve.Errors, fmt.Errorf(format, args...))
	}

	ids := make(map[string]struct{}, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			errorf("node %d: missing id", i)
			continue
		}
		if _, ok := ids[n.ID]; ok {
			errorf("node %#v: duplicate id", n.ID)
		}
		ids[n.ID] = struct{}{}

		if b := n.ContentBounds; b != nil && !validSize(b.Width, b.Height) {
			errorf("node %#v: invalid size %vx%v", n.ID, b.Width, b.Height)
		}
		if b := n.LabelBounds; b != nil && !validSize(b.Width, b.Height) {
			errorf("node %#v: invalid label size %vx%v", n.ID, b.Width, b.Height)
		}
	}

	for _, n := range g.Nodes {
		if n.Container == "" {
			continue
		}
		if n.Container == n.ID {
			ve.Errors = append(ve.Errors, fmt.Errorf("node %#v: %w", n.ID, ErrContainerCycle))
			continue
		}
		if _, ok := ids[n.Container]; !ok {
			errorf("node %#v: unknown container %#v", n.ID, n.Container)
		}
	}
	for _, id := range g.containerCycles() {
		ve.Errors = append(ve.Errors, fmt.Errorf("node %#v: %w", id, ErrContainerCycle))
	}

	linkIDs := make(map[string]struct{}, len(g.Links))
	for _, l := range g.Links {
		if _, ok := linkIDs[l.ID]; ok {
			errorf("link %#v: duplicate id", l.ID)
		}
		linkIDs[l.ID] = struct{}{}

		if b := l.LabelBounds; b != nil && !validSize(b.Width, b.Height) {
			errorf("link %#v: invalid label size %vx%v", l.ID, b.Width, b.Height)
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// containerCycles returns the id of one node of every container cycle longer than one.
func (g *Graph) containerCycles() []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var cycles []string
	for _, n := range g.Nodes {
		var path []*Node
		for cur := n; cur != nil && state[cur.ID] == unvisited; {
			state[cur.ID] = visiting
			path = append(path, cur)
			if cur.Container == "" || cur.Container == cur.ID {
				break
			}
			next := g.Node(cur.Container)
			if next != nil && state[next.ID] == visiting {
				cycles = append(cycles, next.ID)
			}
			cur = next
		}
		for _, p := range path {
			state[p.ID] = done
		}
	}
	return cycles
}

func validSize(w, h float64) bool {
	return w >= 0 && h >= 0 && geo.IsFinite(w) && geo.IsFinite(h)
}
