// Package fdgraph is the in-memory graph the layout engines run on: nodes with
// sizes and optional containers, links between them, and global layout attributes.
//
// Node positions are relative to the position of their container. Link points and
// link label positions are relative to the position of the link's lowest common
// container, see LinkContainer.
package fdgraph

import (
	"fmt"

	"oss.terrastruct.com/fdlayout/lib/color"
	"oss.terrastruct.com/fdlayout/lib/geo"
	"oss.terrastruct.com/fdlayout/lib/label"
)

// DEFAULT_NODE_SIZE is the width and height of nodes given no size.
const DEFAULT_NODE_SIZE = 40.

type Graph struct {
	Attributes map[string]string
	Nodes      []*Node
	Links      []*Link

	nodesByID map[string]*Node
}

type Node struct {
	ID        string
	Group     string
	Container string
	Color     string

	Position *geo.Point
	// ContentBounds is relative to Position.
	ContentBounds *geo.Box
	// LabelBounds only uses the width and height; nil means no label.
	LabelBounds   *geo.Box
	LabelPosition *geo.Point
	LabelHalign   label.Halign
}

type Link struct {
	ID    string
	Start string
	End   string

	StartConnectorOffset float64
	EndConnectorOffset   float64

	Points []float64

	LabelBounds   *geo.Box
	LabelPosition *geo.Point
	LabelHalign   label.Halign
}

func NewGraph() *Graph {
	return &Graph{
		Attributes: make(map[string]string),
		nodesByID:  make(map[string]*Node),
	}
}

// AddNode appends a node with content bounds (0, 0, width, height).
func (g *Graph) AddNode(id string, width, height float64) *Node {
	n := &Node{
		ID:            id,
		ContentBounds: geo.NewBox(geo.NewPoint(0, 0), width, height),
	}
	g.Nodes = append(g.Nodes, n)
	if g.nodesByID == nil {
		g.nodesByID = make(map[string]*Node)
	}
	if _, ok := g.nodesByID[id]; !ok {
		g.nodesByID[id] = n
	}
	return n
}

// AddLink appends a link from start to end. An empty id is replaced by one derived
// from the endpoints.
func (g *Graph) AddLink(id, start, end string) *Link {
	if id == "" {
		id = fmt.Sprintf("(%s -> %s)[%d]", start, end, len(g.Links))
	}
	l := &Link{
		ID:    id,
		Start: start,
		End:   end,
	}
	g.Links = append(g.Links, l)
	return l
}

// Node returns the first node with id, or nil.
func (g *Graph) Node(id string) *Node {
	if g.nodesByID == nil || len(g.nodesByID) == 0 && len(g.Nodes) > 0 {
		g.reindex()
	}
	return g.nodesByID[id]
}

func (g *Graph) reindex() {
	g.nodesByID = make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, ok := g.nodesByID[n.ID]; !ok {
			g.nodesByID[n.ID] = n
		}
	}
}

// Children returns the nodes directly inside container, in graph order.
// The empty container is the top level.
func (g *Graph) Children(container string) []*Node {
	var children []*Node
	for _, n := range g.Nodes {
		if n.Container == container {
			children = append(children, n)
		}
	}
	return children
}

func (g *Graph) IsContainer(n *Node) bool {
	for _, n2 := range g.Nodes {
		if n2.Container == n.ID {
			return true
		}
	}
	return false
}

// Ancestors returns the containers of n from the innermost outwards, ending with
// the top level "". It stops early on unknown containers and cycles.
func (g *Graph) Ancestors(n *Node) []string {
	ancestors := []string{}
	seen := map[string]struct{}{n.ID: {}}
	for id := n.Container; id != ""; {
		if _, ok := seen[id]; ok {
			break
		}
		seen[id] = struct{}{}
		ancestors = append(ancestors, id)
		c := g.Node(id)
		if c == nil {
			break
		}
		id = c.Container
	}
	return append(ancestors, "")
}

func (g *Graph) Depth(n *Node) int {
	return len(g.Ancestors(n)) - 1
}

// IsDescendantOf reports whether n is nested, at any depth, in the container with id ancestor.
func (g *Graph) IsDescendantOf(n *Node, ancestor string) bool {
	for _, a := range g.Ancestors(n) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// ContainersDeepestFirst returns every node that has children, ordered so that a
// container comes before any of its ancestors. Containers at the same depth keep
// graph order.
func (g *Graph) ContainersDeepestFirst() []*Node {
	var containers []*Node
	maxDepth := 0
	depths := make(map[*Node]int)
	for _, n := range g.Nodes {
		if !g.IsContainer(n) {
			continue
		}
		containers = append(containers, n)
		depths[n] = g.Depth(n)
		if depths[n] > maxDepth {
			maxDepth = depths[n]
		}
	}
	ordered := make([]*Node, 0, len(containers))
	for d := maxDepth; d >= 0; d-- {
		for _, c := range containers {
			if depths[c] == d {
				ordered = append(ordered, c)
			}
		}
	}
	return ordered
}

// AbsolutePosition is the position of n with the positions of all its containers
// added. Unset positions count as the origin.
func (g *Graph) AbsolutePosition(n *Node) *geo.Point {
	p := geo.NewPoint(0, 0)
	if n == nil {
		return p
	}
	if n.Position != nil {
		p = n.Position.Copy()
	}
	for _, id := range g.Ancestors(n) {
		if id == "" {
			continue
		}
		if c := g.Node(id); c != nil && c.Position != nil {
			p = p.AddVector(c.Position.ToVector())
		}
	}
	return p
}

// ContainerOrigin is the absolute position of the coordinate space of nodes inside
// container.
func (g *Graph) ContainerOrigin(container string) *geo.Point {
	if container == "" {
		return geo.NewPoint(0, 0)
	}
	return g.AbsolutePosition(g.Node(container))
}

// LinkContainer is the innermost container holding both ends of l. Links with an
// unknown end belong to the top level.
func (g *Graph) LinkContainer(l *Link) string {
	start, end := g.Node(l.Start), g.Node(l.End)
	if start == nil || end == nil {
		return ""
	}
	endAncestors := make(map[string]struct{})
	for _, id := range g.Ancestors(end) {
		endAncestors[id] = struct{}{}
	}
	for _, id := range g.Ancestors(start) {
		if _, ok := endAncestors[id]; ok {
			return id
		}
	}
	return ""
}

// AbsolutePoints returns the routed points of l in absolute coordinates.
func (g *Graph) AbsolutePoints(l *Link) []float64 {
	if len(l.Points) == 0 {
		return nil
	}
	origin := g.ContainerOrigin(g.LinkContainer(l))
	out := make([]float64, len(l.Points))
	for i, v := range l.Points {
		if i%2 == 0 {
			out[i] = v + origin.X
		} else {
			out[i] = v + origin.Y
		}
	}
	return out
}

// AssignGroupColors gives every node without a color the color of its group.
// Nodes without a group are left as is.
func (g *Graph) AssignGroupColors() {
	palette := color.NewGroupPalette()
	for _, n := range g.Nodes {
		if n.Group == "" {
			continue
		}
		c := palette.Color(n.Group)
		if n.Color == "" {
			n.Color = c
		}
	}
}
