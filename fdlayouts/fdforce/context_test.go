package fdforce

import (
	"oss.terrastruct.com/fdlayout/lib/geo"
	"oss.terrastruct.com/fdlayout/lib/label"
)

// testContext is a flat Context. Positions are used as is, whatever the container.
type testContext struct {
	nodes []*testNode
	// outside are nodes reachable by id that are not part of the level
	outside []*testNode
	links   []*testLink
	attrs   map[string]string
}

func (tc *testContext) addNode(id string, w, h float64) *testNode {
	n := &testNode{
		id:     id,
		bounds: geo.NewBox(geo.NewPoint(0, 0), w, h),
	}
	tc.nodes = append(tc.nodes, n)
	return n
}

func (tc *testContext) addLink(start, end string) *testLink {
	l := &testLink{
		id:    start + "->" + end,
		start: start,
		end:   end,
	}
	tc.links = append(tc.links, l)
	return l
}

func (tc *testContext) NodeCount() int {
	return len(tc.nodes)
}

func (tc *testContext) NodeByIndex(i int) Node {
	return tc.nodes[i]
}

func (tc *testContext) NodeByID(id string) Node {
	for _, nodes := range [][]*testNode{tc.nodes, tc.outside} {
		for _, n := range nodes {
			if n.id == id {
				return n
			}
		}
	}
	return nil
}

func (tc *testContext) LinkCount() int {
	return len(tc.links)
}

func (tc *testContext) LinkByIndex(i int) Link {
	return tc.links[i]
}

func (tc *testContext) LayoutAttribute(name string) (string, bool) {
	v, ok := tc.attrs[name]
	return v, ok
}

type testNode struct {
	id          string
	container   string
	pos         *geo.Point
	bounds      *geo.Box
	labelBounds *geo.Box
	labelPos    *geo.Point
	halign      label.Halign
}

func (n *testNode) ID() string {
	return n.id
}

func (n *testNode) Position() *geo.Point {
	if n.pos == nil {
		return geo.NewPoint(0, 0)
	}
	return n.pos.Copy()
}

func (n *testNode) SetPosition(p *geo.Point) {
	n.pos = p
}

func (n *testNode) ContentBounds() *geo.Box {
	return n.bounds
}

func (n *testNode) LabelBounds() *geo.Box {
	return n.labelBounds
}

func (n *testNode) SetLabelPosition(p *geo.Point) {
	n.labelPos = p
}

func (n *testNode) SetLabelHalign(h label.Halign) {
	n.halign = h
}

func (n *testNode) ContainerID() string {
	return n.container
}

type testLink struct {
	id          string
	start, end  string
	startOffset float64
	endOffset   float64
	points      []float64
	labelBounds *geo.Box
	labelPos    *geo.Point
	halign      label.Halign
}

func (l *testLink) ID() string {
	return l.id
}

func (l *testLink) StartID() string {
	return l.start
}

func (l *testLink) EndID() string {
	return l.end
}

func (l *testLink) StartConnectorOffset() float64 {
	return l.startOffset
}

func (l *testLink) EndConnectorOffset() float64 {
	return l.endOffset
}

func (l *testLink) Points() []float64 {
	return l.points
}

func (l *testLink) SetPoints(points []float64) {
	l.points = points
}

func (l *testLink) LabelBounds() *geo.Box {
	return l.labelBounds
}

func (l *testLink) SetLabelPosition(p *geo.Point) {
	l.labelPos = p
}

func (l *testLink) SetLabelHalign(h label.Halign) {
	l.halign = h
}
