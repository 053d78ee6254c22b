package fdlayouts

import (
	"oss.terrastruct.com/fdlayout/fdgraph"
	"oss.terrastruct.com/fdlayout/fdlayouts/fdforce"
	"oss.terrastruct.com/fdlayout/lib/geo"
	"oss.terrastruct.com/fdlayout/lib/label"
)

var _ fdforce.Context = levelContext{}

// NewContext exposes one level of a graph to a layout engine. Every coordinate
// crossing it is in the level's coordinate space. Nodes of other levels reached
// through NodeByID are translated into that space.
//
// defaults answers LayoutAttribute for names the graph's attributes do not set.
// It is never written back to the graph.
func NewContext(l *fdgraph.Level, defaults map[string]string) fdforce.Context {
	return levelContext{l, defaults}
}

type levelContext struct {
	l        *fdgraph.Level
	defaults map[string]string
}

func (lc levelContext) NodeCount() int {
	return len(lc.l.Nodes())
}

func (lc levelContext) NodeByIndex(i int) fdforce.Node {
	return levelNode{lc.l, lc.l.Nodes()[i]}
}

func (lc levelContext) NodeByID(id string) fdforce.Node {
	n := lc.l.Graph().Node(id)
	if n == nil {
		return nil
	}
	return levelNode{lc.l, n}
}

func (lc levelContext) LinkCount() int {
	return len(lc.l.Links())
}

func (lc levelContext) LinkByIndex(i int) fdforce.Link {
	return levelLink{lc.l.Links()[i]}
}

func (lc levelContext) LayoutAttribute(name string) (string, bool) {
	if v, ok := lc.l.Graph().Attributes[name]; ok {
		return v, true
	}
	v, ok := lc.defaults[name]
	return v, ok
}

type levelNode struct {
	l *fdgraph.Level
	n *fdgraph.Node
}

func (ln levelNode) ID() string {
	return ln.n.ID
}

func (ln levelNode) Position() *geo.Point {
	p := geo.NewPoint(0, 0)
	if ln.n.Position != nil {
		p = ln.n.Position.Copy()
	}
	return p.AddVector(ln.l.Offset(ln.n))
}

func (ln levelNode) SetPosition(p *geo.Point) {
	ln.n.Position = p.AddVector(ln.l.Offset(ln.n).Multiply(-1))
}

func (ln levelNode) ContentBounds() *geo.Box {
	return ln.n.ContentBounds
}

func (ln levelNode) LabelBounds() *geo.Box {
	return ln.n.LabelBounds
}

// Node labels are stored in the same space as the node position.
func (ln levelNode) SetLabelPosition(p *geo.Point) {
	ln.n.LabelPosition = p.AddVector(ln.l.Offset(ln.n).Multiply(-1))
}

func (ln levelNode) SetLabelHalign(h label.Halign) {
	ln.n.LabelHalign = h
}

func (ln levelNode) ContainerID() string {
	return ln.n.Container
}

// Links of a level are stored in the level's space already.
type levelLink struct {
	l *fdgraph.Link
}

func (ll levelLink) ID() string {
	return ll.l.ID
}

func (ll levelLink) StartID() string {
	return ll.l.Start
}

func (ll levelLink) EndID() string {
	return ll.l.End
}

func (ll levelLink) StartConnectorOffset() float64 {
	return ll.l.StartConnectorOffset
}

func (ll levelLink) EndConnectorOffset() float64 {
	return ll.l.EndConnectorOffset
}

func (ll levelLink) Points() []float64 {
	return ll.l.Points
}

func (ll levelLink) SetPoints(points []float64) {
	ll.l.Points = points
}

func (ll levelLink) LabelBounds() *geo.Box {
	return ll.l.LabelBounds
}

func (ll levelLink) SetLabelPosition(p *geo.Point) {
	ll.l.LabelPosition = p
}

func (ll levelLink) SetLabelHalign(h label.Halign) {
	ll.l.LabelHalign = h
}
