package fdforce

import (
	"oss.terrastruct.com/fdlayout/lib/geo"
	"oss.terrastruct.com/fdlayout/lib/label"
)

// Context is the read/write surface the engine lays out. It holds the nodes of a
// single containment level, reachable by index, and every link to route at that
// level. NodeByID may also return nodes outside the level, such as the nested
// nodes a link actually connects or their containers.
//
// A Context is only used for the duration of one Layout call and is never
// accessed concurrently by the engine.
type Context interface {
	NodeCount() int
	NodeByIndex(i int) Node
	// NodeByID returns nil if there is no node with the id.
	NodeByID(id string) Node

	LinkCount() int
	LinkByIndex(i int) Link

	// LayoutAttribute looks up a global layout attribute such as
	// OptimalLinkLengthAttribute.
	LayoutAttribute(name string) (string, bool)
}

type Node interface {
	ID() string

	// Position is in the coordinate space of the level being laid out.
	Position() *geo.Point
	SetPosition(*geo.Point)

	// ContentBounds is relative to Position.
	ContentBounds() *geo.Box
	// LabelBounds is nil when the node has no label.
	LabelBounds() *geo.Box
	SetLabelPosition(*geo.Point)
	SetLabelHalign(label.Halign)

	// ContainerID is empty for top level nodes.
	ContainerID() string
}

type Link interface {
	ID() string
	StartID() string
	EndID() string

	// Connector offsets extend the routed endpoints past the node boundary. 0 means none.
	StartConnectorOffset() float64
	EndConnectorOffset() float64

	// Points is startX, startY, endX, endY once routed.
	Points() []float64
	SetPoints([]float64)

	// LabelBounds is nil when the link has no label.
	LabelBounds() *geo.Box
	SetLabelPosition(*geo.Point)
	SetLabelHalign(label.Halign)
}
