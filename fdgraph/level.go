package fdgraph

import (
	"oss.terrastruct.com/fdlayout/lib/geo"
)

// Level is one containment level of a graph: the direct children of a container
// and the links drawn inside it. Its coordinate space has its origin at the
// position of the container.
type Level struct {
	g         *Graph
	container string
	nodes     []*Node
	links     []*Link
}

// Level returns the level of the children of container, "" being the top
// level. Its links are the links whose LinkContainer is container.
func (g *Graph) Level(container string) *Level {
	l := &Level{
		g:         g,
		container: container,
		nodes:     g.Children(container),
	}
	for _, link := range g.Links {
		if g.LinkContainer(link) == container {
			l.links = append(l.links, link)
		}
	}
	return l
}

func (l *Level) Container() string {
	return l.container
}

func (l *Level) Nodes() []*Node {
	return l.nodes
}

func (l *Level) Links() []*Link {
	return l.links
}

// Graph returns the graph the level belongs to.
func (l *Level) Graph() *Graph {
	return l.g
}

// Origin is the absolute position of the level's coordinate space.
func (l *Level) Origin() *geo.Point {
	return l.g.ContainerOrigin(l.container)
}

// Offset is the vector from the coordinate space of n's container to the level's.
func (l *Level) Offset(n *Node) geo.Vector {
	if n.Container == l.container {
		return geo.Vector{}
	}
	return l.Origin().VectorTo(l.g.ContainerOrigin(n.Container))
}
