package fdforce

import (
	"oss.terrastruct.com/fdlayout/lib/geo"
)

// routeLinks draws every link as a straight segment between the boundaries of its
// nodes. Links to unknown nodes are left unrouted.
func routeLinks(lc Context) {
	for i := 0; i < lc.LinkCount(); i++ {
		link := lc.LinkByIndex(i)
		points, ok := endpoints(lc, link)
		if !ok {
			continue
		}
		link.SetPoints(points)
	}
}

// endpoints resolves the link's own nodes, not the containers the simulation
// attracted, and clips the line between their centers to their content bounds.
func endpoints(lc Context, link Link) ([]float64, bool) {
	n1 := lc.NodeByID(link.StartID())
	n2 := lc.NodeByID(link.EndID())
	if n1 == nil || n2 == nil {
		return nil, false
	}

	b1 := absoluteBounds(n1)
	b2 := absoluteBounds(n2)
	c1 := b1.Center()
	c2 := b2.Center()

	start := intersect(b1, c1, c2, link.StartConnectorOffset())
	end := intersect(b2, c2, c1, link.EndConnectorOffset())
	return geo.Points{start, end}.Flatten(), true
}

// intersect finds where the line from -> to leaves rect and pushes that point a
// further connOffset along the line.
// from == to has no direction and is treated as angle 0.
func intersect(rect *geo.Box, from, to *geo.Point, connOffset float64) *geo.Point {
	lineAngle := from.VectorTo(to).Angle()
	p := rect.BoundaryPoint(lineAngle)
	if connOffset != 0 {
		p = p.AddVector(geo.NewVectorFromProperties(connOffset, lineAngle))
	}
	return p
}
