package fdforce

import (
	"oss.terrastruct.com/fdlayout/lib/geo"
	"oss.terrastruct.com/fdlayout/lib/label"
)

// placeNodeLabels centers node labels below the node.
func placeNodeLabels(lc Context) {
	for i := 0; i < lc.NodeCount(); i++ {
		node := lc.NodeByIndex(i)
		if node.LabelBounds() == nil {
			continue
		}
		node.SetLabelPosition(label.BelowBox(absoluteBounds(node)))
		node.SetLabelHalign(label.Center)
	}
}

// placeLinkLabels centers link labels on the middle of the link.
func placeLinkLabels(lc Context) {
	for i := 0; i < lc.LinkCount(); i++ {
		link := lc.LinkByIndex(i)
		lb := link.LabelBounds()
		if lb == nil {
			continue
		}
		points := link.Points()
		if len(points) < 4 {
			continue
		}
		start := geo.NewPoint(points[0], points[1])
		end := geo.NewPoint(points[len(points)-2], points[len(points)-1])
		link.SetLabelPosition(label.OnSegment(start, end, lb.Height))
		link.SetLabelHalign(label.Center)
	}
}
