// Package fdlayouts runs a layout engine over a graph with nested containers.
package fdlayouts

import (
	"context"

	"cdr.dev/slog"

	"oss.terrastruct.com/fdlayout/fdgraph"
	"oss.terrastruct.com/fdlayout/fdlayouts/fdforce"
	"oss.terrastruct.com/fdlayout/lib/geo"
	"oss.terrastruct.com/fdlayout/lib/label"
	"oss.terrastruct.com/fdlayout/lib/log"
)

// CoreLayout lays out a single level. fdforce.Layout is one.
type CoreLayout func(ctx context.Context, lc fdforce.Context)

// LayoutNested lays out every container of g, deepest first, and sizes each to fit
// its children before its own level is laid out. The top level goes last.
// defaults are layout attributes used where g.Attributes does not set them.
func LayoutNested(ctx context.Context, g *fdgraph.Graph, core CoreLayout, defaults map[string]string) error {
	for _, c := range g.ContainersDeepestFirst() {
		if err := ctx.Err(); err != nil {
			return err
		}
		level := g.Level(c.ID)
		log.Debug(ctx, "laying out container", slog.F("container", c.ID), slog.F("children", len(level.Nodes())))
		core(ctx, NewContext(level, defaults))
		FitToChildren(c, level)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	core(ctx, NewContext(g.Level(""), defaults))
	return nil
}

// FitToChildren sets the content bounds of container to the bounding box of its
// level plus label.PADDING on every side. Children are not moved, so the bounds
// are generally not anchored at the container position.
func FitToChildren(container *fdgraph.Node, level *fdgraph.Level) {
	bounds := LevelBounds(level)
	if bounds == nil {
		return
	}
	container.ContentBounds = geo.NewBox(
		geo.NewPoint(bounds.TopLeft.X-label.PADDING, bounds.TopLeft.Y-label.PADDING),
		bounds.Width+2*label.PADDING,
		bounds.Height+2*label.PADDING,
	)
}

// LevelBounds is the box around the nodes, node labels, links and link labels of a
// level, in the level's space. It is nil for an empty level.
func LevelBounds(level *fdgraph.Level) *geo.Box {
	var bounds *geo.Box
	for _, n := range level.Nodes() {
		pos := geo.NewPoint(0, 0)
		if n.Position != nil {
			pos = n.Position
		}
		if n.ContentBounds != nil {
			bounds = bounds.Union(n.ContentBounds.Translate(pos.ToVector()))
		} else {
			bounds = bounds.Union(geo.NewBox(pos.Copy(), 0, 0))
		}
		bounds = bounds.Union(labelBox(n.LabelBounds, n.LabelPosition, n.LabelHalign))
	}
	for _, l := range level.Links() {
		for i := 0; i+1 < len(l.Points); i += 2 {
			bounds = bounds.Union(geo.NewBox(geo.NewPoint(l.Points[i], l.Points[i+1]), 0, 0))
		}
		bounds = bounds.Union(labelBox(l.LabelBounds, l.LabelPosition, l.LabelHalign))
	}
	return bounds
}

// labelBox is the area covered by a label of size b anchored at pos.
func labelBox(b *geo.Box, pos *geo.Point, halign label.Halign) *geo.Box {
	if b == nil || pos == nil {
		return nil
	}
	x := pos.X
	switch halign {
	case label.Center:
		x -= b.Width / 2
	case label.Right:
		x -= b.Width
	}
	return geo.NewBox(geo.NewPoint(x, pos.Y), b.Width, b.Height)
}
