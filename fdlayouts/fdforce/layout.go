// Package fdforce is a force directed layout engine based on
// "Graph Drawing by Force-directed Placement" by Fruchterman and Reingold.
//
// Nodes are seeded on a circle, pushed apart by pairwise repulsion, pulled together
// along links and towards the origin, with movement capped by a temperature that
// cools linearly to 0. Links are then routed as straight segments clipped to the
// content bounds of their nodes and labels are placed.
package fdforce

import (
	"context"
	"math"
	"strconv"
	"strings"

	"cdr.dev/slog"

	"oss.terrastruct.com/fdlayout/lib/geo"
	"oss.terrastruct.com/fdlayout/lib/log"
)

const (
	// pad factor for the node size
	PAD_FACTOR = 1.2
	// initial temperature factor, as a fraction of the ideal layout area's side
	INIT_TEMP_FACTOR = .25
	ITERATIONS       = 200
	// strength of the pull towards the origin relative to link attraction
	GRAVITY = .2

	// repulsion never divides by a distance smaller than this
	MIN_DISTANCE            = 1e-3
	MIN_OPTIMAL_LINK_LENGTH = 1
)

// OptimalLinkLengthAttribute overrides the derived optimal link length when set to a
// positive number.
const OptimalLinkLengthAttribute = "optimalLinkLength"

type params struct {
	optLinkLength float64
	initialTemp   float64
}

// Layout positions every node of lc, routes its links and places labels.
// Results are written back through lc.
func Layout(ctx context.Context, lc Context) {
	nodeCount := lc.NodeCount()
	if nodeCount == 0 {
		log.Debug(ctx, "nothing to lay out")
		return
	}

	p := layoutParams(ctx, lc)
	log.Debug(ctx, "force layout",
		slog.F("nodes", nodeCount),
		slog.F("links", lc.LinkCount()),
		slog.F("optimalLinkLength", p.optLinkLength),
		slog.F("initialTemp", p.initialTemp),
	)

	s := newSimulation(lc, p)
	s.seed()
	s.run()

	routeLinks(lc)

	placeNodeLabels(lc)
	placeLinkLabels(lc)
}

// layoutParams pretends the layout area is just big enough to fit all the nodes
// in a grid of padded cells the size of the largest node.
func layoutParams(ctx context.Context, lc Context) params {
	nodeCount := float64(lc.NodeCount())
	maxW, maxH := maxNodeSize(lc)
	area := nodeCount * (PAD_FACTOR * maxW) * (PAD_FACTOR * maxH)

	p := params{
		initialTemp: INIT_TEMP_FACTOR * math.Sqrt(area),
		// the size of an ideal grid cell
		optLinkLength: math.Sqrt(area / nodeCount),
	}
	if v, ok := optLinkLengthOverride(ctx, lc); ok {
		p.optLinkLength = v
	}
	if p.optLinkLength < MIN_OPTIMAL_LINK_LENGTH {
		log.Debug(ctx, "optimal link length too small, clamping", slog.F("optimalLinkLength", p.optLinkLength))
		p.optLinkLength = MIN_OPTIMAL_LINK_LENGTH
	}
	return p
}

func optLinkLengthOverride(ctx context.Context, lc Context) (float64, bool) {
	raw, ok := lc.LayoutAttribute(OptimalLinkLengthAttribute)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !geo.IsFinite(v) || v <= 0 {
		log.Warn(ctx, "ignoring invalid layout attribute",
			slog.F("name", OptimalLinkLengthAttribute),
			slog.F("value", raw),
		)
		return 0, false
	}
	return v, true
}

func maxNodeSize(lc Context) (w, h float64) {
	for i := 0; i < lc.NodeCount(); i++ {
		b := contentBounds(lc.NodeByIndex(i))
		w = math.Max(w, b.Width)
		h = math.Max(h, b.Height)
	}
	return w, h
}

func contentBounds(n Node) *geo.Box {
	if b := n.ContentBounds(); b != nil {
		return b
	}
	return geo.NewBox(geo.NewPoint(0, 0), 0, 0)
}

// absoluteBounds is the content bounds of n offset by its position.
func absoluteBounds(n Node) *geo.Box {
	return contentBounds(n).Translate(n.Position().ToVector())
}
