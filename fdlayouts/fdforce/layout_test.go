package fdforce

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"oss.terrastruct.com/fdlayout/lib/geo"
	"oss.terrastruct.com/fdlayout/lib/label"
	"oss.terrastruct.com/fdlayout/lib/log"
)

const epsilon = 1e-6

func testCtx(t *testing.T) context.Context {
	return log.WithTB(context.Background(), t, nil)
}

func sampleContext() *testContext {
	tc := &testContext{}
	tc.addNode("a", 40, 20)
	tc.addNode("b", 10, 10)
	tc.addNode("c", 30, 60).labelBounds = geo.NewBox(geo.NewPoint(0, 0), 20, 8)
	tc.addNode("d", 25, 25)
	tc.addLink("a", "b")
	tc.addLink("b", "c").labelBounds = geo.NewBox(geo.NewPoint(0, 0), 12, 6)
	tc.addLink("c", "a")
	tc.addLink("c", "d").endOffset = 3
	return tc
}

func TestLayoutEmpty(t *testing.T) {
	t.Parallel()

	tc := &testContext{}
	tc.addLink("a", "b")
	Layout(testCtx(t), tc)
	assert.Nil(t, tc.links[0].points)
}

func TestDeterminism(t *testing.T) {
	t.Parallel()

	ctx := testCtx(t)
	tc1 := sampleContext()
	tc2 := sampleContext()
	Layout(ctx, tc1)
	Layout(ctx, tc2)

	for i := range tc1.nodes {
		assert.Equal(t, tc1.nodes[i].pos, tc2.nodes[i].pos)
		assert.Equal(t, tc1.nodes[i].labelPos, tc2.nodes[i].labelPos)
	}
	for i := range tc1.links {
		assert.Equal(t, tc1.links[i].points, tc2.links[i].points)
		assert.Equal(t, tc1.links[i].labelPos, tc2.links[i].labelPos)
	}
}

func TestSeed(t *testing.T) {
	t.Parallel()

	tc := &testContext{}
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		tc.addNode(id, 10, 10)
	}
	p := layoutParams(testCtx(t), tc)
	s := newSimulation(tc, p)
	s.seed()

	for i := range s.pos {
		assert.InDelta(t, p.optLinkLength, s.pos[i].Length(), epsilon)
		assert.Equal(t, *s.pos[i].ToPoint(), *tc.nodes[i].pos)
		for j := i + 1; j < len(s.pos); j++ {
			assert.NotEqual(t, s.pos[i], s.pos[j], "%v and %v coincide", i, j)
		}
	}
	assert.Equal(t, geo.NewVector(p.optLinkLength, 0), s.pos[0])
}

func TestTemperature(t *testing.T) {
	t.Parallel()

	tc := &testContext{}
	tc.addNode("a", 10, 10)
	tc.addNode("b", 10, 10)
	p := layoutParams(testCtx(t), tc)
	s := newSimulation(tc, p)

	assert.Equal(t, p.initialTemp, s.temperature(0))
	for i := 1; i <= ITERATIONS; i++ {
		assert.LessOrEqual(t, s.temperature(i), s.temperature(i-1))
	}
	assert.Equal(t, 0., s.temperature(ITERATIONS))

	s.seed()
	s.run()
	assert.Equal(t, 0., s.t)
	assert.Nil(t, s.disp)
}

func TestLayoutParams(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name    string
		attr    *string
		sizes   [][2]float64
		expK    float64
		expTemp float64
	}{
		{
			name:  "derived",
			sizes: [][2]float64{{10, 10}, {10, 10}},
			// area = 2 * 12 * 12
			expK:    12,
			expTemp: .25 * math.Sqrt(288),
		},
		{
			name:  "largest_node",
			sizes: [][2]float64{{10, 50}, {40, 20}, {5, 5}},
			// area = 3 * 48 * 60
			expK:    math.Sqrt(48 * 60),
			expTemp: .25 * math.Sqrt(3*48*60),
		},
		{
			name:    "override",
			attr:    ptr(" 80 "),
			sizes:   [][2]float64{{10, 10}, {10, 10}},
			expK:    80,
			expTemp: .25 * math.Sqrt(288),
		},
		{
			name:    "invalid_override",
			attr:    ptr("eighty"),
			sizes:   [][2]float64{{10, 10}, {10, 10}},
			expK:    12,
			expTemp: .25 * math.Sqrt(288),
		},
		{
			name:    "negative_override",
			attr:    ptr("-5"),
			sizes:   [][2]float64{{10, 10}, {10, 10}},
			expK:    12,
			expTemp: .25 * math.Sqrt(288),
		},
		{
			name:    "nan_override",
			attr:    ptr("NaN"),
			sizes:   [][2]float64{{10, 10}, {10, 10}},
			expK:    12,
			expTemp: .25 * math.Sqrt(288),
		},
		{
			name:    "zero_size",
			sizes:   [][2]float64{{0, 0}, {0, 0}},
			expK:    MIN_OPTIMAL_LINK_LENGTH,
			expTemp: 0,
		},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			lc := &testContext{attrs: map[string]string{}}
			for i, size := range tc.sizes {
				lc.addNode(string(rune('a'+i)), size[0], size[1])
			}
			if tc.attr != nil {
				lc.attrs[OptimalLinkLengthAttribute] = *tc.attr
			}
			p := layoutParams(testCtx(t), lc)
			assert.InDelta(t, tc.expK, p.optLinkLength, epsilon)
			assert.InDelta(t, tc.expTemp, p.initialTemp, epsilon)
		})
	}
}

func TestTwoNodes(t *testing.T) {
	t.Parallel()

	tc := &testContext{}
	a := tc.addNode("a", 10, 10)
	b := tc.addNode("b", 10, 10)
	l := tc.addLink("a", "b")
	Layout(testCtx(t), tc)

	assert.False(t, a.pos.Equals(b.pos))
	assert.True(t, a.pos.IsFinite())
	assert.True(t, b.pos.IsFinite())
	// seeded at (k, 0) and (-k, 0), the forces mirror each other
	assert.InDelta(t, 0, a.pos.X+b.pos.X, epsilon)
	assert.InDelta(t, 0, a.pos.Y+b.pos.Y, epsilon)

	assert.Equal(t, 4, len(l.points))
	for _, v := range l.points {
		assert.True(t, geo.IsFinite(v))
	}
	assertOnBoundary(t, a, l.points[0], l.points[1])
	assertOnBoundary(t, b, l.points[2], l.points[3])
}

func TestIsolatedNode(t *testing.T) {
	t.Parallel()

	tc := &testContext{}
	a := tc.addNode("a", 10, 10)
	p := layoutParams(testCtx(t), tc)
	Layout(testCtx(t), tc)

	d := a.pos.ToVector().Length()
	assert.Less(t, d, p.optLinkLength)
	assert.True(t, a.pos.IsFinite())
	assert.InDelta(t, 0, a.pos.Y, epsilon)
}

func TestBoundaryContainment(t *testing.T) {
	t.Parallel()

	tc := sampleContext()
	// without the connector offset
	tc.links[3].endOffset = 0
	Layout(testCtx(t), tc)

	for _, l := range tc.links {
		assert.Equal(t, 4, len(l.points), l.id)
		assertOnBoundary(t, tc.NodeByID(l.start).(*testNode), l.points[0], l.points[1])
		assertOnBoundary(t, tc.NodeByID(l.end).(*testNode), l.points[2], l.points[3])
	}
}

func TestConnectorOffset(t *testing.T) {
	t.Parallel()

	tc := &testContext{}
	tc.addNode("a", 10, 10).pos = geo.NewPoint(0, 0)
	tc.addNode("b", 10, 10).pos = geo.NewPoint(100, 0)
	l := tc.addLink("a", "b")
	l.startOffset = 4
	l.endOffset = 2
	routeLinks(tc)

	exp := []float64{14, 5, 98, 5}
	assert.Equal(t, len(exp), len(l.points))
	for i := range exp {
		assert.InDelta(t, exp[i], l.points[i], epsilon)
	}
}

func TestMissingEndpoints(t *testing.T) {
	t.Parallel()

	tc := &testContext{}
	a := tc.addNode("a", 10, 10)
	tc.addNode("b", 10, 10)
	missing := tc.addLink("a", "nowhere")
	missing.labelBounds = geo.NewBox(geo.NewPoint(0, 0), 5, 5)
	tc.addLink("nowhere", "elsewhere")
	ok := tc.addLink("a", "b")
	Layout(testCtx(t), tc)

	assert.Nil(t, missing.points)
	assert.Nil(t, missing.labelPos)
	assert.Equal(t, label.Unset, missing.halign)
	assert.Equal(t, 4, len(ok.points))
	assert.True(t, a.pos.IsFinite())
}

func TestContainmentResolution(t *testing.T) {
	t.Parallel()

	tc := &testContext{}
	tc.addNode("a", 10, 10)
	tc.addNode("b", 10, 10)
	tc.outside = []*testNode{
		{id: "c", container: "b", bounds: geo.NewBox(geo.NewPoint(0, 0), 2, 2)},
		{id: "d", container: "c", bounds: geo.NewBox(geo.NewPoint(0, 0), 2, 2)},
		{id: "x", container: "y", bounds: geo.NewBox(geo.NewPoint(0, 0), 2, 2)},
		{id: "y", container: "x", bounds: geo.NewBox(geo.NewPoint(0, 0), 2, 2)},
	}
	tc.addLink("a", "b")
	tc.addLink("a", "d")
	tc.addLink("a", "x")
	s := newSimulation(tc, layoutParams(testCtx(t), tc))

	// top level links resolve to the same nodes as the router
	for _, id := range []string{"a", "b"} {
		slot, ok := s.visibleSlot(id)
		assert.True(t, ok)
		assert.Equal(t, tc.NodeByID(id), Node(tc.nodes[slot]))
	}
	// nested ends resolve to their outermost visible container
	slot, ok := s.visibleSlot("d")
	assert.True(t, ok)
	assert.Equal(t, 1, slot)
	// container cycles outside the level resolve to nothing
	_, ok = s.visibleSlot("x")
	assert.False(t, ok)

	assert.Equal(t, [][2]int{{0, 1}, {0, 1}}, s.springs)
}

func TestCoincidentNodes(t *testing.T) {
	t.Parallel()

	tc := &testContext{}
	tc.addNode("a", 10, 10)
	tc.addNode("b", 10, 10)
	tc.addLink("a", "b")
	s := newSimulation(tc, layoutParams(testCtx(t), tc))

	s.repulse()
	s.attract()
	s.gravitate()
	// both at the origin: pushed apart along x, no attraction or gravity
	k2 := s.k * s.k
	assert.Equal(t, geo.NewVector(k2/MIN_DISTANCE, 0), s.disp[0])
	assert.Equal(t, geo.NewVector(-k2/MIN_DISTANCE, 0), s.disp[1])

	s.run()
	for _, n := range tc.nodes {
		assert.True(t, n.pos.IsFinite())
	}
	assert.False(t, tc.nodes[0].pos.Equals(tc.nodes[1].pos))
}

func TestRepulse(t *testing.T) {
	t.Parallel()

	tc := &testContext{}
	tc.addNode("a", 10, 10)
	tc.addNode("b", 10, 10)
	s := newSimulation(tc, layoutParams(testCtx(t), tc))
	s.pos[0] = geo.NewVector(3, 4)
	s.pos[1] = geo.NewVector(0, 0)

	s.repulse()
	// k²/d along the unit vector between the two
	f := s.k * s.k / 5
	assert.InDelta(t, f*3/5, s.disp[0].X, epsilon)
	assert.InDelta(t, f*4/5, s.disp[0].Y, epsilon)
	assert.InDelta(t, -f*3/5, s.disp[1].X, epsilon)
	assert.InDelta(t, -f*4/5, s.disp[1].Y, epsilon)
}

func TestNodeLabel(t *testing.T) {
	t.Parallel()

	tc := &testContext{}
	n := tc.addNode("a", 20, 20)
	n.pos = geo.NewPoint(100, 100)
	n.labelBounds = geo.NewBox(geo.NewPoint(0, 0), 40, 10)
	unlabeled := tc.addNode("b", 20, 20)
	placeNodeLabels(tc)

	assert.Equal(t, geo.NewPoint(110, 120), n.labelPos)
	assert.Equal(t, label.Center, n.halign)
	assert.Nil(t, unlabeled.labelPos)
	assert.Equal(t, label.Unset, unlabeled.halign)
}

func TestLinkLabel(t *testing.T) {
	t.Parallel()

	tc := &testContext{}
	routed := tc.addLink("a", "b")
	routed.points = []float64{0, 0, 10, 20}
	routed.labelBounds = geo.NewBox(geo.NewPoint(0, 0), 12, 6)
	unrouted := tc.addLink("a", "c")
	unrouted.labelBounds = geo.NewBox(geo.NewPoint(0, 0), 12, 6)
	placeLinkLabels(tc)

	assert.Equal(t, geo.NewPoint(5, 7), routed.labelPos)
	assert.Equal(t, label.Center, routed.halign)
	assert.Nil(t, unrouted.labelPos)
}

func TestIntersectCoincident(t *testing.T) {
	t.Parallel()

	b := geo.NewBox(geo.NewPoint(0, 0), 10, 10)
	p := intersect(b, b.Center(), b.Center(), 0)
	assert.Equal(t, geo.NewPoint(10, 5), p)
}

func assertOnBoundary(t *testing.T, n *testNode, x, y float64) {
	t.Helper()
	b := absoluteBounds(n)
	p := geo.NewPoint(x, y)
	assert.True(t, b.OnBoundary(p, 1e-6), "%v not on the boundary of %v %v", p.ToString(), n.id, b.ToString())
}

func ptr(s string) *string {
	return &s
}
