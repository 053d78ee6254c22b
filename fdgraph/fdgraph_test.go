package fdgraph_test

import (
	"errors"
	"testing"

	tassert "github.com/stretchr/testify/assert"

	"oss.terrastruct.com/util-go/assert"

	"oss.terrastruct.com/fdlayout/fdgraph"
	"oss.terrastruct.com/fdlayout/lib/geo"
)

func nestedGraph() *fdgraph.Graph {
	g := fdgraph.NewGraph()
	g.AddNode("a", 100, 50)
	g.AddNode("b", 10, 10).Container = "a"
	g.AddNode("c", 10, 10).Container = "b"
	g.AddNode("d", 10, 10).Container = "a"
	g.AddNode("e", 10, 10)
	g.AddLink("", "c", "d")
	g.AddLink("", "c", "e")
	g.AddLink("", "b", "c")
	return g
}

func TestHierarchy(t *testing.T) {
	t.Parallel()

	g := nestedGraph()
	c := g.Node("c")
	tassert.Equal(t, []string{"b", "a", ""}, g.Ancestors(c))
	tassert.Equal(t, 2, g.Depth(c))
	tassert.True(t, g.IsDescendantOf(c, "a"))
	tassert.False(t, g.IsDescendantOf(c, "d"))
	tassert.True(t, g.IsContainer(g.Node("a")))
	tassert.False(t, g.IsContainer(g.Node("e")))

	var ids []string
	for _, n := range g.ContainersDeepestFirst() {
		ids = append(ids, n.ID)
	}
	tassert.Equal(t, []string{"b", "a"}, ids)

	tassert.Equal(t, "a", g.LinkContainer(g.Links[0]))
	tassert.Equal(t, "", g.LinkContainer(g.Links[1]))
	// a container does not hold itself
	tassert.Equal(t, "a", g.LinkContainer(g.Links[2]))
	tassert.Equal(t, "(c -> d)[0]", g.Links[0].ID)
}

func TestAncestorsCycle(t *testing.T) {
	t.Parallel()

	g := fdgraph.NewGraph()
	g.AddNode("a", 1, 1).Container = "b"
	g.AddNode("b", 1, 1).Container = "a"
	tassert.Equal(t, []string{"b", ""}, g.Ancestors(g.Node("a")))
}

func TestAbsolutePosition(t *testing.T) {
	t.Parallel()

	g := nestedGraph()
	g.Node("a").Position = geo.NewPoint(100, 200)
	g.Node("b").Position = geo.NewPoint(10, 20)
	g.Node("c").Position = geo.NewPoint(1, 2)

	tassert.Equal(t, geo.NewPoint(111, 222), g.AbsolutePosition(g.Node("c")))
	// unset positions count as the origin
	tassert.Equal(t, geo.NewPoint(100, 200), g.AbsolutePosition(g.Node("d")))

	l := g.Links[0]
	l.Points = []float64{1, 2, 3, 4}
	tassert.Equal(t, []float64{101, 202, 103, 204}, g.AbsolutePoints(l))
}

func TestLevel(t *testing.T) {
	t.Parallel()

	g := nestedGraph()
	g.Node("a").Position = geo.NewPoint(100, 200)
	g.Node("b").Position = geo.NewPoint(10, 20)

	top := g.Level("")
	tassert.Equal(t, 2, len(top.Nodes()))
	tassert.Equal(t, 1, len(top.Links()))
	tassert.Equal(t, geo.NewPoint(0, 0), top.Origin())

	a := g.Level("a")
	tassert.Equal(t, "a", a.Container())
	tassert.Equal(t, 2, len(a.Nodes()))
	tassert.Equal(t, 2, len(a.Links()))
	tassert.Equal(t, geo.NewPoint(100, 200), a.Origin())
	tassert.Equal(t, geo.NewVector(10, 20), a.Offset(g.Node("c")))
	tassert.Equal(t, geo.Vector{}, a.Offset(g.Node("d")))
}

func TestAssignGroupColors(t *testing.T) {
	t.Parallel()

	g := fdgraph.NewGraph()
	g.AddNode("a", 1, 1).Group = "x"
	g.AddNode("b", 1, 1).Group = "y"
	g.AddNode("c", 1, 1).Group = "x"
	d := g.AddNode("d", 1, 1)
	d.Group = "x"
	d.Color = "#000000"
	g.AddNode("e", 1, 1)

	g.AssignGroupColors()

	tassert.NotEmpty(t, g.Node("a").Color)
	tassert.Equal(t, g.Node("a").Color, g.Node("c").Color)
	tassert.NotEqual(t, g.Node("a").Color, g.Node("b").Color)
	tassert.Equal(t, "#000000", g.Node("d").Color)
	tassert.Empty(t, g.Node("e").Color)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name  string
		build func(g *fdgraph.Graph)
		exp   string
	}{
		{
			name: "valid",
			build: func(g *fdgraph.Graph) {
				g.AddNode("a", 1, 1)
				g.AddNode("b", 1, 1).Container = "a"
				g.AddLink("", "a", "b")
				g.AddLink("", "a", "nowhere")
			},
		},
		{
			name: "missing_id",
			build: func(g *fdgraph.Graph) {
				g.AddNode("", 1, 1)
			},
			exp: "node 0: missing id",
		},
		{
			name: "duplicate_ids",
			build: func(g *fdgraph.Graph) {
				g.AddNode("a", 1, 1)
				g.AddNode("a", 1, 1)
				g.AddLink("x", "a", "a")
				g.AddLink("x", "a", "a")
			},
			exp: `node "a": duplicate id
link "x": duplicate id`,
		},
		{
			name: "unknown_container",
			build: func(g *fdgraph.Graph) {
				g.AddNode("a", 1, 1).Container = "b"
			},
			exp: `node "a": unknown container "b"`,
		},
		{
			name: "cycle",
			build: func(g *fdgraph.Graph) {
				g.AddNode("a", 1, 1).Container = "b"
				g.AddNode("b", 1, 1).Container = "a"
			},
			exp: `node "a": container cycle`,
		},
		{
			name: "self_container",
			build: func(g *fdgraph.Graph) {
				g.AddNode("a", 1, 1).Container = "a"
			},
			exp: `node "a": container cycle`,
		},
		{
			name: "negative_size",
			build: func(g *fdgraph.Graph) {
				g.AddNode("a", -1, 1)
			},
			exp: `node "a": invalid size -1x1`,
		},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			g := fdgraph.NewGraph()
			tc.build(g)
			err := g.Validate()
			if tc.exp == "" {
				assert.Success(t, err)
				return
			}
			assert.ErrorString(t, err, tc.exp)
		})
	}
}

func TestValidateCycleIs(t *testing.T) {
	t.Parallel()

	g := fdgraph.NewGraph()
	g.AddNode("a", 1, 1).Container = "a"
	tassert.True(t, errors.Is(g.Validate(), fdgraph.ErrContainerCycle))
}
