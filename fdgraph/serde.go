package fdgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"oss.terrastruct.com/util-go/go2"
	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/fdlayout/lib/color"
	"oss.terrastruct.com/fdlayout/lib/geo"
	"oss.terrastruct.com/fdlayout/lib/label"
)

type Format int

const (
	JSON Format = iota
	YAML
)

func (f Format) String() string {
	if f == YAML {
		return "yaml"
	}
	return "json"
}

// FormatFromPath picks the format by file extension. Anything that is not .yaml
// or .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// SniffFormat guesses the format of input without a path, such as stdin.
func SniffFormat(b []byte) Format {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		return JSON
	}
	return YAML
}

type SerializedGraph struct {
	Attributes map[string]interface{} `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Nodes      []SerializedNode       `json:"nodes" yaml:"nodes"`
	Links      []SerializedLink       `json:"links,omitempty" yaml:"links,omitempty"`
}

type SerializedNode struct {
	ID        string `json:"id" yaml:"id"`
	Group     string `json:"group,omitempty" yaml:"group,omitempty"`
	Container string `json:"container,omitempty" yaml:"container,omitempty"`
	Color     string `json:"color,omitempty" yaml:"color,omitempty"`

	// Size is shorthand for equal width and height.
	Size   *float64 `json:"size,omitempty" yaml:"size,omitempty"`
	Width  *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height *float64 `json:"height,omitempty" yaml:"height,omitempty"`
	// Bounds are content bounds not anchored at the node position. They win over
	// the size fields.
	Bounds *SerializedBox `json:"bounds,omitempty" yaml:"bounds,omitempty"`

	Label *SerializedLabel `json:"label,omitempty" yaml:"label,omitempty"`

	Position         *geo.Point `json:"position,omitempty" yaml:"position,omitempty"`
	AbsolutePosition *geo.Point `json:"absolutePosition,omitempty" yaml:"absolutePosition,omitempty"`
}

type SerializedLink struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`

	StartConnectorOffset float64 `json:"startConnectorOffset,omitempty" yaml:"startConnectorOffset,omitempty"`
	EndConnectorOffset   float64 `json:"endConnectorOffset,omitempty" yaml:"endConnectorOffset,omitempty"`

	Label *SerializedLabel `json:"label,omitempty" yaml:"label,omitempty"`

	Points         []float64 `json:"points,omitempty" yaml:"points,omitempty"`
	AbsolutePoints []float64 `json:"absolutePoints,omitempty" yaml:"absolutePoints,omitempty"`
}

type SerializedLabel struct {
	Width    float64    `json:"width" yaml:"width"`
	Height   float64    `json:"height" yaml:"height"`
	Position *geo.Point `json:"position,omitempty" yaml:"position,omitempty"`
	Halign   string     `json:"halign,omitempty" yaml:"halign,omitempty"`
}

type SerializedBox struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Decode parses a graph description in the given format. The result is not
// validated, see Validate.
func Decode(b []byte, format Format) (_ *Graph, err error) {
	defer xdefer.Errorf(&err, "failed to decode %v graph", format)

	var sg SerializedGraph
	switch format {
	case YAML:
		err = yaml.Unmarshal(b, &sg)
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		err = dec.Decode(&sg)
	}
	if err != nil {
		return nil, err
	}
	return sg.toGraph()
}

// Encode writes g as indented JSON including absolute positions and points.
func Encode(g *Graph) ([]byte, error) {
	b, err := json.MarshalIndent(toSerialized(g, true), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// SerializeGraph and DeserializeGraph carry a graph across the plugin protocol.
func SerializeGraph(g *Graph) ([]byte, error) {
	return json.Marshal(toSerialized(g, false))
}

// DeserializeGraph replaces the contents of g with the serialized graph.
func DeserializeGraph(b []byte, g *Graph) error {
	var sg SerializedGraph
	if err := json.Unmarshal(b, &sg); err != nil {
		return err
	}
	g2, err := sg.toGraph()
	if err != nil {
		return err
	}
	*g = *g2
	return nil
}

func (sg *SerializedGraph) toGraph() (*Graph, error) {
	g := NewGraph()
	for k, v := range sg.Attributes {
		g.Attributes[k] = attributeString(v)
	}

	for i, sn := range sg.Nodes {
		w, h, err := sn.size()
		if err != nil {
			return nil, fmt.Errorf("node %d (%#v): %w", i, sn.ID, err)
		}
		n := g.AddNode(sn.ID, w, h)
		if sn.Bounds != nil {
			n.ContentBounds = geo.NewBox(geo.NewPoint(sn.Bounds.X, sn.Bounds.Y), sn.Bounds.Width, sn.Bounds.Height)
		}
		n.Group = sn.Group
		n.Container = sn.Container
		if sn.Color != "" {
			c, err := color.Normalize(sn.Color)
			if err != nil {
				return nil, fmt.Errorf("node %#v: invalid color %#v: %w", sn.ID, sn.Color, err)
			}
			n.Color = c
		}
		if sn.Position != nil {
			n.Position = sn.Position.Copy()
		}
		if sn.Label != nil {
			n.LabelBounds, n.LabelPosition, n.LabelHalign, err = sn.Label.decode()
			if err != nil {
				return nil, fmt.Errorf("node %#v: %w", sn.ID, err)
			}
		}
	}

	for _, sl := range sg.Links {
		l := g.AddLink(sl.ID, sl.Start, sl.End)
		l.StartConnectorOffset = sl.StartConnectorOffset
		l.EndConnectorOffset = sl.EndConnectorOffset
		if len(sl.Points) > 0 {
			l.Points = append([]float64(nil), sl.Points...)
		}
		if sl.Label != nil {
			var err error
			l.LabelBounds, l.LabelPosition, l.LabelHalign, err = sl.Label.decode()
			if err != nil {
				return nil, fmt.Errorf("link %#v: %w", l.ID, err)
			}
		}
	}
	return g, nil
}

func (sn SerializedNode) size() (w, h float64, err error) {
	w, h = DEFAULT_NODE_SIZE, DEFAULT_NODE_SIZE
	if sn.Size != nil {
		if sn.Width != nil || sn.Height != nil {
			return 0, 0, fmt.Errorf("size cannot be combined with width or height")
		}
		w, h = *sn.Size, *sn.Size
	}
	if sn.Width != nil {
		w = *sn.Width
	}
	if sn.Height != nil {
		h = *sn.Height
	}
	return w, h, nil
}

func (sl *SerializedLabel) decode() (*geo.Box, *geo.Point, label.Halign, error) {
	halign := label.FromString(sl.Halign)
	if halign == label.Unset && sl.Halign != "" {
		return nil, nil, label.Unset, fmt.Errorf("unknown label alignment %#v", sl.Halign)
	}
	var pos *geo.Point
	if sl.Position != nil {
		pos = sl.Position.Copy()
	}
	return geo.NewBox(geo.NewPoint(0, 0), sl.Width, sl.Height), pos, halign, nil
}

func encodeLabel(b *geo.Box, pos *geo.Point, halign label.Halign) *SerializedLabel {
	if b == nil {
		return nil
	}
	return &SerializedLabel{
		Width:    b.Width,
		Height:   b.Height,
		Position: pos,
		Halign:   halign.String(),
	}
}

func toSerialized(g *Graph, absolute bool) *SerializedGraph {
	sg := &SerializedGraph{
		Nodes: make([]SerializedNode, 0, len(g.Nodes)),
	}
	if len(g.Attributes) > 0 {
		sg.Attributes = make(map[string]interface{}, len(g.Attributes))
		for k, v := range g.Attributes {
			sg.Attributes[k] = v
		}
	}

	for _, n := range g.Nodes {
		sn := SerializedNode{
			ID:        n.ID,
			Group:     n.Group,
			Container: n.Container,
			Color:     n.Color,
			Position:  n.Position,
			Label:     encodeLabel(n.LabelBounds, n.LabelPosition, n.LabelHalign),
		}
		if b := n.ContentBounds; b != nil {
			if b.TopLeft.X == 0 && b.TopLeft.Y == 0 {
				sn.Width = go2.Pointer(b.Width)
				sn.Height = go2.Pointer(b.Height)
			} else {
				sn.Bounds = &SerializedBox{X: b.TopLeft.X, Y: b.TopLeft.Y, Width: b.Width, Height: b.Height}
			}
		}
		if absolute && n.Position != nil {
			sn.AbsolutePosition = g.AbsolutePosition(n)
		}
		sg.Nodes = append(sg.Nodes, sn)
	}

	for _, l := range g.Links {
		sl := SerializedLink{
			ID:                   l.ID,
			Start:                l.Start,
			End:                  l.End,
			StartConnectorOffset: l.StartConnectorOffset,
			EndConnectorOffset:   l.EndConnectorOffset,
			Points:               l.Points,
			Label:                encodeLabel(l.LabelBounds, l.LabelPosition, l.LabelHalign),
		}
		if absolute {
			sl.AbsolutePoints = g.AbsolutePoints(l)
		}
		sg.Links = append(sg.Links, sl)
	}
	return sg
}

func attributeString(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}
