package color

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mazznoer/csscolorparser"
)

// Hue step between consecutive group colors. Stepping by the golden angle keeps
// neighbouring groups apart however many groups follow.
const goldenAngle = 137.50776405003785

const (
	groupChroma    = .55
	groupLuminance = .65
)

// Normalize parses any CSS color and returns it as #rrggbb.
func Normalize(colorString string) (string, error) {
	c, err := csscolorparser.Parse(colorString)
	if err != nil {
		return "", err
	}
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex(), nil
}

// GroupColor is the color of the i-th distinct group.
func GroupColor(i int) string {
	h := math.Mod(float64(i)*goldenAngle, 360)
	return colorful.Hcl(h, groupChroma, groupLuminance).Clamped().Hex()
}

// GroupPalette hands out one color per group, in order of first appearance.
type GroupPalette struct {
	colors map[string]string
}

func NewGroupPalette() *GroupPalette {
	return &GroupPalette{
		colors: make(map[string]string),
	}
}

func (p *GroupPalette) Color(group string) string {
	if c, ok := p.colors[group]; ok {
		return c
	}
	c := GroupColor(len(p.colors))
	p.colors[group] = c
	return c
}
