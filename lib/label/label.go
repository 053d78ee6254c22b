package label

import (
	"encoding/json"
	"fmt"

	"oss.terrastruct.com/fdlayout/lib/geo"
)

// This is the % location where labels are placed along a link
const CENTER_LABEL_POSITION = 2.0 / 4.0

// This is the space between a container border and its children
const PADDING = 5

// Halign is the horizontal alignment of a label relative to its position.
type Halign int8

const (
	Unset Halign = iota

	Left
	Center
	Right
)

func FromString(s string) Halign {
	switch s {
	case "left":
		return Left
	case "center":
		return Center
	case "right":
		return Right
	default:
		return Unset
	}
}

func (halign Halign) String() string {
	switch halign {
	case Left:
		return "left"
	case Center:
		return "center"
	case Right:
		return "right"
	default:
		return ""
	}
}

func (halign Halign) MarshalJSON() ([]byte, error) {
	return json.Marshal(halign.String())
}

func (halign *Halign) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	h := FromString(s)
	if h == Unset && s != "" {
		return fmt.Errorf("unknown label alignment %q", s)
	}
	*halign = h
	return nil
}

// BelowBox is the anchor of a center aligned label directly under box.
func BelowBox(box *geo.Box) *geo.Point {
	return geo.NewPoint(box.TopLeft.X+box.Width*.5, box.Bottom())
}

// OnSegment is the anchor of a center aligned label of the given height placed at
// the middle of the segment start -> end, raised by half its height.
func OnSegment(start, end *geo.Point, height float64) *geo.Point {
	mid := start.Interpolate(end, CENTER_LABEL_POSITION)
	return geo.NewPoint(mid.X, mid.Y-height*CENTER_LABEL_POSITION)
}
