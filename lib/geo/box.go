package geo

import (
	"fmt"
	"math"
)

type Box struct {
	TopLeft *Point
	Width   float64
	Height  float64
}

func NewBox(tl *Point, width, height float64) *Box {
	return &Box{
		TopLeft: tl,
		Width:   width,
		Height:  height,
	}
}

func (b *Box) Copy() *Box {
	if b == nil {
		return nil
	}
	return NewBox(b.TopLeft.Copy(), b.Width, b.Height)
}

func (b *Box) Center() *Point {
	return NewPoint(b.TopLeft.X+b.Width/2, b.TopLeft.Y+b.Height/2)
}

func (b *Box) Right() float64 {
	return b.TopLeft.X + b.Width
}

func (b *Box) Bottom() float64 {
	return b.TopLeft.Y + b.Height
}

// Translate returns a copy of b moved by v.
func (b *Box) Translate(v Vector) *Box {
	return NewBox(b.TopLeft.AddVector(v), b.Width, b.Height)
}

// Union returns the smallest box containing both b and b2.
func (b *Box) Union(b2 *Box) *Box {
	if b == nil {
		return b2.Copy()
	}
	if b2 == nil {
		return b.Copy()
	}
	x1 := math.Min(b.TopLeft.X, b2.TopLeft.X)
	y1 := math.Min(b.TopLeft.Y, b2.TopLeft.Y)
	x2 := math.Max(b.Right(), b2.Right())
	y2 := math.Max(b.Bottom(), b2.Bottom())
	return NewBox(NewPoint(x1, y1), x2-x1, y2-y1)
}

// Contains reports whether p is inside b or within e of its boundary.
func (b *Box) Contains(p *Point, e float64) bool {
	return p.X >= b.TopLeft.X-e && p.X <= b.Right()+e &&
		p.Y >= b.TopLeft.Y-e && p.Y <= b.Bottom()+e
}

// OnBoundary reports whether p lies on one of the four sides of b, within e.
func (b *Box) OnBoundary(p *Point, e float64) bool {
	if !b.Contains(p, e) {
		return false
	}
	return PrecisionCompare(p.X, b.TopLeft.X, e) == 0 ||
		PrecisionCompare(p.X, b.Right(), e) == 0 ||
		PrecisionCompare(p.Y, b.TopLeft.Y, e) == 0 ||
		PrecisionCompare(p.Y, b.Bottom(), e) == 0
}

// BoundaryPoint returns where a ray leaving the center of b at lineAngle crosses the
// boundary of b. Angles grow from the positive x axis towards positive y, so with
// y pointing down, negative angles head for the top side.
//
// The circle is split into four sectors by the angles of the box diagonals:
//
//	      top
//	   \       /
//	left   c   right
//	   /       \
//	     bottom
func (b *Box) BoundaryPoint(lineAngle float64) *Point {
	cornerAngle := math.Atan2(b.Height, b.Width)
	bottomRightAngle := cornerAngle
	bottomLeftAngle := math.Pi - bottomRightAngle
	topRightAngle := -bottomRightAngle
	topLeftAngle := -bottomLeftAngle

	halfW, halfH := b.Width*.5, b.Height*.5
	var x, y float64
	switch {
	case lineAngle >= topLeftAngle && lineAngle <= topRightAngle:
		x = b.TopLeft.X + halfW + math.Tan(math.Pi/2-lineAngle)*(-halfH)
		y = b.TopLeft.Y
	case lineAngle <= bottomLeftAngle && lineAngle >= bottomRightAngle:
		x = b.TopLeft.X + halfW + math.Tan(math.Pi/2-lineAngle)*halfH
		y = b.Bottom()
	case lineAngle <= bottomRightAngle && lineAngle >= topRightAngle:
		x = b.Right()
		y = b.TopLeft.Y + halfH + math.Tan(lineAngle)*halfW
	default:
		x = b.TopLeft.X
		y = b.TopLeft.Y + halfH + math.Tan(lineAngle)*(-halfW)
	}
	return NewPoint(x, y)
}

func (b *Box) ToString() string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("{TopLeft: %s, Width: %.0f, Height: %.0f}", b.TopLeft.ToString(), b.Width, b.Height)
}
