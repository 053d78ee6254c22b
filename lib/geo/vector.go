package geo

import (
	"math"
)

// A 2D Vector with components (x, y) based on the origin.
// Vectors are values; none of the operations mutate the receiver.
type Vector struct {
	X float64
	Y float64
}

func NewVector(x, y float64) Vector {
	return Vector{X: x, Y: y}
}

// New Vector of length and pointing in the direction of angle, measured from the
// positive x axis towards the positive y axis
func NewVectorFromProperties(length float64, angleInRadians float64) Vector {
	return NewVector(
		length*math.Cos(angleInRadians),
		length*math.Sin(angleInRadians),
	)
}

func (a Vector) Add(b Vector) Vector {
	return Vector{X: a.X + b.X, Y: a.Y + b.Y}
}

func (a Vector) Minus(b Vector) Vector {
	return Vector{X: a.X - b.X, Y: a.Y - b.Y}
}

func (a Vector) Multiply(v float64) Vector {
	return Vector{X: a.X * v, Y: a.Y * v}
}

func (a Vector) Length() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y)
}

func (a Vector) IsZero() bool {
	return a.X == 0 && a.Y == 0
}

// Creates an unit Vector pointing in the same direction of this Vector.
// The zero Vector has no direction and stays zero.
func (a Vector) Unit() Vector {
	l := a.Length()
	if l == 0 {
		return Vector{}
	}
	return a.Multiply(1 / l)
}

// Limit returns a with its length capped at max.
// A Vector already within max is returned unchanged.
func (a Vector) Limit(max float64) Vector {
	l := a.Length()
	if l <= max {
		return a
	}
	return a.Multiply(max / l)
}

// Angle is the direction of a in radians, in (-π, π].
func (a Vector) Angle() float64 {
	return math.Atan2(a.Y, a.X)
}

func (a Vector) ToPoint() *Point {
	return &Point{a.X, a.Y}
}
