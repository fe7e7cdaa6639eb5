// Package geom provides the planar position primitives shared by the
// navigation packages. Positions are in meters, either vehicle-relative or
// track-relative depending on the caller.
package geom

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Position is an immutable 2D point. All operations return new values.
type Position struct {
	X float64
	Y float64
}

// Origin is the zero position.
var Origin = Position{}

func (p Position) vec() r2.Point { return r2.Point{X: p.X, Y: p.Y} }

func fromVec(v r2.Point) Position { return Position{X: v.X, Y: v.Y} }

// Add returns p + q.
func (p Position) Add(q Position) Position { return fromVec(p.vec().Add(q.vec())) }

// Sub returns p - q.
func (p Position) Sub(q Position) Position { return fromVec(p.vec().Sub(q.vec())) }

// Scale returns p * k.
func (p Position) Scale(k float64) Position { return fromVec(p.vec().Mul(k)) }

// Rotate rotates p counter-clockwise about the origin by angle radians.
func (p Position) Rotate(angle float64) Position {
	sin, cos := math.Sincos(angle)
	return Position{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}

// Lerp linearly interpolates between p (t=0) and q (t=1).
func (p Position) Lerp(q Position, t float64) Position {
	return p.Add(q.Sub(p).Scale(t))
}

// Dist returns the Euclidean distance between p and q.
func (p Position) Dist(q Position) float64 { return p.vec().Sub(q.vec()).Norm() }

// DistSquared avoids the square root for comparisons.
func (p Position) DistSquared(q Position) float64 {
	d := p.vec().Sub(q.vec())
	return d.Dot(d)
}

// DistAlong returns the point d meters from p toward q. A degenerate segment
// returns p.
func (p Position) DistAlong(q Position, d float64) Position {
	length := p.Dist(q)
	if length == 0 {
		return p
	}
	return p.Lerp(q, d/length)
}

// Angle is the direction of p from the origin, in (-π, π].
func (p Position) Angle() float64 { return math.Atan2(p.Y, p.X) }

// Norm is the distance of p from the origin.
func (p Position) Norm() float64 { return p.vec().Norm() }

func (p Position) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)
}

// NormalizeAngle wraps a to (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}
