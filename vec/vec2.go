// Package vec provides 2D vector arithmetic in world units. Operations come
// in two forms: value methods that return a new vector, and separately named
// in-place methods on a pointer receiver. There is no package state.
package vec

import "math"

// Vec2 is a 2D vector or point.
type Vec2 struct {
	X, Y float64
}

// FromAngle returns a vector of the given magnitude pointing at angle radians.
func FromAngle(angle, magnitude float64) Vec2 {
	return Vec2{X: magnitude * math.Cos(angle), Y: magnitude * math.Sin(angle)}
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v multiplied by a scalar.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Neg returns -v.
func (v Vec2) Neg() Vec2 { return Vec2{-v.X, -v.Y} }

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

// Cross returns the scalar 2D cross product of v and o.
func (v Vec2) Cross(o Vec2) float64 { return v.X*o.Y - v.Y*o.X }

// Length returns the magnitude of v.
func (v Vec2) Length() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y) }

// LengthSq returns the squared magnitude of v, avoiding the square root.
func (v Vec2) LengthSq() float64 { return v.X*v.X + v.Y*v.Y }

// Distance returns the distance between v and o.
func (v Vec2) Distance(o Vec2) float64 { return v.Sub(o).Length() }

// Normalize returns a unit vector in the direction of v, or the zero vector
// when v has zero length.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Rotate returns v rotated counterclockwise by angle radians.
func (v Vec2) Rotate(angle float64) Vec2 {
	sin, cos := math.Sincos(angle)
	return Vec2{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

// Lerp returns the linear interpolation between v and o at parameter t.
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}

// Angle returns the angle of v in radians.
func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }

// Perp returns v rotated 90 degrees counterclockwise.
func (v Vec2) Perp() Vec2 { return Vec2{-v.Y, v.X} }

// ClampLength returns v shortened to max if its magnitude exceeds max.
func (v Vec2) ClampLength(max float64) Vec2 {
	l := v.Length()
	if l <= max || l == 0 {
		return v
	}
	return v.Scale(max / l)
}

// AddInPlace sets v to v + o.
func (v *Vec2) AddInPlace(o Vec2) { v.X += o.X; v.Y += o.Y }

// SubInPlace sets v to v - o.
func (v *Vec2) SubInPlace(o Vec2) { v.X -= o.X; v.Y -= o.Y }

// ScaleInPlace multiplies v by a scalar.
func (v *Vec2) ScaleInPlace(s float64) { v.X *= s; v.Y *= s }

// NormalizeInPlace scales v to unit length, leaving a zero vector unchanged.
func (v *Vec2) NormalizeInPlace() { *v = v.Normalize() }

// RotateInPlace rotates v counterclockwise by angle radians.
func (v *Vec2) RotateInPlace(angle float64) { *v = v.Rotate(angle) }

// LerpInPlace moves v toward o by parameter t.
func (v *Vec2) LerpInPlace(o Vec2, t float64) { *v = v.Lerp(o, t) }

// NormalizeAngle wraps an angle to [-Pi, Pi].
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// LerpAngle interpolates between two angles taking the short path.
func LerpAngle(from, to, t float64) float64 {
	return from + NormalizeAngle(to-from)*t
}
