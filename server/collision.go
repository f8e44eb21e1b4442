package main

import (
	"math"

	"gridhash/vec"
)

// CheckCircles reports whether two circles overlap
func CheckCircles(a vec.Vec2, ra float64, b vec.Vec2, rb float64) bool {
	radSum := ra + rb
	return a.Sub(b).LengthSq() <= radSum*radSum
}

// SegmentHitsCircle reports whether the segment p1-p2 intersects a circle.
// Used for fast projectiles so a shot can't tunnel through a ship between
// two ticks.
func SegmentHitsCircle(p1, p2, center vec.Vec2, r float64) bool {
	d := p2.Sub(p1)
	f := p1.Sub(center)

	a := d.LengthSq()
	if a == 0 {
		return f.LengthSq() <= r*r
	}
	b := 2 * f.Dot(d)
	c := f.LengthSq() - r*r

	disc := b*b - 4*a*c
	if disc < 0 {
		return false
	}
	disc = math.Sqrt(disc)
	t1 := (-b - disc) / (2 * a)
	t2 := (-b + disc) / (2 * a)
	return (t1 >= 0 && t1 <= 1) || (t2 >= 0 && t2 <= 1) || (t1 <= 0 && t2 >= 1)
}
