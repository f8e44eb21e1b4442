package vec

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEq(a, b Vec2) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}

func TestAddSubScale(t *testing.T) {
	a := Vec2{3, 4}
	b := Vec2{1, -2}

	if got := a.Add(b); got != (Vec2{4, 2}) {
		t.Errorf("Add = %v", got)
	}
	if got := a.Sub(b); got != (Vec2{2, 6}) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Scale(2); got != (Vec2{6, 8}) {
		t.Errorf("Scale = %v", got)
	}
	// Value methods never mutate the receiver.
	if a != (Vec2{3, 4}) {
		t.Errorf("receiver mutated: %v", a)
	}
}

func TestLengthAndNormalize(t *testing.T) {
	v := Vec2{3, 4}
	if v.Length() != 5 {
		t.Errorf("Length = %v", v.Length())
	}
	if v.LengthSq() != 25 {
		t.Errorf("LengthSq = %v", v.LengthSq())
	}
	n := v.Normalize()
	if math.Abs(n.Length()-1) > eps {
		t.Errorf("Normalize length = %v", n.Length())
	}
	if got := (Vec2{}).Normalize(); got != (Vec2{}) {
		t.Errorf("Normalize of zero vector = %v, want zero", got)
	}
}

func TestRotate(t *testing.T) {
	v := Vec2{1, 0}
	if got := v.Rotate(math.Pi / 2); !almostEq(got, Vec2{0, 1}) {
		t.Errorf("Rotate 90deg = %v", got)
	}
	if got := v.Rotate(math.Pi); !almostEq(got, Vec2{-1, 0}) {
		t.Errorf("Rotate 180deg = %v", got)
	}
	if got := v.Perp(); got != (Vec2{0, 1}) {
		t.Errorf("Perp = %v", got)
	}
}

func TestLerp(t *testing.T) {
	a := Vec2{0, 0}
	b := Vec2{10, -10}
	if got := a.Lerp(b, 0); got != a {
		t.Errorf("Lerp t=0 = %v", got)
	}
	if got := a.Lerp(b, 1); got != b {
		t.Errorf("Lerp t=1 = %v", got)
	}
	if got := a.Lerp(b, 0.5); got != (Vec2{5, -5}) {
		t.Errorf("Lerp t=0.5 = %v", got)
	}
}

func TestDotCross(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}
	if a.Dot(b) != 11 {
		t.Errorf("Dot = %v", a.Dot(b))
	}
	if a.Cross(b) != -2 {
		t.Errorf("Cross = %v", a.Cross(b))
	}
}

func TestFromAngle(t *testing.T) {
	v := FromAngle(math.Pi/2, 3)
	if !almostEq(v, Vec2{0, 3}) {
		t.Errorf("FromAngle = %v", v)
	}
	if math.Abs(v.Angle()-math.Pi/2) > eps {
		t.Errorf("Angle = %v", v.Angle())
	}
}

func TestClampLength(t *testing.T) {
	v := Vec2{30, 40}
	clamped := v.ClampLength(5)
	if math.Abs(clamped.Length()-5) > eps {
		t.Errorf("ClampLength length = %v", clamped.Length())
	}
	short := Vec2{1, 1}
	if short.ClampLength(5) != short {
		t.Errorf("ClampLength should not touch short vectors")
	}
}

func TestInPlaceTwinsMatchValueForms(t *testing.T) {
	a := Vec2{3, 4}
	b := Vec2{1, -2}

	p := a
	p.AddInPlace(b)
	if p != a.Add(b) {
		t.Errorf("AddInPlace = %v, want %v", p, a.Add(b))
	}

	p = a
	p.SubInPlace(b)
	if p != a.Sub(b) {
		t.Errorf("SubInPlace = %v, want %v", p, a.Sub(b))
	}

	p = a
	p.ScaleInPlace(2.5)
	if p != a.Scale(2.5) {
		t.Errorf("ScaleInPlace = %v, want %v", p, a.Scale(2.5))
	}

	p = a
	p.NormalizeInPlace()
	if p != a.Normalize() {
		t.Errorf("NormalizeInPlace = %v, want %v", p, a.Normalize())
	}

	p = a
	p.RotateInPlace(1.3)
	if p != a.Rotate(1.3) {
		t.Errorf("RotateInPlace = %v, want %v", p, a.Rotate(1.3))
	}

	p = a
	p.LerpInPlace(b, 0.25)
	if p != a.Lerp(b, 0.25) {
		t.Errorf("LerpInPlace = %v, want %v", p, a.Lerp(b, 0.25))
	}
}

func TestNormalizeAngle(t *testing.T) {
	if got := NormalizeAngle(3 * math.Pi); math.Abs(got-math.Pi) > eps {
		t.Errorf("NormalizeAngle(3pi) = %v", got)
	}
	if got := NormalizeAngle(-3 * math.Pi); math.Abs(got+math.Pi) > eps {
		t.Errorf("NormalizeAngle(-3pi) = %v", got)
	}
	if got := NormalizeAngle(0.5); got != 0.5 {
		t.Errorf("NormalizeAngle(0.5) = %v", got)
	}
}

func TestLerpAngleShortPath(t *testing.T) {
	// From 170deg to -170deg the short path crosses pi, not zero.
	from := 170 * math.Pi / 180
	to := -170 * math.Pi / 180
	mid := LerpAngle(from, to, 0.5)
	want := math.Pi // halfway across the seam
	if math.Abs(NormalizeAngle(mid-want)) > 1e-6 {
		t.Errorf("LerpAngle midpoint = %v, want %v", mid, want)
	}
}
