package geometry

import "math"

// Affine is a 2x3 transform [[A, B, TX], [C, D, TY]] mapping
// (x, y) to (A*x + B*y + TX, C*x + D*y + TY).
type Affine struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity is the identity transform.
var Identity = Affine{A: 1, D: 1}

// Translate returns a translation by (x, y).
func Translate(x, y float64) Affine {
	return Affine{A: 1, D: 1, TX: x, TY: y}
}

// Rotate returns a rotation of deg degrees, counter-clockwise as seen on a
// y-down canvas. Quarter turns are exact.
func Rotate(deg float64) Affine {
	cos, sin := cosSin(deg)
	return Affine{A: cos, B: sin, C: -sin, D: cos}
}

func cosSin(deg float64) (float64, float64) {
	n := math.Mod(deg, 360)
	if n < 0 {
		n += 360
	}
	switch n {
	case 0:
		return 1, 0
	case 90:
		return 0, 1
	case 180:
		return -1, 0
	case 270:
		return 0, -1
	}
	rad := n * math.Pi / 180
	return math.Cos(rad), math.Sin(rad)
}

// Mul returns the transform that applies n first and then m.
func (m Affine) Mul(n Affine) Affine {
	return Affine{
		A:  m.A*n.A + m.B*n.C,
		B:  m.A*n.B + m.B*n.D,
		TX: m.A*n.TX + m.B*n.TY + m.TX,
		C:  m.C*n.A + m.D*n.C,
		D:  m.C*n.B + m.D*n.D,
		TY: m.C*n.TX + m.D*n.TY + m.TY,
	}
}

// Apply transforms p.
func (m Affine) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.TX,
		Y: m.C*p.X + m.D*p.Y + m.TY,
	}
}

// Translation returns the (TX, TY) component.
func (m Affine) Translation() Point {
	return Point{X: m.TX, Y: m.TY}
}

// TransformRect returns the axis-aligned bounds of a w x h box at the origin
// after applying m.
func (m Affine) TransformRect(w, h float64) Rect {
	return BoundsOf(
		m.Apply(Point{}),
		m.Apply(Point{X: w}),
		m.Apply(Point{Y: h}),
		m.Apply(Point{X: w, Y: h}),
	)
}
