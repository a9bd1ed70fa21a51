// Package render draws a transit map into a scene document: station glyphs
// from the markup components first, then the bezier lines between them.
package render

import (
	"transitmap/diagram"
	"transitmap/geometry"
)

// Text locations, relative to the stripe stack.
const (
	TextTop    = "top"
	TextBottom = "bottom"
	TextLeft   = "left"
	TextRight  = "right"
)

// Stripe facings.
const (
	FacingLeft  = "left"
	FacingRight = "right"
)

// GlyphLayout is how a station glyph is arranged for one orientation and
// traffic handedness.
type GlyphLayout struct {
	TextLocation string
	// Rotation of the stripe stack in degrees. Stripes are drawn
	// horizontally and turned a quarter for vertical stations.
	Rotation float64
	Facing   string
	// Reverse flips the stacking order of the stripes.
	Reverse bool
	// Anchor is the point of the glyph frame, as a fraction of its size,
	// that lands on the station position.
	Anchor geometry.Point
}

// LayoutFor returns the glyph layout of a station.
func LayoutFor(o diagram.Orientation, rightHand bool) GlyphLayout {
	var l GlyphLayout
	switch o {
	case diagram.Left:
		l.TextLocation = pick(rightHand, TextTop, TextBottom)
		l.Facing = FacingLeft
		l.Reverse = !rightHand
		l.Anchor = geometry.Point{X: 0.5, Y: pickf(rightHand, 1, 0)}
	case diagram.Right:
		l.TextLocation = pick(rightHand, TextBottom, TextTop)
		l.Facing = FacingRight
		l.Reverse = rightHand
		l.Anchor = geometry.Point{X: 0.5, Y: pickf(rightHand, 0, 1)}
	case diagram.Up:
		l.TextLocation = pick(rightHand, TextRight, TextLeft)
		l.Rotation = 90
		l.Facing = FacingRight
		l.Reverse = rightHand
		l.Anchor = geometry.Point{X: pickf(rightHand, 0, 1), Y: 0.5}
	case diagram.Down:
		l.TextLocation = pick(rightHand, TextLeft, TextRight)
		l.Rotation = 90
		l.Facing = FacingLeft
		l.Reverse = !rightHand
		l.Anchor = geometry.Point{X: pickf(rightHand, 1, 0), Y: 0.5}
	}
	return l
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

func pickf(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
