package scene

import (
	"math"

	"transitmap/geometry"
)

// layoutFor resolves sizes and auto-layout positions for the top-level
// subtree containing n. Top-level nodes keep the position they were given.
func (d *Document) layoutFor(n *Node) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	top := n
	for top.parent != nil && top.parent.kind != KindPage {
		top = top.parent
	}
	measure(top)
	arrange(top)
}

// footprint is the node's axis-aligned box in its parent's space, relative
// to the node's origin.
func footprint(n *Node) geometry.Rect {
	return geometry.Rotate(n.Rotation).TransformRect(n.width, n.height)
}

func isHorizontal(n *Node) bool { return n.Layout == LayoutHorizontal }

// measure computes intrinsic sizes bottom-up. Hug dimensions are replaced by
// the size of their content; fill dimensions start from their content size
// and are stretched later by arrange.
func measure(n *Node) {
	for _, c := range n.children {
		measure(c)
	}

	switch n.kind {
	case KindText:
		w, h := measureText(n)
		if n.SizingH != Fixed {
			n.width = w
		}
		if n.SizingV != Fixed {
			n.height = h
		}
	case KindFrame:
		if n.Layout == LayoutNone {
			measureFree(n)
			return
		}
		var primary, counter float64
		count := 0
		for _, c := range n.children {
			if !c.Visible {
				continue
			}
			fp := footprint(c)
			cp, cc := fp.Width, fp.Height
			if !isHorizontal(n) {
				cp, cc = cc, cp
			}
			primary += cp
			counter = math.Max(counter, cc)
			count++
		}
		if count > 1 {
			primary += n.ItemSpacing * float64(count-1)
		}
		w, h := primary, counter
		if !isHorizontal(n) {
			w, h = counter, primary
		}
		w += n.Padding.Left + n.Padding.Right
		h += n.Padding.Top + n.Padding.Bottom
		if n.SizingH != Fixed {
			n.width = w
		}
		if n.SizingV != Fixed {
			n.height = h
		}
	case KindVector:
		b := n.pathBounds()
		n.width, n.height = b.Width, b.Height
	}
}

// measureFree sizes a frame without auto-layout that hugs its children by
// their placed extents.
func measureFree(n *Node) {
	if n.SizingH != Hug && n.SizingV != Hug {
		return
	}
	var maxX, maxY float64
	for _, c := range n.children {
		if !c.Visible {
			continue
		}
		fp := footprint(c)
		maxX = math.Max(maxX, c.X+fp.X+fp.Width)
		maxY = math.Max(maxY, c.Y+fp.Y+fp.Height)
	}
	if n.SizingH == Hug {
		n.width = maxX
	}
	if n.SizingV == Hug {
		n.height = maxY
	}
}

func alignOffset(a Align, free float64) float64 {
	switch a {
	case AlignCenter:
		return free / 2
	case AlignMax:
		return free
	default:
		return 0
	}
}

// arrange stretches fill children and positions children of auto-layout
// frames top-down.
func arrange(n *Node) {
	if n.kind != KindFrame || n.Layout == LayoutNone {
		for _, c := range n.children {
			arrange(c)
		}
		return
	}

	horizontal := isHorizontal(n)
	innerW := n.width - n.Padding.Left - n.Padding.Right
	innerH := n.height - n.Padding.Top - n.Padding.Bottom
	innerPrimary, innerCounter := innerW, innerH
	padPrimary, padCounter := n.Padding.Left, n.Padding.Top
	parentPrimarySizing := n.SizingH
	if !horizontal {
		innerPrimary, innerCounter = innerH, innerW
		padPrimary, padCounter = n.Padding.Top, n.Padding.Left
		parentPrimarySizing = n.SizingV
	}

	var visible []*Node
	for _, c := range n.children {
		if c.Visible {
			visible = append(visible, c)
		}
	}

	primarySizing := func(c *Node) Sizing {
		if horizontal {
			return c.SizingH
		}
		return c.SizingV
	}
	counterSizing := func(c *Node) Sizing {
		if horizontal {
			return c.SizingV
		}
		return c.SizingH
	}
	setPrimary := func(c *Node, v float64) {
		if horizontal {
			c.width = v
		} else {
			c.height = v
		}
	}
	setCounter := func(c *Node, v float64) {
		if horizontal {
			c.height = v
		} else {
			c.width = v
		}
	}

	// A hugging parent cannot hand out free space, so fill children keep
	// their content size on the primary axis.
	var fixedSum float64
	var fills []*Node
	for _, c := range visible {
		if primarySizing(c) == Fill && c.Rotation == 0 && parentPrimarySizing != Hug {
			fills = append(fills, c)
			continue
		}
		fp := footprint(c)
		if horizontal {
			fixedSum += fp.Width
		} else {
			fixedSum += fp.Height
		}
	}
	gaps := 0.0
	if len(visible) > 1 {
		gaps = n.ItemSpacing * float64(len(visible)-1)
	}
	if len(fills) > 0 {
		each := math.Max(0, (innerPrimary-fixedSum-gaps)/float64(len(fills)))
		for _, c := range fills {
			setPrimary(c, each)
		}
	}
	for _, c := range visible {
		if counterSizing(c) == Fill && c.Rotation == 0 {
			setCounter(c, math.Max(0, innerCounter))
		}
	}

	var content float64
	for _, c := range visible {
		fp := footprint(c)
		if horizontal {
			content += fp.Width
		} else {
			content += fp.Height
		}
	}
	content += gaps

	pos := padPrimary + alignOffset(n.PrimaryAlign, innerPrimary-content)
	for _, c := range visible {
		fp := footprint(c)
		cp, cc := fp.Width, fp.Height
		if !horizontal {
			cp, cc = cc, cp
		}
		cpos := padCounter + alignOffset(n.CounterAlign, innerCounter-cc)
		slotX, slotY := pos, cpos
		if !horizontal {
			slotX, slotY = cpos, pos
		}
		c.X = slotX - fp.X
		c.Y = slotY - fp.Y
		pos += cp + n.ItemSpacing
	}

	for _, c := range n.children {
		arrange(c)
	}
}
