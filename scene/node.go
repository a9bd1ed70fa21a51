// Package scene is an in-memory host document. It holds a page of drawable
// nodes (frames, text, shapes, vectors and groups), resolves auto-layout and
// exposes the absolute geometry the station renderer measures.
package scene

import (
	"transitmap/diagram"
	"transitmap/geometry"
)

// Kind is the type of a scene node.
type Kind int

const (
	KindPage Kind = iota
	KindFrame
	KindText
	KindRectangle
	KindEllipse
	KindPolygon
	KindVector
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindPage:
		return "PAGE"
	case KindFrame:
		return "FRAME"
	case KindText:
		return "TEXT"
	case KindRectangle:
		return "RECTANGLE"
	case KindEllipse:
		return "ELLIPSE"
	case KindPolygon:
		return "POLYGON"
	case KindVector:
		return "VECTOR"
	case KindGroup:
		return "GROUP"
	default:
		return "UNKNOWN"
	}
}

// Sizing is how a node's dimension is resolved on one axis.
type Sizing int

const (
	Fixed Sizing = iota
	Hug
	Fill
)

// LayoutMode is the auto-layout flow of a frame.
type LayoutMode int

const (
	LayoutNone LayoutMode = iota
	LayoutHorizontal
	LayoutVertical
)

// Align positions children along an auto-layout axis.
type Align int

const (
	AlignMin Align = iota
	AlignCenter
	AlignMax
)

// Padding is the inner spacing of an auto-layout frame.
type Padding struct {
	Left, Right, Top, Bottom float64
}

// VectorPath is a path in node-local coordinates.
type VectorPath struct {
	WindingRule string
	Data        string
}

// VectorRegion is a filled area of a vector network.
type VectorRegion struct {
	WindingRule string
	Loops       [][]int
}

// VectorNetwork is a set of vertices joined by segments.
type VectorNetwork struct {
	Vertices []geometry.Point
	Segments [][2]int
	Regions  []VectorRegion
}

// Node is a drawable object in the document. Structural changes go through
// the Document lock; attributes of a subtree belong to whoever built it.
type Node struct {
	id       string
	kind     Kind
	doc      *Document
	parent   *Node
	children []*Node
	removed  bool

	width, height float64

	Name     string
	Visible  bool
	Locked   bool
	X, Y     float64
	Rotation float64

	SizingH, SizingV Sizing

	// Frame auto-layout.
	Layout       LayoutMode
	ItemSpacing  float64
	Padding      Padding
	PrimaryAlign Align
	CounterAlign Align
	ClipsContent bool

	// Paint.
	Fill         *diagram.Color
	Stroke       *diagram.Color
	StrokeWeight float64
	StrokeCap    string
	StrokeJoin   string
	CornerRadius float64

	// Text.
	Characters string
	FontFamily string
	FontStyle  string
	FontSize   float64
	TextAlignH string
	TextAlignV string

	// Polygon and vector geometry.
	PointCount int
	Paths      []VectorPath
	Network    *VectorNetwork
}

// ID returns the node's document-unique id.
func (n *Node) ID() string { return n.id }

// Kind returns the node type.
func (n *Node) Kind() Kind { return n.kind }

// Parent returns the parent node, or nil for the page and detached nodes.
func (n *Node) Parent() *Node { return n.parent }

// Removed reports whether the node was removed from the document.
func (n *Node) Removed() bool { return n.removed }

// Children returns a copy of the child list, back to front.
func (n *Node) Children() []*Node {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return append([]*Node(nil), n.children...)
}

// Resize sets a fixed size on both axes.
func (n *Node) Resize(w, h float64) {
	n.width, n.height = w, h
}

// SetWidth fixes the width, keeping the height.
func (n *Node) SetWidth(w float64) {
	n.width = w
	n.SizingH = Fixed
}

// SetHeight fixes the height, keeping the width.
func (n *Node) SetHeight(h float64) {
	n.height = h
	n.SizingV = Fixed
}

// Size resolves layout for the node's top-level subtree and returns its size.
func (n *Node) Size() (float64, float64) {
	n.doc.layoutFor(n)
	return n.width, n.height
}

// RelativeTransform maps node-local coordinates to the parent's space.
func (n *Node) RelativeTransform() geometry.Affine {
	return geometry.Translate(n.X, n.Y).Mul(geometry.Rotate(n.Rotation))
}

// AbsoluteTransform maps node-local coordinates to page coordinates.
func (n *Node) AbsoluteTransform() geometry.Affine {
	n.doc.layoutFor(n)
	return n.absoluteTransform()
}

func (n *Node) absoluteTransform() geometry.Affine {
	m := n.RelativeTransform()
	for p := n.parent; p != nil && p.kind != KindPage; p = p.parent {
		m = p.RelativeTransform().Mul(m)
	}
	return m
}

// AbsoluteBounds returns the node's axis-aligned box on the page.
func (n *Node) AbsoluteBounds() geometry.Rect {
	n.doc.layoutFor(n)
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.absoluteBounds()
}

func (n *Node) absoluteBounds() geometry.Rect {
	switch n.kind {
	case KindGroup:
		var r geometry.Rect
		for _, c := range n.children {
			r = r.Union(c.absoluteBounds())
		}
		return r
	case KindVector:
		b := n.pathBounds()
		m := n.absoluteTransform()
		return geometry.BoundsOf(
			m.Apply(geometry.Point{X: b.X, Y: b.Y}),
			m.Apply(geometry.Point{X: b.X + b.Width, Y: b.Y}),
			m.Apply(geometry.Point{X: b.X, Y: b.Y + b.Height}),
			m.Apply(b.Max()),
		)
	default:
		return n.absoluteTransform().TransformRect(n.width, n.height)
	}
}

// pathBounds returns the box around every path point, control points included.
func (n *Node) pathBounds() geometry.Rect {
	var pts []geometry.Point
	for _, p := range n.Paths {
		cmds, err := geometry.ParsePath(p.Data)
		if err != nil {
			continue
		}
		for _, c := range cmds {
			pts = append(pts, c.Points...)
		}
	}
	return geometry.BoundsOf(pts...)
}

// AppendChild attaches child as the front-most child of n, detaching it from
// any previous parent.
func (n *Node) AppendChild(child *Node) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	child.detach()
	child.parent = n
	n.children = append(n.children, child)
}

// InsertChild attaches child at index i. Index 0 is the back.
func (n *Node) InsertChild(i int, child *Node) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	child.detach()
	if i < 0 {
		i = 0
	}
	if i > len(n.children) {
		i = len(n.children)
	}
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
	child.parent = n
}

// Remove deletes the node and its descendants from the document.
func (n *Node) Remove() {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.removed || n.kind == KindPage {
		return
	}
	n.detach()
	n.markRemoved()
}

// detach unlinks n from its parent. The document lock must be held.
func (n *Node) detach() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

func (n *Node) markRemoved() {
	n.removed = true
	delete(n.doc.nodes, n.id)
	for _, c := range n.children {
		c.markRemoved()
	}
	n.children = nil
}

// FindAll returns the descendants of n, depth first, for which match returns true.
func (n *Node) FindAll(match func(*Node) bool) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(x *Node) {
		for _, c := range x.Children() {
			if match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}
