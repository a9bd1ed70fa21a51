package scene

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"transitmap/geometry"
)

// ErrEmptyGroup is returned when grouping no nodes.
var ErrEmptyGroup = errors.New("cannot group an empty node list")

// Document is a single page of nodes. It is safe for concurrent use as long
// as each subtree is mutated by one goroutine at a time.
type Document struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	page  *Node
	fonts *FontLoader
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	d := &Document{
		nodes: make(map[string]*Node),
		fonts: NewFontLoader(),
	}
	d.page = d.newNode(KindPage)
	d.page.Name = "Page 1"
	return d
}

// Page returns the root page node.
func (d *Document) Page() *Node { return d.page }

// Fonts returns the document's font loader.
func (d *Document) Fonts() *FontLoader { return d.fonts }

// Lookup returns the live node with the given id. Removed nodes and unknown
// ids both report false.
func (d *Document) Lookup(id string) (*Node, bool) {
	if id == "" {
		return nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[id]
	if !ok || n.removed {
		return nil, false
	}
	return n, true
}

// Len returns the number of live nodes, including the page.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.nodes)
}

func (d *Document) newNode(kind Kind) *Node {
	n := &Node{
		id:      uuid.NewString(),
		kind:    kind,
		doc:     d,
		Visible: true,
	}
	d.mu.Lock()
	d.nodes[n.id] = n
	d.mu.Unlock()
	return n
}

// CreateFrame returns a detached 100x100 frame with no fill and no layout.
func (d *Document) CreateFrame() *Node {
	n := d.newNode(KindFrame)
	n.Name = "Frame"
	n.Resize(100, 100)
	n.ClipsContent = true
	return n
}

// CreateText returns a detached auto-sized text node in Inter Regular 12.
func (d *Document) CreateText() *Node {
	n := d.newNode(KindText)
	n.Name = "Text"
	n.SizingH, n.SizingV = Hug, Hug
	n.FontFamily, n.FontStyle = DefaultFontFamily, DefaultFontStyle
	n.FontSize = DefaultFontSize
	n.TextAlignH, n.TextAlignV = "LEFT", "TOP"
	black := defaultTextFill
	n.Fill = &black
	return n
}

// CreateRectangle returns a detached 100x100 rectangle.
func (d *Document) CreateRectangle() *Node {
	n := d.newNode(KindRectangle)
	n.Name = "Rectangle"
	n.Resize(100, 100)
	return n
}

// CreateEllipse returns a detached 100x100 ellipse.
func (d *Document) CreateEllipse() *Node {
	n := d.newNode(KindEllipse)
	n.Name = "Ellipse"
	n.Resize(100, 100)
	return n
}

// CreatePolygon returns a detached 100x100 regular triangle.
func (d *Document) CreatePolygon() *Node {
	n := d.newNode(KindPolygon)
	n.Name = "Polygon"
	n.Resize(100, 100)
	n.PointCount = 3
	return n
}

// CreateVector returns a detached empty vector.
func (d *Document) CreateVector() *Node {
	n := d.newNode(KindVector)
	n.Name = "Vector"
	return n
}

// SetVectorNetwork replaces a vector's geometry with a network and derives
// the equivalent closed paths.
func (n *Node) SetVectorNetwork(net VectorNetwork) {
	n.Network = &net
	n.Paths = nil
	for _, region := range net.Regions {
		for _, loop := range region.Loops {
			var pts []geometry.Point
			for _, seg := range loop {
				if seg < 0 || seg >= len(net.Segments) {
					continue
				}
				pts = append(pts, net.Vertices[net.Segments[seg][0]])
			}
			n.Paths = append(n.Paths, VectorPath{WindingRule: region.WindingRule, Data: geometry.PolygonPath(pts)})
		}
	}
	b := geometry.BoundsOf(net.Vertices...)
	n.Resize(b.X+b.Width, b.Y+b.Height)
}

// Group wraps nodes in a new group attached to parent. The nodes keep their
// page positions.
func (d *Document) Group(nodes []*Node, parent *Node) (*Node, error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyGroup
	}
	g := d.newNode(KindGroup)
	g.Name = "Group"
	parent.AppendChild(g)
	for _, c := range nodes {
		g.AppendChild(c)
	}
	return g, nil
}

// Bounds returns the union of all visible top-level nodes on the page.
func (d *Document) Bounds() geometry.Rect {
	var r geometry.Rect
	for _, c := range d.page.Children() {
		if !c.Visible {
			continue
		}
		r = r.Union(c.AbsoluteBounds())
	}
	return r
}
