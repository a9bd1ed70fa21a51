package canvas

import (
	"errors"
	"log/slog"
	"math"

	"transitmap/diagram"
	"transitmap/geometry"
	"transitmap/scene"
)

// ErrEmptyDocument is returned when there is nothing visible to rasterize.
var ErrEmptyDocument = errors.New("document has no visible content")

const curveSteps = 24

// Options controls how page units map to cells.
type Options struct {
	// Page units per column and per row. Terminal cells are about twice
	// as tall as they are wide.
	CellWidth  float64
	CellHeight float64
	// Blank cells around the content.
	Margin int
	// Zoom multiplies the resolution; 2 doubles the cells per page unit.
	Zoom float64
}

// DefaultOptions fits 10pt text one character per column.
func DefaultOptions() Options {
	return Options{CellWidth: 6, CellHeight: 12, Margin: 1, Zoom: 1}
}

type raster struct {
	m      *Matrix
	origin geometry.Point
	sx, sy float64
	margin int
}

// Rasterize draws every visible node of doc into a new matrix sized to the
// document bounds. Nodes are painted in z-order, back first.
func Rasterize(doc *scene.Document, opts Options) (*Matrix, error) {
	if opts.CellWidth <= 0 || opts.CellHeight <= 0 {
		opts.CellWidth, opts.CellHeight = DefaultOptions().CellWidth, DefaultOptions().CellHeight
	}
	if opts.Zoom <= 0 {
		opts.Zoom = 1
	}
	bounds := doc.Bounds()
	if bounds == (geometry.Rect{}) {
		return nil, ErrEmptyDocument
	}

	r := &raster{
		origin: geometry.Point{X: bounds.X, Y: bounds.Y},
		sx:     opts.Zoom / opts.CellWidth,
		sy:     opts.Zoom / opts.CellHeight,
		margin: opts.Margin,
	}
	w := int(math.Ceil(bounds.Width*r.sx)) + 2*opts.Margin + 1
	h := int(math.Ceil(bounds.Height*r.sy)) + 2*opts.Margin + 1
	m, err := NewMatrix(w, h)
	if err != nil {
		return nil, err
	}
	r.m = m

	for _, n := range doc.Page().Children() {
		r.draw(n)
	}
	return m, nil
}

// cell maps a page point to fractional cell coordinates.
func (r *raster) cell(p geometry.Point) (float64, float64) {
	return (p.X-r.origin.X)*r.sx + float64(r.margin), (p.Y-r.origin.Y)*r.sy + float64(r.margin)
}

func (r *raster) draw(n *scene.Node) {
	if !n.Visible {
		return
	}
	switch n.Kind() {
	case scene.KindVector:
		r.drawVector(n)
	case scene.KindEllipse:
		r.drawMark(n)
	case scene.KindText:
		r.drawText(n)
	}
	for _, c := range n.Children() {
		r.draw(c)
	}
}

func (r *raster) drawVector(n *scene.Node) {
	// White strokes are halos and have no meaning in a cell grid.
	if n.Stroke == nil || n.StrokeWeight <= 0 || *n.Stroke == diagram.White {
		return
	}
	m := n.AbsoluteTransform()
	for _, p := range n.Paths {
		cmds, err := geometry.ParsePath(p.Data)
		if err != nil {
			slog.Warn("skipping unparsable path", "node", n.Name, "error", err)
			continue
		}
		for _, poly := range geometry.Flatten(cmds, curveSteps) {
			for i := 1; i < len(poly); i++ {
				r.segment(m.Apply(poly[i-1]), m.Apply(poly[i]), n.Stroke)
			}
		}
	}
}

// segment draws a straight run between two page points.
func (r *raster) segment(a, b geometry.Point, color *diagram.Color) {
	ch := lineRune(b.X-a.X, b.Y-a.Y)
	x0, y0 := r.cell(a)
	x1, y1 := r.cell(b)
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Floor(x0 + (x1-x0)*t))
		y := int(math.Floor(y0 + (y1-y0)*t))
		_ = r.m.Set(x, y, ch, color)
	}
}

// lineRune picks the line-art rune for a direction in page space, where y
// grows downward.
func lineRune(dx, dy float64) rune {
	if dx == 0 && dy == 0 {
		return Horizontal
	}
	deg := math.Atan2(dy, dx) * 180 / math.Pi
	if deg < 0 {
		deg += 180
	}
	switch {
	case deg < 22.5 || deg >= 157.5:
		return Horizontal
	case deg < 67.5:
		return Falling
	case deg < 112.5:
		return Vertical
	default:
		return Rising
	}
}

func (r *raster) drawMark(n *scene.Node) {
	w, h := n.Size()
	center := n.AbsoluteTransform().Apply(geometry.Point{X: w / 2, Y: h / 2})
	x, y := r.cell(center)
	if n.Fill != nil && *n.Fill != diagram.White {
		_ = r.m.Set(int(x), int(y), StopMark, n.Fill)
		return
	}
	_ = r.m.Set(int(x), int(y), PassMark, n.Stroke)
}

func (r *raster) drawText(n *scene.Node) {
	if n.Characters == "" {
		return
	}
	_, h := n.Size()
	// Anchor at the left of the middle line so short rows stay centred.
	origin := n.AbsoluteTransform().Apply(geometry.Point{Y: h / 2})
	x, y := r.cell(origin)
	r.m.DrawText(int(math.Round(x)), int(y), n.Characters, n.Fill)
}
