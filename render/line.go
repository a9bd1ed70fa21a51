package render

import (
	"context"
	"log/slog"
	"slices"

	"transitmap/diagram"
	"transitmap/geometry"
	"transitmap/scene"
)

const (
	// DefaultCurviness scales the bezier control distance by the segment
	// length.
	DefaultCurviness = 0.3

	outlineWeight = 4
	mainWeight    = 2
)

// LineRenderer draws lines as cased bezier curves between station glyphs.
type LineRenderer struct {
	doc       *scene.Document
	source    diagram.StateSource
	stubs     bool
	curviness float64
}

// LineOption configures a LineRenderer.
type LineOption func(*LineRenderer)

// WithStubs sets whether a short segment is drawn through each station a
// line arrives at.
func WithStubs(enabled bool) LineOption {
	return func(r *LineRenderer) { r.stubs = enabled }
}

// WithCurviness sets the control distance factor.
func WithCurviness(c float64) LineOption {
	return func(r *LineRenderer) {
		if c > 0 {
			r.curviness = c
		}
	}
}

// NewLineRenderer returns a renderer with stubs enabled and the default
// curviness.
func NewLineRenderer(doc *scene.Document, source diagram.StateSource, opts ...LineOption) *LineRenderer {
	r := &LineRenderer{doc: doc, source: source, stubs: true, curviness: DefaultCurviness}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderLine replaces the line's group with one built from the connection
// points in table. Segments with a missing station or point are skipped.
func (r *LineRenderer) RenderLine(ctx context.Context, line *diagram.Line, stations map[diagram.StationID]*diagram.Station, table *Table) error {
	r.removeGroup(line.HostGroupID)

	var outlines, mains []*scene.Node
	add := func(data string) {
		o, m := r.strokes(data, line.Color)
		outlines = append(outlines, o)
		mains = append(mains, m)
	}

	for i := 0; i+1 < len(line.Path); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		start, ok1 := stations[line.Path[i]]
		end, ok2 := stations[line.Path[i+1]]
		if !ok1 || !ok2 {
			slog.Warn("skipping segment with unknown station", "line", line.Name, "segment", i)
			continue
		}
		sp, ok1 := table.Get(start.ID, line.ID, i)
		ep, ok2 := table.Get(end.ID, line.ID, i+1)
		if ok1 && ok2 {
			add(BezierPath(sp.Head, ep.Tail, start.Orientation.Offset(1), end.Orientation.Offset(1), r.curviness))
		} else {
			slog.Warn("missing connection points",
				"line", line.Name, "segment", i, "from", start.Name, "to", end.Name)
		}
		if r.stubs && ok2 {
			add(geometry.CubicPath(ep.Tail, ep.Tail, ep.Head, ep.Head))
		}
	}

	if len(outlines) == 0 {
		return nil
	}
	page := r.doc.Page()
	outlineGroup, err := r.doc.Group(outlines, page)
	if err != nil {
		return err
	}
	outlineGroup.Name = "Outline"
	mainGroup, err := r.doc.Group(mains, page)
	if err != nil {
		return err
	}
	mainGroup.Name = "Main"
	group, err := r.doc.Group([]*scene.Node{outlineGroup, mainGroup}, page)
	if err != nil {
		return err
	}
	group.Name = "Line: " + line.Name
	group.Locked = true
	r.source.UpdateLineHostID(line.ID, group.ID())
	return nil
}

// strokes creates the white casing and the coloured stroke for one path.
func (r *LineRenderer) strokes(data string, color diagram.Color) (*scene.Node, *scene.Node) {
	mk := func(name string, c diagram.Color, weight float64) *scene.Node {
		v := r.doc.CreateVector()
		v.Name = name
		v.Paths = []scene.VectorPath{{WindingRule: "NONZERO", Data: data}}
		v.Stroke = &c
		v.StrokeWeight = weight
		v.StrokeCap, v.StrokeJoin = "ROUND", "ROUND"
		r.doc.Page().AppendChild(v)
		return v
	}
	return mk("Outline", diagram.White, outlineWeight), mk("Main", color, mainWeight)
}

// BezierPath returns the cubic from start to end leaving along startDir and
// arriving against endDir. The control distance is curviness times the
// straight distance.
func BezierPath(start, end, startDir, endDir geometry.Point, curviness float64) string {
	cd := start.Dist(end) * curviness
	c1 := start.Add(startDir.Scale(cd))
	c2 := end.Sub(endDir.Scale(cd))
	return geometry.CubicPath(start, c1, c2, end)
}

func (r *LineRenderer) removeGroup(id string) {
	if n, ok := r.doc.Lookup(id); ok {
		n.Remove()
	}
}

// ClearAllSegments removes every rendered line group.
func (r *LineRenderer) ClearAllSegments() {
	for _, l := range r.source.State().Lines {
		r.removeGroup(l.HostGroupID)
	}
}

// MoveSegmentsToBack puts every line group behind the station glyphs. Lines
// earlier in the stacking order end up in front of later ones.
func (r *LineRenderer) MoveSegmentsToBack() {
	state := r.source.State()
	for _, id := range backToFront(state) {
		l := state.Lines[id]
		n, ok := r.doc.Lookup(l.HostGroupID)
		if !ok {
			continue
		}
		if p := n.Parent(); p != nil {
			p.InsertChild(0, n)
		}
	}
}

// backToFront orders lines so that inserting each at the back leaves the
// first line of the stacking order front-most.
func backToFront(state diagram.MapState) []diagram.LineID {
	var ids []diagram.LineID
	seen := make(map[diagram.LineID]bool)
	for _, id := range state.LineStackingOrder {
		if _, ok := state.Lines[id]; ok && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	var rest []diagram.LineID
	for id := range state.Lines {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	return append(ids, rest...)
}
