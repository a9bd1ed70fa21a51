package render

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"transitmap/diagram"
	"transitmap/geometry"
	"transitmap/markup"
	"transitmap/scene"
)

// Names of the built-in components the station renderer uses.
const (
	StationComponent = "station"
	StripeComponent  = "station-line"
)

// StripeMeasurement is the measured connection points of one stripe.
type StripeMeasurement struct {
	Line         diagram.LineID
	SegmentIndex int
	Points       ConnectionPoints
}

// visit is one pass of a line through a station.
type visit struct {
	line    *diagram.Line
	segment int
	stopsAt bool
}

// StationRenderer draws station glyphs.
type StationRenderer struct {
	doc    *scene.Document
	engine *markup.Engine
	source diagram.StateSource
}

// NewStationRenderer returns a renderer drawing into doc with components
// from engine. Host ids of new glyph frames are written back to source.
func NewStationRenderer(doc *scene.Document, engine *markup.Engine, source diagram.StateSource) *StationRenderer {
	return &StationRenderer{doc: doc, engine: engine, source: source}
}

// visits lists every pass of a line through the station, ordered by the
// global stacking order and then by path index.
func visits(st *diagram.Station, state diagram.MapState) []visit {
	var out []visit
	for _, l := range state.Lines {
		for i, id := range l.Path {
			if id != st.ID {
				continue
			}
			out = append(out, visit{line: l, segment: i, stopsAt: st.Lines[l.ID].StopsAt})
		}
	}
	slices.SortFunc(out, func(a, b visit) int {
		return cmp.Or(
			cmp.Compare(stackRank(state, a.line.ID), stackRank(state, b.line.ID)),
			cmp.Compare(a.line.ID, b.line.ID),
			cmp.Compare(a.segment, b.segment),
		)
	})
	return out
}

// stackRank puts lines missing from the stacking order after all others.
func stackRank(state diagram.MapState, id diagram.LineID) int {
	if i := state.StackingIndex(id); i >= 0 {
		return i
	}
	return len(state.LineStackingOrder)
}

// RenderStation draws one station glyph, positions it on the station and
// measures where each line connects to it.
func (r *StationRenderer) RenderStation(ctx context.Context, st *diagram.Station, state diagram.MapState) ([]StripeMeasurement, error) {
	layout := LayoutFor(st.Orientation, r.source.IsRightHandTraffic())

	stationTmpl, err := r.engine.Component(StationComponent)
	if err != nil {
		return nil, err
	}
	stripeTmpl, err := r.engine.Component(StripeComponent)
	if err != nil {
		return nil, err
	}

	vs := visits(st, state)
	stripes := make([]*scene.Node, 0, len(vs))
	for _, v := range vs {
		props := markup.Props{
			"text":    v.line.Name,
			"color":   v.line.Color,
			"stops":   v.stopsAt,
			"visible": !st.Hidden,
		}
		n, err := stripeTmpl.RenderNode(ctx, r.doc, props, map[string]string{"facing": layout.Facing})
		if err != nil {
			return nil, fmt.Errorf("rendering line %s at station %s: %w", v.line.Name, st.Name, err)
		}
		stripes = append(stripes, n)
	}
	if layout.Reverse {
		slices.Reverse(stripes)
		slices.Reverse(vs)
	}

	glyph, err := stationTmpl.RenderNode(ctx, r.doc, markup.Props{
		"text":               st.Name,
		"visible":            !st.Hidden,
		"rotation":           layout.Rotation,
		"align":              layout.Facing + ",center",
		markup.ChildrenProp: stripes,
	}, map[string]string{"textLocation": layout.TextLocation})
	if err != nil {
		return nil, err
	}

	frame := r.hostFrame(st)
	for _, c := range frame.Children() {
		c.Remove()
	}
	frame.AppendChild(glyph)

	w, h := frame.Size()
	frame.X = st.Position.X - w*layout.Anchor.X
	frame.Y = st.Position.Y - h*layout.Anchor.Y

	return measureStripes(stripes, vs, layout.Facing), nil
}

// hostFrame returns the station's cached glyph frame, or a new one when the
// cached node no longer exists.
func (r *StationRenderer) hostFrame(st *diagram.Station) *scene.Node {
	if n, ok := r.doc.Lookup(st.HostNodeID); ok && n.Kind() == scene.KindFrame {
		n.Name = "Stop: " + st.Name
		return n
	}
	frame := r.doc.CreateFrame()
	frame.Name = "Stop: " + st.Name
	frame.Layout = scene.LayoutHorizontal
	frame.SizingH, frame.SizingV = scene.Hug, scene.Hug
	frame.Fill = nil
	frame.ClipsContent = false
	r.doc.Page().AppendChild(frame)
	r.source.UpdateStationHostID(st.ID, frame.ID())
	return frame
}

func measureStripes(stripes []*scene.Node, vs []visit, facing string) []StripeMeasurement {
	var maxW float64
	for _, s := range stripes {
		if w, _ := s.Size(); w > maxW {
			maxW = w
		}
	}
	out := make([]StripeMeasurement, len(stripes))
	for i, s := range stripes {
		m := s.AbsoluteTransform()
		w, h := s.Size()
		at := func(x float64) geometry.Point { return m.Apply(geometry.Point{X: x, Y: h / 2}) }
		centerLeft, centerRight := at(0), at(w)

		var p ConnectionPoints
		if facing == FacingLeft {
			p = ConnectionPoints{Head: centerLeft, Tail: at(maxW), AlignStart: centerRight, AlignEnd: at(maxW)}
		} else {
			p = ConnectionPoints{Head: centerRight, Tail: at(w - maxW), AlignStart: at(w - maxW), AlignEnd: centerLeft}
		}
		out[i] = StripeMeasurement{Line: vs[i].line.ID, SegmentIndex: vs[i].segment, Points: p}
	}
	return out
}
