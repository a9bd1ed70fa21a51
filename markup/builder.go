package markup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"transitmap/geometry"
	"transitmap/scene"
)

// maxImportDepth bounds nested imports so a component importing itself
// fails instead of recursing forever.
const maxImportDepth = 32

type builder struct {
	doc       *scene.Document
	engine    *Engine
	component string
	depth     int
}

func (b *builder) build(node Node, props Props) (*Result, error) {
	switch n := node.(type) {
	case *Frame:
		return b.buildFrame(n, props)
	case *Text:
		return b.buildText(n, props), nil
	case *Rectangle:
		return b.buildRectangle(n, props), nil
	case *Ellipse:
		return b.buildEllipse(n, props), nil
	case *Polygon:
		return b.buildPolygon(n, props), nil
	case *Import:
		return b.buildImport(n, props)
	default:
		return nil, fmt.Errorf("%T: %w", node, ErrUnknownTag)
	}
}

func (b *builder) buildFrame(f *Frame, props Props) (*Result, error) {
	frame := b.doc.CreateFrame()
	frame.ClipsContent = false

	var children []*Result
	if content, ok := f.Content(); ok && content.IsChildrenPassthrough() {
		external, ok := props.Children()
		if !ok {
			slog.Warn("frame expects children but none were provided", "component", b.component)
		}
		for _, c := range external {
			frame.AppendChild(c)
		}
	} else {
		for _, child := range f.Children {
			res, err := b.build(child, props)
			if err != nil {
				return nil, err
			}
			children = append(children, res)
		}
	}

	apply := func(context.Context) error {
		if err := applyFrame(frame, f, props); err != nil {
			return err
		}
		if err := applyCommon(frame, &f.element, props); err != nil {
			return err
		}
		return applyPaint(frame, &f.element, props, true)
	}
	return newFrameResult(frame, apply, children), nil
}

func applyFrame(frame *scene.Node, f *Frame, props Props) error {
	el := &f.element
	frame.Fill = nil
	if s, ok := value(el, "clip", props); ok {
		v, err := parseBool("clip", s)
		if err != nil {
			return err
		}
		frame.ClipsContent = v
	}
	if s, ok := value(el, "flow", props); ok {
		switch s {
		case "horizontal":
			frame.Layout = scene.LayoutHorizontal
		case "vertical":
			frame.Layout = scene.LayoutVertical
		case "none":
			frame.Layout = scene.LayoutNone
		default:
			return fmt.Errorf("invalid flow %q", s)
		}
	}
	if s, ok := value(el, "gap", props); ok {
		g, err := parseNumber("gap", s)
		if err != nil {
			return err
		}
		frame.ItemSpacing = g
	}
	if s, ok := value(el, "padding", props); ok {
		p, err := parsePadding(s)
		if err != nil {
			return err
		}
		frame.Padding = p
	}
	if s, ok := value(el, "align", props); ok {
		hs, vs := splitPair(s)
		h, err := parseAlign(hs)
		if err != nil {
			return err
		}
		v, err := parseAlign(vs)
		if err != nil {
			return err
		}
		if frame.Layout == scene.LayoutVertical {
			frame.PrimaryAlign, frame.CounterAlign = v, h
		} else {
			frame.PrimaryAlign, frame.CounterAlign = h, v
		}
	}
	return nil
}

func (b *builder) buildText(t *Text, props Props) *Result {
	n := b.doc.CreateText()
	fonts := b.doc.Fonts()
	return newResult(n, func(context.Context) error {
		el := &t.element
		family, hasFamily := value(el, "fontFamily", props)
		style, hasStyle := value(el, "style", props)
		if hasFamily || hasStyle {
			if !hasFamily {
				family = scene.DefaultFontFamily
			}
			if !hasStyle {
				style = scene.DefaultFontStyle
			}
			font := scene.FontName{Family: family, Style: style}
			if err := fonts.Load(font); err != nil {
				slog.Warn("falling back to default font", "font", family+" "+style, "err", err)
				font = scene.FontName{Family: scene.DefaultFontFamily, Style: scene.DefaultFontStyle}
				if err := fonts.Load(font); err != nil {
					return err
				}
			}
			n.FontFamily, n.FontStyle = font.Family, font.Style
		}
		if s, ok := value(el, "fontSize", props); ok {
			size, err := parseNumber("fontSize", s)
			if err != nil {
				return err
			}
			n.FontSize = size
		}
		if s, ok := value(el, "align", props); ok {
			hs, vs := splitPair(s)
			h, err := textAlign(hs, "LEFT", "RIGHT")
			if err != nil {
				return err
			}
			v, err := textAlign(vs, "TOP", "BOTTOM")
			if err != nil {
				return err
			}
			n.TextAlignH, n.TextAlignV = h, v
		}
		if content, ok := t.Content(); ok {
			n.Characters = content.Interpolate(props)
		} else if s, ok := el.attr("text"); ok {
			n.Characters = s.Interpolate(props)
		}
		if err := applyCommon(n, el, props); err != nil {
			return err
		}
		return applyPaint(n, el, props, false)
	})
}

func textAlign(s, min, max string) (string, error) {
	a, err := parseAlign(s)
	if err != nil {
		return "", err
	}
	switch a {
	case scene.AlignMin:
		return min, nil
	case scene.AlignMax:
		return max, nil
	default:
		return "CENTER", nil
	}
}

func (b *builder) buildRectangle(r *Rectangle, props Props) *Result {
	n := b.doc.CreateRectangle()
	return newResult(n, func(context.Context) error {
		if err := applyCommon(n, &r.element, props); err != nil {
			return err
		}
		return applyPaint(n, &r.element, props, true)
	})
}

func (b *builder) buildEllipse(e *Ellipse, props Props) *Result {
	n := b.doc.CreateEllipse()
	return newResult(n, func(context.Context) error {
		if err := applyCommon(n, &e.element, props); err != nil {
			return err
		}
		return applyPaint(n, &e.element, props, false)
	})
}

func (b *builder) buildPolygon(p *Polygon, props Props) *Result {
	var n *scene.Node
	if s, ok := value(&p.element, "points", props); ok {
		pts, err := parsePoints(s)
		if err != nil {
			slog.Warn("invalid polygon points, using a regular polygon", "points", s, "err", err)
		} else {
			n = b.doc.CreateVector()
			n.Name = "Polygon"
			n.SetVectorNetwork(pointsNetwork(pts))
		}
	}
	if n == nil {
		n = b.doc.CreatePolygon()
	}
	return newResult(n, func(context.Context) error {
		if n.Kind() == scene.KindPolygon {
			if s, ok := value(&p.element, "sides", props); ok {
				sides, err := strconv.Atoi(s)
				if err != nil || sides < 3 {
					return fmt.Errorf("invalid sides %q", s)
				}
				n.PointCount = sides
			}
		}
		if err := applyCommon(n, &p.element, props); err != nil {
			return err
		}
		return applyPaint(n, &p.element, props, false)
	})
}

// parsePoints reads "x,y x,y ..." into at least three points.
func parsePoints(s string) ([]geometry.Point, error) {
	var pts []geometry.Point
	for _, pair := range strings.Fields(s) {
		xs, ys, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("point %q is not x,y", pair)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, err
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, err
		}
		pts = append(pts, geometry.Point{X: x, Y: y})
	}
	if len(pts) < 3 {
		return nil, errors.New("a polygon needs at least three points")
	}
	return pts, nil
}

// pointsNetwork joins consecutive points into a single closed region.
func pointsNetwork(pts []geometry.Point) scene.VectorNetwork {
	net := scene.VectorNetwork{Vertices: pts}
	loop := make([]int, len(pts))
	for i := range pts {
		net.Segments = append(net.Segments, [2]int{i, (i + 1) % len(pts)})
		loop[i] = i
	}
	net.Regions = []scene.VectorRegion{{WindingRule: "NONZERO", Loops: [][]int{loop}}}
	return net
}

func (b *builder) buildImport(imp *Import, props Props) (*Result, error) {
	from, ok := value(&imp.element, "from", props)
	if !ok || from == "" {
		return nil, fmt.Errorf("component %s: %w", b.component, ErrMissingFrom)
	}
	if b.engine == nil {
		return nil, fmt.Errorf("component %s: import %s: no resolver configured", b.component, from)
	}
	if b.depth >= maxImportDepth {
		return nil, fmt.Errorf("component %s: import %s: nesting deeper than %d", b.component, from, maxImportDepth)
	}
	comp, err := b.engine.Component(from)
	if err != nil {
		return nil, fmt.Errorf("component %s: import %s: %w", b.component, from, err)
	}

	childProps := Props{}
	for key, t := range imp.attrs {
		if key == "from" {
			continue
		}
		childProps[strings.TrimPrefix(key, propPrefix)] = t.Interpolate(props)
	}
	if content, ok := imp.Content(); ok {
		if content.IsChildrenPassthrough() {
			if children, ok := props[ChildrenProp]; ok {
				childProps[ChildrenProp] = children
			}
		} else {
			childProps[ChildrenProp] = content.Interpolate(props)
		}
	}

	selector := map[string]string{}
	for _, d := range comp.discriminators {
		if v, ok := childProps[d].(string); ok {
			selector[d] = v
		}
	}
	v, err := comp.resolveImported(selector)
	if err != nil {
		return nil, err
	}
	sub := &builder{doc: b.doc, engine: b.engine, component: comp.name, depth: b.depth + 1}
	return sub.build(v.node, comp.defaults.Merge(childProps))
}
