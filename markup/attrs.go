package markup

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"transitmap/diagram"
	"transitmap/scene"
)

// value interpolates an attribute if present.
func value(el *element, name string, props Props) (string, bool) {
	t, ok := el.attr(name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(t.Interpolate(props)), true
}

func parseBool(name, s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s %q: expected true or false", name, s)
	}
}

func parseNumber(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return f, nil
}

func parseColor(name, s string) (*diagram.Color, error) {
	c, err := diagram.ParseColor(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return &c, nil
}

// applyCommon sets the attributes every primitive understands.
func applyCommon(n *scene.Node, el *element, props Props) error {
	if s, ok := value(el, "name", props); ok {
		n.Name = s
	}
	for _, axis := range []string{"width", "height"} {
		s, ok := value(el, axis, props)
		if !ok {
			continue
		}
		if err := applySize(n, axis, s); err != nil {
			return err
		}
	}
	if s, ok := value(el, "rotation", props); ok {
		r, err := parseNumber("rotation", s)
		if err != nil {
			return err
		}
		n.Rotation = r
	}
	if s, ok := value(el, "visible", props); ok {
		v, err := parseBool("visible", s)
		if err != nil {
			return err
		}
		n.Visible = v
	}
	if s, ok := value(el, "locked", props); ok {
		v, err := parseBool("locked", s)
		if err != nil {
			return err
		}
		n.Locked = v
	}
	return nil
}

func applySize(n *scene.Node, axis, s string) error {
	var sizing scene.Sizing
	switch s {
	case "hug":
		sizing = scene.Hug
	case "fill":
		sizing = scene.Fill
	default:
		v, err := parseNumber(axis, s)
		if err != nil {
			return err
		}
		if axis == "width" {
			n.SetWidth(v)
		} else {
			n.SetHeight(v)
		}
		return nil
	}

	// Hug needs content that sizes itself; fill needs an auto-layout parent.
	valid := true
	switch sizing {
	case scene.Hug:
		valid = n.Kind() == scene.KindText || (n.Kind() == scene.KindFrame && n.Layout != scene.LayoutNone)
	case scene.Fill:
		p := n.Parent()
		valid = p != nil && p.Kind() == scene.KindFrame && p.Layout != scene.LayoutNone
	}
	if !valid {
		slog.Warn("ignoring layout sizing", "node", n.Name, "axis", axis, "sizing", s)
		return nil
	}
	if axis == "width" {
		n.SizingH = sizing
	} else {
		n.SizingV = sizing
	}
	return nil
}

// applyPaint sets fill, stroke and corner radius. Fill is only touched when
// the attribute is present.
func applyPaint(n *scene.Node, el *element, props Props, corners bool) error {
	if s, ok := value(el, "fill", props); ok {
		c, err := parseColor("fill", s)
		if err != nil {
			return err
		}
		n.Fill = c
	}
	if s, ok := value(el, "stroke", props); ok {
		c, err := parseColor("stroke", s)
		if err != nil {
			return err
		}
		n.Stroke = c
		if n.StrokeWeight == 0 {
			n.StrokeWeight = 1
		}
	}
	if s, ok := value(el, "strokeWeight", props); ok {
		w, err := parseNumber("strokeWeight", s)
		if err != nil {
			return err
		}
		n.StrokeWeight = w
	}
	if corners {
		if s, ok := value(el, "cornerRadius", props); ok {
			r, err := parseNumber("cornerRadius", s)
			if err != nil {
				return err
			}
			n.CornerRadius = r
		}
	}
	return nil
}

func parseAlign(s string) (scene.Align, error) {
	switch s {
	case "left", "top", "start":
		return scene.AlignMin, nil
	case "center":
		return scene.AlignCenter, nil
	case "right", "bottom", "end":
		return scene.AlignMax, nil
	default:
		return 0, fmt.Errorf("invalid alignment %q", s)
	}
}

// splitPair splits "a,b"; a single value applies to both.
func splitPair(s string) (string, string) {
	h, v, ok := strings.Cut(s, ",")
	if !ok {
		return strings.TrimSpace(s), strings.TrimSpace(s)
	}
	return strings.TrimSpace(h), strings.TrimSpace(v)
}

// parsePadding accepts a single number, or space or comma separated k=v
// pairs with keys h, v, l, r, t and b.
func parsePadding(s string) (scene.Padding, error) {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return scene.Padding{Left: f, Right: f, Top: f, Bottom: f}, nil
	}
	var p scene.Padding
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	for _, field := range fields {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			return p, fmt.Errorf("invalid padding %q", s)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("invalid padding %q: %w", s, err)
		}
		switch k {
		case "h":
			p.Left, p.Right = f, f
		case "v":
			p.Top, p.Bottom = f, f
		case "l":
			p.Left = f
		case "r":
			p.Right = f
		case "t":
			p.Top = f
		case "b":
			p.Bottom = f
		default:
			return p, fmt.Errorf("invalid padding key %q", k)
		}
	}
	return p, nil
}
