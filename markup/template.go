package markup

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"transitmap/diagram"
	"transitmap/geometry"
	"transitmap/scene"
)

const (
	marker     = "$$"
	escaped    = `$\$`
	propPrefix = "prop:"

	// ChildrenProp is the prop that carries externally built nodes.
	ChildrenProp = "children"
)

// Props are the values a component is rendered with. Values may be strings,
// numbers, booleans, colours, or for ChildrenProp a []*scene.Node.
type Props map[string]any

// Merge returns a new Props with other layered over p.
func (p Props) Merge(other Props) Props {
	out := make(Props, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Children extracts the externally supplied nodes, if any.
func (p Props) Children() ([]*scene.Node, bool) {
	switch v := p[ChildrenProp].(type) {
	case []*scene.Node:
		return v, true
	case *scene.Node:
		return []*scene.Node{v}, true
	default:
		return nil, false
	}
}

// StringTemplate is an attribute value with $$prop:name$$ bindings. raws
// always has one more element than names.
type StringTemplate struct {
	raws  []string
	names []string
}

// Literal returns a template without bindings.
func Literal(s string) StringTemplate {
	return StringTemplate{raws: []string{s}}
}

// ParseTemplate parses a value such as "Line $$prop:text$$". A literal "$$"
// is written as "$\$".
func ParseTemplate(input string) (StringTemplate, error) {
	parts := strings.Split(input, marker)
	if len(parts)%2 == 0 {
		return StringTemplate{}, fmt.Errorf("invalid template %q: mismatched %q pairs", input, marker)
	}
	var t StringTemplate
	for i, part := range parts {
		part = strings.ReplaceAll(part, escaped, marker)
		if i%2 == 0 {
			t.raws = append(t.raws, part)
			continue
		}
		name, ok := strings.CutPrefix(part, propPrefix)
		if !ok || name == "" {
			return StringTemplate{}, fmt.Errorf("invalid template %q: only bindings like \"$$prop:name$$\" are allowed", input)
		}
		t.names = append(t.names, name)
	}
	return t, nil
}

// IsConstant reports whether the template has no bindings.
func (t StringTemplate) IsConstant() bool {
	return len(t.names) == 0
}

// Bindings returns the prop names referenced by the template.
func (t StringTemplate) Bindings() []string {
	return append([]string(nil), t.names...)
}

// IsChildrenPassthrough reports whether the template is exactly the children
// binding, ignoring surrounding whitespace.
func (t StringTemplate) IsChildrenPassthrough() bool {
	return len(t.names) == 1 &&
		t.names[0] == ChildrenProp &&
		strings.TrimSpace(t.raws[0]) == "" &&
		strings.TrimSpace(t.raws[1]) == ""
}

// Interpolate substitutes props into the template. A missing prop is logged
// and rendered as its own name.
func (t StringTemplate) Interpolate(props Props) string {
	if t.IsConstant() {
		if len(t.raws) == 0 {
			return ""
		}
		return t.raws[0]
	}
	var b strings.Builder
	for i, raw := range t.raws {
		b.WriteString(raw)
		if i < len(t.names) {
			b.WriteString(formatProp(t.names[i], props))
		}
	}
	return b.String()
}

// String returns the template source.
func (t StringTemplate) String() string {
	var b strings.Builder
	for i, raw := range t.raws {
		b.WriteString(strings.ReplaceAll(raw, marker, escaped))
		if i < len(t.names) {
			b.WriteString(marker + propPrefix + t.names[i] + marker)
		}
	}
	return b.String()
}

func formatProp(name string, props Props) string {
	v, ok := props[name]
	if !ok || v == nil {
		slog.Warn("property is not provided", "prop", name)
		return name
	}
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case float64:
		return geometry.FormatNumber(val)
	case diagram.Color:
		return val.Hex()
	case fmt.Stringer:
		return val.String()
	default:
		slog.Warn("property has unsupported type", "prop", name, "type", fmt.Sprintf("%T", v))
		return name
	}
}
