package export

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"

	"transitmap/diagram"
	"transitmap/geometry"
	"transitmap/scene"
)

const svgMargin = 20

// SVGExporter writes the document as SVG. Every drawable becomes one element
// carrying its absolute transform.
type SVGExporter struct{}

func NewSVGExporter() *SVGExporter {
	return &SVGExporter{}
}

func (e *SVGExporter) Extension() string   { return ".svg" }
func (e *SVGExporter) ContentType() string { return "image/svg+xml" }

func (e *SVGExporter) Export(_ context.Context, in Input, w io.Writer) error {
	if in.Doc == nil {
		return ErrNilInput
	}
	_, err := io.WriteString(w, SVG(in.Doc))
	return err
}

// SVG renders the document to an SVG string.
func SVG(doc *scene.Document) string {
	b := doc.Bounds().Inset(svgMargin)
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s">`+"\n",
		num(b.Width), num(b.Height), num(b.X), num(b.Y), num(b.Width), num(b.Height))
	fmt.Fprintf(&sb, `<rect x="%s" y="%s" width="%s" height="%s" fill="#ffffff"/>`+"\n",
		num(b.X), num(b.Y), num(b.Width), num(b.Height))
	for _, n := range doc.Page().Children() {
		writeNode(&sb, n, "  ")
	}
	sb.WriteString("</svg>\n")
	return sb.String()
}

func writeNode(sb *strings.Builder, n *scene.Node, indent string) {
	if !n.Visible {
		return
	}
	switch n.Kind() {
	case scene.KindGroup, scene.KindFrame:
		fmt.Fprintf(sb, "%s<g id=%s>\n", indent, attr(n.Name))
		if n.Kind() == scene.KindFrame && n.Fill != nil {
			w, h := n.Size()
			fmt.Fprintf(sb, `%s  <rect width="%s" height="%s"%s%s%s/>`+"\n",
				indent, num(w), num(h), corner(n), transform(n), paint(n))
		}
		for _, c := range n.Children() {
			writeNode(sb, c, indent+"  ")
		}
		fmt.Fprintf(sb, "%s</g>\n", indent)
	case scene.KindRectangle:
		w, h := n.Size()
		fmt.Fprintf(sb, `%s<rect width="%s" height="%s"%s%s%s/>`+"\n",
			indent, num(w), num(h), corner(n), transform(n), paint(n))
	case scene.KindEllipse:
		w, h := n.Size()
		fmt.Fprintf(sb, `%s<ellipse cx="%s" cy="%s" rx="%s" ry="%s"%s%s/>`+"\n",
			indent, num(w/2), num(h/2), num(w/2), num(h/2), transform(n), paint(n))
	case scene.KindPolygon:
		w, h := n.Size()
		fmt.Fprintf(sb, `%s<polygon points="%s"%s%s/>`+"\n",
			indent, polygonPoints(n.PointCount, w, h), transform(n), paint(n))
	case scene.KindVector:
		for _, p := range n.Paths {
			fmt.Fprintf(sb, `%s<path d="%s"%s%s%s/>`+"\n",
				indent, p.Data, fillRule(p.WindingRule), transform(n), paint(n))
		}
	case scene.KindText:
		writeText(sb, n, indent)
	}
}

func writeText(sb *strings.Builder, n *scene.Node, indent string) {
	w, _ := n.Size()
	size := n.FontSize
	if size <= 0 {
		size = scene.DefaultFontSize
	}
	anchor, x := "start", 0.0
	switch n.TextAlignH {
	case "CENTER":
		anchor, x = "middle", w/2
	case "RIGHT":
		anchor, x = "end", w
	}
	fill := "#000000"
	if n.Fill != nil {
		fill = n.Fill.Hex()
	}
	fmt.Fprintf(sb, `%s<text font-family=%s font-weight="%d" font-size="%s" text-anchor="%s" fill="%s"%s>`,
		indent, attr(n.FontFamily), fontWeight(n.FontStyle), num(size), anchor, fill, transform(n))
	lh := scene.LineHeight(size)
	for i, line := range strings.Split(n.Characters, "\n") {
		fmt.Fprintf(sb, `<tspan x="%s" y="%s">%s</tspan>`, num(x), num(lh*float64(i)+size), escape(line))
	}
	sb.WriteString("</text>\n")
}

func fontWeight(style string) int {
	switch strings.ToLower(style) {
	case "thin":
		return 100
	case "light":
		return 300
	case "medium":
		return 500
	case "semi bold", "semibold":
		return 600
	case "bold":
		return 700
	case "black":
		return 900
	default:
		return 400
	}
}

// transform returns the node's absolute transform as an attribute.
func transform(n *scene.Node) string {
	m := n.AbsoluteTransform()
	if m == geometry.Identity {
		return ""
	}
	return fmt.Sprintf(` transform="matrix(%s %s %s %s %s %s)"`,
		num(m.A), num(m.C), num(m.B), num(m.D), num(m.TX), num(m.TY))
}

func paint(n *scene.Node) string {
	var sb strings.Builder
	sb.WriteString(` fill="` + hexOrNone(n.Fill) + `"`)
	if n.Stroke != nil && n.StrokeWeight > 0 {
		fmt.Fprintf(&sb, ` stroke="%s" stroke-width="%s"`, n.Stroke.Hex(), num(n.StrokeWeight))
		if n.StrokeCap != "" {
			fmt.Fprintf(&sb, ` stroke-linecap="%s"`, strings.ToLower(n.StrokeCap))
		}
		if n.StrokeJoin != "" {
			fmt.Fprintf(&sb, ` stroke-linejoin="%s"`, strings.ToLower(n.StrokeJoin))
		}
	}
	return sb.String()
}

func corner(n *scene.Node) string {
	if n.CornerRadius <= 0 {
		return ""
	}
	return fmt.Sprintf(` rx="%s"`, num(n.CornerRadius))
}

func fillRule(rule string) string {
	if rule == "EVENODD" {
		return ` fill-rule="evenodd"`
	}
	return ""
}

func hexOrNone(c *diagram.Color) string {
	if c == nil {
		return "none"
	}
	return c.Hex()
}

// polygonPoints places count vertices on the ellipse inscribed in w x h,
// starting at the top.
func polygonPoints(count int, w, h float64) string {
	if count < 3 {
		count = 3
	}
	pts := make([]string, count)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(count)
		x := w/2 + w/2*math.Sin(a)
		y := h/2 - h/2*math.Cos(a)
		pts[i] = num(round3(x)) + "," + num(round3(y))
	}
	return strings.Join(pts, " ")
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func num(v float64) string {
	return geometry.FormatNumber(v)
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func attr(s string) string {
	return `"` + escape(s) + `"`
}
