package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatNumber formats v in its shortest decimal form, without exponent.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CubicPath returns "M sx sy C c1x c1y c2x c2y ex ey".
func CubicPath(start, c1, c2, end Point) string {
	return fmt.Sprintf("M %s %s C %s %s %s %s %s %s",
		FormatNumber(start.X), FormatNumber(start.Y),
		FormatNumber(c1.X), FormatNumber(c1.Y),
		FormatNumber(c2.X), FormatNumber(c2.Y),
		FormatNumber(end.X), FormatNumber(end.Y))
}

// PolygonPath returns a closed path through the given vertices.
func PolygonPath(points []Point) string {
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range points {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(FormatNumber(p.X))
		b.WriteByte(' ')
		b.WriteString(FormatNumber(p.Y))
	}
	b.WriteString(" Z")
	return b.String()
}

// Command is one path instruction with absolute coordinates.
type Command struct {
	Op     byte // 'M', 'L', 'C' or 'Z'
	Points []Point
}

// ParsePath parses the subset of SVG path data produced by this package:
// absolute M, L, C and Z with space or comma separated numbers.
func ParsePath(data string) ([]Command, error) {
	fields := strings.FieldsFunc(data, func(r rune) bool { return r == ' ' || r == ',' || r == '\n' || r == '\t' })
	var cmds []Command
	for i := 0; i < len(fields); {
		op := fields[i]
		i++
		var n int
		switch op {
		case "M", "L":
			n = 1
		case "C":
			n = 3
		case "Z", "z":
			cmds = append(cmds, Command{Op: 'Z'})
			continue
		default:
			return nil, fmt.Errorf("unsupported path command %q", op)
		}
		if i+2*n > len(fields) {
			return nil, fmt.Errorf("path command %s needs %d coordinates", op, 2*n)
		}
		cmd := Command{Op: op[0]}
		for k := 0; k < n; k++ {
			x, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid path number %q: %w", fields[i], err)
			}
			y, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid path number %q: %w", fields[i+1], err)
			}
			cmd.Points = append(cmd.Points, Point{X: x, Y: y})
			i += 2
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// CubicAt evaluates a cubic bezier at t.
func CubicAt(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// Flatten converts path commands into polylines, sampling each cubic with
// the given number of steps. Each subpath becomes one polyline; closed
// subpaths repeat their first point at the end.
func Flatten(cmds []Command, steps int) [][]Point {
	if steps < 1 {
		steps = 1
	}
	var out [][]Point
	var cur []Point
	flush := func() {
		if len(cur) > 0 {
			out = append(out, cur)
		}
		cur = nil
	}
	for _, c := range cmds {
		switch c.Op {
		case 'M':
			flush()
			cur = []Point{c.Points[0]}
		case 'L':
			cur = append(cur, c.Points[0])
		case 'C':
			if len(cur) == 0 {
				continue
			}
			p0 := cur[len(cur)-1]
			for s := 1; s <= steps; s++ {
				cur = append(cur, CubicAt(p0, c.Points[0], c.Points[1], c.Points[2], float64(s)/float64(steps)))
			}
		case 'Z':
			if len(cur) > 0 {
				cur = append(cur, cur[0])
			}
			flush()
		}
	}
	flush()
	return out
}
