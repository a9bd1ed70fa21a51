package canvas

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"transitmap/diagram"
)

const colorReset = "\033[0m"

// ANSI returns the 24-bit foreground escape for c.
func ANSI(c diagram.Color) string {
	r, g, b := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().RGB255()
	return fmt.Sprintf("\033[38;2;%d;%d;%dm", r, g, b)
}

// ColoredString renders the matrix with ANSI colour escapes. Runs of cells
// with the same colour share one escape.
func (m *Matrix) ColoredString() string {
	var sb strings.Builder
	for y, row := range m.cells {
		current := ""
		for _, c := range row {
			code := ""
			if c.Color != nil {
				code = ANSI(*c.Color)
			}
			if code != current {
				if current != "" {
					sb.WriteString(colorReset)
				}
				sb.WriteString(code)
				current = code
			}
			if c.Char != 0 {
				sb.WriteRune(c.Char)
			}
		}
		if current != "" {
			sb.WriteString(colorReset)
		}
		if y < m.height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
