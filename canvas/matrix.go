// Package canvas rasterizes a scene document onto a grid of terminal cells.
package canvas

import (
	"errors"
	"strings"

	"transitmap/diagram"
)

var (
	ErrOutOfBounds = errors.New("position out of bounds")
	ErrInvalidSize = errors.New("invalid canvas size")
)

// Cell is one character position. A nil Color means the terminal default.
type Cell struct {
	Char  rune
	Color *diagram.Color
	text  bool
}

// Matrix is a fixed-size grid of cells.
//
// Matrix is not safe for concurrent writes.
//
// Coordinate system:
//   - Origin (0,0) is top-left
//   - X increases rightward, Y downward
//   - A wide rune occupies its cell and the next one, which holds 0
type Matrix struct {
	cells  [][]Cell
	width  int
	height int
	merger *Merger
}

// NewMatrix creates a blank matrix of the given size.
func NewMatrix(width, height int) (*Matrix, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	cells := make([][]Cell, height)
	for y := range cells {
		cells[y] = make([]Cell, width)
		for x := range cells[y] {
			cells[y][x].Char = ' '
		}
	}
	return &Matrix{cells: cells, width: width, height: height, merger: NewMerger()}, nil
}

// Size returns the width and height in cells.
func (m *Matrix) Size() (width, height int) {
	return m.width, m.height
}

// Get returns the cell at (x, y), or a blank cell outside the matrix.
func (m *Matrix) Get(x, y int) Cell {
	if !m.inside(x, y) {
		return Cell{Char: ' '}
	}
	return m.cells[y][x]
}

func (m *Matrix) inside(x, y int) bool {
	return x >= 0 && x < m.width && y >= 0 && y < m.height
}

// Set places a line-art rune, merging it with what is already there. Cells
// holding text are left alone.
func (m *Matrix) Set(x, y int, r rune, color *diagram.Color) error {
	if !m.inside(x, y) {
		return ErrOutOfBounds
	}
	c := &m.cells[y][x]
	if c.text {
		return nil
	}
	c.Char = m.merger.Merge(c.Char, r)
	if color != nil {
		c.Color = color
	}
	return nil
}

// Put overwrites a cell without merging.
func (m *Matrix) Put(x, y int, r rune, color *diagram.Color) error {
	if !m.inside(x, y) {
		return ErrOutOfBounds
	}
	m.cells[y][x] = Cell{Char: r, Color: color}
	return nil
}

// DrawText writes s starting at (x, y). Cells outside the matrix are
// clipped. It returns the number of columns used.
func (m *Matrix) DrawText(x, y int, s string, color *diagram.Color) int {
	col := x
	for _, r := range s {
		w := RuneWidth(r)
		if w == 0 {
			continue
		}
		m.putText(col, y, r, color)
		if w == 2 {
			m.putText(col+1, y, 0, color)
		}
		col += w
	}
	return col - x
}

func (m *Matrix) putText(x, y int, r rune, color *diagram.Color) {
	if m.inside(x, y) {
		m.cells[y][x] = Cell{Char: r, Color: color, text: true}
	}
}

// Clear blanks every cell.
func (m *Matrix) Clear() {
	for y := range m.cells {
		for x := range m.cells[y] {
			m.cells[y][x] = Cell{Char: ' '}
		}
	}
}

// String returns the rows joined by newlines, with trailing spaces trimmed.
func (m *Matrix) String() string {
	var sb strings.Builder
	for y, row := range m.cells {
		var line strings.Builder
		for _, c := range row {
			if c.Char != 0 {
				line.WriteRune(c.Char)
			}
		}
		sb.WriteString(strings.TrimRight(line.String(), " "))
		if y < m.height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
