package canvas

// Line-art runes produced by the rasterizer.
const (
	Horizontal = '─'
	Vertical   = '│'
	Rising     = '╱'
	Falling    = '╲'
	Cross      = '┼'
	Diagonals  = '╳'
	StopMark   = '●'
	PassMark   = '○'
)

// Merger combines two runes drawn at the same cell.
type Merger struct {
	rules map[[2]rune]rune
}

// NewMerger creates a merger with the crossing rules for line art.
func NewMerger() *Merger {
	m := &Merger{rules: make(map[[2]rune]rune)}
	m.add(Horizontal, Vertical, Cross)
	m.add(Rising, Falling, Diagonals)
	m.add(Cross, Horizontal, Cross)
	m.add(Cross, Vertical, Cross)
	m.add(Diagonals, Rising, Diagonals)
	m.add(Diagonals, Falling, Diagonals)
	return m
}

func (m *Merger) add(a, b, out rune) {
	m.rules[[2]rune{a, b}] = out
	m.rules[[2]rune{b, a}] = out
}

// Merge returns the rune for drawing next over existing. Station marks
// win over lines, and a later line replaces an earlier one unless they cross.
func (m *Merger) Merge(existing, next rune) rune {
	if existing == ' ' || existing == 0 || existing == next {
		return next
	}
	if isMark(existing) && !isMark(next) {
		return existing
	}
	if r, ok := m.rules[[2]rune{existing, next}]; ok {
		return r
	}
	return next
}

func isMark(r rune) bool {
	return r == StopMark || r == PassMark
}
