package scene

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"

	"transitmap/diagram"
)

const (
	DefaultFontFamily = "Inter"
	DefaultFontStyle  = "Regular"
	DefaultFontSize   = 12
)

var defaultTextFill = diagram.Black

// ErrFontNotFound is returned when loading a font the document does not know.
var ErrFontNotFound = errors.New("font not found")

// FontName is a family and style pair.
type FontName struct {
	Family string
	Style  string
}

// FontLoader tracks which fonts are available and which have been loaded.
type FontLoader struct {
	mu        sync.Mutex
	available map[FontName]bool
	loaded    map[FontName]bool
}

// NewFontLoader returns a loader that knows the common UI families.
func NewFontLoader() *FontLoader {
	f := &FontLoader{
		available: make(map[FontName]bool),
		loaded:    make(map[FontName]bool),
	}
	for _, family := range []string{"Inter", "Roboto", "Arial", "Helvetica", "Noto Sans"} {
		for _, style := range []string{"Regular", "Medium", "Semi Bold", "Bold", "Italic"} {
			f.available[FontName{family, style}] = true
		}
	}
	return f
}

// Register makes a font available.
func (f *FontLoader) Register(name FontName) {
	f.mu.Lock()
	f.available[name] = true
	f.mu.Unlock()
}

// Load marks a font as loaded, failing for unknown fonts.
func (f *FontLoader) Load(name FontName) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available[name] {
		return fmt.Errorf("%s %s: %w", name.Family, name.Style, ErrFontNotFound)
	}
	f.loaded[name] = true
	return nil
}

// Loaded reports whether a font was loaded.
func (f *FontLoader) Loaded(name FontName) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded[name]
}

// TextWidth returns the layout width of a single line at the given size. A
// narrow cell is 3/5 em wide; East Asian wide characters take two cells.
func TextWidth(s string, size float64) float64 {
	return float64(runewidth.StringWidth(s)) * size * 3 / 5
}

// measureText returns the auto-sized box of a text node.
func measureText(n *Node) (float64, float64) {
	size := n.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	lines := strings.Split(n.Characters, "\n")
	var w float64
	for _, l := range lines {
		if lw := TextWidth(l, size); lw > w {
			w = lw
		}
	}
	return w, LineHeight(size) * float64(len(lines))
}

// LineHeight returns the height of one text line, 6/5 em.
func LineHeight(size float64) float64 {
	return size * 6 / 5
}
