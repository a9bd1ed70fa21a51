package canvas

import "github.com/mattn/go-runewidth"

// RuneWidth returns the number of terminal columns r occupies.
func RuneWidth(r rune) int {
	return runewidth.RuneWidth(r)
}

// StringWidth returns the display width of s in terminal columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// FitText truncates text to maxWidth columns, ending with ellipsis when cut.
func FitText(text string, maxWidth int, ellipsis string) string {
	if StringWidth(text) <= maxWidth {
		return text
	}
	if maxWidth <= StringWidth(ellipsis) {
		return runewidth.Truncate(text, maxWidth, "")
	}
	return runewidth.Truncate(text, maxWidth, ellipsis)
}
