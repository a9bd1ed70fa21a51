package canvas

import (
	"os"
	"strings"
)

// ModeEnv forces a terminal mode: "ascii" or "unicode".
const ModeEnv = "TRANSITMAP_TERMINAL_MODE"

// Capabilities describes what the current terminal can show.
type Capabilities struct {
	Name string
	// Unicode is false when only ASCII is safe; rasters should be
	// transliterated with ToASCII.
	Unicode bool
	// Color reports 24-bit colour support.
	Color bool
}

// DetectCapabilities inspects the environment.
func DetectCapabilities() Capabilities {
	return detect(os.Getenv)
}

func detect(getenv func(string) string) Capabilities {
	switch getenv(ModeEnv) {
	case "ascii":
		return Capabilities{Name: "ascii"}
	case "unicode":
		return Capabilities{Name: "unicode", Unicode: true, Color: true}
	}

	term := getenv("TERM")
	caps := Capabilities{Name: term}
	switch {
	case getenv("WT_SESSION") != "":
		caps.Name, caps.Color = "windows-terminal", true
	case getenv("TERM_PROGRAM") == "iTerm.app":
		caps.Name, caps.Color = "iterm2", true
	case getenv("VTE_VERSION") != "", getenv("KONSOLE_VERSION") != "", getenv("WEZTERM_EXECUTABLE") != "":
		caps.Color = true
	case strings.HasPrefix(term, "xterm-kitty"), term == "alacritty":
		caps.Color = true
	}
	if c := getenv("COLORTERM"); c == "truecolor" || c == "24bit" {
		caps.Color = true
	}
	if getenv("NO_COLOR") != "" || term == "dumb" {
		caps.Color = false
	}

	caps.Unicode = utf8Locale(getenv) && term != "linux" && term != "dumb"
	return caps
}

// utf8Locale handles C.UTF-8, en_US.UTF-8, en_US.utf8@euro and the like.
func utf8Locale(getenv func(string) string) bool {
	for _, env := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		v := strings.ToUpper(getenv(env))
		if v == "" {
			continue
		}
		return strings.Contains(v, "UTF-8") || strings.Contains(v, "UTF8")
	}
	return false
}

var asciiRunes = map[rune]rune{
	Horizontal: '-',
	Vertical:   '|',
	Rising:     '/',
	Falling:    '\\',
	Cross:      '+',
	Diagonals:  'X',
	StopMark:   '*',
	PassMark:   'o',
}

// ToASCII replaces the line and mark glyphs with ASCII look-alikes. Text
// cells are left alone.
func (m *Matrix) ToASCII() {
	for y := range m.cells {
		for x, c := range m.cells[y] {
			if c.text {
				continue
			}
			if r, ok := asciiRunes[c.Char]; ok {
				m.cells[y][x].Char = r
			}
		}
	}
}
