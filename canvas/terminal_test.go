package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCapabilities(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Capabilities
	}{
		{
			name: "forced ascii",
			env:  map[string]string{ModeEnv: "ascii", "LANG": "en_US.UTF-8"},
			want: Capabilities{Name: "ascii"},
		},
		{
			name: "forced unicode",
			env:  map[string]string{ModeEnv: "unicode"},
			want: Capabilities{Name: "unicode", Unicode: true, Color: true},
		},
		{
			name: "utf-8 xterm with truecolor",
			env:  map[string]string{"TERM": "xterm-256color", "LANG": "en_US.UTF-8", "COLORTERM": "truecolor"},
			want: Capabilities{Name: "xterm-256color", Unicode: true, Color: true},
		},
		{
			name: "LC_ALL wins over LANG",
			env:  map[string]string{"TERM": "xterm", "LC_ALL": "C", "LANG": "en_US.UTF-8"},
			want: Capabilities{Name: "xterm"},
		},
		{
			name: "linux console",
			env:  map[string]string{"TERM": "linux", "LANG": "C.utf8"},
			want: Capabilities{Name: "linux"},
		},
		{
			name: "NO_COLOR",
			env:  map[string]string{"TERM": "alacritty", "LANG": "de_DE.UTF-8@euro", "NO_COLOR": "1"},
			want: Capabilities{Name: "alacritty", Unicode: true},
		},
		{
			name: "iterm",
			env:  map[string]string{"TERM_PROGRAM": "iTerm.app", "LC_CTYPE": "UTF-8"},
			want: Capabilities{Name: "iterm2", Unicode: true, Color: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detect(func(k string) string { return tt.env[k] })
			if got != tt.want {
				t.Errorf("detect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestToASCII(t *testing.T) {
	m, err := NewMatrix(8, 1)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 0, Horizontal, nil))
	require.NoError(t, m.Set(0, 0, Vertical, nil))
	require.NoError(t, m.Set(1, 0, Rising, nil))
	require.NoError(t, m.Set(2, 0, StopMark, nil))
	require.NoError(t, m.Set(3, 0, PassMark, nil))
	m.DrawText(4, 0, "Ab─", nil)

	m.ToASCII()
	assert.Equal(t, "+/*oAb─", m.String())
}
