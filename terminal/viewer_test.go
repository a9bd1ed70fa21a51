package terminal

import (
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap/demo"
	"transitmap/markup"
)

func newSimViewer(t *testing.T, w, h int) (*Viewer, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(w, h)

	v := NewViewer(screen, markup.NewEngine(markup.EmbedResolver{}), demo.Model(true), "demo", Settings{Stubs: true, Curviness: 0.3})
	require.NoError(t, v.Rerender(context.Background()))
	return v, screen
}

func screenText(s tcell.SimulationScreen) string {
	cells, w, _ := s.GetContents()
	var sb strings.Builder
	for i, c := range cells {
		if i > 0 && i%w == 0 {
			sb.WriteByte('\n')
		}
		if len(c.Runes) == 0 {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteRune(c.Runes[0])
	}
	return sb.String()
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestViewerDrawsMapAndStatus(t *testing.T) {
	v, screen := newSimViewer(t, 300, 100)
	v.Draw()

	text := screenText(screen)
	assert.Contains(t, text, "Central Station")
	assert.Contains(t, text, "Stations: 7 | Lines: 3 | right-hand")
}

func TestViewerTogglesTraffic(t *testing.T) {
	v, screen := newSimViewer(t, 300, 100)
	ctx := context.Background()

	quit, err := v.HandleKey(ctx, key('t'))
	require.NoError(t, err)
	assert.False(t, quit)
	v.Draw()
	assert.Contains(t, screenText(screen), "left-hand")
	assert.Contains(t, screenText(screen), "Park Ave")
}

func TestViewerPanAndZoom(t *testing.T) {
	v, _ := newSimViewer(t, 40, 12)
	ctx := context.Background()

	tests := []struct {
		name     string
		ev       *tcell.EventKey
		wantX    int
		wantY    int
		wantZoom float64
	}{
		{"right", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), 1, 0, 1},
		{"down", tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), 1, 1, 1},
		{"left past origin", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), 0, 1, 1},
		{"left clamps", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), 0, 1, 1},
		{"home", key('g'), 0, 0, 1},
		{"half page", key('L'), 20, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.HandleKey(ctx, tt.ev)
			require.NoError(t, err)
			x, y := v.Offset()
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("Offset() = (%d, %d), want (%d, %d)", x, y, tt.wantX, tt.wantY)
			}
			assert.Equal(t, tt.wantZoom, v.Zoom())
		})
	}

	_, err := v.HandleKey(ctx, key('+'))
	require.NoError(t, err)
	assert.Equal(t, 1.25, v.Zoom())
	_, err = v.HandleKey(ctx, key('0'))
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Zoom())
	for range 20 {
		_, err = v.HandleKey(ctx, key('-'))
		require.NoError(t, err)
	}
	assert.Equal(t, minZoom, v.Zoom())
}

func TestViewerQuitKeys(t *testing.T) {
	v, _ := newSimViewer(t, 80, 24)
	for _, ev := range []*tcell.EventKey{
		key('q'),
		tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
		tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone),
	} {
		quit, err := v.HandleKey(context.Background(), ev)
		require.NoError(t, err)
		assert.True(t, quit, "key %v", ev.Name())
	}
}

func TestViewerHelpOverlay(t *testing.T) {
	v, screen := newSimViewer(t, 80, 24)
	_, err := v.HandleKey(context.Background(), key('?'))
	require.NoError(t, err)
	v.Draw()
	assert.Contains(t, screenText(screen), "toggle left/right-hand traffic")
}

func TestLoopStopsOnCancel(t *testing.T) {
	v, _ := newSimViewer(t, 80, 24)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, v.Loop(ctx))
}
