// Package terminal shows a rendered map in the terminal and lets the user
// pan, zoom and flip the traffic side.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"transitmap/canvas"
	"transitmap/diagram"
	"transitmap/markup"
	"transitmap/render"
	"transitmap/scene"
)

const (
	zoomStep = 1.25
	minZoom  = 0.25
	maxZoom  = 8
)

var helpLines = []string{
	"transitmap viewer",
	"",
	"  ← ↑ → ↓     pan",
	"  H J K L     pan half a page",
	"  g           back to the top left",
	"  + / -       zoom in / out",
	"  0           reset zoom",
	"  t           toggle left/right-hand traffic",
	"  s           toggle line stubs",
	"  ?           toggle this help",
	"  q / Esc     quit",
}

// Settings are the render options the viewer starts with.
type Settings struct {
	Stubs     bool
	Curviness float64
	Raster    canvas.Options
	// ASCII draws lines with 7-bit characters.
	ASCII bool
}

// Viewer draws one map onto a tcell screen.
type Viewer struct {
	screen tcell.Screen
	engine *markup.Engine
	model  *diagram.Model
	name   string

	settings Settings
	doc      *scene.Document
	matrix   *canvas.Matrix

	offX, offY int
	showHelp   bool
	status     string
}

// NewViewer returns a viewer for model. name is shown in the status line.
func NewViewer(screen tcell.Screen, engine *markup.Engine, model *diagram.Model, name string, settings Settings) *Viewer {
	if settings.Raster.Zoom <= 0 {
		settings.Raster = canvas.DefaultOptions()
	}
	return &Viewer{
		screen:   screen,
		engine:   engine,
		model:    model,
		name:     name,
		settings: settings,
	}
}

// Rerender redraws the map from the model and rasterizes it.
func (v *Viewer) Rerender(ctx context.Context) error {
	doc, err := render.Draw(ctx, v.engine, v.model,
		render.WithStubs(v.settings.Stubs),
		render.WithCurviness(v.settings.Curviness),
	)
	if err != nil {
		return err
	}
	v.doc = doc
	return v.rasterize()
}

func (v *Viewer) rasterize() error {
	m, err := canvas.Rasterize(v.doc, v.settings.Raster)
	if errors.Is(err, canvas.ErrEmptyDocument) {
		v.matrix = nil
		v.status = "nothing to draw"
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to rasterize map: %w", err)
	}
	if v.settings.ASCII {
		m.ToASCII()
	}
	v.matrix = m
	v.clampOffset()
	return nil
}

// HandleKey applies one key press. It reports whether the viewer should quit.
func (v *Viewer) HandleKey(ctx context.Context, ev *tcell.EventKey) (bool, error) {
	w, h := v.viewport()
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true, nil
	case tcell.KeyLeft:
		v.pan(-1, 0)
	case tcell.KeyRight:
		v.pan(1, 0)
	case tcell.KeyUp:
		v.pan(0, -1)
	case tcell.KeyDown:
		v.pan(0, 1)
	case tcell.KeyPgUp:
		v.pan(0, -h)
	case tcell.KeyPgDn:
		v.pan(0, h)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true, nil
		case 'H':
			v.pan(-w/2, 0)
		case 'L':
			v.pan(w/2, 0)
		case 'K':
			v.pan(0, -h/2)
		case 'J':
			v.pan(0, h/2)
		case 'g':
			v.offX, v.offY = 0, 0
		case '+', '=':
			return false, v.zoom(v.settings.Raster.Zoom * zoomStep)
		case '-', '_':
			return false, v.zoom(v.settings.Raster.Zoom / zoomStep)
		case '0':
			return false, v.zoom(1)
		case 't':
			v.model.SetTrafficDirection(!v.model.IsRightHandTraffic())
			return false, v.Rerender(ctx)
		case 's':
			v.settings.Stubs = !v.settings.Stubs
			return false, v.Rerender(ctx)
		case '?':
			v.showHelp = !v.showHelp
		}
	}
	return false, nil
}

func (v *Viewer) zoom(z float64) error {
	z = max(minZoom, min(maxZoom, z))
	if z == v.settings.Raster.Zoom || v.doc == nil {
		return nil
	}
	// Keep the centre of the viewport where it was.
	w, h := v.viewport()
	ratio := z / v.settings.Raster.Zoom
	cx, cy := float64(v.offX+w/2)*ratio, float64(v.offY+h/2)*ratio
	v.settings.Raster.Zoom = z
	v.offX, v.offY = int(cx)-w/2, int(cy)-h/2
	return v.rasterize()
}

func (v *Viewer) pan(dx, dy int) {
	v.offX += dx
	v.offY += dy
	v.clampOffset()
}

func (v *Viewer) clampOffset() {
	if v.matrix == nil {
		v.offX, v.offY = 0, 0
		return
	}
	mw, mh := v.matrix.Size()
	w, h := v.viewport()
	v.offX = max(0, min(v.offX, mw-w))
	v.offY = max(0, min(v.offY, mh-h))
}

// viewport is the screen area above the status line.
func (v *Viewer) viewport() (int, int) {
	w, h := v.screen.Size()
	return w, max(h-1, 0)
}

// Offset returns the top-left matrix cell currently on screen.
func (v *Viewer) Offset() (int, int) { return v.offX, v.offY }

// Zoom returns the current zoom factor.
func (v *Viewer) Zoom() float64 { return v.settings.Raster.Zoom }

// Draw paints the visible part of the map and the status line.
func (v *Viewer) Draw() {
	v.screen.Clear()
	w, h := v.viewport()

	if v.matrix != nil {
		mw, mh := v.matrix.Size()
		for y := 0; y < h && v.offY+y < mh; y++ {
			for x := 0; x < w && v.offX+x < mw; x++ {
				cell := v.matrix.Get(v.offX+x, v.offY+y)
				if cell.Char == 0 {
					continue
				}
				v.screen.SetContent(x, y, cell.Char, nil, cellStyle(cell.Color))
			}
		}
	}

	if v.showHelp {
		for i, line := range helpLines {
			drawText(v.screen, 2, 1+i, line, tcell.StyleDefault.Reverse(true))
		}
	}
	v.drawStatus()
	v.screen.Show()
}

func (v *Viewer) drawStatus() {
	w, h := v.screen.Size()
	if h == 0 {
		return
	}
	traffic := "right-hand"
	if !v.model.IsRightHandTraffic() {
		traffic = "left-hand"
	}
	state := v.model.State()
	line := fmt.Sprintf("[ %s ] Stations: %d | Lines: %d | %s | Zoom: %.2gx",
		v.name, len(state.Stations), len(state.Lines), traffic, v.settings.Raster.Zoom)
	if v.status != "" {
		line += " | " + v.status
	}
	style := tcell.StyleDefault.Reverse(true)
	for x := 0; x < w; x++ {
		v.screen.SetContent(x, h-1, ' ', nil, style)
	}
	drawText(v.screen, 0, h-1, runewidth.Truncate(line, w, "…"), style)
}

func cellStyle(c *diagram.Color) tcell.Style {
	if c == nil {
		return tcell.StyleDefault
	}
	r, g, b := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().RGB255()
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

// Loop processes events until the user quits or ctx is cancelled.
func (v *Viewer) Loop(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		v.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	v.Draw()
	for {
		switch ev := v.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		case *tcell.EventResize:
			v.clampOffset()
			v.screen.Sync()
		case *tcell.EventKey:
			quit, err := v.HandleKey(ctx, ev)
			if quit {
				return nil
			}
			v.status = ""
			if err != nil {
				slog.Error("viewer action failed", "err", err)
				v.status = err.Error()
			}
		}
		v.Draw()
	}
}

// Run opens the terminal, shows model until the user quits, and restores
// the terminal.
func Run(ctx context.Context, engine *markup.Engine, model *diagram.Model, name string, settings Settings) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to setup terminal: %w", err)
	}
	defer screen.Fini()

	v := NewViewer(screen, engine, model, name, settings)
	if err := v.Rerender(ctx); err != nil {
		return err
	}
	return v.Loop(ctx)
}
