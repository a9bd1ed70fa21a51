package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"transitmap/diagram"
	"transitmap/markup"
	"transitmap/scene"
)

// View renders a whole map: every station first, then every line.
type View struct {
	doc      *scene.Document
	source   diagram.StateSource
	stations *StationRenderer
	lines    *LineRenderer

	mu    sync.Mutex
	table *Table
}

// NewView returns a view drawing source into doc.
func NewView(doc *scene.Document, engine *markup.Engine, source diagram.StateSource, opts ...LineOption) *View {
	return &View{
		doc:      doc,
		source:   source,
		stations: NewStationRenderer(doc, engine, source),
		lines:    NewLineRenderer(doc, source, opts...),
		table:    NewTable(),
	}
}

// Document returns the scene the view draws into.
func (v *View) Document() *scene.Document { return v.doc }

// Table returns the connection points of the last render.
func (v *View) Table() *Table {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.table
}

// errorList collects per-entity failures from concurrent renders.
type errorList struct {
	mu   sync.Mutex
	errs []error
}

func (l *errorList) add(err error) {
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
}

// Render redraws the map. A station or line that fails is logged and left
// out; the failures are returned joined. Only a cancelled context stops the
// render early.
func (v *View) Render(ctx context.Context) error {
	state := v.source.State()
	table := NewTable()
	var failed errorList

	var g errgroup.Group
	for _, st := range state.Stations {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ms, err := v.stations.RenderStation(ctx, st, state)
			if err != nil {
				err = fmt.Errorf("rendering station %s: %w", st.Name, err)
				slog.Error("station render failed", "station", st.Name, "err", err)
				failed.add(err)
				return nil
			}
			table.Add(st.ID, ms)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	v.mu.Lock()
	v.table = table
	v.mu.Unlock()

	// Host ids written during the station pass are not in the snapshot.
	state = v.source.State()
	for _, l := range state.Lines {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := v.lines.RenderLine(ctx, l, state.Stations, table); err != nil {
				err = fmt.Errorf("rendering line %s: %w", l.Name, err)
				slog.Error("line render failed", "line", l.Name, "err", err)
				failed.add(err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	v.lines.MoveSegmentsToBack()
	return errors.Join(failed.errs...)
}

// Clear removes every rendered line group and station glyph.
func (v *View) Clear() {
	v.lines.ClearAllSegments()
	for _, st := range v.source.State().Stations {
		if n, ok := v.doc.Lookup(st.HostNodeID); ok {
			n.Remove()
		}
	}
	v.Table().Clear()
}
