package export

import (
	"context"
	"fmt"
	"io"

	"transitmap/canvas"
)

// ASCIIExporter rasterizes the document to Unicode line art, or to plain
// ASCII when Plain is set.
type ASCIIExporter struct {
	Options canvas.Options
	Color   bool
	Plain   bool
}

func (e *ASCIIExporter) Export(_ context.Context, in Input, w io.Writer) error {
	if in.Doc == nil {
		return ErrNilInput
	}
	m, err := canvas.Rasterize(in.Doc, e.Options)
	if err != nil {
		return fmt.Errorf("failed to rasterize map: %w", err)
	}
	if e.Plain {
		m.ToASCII()
	}
	out := m.String()
	if e.Color {
		out = m.ColoredString()
	}
	_, err = io.WriteString(w, out+"\n")
	return err
}

func (e *ASCIIExporter) Extension() string   { return ".txt" }
func (e *ASCIIExporter) ContentType() string { return "text/plain; charset=utf-8" }
