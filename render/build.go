package render

import (
	"context"
	"log/slog"

	"transitmap/diagram"
	"transitmap/markup"
	"transitmap/scene"
)

// Draw renders source into a fresh document. Stations or lines that fail are
// logged and left out of the result; only a cancelled context is an error.
func Draw(ctx context.Context, engine *markup.Engine, source diagram.StateSource, opts ...LineOption) (*scene.Document, error) {
	doc := scene.NewDocument()
	err := NewView(doc, engine, source, opts...).Render(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		slog.Warn("map rendered with errors", "err", err)
	}
	return doc, nil
}
