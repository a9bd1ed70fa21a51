package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"transitmap/diagram"
)

// JSONExporter writes the model in the compact serialization.
type JSONExporter struct {
	Indent bool
}

func (e *JSONExporter) Export(_ context.Context, in Input, w io.Writer) error {
	if in.Model == nil {
		return ErrNilInput
	}
	data, err := diagram.Marshal(in.Model.State(), in.Model.IsRightHandTraffic())
	if err != nil {
		return err
	}
	if e.Indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	_, err = w.Write(data)
	return err
}

func (e *JSONExporter) Extension() string   { return ".json" }
func (e *JSONExporter) ContentType() string { return "application/json" }
