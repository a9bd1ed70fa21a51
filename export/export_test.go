package export_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap/demo"
	"transitmap/diagram"
	"transitmap/export"
	"transitmap/markup"
	"transitmap/render"
	"transitmap/scene"
)

func renderedDemo(t *testing.T) export.Input {
	t.Helper()
	model := demo.Model(true)
	doc := scene.NewDocument()
	view := render.NewView(doc, markup.NewEngine(markup.EmbedResolver{}), model)
	require.NoError(t, view.Render(context.Background()))
	return export.Input{Model: model, Doc: doc}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected export.Format
		wantErr  bool
	}{
		{"svg", export.FormatSVG, false},
		{"PNG", export.FormatPNG, false},
		{"jpg", export.FormatJPEG, false},
		{"jpeg", export.FormatJPEG, false},
		{"json", export.FormatJSON, false},
		{"txt", export.FormatASCII, false},
		{"mermaid", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := export.ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format      export.Format
		ext         string
		contentType string
	}{
		{export.FormatSVG, ".svg", "image/svg+xml"},
		{export.FormatPNG, ".png", "image/png"},
		{export.FormatJPEG, ".jpg", "image/jpeg"},
		{export.FormatJSON, ".json", "application/json"},
		{export.FormatASCII, ".txt", "text/plain; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			e, err := export.NewExporter(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.ext, e.Extension())
			assert.Equal(t, tt.contentType, e.ContentType())
		})
	}
	_, err := export.NewExporter("invalid")
	assert.Error(t, err)
	assert.Len(t, export.FormatDescriptions(), len(export.AvailableFormats()))
}

func TestNilInput(t *testing.T) {
	for _, f := range export.AvailableFormats() {
		e, err := export.NewExporter(f)
		require.NoError(t, err)
		err = e.Export(context.Background(), export.Input{}, &bytes.Buffer{})
		assert.True(t, errors.Is(err, export.ErrNilInput), "%s: %v", f, err)
	}
}

func TestSVGHasOnePathPerStroke(t *testing.T) {
	in := renderedDemo(t)
	var buf bytes.Buffer
	require.NoError(t, export.NewSVGExporter().Export(context.Background(), in, &buf))
	out := buf.String()

	strokes := in.Doc.Page().FindAll(func(n *scene.Node) bool {
		return n.Kind() == scene.KindVector && n.Stroke != nil
	})
	require.NotEmpty(t, strokes)
	assert.Equal(t, len(strokes), strings.Count(out, "<path "))
	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg"`))
	assert.Contains(t, out, ">Central Station</tspan>")
	assert.Contains(t, out, `stroke="#ff0000"`)
	assert.Contains(t, out, `<g id="Line: Red Line">`)
	assert.NotContains(t, out, ">Hidden Point</tspan>", "hidden station glyphs are not drawn")
}

func TestSVGEscapesText(t *testing.T) {
	doc := scene.NewDocument()
	txt := doc.CreateText()
	txt.Characters = "A & B <C>"
	doc.Page().AppendChild(txt)

	out := export.SVG(doc)
	assert.Contains(t, out, "A &amp; B &lt;C&gt;")
	assert.Contains(t, out, `font-weight="400"`)
}

func TestJSONExportRoundTrips(t *testing.T) {
	in := renderedDemo(t)
	e, err := export.NewExporter(export.FormatJSON, export.WithIndent(true))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, e.Export(context.Background(), in, &buf))

	state, rightHand, err := diagram.Unmarshal(buf.Bytes())
	require.NoError(t, err)
	assert.True(t, rightHand)
	assert.Len(t, state.Stations, len(in.Model.State().Stations))
	assert.Equal(t, in.Model.State().LineStackingOrder, state.LineStackingOrder)
}

func TestASCIIExport(t *testing.T) {
	in := renderedDemo(t)
	var plain, colored bytes.Buffer

	e, err := export.NewExporter(export.FormatASCII)
	require.NoError(t, err)
	require.NoError(t, e.Export(context.Background(), in, &plain))
	assert.Contains(t, plain.String(), "Central Station")
	assert.NotContains(t, plain.String(), "\033[")

	e, err = export.NewExporter(export.FormatASCII, export.WithColor(true))
	require.NoError(t, err)
	require.NoError(t, e.Export(context.Background(), in, &colored))
	assert.Contains(t, colored.String(), "\033[38;2;255;0;0m")
}

func TestImageExport(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a browser")
	}
	var found bool
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("no Chrome or Chromium on PATH")
	}

	in := renderedDemo(t)
	e, err := export.NewExporter(export.FormatPNG, export.WithScale(1), export.WithTimeout(time.Minute))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, e.Export(context.Background(), in, &buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 100)
}

func TestEncodeJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, img))

	var out bytes.Buffer
	require.NoError(t, export.Encode(export.FormatJPEG, src.Bytes(), &out))
	assert.Equal(t, []byte{0xFF, 0xD8}, out.Bytes()[:2])

	out.Reset()
	require.NoError(t, export.Encode(export.FormatPNG, src.Bytes(), &out))
	assert.Equal(t, src.Bytes(), out.Bytes())

	assert.Error(t, export.Encode(export.FormatJPEG, []byte("not a png"), &out))
}
