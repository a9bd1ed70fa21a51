// Package export writes rendered transit maps to image, text and data formats.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"transitmap/canvas"
	"transitmap/diagram"
	"transitmap/scene"
)

// Format represents an export format
type Format string

const (
	FormatSVG   Format = "svg"
	FormatPNG   Format = "png"
	FormatJPEG  Format = "jpeg"
	FormatJSON  Format = "json"
	FormatASCII Format = "ascii"
)

var ErrNilInput = errors.New("nothing to export")

// Input is a rendered map: the model it came from and the document the view
// drew it into.
type Input struct {
	Model *diagram.Model
	Doc   *scene.Document
}

// Exporter writes an Input in one format.
type Exporter interface {
	Export(ctx context.Context, in Input, w io.Writer) error
	// Extension returns the recommended file extension, with the dot.
	Extension() string
	// ContentType returns the MIME type of the output.
	ContentType() string
}

type options struct {
	chromePath string
	scale      float64
	timeout    time.Duration
	color      bool
	indent     bool
	plain      bool
	raster     canvas.Options
}

// Option configures an exporter.
type Option func(*options)

// WithChromePath sets the browser binary used for raster images.
func WithChromePath(path string) Option {
	return func(o *options) { o.chromePath = path }
}

// WithScale sets the device pixel ratio of raster images.
func WithScale(scale float64) Option {
	return func(o *options) { o.scale = scale }
}

// WithTimeout bounds a raster export.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithColor makes the ascii exporter emit ANSI colours.
func WithColor(enabled bool) Option {
	return func(o *options) { o.color = enabled }
}

// WithPlain restricts ascii output to 7-bit characters.
func WithPlain(enabled bool) Option {
	return func(o *options) { o.plain = enabled }
}

// WithIndent pretty-prints json output.
func WithIndent(enabled bool) Option {
	return func(o *options) { o.indent = enabled }
}

// WithRaster sets the cell mapping of the ascii exporter.
func WithRaster(r canvas.Options) Option {
	return func(o *options) { o.raster = r }
}

// NewExporter creates an exporter for the specified format
func NewExporter(format Format, opts ...Option) (Exporter, error) {
	o := options{scale: 2, timeout: 30 * time.Second, raster: canvas.DefaultOptions()}
	for _, opt := range opts {
		opt(&o)
	}
	switch format {
	case FormatSVG:
		return NewSVGExporter(), nil
	case FormatPNG, FormatJPEG:
		return NewImageExporter(format, o.chromePath, o.scale, o.timeout), nil
	case FormatJSON:
		return &JSONExporter{Indent: o.indent}, nil
	case FormatASCII:
		return &ASCIIExporter{Options: o.raster, Color: o.color, Plain: o.plain}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ParseFormat converts a string to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "json":
		return FormatJSON, nil
	case "ascii", "text", "txt":
		return FormatASCII, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// AvailableFormats returns every export format.
func AvailableFormats() []Format {
	return []Format{FormatSVG, FormatPNG, FormatJPEG, FormatJSON, FormatASCII}
}

// FormatDescriptions returns human-readable descriptions of all formats
func FormatDescriptions() map[Format]string {
	return map[Format]string{
		FormatSVG:   "Scalable vector graphics",
		FormatPNG:   "PNG image (needs Chrome or Chromium)",
		FormatJPEG:  "JPEG image (needs Chrome or Chromium)",
		FormatJSON:  "Compact map JSON",
		FormatASCII: "Unicode line art",
	}
}
