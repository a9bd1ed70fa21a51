package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/chromedp/chromedp"
)

const jpegQuality = 90

// ImageExporter renders the SVG output in headless Chrome and screenshots it.
type ImageExporter struct {
	format     Format
	chromePath string
	scale      float64
	timeout    time.Duration
}

// NewImageExporter creates a png or jpeg exporter. An empty chromePath
// lets chromedp find the browser.
func NewImageExporter(format Format, chromePath string, scale float64, timeout time.Duration) *ImageExporter {
	if scale <= 0 {
		scale = 1
	}
	return &ImageExporter{format: format, chromePath: chromePath, scale: scale, timeout: timeout}
}

func (e *ImageExporter) Extension() string {
	if e.format == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

func (e *ImageExporter) ContentType() string {
	if e.format == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

func (e *ImageExporter) Export(ctx context.Context, in Input, w io.Writer) error {
	if in.Doc == nil {
		return ErrNilInput
	}
	svg := SVG(in.Doc)
	bounds := in.Doc.Bounds().Inset(svgMargin)

	shot, err := e.screenshot(ctx, svg, int(math.Ceil(bounds.Width)), int(math.Ceil(bounds.Height)))
	if err != nil {
		return err
	}
	return Encode(e.format, shot, w)
}

func (e *ImageExporter) screenshot(ctx context.Context, svg string, width, height int) ([]byte, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Headless)
	if e.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(e.chromePath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	dataURI := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
	var buf []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height), chromedp.EmulateScale(e.scale)),
		chromedp.Navigate(dataURI),
		chromedp.WaitVisible(`svg`, chromedp.ByQuery),
		chromedp.Screenshot(`svg`, &buf, chromedp.ByQuery),
	}
	slog.Debug("rendering image in headless browser", "format", e.format, "width", width, "height", height)
	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return nil, fmt.Errorf("chromedp execution failed: %w", err)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("screenshot buffer is empty")
	}
	return buf, nil
}

// Encode writes a PNG screenshot in the requested format.
func Encode(format Format, shot []byte, w io.Writer) error {
	switch format {
	case FormatPNG:
		_, err := w.Write(shot)
		return err
	case FormatJPEG:
		img, err := png.Decode(bytes.NewReader(shot))
		if err != nil {
			return fmt.Errorf("failed to decode PNG screenshot: %w", err)
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("failed to encode JPEG: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported image format: %s", format)
	}
}
