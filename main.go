package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"transitmap/canvas"
	"transitmap/config"
	"transitmap/demo"
	"transitmap/diagram"
	"transitmap/export"
	"transitmap/importer"
	"transitmap/markup"
	"transitmap/render"
	"transitmap/server"
	"transitmap/store"
	"transitmap/terminal"
	"transitmap/validation"
)

// exitCode lets run pick the process status without calling os.Exit itself.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

type options struct {
	configPath  string
	envPath     string
	demo        bool
	format      string
	output      string
	inputFormat string
	leftHand    bool
	validate    bool
	strict      bool
	interactive bool
	serve       string
	save        string
	load        string
	list        bool
	verbose     bool
	quiet       bool
	color       bool
	plain       bool
	zoom        float64
	file        string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Config file (default: transitmap.toml if present)")
	flag.StringVar(&o.envPath, "env", ".env", "Dotenv file with TRANSITMAP_ variables")
	flag.BoolVar(&o.demo, "demo", false, "Use the built-in demo map")
	flag.StringVar(&o.format, "format", "ascii", "Export format: "+formatList())
	flag.StringVar(&o.output, "o", "", "Output file (default: stdout)")
	flag.StringVar(&o.inputFormat, "input-format", "", "Input format: compact, json, gtfs (auto-detect if not specified)")
	flag.BoolVar(&o.leftHand, "left-hand", false, "Draw for left-hand traffic")
	flag.BoolVar(&o.validate, "validate", false, "Validate the map and exit with status 2 on errors")
	flag.BoolVar(&o.strict, "strict", false, "Treat cosmetic validation warnings as errors")
	flag.BoolVar(&o.interactive, "i", false, "Interactive terminal preview")
	flag.StringVar(&o.serve, "serve", "", "Start the HTTP server on this address (\"-\" uses the configured one)")
	flag.StringVar(&o.save, "save", "", "Store the map under this name")
	flag.StringVar(&o.load, "load", "", "Load the named map from the store")
	flag.BoolVar(&o.list, "list", false, "List stored maps")
	flag.BoolVar(&o.verbose, "v", false, "Verbose logging")
	flag.BoolVar(&o.quiet, "q", false, "Only log errors")
	flag.BoolVar(&o.color, "color", false, "Colour ascii output with ANSI escapes")
	flag.BoolVar(&o.plain, "plain", false, "Restrict ascii output to 7-bit characters (default when the terminal lacks UTF-8)")
	flag.Float64Var(&o.zoom, "zoom", 1, "Ascii raster zoom")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [map file]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Renders transit maps to svg, png, jpeg, json or terminal text.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -demo                              # Demo map as text\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -demo -format svg -o demo.svg      # Demo map as SVG\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -i network.json                    # Preview in the terminal\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -save metro feed.zip               # Import a GTFS feed and store it\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -load metro -format png -o m.png   # Render a stored map\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -serve :8080                       # HTTP API\n", os.Args[0])
	}
	flag.Parse()
	if args := flag.Args(); len(args) > 0 {
		o.file = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, o)
	stop()

	var code exitCode
	switch {
	case err == nil:
	case errors.As(err, &code):
		os.Exit(int(code))
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func formatList() string {
	var names []string
	for _, f := range export.AvailableFormats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func setupLogging(cfg *config.Config, o options) {
	level, _ := cfg.Log.SlogLevel()
	switch {
	case o.verbose:
		level = slog.LevelDebug
	case o.quiet:
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(ctx context.Context, o options) error {
	cfg, err := config.Load(o.configPath, o.envPath)
	if err != nil {
		return err
	}
	if o.leftHand {
		cfg.Render.RightHandTraffic = false
	}
	setupLogging(cfg, o)

	engine := markup.NewEngine(markup.NewResolver(cfg.Render.ComponentsDir))

	if o.serve != "" {
		return serve(ctx, cfg, engine, o.serve)
	}

	var st store.Store
	if o.list || o.load != "" || o.save != "" {
		st, err = store.Open(ctx, cfg.Store.DSN)
		if err != nil {
			return err
		}
		defer st.Close()
	}
	if o.list {
		return listMaps(ctx, st, os.Stdout)
	}

	m, name, err := loadModel(ctx, cfg, st, o)
	if err != nil {
		return err
	}
	if o.leftHand {
		m.SetTrafficDirection(false)
	}

	if o.validate || o.save != "" {
		v := validation.NewValidator()
		v.SetStrictMode(o.strict)
		issues := v.Validate(m.State())
		for _, i := range issues {
			fmt.Fprintln(os.Stderr, i.String())
		}
		if err := validation.Err(issues); err != nil {
			if o.validate {
				return exitCode(2)
			}
			return err
		}
		if o.validate {
			fmt.Fprintf(os.Stderr, "%s: %d stations, %d lines, %d issues\n",
				name, len(m.State().Stations), len(m.State().Lines), len(issues))
			return nil
		}
	}

	if o.save != "" {
		data, err := m.Save()
		if err != nil {
			return err
		}
		if err := st.Save(ctx, o.save, data); err != nil {
			return err
		}
		slog.Info("map stored", "name", o.save, "dsn", cfg.Store.DSN)
		return nil
	}

	if o.interactive {
		raster := canvas.DefaultOptions()
		raster.Zoom = o.zoom
		return terminal.Run(ctx, engine, m, name, terminal.Settings{
			Stubs:     cfg.Render.Stubs,
			Curviness: cfg.Render.Curviness,
			Raster:    raster,
			ASCII:     o.plain || !canvas.DetectCapabilities().Unicode,
		})
	}
	return exportModel(ctx, cfg, engine, m, o)
}

func serve(ctx context.Context, cfg *config.Config, engine *markup.Engine, addr string) error {
	if addr != "-" {
		cfg.Server.Addr = addr
	}
	st, err := store.Open(ctx, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer st.Close()
	return server.New(st, engine, cfg).ListenAndServe(ctx)
}

func listMaps(ctx context.Context, st store.Store, w io.Writer) error {
	entries, err := st.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%-30s %s\n", e.Name, e.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

// loadModel returns the map to work on and a display name for it.
func loadModel(ctx context.Context, cfg *config.Config, st store.Store, o options) (*diagram.Model, string, error) {
	switch {
	case o.demo:
		return demo.Model(cfg.Render.RightHandTraffic), "demo", nil
	case o.load != "":
		data, err := st.Load(ctx, o.load)
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", o.load, err)
		}
		m, err := diagram.Load(data)
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", o.load, err)
		}
		return m, o.load, nil
	case o.file != "":
		m, err := importFile(o.file, o.inputFormat)
		if err != nil {
			return nil, "", err
		}
		return m, filepath.Base(o.file), nil
	default:
		flag.Usage()
		return nil, "", errors.New("no map given: pass a file, -demo or -load")
	}
}

// importFile reads a map in any importable format. Without an explicit
// format the extension is tried first, then content detection.
func importFile(filename, format string) (*diagram.Model, error) {
	var data []byte
	var err error
	if filename == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(filename)
	}
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	registry := importer.NewRegistry()
	if format == "" {
		if imp, ok := registry.ForExtension(filepath.Ext(filename)); ok && imp.CanImport(data) {
			format = imp.FormatName()
		}
	}
	m, err := registry.ImportWithFormat(data, format)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", filename, err)
	}
	return m, nil
}

func exportModel(ctx context.Context, cfg *config.Config, engine *markup.Engine, m *diagram.Model, o options) error {
	format, err := export.ParseFormat(o.format)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, formatList())
	}
	raster := canvas.DefaultOptions()
	raster.Zoom = o.zoom
	plain := o.plain || (o.output == "" && !canvas.DetectCapabilities().Unicode)
	exp, err := export.NewExporter(format,
		export.WithChromePath(cfg.Export.ChromePath),
		export.WithScale(cfg.Export.Scale),
		export.WithTimeout(cfg.Export.Timeout.Duration),
		export.WithColor(o.color),
		export.WithPlain(plain),
		export.WithIndent(true),
		export.WithRaster(raster),
	)
	if err != nil {
		return err
	}

	doc, err := render.Draw(ctx, engine, m,
		render.WithStubs(cfg.Render.Stubs),
		render.WithCurviness(cfg.Render.Curviness),
	)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if o.output != "" {
		f, err := os.Create(o.output)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := exp.Export(ctx, export.Input{Model: m, Doc: doc}, w); err != nil {
		return fmt.Errorf("exporting %s: %w", format, err)
	}
	if o.output != "" {
		fmt.Fprintf(os.Stderr, "Successfully exported to %s\n", o.output)
	}
	return nil
}
