package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"transitmap/config"
	"transitmap/importer"
	"transitmap/store"
	"transitmap/validation"
)

func main() {
	var (
		inputFile  = flag.String("i", "", "Input file path")
		format     = flag.String("f", "", "Format (gtfs, json, compact) - auto-detect if not specified")
		output     = flag.String("o", "", "Output file path (default: stdout)")
		name       = flag.String("save", "", "Also store the map under this name")
		configPath = flag.String("config", "", "Config file for the store DSN")
		width      = flag.Float64("width", importer.DefaultGTFSWidth, "GTFS: width of the projected map")
		routeTypes = flag.String("route-types", "", "GTFS: comma separated route_type values to keep")
	)

	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Error: input file required (-i)\n")
		flag.Usage()
		os.Exit(1)
	}

	content, err := os.ReadFile(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
		os.Exit(1)
	}

	gtfs := importer.NewGTFSImporter()
	gtfs.Width = *width
	for _, s := range strings.Split(*routeTypes, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		t, err := strconv.Atoi(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid route type %q\n", s)
			os.Exit(1)
		}
		gtfs.RouteTypes = append(gtfs.RouteTypes, t)
	}
	registry := importer.NewRegistry()
	registry.Register(gtfs)

	m, err := registry.ImportWithFormat(content, *format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing map: %v\n", err)
		os.Exit(1)
	}

	issues := validation.NewValidator().Validate(m.State())
	for _, i := range issues {
		fmt.Fprintln(os.Stderr, i.String())
	}
	if err := validation.Err(issues); err != nil {
		os.Exit(2)
	}

	data, err := m.Save()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error serializing map: %v\n", err)
		os.Exit(1)
	}

	if *name != "" {
		if err := saveToStore(*configPath, *name, data); err != nil {
			fmt.Fprintf(os.Stderr, "Error storing map: %v\n", err)
			os.Exit(1)
		}
	}

	if *output != "" {
		if err := os.WriteFile(*output, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully imported %d stations and %d lines to %s\n",
			len(m.State().Stations), len(m.State().Lines), *output)
	} else if *name == "" {
		fmt.Println(string(data))
	}
}

func saveToStore(configPath, name string, data []byte) error {
	cfg, err := config.Load(configPath, ".env")
	if err != nil {
		return err
	}
	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Save(ctx, name, data); err != nil {
		return err
	}
	slog.Info("map stored", "name", name, "dsn", cfg.Store.DSN)
	return nil
}
