// Package importer builds transit map models from external formats.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"transitmap/diagram"
)

// ErrUnknownFormat is returned when no importer recognises the input.
var ErrUnknownFormat = errors.New("unable to detect format")

// Importer interface defines methods for importing maps from various formats
type Importer interface {
	// CanImport reports whether data looks like this importer's format.
	CanImport(data []byte) bool

	// Import converts data into a model.
	Import(data []byte) (*diagram.Model, error)

	// FormatName returns the short name used on the command line.
	FormatName() string

	// FileExtensions returns common file extensions for this format
	FileExtensions() []string
}

// Registry manages available importers
type Registry struct {
	importers []Importer
}

// NewRegistry creates a registry with the gtfs, compact and json importers,
// tried in that order.
func NewRegistry() *Registry {
	return &Registry{
		importers: []Importer{
			NewGTFSImporter(),
			&CompactImporter{},
			&JSONImporter{},
		},
	}
}

// Register adds an importer, replacing any registered under the same
// format name in place.
func (r *Registry) Register(imp Importer) {
	for i, existing := range r.importers {
		if existing.FormatName() == imp.FormatName() {
			r.importers[i] = imp
			return
		}
	}
	r.importers = append(r.importers, imp)
}

// DetectFormat attempts to detect the format of the given content
func (r *Registry) DetectFormat(data []byte) (Importer, error) {
	for _, imp := range r.importers {
		if imp.CanImport(data) {
			return imp, nil
		}
	}
	return nil, ErrUnknownFormat
}

// Import attempts to import content using auto-detection
func (r *Registry) Import(data []byte) (*diagram.Model, error) {
	imp, err := r.DetectFormat(data)
	if err != nil {
		return nil, err
	}
	return imp.Import(data)
}

// ImportWithFormat imports content using a specific format. An empty format
// auto-detects.
func (r *Registry) ImportWithFormat(data []byte, format string) (*diagram.Model, error) {
	if format == "" {
		return r.Import(data)
	}
	format = strings.ToLower(format)
	for _, imp := range r.importers {
		if imp.FormatName() == format {
			return imp.Import(data)
		}
	}
	return nil, fmt.Errorf("unknown format: %s", format)
}

// AvailableFormats returns the names of the registered importers.
func (r *Registry) AvailableFormats() []string {
	formats := make([]string, len(r.importers))
	for i, imp := range r.importers {
		formats[i] = imp.FormatName()
	}
	return formats
}

// ForExtension returns the importer claiming a file extension such as ".zip".
func (r *Registry) ForExtension(ext string) (Importer, bool) {
	ext = strings.ToLower(ext)
	for _, imp := range r.importers {
		for _, e := range imp.FileExtensions() {
			if e == ext {
				return imp, true
			}
		}
	}
	return nil, false
}

// topLevelKeys returns the keys of a JSON object, or nil if data is not one.
func topLevelKeys(data []byte) map[string]json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	return obj
}

// CompactImporter reads the compact single-letter-key format that maps are
// saved in.
type CompactImporter struct{}

func (c *CompactImporter) CanImport(data []byte) bool {
	keys := topLevelKeys(data)
	_, s := keys["s"]
	_, l := keys["l"]
	return s && l
}

func (c *CompactImporter) Import(data []byte) (*diagram.Model, error) {
	m, err := diagram.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to import compact map: %w", err)
	}
	return m, nil
}

func (c *CompactImporter) FormatName() string       { return "compact" }
func (c *CompactImporter) FileExtensions() []string { return []string{".map", ".tmap"} }
