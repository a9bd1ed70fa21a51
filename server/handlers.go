package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"transitmap/demo"
	"transitmap/diagram"
	"transitmap/export"
	"transitmap/render"
	"transitmap/store"
	"transitmap/validation"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ListMapsResponse is the JSON response for GET /maps
type ListMapsResponse struct {
	Maps  []store.Entry `json:"maps"`
	Count int           `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = map[string]interface{}{"message": err.Error()}
	}
	writeJSON(w, status, resp)
}

// health reports whether the store answers.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}
	if s.store == nil {
		body["store"] = "none"
		writeJSON(w, http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.store.List(ctx); err != nil {
		body["status"] = "error"
		body["store"] = "disconnected"
		body["error"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body["store"] = "connected"
	writeJSON(w, http.StatusOK, body)
}

// listMaps handles GET /maps
func (s *Server) listMaps(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list maps", err)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	writeJSON(w, http.StatusOK, ListMapsResponse{Maps: entries, Count: len(entries)})
}

// getMap handles GET /maps/{name} and returns the compact serialization.
func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	data, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// putMap handles PUT /maps/{name}. The body may be any importable format;
// ?format= forces one. The map is validated and stored in compact form.
func (s *Server) putMap(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Failed to read body", err)
		return
	}

	m, err := s.importer.ImportWithFormat(body, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to import map", err)
		return
	}
	issues := validation.NewValidator().Validate(m.State())
	if err := validation.Err(issues); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Map is invalid", err)
		return
	}
	for _, i := range issues {
		slog.Warn("stored map has issues", "map", name, "issue", i.String())
	}

	data, err := m.Save()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to serialize map", err)
		return
	}
	if err := s.store.Save(r.Context(), name, data); err != nil {
		if errors.Is(err, store.ErrInvalidName) {
			writeError(w, http.StatusBadRequest, "Invalid map name", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to store map", err)
		return
	}

	warnings := make([]string, 0, len(issues))
	for _, i := range issues {
		warnings = append(warnings, i.String())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":     name,
		"stations": len(m.State().Stations),
		"lines":    len(m.State().Lines),
		"warnings": warnings,
	})
}

// deleteMap handles DELETE /maps/{name}
func (s *Server) deleteMap(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), chi.URLParam(r, "name"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Map not found", nil)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to delete map", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// renderMap handles GET /maps/{name}/render.{format}
func (s *Server) renderMap(w http.ResponseWriter, r *http.Request) {
	data, ok := s.load(w, r)
	if !ok {
		return
	}
	m, err := diagram.Load(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored map is corrupt", err)
		return
	}
	s.render(w, r, m)
}

// renderDemo handles GET /demo/render.{format}
func (s *Server) renderDemo(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, demo.Model(s.cfg.Render.RightHandTraffic))
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Map not found", nil)
		return nil, false
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to load map", err)
		return nil, false
	}
	return data, true
}

// render draws m and writes it in the format named by the URL. ?traffic=left
// or right overrides the stored handedness; ?color=true and ?plain=true
// apply to ascii output.
func (s *Server) render(w http.ResponseWriter, r *http.Request, m *diagram.Model) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported format", err)
		return
	}

	q := r.URL.Query()
	switch q.Get("traffic") {
	case "":
	case "left":
		m.SetTrafficDirection(false)
	case "right":
		m.SetTrafficDirection(true)
	default:
		writeError(w, http.StatusBadRequest, "traffic must be left or right", nil)
		return
	}
	color, _ := strconv.ParseBool(q.Get("color"))
	plain, _ := strconv.ParseBool(q.Get("plain"))

	exp, err := export.NewExporter(format,
		export.WithChromePath(s.cfg.Export.ChromePath),
		export.WithScale(s.cfg.Export.Scale),
		export.WithTimeout(s.cfg.Export.Timeout.Duration),
		export.WithColor(color),
		export.WithPlain(plain),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported format", err)
		return
	}

	doc, err := render.Draw(r.Context(), s.engine, m,
		render.WithStubs(s.cfg.Render.Stubs),
		render.WithCurviness(s.cfg.Render.Curviness),
	)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Render cancelled", err)
		return
	}

	// Buffer so a failed export can still send an error status.
	var buf bytes.Buffer
	if err := exp.Export(r.Context(), export.Input{Model: m, Doc: doc}, &buf); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to export %s", format), err)
		return
	}
	w.Header().Set("Content-Type", exp.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}
