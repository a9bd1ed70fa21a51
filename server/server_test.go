package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap/config"
	"transitmap/demo"
	"transitmap/diagram"
	"transitmap/markup"
	"transitmap/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "maps.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, markup.NewEngine(markup.EmbedResolver{}), config.Default())
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["store"])
}

func TestMapLifecycle(t *testing.T) {
	s := newTestServer(t)
	src := demo.Model(true)
	data, err := src.Save()
	require.NoError(t, err)

	rec := do(t, s, http.MethodPut, "/maps/downtown", data)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/maps", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListMapsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "downtown", list.Maps[0].Name)

	rec = do(t, s, http.MethodGet, "/maps/downtown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	m, err := diagram.Load(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, src.State().LineStackingOrder, m.State().LineStackingOrder)
	assert.Len(t, m.State().Stations, len(src.State().Stations))

	rec = do(t, s, http.MethodDelete, "/maps/downtown", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, "/maps/downtown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodDelete, "/maps/downtown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutImportsOtherFormats(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{
		"stations": [{"id": "a", "name": "Alpha", "x": 0, "y": 0}, {"id": "b", "name": "Beta", "x": 200, "y": 0}],
		"lines": [{"id": "r", "name": "Red", "color": "#ff0000", "stops": [{"station": "a"}, {"station": "b"}]}]
	}`)
	rec := do(t, s, http.MethodPut, "/maps/simple?format=json", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/maps/simple/render.svg", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
	assert.Contains(t, rec.Body.String(), `stroke="#ff0000"`)
}

func TestPutRejectsGarbage(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPut, "/maps/bad", []byte("graph TD; A-->B"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to import map", resp.Error)
}

func TestRenderDemo(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		target      string
		status      int
		contentType string
		contains    string
	}{
		{"/demo/render.svg", http.StatusOK, "image/svg+xml", "<svg"},
		{"/demo/render.ascii", http.StatusOK, "text/plain; charset=utf-8", "Central Station"},
		{"/demo/render.txt?traffic=left", http.StatusOK, "text/plain; charset=utf-8", "Park Ave"},
		{"/demo/render.json", http.StatusOK, "application/json", `"s"`},
		{"/demo/render.gif", http.StatusBadRequest, "application/json", "Unsupported format"},
		{"/demo/render.svg?traffic=sideways", http.StatusBadRequest, "application/json", "traffic"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target, nil)
			if rec.Code != tt.status {
				t.Fatalf("GET %s = %d, want %d: %s", tt.target, rec.Code, tt.status, rec.Body.String())
			}
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestRenderMissingMap(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/maps/nowhere/render.svg", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWithoutStore(t *testing.T) {
	s := New(nil, markup.NewEngine(markup.EmbedResolver{}), config.Default())

	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"store":"none"`))

	rec = do(t, s, http.MethodGet, "/maps", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, s, http.MethodGet, "/demo/render.svg", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
