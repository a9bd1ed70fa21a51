package importer

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap/demo"
	"transitmap/diagram"
)

func gtfsZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func sampleFeed() map[string]string {
	return map[string]string{
		"stops.txt": "\ufeffstop_id,stop_name,stop_lat,stop_lon,location_type,parent_station\n" +
			"S1,Alpha,41.0,2.0,1,\n" +
			"S1a,Alpha Platform,41.0,2.0,0,S1\n" +
			"S2,Beta,41.0,2.1,,\n" +
			"S3,Gamma,41.1,2.1,,\n",
		"routes.txt": "route_id,route_short_name,route_long_name,route_type,route_color\n" +
			"R1,L1,Line One,1,FF0000\n" +
			"R2,,Line Two,3,\n",
		"trips.txt": "route_id,service_id,trip_id\n" +
			"R1,WD,T1\n" +
			"R1,WD,T2\n" +
			"R2,WD,T3\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"T2,08:00:00,08:00:00,S1a,1\n" +
			"T2,08:05:00,08:05:00,S2,2\n" +
			"T1,09:00:00,09:00:00,S1a,1\n" +
			"T1,09:05:00,09:05:00,S2,2\n" +
			"T1,09:09:00,09:09:00,S3,3\n" +
			"T3,10:05:00,10:05:00,S3,2\n" +
			"T3,10:00:00,10:00:00,S2,1\n",
	}
}

func stationsByName(m *diagram.Model) map[string]*diagram.Station {
	out := make(map[string]*diagram.Station)
	for _, s := range m.State().Stations {
		out[s.Name] = s
	}
	return out
}

func pathNames(t *testing.T, m *diagram.Model, id diagram.LineID) []string {
	t.Helper()
	entries, err := m.LinePath(id)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func TestDetectFormat(t *testing.T) {
	compact, err := demo.Model(true).Save()
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"gtfs", gtfsZip(t, sampleFeed()), "gtfs"},
		{"compact", compact, "compact"},
		{"json", []byte(`{"stations": [], "lines": []}`), "json"},
	}
	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp, err := r.DetectFormat(tt.data)
			require.NoError(t, err)
			if imp.FormatName() != tt.want {
				t.Errorf("DetectFormat() = %s, want %s", imp.FormatName(), tt.want)
			}
		})
	}

	_, err = r.DetectFormat([]byte("graph TD; A-->B"))
	assert.True(t, errors.Is(err, ErrUnknownFormat))
	_, err = r.ImportWithFormat(compact, "mermaid")
	assert.Error(t, err)
	assert.Equal(t, []string{"gtfs", "compact", "json"}, r.AvailableFormats())

	imp, ok := r.ForExtension(".ZIP")
	require.True(t, ok)
	assert.Equal(t, "gtfs", imp.FormatName())
}

func TestCompactImportMatchesSource(t *testing.T) {
	src := demo.Model(false)
	data, err := src.Save()
	require.NoError(t, err)

	m, err := NewRegistry().ImportWithFormat(data, "")
	require.NoError(t, err)
	assert.False(t, m.IsRightHandTraffic())
	assert.Equal(t, src.State().LineStackingOrder, m.State().LineStackingOrder)
	assert.Len(t, m.State().Stations, len(src.State().Stations))
}

func TestJSONImport(t *testing.T) {
	data := []byte(`{
		"stations": [
			{"id": "a", "name": "Central", "x": 10, "y": 20},
			{"id": "b", "name": "Harbour", "x": 200, "y": 20, "orientation": "up", "hidden": true}
		],
		"lines": [
			{"id": "r", "name": "Red", "color": "#ff0000",
			 "stops": [{"station": "a"}, {"station": "b", "stopsAt": false}, {"station": "a"}]},
			{"id": "g", "name": "Green", "stops": [{"station": "b"}, {"station": "a"}]}
		]
	}`)
	m, err := (&JSONImporter{}).Import(data)
	require.NoError(t, err)

	state := m.State()
	assert.True(t, m.IsRightHandTraffic())
	assert.Equal(t, []diagram.LineID{"r", "g"}, state.LineStackingOrder)
	assert.Equal(t, []diagram.StationID{"a", "b", "a"}, state.Lines["r"].Path)
	assert.Equal(t, diagram.Color{R: 1}, state.Lines["r"].Color)
	assert.Equal(t, diagram.Up, state.Stations["b"].Orientation)
	assert.Equal(t, diagram.Right, state.Stations["a"].Orientation)
	assert.True(t, state.Stations["b"].Hidden)
	assert.False(t, state.Stations["b"].Lines["r"].StopsAt)
	assert.True(t, state.Stations["a"].Lines["g"].StopsAt)
}

func TestJSONImportErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown station", `{"stations": [], "lines": [{"id": "r", "stops": [{"station": "x"}]}]}`, diagram.ErrUnknownStation},
		{"unknown stacking line", `{"stations": [], "lines": [], "stackingOrder": ["q"]}`, diagram.ErrUnknownLine},
		{"bad orientation", `{"stations": [{"id": "a", "orientation": "sideways"}]}`, nil},
		{"bad colour", `{"stations": [], "lines": [{"id": "r", "color": "nope"}]}`, nil},
		{"duplicate station", `{"stations": [{"id": "a"}, {"id": "a"}]}`, nil},
		{"not json", `{"stations": [`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&JSONImporter{}).Import([]byte(tt.data))
			require.Error(t, err)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			}
		})
	}
}

func TestGTFSImport(t *testing.T) {
	m, err := NewGTFSImporter().Import(gtfsZip(t, sampleFeed()))
	require.NoError(t, err)

	state := m.State()
	stations := stationsByName(m)
	require.Len(t, stations, 3, "platforms collapse into their parent station")
	require.Len(t, state.LineStackingOrder, 2)

	l1 := state.LineStackingOrder[0]
	assert.Equal(t, "L1", state.Lines[l1].Name)
	assert.Equal(t, diagram.Color{R: 1}, state.Lines[l1].Color)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, pathNames(t, m, l1), "longest trip wins")

	l2 := state.LineStackingOrder[1]
	assert.Equal(t, "Line Two", state.Lines[l2].Name)
	assert.Equal(t, defaultRouteColor, state.Lines[l2].Color)
	assert.Equal(t, []string{"Beta", "Gamma"}, pathNames(t, m, l2), "stops follow stop_sequence")

	alpha, gamma := stations["Alpha"].Position, stations["Gamma"].Position
	assert.InDelta(t, 0, alpha.X, 1e-9)
	assert.InDelta(t, DefaultGTFSWidth, alpha.Y, 1e-9, "north is up")
	assert.InDelta(t, 0, gamma.Y, 1e-9)
	assert.Greater(t, gamma.X, alpha.X)
	assert.Less(t, gamma.X, float64(DefaultGTFSWidth))
}

func TestGTFSRouteTypeFilter(t *testing.T) {
	imp := NewGTFSImporter()
	imp.RouteTypes = []int{1}
	m, err := imp.Import(gtfsZip(t, sampleFeed()))
	require.NoError(t, err)
	require.Len(t, m.State().Lines, 1)

	imp.RouteTypes = []int{0}
	_, err = imp.Import(gtfsZip(t, sampleFeed()))
	assert.True(t, errors.Is(err, ErrIncompleteFeed))
}

func TestGTFSMissingFile(t *testing.T) {
	files := sampleFeed()
	delete(files, "stop_times.txt")
	_, err := NewGTFSImporter().Import(gtfsZip(t, files))
	assert.True(t, errors.Is(err, ErrIncompleteFeed))
	assert.ErrorContains(t, err, "stop_times.txt")
}

func TestRegisterReplacesSameFormat(t *testing.T) {
	r := NewRegistry()
	gtfs := NewGTFSImporter()
	gtfs.RouteTypes = []int{1}
	r.Register(gtfs)

	assert.Equal(t, []string{"gtfs", "compact", "json"}, r.AvailableFormats())
	m, err := r.Import(gtfsZip(t, sampleFeed()))
	require.NoError(t, err)
	assert.Len(t, m.State().Lines, 1)
}
