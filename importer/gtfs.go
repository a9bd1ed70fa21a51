package importer

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"transitmap/diagram"
	"transitmap/geometry"
)

// ErrIncompleteFeed is returned when a GTFS archive lacks a required file.
var ErrIncompleteFeed = errors.New("incomplete GTFS feed")

var zipMagic = []byte("PK\x03\x04")

// DefaultGTFSWidth is the page width the feed's extent is scaled to.
const DefaultGTFSWidth = 1200

var defaultRouteColor = diagram.Color{R: 0.5, G: 0.5, B: 0.5}

// GTFSImporter turns a static GTFS zip into a map. Each route becomes a line
// following its longest trip; child stops collapse into their parent station.
type GTFSImporter struct {
	// Width of the projected map in page units.
	Width float64
	// RouteTypes keeps only routes of these GTFS route_type values. Empty
	// keeps every route.
	RouteTypes []int
}

func NewGTFSImporter() *GTFSImporter {
	return &GTFSImporter{Width: DefaultGTFSWidth}
}

func (g *GTFSImporter) CanImport(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

func (g *GTFSImporter) FormatName() string       { return "gtfs" }
func (g *GTFSImporter) FileExtensions() []string { return []string{".zip"} }

type gtfsStop struct {
	id, name, parent string
	lat, lon         float64
}

type gtfsRoute struct {
	id, shortName, longName, color string
	routeType                      int
}

type gtfsStopTime struct {
	stopID string
	seq    int
}

type feed struct {
	stops     map[string]gtfsStop
	routes    []gtfsRoute
	trips     map[string][]string // route id -> trip ids
	stopTimes map[string][]gtfsStopTime
}

func (g *GTFSImporter) Import(data []byte) (*diagram.Model, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	f, err := parseFeed(r)
	if err != nil {
		return nil, err
	}
	return g.build(f)
}

func parseFeed(r *zip.Reader) (*feed, error) {
	files := make(map[string]*zip.File)
	for _, f := range r.File {
		files[f.Name] = f
	}
	for _, name := range []string{"stops.txt", "routes.txt", "trips.txt", "stop_times.txt"} {
		if _, ok := files[name]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrIncompleteFeed, name)
		}
	}

	f := &feed{
		stops:     make(map[string]gtfsStop),
		trips:     make(map[string][]string),
		stopTimes: make(map[string][]gtfsStopTime),
	}
	err := readCSV(files["stops.txt"], func(get func(string) string) {
		lat, _ := strconv.ParseFloat(get("stop_lat"), 64)
		lon, _ := strconv.ParseFloat(get("stop_lon"), 64)
		s := gtfsStop{id: get("stop_id"), name: get("stop_name"), parent: get("parent_station"), lat: lat, lon: lon}
		f.stops[s.id] = s
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse stops.txt: %w", err)
	}
	err = readCSV(files["routes.txt"], func(get func(string) string) {
		routeType, _ := strconv.Atoi(get("route_type"))
		f.routes = append(f.routes, gtfsRoute{
			id:        get("route_id"),
			shortName: get("route_short_name"),
			longName:  get("route_long_name"),
			color:     get("route_color"),
			routeType: routeType,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse routes.txt: %w", err)
	}
	err = readCSV(files["trips.txt"], func(get func(string) string) {
		route := get("route_id")
		f.trips[route] = append(f.trips[route], get("trip_id"))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse trips.txt: %w", err)
	}
	err = readCSV(files["stop_times.txt"], func(get func(string) string) {
		seq, _ := strconv.Atoi(get("stop_sequence"))
		trip := get("trip_id")
		f.stopTimes[trip] = append(f.stopTimes[trip], gtfsStopTime{stopID: get("stop_id"), seq: seq})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse stop_times.txt: %w", err)
	}

	slog.Debug("GTFS parsed", "routes", len(f.routes), "stops", len(f.stops), "trips", len(f.stopTimes))
	return f, nil
}

// readCSV calls row for every record, with a getter by column name.
// Malformed records are skipped.
func readCSV(zf *zip.File, row func(get func(string) string)) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return err
	}
	idx := makeIndex(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			continue
		}
		row(func(field string) string { return getField(record, idx, field) })
	}
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}

// stationKey maps a platform to its parent station when the feed has one.
func (f *feed) stationKey(stopID string) string {
	if s, ok := f.stops[stopID]; ok && s.parent != "" {
		if _, ok := f.stops[s.parent]; ok {
			return s.parent
		}
	}
	return stopID
}

// longestTrip returns the stop sequence of the route's trip with most stops.
// Ties go to the smallest trip id.
func (f *feed) longestTrip(routeID string) []gtfsStopTime {
	trips := slices.Clone(f.trips[routeID])
	sort.Strings(trips)
	var best []gtfsStopTime
	for _, t := range trips {
		if st := f.stopTimes[t]; len(st) > len(best) {
			best = st
		}
	}
	best = slices.Clone(best)
	sort.SliceStable(best, func(i, j int) bool { return best[i].seq < best[j].seq })
	return best
}

type routePath struct {
	route gtfsRoute
	path  []string
}

func (g *GTFSImporter) build(f *feed) (*diagram.Model, error) {
	routes := slices.Clone(f.routes)
	sort.Slice(routes, func(i, j int) bool { return routes[i].id < routes[j].id })

	var paths []routePath
	used := make(map[string]bool)
	for _, rt := range routes {
		if len(g.RouteTypes) > 0 && !slices.Contains(g.RouteTypes, rt.routeType) {
			continue
		}
		var path []string
		for _, st := range f.longestTrip(rt.id) {
			key := f.stationKey(st.stopID)
			if _, ok := f.stops[key]; !ok {
				slog.Warn("skipping unknown stop", "route", rt.id, "stop", st.stopID)
				continue
			}
			if len(path) > 0 && path[len(path)-1] == key {
				continue
			}
			path = append(path, key)
		}
		if len(path) < 2 {
			slog.Warn("skipping route with fewer than two stations", "route", rt.id)
			continue
		}
		for _, k := range path {
			used[k] = true
		}
		paths = append(paths, routePath{route: rt, path: path})
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no route has two or more stations", ErrIncompleteFeed)
	}

	keys := make([]string, 0, len(used))
	for k := range used {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	project := g.projection(f, keys)

	m := diagram.NewModel(diagram.NewMapState(), true)
	ids := make(map[string]diagram.StationID, len(keys))
	for _, k := range keys {
		s := f.stops[k]
		name := s.name
		if name == "" {
			name = k
		}
		ids[k] = m.AddStation(name, project(s), false, diagram.Right)
	}
	for _, rp := range paths {
		line := m.AddLine(routeName(rp.route), routeColor(rp.route))
		for _, k := range rp.path {
			if err := m.AddStationToLine(line, ids[k], true); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// projection returns an equirectangular projection that fits the stations
// into g.Width page units, north up.
func (g *GTFSImporter) projection(f *feed, keys []string) func(gtfsStop) geometry.Point {
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	for _, k := range keys {
		s := f.stops[k]
		minLat, maxLat = math.Min(minLat, s.lat), math.Max(maxLat, s.lat)
		minLon, maxLon = math.Min(minLon, s.lon), math.Max(maxLon, s.lon)
	}
	kx := math.Cos((minLat + maxLat) / 2 * math.Pi / 180)
	span := math.Max((maxLon-minLon)*kx, maxLat-minLat)
	width := g.Width
	if width <= 0 {
		width = DefaultGTFSWidth
	}
	scale := 1.0
	if span > 0 {
		scale = width / span
	}
	return func(s gtfsStop) geometry.Point {
		return geometry.Point{
			X: math.Round((s.lon-minLon)*kx*scale*100) / 100,
			Y: math.Round((maxLat-s.lat)*scale*100) / 100,
		}
	}
}

func routeName(r gtfsRoute) string {
	switch {
	case r.shortName != "":
		return r.shortName
	case r.longName != "":
		return r.longName
	default:
		return r.id
	}
}

func routeColor(r gtfsRoute) diagram.Color {
	if r.color == "" {
		return defaultRouteColor
	}
	c, err := diagram.ParseColor(r.color)
	if err != nil {
		slog.Warn("ignoring invalid route colour", "route", r.id, "color", r.color)
		return defaultRouteColor
	}
	return c
}
