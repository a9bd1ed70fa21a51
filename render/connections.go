package render

import (
	"sync"

	"transitmap/diagram"
	"transitmap/geometry"
)

// ConnectionPoints are where a line meets one stripe of a station glyph.
// Head is the outward edge lines leave from, Tail the edge they arrive at.
// AlignStart and AlignEnd span the stripe stack's common width.
type ConnectionPoints struct {
	Head       geometry.Point
	Tail       geometry.Point
	AlignStart geometry.Point
	AlignEnd   geometry.Point
}

type connectionKey struct {
	station diagram.StationID
	line    diagram.LineID
	segment int
}

// Table holds the connection points measured during one render. A line that
// visits a station more than once has one entry per visit.
type Table struct {
	mu     sync.RWMutex
	points map[connectionKey]ConnectionPoints
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{points: make(map[connectionKey]ConnectionPoints)}
}

// Get returns the points of a line at a station for the given path index.
func (t *Table) Get(station diagram.StationID, line diagram.LineID, segment int) (ConnectionPoints, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.points[connectionKey{station, line, segment}]
	return p, ok
}

// Set records the points of a line at a station.
func (t *Table) Set(station diagram.StationID, line diagram.LineID, segment int, p ConnectionPoints) {
	t.mu.Lock()
	t.points[connectionKey{station, line, segment}] = p
	t.mu.Unlock()
}

// Add records every measurement of a station.
func (t *Table) Add(station diagram.StationID, ms []StripeMeasurement) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range ms {
		t.points[connectionKey{station, m.Line, m.SegmentIndex}] = m.Points
	}
}

// Clear removes every entry.
func (t *Table) Clear() {
	t.mu.Lock()
	clear(t.points)
	t.mu.Unlock()
}

// Len returns the number of entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.points)
}
