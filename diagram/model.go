package diagram

import (
	"errors"
	"fmt"
	"sync"

	"transitmap/geometry"
)

var (
	ErrUnknownStation = errors.New("unknown station")
	ErrUnknownLine    = errors.New("unknown line")
)

// CopyOffset is the distance between a station and its copy.
const CopyOffset = 100

// CopyDirection selects where CopyStation places the new station.
type CopyDirection int

const (
	Forwards CopyDirection = iota
	Backwards
)

// Model owns the map state and is the only place it is mutated.
// It is safe for concurrent use.
type Model struct {
	mu               sync.RWMutex
	state            MapState
	rightHandTraffic bool
}

// NewModel wraps an existing state. A zero state is replaced by an empty map.
func NewModel(state MapState, rightHandTraffic bool) *Model {
	if state.Stations == nil {
		state.Stations = make(map[StationID]*Station)
	}
	if state.Lines == nil {
		state.Lines = make(map[LineID]*Line)
	}
	return &Model{state: state, rightHandTraffic: rightHandTraffic}
}

// State returns a snapshot of the map that later mutations do not affect.
func (m *Model) State() MapState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// IsRightHandTraffic reports the global traffic handedness.
func (m *Model) IsRightHandTraffic() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rightHandTraffic
}

// SetTrafficDirection sets the global traffic handedness.
func (m *Model) SetTrafficDirection(rightHand bool) {
	m.mu.Lock()
	m.rightHandTraffic = rightHand
	m.mu.Unlock()
}

// AddStation creates a station with a fresh id.
func (m *Model) AddStation(name string, pos geometry.Point, hidden bool, o Orientation) StationID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := StationID(uniqueID(func(s string) bool {
		_, ok := m.state.Stations[StationID(s)]
		return ok
	}))
	m.state.Stations[id] = &Station{
		ID:          id,
		Name:        name,
		Position:    pos,
		Hidden:      hidden,
		Orientation: o,
		Lines:       make(map[LineID]LineStop),
	}
	return id
}

// RemoveStation deletes a station and every occurrence of it in line paths.
func (m *Model) RemoveStation(id StationID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.Stations[id]; !ok {
		return
	}
	for _, line := range m.state.Lines {
		line.Path = removeAll(line.Path, id)
	}
	delete(m.state.Stations, id)
}

func removeAll(path []StationID, id StationID) []StationID {
	out := path[:0]
	for _, s := range path {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}

// AddLine creates a line with an empty path and appends it to the stacking order.
func (m *Model) AddLine(name string, color Color) LineID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := LineID(uniqueID(func(s string) bool {
		_, ok := m.state.Lines[LineID(s)]
		return ok
	}))
	m.state.Lines[id] = &Line{ID: id, Name: name, Color: color}
	if m.state.StackingIndex(id) == -1 {
		m.state.LineStackingOrder = append(m.state.LineStackingOrder, id)
	}
	return id
}

// RemoveLine deletes a line, its stacking entry and every station record of it.
func (m *Model) RemoveLine(id LineID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.Lines, id)
	if i := m.state.StackingIndex(id); i != -1 {
		m.state.LineStackingOrder = append(m.state.LineStackingOrder[:i], m.state.LineStackingOrder[i+1:]...)
	}
	for _, st := range m.state.Stations {
		delete(st.Lines, id)
	}
}

func (m *Model) lineAndStation(lineID LineID, stationID StationID) (*Line, *Station, error) {
	line, ok := m.state.Lines[lineID]
	if !ok {
		return nil, nil, fmt.Errorf("line %s: %w", lineID, ErrUnknownLine)
	}
	st, ok := m.state.Stations[stationID]
	if !ok {
		return nil, nil, fmt.Errorf("station %s: %w", stationID, ErrUnknownStation)
	}
	return line, st, nil
}

// AddStationToLine appends a station to a line's path. Repeats are allowed.
func (m *Model) AddStationToLine(lineID LineID, stationID StationID, stopsAt bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, st, err := m.lineAndStation(lineID, stationID)
	if err != nil {
		return err
	}
	line.Path = append(line.Path, stationID)
	st.Lines[lineID] = LineStop{StopsAt: stopsAt}
	return nil
}

// ConnectStations appends a and then b to the line.
func (m *Model) ConnectStations(lineID LineID, a, b StationID, stopsAtA, stopsAtB bool) error {
	if err := m.AddStationToLine(lineID, a, stopsAtA); err != nil {
		return err
	}
	return m.AddStationToLine(lineID, b, stopsAtB)
}

// InsertStationIntoLine inserts station next to the first occurrence of
// reference, after it or before it.
func (m *Model) InsertStationIntoLine(lineID LineID, stationID, reference StationID, after, stopsAt bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, st, err := m.lineAndStation(lineID, stationID)
	if err != nil {
		return err
	}
	idx := -1
	for i, s := range line.Path {
		if s == reference {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("station %s is not on line %s: %w", reference, lineID, ErrUnknownStation)
	}
	if after {
		idx++
	}
	line.Path = append(line.Path, "")
	copy(line.Path[idx+1:], line.Path[idx:])
	line.Path[idx] = stationID
	st.Lines[lineID] = LineStop{StopsAt: stopsAt}
	return nil
}

// RemoveStationFromLine removes the first occurrence of a station from a
// line's path and the station's record of the line.
func (m *Model) RemoveStationFromLine(lineID LineID, stationID StationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, st, err := m.lineAndStation(lineID, stationID)
	if err != nil {
		return err
	}
	for i, s := range line.Path {
		if s == stationID {
			line.Path = append(line.Path[:i], line.Path[i+1:]...)
			break
		}
	}
	delete(st.Lines, lineID)
	return nil
}

// SetLineStopsAtStation changes whether a line stops at a member station.
// Non-members are left alone.
func (m *Model) SetLineStopsAtStation(lineID LineID, stationID StationID, stopsAt bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.state.Stations[stationID]
	if !ok {
		return
	}
	if _, member := st.Lines[lineID]; member {
		st.Lines[lineID] = LineStop{StopsAt: stopsAt}
	}
}

// UpdateLinePath replaces a line's path. stopsAt is matched by position and
// defaults to true. Unknown stations are skipped.
func (m *Model) UpdateLinePath(lineID LineID, stations []StationID, stopsAt []bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.state.Lines[lineID]
	if !ok {
		return fmt.Errorf("line %s: %w", lineID, ErrUnknownLine)
	}
	line.Path = nil
	for _, st := range m.state.Stations {
		delete(st.Lines, lineID)
	}
	var missing []error
	for i, id := range stations {
		st, ok := m.state.Stations[id]
		if !ok {
			missing = append(missing, fmt.Errorf("station %s: %w", id, ErrUnknownStation))
			continue
		}
		stops := true
		if i < len(stopsAt) {
			stops = stopsAt[i]
		}
		line.Path = append(line.Path, id)
		st.Lines[lineID] = LineStop{StopsAt: stops}
	}
	return errors.Join(missing...)
}

// UpdateLineStackingOrder replaces the global stacking order.
func (m *Model) UpdateLineStackingOrder(order []LineID) {
	m.mu.Lock()
	m.state.LineStackingOrder = append([]LineID(nil), order...)
	m.mu.Unlock()
}

// LineStackingOrderForStation filters the global order to the lines that
// pass through a station.
func (m *Model) LineStackingOrderForStation(id StationID) []LineID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.state.Stations[id]
	if !ok {
		return nil
	}
	var out []LineID
	for _, l := range m.state.LineStackingOrder {
		if _, member := st.Lines[l]; member {
			out = append(out, l)
		}
	}
	return out
}

// PathEntry describes one stop of a line's path.
type PathEntry struct {
	StationID StationID
	Name      string
	StopsAt   bool
}

// LinePath lists the stations of a line in path order, skipping ids that no
// longer resolve.
func (m *Model) LinePath(lineID LineID) ([]PathEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	line, ok := m.state.Lines[lineID]
	if !ok {
		return nil, fmt.Errorf("line %s: %w", lineID, ErrUnknownLine)
	}
	entries := make([]PathEntry, 0, len(line.Path))
	for _, id := range line.Path {
		st, ok := m.state.Stations[id]
		if !ok {
			continue
		}
		stops := true
		if info, member := st.Lines[lineID]; member {
			stops = info.StopsAt
		}
		entries = append(entries, PathEntry{StationID: id, Name: st.Name, StopsAt: stops})
	}
	return entries, nil
}

func (m *Model) withStation(id StationID, fn func(*Station)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.state.Stations[id]; ok {
		fn(st)
	}
}

func (m *Model) withLine(id LineID, fn func(*Line)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.state.Lines[id]; ok {
		fn(l)
	}
}

func (m *Model) RenameStation(id StationID, name string) {
	m.withStation(id, func(s *Station) { s.Name = name })
}

func (m *Model) MoveStation(id StationID, pos geometry.Point) {
	m.withStation(id, func(s *Station) { s.Position = pos })
}

func (m *Model) SetStationHidden(id StationID, hidden bool) {
	m.withStation(id, func(s *Station) { s.Hidden = hidden })
}

func (m *Model) SetStationOrientation(id StationID, o Orientation) {
	m.withStation(id, func(s *Station) { s.Orientation = o })
}

func (m *Model) UpdateStationHostID(id StationID, hostID string) {
	m.withStation(id, func(s *Station) { s.HostNodeID = hostID })
}

func (m *Model) RenameLine(id LineID, name string) {
	m.withLine(id, func(l *Line) { l.Name = name })
}

func (m *Model) SetLineColor(id LineID, c Color) {
	m.withLine(id, func(l *Line) { l.Color = c })
}

func (m *Model) UpdateLineHostID(id LineID, hostID string) {
	m.withLine(id, func(l *Line) { l.HostGroupID = hostID })
}

// FindStationByHostID returns the station whose glyph is the given host node.
func (m *Model) FindStationByHostID(hostID string) (*Station, bool) {
	if hostID == "" {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, st := range m.state.Stations {
		if st.HostNodeID == hostID {
			c := *st
			return &c, true
		}
	}
	return nil, false
}

// CopyStation duplicates a station CopyOffset units along its facing axis and
// inserts the copy next to the original on every line it belongs to.
func (m *Model) CopyStation(id StationID, dir CopyDirection) (StationID, error) {
	m.mu.RLock()
	src, ok := m.state.Stations[id]
	if !ok {
		m.mu.RUnlock()
		return "", fmt.Errorf("station %s: %w", id, ErrUnknownStation)
	}
	orig := *src
	lines := make(map[LineID]LineStop, len(src.Lines))
	for l, info := range src.Lines {
		lines[l] = info
	}
	m.mu.RUnlock()

	offset := orig.Orientation.Offset(CopyOffset)
	if dir == Backwards {
		offset = offset.Scale(-1)
	}
	newID := m.AddStation(orig.Name, orig.Position.Add(offset), orig.Hidden, orig.Orientation)
	for lineID, info := range lines {
		if err := m.InsertStationIntoLine(lineID, newID, id, dir == Forwards, info.StopsAt); err != nil {
			return newID, fmt.Errorf("copying station %s onto line %s: %w", orig.Name, lineID, err)
		}
	}
	return newID, nil
}
