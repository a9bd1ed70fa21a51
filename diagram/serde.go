package diagram

import (
	"encoding/json"
	"fmt"
	"sort"

	"transitmap/geometry"
)

// The compact format keeps stored maps small: single-letter keys, lines of a
// station as [lineId, stopsAt] pairs.

type compactPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type compactStation struct {
	ID          string            `json:"i"`
	Name        string            `json:"n"`
	HostNodeID  *string           `json:"f"`
	Position    compactPoint      `json:"p"`
	Hidden      bool              `json:"h"`
	Orientation Orientation       `json:"o"`
	Lines       []json.RawMessage `json:"l"`
}

type compactLine struct {
	ID          string   `json:"i"`
	Name        string   `json:"n"`
	Color       Color    `json:"c"`
	Path        []string `json:"p"`
	HostGroupID string   `json:"g,omitempty"`
}

type compactState struct {
	Stations         []compactStation `json:"s"`
	Lines            []compactLine    `json:"l"`
	StackingOrder    []string         `json:"o"`
	RightHandTraffic *bool            `json:"r,omitempty"`
}

// Marshal encodes a map in the compact format. Stations and lines are sorted
// by id so equal maps encode to equal bytes.
func Marshal(state MapState, rightHandTraffic bool) ([]byte, error) {
	out := compactState{
		Stations:         make([]compactStation, 0, len(state.Stations)),
		Lines:            make([]compactLine, 0, len(state.Lines)),
		StackingOrder:    make([]string, 0, len(state.LineStackingOrder)),
		RightHandTraffic: &rightHandTraffic,
	}

	for _, id := range sortedStationIDs(state) {
		st := state.Stations[id]
		cs := compactStation{
			ID:          string(st.ID),
			Name:        st.Name,
			Position:    compactPoint{X: st.Position.X, Y: st.Position.Y},
			Hidden:      st.Hidden,
			Orientation: st.Orientation,
			Lines:       make([]json.RawMessage, 0, len(st.Lines)),
		}
		if st.HostNodeID != "" {
			host := st.HostNodeID
			cs.HostNodeID = &host
		}
		lineIDs := make([]string, 0, len(st.Lines))
		for l := range st.Lines {
			lineIDs = append(lineIDs, string(l))
		}
		sort.Strings(lineIDs)
		for _, l := range lineIDs {
			pair, err := json.Marshal([]any{l, st.Lines[LineID(l)].StopsAt})
			if err != nil {
				return nil, err
			}
			cs.Lines = append(cs.Lines, pair)
		}
		out.Stations = append(out.Stations, cs)
	}

	lineIDs := make([]string, 0, len(state.Lines))
	for id := range state.Lines {
		lineIDs = append(lineIDs, string(id))
	}
	sort.Strings(lineIDs)
	for _, id := range lineIDs {
		l := state.Lines[LineID(id)]
		cl := compactLine{
			ID:          string(l.ID),
			Name:        l.Name,
			Color:       l.Color,
			Path:        make([]string, len(l.Path)),
			HostGroupID: l.HostGroupID,
		}
		for i, s := range l.Path {
			cl.Path[i] = string(s)
		}
		out.Lines = append(out.Lines, cl)
	}

	for _, id := range state.LineStackingOrder {
		out.StackingOrder = append(out.StackingOrder, string(id))
	}
	return json.Marshal(out)
}

// Unmarshal decodes the compact format. A missing traffic flag means
// right-hand traffic.
func Unmarshal(data []byte) (MapState, bool, error) {
	var in compactState
	if err := json.Unmarshal(data, &in); err != nil {
		return MapState{}, false, fmt.Errorf("decoding map state: %w", err)
	}

	state := NewMapState()
	for _, cs := range in.Stations {
		st := &Station{
			ID:          StationID(cs.ID),
			Name:        cs.Name,
			Position:    geometry.Point{X: cs.Position.X, Y: cs.Position.Y},
			Hidden:      cs.Hidden,
			Orientation: cs.Orientation,
			Lines:       make(map[LineID]LineStop, len(cs.Lines)),
		}
		if cs.HostNodeID != nil {
			st.HostNodeID = *cs.HostNodeID
		}
		for _, raw := range cs.Lines {
			var pair []any
			if err := json.Unmarshal(raw, &pair); err != nil {
				return MapState{}, false, fmt.Errorf("decoding lines of station %s: %w", cs.ID, err)
			}
			if len(pair) != 2 {
				return MapState{}, false, fmt.Errorf("station %s: line entry must be [lineId, stopsAt]", cs.ID)
			}
			lineID, ok1 := pair[0].(string)
			stopsAt, ok2 := pair[1].(bool)
			if !ok1 || !ok2 {
				return MapState{}, false, fmt.Errorf("station %s: line entry must be [string, bool]", cs.ID)
			}
			st.Lines[LineID(lineID)] = LineStop{StopsAt: stopsAt}
		}
		state.Stations[st.ID] = st
	}

	for _, cl := range in.Lines {
		l := &Line{
			ID:          LineID(cl.ID),
			Name:        cl.Name,
			Color:       cl.Color,
			Path:        make([]StationID, len(cl.Path)),
			HostGroupID: cl.HostGroupID,
		}
		for i, s := range cl.Path {
			l.Path[i] = StationID(s)
		}
		state.Lines[l.ID] = l
	}

	for _, id := range in.StackingOrder {
		state.LineStackingOrder = append(state.LineStackingOrder, LineID(id))
	}

	rightHand := true
	if in.RightHandTraffic != nil {
		rightHand = *in.RightHandTraffic
	}
	return state, rightHand, nil
}

// Save encodes the model in the compact format.
func (m *Model) Save() ([]byte, error) {
	return Marshal(m.State(), m.IsRightHandTraffic())
}

// Load decodes a compact blob into a new model.
func Load(data []byte) (*Model, error) {
	state, rightHand, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return NewModel(state, rightHand), nil
}

func sortedStationIDs(state MapState) []StationID {
	ids := make([]StationID, 0, len(state.Stations))
	for id := range state.Stations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
