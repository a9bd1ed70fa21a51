package importer

import (
	"encoding/json"
	"errors"
	"fmt"

	"transitmap/diagram"
	"transitmap/geometry"
)

// JSONImporter reads a hand-editable map with full key names:
//
//	{
//	  "rightHandTraffic": true,
//	  "stations": [{"id": "a", "name": "Central", "x": 0, "y": 0, "orientation": "RIGHT"}],
//	  "lines": [{"id": "r", "name": "Red", "color": "#ff0000",
//	             "stops": [{"station": "a", "stopsAt": true}]}],
//	  "stackingOrder": ["r"]
//	}
//
// A missing stackingOrder stacks lines in declaration order.
type JSONImporter struct{}

type jsonStation struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Hidden      bool    `json:"hidden"`
	Orientation string  `json:"orientation"`
}

type jsonStop struct {
	Station string `json:"station"`
	StopsAt *bool  `json:"stopsAt"`
}

type jsonLine struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Color string     `json:"color"`
	Stops []jsonStop `json:"stops"`
}

type jsonMap struct {
	RightHandTraffic *bool         `json:"rightHandTraffic"`
	Stations         []jsonStation `json:"stations"`
	Lines            []jsonLine    `json:"lines"`
	StackingOrder    []string      `json:"stackingOrder"`
}

func (j *JSONImporter) CanImport(data []byte) bool {
	_, ok := topLevelKeys(data)["stations"]
	return ok
}

func (j *JSONImporter) FormatName() string       { return "json" }
func (j *JSONImporter) FileExtensions() []string { return []string{".json"} }

func (j *JSONImporter) Import(data []byte) (*diagram.Model, error) {
	var in jsonMap
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse map JSON: %w", err)
	}

	state := diagram.NewMapState()
	var errs []error
	for i, s := range in.Stations {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("station %d: missing id", i))
			continue
		}
		if _, dup := state.Stations[diagram.StationID(s.ID)]; dup {
			errs = append(errs, fmt.Errorf("station %s: duplicate id", s.ID))
			continue
		}
		o := diagram.Right
		if s.Orientation != "" {
			parsed, err := diagram.ParseOrientation(s.Orientation)
			if err != nil {
				errs = append(errs, fmt.Errorf("station %s: %w", s.ID, err))
				continue
			}
			o = parsed
		}
		state.Stations[diagram.StationID(s.ID)] = &diagram.Station{
			ID:          diagram.StationID(s.ID),
			Name:        s.Name,
			Position:    geometry.Point{X: s.X, Y: s.Y},
			Hidden:      s.Hidden,
			Orientation: o,
			Lines:       make(map[diagram.LineID]diagram.LineStop),
		}
	}

	for i, l := range in.Lines {
		if l.ID == "" {
			errs = append(errs, fmt.Errorf("line %d: missing id", i))
			continue
		}
		id := diagram.LineID(l.ID)
		if _, dup := state.Lines[id]; dup {
			errs = append(errs, fmt.Errorf("line %s: duplicate id", l.ID))
			continue
		}
		color := diagram.Black
		if l.Color != "" {
			c, err := diagram.ParseColor(l.Color)
			if err != nil {
				errs = append(errs, fmt.Errorf("line %s: %w", l.ID, err))
				continue
			}
			color = c
		}
		line := &diagram.Line{ID: id, Name: l.Name, Color: color}
		for _, stop := range l.Stops {
			st, ok := state.Stations[diagram.StationID(stop.Station)]
			if !ok {
				errs = append(errs, fmt.Errorf("line %s: %w: %s", l.ID, diagram.ErrUnknownStation, stop.Station))
				continue
			}
			stopsAt := stop.StopsAt == nil || *stop.StopsAt
			line.Path = append(line.Path, st.ID)
			st.Lines[id] = diagram.LineStop{StopsAt: stopsAt}
		}
		state.Lines[id] = line
		if in.StackingOrder == nil {
			state.LineStackingOrder = append(state.LineStackingOrder, id)
		}
	}
	for _, id := range in.StackingOrder {
		if _, ok := state.Lines[diagram.LineID(id)]; !ok {
			errs = append(errs, fmt.Errorf("stacking order: %w: %s", diagram.ErrUnknownLine, id))
			continue
		}
		state.LineStackingOrder = append(state.LineStackingOrder, diagram.LineID(id))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid map JSON: %w", err)
	}

	rightHand := in.RightHandTraffic == nil || *in.RightHandTraffic
	return diagram.NewModel(state, rightHand), nil
}
