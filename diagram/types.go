// Package diagram contains the transit map model: stations, lines and the
// global stacking order that the renderers consume.
package diagram

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"transitmap/geometry"
)

// StationID identifies a station within a map.
type StationID string

// LineID identifies a line within a map.
type LineID string

// Orientation is the direction a station faces. Lines leave and enter the
// station along this axis.
type Orientation int

const (
	Up Orientation = iota
	Right
	Down
	Left
)

// String returns the string representation of an Orientation.
func (o Orientation) String() string {
	switch o {
	case Up:
		return "UP"
	case Right:
		return "RIGHT"
	case Down:
		return "DOWN"
	case Left:
		return "LEFT"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the opposite orientation.
func (o Orientation) Opposite() Orientation {
	switch o {
	case Up:
		return Down
	case Right:
		return Left
	case Down:
		return Up
	case Left:
		return Right
	default:
		return o
	}
}

// IsVertical reports whether the orientation is UP or DOWN.
func (o Orientation) IsVertical() bool {
	return o == Up || o == Down
}

// Offset returns a vector of length d pointing in the facing direction.
func (o Orientation) Offset(d float64) geometry.Point {
	switch o {
	case Right:
		return geometry.Point{X: d}
	case Left:
		return geometry.Point{X: -d}
	case Down:
		return geometry.Point{Y: d}
	case Up:
		return geometry.Point{Y: -d}
	default:
		return geometry.Point{}
	}
}

// ParseOrientation converts a string such as "UP" or "left" to an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UP":
		return Up, nil
	case "RIGHT":
		return Right, nil
	case "DOWN":
		return Down, nil
	case "LEFT":
		return Left, nil
	default:
		return 0, fmt.Errorf("unknown orientation: %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Orientation) MarshalText() ([]byte, error) {
	if o < Up || o > Left {
		return nil, fmt.Errorf("invalid orientation %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Orientation) UnmarshalText(text []byte) error {
	parsed, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Color is an RGB colour with channels in the range 0..1.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

var (
	White = Color{R: 1, G: 1, B: 1}
	Black = Color{}
)

// Hex returns the colour formatted as #rrggbb.
func (c Color) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

// ParseColor parses "#rrggbb", "rrggbb" or "#rgb".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return Color{R: c.R, G: c.G, B: c.B}, nil
}

// LineStop records that a line participates in a station.
type LineStop struct {
	StopsAt bool
}

// Station is a stop or a hidden shaping point on the map.
type Station struct {
	ID          StationID
	Name        string
	Position    geometry.Point
	Hidden      bool
	Orientation Orientation
	Lines       map[LineID]LineStop
	// HostNodeID caches the scene node holding the rendered glyph.
	HostNodeID string
}

// Line is an ordered route through stations. Path may repeat stations.
type Line struct {
	ID    LineID
	Name  string
	Color Color
	Path  []StationID
	// HostGroupID caches the scene group holding the rendered segments.
	HostGroupID string
}

// MapState is the complete map.
type MapState struct {
	Stations          map[StationID]*Station
	Lines             map[LineID]*Line
	LineStackingOrder []LineID
}

// NewMapState returns an empty map.
func NewMapState() MapState {
	return MapState{
		Stations: make(map[StationID]*Station),
		Lines:    make(map[LineID]*Line),
	}
}

// StackingIndex returns the position of a line in the global stacking order,
// or -1 if it is absent.
func (s MapState) StackingIndex(id LineID) int {
	for i, l := range s.LineStackingOrder {
		if l == id {
			return i
		}
	}
	return -1
}

// Clone creates a deep copy of the map state.
func (s MapState) Clone() MapState {
	clone := MapState{
		Stations:          make(map[StationID]*Station, len(s.Stations)),
		Lines:             make(map[LineID]*Line, len(s.Lines)),
		LineStackingOrder: append([]LineID(nil), s.LineStackingOrder...),
	}
	for id, st := range s.Stations {
		c := *st
		c.Lines = make(map[LineID]LineStop, len(st.Lines))
		for lid, info := range st.Lines {
			c.Lines[lid] = info
		}
		clone.Stations[id] = &c
	}
	for id, l := range s.Lines {
		c := *l
		c.Path = append([]StationID(nil), l.Path...)
		clone.Lines[id] = &c
	}
	return clone
}
