// Package validation checks a map model for broken references and invariant
// violations before it is rendered or stored.
package validation

import (
	"errors"
	"fmt"
	"sort"

	"transitmap/diagram"
)

// ErrInvalidMap wraps the issues of a map that failed validation.
var ErrInvalidMap = errors.New("invalid map")

// Severity of an issue.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Issue is one problem found in the map, located by entity.
type Issue struct {
	Severity Severity
	Station  diagram.StationID
	Line     diagram.LineID
	Message  string
}

func (i Issue) String() string {
	where := ""
	switch {
	case i.Line != "" && i.Station != "":
		where = fmt.Sprintf("line %s, station %s: ", i.Line, i.Station)
	case i.Line != "":
		where = fmt.Sprintf("line %s: ", i.Line)
	case i.Station != "":
		where = fmt.Sprintf("station %s: ", i.Station)
	}
	return fmt.Sprintf("%s: %s%s", i.Severity, where, i.Message)
}

// Validator checks maps. The zero value is ready to use.
type Validator struct {
	issues []Issue
	// strictMode promotes cosmetic problems to errors.
	strictMode bool
}

// NewValidator creates a new validator with default settings.
func NewValidator() *Validator {
	return &Validator{}
}

// SetStrictMode enables or disables strict validation.
func (v *Validator) SetStrictMode(strict bool) {
	v.strictMode = strict
}

// Validate checks the map and returns every issue, errors first, in a
// stable order.
func (v *Validator) Validate(state diagram.MapState) []Issue {
	v.issues = nil

	for _, id := range sortedLines(state) {
		v.checkLine(state, state.Lines[id])
	}
	for _, id := range sortedStations(state) {
		v.checkStation(state, state.Stations[id])
	}
	v.checkStacking(state)

	sort.SliceStable(v.issues, func(i, j int) bool {
		return v.issues[i].Severity > v.issues[j].Severity
	})
	return v.issues
}

func (v *Validator) checkLine(state diagram.MapState, line *diagram.Line) {
	if line.Name == "" {
		v.add(v.cosmetic(), "", line.ID, "line has no name")
	}
	if !validChannel(line.Color.R) || !validChannel(line.Color.G) || !validChannel(line.Color.B) {
		v.add(Error, "", line.ID, fmt.Sprintf("colour %+v has a channel outside 0..1", line.Color))
	}
	if len(line.Path) < 2 {
		v.add(Warning, "", line.ID, fmt.Sprintf("path has %d stations, nothing will be drawn", len(line.Path)))
	}
	for i, id := range line.Path {
		st, ok := state.Stations[id]
		if !ok {
			v.add(Error, id, line.ID, fmt.Sprintf("path entry %d references an unknown station", i))
			continue
		}
		if _, member := st.Lines[line.ID]; !member {
			v.add(Error, id, line.ID, "station is on the path but does not list the line")
		}
		if i > 0 && line.Path[i-1] == id {
			v.add(v.cosmetic(), id, line.ID, fmt.Sprintf("segment %d starts and ends at the same station", i-1))
		}
	}
}

func (v *Validator) checkStation(state diagram.MapState, st *diagram.Station) {
	if st.Name == "" && !st.Hidden {
		v.add(v.cosmetic(), st.ID, "", "visible station has no name")
	}
	if st.Orientation < diagram.Up || st.Orientation > diagram.Left {
		v.add(Error, st.ID, "", fmt.Sprintf("invalid orientation %d", int(st.Orientation)))
	}
	lines := make([]diagram.LineID, 0, len(st.Lines))
	for id := range st.Lines {
		lines = append(lines, id)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i] < lines[j] })
	for _, id := range lines {
		line, ok := state.Lines[id]
		if !ok {
			v.add(Error, st.ID, id, "station lists an unknown line")
			continue
		}
		if !contains(line.Path, st.ID) {
			v.add(Error, st.ID, id, "station lists the line but is not on its path")
		}
	}
	if len(st.Lines) == 0 {
		v.add(Warning, st.ID, "", "station is not on any line")
	}
}

func (v *Validator) checkStacking(state diagram.MapState) {
	seen := make(map[diagram.LineID]bool)
	for _, id := range state.LineStackingOrder {
		if _, ok := state.Lines[id]; !ok {
			v.add(Error, "", id, "stacking order references an unknown line")
			continue
		}
		if seen[id] {
			v.add(Error, "", id, "line appears twice in the stacking order")
		}
		seen[id] = true
	}
	for _, id := range sortedLines(state) {
		if !seen[id] {
			v.add(Error, "", id, "line is missing from the stacking order")
		}
	}
}

func (v *Validator) cosmetic() Severity {
	if v.strictMode {
		return Error
	}
	return Warning
}

func (v *Validator) add(s Severity, station diagram.StationID, line diagram.LineID, msg string) {
	v.issues = append(v.issues, Issue{Severity: s, Station: station, Line: line, Message: msg})
}

// Err returns nil when issues holds no errors, and otherwise the errors
// joined under ErrInvalidMap.
func Err(issues []Issue) error {
	var errs []error
	for _, i := range issues {
		if i.Severity == Error {
			errs = append(errs, errors.New(i.String()))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidMap, errors.Join(errs...))
}

// Check validates state with default settings and returns Err of the result.
func Check(state diagram.MapState) error {
	return Err(NewValidator().Validate(state))
}

func validChannel(c float64) bool {
	return c >= 0 && c <= 1
}

func contains(path []diagram.StationID, id diagram.StationID) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}

func sortedLines(state diagram.MapState) []diagram.LineID {
	ids := make([]diagram.LineID, 0, len(state.Lines))
	for id := range state.Lines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedStations(state diagram.MapState) []diagram.StationID {
	ids := make([]diagram.StationID, 0, len(state.Stations))
	for id := range state.Stations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
