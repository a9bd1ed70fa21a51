package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap/demo"
	"transitmap/diagram"
)

func twoStationMap() diagram.MapState {
	state := diagram.NewMapState()
	state.Stations["a"] = &diagram.Station{ID: "a", Name: "A", Orientation: diagram.Right,
		Lines: map[diagram.LineID]diagram.LineStop{"r": {StopsAt: true}}}
	state.Stations["b"] = &diagram.Station{ID: "b", Name: "B", Orientation: diagram.Right,
		Lines: map[diagram.LineID]diagram.LineStop{"r": {StopsAt: true}}}
	state.Lines["r"] = &diagram.Line{ID: "r", Name: "Red", Color: diagram.Color{R: 1}, Path: []diagram.StationID{"a", "b"}}
	state.LineStackingOrder = []diagram.LineID{"r"}
	return state
}

func TestDemoValidates(t *testing.T) {
	for _, rightHand := range []bool{true, false} {
		issues := NewValidator().Validate(demo.Model(rightHand).State())
		assert.Empty(t, issues)
		assert.NoError(t, Check(demo.Model(rightHand).State()))
	}
}

func TestValidatorFindsBrokenMaps(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*diagram.MapState)
		severity Severity
		msg      string
	}{
		{
			name:     "dangling path entry",
			mutate:   func(s *diagram.MapState) { s.Lines["r"].Path = append(s.Lines["r"].Path, "zz") },
			severity: Error,
			msg:      "references an unknown station",
		},
		{
			name:     "path without membership",
			mutate:   func(s *diagram.MapState) { delete(s.Stations["b"].Lines, "r") },
			severity: Error,
			msg:      "does not list the line",
		},
		{
			name: "membership without path",
			mutate: func(s *diagram.MapState) {
				s.Stations["c"] = &diagram.Station{ID: "c", Name: "C",
					Lines: map[diagram.LineID]diagram.LineStop{"r": {}}}
			},
			severity: Error,
			msg:      "is not on its path",
		},
		{
			name:     "unknown line on station",
			mutate:   func(s *diagram.MapState) { s.Stations["a"].Lines["q"] = diagram.LineStop{} },
			severity: Error,
			msg:      "lists an unknown line",
		},
		{
			name:     "missing from stacking",
			mutate:   func(s *diagram.MapState) { s.LineStackingOrder = nil },
			severity: Error,
			msg:      "missing from the stacking order",
		},
		{
			name:     "stacked twice",
			mutate:   func(s *diagram.MapState) { s.LineStackingOrder = []diagram.LineID{"r", "r"} },
			severity: Error,
			msg:      "appears twice",
		},
		{
			name:     "colour out of range",
			mutate:   func(s *diagram.MapState) { s.Lines["r"].Color.G = 2 },
			severity: Error,
			msg:      "outside 0..1",
		},
		{
			name:     "bad orientation",
			mutate:   func(s *diagram.MapState) { s.Stations["a"].Orientation = 9 },
			severity: Error,
			msg:      "invalid orientation",
		},
		{
			name:     "short path",
			mutate:   func(s *diagram.MapState) { s.Lines["r"].Path = s.Lines["r"].Path[:1]; delete(s.Stations["b"].Lines, "r") },
			severity: Warning,
			msg:      "nothing will be drawn",
		},
		{
			name:     "repeated station",
			mutate:   func(s *diagram.MapState) { s.Lines["r"].Path = []diagram.StationID{"a", "a", "b"} },
			severity: Warning,
			msg:      "same station",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := twoStationMap()
			tt.mutate(&state)
			issues := NewValidator().Validate(state)
			require.NotEmpty(t, issues)

			var found bool
			for _, i := range issues {
				if strings.Contains(i.Message, tt.msg) {
					found = true
					if i.Severity != tt.severity {
						t.Errorf("issue %q severity = %v, want %v", i.Message, i.Severity, tt.severity)
					}
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want an issue containing %q", issues, tt.msg)
			}
		})
	}
}

func TestStrictModePromotesCosmeticIssues(t *testing.T) {
	state := twoStationMap()
	state.Lines["r"].Name = ""

	assert.NoError(t, Err(NewValidator().Validate(state)))

	v := NewValidator()
	v.SetStrictMode(true)
	err := Err(v.Validate(state))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidMap))
	assert.Contains(t, err.Error(), "error: line r: line has no name")
}

func TestErrorsSortBeforeWarnings(t *testing.T) {
	state := twoStationMap()
	state.Lines["r"].Name = ""
	state.LineStackingOrder = nil

	issues := NewValidator().Validate(state)
	require.Len(t, issues, 2)
	assert.Equal(t, Error, issues[0].Severity)
	assert.Equal(t, Warning, issues[1].Severity)
}
