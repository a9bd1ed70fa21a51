package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap/diagram"
)

func lineByName(t *testing.T, m *diagram.Model, name string) diagram.LineID {
	t.Helper()
	for id, l := range m.State().Lines {
		if l.Name == name {
			return id
		}
	}
	t.Fatalf("no line named %q", name)
	return ""
}

func TestModel(t *testing.T) {
	m := Model(false)
	state := m.State()

	assert.False(t, m.IsRightHandTraffic())
	assert.Len(t, state.Stations, 7)
	require.Len(t, state.LineStackingOrder, 3)

	tests := []struct {
		line    string
		names   []string
		stopsAt []bool
	}{
		{"Red Line", []string{CentralStation, ParkAve, HiddenPoint, Mall}, []bool{true, true, false, true}},
		{"Blue Line", []string{CentralStation, Mall, ParkAve}, []bool{true, true, false}},
		{"Green Line", []string{NorthStation, SouthStation, WestStation, Mall}, []bool{true, true, true, true}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			entries, err := m.LinePath(lineByName(t, m, tt.line))
			require.NoError(t, err)
			var names []string
			var stops []bool
			for _, e := range entries {
				names = append(names, e.Name)
				stops = append(stops, e.StopsAt)
			}
			assert.Equal(t, tt.names, names)
			assert.Equal(t, tt.stopsAt, stops)
		})
	}
}

func TestModelOrientationsAndHidden(t *testing.T) {
	want := map[string]diagram.Orientation{
		CentralStation: diagram.Right,
		NorthStation:   diagram.Up,
		SouthStation:   diagram.Down,
		WestStation:    diagram.Left,
	}
	for _, st := range Model(true).State().Stations {
		if o, ok := want[st.Name]; ok && st.Orientation != o {
			t.Errorf("%s orientation = %v, want %v", st.Name, st.Orientation, o)
		}
		if got := st.Name == HiddenPoint; got != st.Hidden {
			t.Errorf("%s hidden = %v, want %v", st.Name, st.Hidden, got)
		}
	}
}
