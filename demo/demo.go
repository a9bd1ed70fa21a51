// Package demo seeds a small map that exercises every orientation, a hidden
// shaping point and a pass-through stop.
package demo

import (
	"transitmap/diagram"
	"transitmap/geometry"
)

// Names of the seeded stations.
const (
	CentralStation = "Central Station"
	ParkAve        = "Park Ave"
	HiddenPoint    = "Hidden Point"
	Mall           = "Mall"
	NorthStation   = "North Station"
	SouthStation   = "South Station"
	WestStation    = "West Station"
)

// Model builds the demo map.
func Model(rightHandTraffic bool) *diagram.Model {
	m := diagram.NewModel(diagram.NewMapState(), rightHandTraffic)

	s1 := m.AddStation(CentralStation, geometry.Point{X: 200, Y: 200}, false, diagram.Right)
	s2 := m.AddStation(ParkAve, geometry.Point{X: 450, Y: 350}, false, diagram.Right)
	hidden := m.AddStation(HiddenPoint, geometry.Point{X: 700, Y: 280}, true, diagram.Right)
	s3 := m.AddStation(Mall, geometry.Point{X: 900, Y: 450}, false, diagram.Right)
	s4 := m.AddStation(NorthStation, geometry.Point{X: 200, Y: 600}, false, diagram.Up)
	s5 := m.AddStation(SouthStation, geometry.Point{X: 450, Y: 600}, false, diagram.Down)
	s6 := m.AddStation(WestStation, geometry.Point{X: 700, Y: 600}, false, diagram.Left)

	red := m.AddLine("Red Line", diagram.Color{R: 1})
	blue := m.AddLine("Blue Line", diagram.Color{B: 1})
	green := m.AddLine("Green Line", diagram.Color{G: 0.8})

	// Consecutive segments share their middle station, so each path lists
	// it once. Ids come straight from AddStation/AddLine; these cannot fail.
	path(m, red, []diagram.StationID{s1, s2, hidden, s3}, []bool{true, true, false, true})
	path(m, blue, []diagram.StationID{s1, s3}, []bool{true, true})
	path(m, green, []diagram.StationID{s4, s5, s6, s3}, []bool{true, true, true, true})

	// Blue runs on past Mall and passes through Park Ave without stopping.
	must(m.AddStationToLine(blue, s2, false))

	return m
}

func path(m *diagram.Model, line diagram.LineID, stations []diagram.StationID, stopsAt []bool) {
	for i, st := range stations {
		must(m.AddStationToLine(line, st, stopsAt[i]))
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
