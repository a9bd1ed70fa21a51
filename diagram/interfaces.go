package diagram

// StateSource is the read side of the model that renderers consume. The only
// writes it allows are the cached host ids, which renderers refresh after
// creating new scene nodes.
type StateSource interface {
	// State returns a snapshot of the map.
	State() MapState

	// IsRightHandTraffic reports the global traffic handedness.
	IsRightHandTraffic() bool

	// UpdateStationHostID caches the scene node of a station glyph.
	UpdateStationHostID(id StationID, hostID string)

	// UpdateLineHostID caches the scene group of a rendered line.
	UpdateLineHostID(id LineID, hostID string)
}

var _ StateSource = (*Model)(nil)
