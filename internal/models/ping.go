package models

import "time"

// LocationPing is a single device-reported location sample. Immutable once
// created; owned by the spatial window of its event until it ages out.
type LocationPing struct {
	EventID    string    `json:"eventId"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Source     string    `json:"source"`
	CapturedAt time.Time `json:"capturedAt"`
}

// GridCell is one bucket of the density grid: the south-west corner of the
// cell plus the number of samples that fell into it. Derived per query,
// never persisted.
type GridCell struct {
	CellLat float64 `json:"cellLat"`
	CellLng float64 `json:"cellLng"`
	Count   int     `json:"count"`
}

// MapPoint is the wire form of a ping position for map updates
type MapPoint struct {
	Lat float64   `json:"lat"`
	Lng float64   `json:"lng"`
	TS  time.Time `json:"ts"`
}

// MapUpdate is the payload broadcast on map:update and returned by the
// map query surface
type MapUpdate struct {
	Points    []MapPoint `json:"points"`
	Density   []GridCell `json:"density"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Source    string     `json:"source"`
}
