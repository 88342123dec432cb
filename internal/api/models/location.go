package models

// Location is a filming location.
type Location struct {
	Show       string   `json:"show"`
	Title      string   `json:"title"`
	Place      string   `json:"place"`
	Point      Point    `json:"point"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

// LocationsResponse lists filming locations.
type LocationsResponse struct {
	Items []Location    `json:"items"`
	Meta  LocationsMeta `json:"meta"`
}

// LocationsMeta describes a location search.
type LocationsMeta struct {
	Limit    int      `json:"limit"`
	Count    int      `json:"count"`
	Skipped  int      `json:"skipped"`
	Center   *Point   `json:"center,omitempty"`
	RadiusKm *float64 `json:"radiusKm,omitempty"`
}
