// Package geo provides distance and bounding box helpers for proximity searches.
package geo

import (
	"math"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Bounding box conversion factors. These are constant approximations: longitude
// is not corrected for latitude, so the box is only a coarse prefilter.
const (
	// PaddingKm is added to every requested radius.
	PaddingKm = 2.0

	// KmPerDegreeLat is the distance covered by one degree of latitude.
	KmPerDegreeLat = 111.0

	// KmPerDegreeLon is the distance covered by one degree of longitude.
	KmPerDegreeLon = 73.0
)

// Point represents a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// BoundingBox is an axis-aligned latitude/longitude rectangle.
type BoundingBox struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// Haversine returns the great-circle distance in kilometers between two points
// given in decimal degrees.
func Haversine(lon1, lat1, lon2, lat2 float64) float64 {
	lon1, lat1, lon2, lat2 = toRad(lon1), toRad(lat1), toRad(lon2), toRad(lat2)

	dLon := lon2 - lon1
	dLat := lat2 - lat1

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	c := 2 * math.Asin(math.Sqrt(math.Min(1, a)))

	return EarthRadiusKm * c
}

// Distance returns the Haversine distance in kilometers between two points.
func Distance(a, b Point) float64 {
	return Haversine(a.Lon, a.Lat, b.Lon, b.Lat)
}

// MinMaxCoords returns a rough bounding box around (lat, lon) that covers
// radiusKm plus PaddingKm. A negative radius is treated as zero.
//
// Points inside the box still need an exact distance check.
func MinMaxCoords(lat, lon, radiusKm float64) BoundingBox {
	if radiusKm < 0 {
		radiusKm = 0
	}
	radiusKm += PaddingKm

	latDelta := radiusKm / KmPerDegreeLat
	lonDelta := radiusKm / KmPerDegreeLon

	return BoundingBox{
		LatMin: lat - latDelta,
		LatMax: lat + latDelta,
		LonMin: lon - lonDelta,
		LonMax: lon + lonDelta,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
