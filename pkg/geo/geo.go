// Package geo validates coordinates and measures great-circle distances for geofence checks.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean radius of the spherical Earth model.
const EarthRadiusMeters = 6_371_000.0

// ErrInvalidCoordinate is returned for non-finite or out-of-range coordinates.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Validate checks that the point is finite and within ±90 latitude, ±180 longitude.
func (p Point) Validate() error {
	if !finite(p.Latitude) || !finite(p.Longitude) {
		return fmt.Errorf("%w: coordinates must be finite", ErrInvalidCoordinate)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, p.Longitude)
	}
	return nil
}

// DistanceMeters returns the haversine distance between a and b.
func DistanceMeters(a, b Point) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}

	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := lat2 - lat1
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// clamp rounding drift before asin
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h)), nil
}

// WithinRadius reports whether p lies within radiusMeters of center (inclusive)
// and returns the measured distance so callers can surface it.
func WithinRadius(center Point, radiusMeters float64, p Point) (bool, float64, error) {
	if !finite(radiusMeters) || radiusMeters <= 0 {
		return false, 0, fmt.Errorf("%w: radius must be positive", ErrInvalidCoordinate)
	}
	d, err := DistanceMeters(center, p)
	if err != nil {
		return false, 0, err
	}
	return d <= radiusMeters, d, nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
