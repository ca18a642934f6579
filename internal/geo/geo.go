// Package geo holds the distance maths behind the clock-in geofence.
package geo

import (
	"fmt"
	"math"

	"github.com/hubshift/marketplace/backend/internal/domain"
)

// EarthRadiusMeters is the mean radius of the spherical Earth model.
const EarthRadiusMeters = 6371000.0

// DefaultGeofenceRadius is the admission radius around a venue.
const DefaultGeofenceRadius = 100.0

// Distance returns the great-circle distance in meters using the haversine formula.
func Distance(a, b domain.Location) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h a hair past 1 for antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Within reports whether p lies inside the circle; the boundary is inclusive.
func Within(center, p domain.Location, radiusMeters float64) (bool, float64) {
	d := Distance(center, p)
	return d <= radiusMeters, d
}

// Validate rejects coordinates outside the WGS84 ranges and NaNs.
func Validate(p domain.Location) error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Latitude)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Longitude)
	}
	return nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
