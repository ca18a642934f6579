package geo

import (
	"math"
	"testing"

	"github.com/hubshift/marketplace/backend/internal/domain"
)

var venue = domain.Location{Latitude: -27.4596, Longitude: 153.0351}

func TestDistanceSamePointIsZero(t *testing.T) {
	if d := Distance(venue, venue); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestDistanceAcrossBrisbane(t *testing.T) {
	caller := domain.Location{Latitude: -27.4709, Longitude: 153.0235}
	d := Distance(venue, caller)
	if d < 1600 || d > 1800 {
		t.Fatalf("expected roughly 1.7km, got %f", d)
	}
	if back := Distance(caller, venue); math.Abs(back-d) > 1e-6 {
		t.Fatalf("distance not symmetric: %f vs %f", d, back)
	}
}

func TestDistanceOneDegreeOfLatitude(t *testing.T) {
	a := domain.Location{Latitude: 0, Longitude: 0}
	b := domain.Location{Latitude: 1, Longitude: 0}
	want := EarthRadiusMeters * math.Pi / 180
	if d := Distance(a, b); math.Abs(d-want) > 0.001 {
		t.Fatalf("expected %f, got %f", want, d)
	}
}

func TestWithinBoundaryIsInclusive(t *testing.T) {
	// move north by exactly the radius along a meridian
	deg := DefaultGeofenceRadius / EarthRadiusMeters * 180 / math.Pi
	edge := domain.Location{Latitude: venue.Latitude + deg, Longitude: venue.Longitude}
	d := Distance(venue, edge)

	ok, measured := Within(venue, edge, d)
	if !ok {
		t.Fatalf("expected point at exactly the radius (%f) to be admitted", measured)
	}
	if ok, _ := Within(venue, edge, math.Nextafter(d, 0)); ok {
		t.Fatalf("expected point just beyond the radius to be rejected")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		p    domain.Location
		ok   bool
	}{
		{"venue", venue, true},
		{"poles", domain.Location{Latitude: 90, Longitude: -180}, true},
		{"lat too big", domain.Location{Latitude: 91}, false},
		{"lon too small", domain.Location{Longitude: -180.5}, false},
		{"nan", domain.Location{Latitude: math.NaN()}, false},
	}
	for _, tc := range cases {
		err := Validate(tc.p)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
