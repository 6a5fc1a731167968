package geofence

import (
	"errors"
	"math"
)

var ErrInvalidCoordinates = errors.New("invalid coordinates")

const earthRadiusMeters = 6371000.0

// Facility is one configured parking location with an allowed radius.
type Facility struct {
	Name         string
	Lat          float64
	Lon          float64
	RadiusMeters float64
}

// Result of a proximity check against the nearest facility.
type Result struct {
	WithinBounds  bool
	Distance      float64
	AllowedRadius float64
	FacilityName  string
}

// Validator is a pure distance/radius test against the configured facilities.
type Validator struct {
	facilities []Facility
}

func NewValidator(facilities []Facility) *Validator {
	return &Validator{facilities: facilities}
}

// ValidateCoordinates rejects out-of-range or non-finite input before any
// distance is computed.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// IsWithinAnyFacility returns the check against the closest facility.
// A point exactly at a facility center is within bounds for any positive
// radius.
func (v *Validator) IsWithinAnyFacility(lat, lon float64) (Result, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return Result{}, err
	}
	if len(v.facilities) == 0 {
		return Result{}, errors.New("no facilities configured")
	}

	nearest := Result{Distance: math.MaxFloat64}
	for _, f := range v.facilities {
		d := haversineMeters(lat, lon, f.Lat, f.Lon)
		r := Result{
			WithinBounds:  d <= f.RadiusMeters,
			Distance:      d,
			AllowedRadius: f.RadiusMeters,
			FacilityName:  f.Name,
		}
		if r.WithinBounds {
			return r, nil
		}
		if d < nearest.Distance {
			nearest = r
		}
	}
	return nearest, nil
}

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}
