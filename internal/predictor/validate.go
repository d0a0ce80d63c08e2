package predictor

import (
	"earthslight/server/internal/geometry"
	"earthslight/server/internal/models"
	"strings"
)

// ValidationError is a request the core refuses to price
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// Validate checks the bounds a request must satisfy before Predict
func Validate(in models.PropertyInput) error {
	if in.Floors < 1 || in.Floors > 50 {
		return invalid("Floors must be between 1 and 50")
	}
	if in.Area < 100 || in.Area > 10000 {
		return invalid("Area must be between 100 and 10000 sq ft")
	}
	if in.Bedrooms < 1 || in.Bedrooms > 10 {
		return invalid("Bedrooms must be between 1 and 10")
	}
	if in.Bathrooms < 1 || in.Bathrooms > 10 {
		return invalid("Bathrooms must be between 1 and 10")
	}
	if in.Age < 0 || in.Age > 100 {
		return invalid("Age must be between 0 and 100 years")
	}

	if len(strings.TrimSpace(in.Location)) < 2 && (in.Lat == nil || in.Lng == nil) {
		return invalid("Provide a location name or valid lat/lng")
	}
	if in.Lat != nil && (*in.Lat < -90 || *in.Lat > 90) {
		return invalid("Latitude must be between -90 and 90")
	}
	if in.Lng != nil && (*in.Lng < -180 || *in.Lng > 180) {
		return invalid("Longitude must be between -180 and 180")
	}

	// A "lat,lng" location string must hold a real coordinate as well.
	loc := geometry.ParseLocation(in.Location, nil, nil)
	if loc.HasCoordinates {
		if lat := loc.Point.Lat(); lat < -90 || lat > 90 {
			return invalid("Latitude must be between -90 and 90")
		}
		if lng := loc.Point.Lon(); lng < -180 || lng > 180 {
			return invalid("Longitude must be between -180 and 180")
		}
	}
	return nil
}
