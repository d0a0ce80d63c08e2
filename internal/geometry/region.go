package geometry

import (
	"earthslight/server/config"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

const (
	DefaultMultiplier = 1.5
	DefaultGrowth     = 0.03
	DefaultBucket     = "default"
)

// Location is a request location after the name/coordinate pre-parse
type Location struct {
	Name           string
	Point          orb.Point
	HasCoordinates bool
}

// ParseLocation normalises the location fields of a request. A name of the
// form "lat,lng" is read as coordinates and takes precedence over lat/lng.
func ParseLocation(name string, lat, lng *float64) Location {
	loc := Location{Name: name}

	if parsedLat, parsedLng, ok := parseCoordinates(name); ok {
		loc.Point = orb.Point{parsedLng, parsedLat}
		loc.HasCoordinates = true
		return loc
	}

	if lat != nil && lng != nil {
		loc.Point = orb.Point{*lng, *lat}
		loc.HasCoordinates = true
	}
	return loc
}

func parseCoordinates(s string) (float64, float64, bool) {
	if !strings.Contains(s, ",") {
		return 0, 0, false
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

// Lat returns the latitude, or nil without coordinates
func (l Location) Lat() *float64 {
	if !l.HasCoordinates {
		return nil
	}
	v := l.Point.Lat()
	return &v
}

// Lng returns the longitude, or nil without coordinates
func (l Location) Lng() *float64 {
	if !l.HasCoordinates {
		return nil
	}
	v := l.Point.Lon()
	return &v
}

// Label is a display name for the location
func (l Location) Label() string {
	if l.Name != "" {
		return l.Name
	}
	if l.HasCoordinates {
		return strconv.FormatFloat(l.Point.Lat(), 'f', -1, 64) + "," + strconv.FormatFloat(l.Point.Lon(), 'f', -1, 64)
	}
	return ""
}

// Region is the classification of a location
type Region struct {
	Multiplier   float64
	Growth       float64
	KnownCity    bool
	PriceBucket  string
	GrowthBucket string
}

type bucket struct {
	name     string
	value    float64
	contains func(p orb.Point) bool
}

// The price and growth tables use different boundaries for the same
// continents. A point can land in different regions for each.
var priceBuckets = []bucket{
	{"north_america", 2.0, func(p orb.Point) bool {
		return p.Lat() > 25 && p.Lat() < 50 && p.Lon() < -60 && p.Lon() > -125
	}},
	{"europe", 2.1, func(p orb.Point) bool {
		return p.Lat() > 45 && p.Lon() > -10 && p.Lon() < 40
	}},
	{"asia", 1.9, func(p orb.Point) bool {
		return p.Lat() > 10 && p.Lon() > 70 && p.Lon() < 140
	}},
	{"oceania", 1.7, func(p orb.Point) bool {
		return p.Lat() < 0 && p.Lon() > 110 && p.Lon() < 160
	}},
	{"africa", 1.4, func(p orb.Point) bool {
		return p.Lat() > -35 && p.Lat() < 35 && p.Lon() > -20 && p.Lon() < 50
	}},
	{"south_america", 1.3, func(p orb.Point) bool {
		return p.Lat() < 15 && p.Lon() < -35 && p.Lon() > -80
	}},
}

var growthBuckets = []bucket{
	{"north_america", 0.035, func(p orb.Point) bool {
		return p.Lat() > 5 && p.Lon() > -170 && p.Lon() < -50
	}},
	{"south_america", 0.03, func(p orb.Point) bool {
		return p.Lat() < 12 && p.Lon() > -85 && p.Lon() < -35
	}},
	{"europe", 0.03, func(p orb.Point) bool {
		return p.Lat() > 35 && p.Lon() > -10 && p.Lon() < 40
	}},
	{"asia", 0.04, func(p orb.Point) bool {
		return p.Lat() > 5 && p.Lon() >= 40 && p.Lon() <= 180
	}},
	{"africa", 0.032, func(p orb.Point) bool {
		return p.Lat() >= -35 && p.Lat() <= 35 && p.Lon() > -20 && p.Lon() < 50
	}},
	{"oceania", 0.033, func(p orb.Point) bool {
		return p.Lat() < 0 && p.Lon() >= 110 && p.Lon() <= 180
	}},
}

func lookup(buckets []bucket, p orb.Point, fallback float64) (string, float64) {
	for _, b := range buckets {
		if b.contains(p) {
			return b.name, b.value
		}
	}
	return DefaultBucket, fallback
}

// Classify maps a location to its price multiplier and growth rate. Known
// cities win over coordinates; coordinates win over the default.
func Classify(loc Location) Region {
	if city := config.GetCityByName(loc.Name); city != nil {
		return Region{
			Multiplier:   city.Multiplier,
			Growth:       city.Growth,
			KnownCity:    true,
			PriceBucket:  city.Name,
			GrowthBucket: city.Name,
		}
	}

	if loc.HasCoordinates {
		priceBucket, multiplier := lookup(priceBuckets, loc.Point, DefaultMultiplier)
		growthBucket, growth := lookup(growthBuckets, loc.Point, DefaultGrowth)
		return Region{
			Multiplier:   multiplier,
			Growth:       growth,
			PriceBucket:  priceBucket,
			GrowthBucket: growthBucket,
		}
	}

	return Region{
		Multiplier:   DefaultMultiplier,
		Growth:       DefaultGrowth,
		PriceBucket:  DefaultBucket,
		GrowthBucket: DefaultBucket,
	}
}

// GrowthFor returns the annual growth rate of a location
func GrowthFor(loc Location) float64 {
	return Classify(loc).Growth
}
