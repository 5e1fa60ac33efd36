package geo

import (
	"errors"
	"strconv"
	"strings"
)

// PointPadding is the half-width in degrees of the box derived from a
// single lat/lng point.
const PointPadding = 0.1

var (
	ErrMissingBounds = errors.New("latitude and longitude or bounds are required")
	ErrInvalidBounds = errors.New("invalid bounds format")
	ErrInvalidCoords = errors.New("invalid latitude or longitude format")
)

// Bounds is a rectangular region used to scope aggregation queries.
// The wire form is Leaflet's toBBoxString order: minLon,minLat,maxLon,maxLat.
type Bounds struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// ParseBounds parses a comma-separated bbox string. Exactly four numeric
// tokens are required; no range validation is applied.
func ParseBounds(raw string) (Bounds, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return Bounds{}, ErrInvalidBounds
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, ErrInvalidBounds
		}
		vals[i] = f
	}

	return Bounds{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}, nil
}

// FromPoint derives a box padded PointPadding degrees around a point.
func FromPoint(lat, lon float64) Bounds {
	return Bounds{
		MinLon: lon - PointPadding,
		MinLat: lat - PointPadding,
		MaxLon: lon + PointPadding,
		MaxLat: lat + PointPadding,
	}
}

// FromQuery resolves the two accepted input forms: an explicit bounds string
// wins, a lat/lng point falls back to a padded box. Missing input and
// unparseable input are distinct errors.
func FromQuery(boundsRaw, latRaw, lonRaw string) (Bounds, error) {
	if strings.TrimSpace(boundsRaw) != "" {
		return ParseBounds(boundsRaw)
	}

	if strings.TrimSpace(latRaw) == "" || strings.TrimSpace(lonRaw) == "" {
		return Bounds{}, ErrMissingBounds
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return Bounds{}, ErrInvalidCoords
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err != nil {
		return Bounds{}, ErrInvalidCoords
	}

	return FromPoint(lat, lon), nil
}
