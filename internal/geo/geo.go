// Package geo turns a human-readable location into coordinates.
package geo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Position is a point on the earth.
type Position struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
	// Address is the geocoder's formatted address, empty for literal coordinates.
	Address string
}

func (p Position) String() string {
	return fmt.Sprintf("%.7f,%.7f,%.1f", p.Latitude, p.Longitude, p.Altitude)
}

// Geocoder resolves free text to a position.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Position, error)
}

// ErrNotFound is returned when a location has no match.
var ErrNotFound = errors.New("location could not be found by name")

var coordinatePattern = regexp.MustCompile(`-?\d{1,3}\.\d{6,7}`)

// ParseCoordinates extracts "lat,lng" from location when it holds exactly two
// coordinate literals with 6 or 7 decimals.
func ParseCoordinates(location string) (Position, bool) {
	if !strings.Contains(location, ",") {
		return Position{}, false
	}
	matches := coordinatePattern.FindAllString(location, -1)
	if len(matches) != 2 {
		return Position{}, false
	}
	lat, err := strconv.ParseFloat(matches[0], 64)
	if err != nil {
		return Position{}, false
	}
	lng, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return Position{}, false
	}
	return Position{Latitude: lat, Longitude: lng}, true
}

// Resolve returns literal coordinates as-is and asks g for anything else.
// g may be nil when only literal coordinates are expected.
func Resolve(ctx context.Context, g Geocoder, location string, logger *zap.Logger) (Position, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pos, ok := ParseCoordinates(location); ok {
		logger.Info("Coordinates found in passed in location, not geocoding",
			zap.Float64("lat", pos.Latitude), zap.Float64("lng", pos.Longitude))
		return pos, nil
	}
	if g == nil {
		return Position{}, fmt.Errorf("%q is not a coordinate pair and no geocoder is configured", location)
	}

	pos, err := g.Geocode(ctx, location)
	if err != nil {
		return Position{}, err
	}
	logger.Info("Resolved location",
		zap.String("address", pos.Address),
		zap.Float64("lat", pos.Latitude),
		zap.Float64("lng", pos.Longitude),
		zap.Float64("alt", pos.Altitude))
	return pos, nil
}
