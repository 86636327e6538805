// Package geo holds the location value recorded alongside a range selection.
package geo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// SRID is WGS 84, the reference system GPS fixes are reported in.
const SRID = 4326

// ErrInvalidCoordinates is returned when a latitude or longitude is outside
// its valid range or is not a finite number.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Coordinates is a device fix: latitude and longitude in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// New returns validated coordinates.
func New(lat, lon float64) (Coordinates, error) {
	c := Coordinates{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}

// Validate checks the coordinates lie on the globe.
func (c Coordinates) Validate() error {
	if !finite(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinates, c.Latitude)
	}
	if !finite(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinates, c.Longitude)
	}
	return nil
}

// Point returns the coordinates as a 2D point. X is longitude, Y is latitude.
func (c Coordinates) Point() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{c.Longitude, c.Latitude}).SetSRID(SRID)
}

// EWKB encodes the point as little-endian extended WKB with its SRID.
func (c Coordinates) EWKB() ([]byte, error) {
	b, err := ewkb.Marshal(c.Point(), binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("encode ewkb: %w", err)
	}
	return b, nil
}

// GeoJSON encodes the point as a GeoJSON geometry object.
func (c Coordinates) GeoJSON() ([]byte, error) {
	b, err := geojson.Marshal(c.Point())
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return b, nil
}

// String renders "lat,lon" with six decimals (about 10cm).
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
