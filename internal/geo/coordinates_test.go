package geo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

func TestNew(t *testing.T) {
	c, err := New(31.5, 35.0)
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Latitude: 31.5, Longitude: 35.0}, c)

	for _, tc := range []struct {
		name     string
		lat, lon float64
	}{
		{"latitude too large", 90.5, 0},
		{"latitude too small", -91, 0},
		{"longitude too large", 0, 180.1},
		{"longitude too small", 0, -200},
		{"nan latitude", math.NaN(), 0},
		{"inf longitude", 0, math.Inf(1)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.lat, tc.lon)
			assert.ErrorIs(t, err, ErrInvalidCoordinates)
		})
	}
}

func TestCoordinates_Edges(t *testing.T) {
	assert.NoError(t, Coordinates{Latitude: 90, Longitude: 180}.Validate())
	assert.NoError(t, Coordinates{Latitude: -90, Longitude: -180}.Validate())
}

func TestCoordinates_EWKB(t *testing.T) {
	c := Coordinates{Latitude: 31.5, Longitude: 35.0}
	b, err := c.EWKB()
	require.NoError(t, err)

	g, err := ewkb.Unmarshal(b)
	require.NoError(t, err)

	p, ok := g.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, SRID, p.SRID())
	assert.Equal(t, 35.0, p.X())
	assert.Equal(t, 31.5, p.Y())
}

func TestCoordinates_GeoJSON(t *testing.T) {
	b, err := Coordinates{Latitude: 31.5, Longitude: 35.0}.GeoJSON()
	require.NoError(t, err)

	var decoded struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "Point", decoded.Type)
	assert.Equal(t, []float64{35.0, 31.5}, decoded.Coordinates)
}

func TestCoordinates_String(t *testing.T) {
	assert.Equal(t, "31.500000,35.000000", Coordinates{Latitude: 31.5, Longitude: 35}.String())
}
