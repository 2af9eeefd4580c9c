package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metersPerDegreeLat is exact on the spherical model: a pure latitude change of
// d degrees spans R*d*pi/180 meters.
const metersPerDegreeLat = EarthRadiusMeters * math.Pi / 180

func north(p Point, meters float64) Point {
	return Point{Latitude: p.Latitude + meters/metersPerDegreeLat, Longitude: p.Longitude}
}

var eiffelTower = Point{Latitude: 48.8584, Longitude: 2.2945}

func TestDistanceMeters(t *testing.T) {
	t.Run("same point is zero", func(t *testing.T) {
		for _, p := range []Point{eiffelTower, {0, 0}, {-89.9, 179.9}, {90, -180}} {
			d, err := DistanceMeters(p, p)
			require.NoError(t, err)
			assert.Zero(t, d)
		}
	})

	t.Run("paris to london", func(t *testing.T) {
		paris := Point{Latitude: 48.8566, Longitude: 2.3522}
		london := Point{Latitude: 51.5074, Longitude: -0.1278}
		d, err := DistanceMeters(paris, london)
		require.NoError(t, err)
		assert.InDelta(t, 343_500, d, 1_000)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := Point{Latitude: 40.6892, Longitude: -74.0445}
		b := Point{Latitude: 40.7484, Longitude: -73.9857}
		ab, err := DistanceMeters(a, b)
		require.NoError(t, err)
		ba, err := DistanceMeters(b, a)
		require.NoError(t, err)
		assert.InDelta(t, ab, ba, 1e-9)
	})

	t.Run("antipodes are half the circumference", func(t *testing.T) {
		d, err := DistanceMeters(Point{0, 0}, Point{0, 180})
		require.NoError(t, err)
		assert.InDelta(t, math.Pi*EarthRadiusMeters, d, 1e-3)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		bad := []Point{
			{Latitude: 90.0001, Longitude: 0},
			{Latitude: -91, Longitude: 0},
			{Latitude: 0, Longitude: 180.5},
			{Latitude: 0, Longitude: -181},
			{Latitude: math.NaN(), Longitude: 0},
			{Latitude: 0, Longitude: math.Inf(1)},
		}
		for _, p := range bad {
			_, err := DistanceMeters(eiffelTower, p)
			assert.ErrorIs(t, err, ErrInvalidCoordinate, "%+v", p)
		}
	})
}

func TestWithinRadius(t *testing.T) {
	const radius = 200.0

	t.Run("199m is inside", func(t *testing.T) {
		ok, d, err := WithinRadius(eiffelTower, radius, north(eiffelTower, 199))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.InDelta(t, 199, d, 0.01)
	})

	t.Run("201m is outside", func(t *testing.T) {
		ok, d, err := WithinRadius(eiffelTower, radius, north(eiffelTower, 201))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.InDelta(t, 201, d, 0.01)
	})

	t.Run("center is inside", func(t *testing.T) {
		ok, d, err := WithinRadius(eiffelTower, radius, eiffelTower)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Zero(t, d)
	})

	t.Run("nearby attendee at the tower", func(t *testing.T) {
		ok, d, err := WithinRadius(eiffelTower, radius, Point{Latitude: 48.8580, Longitude: 2.2946})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Less(t, d, 60.0)
	})

	t.Run("attendee across the river", func(t *testing.T) {
		ok, d, err := WithinRadius(eiffelTower, radius, Point{Latitude: 48.8628, Longitude: 2.2872})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Greater(t, d, radius)
	})

	t.Run("rejects non-positive radius", func(t *testing.T) {
		_, _, err := WithinRadius(eiffelTower, 0, eiffelTower)
		assert.ErrorIs(t, err, ErrInvalidCoordinate)
		_, _, err = WithinRadius(eiffelTower, math.NaN(), eiffelTower)
		assert.ErrorIs(t, err, ErrInvalidCoordinate)
	})
}
