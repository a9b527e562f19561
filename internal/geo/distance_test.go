package geo

import (
	"testing"

	"verkstad/internal/models"

	"github.com/stretchr/testify/assert"
)

var (
	stockholmCentral  = models.Coordinate{Latitude: 59.3293, Longitude: 18.0686}
	stockholmVasastan = models.Coordinate{Latitude: 59.3346, Longitude: 18.0632}
	gothenburg        = models.Coordinate{Latitude: 57.7089, Longitude: 11.9746}
)

func TestDistanceZero(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(stockholmCentral, stockholmCentral))
	assert.Equal(t, 0.0, DistanceKm(models.Coordinate{}, models.Coordinate{}))
}

func TestDistanceSymmetry(t *testing.T) {
	pairs := [][2]models.Coordinate{
		{stockholmCentral, stockholmVasastan},
		{stockholmCentral, gothenburg},
		{{Latitude: -33.8688, Longitude: 151.2093}, {Latitude: 51.5074, Longitude: -0.1278}},
		{{Latitude: 0, Longitude: 179.9}, {Latitude: 0, Longitude: -179.9}},
	}
	for _, p := range pairs {
		ab := DistanceKm(p[0], p[1])
		ba := DistanceKm(p[1], p[0])
		assert.InEpsilon(t, ab, ba, 1e-9)
	}
}

func TestDistanceKnownFixtures(t *testing.T) {
	// Central Stockholm to Vasastan, roughly 0.66 km.
	d := DistanceKm(stockholmCentral, stockholmVasastan)
	assert.Greater(t, d, 0.5)
	assert.Less(t, d, 1.5)

	// Stockholm to Gothenburg, roughly 398 km as the crow flies.
	far := DistanceKm(stockholmCentral, gothenburg)
	assert.InDelta(t, 398, far, 5)
}

func TestDistanceNonNegative(t *testing.T) {
	coords := []models.Coordinate{
		{Latitude: 90, Longitude: 0},
		{Latitude: -90, Longitude: 0},
		{Latitude: 0, Longitude: 180},
		{Latitude: 0, Longitude: -180},
		stockholmCentral,
	}
	for _, a := range coords {
		for _, b := range coords {
			assert.GreaterOrEqual(t, DistanceKm(a, b), 0.0)
		}
	}
}
