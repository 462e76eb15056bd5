package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiyatradar/crowdtrust/internal/model"
)

func coordSubmission(latitude, longitude float64) *model.PriceSubmission {
	return &model.PriceSubmission{
		Location: model.Location{Latitude: &latitude, Longitude: &longitude},
	}
}

func TestDistance_MissingCoordinates(t *testing.T) {
	withCoords := coordSubmission(41.0082, 28.9784)
	withoutCoords := &model.PriceSubmission{Location: model.Location{City: "İstanbul"}}

	assert.Nil(t, Distance(withCoords, withoutCoords))
	assert.Nil(t, Distance(withoutCoords, withCoords))
	assert.Nil(t, Distance(withoutCoords, withoutCoords))
}

func TestDistance_SamePoint(t *testing.T) {
	a := coordSubmission(41.0082, 28.9784)
	b := coordSubmission(41.0082, 28.9784)

	d := Distance(a, b)
	require.NotNil(t, d)
	assert.InDelta(t, 0, *d, 1e-9)
}

func TestDistance_IstanbulToAnkara(t *testing.T) {
	istanbul := coordSubmission(41.0082, 28.9784)
	ankara := coordSubmission(39.9334, 32.8597)

	d := Distance(istanbul, ankara)
	require.NotNil(t, d)
	// Great-circle distance is roughly 350 km.
	assert.InDelta(t, 351, *d, 5)
}

func TestDistance_Symmetric(t *testing.T) {
	a := coordSubmission(41.0082, 28.9784)
	b := coordSubmission(39.9334, 32.8597)

	ab := Distance(a, b)
	ba := Distance(b, a)
	require.NotNil(t, ab)
	require.NotNil(t, ba)
	assert.InDelta(t, *ab, *ba, 1e-9)
}
