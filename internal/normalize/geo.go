package normalize

import (
	"math"

	"github.com/fiyatradar/crowdtrust/internal/model"
)

const earthRadiusKM = 6371

// Distance returns the great-circle distance in kilometers between the
// locations of two submissions, or nil when either side lacks
// coordinates. Missing geodata is not an error.
func Distance(a, b *model.PriceSubmission) *float64 {
	if !a.Location.HasCoordinates() || !b.Location.HasCoordinates() {
		return nil
	}

	lat1 := toRad(*a.Location.Latitude)
	lat2 := toRad(*b.Location.Latitude)
	dLat := toRad(*b.Location.Latitude - *a.Location.Latitude)
	dLon := toRad(*b.Location.Longitude - *a.Location.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	d := earthRadiusKM * c
	return &d
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
