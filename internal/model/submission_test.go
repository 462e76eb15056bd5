package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocation_HasCoordinates(t *testing.T) {
	lat, lon := 41.0, 29.0

	assert.False(t, Location{}.HasCoordinates())
	assert.False(t, Location{Latitude: &lat}.HasCoordinates())
	assert.False(t, Location{Longitude: &lon}.HasCoordinates())
	assert.True(t, Location{Latitude: &lat, Longitude: &lon}.HasCoordinates())
}

func TestPriceSubmission_HasReceipt(t *testing.T) {
	sub := &PriceSubmission{}
	assert.False(t, sub.HasReceipt())

	sub.ReceiptImageURL = "https://cdn.example.com/fis.jpg"
	assert.True(t, sub.HasReceipt())
}

func TestPriceSubmission_GroupKey(t *testing.T) {
	a := &PriceSubmission{
		NormalizedProductName: "süt",
		MarketName:            "Migros",
		Location:              Location{City: "İstanbul"},
	}
	b := &PriceSubmission{
		NormalizedProductName: "süt",
		MarketName:            "Migros",
		Location:              Location{City: "İstanbul", District: "Kadıköy"},
	}
	c := &PriceSubmission{
		NormalizedProductName: "süt",
		MarketName:            "Migros",
		Location:              Location{City: "Ankara"},
	}

	assert.Equal(t, a.GroupKey(), b.GroupKey(), "district does not split peer groups")
	assert.NotEqual(t, a.GroupKey(), c.GroupKey())
}
