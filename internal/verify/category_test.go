package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryTable_Infer(t *testing.T) {
	cats := DefaultCategories()

	tests := []struct {
		name string
		want string
	}{
		{"süt", "süt-ürünleri"},
		{"torku süt", "süt-ürünleri"},
		{"kırmızı mercimek", "bakliyat"},
		{"tavuk but", "et-tavuk"},
		{"domates salçası", "sebze"},
		{"muz ithal", "meyve"},
		{"makarna burgu", "temel-gıda"},
		{"ekmek", FallbackCategory},
		{"", FallbackCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cats.Infer(tt.name))
		})
	}
}

func TestCategoryTable_FirstMatchWins(t *testing.T) {
	cats := DefaultCategories()

	// "pirinç sütü" contains both a bakliyat and a süt-ürünleri keyword;
	// table order decides.
	assert.Equal(t, "bakliyat", cats.Infer("pirinç sütü"))
}
