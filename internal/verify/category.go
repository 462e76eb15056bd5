package verify

import "strings"

// CategoryTable maps product-name keywords to a price category. The
// category average is the fallback baseline when no market-specific
// average exists.
type CategoryTable []Category

// Category is one named keyword group.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// FallbackCategory is returned for products matching no keyword group.
const FallbackCategory = "diğer"

// DefaultCategories returns the built-in keyword table. Order matters:
// the first matching group wins.
func DefaultCategories() CategoryTable {
	return CategoryTable{
		{Name: "bakliyat", Keywords: []string{"mercimek", "nohut", "fasulye", "bulgur", "pirinç"}},
		{Name: "süt-ürünleri", Keywords: []string{"süt", "yoğurt", "peynir", "ayran", "tereyağı"}},
		{Name: "et-tavuk", Keywords: []string{"et", "kıyma", "tavuk", "hindi", "balık"}},
		{Name: "sebze", Keywords: []string{"domates", "patates", "soğan", "biber", "salatalık"}},
		{Name: "meyve", Keywords: []string{"elma", "portakal", "muz", "çilek", "karpuz"}},
		{Name: "temel-gıda", Keywords: []string{"un", "şeker", "tuz", "yağ", "makarna"}},
	}
}

// Infer returns the category for a normalized product name.
func (t CategoryTable) Infer(normalizedName string) string {
	for _, c := range t {
		for _, kw := range c.Keywords {
			if strings.Contains(normalizedName, kw) {
				return c.Name
			}
		}
	}
	return FallbackCategory
}
