package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiyatradar/crowdtrust/internal/config"
	"github.com/fiyatradar/crowdtrust/internal/model"
)

func testIntakeConfig() config.IntakeConfig {
	return config.IntakeConfig{
		MinPrice:          1,
		MaxPrice:          10000,
		MinProductNameLen: 3,
		Markets:           []string{"Migros", "BİM", "Şok"},
	}
}

func validInput() *model.PriceSubmission {
	return &model.PriceSubmission{
		ProductName: "Ekmek",
		Price:       10,
		Weight:      1,
		WeightUnit:  model.UnitPiece,
		MarketName:  "Migros",
		Location:    model.Location{City: "İstanbul", District: "Kadıköy"},
		Barcode:     "8690000000001",
	}
}

func TestValidate_Valid(t *testing.T) {
	sub := validInput()
	sub.ReceiptImageURL = "https://cdn.example.com/fis.jpg"

	result := Validate(sub, testIntakeConfig(), DefaultBands())
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.PriceSubmission)
		wantErr string
	}{
		{
			"short product name",
			func(s *model.PriceSubmission) { s.ProductName = "Ab" },
			"Ürün adı en az 3 karakter olmalıdır",
		},
		{
			"price too low",
			func(s *model.PriceSubmission) { s.Price = 0.5 },
			"Fiyat 1 - 10000 TL arasında olmalıdır",
		},
		{
			"price too high",
			func(s *model.PriceSubmission) { s.Price = 50000 },
			"Fiyat 1 - 10000 TL arasında olmalıdır",
		},
		{
			"unknown market",
			func(s *model.PriceSubmission) { s.MarketName = "Bakkal" },
			"Geçerli bir market seçiniz",
		},
		{
			"missing city",
			func(s *model.PriceSubmission) { s.Location.City = "" },
			"Şehir bilgisi zorunludur",
		},
		{
			"non-positive weight",
			func(s *model.PriceSubmission) { s.Weight = 0 },
			"Geçerli bir miktar giriniz",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validInput()
			tt.mutate(sub)

			result := Validate(sub, testIntakeConfig(), DefaultBands())
			assert.False(t, result.IsValid)
			assert.Contains(t, result.Errors, tt.wantErr)
		})
	}
}

func TestValidate_TurkishRuneCount(t *testing.T) {
	sub := validInput()
	sub.ProductName = "Çay" // three runes, more than three bytes

	result := Validate(sub, testIntakeConfig(), DefaultBands())
	assert.True(t, result.IsValid)
}

func TestValidate_WarningsNeverBlock(t *testing.T) {
	sub := validInput()
	sub.Barcode = ""
	sub.Location.District = ""
	sub.Price = 500 // far outside the ekmek band

	result := Validate(sub, testIntakeConfig(), DefaultBands())
	assert.True(t, result.IsValid)
	assert.Contains(t, result.Warnings, "Barkod bilgisi eklerseniz doğrulama daha hızlı olur")
	assert.Contains(t, result.Warnings, "Fiş fotoğrafı eklerseniz güvenilirlik artar")
	assert.Contains(t, result.Warnings, "İlçe bilgisi eklemeniz önerilir")
	assert.Contains(t, result.Warnings, "Fiyat ürün için beklenenden farklı görünüyor")
}
