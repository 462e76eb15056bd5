package normalize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fiyatradar/crowdtrust/internal/config"
	"github.com/fiyatradar/crowdtrust/internal/model"
)

// Validate enforces required fields and bounds on a raw submission.
// Errors block acceptance; warnings are data-quality hints only and
// never block. Statuses and corroboration fields are ignored here, they
// are engine-assigned later.
func Validate(sub *model.PriceSubmission, cfg config.IntakeConfig, bands PriceBands) model.ValidationResult {
	var errors, warnings []string

	name := strings.TrimSpace(sub.ProductName)
	if utf8.RuneCountInString(name) < cfg.MinProductNameLen {
		errors = append(errors, fmt.Sprintf("Ürün adı en az %d karakter olmalıdır", cfg.MinProductNameLen))
	}

	if sub.Price < cfg.MinPrice || sub.Price > cfg.MaxPrice {
		errors = append(errors, fmt.Sprintf("Fiyat %.0f - %.0f TL arasında olmalıdır", cfg.MinPrice, cfg.MaxPrice))
	}

	if !marketAllowed(sub.MarketName, cfg.Markets) {
		errors = append(errors, "Geçerli bir market seçiniz")
	}

	if sub.Location.City == "" {
		errors = append(errors, "Şehir bilgisi zorunludur")
	}

	if sub.Weight <= 0 {
		errors = append(errors, "Geçerli bir miktar giriniz")
	}

	if sub.Barcode == "" {
		warnings = append(warnings, "Barkod bilgisi eklerseniz doğrulama daha hızlı olur")
	}
	if !sub.HasReceipt() {
		warnings = append(warnings, "Fiş fotoğrafı eklerseniz güvenilirlik artar")
	}
	if sub.Location.District == "" {
		warnings = append(warnings, "İlçe bilgisi eklemeniz önerilir")
	}
	if bands.Suspicious(name, sub.Price) {
		warnings = append(warnings, "Fiyat ürün için beklenenden farklı görünüyor")
	}

	return model.ValidationResult{
		IsValid:  len(errors) == 0,
		Errors:   errors,
		Warnings: warnings,
	}
}

func marketAllowed(market string, allowed []string) bool {
	for _, m := range allowed {
		if m == market {
			return true
		}
	}
	return false
}
