package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fiyatradar/crowdtrust/internal/model"
)

// WeightInfo is a parsed quantity and canonical unit.
type WeightInfo struct {
	Weight float64          `json:"weight"`
	Unit   model.WeightUnit `json:"unit"`
}

var weightRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:(mililitre|litre|gram|adet|kg|gr|lt|ml|g)\b)?`)

// unitSynonyms maps spelled-out or colloquial unit tokens to canonical units.
var unitSynonyms = map[string]model.WeightUnit{
	"kg":        model.UnitKilogram,
	"g":         model.UnitGram,
	"gr":        model.UnitGram,
	"gram":      model.UnitGram,
	"lt":        model.UnitLitre,
	"litre":     model.UnitLitre,
	"ml":        model.UnitMillilitre,
	"mililitre": model.UnitMillilitre,
	"adet":      model.UnitPiece,
}

// ExtractWeight parses a leading numeric quantity plus an optional unit
// token out of free text. Unparsable input yields {1, adet}; the
// function never fails.
func ExtractWeight(input string) WeightInfo {
	m := weightRe.FindStringSubmatch(input)
	if m == nil {
		return WeightInfo{Weight: 1, Unit: model.UnitPiece}
	}

	w, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return WeightInfo{Weight: 1, Unit: model.UnitPiece}
	}

	unit := model.UnitPiece
	if m[2] != "" {
		if canonical, ok := unitSynonyms[strings.ToLower(m[2])]; ok {
			unit = canonical
		}
	}

	return WeightInfo{Weight: w, Unit: unit}
}
