package trust

// TrustLevel is a pure classification view over a trust score, used by
// intake clients to render a badge next to a submitter.
type TrustLevel struct {
	Level string `json:"level"`
	Label string `json:"label"`
	Color string `json:"color"`
}

const (
	LevelVeryHigh = "very_high"
	LevelHigh     = "high"
	LevelMedium   = "medium"
	LevelLow      = "low"
	LevelVeryLow  = "very_low"
)

// Level classifies a trust score into one of five ordinal bands.
func Level(score float64) TrustLevel {
	switch {
	case score >= 0.9:
		return TrustLevel{Level: LevelVeryHigh, Label: "Çok Güvenilir", Color: "#10b981"}
	case score >= 0.7:
		return TrustLevel{Level: LevelHigh, Label: "Güvenilir", Color: "#3b82f6"}
	case score >= 0.5:
		return TrustLevel{Level: LevelMedium, Label: "Orta", Color: "#f59e0b"}
	case score >= 0.3:
		return TrustLevel{Level: LevelLow, Label: "Düşük", Color: "#ef4444"}
	default:
		return TrustLevel{Level: LevelVeryLow, Label: "Çok Düşük", Color: "#991b1b"}
	}
}
