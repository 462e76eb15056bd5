package model

// VerificationContext is the ephemeral, caller-assembled read snapshot a
// single verification runs against. The engine never persists it; stale
// context is tolerated because the next evaluation simply re-reads.
type VerificationContext struct {
	// SimilarPrices are peer submissions for the same product, market,
	// and city within the verification window.
	SimilarPrices []PriceSubmission `json:"similar_prices"`
	// UserHistory is the submitter's full submission history.
	UserHistory []PriceSubmission `json:"user_history"`
	// MarketAverages maps market name to the average verified price of
	// the product under evaluation.
	MarketAverages map[string]float64 `json:"market_averages"`
	// CategoryAverages maps product category to its average verified
	// price, used only when no market baseline exists.
	CategoryAverages map[string]float64 `json:"category_averages"`
}

// VerificationOutcome is the engine's judgment on one submission.
type VerificationOutcome struct {
	IsVerified            bool     `json:"is_verified"`
	Confidence            float64  `json:"confidence"`
	FailedRules           []string `json:"failed_rules"`
	Warnings              []string `json:"warnings"`
	RequiredVerifications int      `json:"required_verifications"`
	CurrentVerifications  int      `json:"current_verifications"`
}

// Status maps the outcome onto the submission state machine: any failed
// rule rejects, high confidence with no failures verifies, everything
// else stays pending for the batch sweep to revisit.
func (o *VerificationOutcome) Status(confidenceThreshold float64) VerificationStatus {
	if len(o.FailedRules) > 0 {
		return StatusRejected
	}
	if o.Confidence > confidenceThreshold {
		return StatusVerified
	}
	return StatusPending
}
