package verify

import (
	"math"
	"time"

	"github.com/fiyatradar/crowdtrust/internal/model"
)

// RuleResult is the judgment of a single rule on one submission.
type RuleResult struct {
	Passed     bool    `json:"passed"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// Rule evaluates one aspect of a submission against the read context.
// Implementations are pure; a missing baseline or peer sample yields a
// neutral moderate-confidence pass, never a block, so new products and
// markets stay verifiable as evidence accumulates.
type Rule interface {
	Name() string
	Evaluate(sub *model.PriceSubmission, vc *model.VerificationContext) RuleResult
}

// priceRangeRule compares the price against the market average for the
// product, falling back to the category average.
type priceRangeRule struct {
	maxDeviation float64
	categories   CategoryTable
}

func (r priceRangeRule) Name() string { return "price_range_check" }

func (r priceRangeRule) Evaluate(sub *model.PriceSubmission, vc *model.VerificationContext) RuleResult {
	baseline, ok := vc.MarketAverages[sub.MarketName]
	if !ok || baseline <= 0 {
		baseline, ok = vc.CategoryAverages[r.categories.Infer(sub.NormalizedProductName)]
	}
	if !ok || baseline <= 0 {
		return RuleResult{Passed: true, Confidence: 0.5, Reason: "Karşılaştırma verisi yok"}
	}

	deviation := math.Abs(sub.Price-baseline) / baseline
	confidence := math.Max(0, 1-deviation)

	if deviation > r.maxDeviation {
		return RuleResult{
			Passed:     false,
			Confidence: confidence,
			Reason:     "Fiyat ortalamadan %" + itoaRound(deviation*100) + " sapıyor",
		}
	}
	return RuleResult{Passed: true, Confidence: confidence}
}

// locationRule compares the price against same-city, same-market peers
// inside the verification window.
type locationRule struct {
	maxDeviation float64
	window       time.Duration
}

func (r locationRule) Name() string { return "location_consistency" }

func (r locationRule) Evaluate(sub *model.PriceSubmission, vc *model.VerificationContext) RuleResult {
	var sum float64
	var n int
	for i := range vc.SimilarPrices {
		p := &vc.SimilarPrices[i]
		if p.Location.City != sub.Location.City || p.MarketName != sub.MarketName {
			continue
		}
		if absDuration(p.SubmittedAt.Sub(sub.SubmittedAt)) >= r.window {
			continue
		}
		sum += p.Price
		n++
	}

	if n == 0 {
		return RuleResult{Passed: true, Confidence: 0.6}
	}

	avg := sum / float64(n)
	deviation := math.Abs(sub.Price-avg) / avg
	res := RuleResult{
		Passed:     deviation < r.maxDeviation,
		Confidence: math.Max(0, 1-deviation),
	}
	if !res.Passed {
		res.Reason = "Aynı şehirdeki fiyatlardan çok farklı"
	}
	return res
}

// receiptRule treats receipt presence as a soft positive signal.
// TODO: score receipt contents once the OCR pipeline can parse market
// receipts; presence alone is a deliberate stopgap.
type receiptRule struct{}

func (receiptRule) Name() string { return "receipt_verification" }

func (receiptRule) Evaluate(sub *model.PriceSubmission, _ *model.VerificationContext) RuleResult {
	if !sub.HasReceipt() {
		return RuleResult{Passed: true, Confidence: 0.5, Reason: "Fiş fotoğrafı yok"}
	}
	return RuleResult{Passed: true, Confidence: 0.9}
}

// reputationRule gates on the submitter's trust score snapshot and
// their historical rejection rate.
type reputationRule struct {
	minScore         float64
	maxRejectionRate float64
}

func (r reputationRule) Name() string { return "user_reputation" }

func (r reputationRule) Evaluate(sub *model.PriceSubmission, vc *model.VerificationContext) RuleResult {
	if sub.TrustScore < r.minScore {
		return RuleResult{
			Passed:     false,
			Confidence: sub.TrustScore,
			Reason:     "Kullanıcı güven skoru çok düşük",
		}
	}

	if n := len(vc.UserHistory); n > 0 {
		rejected := 0
		for i := range vc.UserHistory {
			if vc.UserHistory[i].VerificationStatus == model.StatusRejected {
				rejected++
			}
		}
		if rate := float64(rejected) / float64(n); rate > r.maxRejectionRate {
			return RuleResult{
				Passed:     false,
				Confidence: 1 - rate,
				Reason:     "Kullanıcının geçmiş kayıtları güvenilir değil",
			}
		}
	}

	return RuleResult{Passed: true, Confidence: sub.TrustScore}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
