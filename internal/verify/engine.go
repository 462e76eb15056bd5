// Package verify evaluates a weighted rule set against individual price
// submissions and cross-validates peer groups statistically. The engine
// is stateless: every call operates on an explicit context snapshot, so
// evaluations are safely parallelizable across submissions.
package verify

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fiyatradar/crowdtrust/internal/config"
	"github.com/fiyatradar/crowdtrust/internal/model"
)

// weightedRule pairs a rule with its share of the aggregate confidence.
type weightedRule struct {
	rule   Rule
	weight float64
}

// Engine runs the fixed verification rule set.
type Engine struct {
	cfg   config.VerifyConfig
	rules []weightedRule
}

// DefaultConfig returns a VerifyConfig with the standard rule weights
// and thresholds. Rule weights sum to 1.0.
func DefaultConfig() config.VerifyConfig {
	return config.VerifyConfig{
		PriceRangeWeight: 0.30,
		LocationWeight:   0.20,
		ReceiptWeight:    0.30,
		ReputationWeight: 0.20,

		ConfidenceThreshold:   0.7,
		WarningConfidence:     0.7,
		PriceDeviationMax:     0.30,
		LocationDeviationMax:  0.20,
		MinReputation:         0.3,
		MaxRejectionRate:      0.5,
		WindowDays:            7,
		PeerPriceTolerance:    0.10,
		RequiredVerifications: 3,
		MinGroupSize:          3,
		MaxZScore:             2.0,
	}
}

// NewEngine builds the rule set from config. A weight set that does not
// sum to 1.0 is a fatal configuration error, raised here rather than at
// call time.
func NewEngine(cfg config.VerifyConfig) (*Engine, error) {
	sum := cfg.PriceRangeWeight + cfg.LocationWeight + cfg.ReceiptWeight + cfg.ReputationWeight
	if math.Abs(sum-1.0) > 1e-6 {
		return nil, eris.Errorf("verify: rule weights must sum to 1.0, got %.4f", sum)
	}
	for name, w := range map[string]float64{
		"price_range_weight": cfg.PriceRangeWeight,
		"location_weight":    cfg.LocationWeight,
		"receipt_weight":     cfg.ReceiptWeight,
		"reputation_weight":  cfg.ReputationWeight,
	} {
		if w < 0 {
			return nil, eris.Errorf("verify: %s must be >= 0", name)
		}
	}

	window := time.Duration(cfg.WindowDays) * 24 * time.Hour

	return &Engine{
		cfg: cfg,
		rules: []weightedRule{
			{rule: priceRangeRule{maxDeviation: cfg.PriceDeviationMax, categories: DefaultCategories()}, weight: cfg.PriceRangeWeight},
			{rule: locationRule{maxDeviation: cfg.LocationDeviationMax, window: window}, weight: cfg.LocationWeight},
			{rule: receiptRule{}, weight: cfg.ReceiptWeight},
			{rule: reputationRule{minScore: cfg.MinReputation, maxRejectionRate: cfg.MaxRejectionRate}, weight: cfg.ReputationWeight},
		},
	}, nil
}

// ConfidenceThreshold exposes the verified cutoff for status mapping.
func (e *Engine) ConfidenceThreshold() float64 {
	return e.cfg.ConfidenceThreshold
}

// VerifyPrice evaluates every rule against one submission and
// aggregates a weighted confidence. The submission is verified only
// when the confidence clears the threshold and no rule failed; a failed
// rule is decisive regardless of the aggregate.
func (e *Engine) VerifyPrice(sub *model.PriceSubmission, vc *model.VerificationContext) model.VerificationOutcome {
	var failedRules, warnings []string
	var weightedSum, weightSum float64

	for _, wr := range e.rules {
		res := wr.rule.Evaluate(sub, vc)
		weightedSum += res.Confidence * wr.weight
		weightSum += wr.weight

		if !res.Passed {
			failedRules = append(failedRules, fmt.Sprintf("%s: %s", wr.rule.Name(), res.Reason))
		} else if res.Confidence < e.cfg.WarningConfidence {
			warnings = append(warnings, fmt.Sprintf("%s: Düşük güven (%d%%)", wr.rule.Name(), int(math.Round(res.Confidence*100))))
		}
	}

	confidence := weightedSum / weightSum

	outcome := model.VerificationOutcome{
		IsVerified:            confidence > e.cfg.ConfidenceThreshold && len(failedRules) == 0,
		Confidence:            confidence,
		FailedRules:           failedRules,
		Warnings:              warnings,
		RequiredVerifications: e.cfg.RequiredVerifications,
		CurrentVerifications:  e.countPeerVerifications(sub, vc.SimilarPrices),
	}

	zap.L().Debug("verify: evaluated submission",
		zap.String("submission_id", sub.ID),
		zap.Float64("confidence", confidence),
		zap.Bool("verified", outcome.IsVerified),
		zap.Strings("failed_rules", failedRules),
	)

	return outcome
}

// countPeerVerifications counts distinct other users whose in-window
// submissions for the same market and normalized product land within
// the price tolerance of this one.
func (e *Engine) countPeerVerifications(sub *model.PriceSubmission, similar []model.PriceSubmission) int {
	if sub.Price <= 0 {
		return 0
	}

	window := time.Duration(e.cfg.WindowDays) * 24 * time.Hour
	users := make(map[string]struct{})

	for i := range similar {
		p := &similar[i]
		if p.UserID == sub.UserID {
			continue
		}
		if p.MarketName != sub.MarketName || p.NormalizedProductName != sub.NormalizedProductName {
			continue
		}
		if absDuration(p.SubmittedAt.Sub(sub.SubmittedAt)) >= window {
			continue
		}
		if math.Abs(p.Price-sub.Price)/sub.Price >= e.cfg.PeerPriceTolerance {
			continue
		}
		users[p.UserID] = struct{}{}
	}

	return len(users)
}

func itoaRound(v float64) string {
	return strconv.Itoa(int(math.Round(v)))
}
