// Package trust derives per-user reputation scores from accumulated
// submission metrics. All operations are pure computations over explicit
// input snapshots; the engine holds configuration only.
package trust

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fiyatradar/crowdtrust/internal/config"
	"github.com/fiyatradar/crowdtrust/internal/model"
)

// Engine computes trust scores using operator-tunable weights.
type Engine struct {
	cfg config.TrustConfig
}

// Factors holds the six normalized sub-factors behind a trust score.
type Factors struct {
	VerificationRate float64 `json:"verification_rate"`
	Accuracy         float64 `json:"accuracy"`
	ReceiptRate      float64 `json:"receipt_rate"`
	Consistency      float64 `json:"consistency"`
	Activity         float64 `json:"activity"`
	Penalty          float64 `json:"penalty"`
}

// behaviorMultipliers compound the penalty factor per flagged behavior.
var behaviorMultipliers = map[model.FlaggedBehavior]float64{
	model.BehaviorSpam:                 0.3,
	model.BehaviorManipulation:         0.2,
	model.BehaviorDuplicateSubmissions: 0.7,
	model.BehaviorExtremeOutliers:      0.8,
}

// DefaultConfig returns a TrustConfig with the standard weights and
// thresholds. Weights sum to 1.0.
func DefaultConfig() config.TrustConfig {
	return config.TrustConfig{
		VerificationRateWeight: 0.30,
		AccuracyWeight:         0.25,
		ReceiptRateWeight:      0.15,
		ConsistencyWeight:      0.15,
		ActivityWeight:         0.10,
		PenaltyWeight:          0.05,

		InitialScore: 0.5,
		MinScore:     0.1,
		MaxScore:     1.0,

		MinSubmissions:       5,
		SuspiciousDailyRate:  50,
		HighRejectionRate:    0.3,
		SpamWindowHours:      24,
		DuplicateShare:       0.1,
		OutlierRejectedShare: 0.5,
	}
}

// NewEngine creates a trust Engine. A weight set that does not sum to
// 1.0 is a fatal configuration error.
func NewEngine(cfg config.TrustConfig) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

func validateConfig(cfg config.TrustConfig) error {
	var errs []string

	weights := map[string]float64{
		"verification_rate_weight": cfg.VerificationRateWeight,
		"accuracy_weight":          cfg.AccuracyWeight,
		"receipt_rate_weight":      cfg.ReceiptRateWeight,
		"consistency_weight":       cfg.ConsistencyWeight,
		"activity_weight":          cfg.ActivityWeight,
		"penalty_weight":           cfg.PenaltyWeight,
	}
	var sum float64
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-6 {
		errs = append(errs, fmt.Sprintf("factor weights must sum to 1.0, got %.4f", sum))
	}

	if cfg.MinScore < 0 || cfg.MaxScore > 1 || cfg.MinScore >= cfg.MaxScore {
		errs = append(errs, "score bounds must satisfy 0 <= min < max <= 1")
	}
	if cfg.MinSubmissions < 0 {
		errs = append(errs, "min_submissions must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("trust: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Score derives the scalar reputation for a user. Users below the
// cold-start threshold get the initial score unconditionally; everyone
// else gets the weighted factor combination clamped to the configured
// bounds.
func (e *Engine) Score(m *model.UserTrustMetrics, now time.Time) float64 {
	if m.TotalSubmissions < e.cfg.MinSubmissions {
		return e.cfg.InitialScore
	}

	f := e.Factors(m, now)
	score := f.VerificationRate*e.cfg.VerificationRateWeight +
		f.Accuracy*e.cfg.AccuracyWeight +
		f.ReceiptRate*e.cfg.ReceiptRateWeight +
		f.Consistency*e.cfg.ConsistencyWeight +
		f.Activity*e.cfg.ActivityWeight +
		f.Penalty*e.cfg.PenaltyWeight

	return math.Max(e.cfg.MinScore, math.Min(e.cfg.MaxScore, score))
}

// Factors computes the six sub-factors for a user, each in [0, 1].
func (e *Engine) Factors(m *model.UserTrustMetrics, now time.Time) Factors {
	return Factors{
		VerificationRate: verificationRate(m),
		Accuracy:         math.Min(1, m.AverageAccuracy),
		ReceiptRate:      receiptRate(m.ReceiptSubmissionRate),
		Consistency:      consistency(m, e.cfg.SuspiciousDailyRate),
		Activity:         activity(m.LastActivityDate, now),
		Penalty:          penalty(m, e.cfg.HighRejectionRate),
	}
}

// verificationRate is verified over non-rejected submissions, capped at 1.
func verificationRate(m *model.UserTrustMetrics) float64 {
	denom := m.TotalSubmissions - m.RejectedSubmissions
	if denom <= 0 {
		return 0
	}
	return math.Min(1, float64(m.VerifiedSubmissions)/float64(denom))
}

// receiptRate rewards consistent receipt submission on a stepped scale.
func receiptRate(rate float64) float64 {
	switch {
	case rate > 0.8:
		return 1.0
	case rate > 0.6:
		return 0.9
	case rate > 0.4:
		return 0.7
	case rate > 0.2:
		return 0.5
	default:
		return 0.3
	}
}

// consistency is the location consistency, halved when the submission
// frequency looks automated.
func consistency(m *model.UserTrustMetrics, suspiciousDailyRate float64) float64 {
	score := m.LocationConsistency
	if m.SubmissionFrequency > suspiciousDailyRate {
		score *= 0.5
	}
	return score
}

// activity decays with days since the user last submitted.
func activity(last, now time.Time) float64 {
	days := now.Sub(last).Hours() / 24
	switch {
	case days < 7:
		return 1.0
	case days < 30:
		return 0.8
	case days < 60:
		return 0.6
	case days < 90:
		return 0.4
	default:
		return 0.2
	}
}

// penalty starts at 1.0 and shrinks with a high rejection rate and each
// flagged behavior, compounding, floored at 0.
func penalty(m *model.UserTrustMetrics, highRejectionRate float64) float64 {
	p := 1.0

	if rr := m.RejectionRate(); rr > highRejectionRate {
		p *= 1 - rr
	}

	for _, b := range m.FlaggedBehaviors {
		if mul, ok := behaviorMultipliers[b]; ok {
			p *= mul
		}
	}

	return math.Max(0, p)
}
