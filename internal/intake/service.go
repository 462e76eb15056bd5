// Package intake wires validation, normalization, trust scoring, and
// verification into the submission pipeline, and exposes it over HTTP.
package intake

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fiyatradar/crowdtrust/internal/config"
	"github.com/fiyatradar/crowdtrust/internal/model"
	"github.com/fiyatradar/crowdtrust/internal/normalize"
	"github.com/fiyatradar/crowdtrust/internal/store"
	"github.com/fiyatradar/crowdtrust/internal/trust"
	"github.com/fiyatradar/crowdtrust/internal/verify"
)

// Service runs the full intake pipeline for price submissions.
type Service struct {
	store  store.Store
	trust  *trust.Engine
	verify *verify.Engine
	cats   verify.CategoryTable
	bands  normalize.PriceBands
	cfg    *config.Config

	// now is injectable for tests.
	now func() time.Time
}

// NewService builds a Service from configuration. Engine construction
// fails if the configured weights do not sum to 1.0.
func NewService(st store.Store, cfg *config.Config) (*Service, error) {
	trustEngine, err := trust.NewEngine(cfg.Trust)
	if err != nil {
		return nil, eris.Wrap(err, "intake: trust engine")
	}
	verifyEngine, err := verify.NewEngine(cfg.Verify)
	if err != nil {
		return nil, eris.Wrap(err, "intake: verify engine")
	}

	bands := normalize.DefaultBands()
	if cfg.Intake.PriceBandsPath != "" {
		bands, err = normalize.LoadBands(cfg.Intake.PriceBandsPath)
		if err != nil {
			return nil, eris.Wrap(err, "intake: load price bands")
		}
	}

	return &Service{
		store:  st,
		trust:  trustEngine,
		verify: verifyEngine,
		cats:   verify.DefaultCategories(),
		bands:  bands,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// SubmitResult is what the caller gets back for one submission attempt.
// When Validation.IsValid is false, nothing was persisted and Outcome
// is nil.
type SubmitResult struct {
	Submission *model.PriceSubmission     `json:"submission,omitempty"`
	Validation model.ValidationResult     `json:"validation"`
	Outcome    *model.VerificationOutcome `json:"outcome,omitempty"`
	TrustLevel trust.TrustLevel           `json:"trust_level"`
}

// Submit runs one submission through validation, normalization,
// verification, and persistence, then updates the submitter's trust
// metrics.
func (s *Service) Submit(ctx context.Context, sub *model.PriceSubmission) (*SubmitResult, error) {
	now := s.now()

	sub.NormalizedProductName = normalize.ProductName(sub.ProductName)
	if sub.Weight <= 0 || sub.WeightUnit == "" {
		info := normalize.ExtractWeight(sub.ProductName)
		sub.Weight = info.Weight
		sub.WeightUnit = info.Unit
	}
	if sub.Category == "" {
		sub.Category = s.cats.Infer(sub.NormalizedProductName)
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = now
	}

	validation := normalize.Validate(sub, s.cfg.Intake, s.bands)
	if !validation.IsValid {
		zap.L().Info("submission rejected at intake",
			zap.String("user_id", sub.UserID),
			zap.Strings("errors", validation.Errors))
		return &SubmitResult{Validation: validation}, nil
	}

	metrics, err := s.store.GetUserMetrics(ctx, sub.UserID)
	if err != nil {
		return nil, eris.Wrap(err, "intake: load user metrics")
	}
	if metrics == nil {
		m := trust.NewMetrics(sub.UserID, now)
		metrics = &m
	}
	sub.TrustScore = s.trust.Score(metrics, now)

	vc, err := s.buildContext(ctx, sub, now)
	if err != nil {
		return nil, err
	}

	outcome := s.verify.VerifyPrice(sub, vc)
	sub.VerificationStatus = outcome.Status(s.verify.ConfidenceThreshold())

	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		return nil, eris.Wrap(err, "intake: persist submission")
	}

	history := append(vc.UserHistory, *sub)
	detected := s.trust.DetectSuspiciousBehavior(history, now)

	updated := trust.UpdateAfterSubmission(*metrics, sub, sub.VerificationStatus, now)
	updated.FlaggedBehaviors = mergeBehaviors(updated.FlaggedBehaviors, detected)
	if err := s.store.UpsertUserMetrics(ctx, &updated); err != nil {
		return nil, eris.Wrap(err, "intake: update user metrics")
	}

	zap.L().Info("submission processed",
		zap.String("id", sub.ID),
		zap.String("user_id", sub.UserID),
		zap.String("product", sub.NormalizedProductName),
		zap.String("status", string(sub.VerificationStatus)),
		zap.Float64("confidence", outcome.Confidence),
		zap.Float64("trust_score", sub.TrustScore))

	return &SubmitResult{
		Submission: sub,
		Validation: validation,
		Outcome:    &outcome,
		TrustLevel: trust.Level(sub.TrustScore),
	}, nil
}

// buildContext assembles the read snapshot a verification runs against.
func (s *Service) buildContext(ctx context.Context, sub *model.PriceSubmission, now time.Time) (*model.VerificationContext, error) {
	since := now.AddDate(0, 0, -s.cfg.Verify.WindowDays)

	similar, err := s.store.ListSimilarPrices(ctx, sub.NormalizedProductName, sub.MarketName, sub.Location.City, since)
	if err != nil {
		return nil, eris.Wrap(err, "intake: list similar prices")
	}
	history, err := s.store.ListUserHistory(ctx, sub.UserID, 0)
	if err != nil {
		return nil, eris.Wrap(err, "intake: list user history")
	}
	marketAvgs, err := s.store.MarketAverages(ctx, sub.NormalizedProductName, since)
	if err != nil {
		return nil, eris.Wrap(err, "intake: market averages")
	}
	categoryAvgs, err := s.store.CategoryAverages(ctx, since)
	if err != nil {
		return nil, eris.Wrap(err, "intake: category averages")
	}

	return &model.VerificationContext{
		SimilarPrices:    similar,
		UserHistory:      history,
		MarketAverages:   marketAvgs,
		CategoryAverages: categoryAvgs,
	}, nil
}

// Sweep cross-validates recent submissions against their peer groups
// and promotes the pending ones that agree with group consensus. It
// never demotes.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	since := s.now().AddDate(0, 0, -s.cfg.Sweep.LookbackDays)

	recent, err := s.store.ListRecent(ctx, since)
	if err != nil {
		return 0, eris.Wrap(err, "intake: list recent")
	}
	if len(recent) == 0 {
		return 0, nil
	}

	verdicts := s.verify.CrossValidate(recent)
	candidates := verify.PromoteCandidates(recent, verdicts)
	promoted, err := s.store.PromoteVerified(ctx, candidates)
	if err != nil {
		return 0, eris.Wrap(err, "intake: promote verified")
	}

	zap.L().Info("sweep complete",
		zap.Int("scanned", len(recent)),
		zap.Int("candidates", len(candidates)),
		zap.Int64("promoted", promoted))
	return promoted, nil
}

// TrustReport summarizes a user's current standing.
type TrustReport struct {
	UserID  string                  `json:"user_id"`
	Score   float64                 `json:"score"`
	Level   trust.TrustLevel        `json:"level"`
	Factors trust.Factors           `json:"factors"`
	Metrics *model.UserTrustMetrics `json:"metrics"`
}

// Trust computes the trust report for a user. Unknown users get the
// cold-start report.
func (s *Service) Trust(ctx context.Context, userID string) (*TrustReport, error) {
	now := s.now()

	metrics, err := s.store.GetUserMetrics(ctx, userID)
	if err != nil {
		return nil, eris.Wrap(err, "intake: load user metrics")
	}
	if metrics == nil {
		m := trust.NewMetrics(userID, now)
		metrics = &m
	}

	score := s.trust.Score(metrics, now)
	return &TrustReport{
		UserID:  userID,
		Score:   score,
		Level:   trust.Level(score),
		Factors: s.trust.Factors(metrics, now),
		Metrics: metrics,
	}, nil
}

// Submission fetches a stored submission by ID. Returns nil when absent.
func (s *Service) Submission(ctx context.Context, id string) (*model.PriceSubmission, error) {
	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, eris.Wrap(err, "intake: get submission")
	}
	return sub, nil
}

func mergeBehaviors(existing, detected []model.FlaggedBehavior) []model.FlaggedBehavior {
	merged := existing
	for _, b := range detected {
		seen := false
		for _, e := range merged {
			if e == b {
				seen = true
				break
			}
		}
		if !seen {
			merged = append(merged, b)
		}
	}
	return merged
}
