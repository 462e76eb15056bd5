package verify

import (
	"math"

	"go.uber.org/zap"

	"github.com/fiyatradar/crowdtrust/internal/model"
)

// CrossValidate batch-checks peer groups for statistical agreement.
// Submissions are grouped by (normalized product, market, city); groups
// reaching the minimum size get a mean/stddev computed and each member
// is judged by its z-score. Smaller groups are left unjudged and absent
// from the result.
//
// The verdicts are promotion candidates only: callers must apply them
// to pending submissions exclusively, never downgrading a submission
// that is already verified or rejected.
func (e *Engine) CrossValidate(prices []model.PriceSubmission) map[string]bool {
	verdicts := make(map[string]bool)

	groups := make(map[string][]*model.PriceSubmission)
	for i := range prices {
		key := prices[i].GroupKey()
		groups[key] = append(groups[key], &prices[i])
	}

	judged := 0
	for key, group := range groups {
		if len(group) < e.cfg.MinGroupSize {
			continue
		}

		mean, stddev := meanStddev(group)
		for _, p := range group {
			if stddev == 0 {
				// Perfect agreement within the group.
				verdicts[p.ID] = true
				continue
			}
			z := math.Abs(p.Price-mean) / stddev
			verdicts[p.ID] = z < e.cfg.MaxZScore
		}
		judged++

		zap.L().Debug("verify: cross-validated group",
			zap.String("group", key),
			zap.Int("members", len(group)),
			zap.Float64("mean", mean),
			zap.Float64("stddev", stddev),
		)
	}

	zap.L().Info("verify: cross-validation complete",
		zap.Int("submissions", len(prices)),
		zap.Int("groups_judged", judged),
		zap.Int("verdicts", len(verdicts)),
	)

	return verdicts
}

// PromoteCandidates filters cross-validation verdicts down to the IDs
// that may actually transition: pending submissions judged consistent.
// Verified and rejected submissions are terminal for this sweep.
func PromoteCandidates(prices []model.PriceSubmission, verdicts map[string]bool) []string {
	var ids []string
	for i := range prices {
		p := &prices[i]
		if p.VerificationStatus != model.StatusPending {
			continue
		}
		if verdicts[p.ID] {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// meanStddev returns the mean and population standard deviation of the
// group's prices.
func meanStddev(group []*model.PriceSubmission) (float64, float64) {
	var sum float64
	for _, p := range group {
		sum += p.Price
	}
	mean := sum / float64(len(group))

	var sq float64
	for _, p := range group {
		d := p.Price - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(group)))
}
