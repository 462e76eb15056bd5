package trust

import (
	"strconv"
	"time"

	"github.com/fiyatradar/crowdtrust/internal/model"
)

// DetectSuspiciousBehavior scans a user's submission history for abuse
// patterns. The returned flags feed the penalty factor on the next
// score recomputation. Manipulation is never inferred here; it is an
// externally assigned flag (moderation, staged-collusion analysis).
func (e *Engine) DetectSuspiciousBehavior(history []model.PriceSubmission, now time.Time) []model.FlaggedBehavior {
	if len(history) == 0 {
		return nil
	}

	var flags []model.FlaggedBehavior
	window := time.Duration(e.cfg.SpamWindowHours) * time.Hour

	// Spam: too many submissions inside the trailing window.
	recent := 0
	for i := range history {
		if now.Sub(history[i].SubmittedAt) < window {
			recent++
		}
	}
	if float64(recent) > e.cfg.SuspiciousDailyRate {
		flags = append(flags, model.BehaviorSpam)
	}

	// Duplicates: repeated (product, price, market) tuples within the
	// window of each other.
	if dupes := countDuplicates(history, window); float64(dupes) > float64(len(history))*e.cfg.DuplicateShare {
		flags = append(flags, model.BehaviorDuplicateSubmissions)
	}

	// Extreme outliers: most of the history was rejected.
	rejected := 0
	for i := range history {
		if history[i].VerificationStatus == model.StatusRejected {
			rejected++
		}
	}
	if float64(rejected) > float64(len(history))*e.cfg.OutlierRejectedShare {
		flags = append(flags, model.BehaviorExtremeOutliers)
	}

	return flags
}

func countDuplicates(history []model.PriceSubmission, window time.Duration) int {
	seen := make(map[string]time.Time, len(history))
	dupes := 0

	for i := range history {
		s := &history[i]
		key := s.ProductName + "|" + strconv.FormatFloat(s.Price, 'f', -1, 64) + "|" + s.MarketName
		if prev, ok := seen[key]; ok && absDuration(s.SubmittedAt.Sub(prev)) < window {
			dupes++
		} else {
			seen[key] = s.SubmittedAt
		}
	}

	return dupes
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
