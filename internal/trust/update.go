package trust

import (
	"time"

	"github.com/fiyatradar/crowdtrust/internal/model"
)

// NewMetrics returns the default metrics created on a user's first
// submission.
func NewMetrics(userID string, now time.Time) model.UserTrustMetrics {
	return model.UserTrustMetrics{
		UserID:              userID,
		LocationConsistency: 1.0,
		LastActivityDate:    now,
	}
}

// UpdateAfterSubmission folds one verification outcome into a user's
// metrics and returns the new value. The input is not mutated. A
// pending outcome counts the submission but neither verifies nor
// rejects it; the batch sweep settles it later.
func UpdateAfterSubmission(m model.UserTrustMetrics, sub *model.PriceSubmission, outcome model.VerificationStatus, now time.Time) model.UserTrustMetrics {
	updated := m
	updated.FlaggedBehaviors = append([]model.FlaggedBehavior(nil), m.FlaggedBehaviors...)

	updated.TotalSubmissions++
	updated.LastActivityDate = now

	switch outcome {
	case model.StatusVerified:
		updated.VerifiedSubmissions++
	case model.StatusRejected:
		updated.RejectedSubmissions++
	}

	// Receipt submission rate stays a running mean over all submissions.
	withReceipt := m.ReceiptSubmissionRate * float64(m.TotalSubmissions)
	if sub.HasReceipt() {
		withReceipt++
	}
	updated.ReceiptSubmissionRate = withReceipt / float64(updated.TotalSubmissions)

	return updated
}
