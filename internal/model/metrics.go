package model

import "time"

// FlaggedBehavior is an abuse pattern attached to a user's metrics.
type FlaggedBehavior string

const (
	BehaviorSpam                 FlaggedBehavior = "spam"
	BehaviorManipulation         FlaggedBehavior = "manipulation"
	BehaviorDuplicateSubmissions FlaggedBehavior = "duplicate_submissions"
	BehaviorExtremeOutliers      FlaggedBehavior = "extreme_outliers"
)

// UserTrustMetrics accumulates a user's submission history statistics.
// It is created with defaults on the user's first submission and
// mutated (never deleted) after every verification outcome.
type UserTrustMetrics struct {
	UserID                string            `json:"user_id"`
	TotalSubmissions      int               `json:"total_submissions"`
	VerifiedSubmissions   int               `json:"verified_submissions"`
	RejectedSubmissions   int               `json:"rejected_submissions"`
	AverageAccuracy       float64           `json:"average_accuracy"`
	ReceiptSubmissionRate float64           `json:"receipt_submission_rate"`
	LocationConsistency   float64           `json:"location_consistency"`
	SubmissionFrequency   float64           `json:"submission_frequency"` // per day
	LastActivityDate      time.Time         `json:"last_activity_date"`
	FlaggedBehaviors      []FlaggedBehavior `json:"flagged_behaviors,omitempty"`
}

// RejectionRate returns the share of this user's submissions that were
// rejected, 0 when the user has no history.
func (m *UserTrustMetrics) RejectionRate() float64 {
	if m.TotalSubmissions == 0 {
		return 0
	}
	return float64(m.RejectedSubmissions) / float64(m.TotalSubmissions)
}

// HasBehavior reports whether the given flag is present.
func (m *UserTrustMetrics) HasBehavior(b FlaggedBehavior) bool {
	for _, f := range m.FlaggedBehaviors {
		if f == b {
			return true
		}
	}
	return false
}
