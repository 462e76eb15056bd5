package trust

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiyatradar/crowdtrust/internal/model"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestNewEngine_RejectsBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AccuracyWeight = 0.5 // sum now 1.25

	_, err := NewEngine(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestNewEngine_RejectsNegativeWeight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PenaltyWeight = -0.05
	cfg.ActivityWeight = 0.20 // keep the sum at 1.0

	_, err := NewEngine(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be >= 0")
}

func TestNewEngine_RejectsBadBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinScore = 0.9
	cfg.MaxScore = 0.5

	_, err := NewEngine(cfg)
	require.Error(t, err)
}

func TestScore_ColdStart(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	m := NewMetrics("newbie", now)
	assert.Equal(t, 0.5, e.Score(&m, now))

	m.TotalSubmissions = 4
	m.VerifiedSubmissions = 4
	m.AverageAccuracy = 1.0
	assert.Equal(t, 0.5, e.Score(&m, now), "below the threshold even good metrics do not move the score")

	m.TotalSubmissions = 5
	assert.NotEqual(t, 0.5, e.Score(&m, now), "at the threshold the weighted formula takes over")
}

func TestScore_EstablishedGoodUser(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	m := &model.UserTrustMetrics{
		UserID:                "veteran",
		TotalSubmissions:      100,
		VerifiedSubmissions:   95,
		RejectedSubmissions:   2,
		AverageAccuracy:       0.95,
		ReceiptSubmissionRate: 0.9,
		LocationConsistency:   1.0,
		SubmissionFrequency:   3,
		LastActivityDate:      now.Add(-24 * time.Hour),
	}

	// 0.9694*0.30 + 0.95*0.25 + 1.0*0.15 + 1.0*0.15 + 1.0*0.10 + 1.0*0.05
	score := e.Score(m, now)
	assert.InDelta(t, 0.9783, score, 0.001)
	assert.Equal(t, LevelVeryHigh, Level(score).Level)
}

func TestScore_Bounds(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	worst := &model.UserTrustMetrics{
		UserID:              "worst",
		TotalSubmissions:    50,
		RejectedSubmissions: 50,
		LastActivityDate:    now.AddDate(-1, 0, 0),
		FlaggedBehaviors: []model.FlaggedBehavior{
			model.BehaviorSpam, model.BehaviorManipulation,
		},
	}
	assert.Equal(t, 0.1, e.Score(worst, now), "score is floored at the minimum")

	best := &model.UserTrustMetrics{
		UserID:                "best",
		TotalSubmissions:      100,
		VerifiedSubmissions:   100,
		AverageAccuracy:       1.0,
		ReceiptSubmissionRate: 1.0,
		LocationConsistency:   1.0,
		LastActivityDate:      now,
	}
	assert.LessOrEqual(t, e.Score(best, now), 1.0)
}

func TestVerificationRate(t *testing.T) {
	m := &model.UserTrustMetrics{TotalSubmissions: 10, VerifiedSubmissions: 6, RejectedSubmissions: 2}
	assert.InDelta(t, 0.75, verificationRate(m), 1e-9, "rejected submissions leave the denominator")

	empty := &model.UserTrustMetrics{}
	assert.Zero(t, verificationRate(empty))

	allRejected := &model.UserTrustMetrics{TotalSubmissions: 5, RejectedSubmissions: 5}
	assert.Zero(t, verificationRate(allRejected))
}

func TestReceiptRate_Stepped(t *testing.T) {
	tests := []struct {
		rate float64
		want float64
	}{
		{0.9, 1.0},
		{0.81, 1.0},
		{0.8, 0.9},
		{0.7, 0.9},
		{0.5, 0.7},
		{0.3, 0.5},
		{0.2, 0.3},
		{0.0, 0.3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, receiptRate(tt.rate), "rate %.2f", tt.rate)
	}
}

func TestConsistency_HalvedWhenAutomated(t *testing.T) {
	m := &model.UserTrustMetrics{LocationConsistency: 0.8, SubmissionFrequency: 51}
	assert.InDelta(t, 0.4, consistency(m, 50), 1e-9)

	m.SubmissionFrequency = 50
	assert.InDelta(t, 0.8, consistency(m, 50), 1e-9, "the threshold itself is not suspicious")
}

func TestActivity_Decay(t *testing.T) {
	now := time.Now()
	tests := []struct {
		daysAgo int
		want    float64
	}{
		{0, 1.0},
		{6, 1.0},
		{7, 0.8},
		{29, 0.8},
		{30, 0.6},
		{59, 0.6},
		{60, 0.4},
		{89, 0.4},
		{90, 0.2},
		{365, 0.2},
	}
	for _, tt := range tests {
		last := now.Add(-time.Duration(tt.daysAgo) * 24 * time.Hour)
		assert.Equal(t, tt.want, activity(last, now), "%d days ago", tt.daysAgo)
	}
}

func TestPenalty(t *testing.T) {
	clean := &model.UserTrustMetrics{TotalSubmissions: 10, RejectedSubmissions: 1}
	assert.Equal(t, 1.0, penalty(clean, 0.3))

	rejected := &model.UserTrustMetrics{TotalSubmissions: 10, RejectedSubmissions: 4}
	assert.InDelta(t, 0.6, penalty(rejected, 0.3), 1e-9)

	spammer := &model.UserTrustMetrics{
		TotalSubmissions: 10,
		FlaggedBehaviors: []model.FlaggedBehavior{model.BehaviorSpam},
	}
	assert.InDelta(t, 0.3, penalty(spammer, 0.3), 1e-9)

	compound := &model.UserTrustMetrics{
		TotalSubmissions:    10,
		RejectedSubmissions: 4,
		FlaggedBehaviors: []model.FlaggedBehavior{
			model.BehaviorSpam, model.BehaviorDuplicateSubmissions,
		},
	}
	// 0.6 * 0.3 * 0.7
	assert.InDelta(t, 0.126, penalty(compound, 0.3), 1e-9)
}

func TestLevel_Bands(t *testing.T) {
	tests := []struct {
		score float64
		level string
		label string
	}{
		{0.95, LevelVeryHigh, "Çok Güvenilir"},
		{0.9, LevelVeryHigh, "Çok Güvenilir"},
		{0.89, LevelHigh, "Güvenilir"},
		{0.7, LevelHigh, "Güvenilir"},
		{0.69, LevelMedium, "Orta"},
		{0.5, LevelMedium, "Orta"},
		{0.49, LevelLow, "Düşük"},
		{0.3, LevelLow, "Düşük"},
		{0.29, LevelVeryLow, "Çok Düşük"},
		{0.1, LevelVeryLow, "Çok Düşük"},
	}
	for _, tt := range tests {
		got := Level(tt.score)
		assert.Equal(t, tt.level, got.Level, "score %.2f", tt.score)
		assert.Equal(t, tt.label, got.Label, "score %.2f", tt.score)
	}
}
