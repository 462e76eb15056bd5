// Package store persists submissions and user trust metrics. The
// scoring engines never touch it directly; the intake service assembles
// read snapshots from it and writes outcomes back.
package store

import (
	"context"
	"time"

	"github.com/fiyatradar/crowdtrust/internal/model"
)

// Store defines the persistence interface for the intake service.
type Store interface {
	// Submissions
	CreateSubmission(ctx context.Context, sub *model.PriceSubmission) error
	GetSubmission(ctx context.Context, id string) (*model.PriceSubmission, error)
	UpdateVerificationStatus(ctx context.Context, id string, status model.VerificationStatus) error
	// PromoteVerified marks pending submissions as verified. Verified
	// and rejected rows are never touched; concurrent cross-validation
	// promotions for the same peer group are serialized here.
	PromoteVerified(ctx context.Context, ids []string) (int64, error)

	// Read context
	ListUserHistory(ctx context.Context, userID string, limit int) ([]model.PriceSubmission, error)
	ListSimilarPrices(ctx context.Context, normalizedName, marketName, city string, since time.Time) ([]model.PriceSubmission, error)
	ListRecent(ctx context.Context, since time.Time) ([]model.PriceSubmission, error)
	// MarketAverages returns the average verified price per market for
	// one product. Pending submissions are excluded, so a submission
	// under evaluation never feeds its own baseline.
	MarketAverages(ctx context.Context, normalizedName string, since time.Time) (map[string]float64, error)
	// CategoryAverages returns the average verified price per category.
	CategoryAverages(ctx context.Context, since time.Time) (map[string]float64, error)

	// Metrics
	GetUserMetrics(ctx context.Context, userID string) (*model.UserTrustMetrics, error)
	UpsertUserMetrics(ctx context.Context, m *model.UserTrustMetrics) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
