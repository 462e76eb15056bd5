package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/fiyatradar/crowdtrust/internal/config"
	"github.com/fiyatradar/crowdtrust/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock implements
// it for unit tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, cfg config.StoreConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if cfg.MaxConns > 0 {
		maxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		minConns = cfg.MinConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS submissions (
	id                      TEXT PRIMARY KEY,
	user_id                 TEXT NOT NULL,
	product_name            TEXT NOT NULL,
	normalized_product_name TEXT NOT NULL,
	barcode                 TEXT NOT NULL DEFAULT '',
	price                   DOUBLE PRECISION NOT NULL,
	weight                  DOUBLE PRECISION NOT NULL,
	weight_unit             TEXT NOT NULL,
	market_name             TEXT NOT NULL,
	market_branch           TEXT NOT NULL DEFAULT '',
	city                    TEXT NOT NULL,
	district                TEXT NOT NULL DEFAULT '',
	latitude                DOUBLE PRECISION,
	longitude               DOUBLE PRECISION,
	category                TEXT NOT NULL DEFAULT '',
	receipt_image_url       TEXT NOT NULL DEFAULT '',
	submitted_at            TIMESTAMPTZ NOT NULL,
	verification_status     TEXT NOT NULL DEFAULT 'pending',
	verified_by             JSONB NOT NULL DEFAULT '[]',
	trust_score             DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS user_metrics (
	user_id                 TEXT PRIMARY KEY,
	total_submissions       INTEGER NOT NULL DEFAULT 0,
	verified_submissions    INTEGER NOT NULL DEFAULT 0,
	rejected_submissions    INTEGER NOT NULL DEFAULT 0,
	average_accuracy        DOUBLE PRECISION NOT NULL DEFAULT 0,
	receipt_submission_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
	location_consistency    DOUBLE PRECISION NOT NULL DEFAULT 1,
	submission_frequency    DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_activity_date      TIMESTAMPTZ NOT NULL,
	flagged_behaviors       JSONB NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions(user_id, submitted_at DESC);
CREATE INDEX IF NOT EXISTS idx_submissions_peer_group ON submissions(normalized_product_name, market_name, city);
CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(verification_status, submitted_at);
`

const submissionColumns = `id, user_id, product_name, normalized_product_name, barcode, price, weight, weight_unit, market_name, market_branch, city, district, latitude, longitude, category, receipt_image_url, submitted_at, verification_status, verified_by, trust_score`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateSubmission(ctx context.Context, sub *model.PriceSubmission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}

	verifiedBy, err := json.Marshal(emptyIfNil(sub.VerifiedBy))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal verified_by")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO submissions (`+submissionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		sub.ID, sub.UserID, sub.ProductName, sub.NormalizedProductName, sub.Barcode,
		sub.Price, sub.Weight, string(sub.WeightUnit), sub.MarketName, sub.MarketBranch,
		sub.Location.City, sub.Location.District, sub.Location.Latitude, sub.Location.Longitude,
		sub.Category, sub.ReceiptImageURL, sub.SubmittedAt, string(sub.VerificationStatus),
		verifiedBy, sub.TrustScore,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert submission")
	}
	return nil
}

func (s *PostgresStore) GetSubmission(ctx context.Context, id string) (*model.PriceSubmission, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)

	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get submission")
	}
	return sub, nil
}

func (s *PostgresStore) UpdateVerificationStatus(ctx context.Context, id string, status model.VerificationStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE submissions SET verification_status = $1 WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update verification status")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: submission %s not found", id)
	}
	return nil
}

func (s *PostgresStore) PromoteVerified(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE submissions SET verification_status = 'verified' WHERE id = ANY($1) AND verification_status = 'pending'`,
		ids,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: promote verified")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ListUserHistory(ctx context.Context, userID string, limit int) ([]model.PriceSubmission, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE user_id = $1 ORDER BY submitted_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list user history")
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (s *PostgresStore) ListSimilarPrices(ctx context.Context, normalizedName, marketName, city string, since time.Time) ([]model.PriceSubmission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		 WHERE normalized_product_name = $1 AND market_name = $2 AND city = $3 AND submitted_at >= $4
		 ORDER BY submitted_at DESC`,
		normalizedName, marketName, city, since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list similar prices")
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, since time.Time) ([]model.PriceSubmission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE submitted_at >= $1 ORDER BY submitted_at DESC`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recent")
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (s *PostgresStore) MarketAverages(ctx context.Context, normalizedName string, since time.Time) (map[string]float64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT market_name, AVG(price) FROM submissions
		 WHERE normalized_product_name = $1 AND verification_status = 'verified' AND submitted_at >= $2
		 GROUP BY market_name`,
		normalizedName, since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: market averages")
	}
	defer rows.Close()
	return scanAverages(rows)
}

func (s *PostgresStore) CategoryAverages(ctx context.Context, since time.Time) (map[string]float64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT category, AVG(price) FROM submissions
		 WHERE verification_status = 'verified' AND category <> '' AND submitted_at >= $1
		 GROUP BY category`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: category averages")
	}
	defer rows.Close()
	return scanAverages(rows)
}

func (s *PostgresStore) GetUserMetrics(ctx context.Context, userID string) (*model.UserTrustMetrics, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, total_submissions, verified_submissions, rejected_submissions,
		       average_accuracy, receipt_submission_rate, location_consistency,
		       submission_frequency, last_activity_date, flagged_behaviors
		FROM user_metrics WHERE user_id = $1`, userID)

	var m model.UserTrustMetrics
	var behaviors []byte
	err := row.Scan(
		&m.UserID, &m.TotalSubmissions, &m.VerifiedSubmissions, &m.RejectedSubmissions,
		&m.AverageAccuracy, &m.ReceiptSubmissionRate, &m.LocationConsistency,
		&m.SubmissionFrequency, &m.LastActivityDate, &behaviors,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get user metrics")
	}
	if err := json.Unmarshal(behaviors, &m.FlaggedBehaviors); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal flagged behaviors")
	}
	return &m, nil
}

func (s *PostgresStore) UpsertUserMetrics(ctx context.Context, m *model.UserTrustMetrics) error {
	behaviors, err := json.Marshal(emptyIfNil(m.FlaggedBehaviors))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal flagged behaviors")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO user_metrics (user_id, total_submissions, verified_submissions, rejected_submissions,
			average_accuracy, receipt_submission_rate, location_consistency,
			submission_frequency, last_activity_date, flagged_behaviors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			total_submissions = EXCLUDED.total_submissions,
			verified_submissions = EXCLUDED.verified_submissions,
			rejected_submissions = EXCLUDED.rejected_submissions,
			average_accuracy = EXCLUDED.average_accuracy,
			receipt_submission_rate = EXCLUDED.receipt_submission_rate,
			location_consistency = EXCLUDED.location_consistency,
			submission_frequency = EXCLUDED.submission_frequency,
			last_activity_date = EXCLUDED.last_activity_date,
			flagged_behaviors = EXCLUDED.flagged_behaviors`,
		m.UserID, m.TotalSubmissions, m.VerifiedSubmissions, m.RejectedSubmissions,
		m.AverageAccuracy, m.ReceiptSubmissionRate, m.LocationConsistency,
		m.SubmissionFrequency, m.LastActivityDate, behaviors,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert user metrics")
	}
	return nil
}

// scanSubmission scans one row holding submissionColumns.
func scanSubmission(row pgx.Row) (*model.PriceSubmission, error) {
	var sub model.PriceSubmission
	var unit, status string
	var verifiedBy []byte

	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.ProductName, &sub.NormalizedProductName, &sub.Barcode,
		&sub.Price, &sub.Weight, &unit, &sub.MarketName, &sub.MarketBranch,
		&sub.Location.City, &sub.Location.District, &sub.Location.Latitude, &sub.Location.Longitude,
		&sub.Category, &sub.ReceiptImageURL, &sub.SubmittedAt, &status,
		&verifiedBy, &sub.TrustScore,
	)
	if err != nil {
		return nil, err
	}

	sub.WeightUnit = model.WeightUnit(unit)
	sub.VerificationStatus = model.VerificationStatus(status)
	if err := json.Unmarshal(verifiedBy, &sub.VerifiedBy); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal verified_by")
	}
	return &sub, nil
}

func scanSubmissions(rows pgx.Rows) ([]model.PriceSubmission, error) {
	var subs []model.PriceSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan submission")
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate submissions")
	}
	return subs, nil
}

func scanAverages(rows pgx.Rows) (map[string]float64, error) {
	avgs := make(map[string]float64)
	for rows.Next() {
		var key string
		var avg float64
		if err := rows.Scan(&key, &avg); err != nil {
			return nil, eris.Wrap(err, "postgres: scan average")
		}
		avgs[key] = avg
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate averages")
	}
	return avgs, nil
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
