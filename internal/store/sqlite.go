package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/fiyatradar/crowdtrust/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the
// default backend for local development and tests.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS submissions (
	id                      TEXT PRIMARY KEY,
	user_id                 TEXT NOT NULL,
	product_name            TEXT NOT NULL,
	normalized_product_name TEXT NOT NULL,
	barcode                 TEXT NOT NULL DEFAULT '',
	price                   REAL NOT NULL,
	weight                  REAL NOT NULL,
	weight_unit             TEXT NOT NULL,
	market_name             TEXT NOT NULL,
	market_branch           TEXT NOT NULL DEFAULT '',
	city                    TEXT NOT NULL,
	district                TEXT NOT NULL DEFAULT '',
	latitude                REAL,
	longitude               REAL,
	category                TEXT NOT NULL DEFAULT '',
	receipt_image_url       TEXT NOT NULL DEFAULT '',
	submitted_at            DATETIME NOT NULL,
	verification_status     TEXT NOT NULL DEFAULT 'pending',
	verified_by             TEXT NOT NULL DEFAULT '[]',
	trust_score             REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS user_metrics (
	user_id                 TEXT PRIMARY KEY,
	total_submissions       INTEGER NOT NULL DEFAULT 0,
	verified_submissions    INTEGER NOT NULL DEFAULT 0,
	rejected_submissions    INTEGER NOT NULL DEFAULT 0,
	average_accuracy        REAL NOT NULL DEFAULT 0,
	receipt_submission_rate REAL NOT NULL DEFAULT 0,
	location_consistency    REAL NOT NULL DEFAULT 1,
	submission_frequency    REAL NOT NULL DEFAULT 0,
	last_activity_date      DATETIME NOT NULL,
	flagged_behaviors       TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions(user_id, submitted_at DESC);
CREATE INDEX IF NOT EXISTS idx_submissions_peer_group ON submissions(normalized_product_name, market_name, city);
CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(verification_status, submitted_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub *model.PriceSubmission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}

	verifiedBy, err := json.Marshal(emptyIfNil(sub.VerifiedBy))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal verified_by")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (`+submissionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.ProductName, sub.NormalizedProductName, sub.Barcode,
		sub.Price, sub.Weight, string(sub.WeightUnit), sub.MarketName, sub.MarketBranch,
		sub.Location.City, sub.Location.District, sub.Location.Latitude, sub.Location.Longitude,
		sub.Category, sub.ReceiptImageURL, sub.SubmittedAt, string(sub.VerificationStatus),
		string(verifiedBy), sub.TrustScore,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert submission")
	}
	return nil
}

func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (*model.PriceSubmission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id)

	sub, err := scanSubmissionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get submission")
	}
	return sub, nil
}

func (s *SQLiteStore) UpdateVerificationStatus(ctx context.Context, id string, status model.VerificationStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET verification_status = ? WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update verification status")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if affected == 0 {
		return eris.Errorf("sqlite: submission %s not found", id)
	}
	return nil
}

func (s *SQLiteStore) PromoteVerified(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET verification_status = 'verified'
		 WHERE id IN (`+placeholders+`) AND verification_status = 'pending'`,
		args...,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: promote verified")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return affected, nil
}

func (s *SQLiteStore) ListUserHistory(ctx context.Context, userID string, limit int) ([]model.PriceSubmission, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE user_id = ? ORDER BY submitted_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list user history")
	}
	defer rows.Close()
	return scanSubmissionRows(rows)
}

func (s *SQLiteStore) ListSimilarPrices(ctx context.Context, normalizedName, marketName, city string, since time.Time) ([]model.PriceSubmission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		 WHERE normalized_product_name = ? AND market_name = ? AND city = ? AND submitted_at >= ?
		 ORDER BY submitted_at DESC`,
		normalizedName, marketName, city, since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list similar prices")
	}
	defer rows.Close()
	return scanSubmissionRows(rows)
}

func (s *SQLiteStore) ListRecent(ctx context.Context, since time.Time) ([]model.PriceSubmission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE submitted_at >= ? ORDER BY submitted_at DESC`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recent")
	}
	defer rows.Close()
	return scanSubmissionRows(rows)
}

func (s *SQLiteStore) MarketAverages(ctx context.Context, normalizedName string, since time.Time) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT market_name, AVG(price) FROM submissions
		 WHERE normalized_product_name = ? AND verification_status = 'verified' AND submitted_at >= ?
		 GROUP BY market_name`,
		normalizedName, since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: market averages")
	}
	defer rows.Close()
	return scanAverageRows(rows)
}

func (s *SQLiteStore) CategoryAverages(ctx context.Context, since time.Time) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, AVG(price) FROM submissions
		 WHERE verification_status = 'verified' AND category <> '' AND submitted_at >= ?
		 GROUP BY category`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: category averages")
	}
	defer rows.Close()
	return scanAverageRows(rows)
}

func (s *SQLiteStore) GetUserMetrics(ctx context.Context, userID string) (*model.UserTrustMetrics, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, total_submissions, verified_submissions, rejected_submissions,
		       average_accuracy, receipt_submission_rate, location_consistency,
		       submission_frequency, last_activity_date, flagged_behaviors
		FROM user_metrics WHERE user_id = ?`, userID)

	var m model.UserTrustMetrics
	var behaviors string
	err := row.Scan(
		&m.UserID, &m.TotalSubmissions, &m.VerifiedSubmissions, &m.RejectedSubmissions,
		&m.AverageAccuracy, &m.ReceiptSubmissionRate, &m.LocationConsistency,
		&m.SubmissionFrequency, &m.LastActivityDate, &behaviors,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get user metrics")
	}
	if err := json.Unmarshal([]byte(behaviors), &m.FlaggedBehaviors); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal flagged behaviors")
	}
	return &m, nil
}

func (s *SQLiteStore) UpsertUserMetrics(ctx context.Context, m *model.UserTrustMetrics) error {
	behaviors, err := json.Marshal(emptyIfNil(m.FlaggedBehaviors))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal flagged behaviors")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_metrics (user_id, total_submissions, verified_submissions, rejected_submissions,
			average_accuracy, receipt_submission_rate, location_consistency,
			submission_frequency, last_activity_date, flagged_behaviors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			total_submissions = excluded.total_submissions,
			verified_submissions = excluded.verified_submissions,
			rejected_submissions = excluded.rejected_submissions,
			average_accuracy = excluded.average_accuracy,
			receipt_submission_rate = excluded.receipt_submission_rate,
			location_consistency = excluded.location_consistency,
			submission_frequency = excluded.submission_frequency,
			last_activity_date = excluded.last_activity_date,
			flagged_behaviors = excluded.flagged_behaviors`,
		m.UserID, m.TotalSubmissions, m.VerifiedSubmissions, m.RejectedSubmissions,
		m.AverageAccuracy, m.ReceiptSubmissionRate, m.LocationConsistency,
		m.SubmissionFrequency, m.LastActivityDate, string(behaviors),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: upsert user metrics")
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmissionRow(row rowScanner) (*model.PriceSubmission, error) {
	var sub model.PriceSubmission
	var unit, status, verifiedBy string

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
	if err := json.Unmarshal([]byte(verifiedBy), &sub.VerifiedBy); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal verified_by")
	}
	return &sub, nil
}

func scanSubmissionRows(rows *sql.Rows) ([]model.PriceSubmission, error) {
	var subs []model.PriceSubmission
	for rows.Next() {
		sub, err := scanSubmissionRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan submission")
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate submissions")
	}
	return subs, nil
}

func scanAverageRows(rows *sql.Rows) (map[string]float64, error) {
	avgs := make(map[string]float64)
	for rows.Next() {
		var key string
		var avg float64
		if err := rows.Scan(&key, &avg); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan average")
		}
		avgs[key] = avg
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate averages")
	}
	return avgs, nil
}
