package website

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for the website_status table.
const Schema = `
CREATE TABLE IF NOT EXISTS website_status (
	id               TEXT PRIMARY KEY,
	website          TEXT        NOT NULL,
	status           TEXT        NOT NULL,
	response_time_ms INTEGER     NOT NULL DEFAULT 0,
	status_code      INTEGER     NOT NULL DEFAULT 0,
	checked_at       TIMESTAMPTZ NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS website_status_website_checked_idx ON website_status (website, checked_at DESC);
CREATE INDEX IF NOT EXISTS website_status_created_idx ON website_status (created_at);
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL check-result repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the website_status table if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return err
}

// Insert stores a check result.
func (r *PostgresRepository) Insert(ctx context.Context, result *CheckResult) error {
	if err := result.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO website_status (id, website, status, response_time_ms, status_code, checked_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		result.ID,
		result.Website,
		string(result.Status),
		result.ResponseTimeMs,
		result.StatusCode,
		result.CheckedAt,
		result.CreatedAt,
	)
	return err
}

// Latest returns the most recent result for a website.
func (r *PostgresRepository) Latest(ctx context.Context, website string) (*CheckResult, error) {
	query := `
		SELECT id, website, status, response_time_ms, status_code, checked_at, created_at
		FROM website_status
		WHERE website = $1
		ORDER BY checked_at DESC
		LIMIT 1
	`

	result, err := scanResult(r.pool.QueryRow(ctx, query, website))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoStatusData
		}
		return nil, err
	}
	return result, nil
}

// ListBetween returns all results checked in [from, to), oldest first.
func (r *PostgresRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*CheckResult, error) {
	query := `
		SELECT id, website, status, response_time_ms, status_code, checked_at, created_at
		FROM website_status
		WHERE checked_at >= $1 AND checked_at < $2
		ORDER BY checked_at
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*CheckResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// DeleteOlderThan removes results created before cutoff.
func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM website_status WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Ping verifies the database is reachable.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanResult(row pgx.Row) (*CheckResult, error) {
	var (
		result CheckResult
		status string
	)

	err := row.Scan(
		&result.ID,
		&result.Website,
		&status,
		&result.ResponseTimeMs,
		&result.StatusCode,
		&result.CheckedAt,
		&result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	result.Status = Status(status)
	return &result, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
