package reportstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docaudit/internal/audit/models"
)

// PostgresStore persists reports as JSONB rows with the query columns the
// HTTP layer filters on.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the reports table. Called once at startup; safe to rerun.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS audit_reports (
			id          TEXT PRIMARY KEY,
			region      TEXT NOT NULL,
			checked     INT NOT NULL,
			violations  INT NOT NULL,
			payload     JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate audit_reports: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, report models.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO audit_reports (id, region, checked, violations, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
		report.ID,
		report.Region.String(),
		report.Totals.Checked,
		report.Totals.Violations,
		payload,
		report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (models.Report, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM audit_reports WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Report{}, ErrNotFound
	}
	if err != nil {
		return models.Report{}, fmt.Errorf("get report: %w", err)
	}

	var report models.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return models.Report{}, fmt.Errorf("decode report: %w", err)
	}
	return report, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Report, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM audit_reports ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var report models.Report
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
