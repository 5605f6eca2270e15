package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/report"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// EnsureSchema creates the reports table when it does not exist yet.
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS analysis_reports (
  id          UUID        PRIMARY KEY,
  session_id  UUID        NOT NULL,
  filename    TEXT        NOT NULL,
  risk_count  INTEGER     NOT NULL DEFAULT 0,
  result_json JSONB       NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_created ON analysis_reports (created_at DESC);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save inserts or updates a report
func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO analysis_reports
  (id, session_id, filename, risk_count, result_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  risk_count=EXCLUDED.risk_count,
  result_json=EXCLUDED.result_json;
`
	filename := rep.Filename
	if strings.TrimSpace(filename) == "" {
		filename = "-"
	}
	result := rep.Result
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	createdAt := rep.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q, string(rep.ID), rep.SessionID, filename, rep.RiskCount, result, createdAt)
	return err
}

// Paginate returns a page of reports ordered by created_at desc
func (r *ReportRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Report, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, session_id, filename, risk_count, result_json, created_at
FROM analysis_reports
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Report{}
	for rows.Next() {
		var rep domain.Report
		if err := rows.Scan(&rep.ID, &rep.SessionID, &rep.Filename, &rep.RiskCount, &rep.Result, &rep.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rep)
	}
	return out, rows.Err()
}

func (r *ReportRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
