package mysql

import (
	"context"
	"database/sql"

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
  id          CHAR(36)     NOT NULL PRIMARY KEY,
  session_id  CHAR(36)     NOT NULL,
  filename    VARCHAR(255) NOT NULL,
  risk_count  INT          NOT NULL DEFAULT 0,
  result_json JSON         NOT NULL,
  created_at  DATETIME(6)  NOT NULL,
  INDEX idx_reports_created (created_at),
  INDEX idx_reports_session (session_id)
);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save inserts a report
func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO analysis_reports
  (id, session_id, filename, risk_count, result_json, created_at)
VALUES (?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  risk_count=VALUES(risk_count), result_json=VALUES(result_json);
`
	_, err := r.db.ExecContext(ctx, q,
		rep.ID, rep.SessionID, stringOrDash(rep.Filename), rep.RiskCount,
		jsonOrEmpty(rep.Result), nowIfZero(rep.CreatedAt))
	return err
}

// Paginate returns a page of reports ordered by created_at desc
func (r *ReportRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Report, error) {
	limit, offset := pageBounds(page, pageSize)

	const q = `
SELECT id, session_id, filename, risk_count, result_json, created_at
FROM analysis_reports
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
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
