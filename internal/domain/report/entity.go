package report

import "time"

// ReportID identifier type
type ReportID string

// Report is an archived legal analysis, kept for auditing and retrieval.
type Report struct {
	ID        ReportID  `json:"id"`
	SessionID string    `json:"session_id"`
	Filename  string    `json:"filename"`
	RiskCount int       `json:"risk_count"`
	Result    string    `json:"result"` // FinalResult as JSON
	CreatedAt time.Time `json:"created_at"`
}
