package session

import (
	"time"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/analysis"
)

// Status enum
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Record is the last known state of one analysis session.
// Stores hand out copies; a Record is replaced as a whole on update.
type Record struct {
	Status    Status                `json:"status"`
	Filename  string                `json:"filename"`
	StartedAt time.Time             `json:"started_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	Insights  analysis.Insights     `json:"insights"`
	Message   string                `json:"message,omitempty"`
	Result    *analysis.FinalResult `json:"result,omitempty"`
}

// Clone returns a deep copy so callers can patch without aliasing stored state.
func (r Record) Clone() Record {
	out := r
	if r.Result != nil {
		res := *r.Result
		if r.Result.DocumentInfo != nil {
			di := *r.Result.DocumentInfo
			res.DocumentInfo = &di
		}
		if r.Result.Analysis != nil {
			a := *r.Result.Analysis
			if src := r.Result.Analysis.Risks; src != nil {
				a.Risks = make([]analysis.RiskItem, len(src))
				copy(a.Risks, src)
			}
			res.Analysis = &a
		}
		out.Result = &res
	}
	return out
}
