package pipeline

import (
	"time"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/analysis"
)

// Status of a progress event.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Event is one progress update on the stream.
type Event struct {
	Step      string         `json:"step"`
	Status    Status         `json:"status"`
	Message   string         `json:"message"`
	Progress  int            `json:"progress"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details"`
}

// Terminal payloads. Exactly one is sent per stream, right before the end marker.
type (
	FinalResultPayload struct {
		FinalResult *analysis.FinalResult `json:"final_result"`
	}

	StructuredDataPayload struct {
		StructuredData StructuredData `json:"structured_data"`
	}

	FinalMessagePayload struct {
		FinalMessage string `json:"final_message"`
	}
)

// StructuredData is the demo rendition of an analysis.
type StructuredData struct {
	analysis.Result
	RiskCount int `json:"risk_count"`
}

// Messages sent to clients. Guardrail reasoning is never part of them.
const (
	MsgSensitive        = "This document contains sensitive information that cannot be processed for security reasons."
	MsgValidation       = "Analysis output validation failed. Please try again with a different document."
	MsgSystemError      = "An error occurred during analysis. Please try again."
	MsgDemoError        = "Sorry, something went wrong during analysis. Please try uploading your document again."
	MsgCancelled        = "Analysis cancelled."
	MsgUndetermined     = "I couldn't determine if that was a legal document. Please provide a clear legal document or ask a general question."
	MsgDemoUnrecognized = `I couldn't identify this as a legal document.

Please upload a clear legal document such as:
- Contracts and agreements
- NDAs and confidentiality agreements
- Terms of service
- Privacy policies
- Legal notices

Or feel free to ask me any general legal questions!`
)

// Step names.
const (
	StepReceived       = "Document Received"
	StepExtraction     = "Text Extraction"
	StepClassification = "Document Classification"
	StepAnalysis       = "AI Analysis"
	StepReport         = "Generating Report"
	StepReportReady    = "Report Ready"
	StepQuery          = "Processing Query"
	StepResponseReady  = "Response Ready"
	StepUnclear        = "Processing Complete"
	StepSecurity       = "Security Check Failed"
	StepValidation     = "Validation Check"
	StepSystemError    = "System Error"
	StepCancelled      = "Cancelled"
)
