package analysis

import (
	"time"

	"github.com/google/uuid"
)

// Disclaimer is attached to every analysis result.
const Disclaimer = "This analysis is for informational purposes only and does not constitute legal advice. Please consult with a qualified attorney."

// Request is one document submitted for processing. It is not modified after creation.
type Request struct {
	Text      string
	Filename  string
	SessionID uuid.UUID
}

// RiskItem is one risk found in a document.
type RiskItem struct {
	Description     string   `json:"description"`
	Severity        Severity `json:"severity"`
	Category        string   `json:"category"`
	Recommendation  string   `json:"recommendation"`
	ClauseReference string   `json:"clause_reference"`
}

// Result is the canonical structured assessment of a document.
type Result struct {
	Summary         string     `json:"summary"`
	Risks           []RiskItem `json:"risks"`
	Verdict         string     `json:"verdict"`
	Disclaimer      string     `json:"disclaimer"`
	ConfidenceScore float64    `json:"confidence_score"`
}

// Route enum
type Route string

const (
	RouteAnalyzeDocument Route = "analyze_document"
	RouteCasualChat      Route = "casual_chat"
	RouteUndetermined    Route = "undetermined"
)

// RoutingDecision is taken once per request and never revised.
type RoutingDecision struct {
	Route        Route   `json:"decision"`
	Reasoning    string  `json:"reasoning"`
	Confidence   float64 `json:"confidence_score"`
	DocumentType string  `json:"document_type,omitempty"`
}

// GuardrailVerdict is the outcome of one guardrail evaluation.
type GuardrailVerdict struct {
	Blocked           bool     `json:"blocked"`
	Reasoning         string   `json:"reasoning"`
	FlaggedCategories []string `json:"flagged_categories"`
}

// Insights are cheap statistics computed from the extracted text.
type Insights struct {
	WordCount         int `json:"word_count"`
	CharacterCount    int `json:"character_count"`
	EstimatedPages    int `json:"estimated_pages"`
	EstimatedReadTime int `json:"estimated_read_time"`
}

// ResultType enum
type ResultType string

const (
	ResultLegalAnalysis  ResultType = "legal_analysis"
	ResultCasualResponse ResultType = "casual_response"
	ResultError          ResultType = "error"
)

// DocumentInfo describes the processed upload inside a FinalResult.
type DocumentInfo struct {
	Filename          string    `json:"filename"`
	WordCount         int       `json:"word_count"`
	EstimatedPages    int       `json:"estimated_pages"`
	EstimatedReadTime int       `json:"estimated_read_time"`
	ProcessedAt       time.Time `json:"processed_at"`
	DocumentURL       string    `json:"document_url,omitempty"`
}

// FinalResult is the terminal payload of a full pipeline run.
type FinalResult struct {
	Type            ResultType    `json:"type"`
	DocumentInfo    *DocumentInfo `json:"document_info,omitempty"`
	Analysis        *Result       `json:"analysis,omitempty"`
	FriendlyMessage string        `json:"friendly_message,omitempty"`
	Message         string        `json:"message,omitempty"`
	SessionID       string        `json:"session_id"`
}
