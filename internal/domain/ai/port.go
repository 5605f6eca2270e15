package ai

import "context"

// Capability names one inference-backed function. The provider resolves the
// instruction set for it; callers only supply input.
type Capability string

const (
	CapabilityGuardrail        Capability = "guardrail"
	CapabilityDocumentDetector Capability = "detect_document_type"
	CapabilityRouter           Capability = "route_request"
	CapabilitySummarize        Capability = "summarize_document"
	CapabilityDetectRisks      Capability = "detect_risks"
	CapabilityCheckClause      Capability = "check_clause"
	CapabilitySynthesize       Capability = "synthesize_analysis"
	CapabilityFriendly         Capability = "friendly_response"
	CapabilityCasualChat       Capability = "casual_chat"
)

// Format is the shape the caller expects back.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Request is one capability call.
type Request struct {
	Capability Capability
	Input      string
	Format     Format
}

// Provider executes capability calls. Implementations return ErrInvocation
// (wrapped) when the engine cannot be reached or answers with nothing usable.
type Provider interface {
	Invoke(ctx context.Context, req Request) (string, error)
}
