package aitest

import "github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/ai"

// Canned capability outputs shared by tests.
const (
	SafeVerdict      = `{"contains_sensitive_info": false, "reasoning": "standard contract content", "flagged_content_types": []}`
	SensitiveVerdict = `{"contains_sensitive_info": true, "reasoning": "credit card number found", "flagged_content_types": ["Credit Card Number"]}`

	LegalDetection  = `{"is_legal_document": true, "document_type": "Services Agreement", "reasoning": "parties, clauses and signatures", "confidence_score": 0.95}`
	ChatDetection   = `{"is_legal_document": false, "document_type": "none", "reasoning": "conversational question", "confidence_score": 0.9}`
	AnalyzeDecision = `{"action": "analyze_document", "reasoning": "formal agreement with clauses", "confidence_score": 0.93}`
	ChatDecision    = `{"action": "casual_chat", "reasoning": "greeting and product question", "confidence_score": 0.9}`
	UnclearDecision = `{"action": "no_document_found", "reasoning": "meeting notes without legal structure", "confidence_score": 0.6}`

	Summary   = `{"summary": "A three month consulting services agreement between Acme Labs and BrightMind Consulting.", "key_points": ["fixed fee", "termination for convenience"]}`
	Risks     = `{"risks": [{"description": "Either party may terminate on 15 days notice", "level": "medium", "category": "Operational", "recommendation": "Negotiate a longer notice period", "clause_reference": "9.1"}], "overall_risk_level": "medium"}`
	ClauseRev = `Clause 8.1 caps aggregate liability at amounts paid; this favors the consultant.`

	Synthesis = `{
  "summary": "A three month consulting services agreement with a fixed fee, a liability cap and mutual confidentiality obligations.",
  "risks": [
    {"description": "Termination for convenience on 15 days notice", "severity": "medium", "category": "Operational", "recommendation": "Extend the notice period", "clause_reference": "9.1"},
    {"description": "Liability capped at fees paid", "level": "HIGH", "category": "Financial"},
    "Confidentiality survives termination without a time limit"
  ],
  "verdict": "Generally balanced; negotiate the liability cap before signing.",
  "confidence_score": 0.86
}`

	Friendly = `{"message": "Good news! Your consulting agreement looks mostly balanced. Watch the liability cap in section 8 and the short termination notice.", "tone": "friendly"}`
	Chat     = `{"message": "Hi! I review legal documents like contracts and NDAs and explain their risks in plain English.", "tone": "friendly"}`
)

// LegalScript scripts a provider for a document that is analyzed end to end.
func LegalScript() *Provider {
	return New().
		On(ai.CapabilityGuardrail, SafeVerdict).
		On(ai.CapabilityDocumentDetector, LegalDetection).
		On(ai.CapabilityRouter, AnalyzeDecision).
		On(ai.CapabilitySummarize, Summary).
		On(ai.CapabilityDetectRisks, Risks).
		On(ai.CapabilityCheckClause, ClauseRev).
		On(ai.CapabilitySynthesize, Synthesis).
		On(ai.CapabilityFriendly, Friendly)
}

// ChatScript scripts a provider for conversational input.
func ChatScript() *Provider {
	return New().
		On(ai.CapabilityGuardrail, SafeVerdict).
		On(ai.CapabilityDocumentDetector, ChatDetection).
		On(ai.CapabilityRouter, ChatDecision).
		On(ai.CapabilityCasualChat, Chat)
}
