package classifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/ai"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/analysis"
)

const (
	// DefaultThreshold is the detector confidence needed to analyze a document.
	DefaultThreshold = 0.7
	// defaultConfidence applies when a capability omits its confidence score.
	defaultConfidence = 0.8
)

type detection struct {
	IsLegalDocument bool     `json:"is_legal_document"`
	DocumentType    string   `json:"document_type"`
	Reasoning       string   `json:"reasoning"`
	ConfidenceScore *float64 `json:"confidence_score"`
}

func (d detection) confidence() float64 {
	if d.ConfidenceScore == nil {
		return defaultConfidence
	}
	return clamp(*d.ConfidenceScore)
}

type decision struct {
	Action          string   `json:"action"`
	Reasoning       string   `json:"reasoning"`
	ConfidenceScore *float64 `json:"confidence_score"`
}

// Classifier decides how a request is handled. The document-type detector
// runs first as a tool and its verdict is handed to the routing capability.
type Classifier struct {
	provider  ai.Provider
	threshold float64
	logger    *zap.Logger
}

func New(provider ai.Provider, threshold float64, logger *zap.Logger) *Classifier {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Classifier{provider: provider, threshold: threshold, logger: logger.Named("classifier")}
}

// Classify returns exactly one routing decision for text. An error is
// returned only when the detector itself cannot produce a verdict.
func (c *Classifier) Classify(ctx context.Context, text string) (analysis.RoutingDecision, error) {
	raw, err := c.provider.Invoke(ctx, ai.Request{
		Capability: ai.CapabilityDocumentDetector,
		Input:      text,
		Format:     ai.FormatJSON,
	})
	if err != nil {
		return analysis.RoutingDecision{}, fmt.Errorf("detect document type: %w", err)
	}
	var det detection
	if err := ai.DecodeJSON(raw, &det); err != nil {
		return analysis.RoutingDecision{}, fmt.Errorf("detect document type: %w", err)
	}

	routed, err := c.provider.Invoke(ctx, ai.Request{
		Capability: ai.CapabilityRouter,
		Input:      ai.FrameToolResults(text, ai.ToolResult{Capability: ai.CapabilityDocumentDetector, Output: raw}),
		Format:     ai.FormatJSON,
	})
	var dec decision
	if err == nil {
		err = ai.DecodeJSON(routed, &dec)
	}
	if err != nil {
		c.logger.Warn("router unavailable, deciding from detector", zap.Error(err))
		return c.fromDetection(det), nil
	}

	out := c.resolve(det, dec)
	c.logger.Info("request classified",
		zap.String("route", string(out.Route)),
		zap.String("document_type", out.DocumentType),
		zap.Float64("confidence", out.Confidence),
	)
	return out, nil
}

// resolve combines the router's action with the detector verdict. A document
// is analyzed only when both agree and the detector is confident enough.
func (c *Classifier) resolve(det detection, dec decision) analysis.RoutingDecision {
	conf := defaultConfidence
	if dec.ConfidenceScore != nil {
		conf = clamp(*dec.ConfidenceScore)
	}
	out := analysis.RoutingDecision{
		Reasoning:    dec.Reasoning,
		Confidence:   conf,
		DocumentType: det.DocumentType,
	}
	switch dec.Action {
	case string(analysis.RouteAnalyzeDocument):
		if det.IsLegalDocument && det.confidence() >= c.threshold {
			out.Route = analysis.RouteAnalyzeDocument
		} else {
			out.Route = analysis.RouteUndetermined
			out.Reasoning = fmt.Sprintf("router chose analysis but detector disagrees: %s", det.Reasoning)
		}
	case string(analysis.RouteCasualChat):
		out.Route = analysis.RouteCasualChat
	default:
		out.Route = analysis.RouteUndetermined
	}
	return out
}

func (c *Classifier) fromDetection(det detection) analysis.RoutingDecision {
	out := analysis.RoutingDecision{
		Reasoning:    det.Reasoning,
		Confidence:   det.confidence(),
		DocumentType: det.DocumentType,
		Route:        analysis.RouteUndetermined,
	}
	if det.IsLegalDocument && det.confidence() >= c.threshold {
		out.Route = analysis.RouteAnalyzeDocument
	}
	return out
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
