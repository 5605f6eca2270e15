package guardrail

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/ai"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/analysis"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/metrics"
)

// MaxMessageLength is the upper bound for a friendly or conversational message.
const MaxMessageLength = 2000

var refusalPhrases = []string{
	"i cannot",
	"i can't",
	"i can not",
	"i'm unable to",
	"i am unable to",
	"i'm not able to",
}

// sensitiveCheck is the shape returned by the guardrail capability.
type sensitiveCheck struct {
	ContainsSensitiveInfo bool     `json:"contains_sensitive_info"`
	Reasoning             string   `json:"reasoning"`
	FlaggedContentTypes   []string `json:"flagged_content_types"`
}

// Checker runs the safety capability on inbound text and validates finished
// outputs structurally.
type Checker struct {
	provider ai.Provider
	logger   *zap.Logger
}

func NewChecker(provider ai.Provider, logger *zap.Logger) *Checker {
	return &Checker{provider: provider, logger: logger.Named("guardrail")}
}

// CheckInput asks the guardrail capability whether text may be processed.
// A blocked verdict is a normal outcome; an error means the capability itself failed.
func (c *Checker) CheckInput(ctx context.Context, text string) (analysis.GuardrailVerdict, error) {
	raw, err := c.provider.Invoke(ctx, ai.Request{
		Capability: ai.CapabilityGuardrail,
		Input:      text,
		Format:     ai.FormatJSON,
	})
	if err != nil {
		return analysis.GuardrailVerdict{}, fmt.Errorf("input guardrail: %w", err)
	}
	var out sensitiveCheck
	if err := ai.DecodeJSON(raw, &out); err != nil {
		return analysis.GuardrailVerdict{}, fmt.Errorf("input guardrail: %w", err)
	}
	v := analysis.GuardrailVerdict{
		Blocked:           out.ContainsSensitiveInfo,
		Reasoning:         out.Reasoning,
		FlaggedCategories: nonNil(out.FlaggedContentTypes),
	}
	c.logger.Debug("input guardrail evaluated",
		zap.Bool("blocked", v.Blocked),
		zap.Strings("flagged", v.FlaggedCategories),
	)
	return v, nil
}

// GuardInput returns a TripwireError when the input check blocks text.
func (c *Checker) GuardInput(ctx context.Context, text string) error {
	v, err := c.CheckInput(ctx, text)
	if err != nil {
		return err
	}
	if v.Blocked {
		c.logger.Warn("input tripwire",
			zap.String("reasoning", v.Reasoning),
			zap.Strings("flagged", v.FlaggedCategories),
		)
		metrics.Tripwires.WithLabelValues(string(analysis.TripwireInput)).Inc()
		return &analysis.TripwireError{Kind: analysis.TripwireInput, Verdict: v}
	}
	return nil
}

// GuardAnalysis returns a TripwireError when a result fails ValidateAnalysis.
func (c *Checker) GuardAnalysis(r analysis.Result) error {
	return c.trip(ValidateAnalysis(r), "analysis")
}

// GuardMessage returns a TripwireError when msg fails ValidateMessage.
func (c *Checker) GuardMessage(msg string) error {
	return c.trip(ValidateMessage(msg), "message")
}

func (c *Checker) trip(v analysis.GuardrailVerdict, what string) error {
	if !v.Blocked {
		return nil
	}
	c.logger.Warn("output tripwire",
		zap.String("output", what),
		zap.String("reasoning", v.Reasoning),
		zap.Strings("failed_checks", v.FlaggedCategories),
	)
	metrics.Tripwires.WithLabelValues(string(analysis.TripwireOutput)).Inc()
	return &analysis.TripwireError{Kind: analysis.TripwireOutput, Verdict: v}
}

// ValidateAnalysis checks the structure of a finished analysis:
// summary over 10 chars, a risk list, verdict over 5 chars, disclaimer over 10 chars.
func ValidateAnalysis(r analysis.Result) analysis.GuardrailVerdict {
	var failed []string
	if len(strings.TrimSpace(r.Summary)) <= 10 {
		failed = append(failed, "summary")
	}
	if r.Risks == nil {
		failed = append(failed, "risks")
	}
	if len(strings.TrimSpace(r.Verdict)) <= 5 {
		failed = append(failed, "verdict")
	}
	if len(strings.TrimSpace(r.Disclaimer)) <= 10 {
		failed = append(failed, "disclaimer")
	}
	return verdictFor(failed)
}

// ValidateMessage checks a free-text message: non-empty, shorter than
// MaxMessageLength and not a refusal.
func ValidateMessage(msg string) analysis.GuardrailVerdict {
	var failed []string
	trimmed := strings.TrimSpace(msg)
	if trimmed == "" {
		failed = append(failed, "empty")
	}
	if len(trimmed) >= MaxMessageLength {
		failed = append(failed, "too_long")
	}
	lower := strings.ToLower(trimmed)
	for _, p := range refusalPhrases {
		if strings.Contains(lower, p) {
			failed = append(failed, "refusal")
			break
		}
	}
	return verdictFor(failed)
}

func verdictFor(failed []string) analysis.GuardrailVerdict {
	if len(failed) == 0 {
		return analysis.GuardrailVerdict{Reasoning: "validation passed", FlaggedCategories: []string{}}
	}
	return analysis.GuardrailVerdict{
		Blocked:           true,
		Reasoning:         "failed checks: " + strings.Join(failed, ", "),
		FlaggedCategories: failed,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
