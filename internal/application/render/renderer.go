package render

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application/guardrail"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/ai"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/analysis"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/metrics"
)

const (
	minMessageLength = 20
	summaryExcerpt   = 200

	GenericMessage = "Your document analysis is complete. Please review the detailed report below for key findings and recommendations."
)

type message struct {
	Message string `json:"message"`
	Text    string `json:"text"`
	Tone    string `json:"tone"`
}

// Renderer turns results into human-readable messages.
type Renderer struct {
	provider ai.Provider
	guard    *guardrail.Checker
	logger   *zap.Logger
}

func New(provider ai.Provider, guard *guardrail.Checker, logger *zap.Logger) *Renderer {
	return &Renderer{provider: provider, guard: guard, logger: logger.Named("renderer")}
}

// Render returns a friendly explanation of r. It never fails: an unusable
// message is replaced by Fallback(r).
func (rd *Renderer) Render(ctx context.Context, r analysis.Result) string {
	msg, err := rd.invoke(ctx, ai.CapabilityFriendly, resultInput(r))
	if err == nil {
		err = rd.guard.GuardMessage(msg)
	}
	if err == nil && len(strings.TrimSpace(msg)) < minMessageLength {
		err = fmt.Errorf("message too short (%d chars)", len(strings.TrimSpace(msg)))
	}
	if err != nil {
		rd.logger.Warn("friendly message unavailable, using fallback", zap.Error(err))
		metrics.RendererFallbacks.Inc()
		return Fallback(r)
	}
	return strings.TrimSpace(msg)
}

// Chat answers conversational input. Unlike Render it has no fallback; an
// invalid reply is an output tripwire.
func (rd *Renderer) Chat(ctx context.Context, text string) (string, error) {
	msg, err := rd.invoke(ctx, ai.CapabilityCasualChat, text)
	if err != nil {
		return "", err
	}
	if err := rd.guard.GuardMessage(msg); err != nil {
		return "", err
	}
	return strings.TrimSpace(msg), nil
}

// Fallback is the deterministic message used when rendering fails.
func Fallback(r analysis.Result) string {
	summary := strings.TrimSpace(r.Summary)
	if summary == "" {
		return GenericMessage
	}
	runes := []rune(summary)
	if len(runes) > summaryExcerpt {
		runes = runes[:summaryExcerpt]
	}
	return "Analysis complete. " + string(runes) + "..."
}

func (rd *Renderer) invoke(ctx context.Context, c ai.Capability, input string) (string, error) {
	raw, err := rd.provider.Invoke(ctx, ai.Request{Capability: c, Input: input, Format: ai.FormatJSON})
	if err != nil {
		return "", fmt.Errorf("%s: %w", c, err)
	}
	var m message
	if err := ai.DecodeJSON(raw, &m); err == nil {
		if m.Message == "" {
			return m.Text, nil
		}
		return m.Message, nil
	}
	// some models ignore the response format and answer in prose
	return raw, nil
}

func resultInput(r analysis.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summary: %s\n", r.Summary)
	fmt.Fprintf(&b, "Verdict: %s\n", r.Verdict)
	if len(r.Risks) == 0 {
		b.WriteString("Risks: none identified\n")
	} else {
		b.WriteString("Risks:\n")
		for _, risk := range r.Risks {
			fmt.Fprintf(&b, "- [%s] %s", risk.Severity, risk.Description)
			if risk.ClauseReference != "" {
				fmt.Fprintf(&b, " (clause %s)", risk.ClauseReference)
			}
			if risk.Recommendation != "" {
				fmt.Fprintf(&b, "; recommendation: %s", risk.Recommendation)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}
