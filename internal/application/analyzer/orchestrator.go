package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application/guardrail"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/ai"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/analysis"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/metrics"
)

// DefaultToolAttempts bounds how often one sub-capability is invoked per analysis.
const DefaultToolAttempts = 2

// RequiredTools must all produce usable output before synthesis runs.
var RequiredTools = []ai.Capability{
	ai.CapabilitySummarize,
	ai.CapabilityDetectRisks,
	ai.CapabilityCheckClause,
}

// toolSet tracks which required capabilities have produced usable output.
type toolSet struct {
	required []ai.Capability
	outputs  map[ai.Capability]string
}

func newToolSet(required []ai.Capability) *toolSet {
	return &toolSet{required: required, outputs: make(map[ai.Capability]string, len(required))}
}

func (s *toolSet) record(c ai.Capability, out string) { s.outputs[c] = out }

func (s *toolSet) missing() []ai.Capability {
	var out []ai.Capability
	for _, c := range s.required {
		if _, ok := s.outputs[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

func (s *toolSet) complete() bool { return len(s.missing()) == 0 }

func (s *toolSet) results() []ai.ToolResult {
	out := make([]ai.ToolResult, 0, len(s.required))
	for _, c := range s.required {
		out = append(out, ai.ToolResult{Capability: c, Output: s.outputs[c]})
	}
	return out
}

// Orchestrator produces one validated analysis.Result per document.
type Orchestrator struct {
	provider   ai.Provider
	guard      *guardrail.Checker
	normalizer *Normalizer
	attempts   int
	logger     *zap.Logger
}

func NewOrchestrator(provider ai.Provider, guard *guardrail.Checker, normalizer *Normalizer, attempts int, logger *zap.Logger) *Orchestrator {
	if attempts < 1 {
		attempts = DefaultToolAttempts
	}
	return &Orchestrator{
		provider:   provider,
		guard:      guard,
		normalizer: normalizer,
		attempts:   attempts,
		logger:     logger.Named("orchestrator"),
	}
}

// Analyze runs the input guardrail, the three required sub-capabilities,
// synthesis, normalization and the output guardrail, in that order.
// It returns a *analysis.TripwireError when either guardrail blocks, and
// analysis.ErrIncomplete when a required sub-capability never succeeds.
func (o *Orchestrator) Analyze(ctx context.Context, text string) (analysis.Result, error) {
	if err := o.guard.GuardInput(ctx, text); err != nil {
		return analysis.Result{}, err
	}

	tools, err := o.runTools(ctx, text)
	if err != nil {
		return analysis.Result{}, err
	}

	raw, err := o.provider.Invoke(ctx, ai.Request{
		Capability: ai.CapabilitySynthesize,
		Input:      ai.FrameToolResults(text, tools.results()...),
		Format:     ai.FormatJSON,
	})
	if err != nil {
		if ctx.Err() != nil {
			return analysis.Result{}, fmt.Errorf("synthesize: %w", ctx.Err())
		}
		o.logger.Warn("synthesis failed", zap.Error(err))
		raw = ""
	}

	res := o.normalizer.Normalize(raw)
	if err := o.guard.GuardAnalysis(res); err != nil {
		return analysis.Result{}, err
	}
	return res, nil
}

func (o *Orchestrator) runTools(ctx context.Context, text string) (*toolSet, error) {
	tools := newToolSet(RequiredTools)
	var lastErr error

	for attempt := 1; attempt <= o.attempts && !tools.complete(); attempt++ {
		for _, c := range tools.missing() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if attempt > 1 {
				metrics.CapabilityRetries.WithLabelValues(string(c)).Inc()
			}
			out, err := o.provider.Invoke(ctx, ai.Request{Capability: c, Input: text, Format: formatFor(c)})
			if err == nil {
				err = usable(c, out)
			}
			if err != nil {
				lastErr = fmt.Errorf("%s: %w", c, err)
				o.logger.Warn("sub-capability output unusable",
					zap.String("capability", string(c)),
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
				continue
			}
			tools.record(c, out)
		}
	}

	if missing := tools.missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, c := range missing {
			names[i] = string(c)
		}
		return nil, fmt.Errorf("%w: missing %s: %w", analysis.ErrIncomplete, strings.Join(names, ", "), lastErr)
	}
	return tools, nil
}

func formatFor(c ai.Capability) ai.Format {
	if c == ai.CapabilityCheckClause {
		return ai.FormatText
	}
	return ai.FormatJSON
}

var errUnusable = errors.New("unusable output")

// usable checks the minimum shape each sub-capability must return.
func usable(c ai.Capability, out string) error {
	switch c {
	case ai.CapabilitySummarize:
		var v struct {
			Summary string `json:"summary"`
		}
		if err := ai.DecodeJSON(out, &v); err != nil {
			return err
		}
		if strings.TrimSpace(v.Summary) == "" {
			return fmt.Errorf("%w: empty summary", errUnusable)
		}
	case ai.CapabilityDetectRisks:
		var v map[string]any
		if err := ai.DecodeJSON(out, &v); err != nil {
			return err
		}
		if _, ok := v["risks"]; !ok {
			return fmt.Errorf("%w: no risks field", errUnusable)
		}
	default:
		if strings.TrimSpace(out) == "" {
			return fmt.Errorf("%w: empty response", errUnusable)
		}
	}
	return nil
}
