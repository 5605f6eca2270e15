package analyzer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/ai"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/analysis"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/metrics"
)

const (
	defaultConfidence  = 0.8
	degradedConfidence = 0.5

	DegradedSummary = "Document analysis completed but some details could not be extracted."
	DegradedVerdict = "Please review the document manually for potential issues."
)

// Alternate keys observed in capability output, in lookup order.
var (
	descriptionKeys    = []string{"description", "risk", "title", "text", "issue", "name"}
	severityKeys       = []string{"severity", "level", "risk_level", "riskLevel"}
	categoryKeys       = []string{"category", "type", "risk_type"}
	recommendationKeys = []string{"recommendation", "mitigation", "suggestion", "recommendations"}
	clauseKeys         = []string{"clause_reference", "clauseReference", "clause", "clause_ref", "section"}
)

// Degraded is the fixed result used when capability output cannot be used at all.
func Degraded() analysis.Result {
	return analysis.Result{
		Summary:         DegradedSummary,
		Risks:           []analysis.RiskItem{},
		Verdict:         DegradedVerdict,
		Disclaimer:      analysis.Disclaimer,
		ConfidenceScore: degradedConfidence,
	}
}

// Normalizer coerces raw synthesis output into analysis.Result. It never fails.
type Normalizer struct {
	logger *zap.Logger
}

func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger.Named("normalizer")}
}

// Normalize decodes raw model output and coerces it. Unparseable output
// yields the degraded result.
func (n *Normalizer) Normalize(raw string) analysis.Result {
	var m map[string]any
	if err := ai.DecodeJSON(raw, &m); err != nil {
		return n.degrade(err.Error())
	}
	return n.NormalizeMap(m)
}

// NormalizeMap coerces an already decoded object.
func (n *Normalizer) NormalizeMap(m map[string]any) (res analysis.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = n.degrade(fmt.Sprintf("panic during coercion: %v", r))
		}
	}()

	if !hasAny(m, "summary", "risks", "verdict") {
		return n.degrade("no recognizable fields")
	}

	res = analysis.Result{
		Summary:         text(m["summary"]),
		Risks:           CoerceRisks(m["risks"]),
		Verdict:         text(m["verdict"]),
		Disclaimer:      text(m["disclaimer"]),
		ConfidenceScore: confidence(m["confidence_score"]),
	}
	if strings.TrimSpace(res.Disclaimer) == "" {
		res.Disclaimer = analysis.Disclaimer
	}
	return res
}

func (n *Normalizer) degrade(reason string) analysis.Result {
	n.logger.Warn("analysis output unusable, using degraded result", zap.String("reason", reason))
	metrics.NormalizerDegraded.Inc()
	return Degraded()
}

// CoerceRisks turns whatever arrived under "risks" into a list of RiskItem.
// The result is never nil.
func CoerceRisks(v any) []analysis.RiskItem {
	out := []analysis.RiskItem{}
	var entries []any
	switch t := v.(type) {
	case nil:
		return out
	case []any:
		entries = t
	case string:
		// a JSON array encoded as a string shows up now and then
		var nested []any
		if err := json.Unmarshal([]byte(t), &nested); err == nil {
			entries = nested
		} else {
			entries = []any{t}
		}
	default:
		entries = []any{t}
	}

	for _, e := range entries {
		if item, ok := coerceRisk(e); ok {
			out = append(out, item)
		}
	}
	return out
}

func coerceRisk(v any) (analysis.RiskItem, bool) {
	switch t := v.(type) {
	case nil:
		return analysis.RiskItem{}, false
	case map[string]any:
		item := analysis.RiskItem{
			Description:     first(t, descriptionKeys),
			Severity:        analysis.ParseSeverity(first(t, severityKeys)),
			Category:        first(t, categoryKeys),
			Recommendation:  first(t, recommendationKeys),
			ClauseReference: first(t, clauseKeys),
		}
		if item.Description == "" {
			if item.Category == "" && item.Recommendation == "" && item.ClauseReference == "" {
				return analysis.RiskItem{}, false
			}
			item.Description = "Unspecified risk"
		}
		return item, true
	default:
		desc := strings.TrimSpace(text(t))
		if desc == "" {
			return analysis.RiskItem{}, false
		}
		return analysis.RiskItem{Description: desc, Severity: analysis.SeverityLow}, true
	}
}

func first(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(text(m[k])); s != "" {
			return s
		}
	}
	return ""
}

func hasAny(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if s := strings.TrimSpace(text(p)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(t)
	}
}

func confidence(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return defaultConfidence
		}
		f = parsed
	default:
		return defaultConfidence
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return defaultConfidence
	}
	// percentages are accepted as well
	if f > 1 && f <= 100 {
		f /= 100
	}
	return min(max(f, 0), 1)
}
