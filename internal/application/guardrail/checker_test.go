package guardrail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/ai"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/ai/aitest"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/analysis"
)

func TestCheckInput(t *testing.T) {
	p := aitest.New().On(ai.CapabilityGuardrail, aitest.SafeVerdict, aitest.SensitiveVerdict)
	c := NewChecker(p, zap.NewNop())

	v, err := c.CheckInput(context.Background(), "This agreement is made between...")
	require.NoError(t, err)
	assert.False(t, v.Blocked)
	assert.NotNil(t, v.FlaggedCategories)

	v, err = c.CheckInput(context.Background(), "card 4111 1111 1111 1111")
	require.NoError(t, err)
	assert.True(t, v.Blocked)
	assert.Equal(t, []string{"Credit Card Number"}, v.FlaggedCategories)
}

func TestCheckInputProviderFailure(t *testing.T) {
	p := aitest.New().Fail(ai.CapabilityGuardrail, ai.ErrInvocation)
	c := NewChecker(p, zap.NewNop())

	_, err := c.CheckInput(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrInvocation))
}

func TestCheckInputMalformed(t *testing.T) {
	p := aitest.New().On(ai.CapabilityGuardrail, "sure, looks fine to me")
	c := NewChecker(p, zap.NewNop())

	_, err := c.CheckInput(context.Background(), "text")
	assert.ErrorIs(t, err, ai.ErrInvocation)
}

func TestGuardInput(t *testing.T) {
	p := aitest.New().On(ai.CapabilityGuardrail, aitest.SensitiveVerdict)
	c := NewChecker(p, zap.NewNop())

	err := c.GuardInput(context.Background(), "ssn 123-45-6789")
	require.Error(t, err)
	assert.True(t, analysis.IsTripwire(err, analysis.TripwireInput))

	var tw *analysis.TripwireError
	require.True(t, errors.As(err, &tw))
	assert.Equal(t, "credit card number found", tw.Verdict.Reasoning)
}

func TestValidateAnalysis(t *testing.T) {
	good := analysis.Result{
		Summary:    "A consulting agreement between two parties.",
		Risks:      []analysis.RiskItem{},
		Verdict:    "Generally fair.",
		Disclaimer: analysis.Disclaimer,
	}
	assert.False(t, ValidateAnalysis(good).Blocked)

	tests := []struct {
		name   string
		mutate func(*analysis.Result)
		check  string
	}{
		{"short summary", func(r *analysis.Result) { r.Summary = "Too short" }, "summary"},
		{"nil risks", func(r *analysis.Result) { r.Risks = nil }, "risks"},
		{"short verdict", func(r *analysis.Result) { r.Verdict = "ok" }, "verdict"},
		{"missing disclaimer", func(r *analysis.Result) { r.Disclaimer = "" }, "disclaimer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := good
			tt.mutate(&r)
			v := ValidateAnalysis(r)
			assert.True(t, v.Blocked)
			assert.Contains(t, v.FlaggedCategories, tt.check)
		})
	}
}

func TestValidateMessage(t *testing.T) {
	assert.False(t, ValidateMessage("Your NDA looks standard.").Blocked)
	assert.True(t, ValidateMessage("   ").Blocked)
	assert.True(t, ValidateMessage(strings.Repeat("a", MaxMessageLength)).Blocked)
	assert.True(t, ValidateMessage("I'm unable to help with that.").Blocked)
	assert.True(t, ValidateMessage("Sorry, I cannot review this").Blocked)
}

func TestGuardOutput(t *testing.T) {
	c := NewChecker(aitest.New(), zap.NewNop())

	err := c.GuardAnalysis(analysis.Result{Summary: "short", Risks: []analysis.RiskItem{}})
	assert.True(t, analysis.IsTripwire(err, analysis.TripwireOutput))

	assert.NoError(t, c.GuardMessage("Everything looks fine with this lease."))
	assert.True(t, analysis.IsTripwire(c.GuardMessage(""), analysis.TripwireOutput))
}
