package correction_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/verity/internal/correction"
	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/signals"
	"github.com/JaimeStill/verity/pkg/retry"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func guaranteeFinding() findings.Finding {
	return findings.Finding{
		Type:        findings.TypeCompliance,
		Severity:    findings.SeverityCritical,
		Description: "No refund guarantees",
		Triggers:    []string{"guarantee", "24 hours"},
	}
}

func TestSuggestGuaranteeScenario(t *testing.T) {
	a := correction.New(nil, time.Second, discard())

	res := a.Suggest(context.Background(), correction.Input{
		Response: "We guarantee you will receive your refund within 24 hours.",
		Status:   findings.StatusBlocked,
		Findings: []findings.Finding{guaranteeFinding()},
	})

	assert.True(t, res.Suggested)
	assert.Equal(t, "We aim to ensure you will receive your refund within 7-10 business days.", res.Response)
	assert.Equal(t, []string{
		"Replaced guarantee language with 'aim to'",
		"Adjusted time promise to '7-10 business days'",
	}, res.Changes)
	assert.NotEmpty(t, res.Diff)
	assert.False(t, res.Generative)
}

func TestSuggestSkipsApproved(t *testing.T) {
	res := correction.New(nil, 0, discard()).Suggest(context.Background(), correction.Input{
		Response: "Fine.",
		Status:   findings.StatusApproved,
	})
	assert.False(t, res.Suggested)
	assert.Empty(t, res.Response)
	assert.Empty(t, res.Changes)
}

func TestSubstituteFalseClaim(t *testing.T) {
	text, changes := correction.Substitute(correction.Input{
		Response: "Python is a snake. It is popular with beginners.",
		Status:   findings.StatusBlocked,
		Findings: []findings.Finding{{Type: findings.TypeHallucination, Severity: findings.SeverityHigh}},
		Claims: []signals.ClaimResult{{
			Claim: signals.Claim{Text: "Python is a snake."},
			Verdict: signals.Verdict{
				Status:      signals.StatusFalse,
				Alternative: "Python is a high-level, general-purpose programming language.",
			},
		}},
	})

	assert.True(t, strings.HasPrefix(text, "Python is a high-level, general-purpose programming language. It is popular"))
	assert.True(t, strings.HasSuffix(text, "Note: Some information may require verification."))
	assert.Equal(t, []string{
		"Replaced false claim 'Python is a snake.' with verified information",
		"Added verification disclaimer",
	}, changes)
}

func TestSubstituteFalseClaimAfterNonASCII(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "lowercase widens",
			response: "ȺȺȺȺ note. Python is a snake",
			want:     "ȺȺȺȺ note. Python is a programming language.",
		},
		{
			name:     "lowercase narrows",
			response: "Measured at 300 \u212a. python is a snake",
			want:     "Measured at 300 \u212a. Python is a programming language.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var text string
			require.NotPanics(t, func() {
				text, _ = correction.Substitute(correction.Input{
					Response: tt.response,
					Claims: []signals.ClaimResult{{
						Claim: signals.Claim{Text: "Python is a snake"},
						Verdict: signals.Verdict{
							Status:      signals.StatusFalse,
							Alternative: "Python is a programming language.",
						},
					}},
				})
			})
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestSubstituteRemovesClaimWithoutAlternative(t *testing.T) {
	text, changes := correction.Substitute(correction.Input{
		Response: "The moon is made of cheese. Contact support for details.",
		Findings: []findings.Finding{{Type: findings.TypeHallucination, Severity: findings.SeverityHigh}},
		Claims: []signals.ClaimResult{{
			Claim:   signals.Claim{Text: "The moon is made of cheese."},
			Verdict: signals.Verdict{Status: signals.StatusFalse},
		}},
	})

	assert.True(t, strings.HasPrefix(text, "Contact support for details."))
	assert.NotContains(t, text, "cheese")
	assert.Equal(t, "Removed false claim 'The moon is made of cheese.'", changes[0])
}

func TestSubstituteRequiredTextAndCitation(t *testing.T) {
	text, changes := correction.Substitute(correction.Input{
		Response: "Our fund performed well. Source: https://fake.example/report. Ask us anything.",
		Findings: []findings.Finding{
			{Type: findings.TypeCompliance, Severity: findings.SeverityMedium, Missing: []string{"Past performance does not predict future results."}},
			{Type: findings.TypeCitation, Severity: findings.SeverityHigh, Triggers: []string{"https://fake.example/report"}},
		},
	})

	assert.NotContains(t, text, "fake.example")
	assert.Contains(t, text, "Past performance does not predict future results.")
	assert.Equal(t, "Added required text: 'Past performance does not predict future results.'", changes[0])
	assert.Equal(t, "Removed invalid citation https://fake.example/report", changes[1])
}

func TestSubstituteFinancialDisclaimer(t *testing.T) {
	text, changes := correction.Substitute(correction.Input{
		Response: "This stock always delivers strong returns.",
		Findings: []findings.Finding{{
			Type:     findings.TypeCompliance,
			Severity: findings.SeverityHigh,
			Triggers: []string{"always"},
		}},
	})

	assert.True(t, strings.HasPrefix(text, "This stock typically delivers strong returns."))
	assert.Contains(t, text, "not financial advice")
	assert.Equal(t, []string{"Softened 'always' to 'typically'", "Added financial disclaimer"}, changes)
}

func TestSuggestFallsBackWhenCriticalTriggerRemains(t *testing.T) {
	res := correction.New(nil, 0, discard()).Suggest(context.Background(), correction.Input{
		Response: "Expect 12% returns every year.",
		Status:   findings.StatusBlocked,
		Findings: []findings.Finding{{
			Type:     findings.TypeCompliance,
			Severity: findings.SeverityCritical,
			Triggers: []string{"12% returns"},
		}},
	})

	assert.False(t, res.Suggested)
	assert.Equal(t, correction.SafeFallback, res.Response)
	assert.Empty(t, res.Changes)
	assert.Empty(t, res.Diff)
}

type stubGenerator struct {
	text  string
	err   error
	block bool
}

func (g stubGenerator) Rewrite(ctx context.Context, _ correction.RewriteRequest) (string, error) {
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.text, g.err
}

func TestSuggestWithGenerator(t *testing.T) {
	in := correction.Input{
		Response: "We guarantee you will receive your refund within 24 hours.",
		Status:   findings.StatusFlagged,
		Findings: []findings.Finding{guaranteeFinding()},
	}

	t.Run("success", func(t *testing.T) {
		a := correction.New(stubGenerator{text: "Refunds are usually processed within 7-10 business days."}, time.Second, discard())
		res := a.Suggest(context.Background(), in)
		assert.True(t, res.Generative)
		assert.Equal(t, "Refunds are usually processed within 7-10 business days.", res.Response)
		assert.Equal(t, "Applied generative rewrite", res.Changes[len(res.Changes)-1])
	})

	t.Run("failure keeps draft", func(t *testing.T) {
		a := correction.New(stubGenerator{err: errors.New("quota exceeded")}, time.Second, discard())
		res := a.Suggest(context.Background(), in)
		assert.True(t, res.Suggested)
		assert.False(t, res.Generative)
		assert.Contains(t, res.Response, "7-10 business days")
	})

	t.Run("timeout keeps draft", func(t *testing.T) {
		a := correction.New(stubGenerator{block: true}, 10*time.Millisecond, discard())
		res := a.Suggest(context.Background(), in)
		assert.True(t, res.Suggested)
		assert.False(t, res.Generative)
	})

	t.Run("rewrite keeping critical trigger is rejected", func(t *testing.T) {
		a := correction.New(stubGenerator{text: "We guarantee a fast refund."}, time.Second, discard())
		res := a.Suggest(context.Background(), in)
		assert.False(t, res.Generative)
		assert.NotContains(t, res.Response, "guarantee")
	})
}

func TestDiff(t *testing.T) {
	patch := correction.Diff("refund within 24 hours", "refund within 7-10 business days")
	assert.Contains(t, patch, "@@")
	assert.Contains(t, patch, "business days")
	assert.Empty(t, correction.Diff("same", "same"))
}

type stubChat struct {
	content string
	err     error
	calls   atomic.Int32
}

func (s *stubChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls.Add(1)
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: s.content},
		}},
	}, nil
}

func TestOpenAIGenerator(t *testing.T) {
	rc := retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	chat := &stubChat{content: "  Refunds take 7-10 business days.  "}
	out, err := correction.NewOpenAIGenerator(chat, "gpt-4o-mini", rc).Rewrite(context.Background(), correction.RewriteRequest{
		Query:    "refund?",
		Original: "instant refunds",
		Findings: []findings.Finding{guaranteeFinding()},
	})
	require.NoError(t, err)
	assert.Equal(t, "Refunds take 7-10 business days.", out)

	failing := &stubChat{err: errors.New("503")}
	_, err = correction.NewOpenAIGenerator(failing, "gpt-4o-mini", rc).Rewrite(context.Background(), correction.RewriteRequest{})
	assert.Error(t, err)
	assert.Equal(t, int32(2), failing.calls.Load())
}
