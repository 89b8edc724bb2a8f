package validation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/JaimeStill/verity/internal/correction"
	"github.com/JaimeStill/verity/internal/evaluation"
	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/interactions"
	"github.com/JaimeStill/verity/internal/organizations"
	"github.com/JaimeStill/verity/internal/policies"
	"github.com/JaimeStill/verity/internal/rules"
	"github.com/JaimeStill/verity/internal/scoring"
	"github.com/JaimeStill/verity/internal/signals"
	"github.com/JaimeStill/verity/internal/validation"
	"github.com/JaimeStill/verity/pkg/metrics"
	"github.com/JaimeStill/verity/pkg/middleware"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var orgID = uuid.MustParse("3a1f5c7e-2b4d-4e6f-8a9b-0c1d2e3f4a01")

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type orgStore struct{ err error }

func (s orgStore) Find(_ context.Context, id uuid.UUID) (*organizations.Organization, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &organizations.Organization{ID: id, Name: "Acme"}, nil
}

type ruleStore struct {
	rules []rules.Rule
	err   error
}

func (s ruleStore) Applicable(context.Context, uuid.UUID, *string) ([]rules.Rule, error) {
	return s.rules, s.err
}

type policyStore struct{ policies []policies.Policy }

func (s policyStore) Active(context.Context, uuid.UUID) ([]policies.Policy, error) {
	return s.policies, nil
}

// recorder mirrors the audit store's Record without a database.
type recorder struct {
	mu      sync.Mutex
	records []interactions.Record
	err     error
}

func (r *recorder) Record(_ context.Context, rec interactions.Record) (*interactions.Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	r.records = append(r.records, rec)

	i := interactions.Interaction{
		ID:                uuid.New(),
		OrganizationID:    rec.OrganizationID,
		UserQuery:         rec.UserQuery,
		AIResponse:        rec.AIResponse,
		ValidatedResponse: rec.ValidatedResponse,
		Status:            rec.Status,
		ConfidenceScore:   rec.ConfidenceScore,
		Breakdown:         rec.Breakdown,
		Timestamp:         time.Now(),
		ViolationCount:    len(rec.Violations),
	}

	violations := make([]interactions.Violation, len(rec.Violations))
	for n, f := range rec.Violations {
		violations[n] = interactions.Violation{
			ID:            uuid.New(),
			InteractionID: i.ID,
			Type:          f.Type,
			Severity:      f.Severity,
			Description:   f.Description,
			RuleID:        f.RuleID,
			PolicyID:      f.PolicyID,
		}
	}

	results := make([]interactions.VerificationResult, len(rec.Claims))
	for n, c := range rec.Claims {
		results[n] = interactions.VerificationResult{
			ID:            uuid.New(),
			InteractionID: i.ID,
			ClaimText:     c.Claim.Text,
			ClaimType:     c.Claim.Type,
			Status:        c.Verdict.Status,
			Confidence:    c.Verdict.Confidence,
			Method:        c.Method,
		}
	}

	return &interactions.Detail{
		Interaction:         i,
		Violations:          violations,
		VerificationResults: results,
		Explanation:         interactions.Explain(i, violations, results, nil),
	}, nil
}

type staticExtractor struct {
	claims []signals.Claim
	err    error
}

func (e staticExtractor) Extract(context.Context, string) ([]signals.Claim, error) {
	return e.claims, e.err
}

// blockingExtractor never returns before its context ends.
type blockingExtractor struct{}

func (blockingExtractor) Extract(ctx context.Context, _ string) ([]signals.Claim, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type stubSource struct{ verdict signals.Verdict }

func (s stubSource) Name() string { return "stub" }

func (s stubSource) Verify(context.Context, signals.Claim, string) (signals.Verdict, error) {
	return s.verdict, nil
}

type emptyHistory struct{}

func (emptyHistory) Similar(context.Context, uuid.UUID, string, int) ([]string, error) {
	return nil, nil
}

type failingHistory struct{}

func (failingHistory) Similar(context.Context, uuid.UUID, string, int) ([]string, error) {
	return nil, errors.New("connection refused")
}

func guaranteeRule(action rules.Action, severity findings.Severity) rules.Rule {
	return rules.Rule{
		ID:   uuid.MustParse("9e8d7c6b-5a4f-4e3d-2c1b-0a9f8e7d6c02"),
		Name: "Refund promises",
		Definition: rules.NewDefinition(rules.KeywordMatch{
			Keywords: []string{"guarantee", "24 hours"},
			Outcome:  rules.Outcome{Action: action},
		}),
		Severity: severity,
		IsActive: true,
	}
}

func baseDeps(audit *recorder) validation.Deps {
	return validation.Deps{
		Organizations: orgStore{},
		Rules:         ruleStore{},
		Policies:      policyStore{},
		Evaluator:     evaluation.New(evaluation.Substring{}, discard()),
		Scorer:        scoring.New(discard()),
		Settings: scoring.Settings{
			Profile:    scoring.DefaultProfile(),
			Thresholds: scoring.DefaultThresholds(),
		},
		Audit:   audit,
		Metrics: metrics.New(),
	}
}

type storedBreakdown struct {
	Components map[string]struct {
		Score   float64        `json:"score"`
		Details map[string]any `json:"details"`
	} `json:"components"`
	Correction *struct {
		Suggested bool     `json:"correction_suggested"`
		Changes   []string `json:"changes_made"`
		Diff      string   `json:"diff"`
	} `json:"correction"`
}

func decodeBreakdown(t *testing.T, raw json.RawMessage) storedBreakdown {
	t.Helper()
	var b storedBreakdown
	require.NoError(t, json.Unmarshal(raw, &b))
	return b
}

func TestValidateSnakeScenario(t *testing.T) {
	audit := &recorder{}
	deps := baseDeps(audit)
	deps.Extractor = staticExtractor{claims: []signals.Claim{
		{Text: "Python is a snake", Type: signals.ClaimFactual, Confidence: 0.7},
	}}
	deps.Facts = signals.NewFactChecker(
		[]signals.Source{stubSource{verdict: signals.Verdict{
			Status:     signals.StatusFalse,
			Confidence: 0.9,
			Source:     "stub",
			Details:    "Python is a programming language",
		}}},
		nil, nil, signals.FactConfig{MaxClaims: 10, SourceTimeout: time.Second}, discard(),
	)
	deps.Advisor = correction.New(nil, time.Second, discard())

	p := validation.New(deps, discard())
	resp, err := p.Validate(context.Background(), orgID, validation.Request{
		Query:      "What is Python?",
		AIResponse: "Python is a snake.",
	})
	require.NoError(t, err)

	assert.Contains(t, []findings.Status{findings.StatusBlocked, findings.StatusFlagged}, resp.Status)

	var hallucinations int
	for _, v := range resp.Violations {
		if v.Type == findings.TypeHallucination {
			hallucinations++
		}
	}
	assert.Equal(t, 1, hallucinations)

	b := decodeBreakdown(t, resp.ConfidenceBreakdown)
	assert.Less(t, b.Components["fact_verification"].Score, 0.5)

	require.Len(t, resp.VerificationResults, 1)
	assert.Equal(t, signals.StatusFalse, resp.VerificationResults[0].Status)

	require.Len(t, audit.records, 1)
	assert.Equal(t, resp.Status, audit.records[0].Status)
	assert.Equal(t, []byte(resp.ConfidenceBreakdown), []byte(audit.records[0].Breakdown))
}

func TestValidateGuaranteeScenario(t *testing.T) {
	audit := &recorder{}
	deps := baseDeps(audit)
	deps.Rules = ruleStore{rules: []rules.Rule{guaranteeRule(rules.ActionBlock, findings.SeverityHigh)}}

	p := validation.New(deps, discard())
	resp, err := p.Validate(context.Background(), orgID, validation.Request{
		Query:      "How fast are refunds?",
		AIResponse: "We guarantee immediate refund within 24 hours.",
	})
	require.NoError(t, err)

	require.Len(t, resp.Violations, 1)
	assert.Equal(t, findings.TypeCompliance, resp.Violations[0].Type)
	assert.Equal(t, findings.SeverityHigh, resp.Violations[0].Severity)

	b := decodeBreakdown(t, resp.ConfidenceBreakdown)
	assert.InDelta(t, 0.7, b.Components["compliance"].Score, 1e-9)
	assert.Equal(t, findings.StatusFlagged, resp.Status)
	assert.False(t, resp.CorrectionSuggested)
	assert.Nil(t, resp.ValidatedResponse)
}

func TestValidateCorrectsFlaggedResponse(t *testing.T) {
	audit := &recorder{}
	deps := baseDeps(audit)
	deps.Rules = ruleStore{rules: []rules.Rule{guaranteeRule(rules.ActionFlag, findings.SeverityMedium)}}
	deps.Advisor = correction.New(nil, time.Second, discard())

	p := validation.New(deps, discard())
	resp, err := p.Validate(context.Background(), orgID, validation.Request{
		Query:      "How fast are refunds?",
		AIResponse: "We guarantee you will receive your refund within 24 hours.",
	})
	require.NoError(t, err)

	assert.Equal(t, findings.StatusFlagged, resp.Status)
	assert.True(t, resp.CorrectionSuggested)
	require.NotNil(t, resp.ValidatedResponse)
	assert.NotContains(t, *resp.ValidatedResponse, "guarantee")
	assert.NotEmpty(t, resp.ChangesMade)

	b := decodeBreakdown(t, resp.ConfidenceBreakdown)
	require.NotNil(t, b.Correction)
	assert.True(t, b.Correction.Suggested)
	assert.NotEmpty(t, b.Correction.Diff)

	require.Len(t, audit.records, 1)
	assert.Equal(t, findings.StatusFlagged, audit.records[0].Status)
	assert.Equal(t, resp.ValidatedResponse, audit.records[0].ValidatedResponse)
}

func TestValidateCriticalViolationBlocks(t *testing.T) {
	audit := &recorder{}
	deps := baseDeps(audit)
	deps.Rules = ruleStore{rules: []rules.Rule{guaranteeRule(rules.ActionBlock, findings.SeverityCritical)}}
	deps.Advisor = correction.New(nil, time.Second, discard())

	p := validation.New(deps, discard())
	resp, err := p.Validate(context.Background(), orgID, validation.Request{
		Query:      "How fast are refunds?",
		AIResponse: "We guarantee you will receive your refund within 24 hours.",
	})
	require.NoError(t, err)

	assert.Equal(t, findings.StatusBlocked, resp.Status)
	require.NotNil(t, resp.ValidatedResponse)
}

func TestValidateDegradesFailedCollectors(t *testing.T) {
	tests := []struct {
		name      string
		extractor signals.Extractor
		timeout   time.Duration
		reason    string
	}{
		{
			name:      "extractor error",
			extractor: staticExtractor{err: errors.New("model unavailable")},
			timeout:   time.Second,
			reason:    "source_unavailable",
		},
		{
			name:      "timeout",
			extractor: blockingExtractor{},
			timeout:   10 * time.Millisecond,
			reason:    "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &recorder{}
			deps := baseDeps(audit)
			deps.Extractor = tt.extractor
			deps.Facts = signals.NewFactChecker(nil, nil, nil, signals.FactConfig{}, discard())
			deps.Consistency = signals.NewConsistencyChecker(failingHistory{}, 10, discard())
			deps.Timeouts = validation.Timeouts{Facts: tt.timeout}

			p := validation.New(deps, discard())
			resp, err := p.Validate(context.Background(), orgID, validation.Request{
				Query:      "What is the capital of France?",
				AIResponse: "The capital of France is Paris.",
			})
			require.NoError(t, err)

			b := decodeBreakdown(t, resp.ConfidenceBreakdown)

			facts := b.Components["fact_verification"]
			assert.Equal(t, 0.5, facts.Score)
			assert.Equal(t, tt.reason, facts.Details["fact_verification"])

			consistency := b.Components["consistency"]
			assert.Equal(t, 0.5, consistency.Score)
			assert.Equal(t, "source_unavailable", consistency.Details["consistency"])

			assert.Len(t, audit.records, 1)
		})
	}
}

func TestValidateConsistencyWithoutHistory(t *testing.T) {
	audit := &recorder{}
	deps := baseDeps(audit)
	deps.Consistency = signals.NewConsistencyChecker(emptyHistory{}, 10, discard())

	p := validation.New(deps, discard())
	resp, err := p.Validate(context.Background(), orgID, validation.Request{
		Query:      "What are your opening hours?",
		AIResponse: "Our stores open at nine in the morning on weekdays.",
	})
	require.NoError(t, err)

	b := decodeBreakdown(t, resp.ConfidenceBreakdown)
	assert.InDelta(t, 0.9, b.Components["consistency"].Score, 1e-9)
	assert.Equal(t, findings.StatusApproved, resp.Status)
}

func TestValidateRejects(t *testing.T) {
	other := uuid.New()

	tests := []struct {
		name    string
		orgs    orgStore
		req     validation.Request
		wantErr error
	}{
		{
			name:    "blank query",
			req:     validation.Request{Query: "  ", AIResponse: "text"},
			wantErr: validation.ErrInvalidInput,
		},
		{
			name:    "blank response",
			req:     validation.Request{Query: "q", AIResponse: "\n"},
			wantErr: validation.ErrInvalidInput,
		},
		{
			name:    "mismatched organization",
			req:     validation.Request{Query: "q", AIResponse: "a response", OrganizationID: &other},
			wantErr: validation.ErrForbidden,
		},
		{
			name:    "unknown organization",
			orgs:    orgStore{err: organizations.ErrNotFound},
			req:     validation.Request{Query: "q", AIResponse: "a response"},
			wantErr: validation.ErrUnknownOrganization,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &recorder{}
			deps := baseDeps(audit)
			deps.Organizations = tt.orgs

			_, err := validation.New(deps, discard()).Validate(context.Background(), orgID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, audit.records)
		})
	}
}

func TestValidateFailures(t *testing.T) {
	t.Run("rule store", func(t *testing.T) {
		audit := &recorder{}
		deps := baseDeps(audit)
		deps.Rules = ruleStore{err: errors.New("connection reset")}

		_, err := validation.New(deps, discard()).Validate(context.Background(), orgID, validation.Request{
			Query: "q", AIResponse: "a response",
		})
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, validation.MapHTTPStatus(err))
		assert.Empty(t, audit.records)
	})

	t.Run("persistence", func(t *testing.T) {
		audit := &recorder{err: errors.New("tx aborted")}
		deps := baseDeps(audit)

		_, err := validation.New(deps, discard()).Validate(context.Background(), orgID, validation.Request{
			Query: "q", AIResponse: "a response",
		})
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, validation.MapHTTPStatus(err))
	})
}

func TestHandler(t *testing.T) {
	audit := &recorder{}
	h := validation.New(baseDeps(audit), discard()).Handler()

	tests := []struct {
		name       string
		body       string
		auth       bool
		wantStatus int
	}{
		{
			name:       "valid request",
			body:       `{"query":"What is Python?","ai_response":"Python is a programming language.","ai_model":"gpt-4"}`,
			auth:       true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing response",
			body:       `{"query":"What is Python?"}`,
			auth:       true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"query":"q","ai_response":"a","extra":1}`,
			auth:       true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no credentials",
			body:       `{"query":"q","ai_response":"a"}`,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewBufferString(tt.body))
			if tt.auth {
				req = req.WithContext(middleware.WithPrincipal(req.Context(), &middleware.Principal{OrganizationID: orgID}))
			}
			rec := httptest.NewRecorder()

			h.Validate(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				for _, key := range []string{
					"interaction_id", "status", "confidence_score", "confidence_breakdown",
					"violations", "verification_results", "citations", "explanation", "correction_suggested",
				} {
					assert.Contains(t, body, key)
				}
				assert.True(t, strings.HasPrefix(body["explanation"].(string), "Response "))
			}
		})
	}
}
