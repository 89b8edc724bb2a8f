package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/verity/internal/correction"
	"github.com/JaimeStill/verity/internal/evaluation"
	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/interactions"
	"github.com/JaimeStill/verity/internal/organizations"
	"github.com/JaimeStill/verity/internal/policies"
	"github.com/JaimeStill/verity/internal/rules"
	"github.com/JaimeStill/verity/internal/scoring"
	"github.com/JaimeStill/verity/internal/signals"
	"github.com/JaimeStill/verity/pkg/metrics"
)

var tracer = otel.Tracer("verity.validation")

const (
	degradedScore     = 0.5
	sourceUnavailable = "source_unavailable"
	timedOut          = "timeout"
)

// OrganizationSource resolves the tenant of a request.
type OrganizationSource interface {
	Find(ctx context.Context, id uuid.UUID) (*organizations.Organization, error)
}

// RuleSource supplies the rules that apply to an organization.
type RuleSource interface {
	Applicable(ctx context.Context, orgID uuid.UUID, industry *string) ([]rules.Rule, error)
}

// PolicySource supplies an organization's active policies.
type PolicySource interface {
	Active(ctx context.Context, orgID uuid.UUID) ([]policies.Policy, error)
}

// Recorder persists a validated interaction and its children atomically.
type Recorder interface {
	Record(ctx context.Context, rec interactions.Record) (*interactions.Detail, error)
}

// Timeouts bound each concurrent stage of the pipeline.
type Timeouts struct {
	Rules       time.Duration
	Facts       time.Duration
	Citations   time.Duration
	Consistency time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Rules <= 0 {
		t.Rules = 5 * time.Second
	}
	if t.Facts <= 0 {
		t.Facts = 10 * time.Second
	}
	if t.Citations <= 0 {
		t.Citations = 15 * time.Second
	}
	if t.Consistency <= 0 {
		t.Consistency = 5 * time.Second
	}
	return t
}

// Deps wires the pipeline. Facts, Citations, and Consistency are optional;
// a nil collector leaves its component absent and its weight is renormalized.
type Deps struct {
	Organizations OrganizationSource
	Rules         RuleSource
	Policies      PolicySource
	Evaluator     *evaluation.Evaluator
	Extractor     signals.Extractor
	Facts         *signals.FactChecker
	Citations     *signals.CitationChecker
	Consistency   *signals.ConsistencyChecker
	Scorer        *scoring.Scorer
	Settings      scoring.Settings
	Advisor       *correction.Advisor
	Audit         Recorder
	Metrics       *metrics.Metrics
	Timeouts      Timeouts
}

// Pipeline runs validations. It holds no per-request state.
type Pipeline struct {
	deps   Deps
	logger *slog.Logger
}

// New creates a Pipeline.
func New(deps Deps, logger *slog.Logger) *Pipeline {
	if deps.Extractor == nil {
		deps.Extractor = signals.ProseExtractor{}
	}
	deps.Timeouts = deps.Timeouts.withDefaults()
	return &Pipeline{
		deps:   deps,
		logger: logger.With("system", "validation"),
	}
}

// Handler creates the validate endpoint handler.
func (p *Pipeline) Handler() *Handler {
	return NewHandler(p, p.logger)
}

// collected holds the output of the concurrent stage. Each field is written
// by exactly one goroutine.
type collected struct {
	compliance  []findings.Finding
	claims      []signals.ClaimResult
	citations   []signals.CitationResult
	factFinds   []findings.Finding
	citeFinds   []findings.Finding
	consistFind []findings.Finding

	facts       *scoring.Signal
	citeSignal  *scoring.Signal
	consistency *scoring.Signal
}

// Validate evaluates req for orgID and records the decision. It fails only on
// invalid input, an unknown organization, or a persistence error; collector
// failures degrade their component instead.
func (p *Pipeline) Validate(ctx context.Context, orgID uuid.UUID, req Request) (*Response, error) {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "validation.Validate",
		trace.WithAttributes(attribute.String("organization_id", orgID.String())),
	)
	defer span.End()

	if err := req.validate(orgID); err != nil {
		return nil, err
	}

	org, err := p.deps.Organizations.Find(ctx, orgID)
	if err != nil {
		if errors.Is(err, organizations.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOrganization, orgID)
		}
		return nil, p.fail(span, fmt.Errorf("load organization: %w", err))
	}

	c, err := p.collect(ctx, org, req)
	if err != nil {
		return nil, p.fail(span, err)
	}

	var violations []findings.Finding
	violations = append(violations, c.compliance...)
	violations = append(violations, c.factFinds...)
	violations = append(violations, c.citeFinds...)
	violations = append(violations, c.consistFind...)

	sigs := map[scoring.Component]scoring.Signal{
		scoring.Compliance:      scoring.ComplianceSignal(c.compliance),
		scoring.ResponseClarity: signals.Clarity(req.AIResponse),
	}
	if c.facts != nil {
		sigs[scoring.FactVerification] = *c.facts
	}
	if c.citeSignal != nil {
		sigs[scoring.CitationValidity] = *c.citeSignal
	}
	if c.consistency != nil {
		sigs[scoring.Consistency] = *c.consistency
	}

	profile, thresholds, renormalized := p.deps.Settings.For(orgID)
	if renormalized {
		p.logger.Warn("organization weight profile renormalized", "organization_id", orgID)
	}

	result := p.deps.Scorer.Score(profile, thresholds, sigs, violations)
	status := result.Status
	stored := breakdown{Breakdown: result.Breakdown}

	var fix correction.Result
	var validated *string
	if correction.Applies(status) && p.deps.Advisor != nil {
		fix = p.correct(ctx, req, status, violations, c.claims)
		stored.Correction = newCorrectionDetails(fix)

		// The decision stands; a correction travels alongside it.
		if fix.Suggested || status == findings.StatusBlocked {
			validated = &fix.Response
		}
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, p.fail(span, fmt.Errorf("encode breakdown: %w", err))
	}

	elapsed := int(time.Since(start).Milliseconds())

	detail, err := p.deps.Audit.Record(ctx, interactions.Record{
		OrganizationID:    orgID,
		UserQuery:         req.Query,
		AIResponse:        req.AIResponse,
		ValidatedResponse: validated,
		Status:            status,
		ConfidenceScore:   result.Score,
		Breakdown:         raw,
		AIModel:           req.AIModel,
		SessionID:         req.SessionID,
		ProcessingTimeMS:  elapsed,
		Violations:        violations,
		Claims:            c.claims,
		Citations:         c.citations,
	})
	if err != nil {
		return nil, p.fail(span, fmt.Errorf("record interaction: %w", err))
	}

	p.observe(status, result.Score, violations, time.Since(start))
	span.SetAttributes(
		attribute.String("status", string(status)),
		attribute.Float64("confidence_score", result.Score),
	)

	p.logger.Info(
		"response validated",
		"interaction_id", detail.Interaction.ID,
		"organization_id", orgID,
		"status", status,
		"confidence_score", result.Score,
		"violations", len(violations),
		"duration_ms", elapsed,
	)

	resp := &Response{
		InteractionID:       detail.Interaction.ID,
		Status:              status,
		ConfidenceScore:     result.Score,
		ConfidenceBreakdown: raw,
		Violations:          detail.Violations,
		VerificationResults: detail.VerificationResults,
		Citations:           detail.Citations,
		Explanation:         detail.Explanation,
		CorrectionSuggested: fix.Suggested,
		ValidatedResponse:   validated,
		ProcessingTimeMS:    elapsed,
	}
	if len(fix.Changes) > 0 {
		resp.ChangesMade = fix.Changes
	}
	return resp, nil
}

// collect runs the rule evaluator and the signal collectors concurrently.
// Only a rule store failure cancels the group; collector failures degrade.
func (p *Pipeline) collect(ctx context.Context, org *organizations.Organization, req Request) (*collected, error) {
	c := &collected{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		found, err := p.evaluate(gctx, org, req.AIResponse)
		if err != nil {
			return err
		}
		c.compliance = found
		return nil
	})

	if p.deps.Facts != nil {
		g.Go(func() error {
			p.collectFacts(gctx, req, c)
			return nil
		})
	}

	if p.deps.Citations != nil {
		g.Go(func() error {
			p.collectCitations(gctx, req, c)
			return nil
		})
	}

	if p.deps.Consistency != nil {
		g.Go(func() error {
			p.collectConsistency(gctx, org.ID, req, c)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Pipeline) evaluate(ctx context.Context, org *organizations.Organization, text string) ([]findings.Finding, error) {
	ctx, span := tracer.Start(ctx, "validation.rules")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.deps.Timeouts.Rules)
	defer cancel()

	rs, err := p.deps.Rules.Applicable(ctx, org.ID, org.Industry)
	if err != nil {
		return nil, p.fail(span, fmt.Errorf("load rules: %w", err))
	}

	ps, err := p.deps.Policies.Active(ctx, org.ID)
	if err != nil {
		return nil, p.fail(span, fmt.Errorf("load policies: %w", err))
	}

	span.SetAttributes(attribute.Int("rules", len(rs)), attribute.Int("policies", len(ps)))
	return p.deps.Evaluator.Evaluate(ctx, text, rs, ps), nil
}

func (p *Pipeline) collectFacts(ctx context.Context, req Request, c *collected) {
	ctx, span := tracer.Start(ctx, "validation.facts")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.deps.Timeouts.Facts)
	defer cancel()

	claims, err := p.deps.Extractor.Extract(ctx, req.AIResponse)
	if err != nil {
		c.facts = p.degrade(span, scoring.FactVerification, err)
		return
	}

	report, err := p.deps.Facts.Check(ctx, req.Query, claims)
	if err != nil {
		c.facts = p.degrade(span, scoring.FactVerification, err)
		return
	}

	if report.Signal.Details[string(scoring.FactVerification)] == sourceUnavailable {
		p.countDegraded(scoring.FactVerification)
	}

	span.SetAttributes(attribute.Int("claims", len(report.Results)))
	c.claims = report.Results
	c.factFinds = report.Findings
	c.facts = &report.Signal
}

func (p *Pipeline) collectCitations(ctx context.Context, req Request, c *collected) {
	ctx, span := tracer.Start(ctx, "validation.citations")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.deps.Timeouts.Citations)
	defer cancel()

	report, err := p.deps.Citations.Check(ctx, req.AIResponse)
	if err != nil {
		c.citeSignal = p.degrade(span, scoring.CitationValidity, err)
		return
	}

	span.SetAttributes(attribute.Int("citations", len(report.Results)))
	c.citations = report.Results
	c.citeFinds = report.Findings
	c.citeSignal = &report.Signal
}

func (p *Pipeline) collectConsistency(ctx context.Context, orgID uuid.UUID, req Request, c *collected) {
	ctx, span := tracer.Start(ctx, "validation.consistency")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.deps.Timeouts.Consistency)
	defer cancel()

	report, err := p.deps.Consistency.Check(ctx, orgID, req.Query, req.AIResponse)
	if err != nil {
		c.consistency = p.degrade(span, scoring.Consistency, err)
		return
	}

	c.consistFind = report.Findings
	c.consistency = &report.Signal
}

func (p *Pipeline) correct(
	ctx context.Context,
	req Request,
	status findings.Status,
	violations []findings.Finding,
	claims []signals.ClaimResult,
) correction.Result {
	ctx, span := tracer.Start(ctx, "validation.correction")
	defer span.End()

	res := p.deps.Advisor.Suggest(ctx, correction.Input{
		Query:    req.Query,
		Response: req.AIResponse,
		Status:   status,
		Findings: violations,
		Claims:   claims,
	})
	span.SetAttributes(
		attribute.Bool("suggested", res.Suggested),
		attribute.Bool("generative", res.Generative),
	)
	return res
}

// degrade replaces a failed component with a neutral-low signal that records why.
func (p *Pipeline) degrade(span trace.Span, component scoring.Component, err error) *scoring.Signal {
	reason := sourceUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		reason = timedOut
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, reason)

	p.logger.Warn("signal collector degraded", "component", component, "reason", reason, "error", err)
	p.countDegraded(component)

	return &scoring.Signal{
		Score: degradedScore,
		Details: map[string]any{
			string(component): reason,
			"error":           err.Error(),
		},
	}
}

func (p *Pipeline) countDegraded(component scoring.Component) {
	if p.deps.Metrics != nil {
		p.deps.Metrics.CollectorDegraded.WithLabelValues(string(component)).Inc()
	}
}

func (p *Pipeline) observe(status findings.Status, score float64, violations []findings.Finding, elapsed time.Duration) {
	m := p.deps.Metrics
	if m == nil {
		return
	}
	m.ValidationsTotal.WithLabelValues(string(status)).Inc()
	m.ValidationDuration.Observe(elapsed.Seconds())
	m.ConfidenceScore.Observe(score)
	for _, v := range violations {
		m.ViolationsTotal.WithLabelValues(string(v.Type), string(v.Severity)).Inc()
	}
}

func (p *Pipeline) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (r Request) validate(orgID uuid.UUID) error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.AIResponse) == "" {
		return fmt.Errorf("%w: ai_response is required", ErrInvalidInput)
	}
	if orgID == uuid.Nil {
		return fmt.Errorf("%w: organization is required", ErrInvalidInput)
	}
	if r.OrganizationID != nil && *r.OrganizationID != orgID {
		return ErrForbidden
	}
	return nil
}
