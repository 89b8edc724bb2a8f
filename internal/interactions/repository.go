package interactions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/signals"
	"github.com/JaimeStill/verity/pkg/pagination"
	"github.com/JaimeStill/verity/pkg/query"
	"github.com/JaimeStill/verity/pkg/repository"
	"github.com/JaimeStill/verity/pkg/storage"
)

const similarTerms = 3

type repo struct {
	db         *sql.DB
	store      storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an audit store implementing the System interface.
// store may be nil, in which case exports are returned inline.
func New(db *sql.DB, store storage.System, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		store:      store,
		logger:     logger.With("system", "interactions"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Record(ctx context.Context, rec Record) (*Detail, error) {
	if err := rec.validate(); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO interactions(id, organization_id, user_query, ai_response, validated_response,
			status, confidence_score, confidence_breakdown, ai_model, session_id, processing_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + returning

	args := []any{
		uuid.New(),
		rec.OrganizationID,
		rec.UserQuery,
		rec.AIResponse,
		rec.ValidatedResponse,
		rec.Status,
		rec.ConfidenceScore,
		[]byte(rec.Breakdown),
		rec.AIModel,
		rec.SessionID,
		rec.ProcessingTimeMS,
	}

	detail, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Detail, error) {
		i, err := repository.QueryOne(ctx, tx, q, args, scanInteraction)
		if err != nil {
			return Detail{}, fmt.Errorf("insert interaction: %w", err)
		}

		violations, err := insertViolations(ctx, tx, i, rec.Violations)
		if err != nil {
			return Detail{}, err
		}

		results, err := insertResults(ctx, tx, i.ID, rec.Claims)
		if err != nil {
			return Detail{}, err
		}

		citations, err := insertCitations(ctx, tx, i.ID, rec.Citations)
		if err != nil {
			return Detail{}, err
		}

		i.ViolationCount = len(violations)

		return Detail{
			Interaction:         i,
			Violations:          violations,
			VerificationResults: results,
			Citations:           citations,
		}, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	detail.Explanation = Explain(detail.Interaction, detail.Violations, detail.VerificationResults, detail.Citations)

	r.logger.Info(
		"interaction recorded",
		"id", detail.Interaction.ID,
		"organization_id", rec.OrganizationID,
		"status", detail.Interaction.Status,
		"violations", len(detail.Violations),
	)
	return &detail, nil
}

func (r *repo) List(
	ctx context.Context,
	orgID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Interaction], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("OrganizationID", orgID).
		WhereSearch(page.Search, "UserQuery", "AIResponse")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count interactions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildWindow(page.PageSize, page.Offset())
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanInteraction)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, orgID, id uuid.UUID) (*Detail, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("ID", id).
		WhereEquals("OrganizationID", orgID).
		BuildSingleOrNull()

	i, err := repository.QueryOne(ctx, r.db, q, args, scanInteraction)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	vq, vargs := query.
		NewBuilder(violationProjection, query.SortField{Field: "CreatedAt"}).
		WhereEquals("InteractionID", id).
		WhereEquals("vi.organization_id", orgID).
		Build()
	violations, err := repository.QueryMany(ctx, r.db, vq, vargs, scanViolation)
	if err != nil {
		return nil, fmt.Errorf("query violations: %w", err)
	}

	rq, rargs := query.
		NewBuilder(resultProjection).
		WhereEquals("InteractionID", id).
		WhereEquals("ri.organization_id", orgID).
		Build()
	results, err := repository.QueryMany(ctx, r.db, rq, rargs, scanResult)
	if err != nil {
		return nil, fmt.Errorf("query verification results: %w", err)
	}

	cq, cargs := query.
		NewBuilder(citationProjection).
		WhereEquals("InteractionID", id).
		WhereEquals("ci.organization_id", orgID).
		Build()
	citations, err := repository.QueryMany(ctx, r.db, cq, cargs, scanCitation)
	if err != nil {
		return nil, fmt.Errorf("query citations: %w", err)
	}

	return &Detail{
		Interaction:         i,
		Violations:          violations,
		VerificationResults: results,
		Citations:           citations,
		Explanation:         Explain(i, violations, results, citations),
	}, nil
}

func (r *repo) ListViolations(
	ctx context.Context,
	orgID uuid.UUID,
	page pagination.PageRequest,
	filters ViolationFilters,
) (*pagination.PageResult[Violation], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(violationProjection, violationSort).
		WhereEquals("vi.organization_id", orgID).
		WhereSearch(page.Search, "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count violations: %w", err)
	}

	pageSQL, pageArgs := qb.BuildWindow(page.PageSize, page.Offset())
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanViolation)
	if err != nil {
		return nil, fmt.Errorf("query violations: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Similar(ctx context.Context, orgID uuid.UUID, q string, limit int) ([]string, error) {
	terms := signals.SignificantWords(q)
	if len(terms) == 0 {
		return nil, nil
	}
	if len(terms) > similarTerms {
		terms = terms[:similarTerms]
	}
	if limit <= 0 {
		limit = 10
	}

	args := []any{orgID, findings.StatusApproved}
	clauses := make([]string, len(terms))
	for n, t := range terms {
		args = append(args, query.ContainsPattern(t))
		clauses[n] = fmt.Sprintf("user_query ILIKE $%d", len(args))
	}

	sqlText := fmt.Sprintf(`
		SELECT ai_response FROM interactions
		WHERE organization_id = $1 AND status = $2 AND (%s)
		ORDER BY timestamp DESC
		LIMIT %d`, strings.Join(clauses, " OR "), limit)

	responses, err := repository.QueryMany(ctx, r.db, sqlText, args, func(s repository.Scanner) (string, error) {
		var text string
		err := s.Scan(&text)
		return text, err
	})
	if err != nil {
		return nil, fmt.Errorf("query similar interactions: %w", err)
	}
	return responses, nil
}

func (rec Record) validate() error {
	if rec.OrganizationID == uuid.Nil {
		return fmt.Errorf("%w: organization is required", ErrInvalidInput)
	}
	if strings.TrimSpace(rec.UserQuery) == "" || strings.TrimSpace(rec.AIResponse) == "" {
		return fmt.Errorf("%w: query and response are required", ErrInvalidInput)
	}
	if _, err := findings.ParseStatus(string(rec.Status)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func insertViolations(ctx context.Context, tx *sql.Tx, i Interaction, fs []findings.Finding) ([]Violation, error) {
	q := `
		INSERT INTO violations(id, interaction_id, violation_type, severity, description,
			rule_id, policy_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	out := make([]Violation, 0, len(fs))
	for _, f := range fs {
		v := Violation{
			ID:            uuid.New(),
			InteractionID: i.ID,
			Type:          f.Type,
			Severity:      f.Severity,
			Description:   f.Description,
			RuleID:        f.RuleID,
			PolicyID:      f.PolicyID,
			CreatedAt:     i.Timestamp,
		}
		out = append(out, v)
	}

	err := repository.ExecEach(ctx, tx, q, out, func(v Violation) []any {
		return []any{v.ID, v.InteractionID, v.Type, v.Severity, v.Description, v.RuleID, v.PolicyID, v.CreatedAt}
	})
	if err != nil {
		return nil, fmt.Errorf("insert violation: %w", err)
	}
	return out, nil
}

func insertResults(ctx context.Context, tx *sql.Tx, interactionID uuid.UUID, claims []signals.ClaimResult) ([]VerificationResult, error) {
	q := `
		INSERT INTO verification_results(id, interaction_id, claim_text, claim_type,
			verification_status, source, confidence, verification_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	out := make([]VerificationResult, 0, len(claims))
	for _, c := range claims {
		vr := VerificationResult{
			ID:            uuid.New(),
			InteractionID: interactionID,
			ClaimText:     c.Claim.Text,
			ClaimType:     c.Claim.Type,
			Status:        c.Verdict.Status,
			Confidence:    c.Verdict.Confidence,
			Method:        c.Method,
		}
		if c.Verdict.Source != "" {
			source := c.Verdict.Source
			vr.Source = &source
		}
		out = append(out, vr)
	}

	err := repository.ExecEach(ctx, tx, q, out, func(vr VerificationResult) []any {
		return []any{vr.ID, vr.InteractionID, vr.ClaimText, vr.ClaimType, vr.Status, vr.Source, vr.Confidence, vr.Method}
	})
	if err != nil {
		return nil, fmt.Errorf("insert verification result: %w", err)
	}
	return out, nil
}

func insertCitations(ctx context.Context, tx *sql.Tx, interactionID uuid.UUID, cs []signals.CitationResult) ([]Citation, error) {
	q := `
		INSERT INTO citations(id, interaction_id, url, is_valid, content_match,
			http_status_code, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	out := make([]Citation, 0, len(cs))
	for _, cr := range cs {
		c := Citation{
			ID:            uuid.New(),
			InteractionID: interactionID,
			URL:           cr.URL,
			IsValid:       cr.IsValid,
			ContentMatch:  cr.ContentMatch,
			StatusCode:    cr.StatusCode,
			Error:         cr.Error,
		}
		out = append(out, c)
	}

	err := repository.ExecEach(ctx, tx, q, out, func(c Citation) []any {
		return []any{c.ID, c.InteractionID, c.URL, c.IsValid, c.ContentMatch, c.StatusCode, c.Error}
	})
	if err != nil {
		return nil, fmt.Errorf("insert citation: %w", err)
	}
	return out, nil
}
