package interactions

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/pkg/formatting"
	"github.com/JaimeStill/verity/pkg/query"
	"github.com/JaimeStill/verity/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "interactions", "i").
	Project("id", "ID").
	Project("organization_id", "OrganizationID").
	Project("user_query", "UserQuery").
	Project("ai_response", "AIResponse").
	Project("validated_response", "ValidatedResponse").
	Project("status", "Status").
	Project("confidence_score", "ConfidenceScore").
	Project("confidence_breakdown", "Breakdown").
	Project("ai_model", "AIModel").
	Project("session_id", "SessionID").
	Project("processing_time_ms", "ProcessingTimeMS").
	Project("timestamp", "Timestamp").
	ProjectExpr("(SELECT COUNT(*) FROM public.violations cv WHERE cv.interaction_id = i.id)", "ViolationCount")

const returning = `id, organization_id, user_query, ai_response, validated_response, status,
		confidence_score, confidence_breakdown, ai_model, session_id, processing_time_ms, timestamp, 0`

var defaultSort = query.SortField{
	Field:      "Timestamp",
	Descending: true,
}

// Child rows carry no organization_id; they are scoped through the owning interaction.
var violationProjection = query.
	NewProjectionMap("public", "violations", "v").
	Project("id", "ID").
	Project("interaction_id", "InteractionID").
	Project("violation_type", "Type").
	Project("severity", "Severity").
	Project("description", "Description").
	Project("rule_id", "RuleID").
	Project("policy_id", "PolicyID").
	Project("created_at", "CreatedAt").
	Join("public", "interactions", "vi", "JOIN", "vi.id = v.interaction_id")

var violationSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

var resultProjection = query.
	NewProjectionMap("public", "verification_results", "vr").
	Project("id", "ID").
	Project("interaction_id", "InteractionID").
	Project("claim_text", "ClaimText").
	Project("claim_type", "ClaimType").
	Project("verification_status", "Status").
	Project("source", "Source").
	Project("confidence", "Confidence").
	Project("verification_method", "Method").
	Join("public", "interactions", "ri", "JOIN", "ri.id = vr.interaction_id")

var citationProjection = query.
	NewProjectionMap("public", "citations", "c").
	Project("id", "ID").
	Project("interaction_id", "InteractionID").
	Project("url", "URL").
	Project("is_valid", "IsValid").
	Project("content_match", "ContentMatch").
	Project("http_status_code", "StatusCode").
	Project("error_message", "Error").
	Join("public", "interactions", "ci", "JOIN", "ci.id = c.interaction_id")

// Filters contains optional filtering criteria for interaction queries.
// End is an exclusive upper bound. Nil fields are ignored.
type Filters struct {
	Status    *findings.Status `json:"status,omitempty"`
	AIModel   *string          `json:"ai_model,omitempty"`
	SessionID *string          `json:"session_id,omitempty"`
	Start     *time.Time       `json:"start_date,omitempty"`
	End       *time.Time       `json:"end_date,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("AIModel", f.AIModel).
		WhereEquals("SessionID", f.SessionID).
		WhereGTE("Timestamp", f.Start).
		WhereLT("Timestamp", f.End)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Malformed dates or statuses are input errors.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	if sv := values.Get("status"); sv != "" {
		s, err := findings.ParseStatus(sv)
		if err != nil {
			return f, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		f.Status = &s
	}

	if m := values.Get("ai_model"); m != "" {
		f.AIModel = &m
	}

	if sid := values.Get("session_id"); sid != "" {
		f.SessionID = &sid
	}

	start, end, err := dateRange(values)
	if err != nil {
		return f, err
	}
	f.Start, f.End = start, end

	return f, nil
}

// ViolationFilters contains optional filtering criteria for violation queries.
type ViolationFilters struct {
	Severity      *findings.Severity `json:"severity,omitempty"`
	Type          *findings.Type     `json:"violation_type,omitempty"`
	InteractionID *uuid.UUID         `json:"interaction_id,omitempty"`
	Start         *time.Time         `json:"start_date,omitempty"`
	End           *time.Time         `json:"end_date,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f ViolationFilters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Severity", f.Severity).
		WhereEquals("Type", f.Type).
		WhereEquals("InteractionID", f.InteractionID).
		WhereGTE("CreatedAt", f.Start).
		WhereLT("CreatedAt", f.End)
}

// ViolationFiltersFromQuery extracts violation filter values from URL query parameters.
func ViolationFiltersFromQuery(values url.Values) (ViolationFilters, error) {
	var f ViolationFilters

	if sv := values.Get("severity"); sv != "" {
		s, err := findings.ParseSeverity(sv)
		if err != nil {
			return f, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		f.Severity = &s
	}

	if tv := values.Get("violation_type"); tv != "" {
		t, err := findings.ParseType(tv)
		if err != nil {
			return f, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		f.Type = &t
	}

	if iv := values.Get("interaction_id"); iv != "" {
		id, err := uuid.Parse(iv)
		if err != nil {
			return f, fmt.Errorf("%w: interaction_id: %v", ErrInvalidInput, err)
		}
		f.InteractionID = &id
	}

	start, end, err := dateRange(values)
	if err != nil {
		return f, err
	}
	f.Start, f.End = start, end

	return f, nil
}

func dateRange(values url.Values) (*time.Time, *time.Time, error) {
	start, err := formatting.ParseDateBound(values.Get("start_date"), false)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: start_date: %v", ErrInvalidInput, err)
	}

	end, err := formatting.ParseDateBound(values.Get("end_date"), true)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: end_date: %v", ErrInvalidInput, err)
	}

	return start, end, nil
}

func scanInteraction(s repository.Scanner) (Interaction, error) {
	var i Interaction
	var breakdown []byte
	err := s.Scan(
		&i.ID,
		&i.OrganizationID,
		&i.UserQuery,
		&i.AIResponse,
		&i.ValidatedResponse,
		&i.Status,
		&i.ConfidenceScore,
		&breakdown,
		&i.AIModel,
		&i.SessionID,
		&i.ProcessingTimeMS,
		&i.Timestamp,
		&i.ViolationCount,
	)
	i.Breakdown = breakdown
	return i, err
}

func scanViolation(s repository.Scanner) (Violation, error) {
	var v Violation
	err := s.Scan(
		&v.ID,
		&v.InteractionID,
		&v.Type,
		&v.Severity,
		&v.Description,
		&v.RuleID,
		&v.PolicyID,
		&v.CreatedAt,
	)
	return v, err
}

func scanResult(s repository.Scanner) (VerificationResult, error) {
	var r VerificationResult
	err := s.Scan(
		&r.ID,
		&r.InteractionID,
		&r.ClaimText,
		&r.ClaimType,
		&r.Status,
		&r.Source,
		&r.Confidence,
		&r.Method,
	)
	return r, err
}

func scanCitation(s repository.Scanner) (Citation, error) {
	var c Citation
	err := s.Scan(
		&c.ID,
		&c.InteractionID,
		&c.URL,
		&c.IsValid,
		&c.ContentMatch,
		&c.StatusCode,
		&c.Error,
	)
	return c, err
}
