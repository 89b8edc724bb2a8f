package interactions

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/signals"
)

// Interaction is the immutable audit record of one validation call.
type Interaction struct {
	ID                uuid.UUID       `json:"id"`
	OrganizationID    uuid.UUID       `json:"organization_id"`
	UserQuery         string          `json:"user_query"`
	AIResponse        string          `json:"ai_response"`
	ValidatedResponse *string         `json:"validated_response"`
	Status            findings.Status `json:"status"`
	ConfidenceScore   float64         `json:"confidence_score"`
	Breakdown         json.RawMessage `json:"confidence_breakdown"`
	AIModel           *string         `json:"ai_model"`
	SessionID         *string         `json:"session_id"`
	ProcessingTimeMS  int             `json:"processing_time_ms"`
	Timestamp         time.Time       `json:"timestamp"`
	ViolationCount    int             `json:"violation_count"`
}

// Violation is a persisted finding owned by an interaction.
type Violation struct {
	ID            uuid.UUID         `json:"id"`
	InteractionID uuid.UUID         `json:"interaction_id"`
	Type          findings.Type     `json:"violation_type"`
	Severity      findings.Severity `json:"severity"`
	Description   string            `json:"description"`
	RuleID        *uuid.UUID        `json:"rule_id"`
	PolicyID      *uuid.UUID        `json:"policy_id"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Finding converts v back into the evaluation form.
func (v Violation) Finding() findings.Finding {
	return findings.Finding{
		Type:        v.Type,
		Severity:    v.Severity,
		Description: v.Description,
		RuleID:      v.RuleID,
		PolicyID:    v.PolicyID,
	}
}

// VerificationResult is the persisted verdict for one extracted claim.
type VerificationResult struct {
	ID            uuid.UUID         `json:"id"`
	InteractionID uuid.UUID         `json:"interaction_id"`
	ClaimText     string            `json:"claim_text"`
	ClaimType     signals.ClaimType `json:"claim_type"`
	Status        signals.Status    `json:"verification_status"`
	Source        *string           `json:"source"`
	Confidence    float64           `json:"confidence"`
	Method        string            `json:"verification_method"`
}

// Citation is the persisted check result for one cited URL.
type Citation struct {
	ID            uuid.UUID `json:"id"`
	InteractionID uuid.UUID `json:"interaction_id"`
	URL           string    `json:"url"`
	IsValid       bool      `json:"is_valid"`
	ContentMatch  bool      `json:"content_match"`
	StatusCode    *int      `json:"http_status_code"`
	Error         *string   `json:"error_message"`
}

// Detail is an interaction with all of its child records and a rendered explanation.
type Detail struct {
	Interaction         Interaction          `json:"interaction"`
	Violations          []Violation          `json:"violations"`
	VerificationResults []VerificationResult `json:"verification_results"`
	Citations           []Citation           `json:"citations"`
	Explanation         string               `json:"explanation"`
}

// Record carries everything produced by one validation pass.
type Record struct {
	OrganizationID    uuid.UUID
	UserQuery         string
	AIResponse        string
	ValidatedResponse *string
	Status            findings.Status
	ConfidenceScore   float64
	Breakdown         json.RawMessage
	AIModel           *string
	SessionID         *string
	ProcessingTimeMS  int
	Violations        []findings.Finding
	Claims            []signals.ClaimResult
	Citations         []signals.CitationResult
}
