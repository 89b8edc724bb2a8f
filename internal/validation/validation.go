// Package validation orchestrates the pipeline that turns a query and an AI
// response into a persisted, explainable decision.
package validation

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/internal/correction"
	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/interactions"
	"github.com/JaimeStill/verity/internal/scoring"
)

// Request is a response to validate on behalf of the caller's organization.
// OrganizationID is optional and must match the authenticated organization when set.
type Request struct {
	Query          string     `json:"query" validate:"required"`
	AIResponse     string     `json:"ai_response" validate:"required"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	AIModel        *string    `json:"ai_model,omitempty" validate:"omitempty,max=100"`
	SessionID      *string    `json:"session_id,omitempty" validate:"omitempty,max=255"`
}

// Response is the decision returned to the caller. Its breakdown is the exact
// document persisted with the interaction.
type Response struct {
	InteractionID       uuid.UUID                         `json:"interaction_id"`
	Status              findings.Status                   `json:"status"`
	ConfidenceScore     float64                           `json:"confidence_score"`
	ConfidenceBreakdown json.RawMessage                   `json:"confidence_breakdown"`
	Violations          []interactions.Violation          `json:"violations"`
	VerificationResults []interactions.VerificationResult `json:"verification_results"`
	Citations           []interactions.Citation           `json:"citations"`
	Explanation         string                            `json:"explanation"`
	CorrectionSuggested bool                              `json:"correction_suggested"`
	ValidatedResponse   *string                           `json:"validated_response,omitempty"`
	ChangesMade         []string                          `json:"changes_made,omitempty"`
	ProcessingTimeMS    int                               `json:"processing_time_ms"`
}

// breakdown is the persisted confidence breakdown. The correction entry is
// present only when the advisor ran.
type breakdown struct {
	scoring.Breakdown
	Correction *correctionDetails `json:"correction,omitempty"`
}

type correctionDetails struct {
	Suggested  bool     `json:"correction_suggested"`
	Generative bool     `json:"generative"`
	Changes    []string `json:"changes_made"`
	Diff       string   `json:"diff,omitempty"`
}

func newCorrectionDetails(r correction.Result) *correctionDetails {
	return &correctionDetails{
		Suggested:  r.Suggested,
		Generative: r.Generative,
		Changes:    r.Changes,
		Diff:       r.Diff,
	}
}
