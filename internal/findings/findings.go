// Package findings defines the severity, violation, and decision vocabulary
// shared by the evaluators, collectors, scorer, and audit store.
package findings

import (
	"fmt"

	"github.com/google/uuid"
)

// Severity ranks how serious a violation is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity validates s as a known severity.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(s); sev {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Type classifies the check that produced a violation.
type Type string

const (
	TypeHallucination Type = "hallucination"
	TypeCitation      Type = "citation"
	TypeCompliance    Type = "compliance"
	TypePolicy        Type = "policy"
	TypeConsistency   Type = "consistency"
)

// ParseType validates s as a known violation type.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeHallucination, TypeCitation, TypeCompliance, TypePolicy, TypeConsistency:
		return t, nil
	}
	return "", fmt.Errorf("unknown violation type %q", s)
}

// Status is the terminal decision for an interaction.
type Status string

const (
	StatusApproved Status = "approved"
	StatusFlagged  Status = "flagged"
	StatusBlocked  Status = "blocked"

	// StatusCorrected is accepted on stored records and read as flagged.
	// Validation never produces it.
	StatusCorrected Status = "corrected"
)

// ParseStatus validates s as a known status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusApproved, StatusFlagged, StatusBlocked, StatusCorrected:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Finding is a violation detected during validation, before it is persisted.
type Finding struct {
	Type        Type       `json:"violation_type"`
	Severity    Severity   `json:"severity"`
	Description string     `json:"description"`
	RuleID      *uuid.UUID `json:"rule_id,omitempty"`
	PolicyID    *uuid.UUID `json:"policy_id,omitempty"`

	// Triggers holds the matched phrases, used to soften the response during correction.
	Triggers []string `json:"-"`
	// Missing holds required phrases the response lacked.
	Missing []string `json:"-"`
}

// HasCritical reports whether any finding is critical.
func HasCritical(fs []Finding) bool {
	for _, f := range fs {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// OfType returns the findings of type t.
func OfType(fs []Finding, t Type) []Finding {
	var out []Finding
	for _, f := range fs {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}
