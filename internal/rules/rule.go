// Package rules implements the compliance rule store: versioned, organization-scoped
// rules with tagged-union definitions, plus an embedded catalog of regulatory templates.
package rules

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/internal/findings"
)

// RuleType groups rules by origin.
type RuleType string

const (
	TypeRegulatory RuleType = "regulatory"
	TypePolicy     RuleType = "policy"
	TypeCustom     RuleType = "custom"
)

// Rule is a compliance rule. A nil OrganizationID marks a global rule visible to every tenant.
type Rule struct {
	ID             uuid.UUID         `json:"id"`
	OrganizationID *uuid.UUID        `json:"organization_id"`
	Name           string            `json:"rule_name"`
	Description    *string           `json:"description"`
	RuleType       RuleType          `json:"rule_type"`
	Definition     Definition        `json:"rule_definition"`
	Industry       *string           `json:"industry"`
	Severity       findings.Severity `json:"severity"`
	IsActive       bool              `json:"is_active"`
	Version        int               `json:"version"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Global reports whether the rule applies to all organizations.
func (r Rule) Global() bool {
	return r.OrganizationID == nil
}

// Message returns the definition message, defaulting to "Violates rule: <name>".
func (r Rule) Message() string {
	if out, ok := r.Definition.Outcome(); ok && out.Message != "" {
		return out.Message
	}
	return fmt.Sprintf("Violates rule: %s", r.Name)
}

// Action returns the definition action, defaulting to flag.
func (r Rule) Action() Action {
	if out, ok := r.Definition.Outcome(); ok && out.Action != "" {
		return out.Action
	}
	return ActionFlag
}

// Command carries the writable fields of a rule for create and update.
type Command struct {
	Name        string            `json:"rule_name" validate:"required,max=255"`
	Description *string           `json:"description,omitempty"`
	RuleType    RuleType          `json:"rule_type" validate:"required,oneof=regulatory policy custom"`
	Definition  Definition        `json:"rule_definition"`
	Industry    *string           `json:"industry,omitempty" validate:"omitempty,max=100"`
	Severity    findings.Severity `json:"severity" validate:"required,oneof=low medium high critical"`
	IsActive    *bool             `json:"is_active,omitempty"`
}

func (c Command) active() bool {
	return c.IsActive == nil || *c.IsActive
}

// TestRequest is the body of a dry-run rule evaluation.
type TestRequest struct {
	Text string `json:"text" validate:"required"`
}

// TestResult reports what a rule would produce against the submitted text.
type TestResult struct {
	RuleID     uuid.UUID          `json:"rule_id"`
	Kind       Kind               `json:"kind"`
	Matched    bool               `json:"matched"`
	Action     Action             `json:"action"`
	Violations []findings.Finding `json:"violations"`
}
