package rules

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/pkg/query"
	"github.com/JaimeStill/verity/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "compliance_rules", "r").
	Project("id", "ID").
	Project("organization_id", "OrganizationID").
	Project("rule_name", "Name").
	Project("description", "Description").
	Project("rule_type", "RuleType").
	Project("rule_definition", "Definition").
	Project("industry", "Industry").
	Project("severity", "Severity").
	Project("is_active", "IsActive").
	Project("version", "Version").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

const returning = `id, organization_id, rule_name, description, rule_type, rule_definition,
		industry, severity, is_active, version, created_at, updated_at`

var defaultSort = query.SortField{
	Field: "CreatedAt",
}

// Filters contains optional filtering criteria for rule queries. Nil fields are ignored.
type Filters struct {
	RuleType *RuleType         `json:"rule_type,omitempty"`
	Severity *findings.Severity `json:"severity,omitempty"`
	Industry *string           `json:"industry,omitempty"`
	IsActive *bool             `json:"is_active,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("RuleType", f.RuleType).
		WhereEquals("Severity", f.Severity).
		WhereEquals("Industry", f.Industry).
		WhereEquals("IsActive", f.IsActive)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if rt := values.Get("rule_type"); rt != "" {
		t := RuleType(rt)
		f.RuleType = &t
	}

	if sv := values.Get("severity"); sv != "" {
		if s, err := findings.ParseSeverity(sv); err == nil {
			f.Severity = &s
		}
	}

	if in := values.Get("industry"); in != "" {
		f.Industry = &in
	}

	if ia := values.Get("is_active"); ia != "" {
		if v, err := strconv.ParseBool(ia); err == nil {
			f.IsActive = &v
		}
	}

	return f
}

func scanRule(s repository.Scanner) (Rule, error) {
	var r Rule
	err := s.Scan(
		&r.ID,
		&r.OrganizationID,
		&r.Name,
		&r.Description,
		&r.RuleType,
		&r.Definition,
		&r.Industry,
		&r.Severity,
		&r.IsActive,
		&r.Version,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}
