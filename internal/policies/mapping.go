package policies

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/verity/pkg/query"
	"github.com/JaimeStill/verity/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "company_policies", "p").
	Project("id", "ID").
	Project("organization_id", "OrganizationID").
	Project("policy_name", "Name").
	Project("policy_content", "Content").
	Project("category", "Category").
	Project("priority", "Priority").
	Project("is_active", "IsActive").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

const returning = `id, organization_id, policy_name, policy_content, category, priority,
		is_active, created_at, updated_at`

var prioritySort = []query.SortField{
	{Field: "Priority", Descending: true},
	{Field: "CreatedAt"},
}

// Filters contains optional filtering criteria for policy queries.
type Filters struct {
	Category *string `json:"category,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Category", f.Category).
		WhereEquals("IsActive", f.IsActive)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("category"); c != "" {
		f.Category = &c
	}

	if ia := values.Get("is_active"); ia != "" {
		if v, err := strconv.ParseBool(ia); err == nil {
			f.IsActive = &v
		}
	}

	return f
}

func scanPolicy(s repository.Scanner) (Policy, error) {
	var p Policy
	err := s.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.Name,
		&p.Content,
		&p.Category,
		&p.Priority,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
