package organizations

import (
	"github.com/JaimeStill/verity/pkg/query"
	"github.com/JaimeStill/verity/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "organizations", "o").
	Project("id", "ID").
	Project("name", "Name").
	Project("industry", "Industry").
	Project("created_at", "CreatedAt")

var keyProjection = query.
	NewProjectionMap("public", "api_keys", "k").
	Project("id", "ID").
	Project("organization_id", "OrganizationID").
	Project("name", "Name").
	Project("key_prefix", "Prefix").
	Project("is_active", "IsActive").
	Project("expires_at", "ExpiresAt").
	Project("last_used_at", "LastUsedAt").
	Project("created_at", "CreatedAt")

var keySort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

func scanOrganization(s repository.Scanner) (Organization, error) {
	var o Organization
	err := s.Scan(
		&o.ID,
		&o.Name,
		&o.Industry,
		&o.CreatedAt,
	)
	return o, err
}

func scanKey(s repository.Scanner) (APIKey, error) {
	var k APIKey
	err := s.Scan(
		&k.ID,
		&k.OrganizationID,
		&k.Name,
		&k.Prefix,
		&k.IsActive,
		&k.ExpiresAt,
		&k.LastUsedAt,
		&k.CreatedAt,
	)
	return k, err
}
