// Package organizations implements the tenant domain: organizations and the
// API keys that authenticate requests on their behalf.
package organizations

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant boundary. Every interaction, rule override,
// and policy belongs to exactly one organization.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Industry  *string   `json:"industry"`
	CreatedAt time.Time `json:"created_at"`
}

// APIKey is a stored credential. Only the sha256 hash of the raw key is persisted.
type APIKey struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Name           string     `json:"name"`
	Prefix         string     `json:"prefix"`
	IsActive       bool       `json:"is_active"`
	ExpiresAt      *time.Time `json:"expires_at"`
	LastUsedAt     *time.Time `json:"last_used_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IssuedKey pairs a newly created key record with its raw value.
// The raw value is returned exactly once and cannot be recovered afterward.
type IssuedKey struct {
	APIKey
	Key string `json:"key"`
}

// Registration is the result of bootstrapping a new organization.
type Registration struct {
	Organization Organization `json:"organization"`
	Key          IssuedKey    `json:"api_key"`
}

// CreateCommand carries the data needed to register an organization.
type CreateCommand struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Industry *string `json:"industry,omitempty" validate:"omitempty,max=100"`
}

// CreateKeyCommand carries the data needed to issue an additional API key.
type CreateKeyCommand struct {
	Name      string     `json:"name" validate:"required,max=100"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
