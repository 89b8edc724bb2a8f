// Package policies implements the company policy store. Policies are free-text
// statements owned by one organization and evaluated in priority order.
package policies

import (
	"time"

	"github.com/google/uuid"
)

// Policy is a company policy. Higher Priority values are evaluated first.
type Policy struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"policy_name"`
	Content        string    `json:"policy_content"`
	Category       *string   `json:"category"`
	Priority       int       `json:"priority"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Command carries the writable fields of a policy for create and update.
type Command struct {
	Name     string  `json:"policy_name" validate:"required,max=255"`
	Content  string  `json:"policy_content" validate:"required"`
	Category *string `json:"category,omitempty" validate:"omitempty,max=100"`
	Priority int     `json:"priority" validate:"gte=0"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (c Command) active() bool {
	return c.IsActive == nil || *c.IsActive
}
