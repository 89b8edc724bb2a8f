package rules

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/pkg/pagination"
)

// System defines the public contract for compliance rule operations.
// Reads include global rules; writes touch only rules owned by orgID.
type System interface {
	Handler(tester Tester) *Handler

	List(
		ctx context.Context,
		orgID uuid.UUID,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Rule], error)

	Find(ctx context.Context, orgID, id uuid.UUID) (*Rule, error)
	Create(ctx context.Context, orgID uuid.UUID, cmd Command) (*Rule, error)
	Update(ctx context.Context, orgID, id uuid.UUID, cmd Command) (*Rule, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error

	// Applicable returns active rules owned by orgID or global, restricted to
	// the given industry or industry-agnostic rules.
	Applicable(ctx context.Context, orgID uuid.UUID, industry *string) ([]Rule, error)

	Templates() []Template
	InstallTemplate(ctx context.Context, orgID uuid.UUID, key string) (*Rule, error)
}

// Tester evaluates a single rule against text without persisting anything.
type Tester interface {
	TestRule(ctx context.Context, rule Rule, text string) []findings.Finding
}
