package policies

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/pkg/pagination"
)

// System defines the public contract for company policy operations.
// Every operation is scoped to orgID.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		orgID uuid.UUID,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Policy], error)

	Find(ctx context.Context, orgID, id uuid.UUID) (*Policy, error)
	Create(ctx context.Context, orgID uuid.UUID, cmd Command) (*Policy, error)
	Update(ctx context.Context, orgID, id uuid.UUID, cmd Command) (*Policy, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error

	// Active returns the organization's active policies, highest priority first.
	Active(ctx context.Context, orgID uuid.UUID) ([]Policy, error)
}
