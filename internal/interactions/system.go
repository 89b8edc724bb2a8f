package interactions

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/pkg/pagination"
)

// System defines the audit store. Every read is scoped to orgID; child
// records are reached only through an interaction the organization owns.
type System interface {
	Handler() *Handler

	// Record writes an interaction and all of its child records atomically.
	Record(ctx context.Context, rec Record) (*Detail, error)

	List(
		ctx context.Context,
		orgID uuid.UUID,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Interaction], error)

	Find(ctx context.Context, orgID, id uuid.UUID) (*Detail, error)

	ListViolations(
		ctx context.Context,
		orgID uuid.UUID,
		page pagination.PageRequest,
		filters ViolationFilters,
	) (*pagination.PageResult[Violation], error)

	// Similar returns the responses of recent approved interactions whose
	// queries share key terms with query.
	Similar(ctx context.Context, orgID uuid.UUID, query string, limit int) ([]string, error)

	Export(ctx context.Context, orgID uuid.UUID, format Format, filters Filters) (*Export, error)
}
