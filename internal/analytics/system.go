package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// System defines the read-side analytics contract. Every computation is
// scoped to one organization.
type System interface {
	Handler() *Handler

	Stats(ctx context.Context, orgID uuid.UUID, w Window) (*Stats, error)
	Trends(ctx context.Context, orgID uuid.UUID, w Window, g GroupBy) (*Trends, error)
	Compare(ctx context.Context, orgID uuid.UUID, split time.Time) (*Comparison, error)
	Impact(ctx context.Context, orgID uuid.UUID, p Period) (*Impact, error)
}
