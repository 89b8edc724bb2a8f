package organizations

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/pkg/middleware"
)

// System defines the public contract for organization and API key operations.
// It satisfies middleware.Authenticator.
type System interface {
	Handler(adminToken string) *Handler

	Create(ctx context.Context, cmd CreateCommand) (*Registration, error)
	Find(ctx context.Context, id uuid.UUID) (*Organization, error)

	CreateKey(ctx context.Context, orgID uuid.UUID, cmd CreateKeyCommand) (*IssuedKey, error)
	ListKeys(ctx context.Context, orgID uuid.UUID) ([]APIKey, error)
	RevokeKey(ctx context.Context, orgID, keyID uuid.UUID) error

	Authenticate(ctx context.Context, apiKey string) (*middleware.Principal, error)
}
