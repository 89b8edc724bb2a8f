package organizations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/pkg/middleware"
	"github.com/JaimeStill/verity/pkg/query"
	"github.com/JaimeStill/verity/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// New creates an organization repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "organizations"),
		now:    time.Now,
	}
}

func (r *repo) Handler(adminToken string) *Handler {
	return NewHandler(r, r.logger, adminToken)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Registration, error) {
	raw, prefix, hash, err := generateKey()
	if err != nil {
		return nil, err
	}

	orgQ := `
		INSERT INTO organizations(id, name, industry)
		VALUES ($1, $2, $3)
		RETURNING id, name, industry, created_at`

	reg, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Registration, error) {
		org, err := repository.QueryOne(
			ctx, tx, orgQ,
			[]any{uuid.New(), cmd.Name, cmd.Industry},
			scanOrganization,
		)
		if err != nil {
			return Registration{}, err
		}

		key, err := insertKey(ctx, tx, org.ID, "default", prefix, hash, nil)
		if err != nil {
			return Registration{}, err
		}

		return Registration{
			Organization: org,
			Key:          IssuedKey{APIKey: key, Key: raw},
		}, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("organization created", "id", reg.Organization.ID, "name", reg.Organization.Name)
	return &reg, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Organization, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	o, err := repository.QueryOne(ctx, r.db, q, args, scanOrganization)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &o, nil
}

func (r *repo) CreateKey(ctx context.Context, orgID uuid.UUID, cmd CreateKeyCommand) (*IssuedKey, error) {
	if cmd.ExpiresAt != nil && !cmd.ExpiresAt.After(r.now()) {
		return nil, fmt.Errorf("%w: expires_at must be in the future", ErrInvalidInput)
	}

	raw, prefix, hash, err := generateKey()
	if err != nil {
		return nil, err
	}

	key, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (APIKey, error) {
		return insertKey(ctx, tx, orgID, cmd.Name, prefix, hash, cmd.ExpiresAt)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("api key issued", "organization_id", orgID, "key_id", key.ID)
	return &IssuedKey{APIKey: key, Key: raw}, nil
}

func (r *repo) ListKeys(ctx context.Context, orgID uuid.UUID) ([]APIKey, error) {
	q, args := query.
		NewBuilder(keyProjection, keySort).
		WhereEquals("OrganizationID", orgID).
		Build()

	keys, err := repository.QueryMany(ctx, r.db, q, args, scanKey)
	if err != nil {
		return nil, fmt.Errorf("query api keys: %w", err)
	}
	return keys, nil
}

func (r *repo) RevokeKey(ctx context.Context, orgID, keyID uuid.UUID) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE api_keys SET is_active = FALSE WHERE id = $1 AND organization_id = $2",
		keyID, orgID,
	)
	if err != nil {
		return repository.MapError(err, ErrKeyNotFound, ErrDuplicate)
	}

	r.logger.Info("api key revoked", "organization_id", orgID, "key_id", keyID)
	return nil
}

func (r *repo) Authenticate(ctx context.Context, apiKey string) (*middleware.Principal, error) {
	q := `
		SELECT k.id, k.organization_id, o.name, k.is_active, k.expires_at
		FROM public.api_keys k
		JOIN public.organizations o ON o.id = k.organization_id
		WHERE k.key_hash = $1`

	var (
		p         middleware.Principal
		active    bool
		expiresAt *time.Time
	)

	err := r.db.QueryRowContext(ctx, q, HashKey(apiKey)).Scan(
		&p.KeyID,
		&p.OrganizationID,
		&p.Name,
		&active,
		&expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: unknown key", middleware.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup api key: %w", err)
	}

	if !active {
		return nil, fmt.Errorf("%w: key revoked", middleware.ErrUnauthorized)
	}
	if expiresAt != nil && !expiresAt.After(r.now()) {
		return nil, fmt.Errorf("%w: key expired", middleware.ErrUnauthorized)
	}

	if _, err := r.db.ExecContext(
		ctx,
		"UPDATE api_keys SET last_used_at = NOW() WHERE id = $1",
		p.KeyID,
	); err != nil {
		r.logger.Warn("api key usage update failed", "key_id", p.KeyID, "error", err)
	}

	return &p, nil
}

func insertKey(
	ctx context.Context,
	tx *sql.Tx,
	orgID uuid.UUID,
	name, prefix, hash string,
	expiresAt *time.Time,
) (APIKey, error) {
	q := `
		INSERT INTO api_keys(id, organization_id, name, key_prefix, key_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, organization_id, name, key_prefix, is_active, expires_at, last_used_at, created_at`

	return repository.QueryOne(
		ctx, tx, q,
		[]any{uuid.New(), orgID, name, prefix, hash, expiresAt},
		scanKey,
	)
}
