package policies

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/pkg/pagination"
	"github.com/JaimeStill/verity/pkg/query"
	"github.com/JaimeStill/verity/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a policy repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "policies"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	orgID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Policy], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, prioritySort...).
		WhereEquals("OrganizationID", orgID).
		WhereSearch(page.Search, "Name", "Content")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count policies: %w", err)
	}

	pageSQL, pageArgs := qb.BuildWindow(page.PageSize, page.Offset())
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPolicy)
	if err != nil {
		return nil, fmt.Errorf("query policies: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, orgID, id uuid.UUID) (*Policy, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("ID", id).
		WhereEquals("OrganizationID", orgID).
		BuildSingleOrNull()

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPolicy)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, orgID uuid.UUID, cmd Command) (*Policy, error) {
	q := `
		INSERT INTO company_policies(id, organization_id, policy_name, policy_content, category, priority, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + returning

	args := []any{uuid.New(), orgID, cmd.Name, cmd.Content, cmd.Category, cmd.Priority, cmd.active()}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Policy, error) {
		return repository.QueryOne(ctx, tx, q, args, scanPolicy)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("policy created", "id", p.ID, "organization_id", orgID)
	return &p, nil
}

func (r *repo) Update(ctx context.Context, orgID, id uuid.UUID, cmd Command) (*Policy, error) {
	q := `
		UPDATE company_policies
		SET policy_name = $3, policy_content = $4, category = $5, priority = $6,
			is_active = $7, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + returning

	args := []any{id, orgID, cmd.Name, cmd.Content, cmd.Category, cmd.Priority, cmd.active()}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Policy, error) {
		return repository.QueryOne(ctx, tx, q, args, scanPolicy)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("policy updated", "id", p.ID)
	return &p, nil
}

func (r *repo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM company_policies WHERE id = $1 AND organization_id = $2",
			id, orgID,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("policy deleted", "id", id, "organization_id", orgID)
	return nil
}

func (r *repo) Active(ctx context.Context, orgID uuid.UUID) ([]Policy, error) {
	q, args := query.
		NewBuilder(projection, prioritySort...).
		WhereEquals("OrganizationID", orgID).
		WhereEquals("IsActive", true).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanPolicy)
	if err != nil {
		return nil, fmt.Errorf("query active policies: %w", err)
	}
	return items, nil
}
