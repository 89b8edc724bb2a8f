package rules

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
	catalog    *catalog
}

// New creates a rule repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) (System, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	return &repo{
		db:         db,
		logger:     logger.With("system", "rules"),
		pagination: pagination,
		catalog:    cat,
	}, nil
}

func (r *repo) Handler(tester Tester) *Handler {
	return NewHandler(r, tester, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	orgID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Rule], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEqualsOrNull("OrganizationID", orgID).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rules: %w", err)
	}

	pageSQL, pageArgs := qb.BuildWindow(page.PageSize, page.Offset())
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRule)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, orgID, id uuid.UUID) (*Rule, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("ID", id).
		WhereEqualsOrNull("OrganizationID", orgID).
		BuildSingleOrNull()

	rule, err := repository.QueryOne(ctx, r.db, q, args, scanRule)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rule, nil
}

func (r *repo) Create(ctx context.Context, orgID uuid.UUID, cmd Command) (*Rule, error) {
	if err := cmd.Definition.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	q := `
		INSERT INTO compliance_rules(id, organization_id, rule_name, description, rule_type,
			rule_definition, industry, severity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + returning

	args := []any{
		uuid.New(),
		orgID,
		cmd.Name,
		cmd.Description,
		cmd.RuleType,
		cmd.Definition,
		cmd.Industry,
		cmd.Severity,
		cmd.active(),
	}

	rule, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Rule, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRule)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("rule created", "id", rule.ID, "organization_id", orgID, "kind", rule.Definition.Kind())
	return &rule, nil
}

func (r *repo) Update(ctx context.Context, orgID, id uuid.UUID, cmd Command) (*Rule, error) {
	if err := cmd.Definition.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	q := `
		UPDATE compliance_rules
		SET rule_name = $3, description = $4, rule_type = $5, rule_definition = $6,
			industry = $7, severity = $8, is_active = $9,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + returning

	args := []any{
		id,
		orgID,
		cmd.Name,
		cmd.Description,
		cmd.RuleType,
		cmd.Definition,
		cmd.Industry,
		cmd.Severity,
		cmd.active(),
	}

	rule, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Rule, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRule)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("rule updated", "id", rule.ID, "version", rule.Version)
	return &rule, nil
}

func (r *repo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM compliance_rules WHERE id = $1 AND organization_id = $2",
			id, orgID,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("rule deleted", "id", id, "organization_id", orgID)
	return nil
}

func (r *repo) Applicable(ctx context.Context, orgID uuid.UUID, industry *string) ([]Rule, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("IsActive", true).
		WhereEqualsOrNull("OrganizationID", orgID).
		WhereEqualsOrNull("Industry", industry).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanRule)
	if err != nil {
		return nil, fmt.Errorf("query applicable rules: %w", err)
	}
	return items, nil
}

func (r *repo) Templates() []Template {
	return r.catalog.list()
}

func (r *repo) InstallTemplate(ctx context.Context, orgID uuid.UUID, key string) (*Rule, error) {
	tmpl, ok := r.catalog.find(key)
	if !ok {
		return nil, ErrTemplateNotFound
	}

	rule, err := r.Create(ctx, orgID, tmpl.Command())
	if err != nil {
		return nil, err
	}

	r.logger.Info("rule template installed", "key", key, "id", rule.ID)
	return rule, nil
}
