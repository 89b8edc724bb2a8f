package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/pkg/repository"
)

// Option configures the analytics system.
type Option func(*repo)

// WithClock replaces the wall clock used for relative windows.
func WithClock(now func() time.Time) Option {
	return func(r *repo) { r.now = now }
}

type repo struct {
	db     *sql.DB
	costs  Costs
	now    func() time.Time
	logger *slog.Logger
}

// New creates the analytics system over the audit store's tables.
func New(db *sql.DB, costs Costs, logger *slog.Logger, opts ...Option) System {
	r := &repo{
		db:     db,
		costs:  costs,
		now:    time.Now,
		logger: logger.With("system", "analytics"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Stats(ctx context.Context, orgID uuid.UUID, w Window) (*Stats, error) {
	where, args := w.where("i", orgID, nil)

	q := fmt.Sprintf(`
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE i.status = 'approved'),
			COUNT(*) FILTER (WHERE i.status IN ('flagged', 'corrected')),
			COUNT(*) FILTER (WHERE i.status = 'blocked'),
			COUNT(*) FILTER (WHERE i.status IN ('flagged', 'corrected') AND i.validated_response IS NOT NULL),
			COALESCE(AVG(i.confidence_score), 0),
			MIN(i.timestamp),
			MAX(i.timestamp)
		FROM interactions i
		WHERE %s`, where)

	s := Stats{
		ViolationsByType:     map[string]int{},
		ViolationsBySeverity: map[string]int{},
		InteractionsByModel:  map[string]int{},
	}
	var first, last sql.NullTime

	if err := r.db.QueryRowContext(ctx, q, args...).Scan(
		&s.TotalInteractions,
		&s.ApprovedCount,
		&s.FlaggedCount,
		&s.BlockedCount,
		&s.CorrectedCount,
		&s.AvgConfidenceScore,
		&first,
		&last,
	); err != nil {
		return nil, fmt.Errorf("query interaction stats: %w", err)
	}
	if first.Valid {
		s.DateRange.Start = &first.Time
	}
	if last.Valid {
		s.DateRange.End = &last.Time
	}

	vq := fmt.Sprintf(`
		SELECT v.violation_type, v.severity, COUNT(*)
		FROM violations v
		JOIN interactions i ON i.id = v.interaction_id
		WHERE %s
		GROUP BY v.violation_type, v.severity`, where)

	type violationCount struct {
		kind     string
		severity string
		n        int
	}
	counts, err := repository.QueryMany(ctx, r.db, vq, args, func(sc repository.Scanner) (violationCount, error) {
		var c violationCount
		err := sc.Scan(&c.kind, &c.severity, &c.n)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("query violation stats: %w", err)
	}
	for _, c := range counts {
		s.TotalViolations += c.n
		s.ViolationsByType[c.kind] += c.n
		s.ViolationsBySeverity[c.severity] += c.n
	}

	mq := fmt.Sprintf(`
		SELECT COALESCE(i.ai_model, 'unknown'), COUNT(*)
		FROM interactions i
		WHERE %s
		GROUP BY 1`, where)

	type modelCount struct {
		model string
		n     int
	}
	models, err := repository.QueryMany(ctx, r.db, mq, args, func(sc repository.Scanner) (modelCount, error) {
		var c modelCount
		err := sc.Scan(&c.model, &c.n)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("query model stats: %w", err)
	}
	for _, m := range models {
		s.InteractionsByModel[m.model] += m.n
	}

	return &s, nil
}

func (r *repo) Trends(ctx context.Context, orgID uuid.UUID, w Window, g GroupBy) (*Trends, error) {
	start, end := trendWindow(w, r.now())

	buckets, err := Buckets(start, end, g)
	if err != nil {
		return nil, err
	}

	where, args := Window{Start: &start, End: &end}.where("i", orgID, nil)

	// g is validated by ParseGroupBy and matches a date_trunc field name.
	q := fmt.Sprintf(`
		SELECT date_trunc('%s', i.timestamp AT TIME ZONE 'UTC') AS bucket,
			COUNT(*),
			COUNT(*) FILTER (WHERE i.status = 'approved'),
			COUNT(*) FILTER (WHERE i.status IN ('flagged', 'corrected')),
			COUNT(*) FILTER (WHERE i.status = 'blocked'),
			COUNT(*) FILTER (WHERE i.status IN ('flagged', 'corrected') AND i.validated_response IS NOT NULL),
			COALESCE(SUM(vc.n), 0),
			COALESCE(AVG(i.confidence_score), 0)
		FROM interactions i
		LEFT JOIN (
			SELECT interaction_id, COUNT(*) AS n FROM violations GROUP BY interaction_id
		) vc ON vc.interaction_id = i.id
		WHERE %s
		GROUP BY bucket
		ORDER BY bucket`, g, where)

	type row struct {
		bucket time.Time
		point  TrendPoint
	}
	rows, err := repository.QueryMany(ctx, r.db, q, args, func(sc repository.Scanner) (row, error) {
		var rw row
		err := sc.Scan(
			&rw.bucket,
			&rw.point.TotalInteractions,
			&rw.point.Approved,
			&rw.point.Flagged,
			&rw.point.Blocked,
			&rw.point.Corrected,
			&rw.point.Violations,
			&rw.point.AvgConfidence,
		)
		return rw, err
	})
	if err != nil {
		return nil, fmt.Errorf("query trends: %w", err)
	}

	byBucket := make(map[string]TrendPoint, len(rows))
	for _, rw := range rows {
		byBucket[g.Truncate(rw.bucket).Format(bucketLayout)] = rw.point
	}

	return &Trends{
		Trends:    Fill(buckets, byBucket),
		Period:    g,
		TotalDays: totalDays(start, end),
	}, nil
}

func (r *repo) Compare(ctx context.Context, orgID uuid.UUID, split time.Time) (*Comparison, error) {
	beforeWin, afterWin, err := comparisonWindows(split, r.now())
	if err != nil {
		return nil, err
	}

	before, err := r.aggregate(ctx, orgID, beforeWin)
	if err != nil {
		return nil, fmt.Errorf("aggregate before window: %w", err)
	}

	after, err := r.aggregate(ctx, orgID, afterWin)
	if err != nil {
		return nil, fmt.Errorf("aggregate after window: %w", err)
	}

	changes, improvements, watch := Compare(before, after)

	return &Comparison{
		Split:        split,
		BeforeWindow: beforeWin,
		AfterWindow:  afterWin,
		Before:       before,
		After:        after,
		Changes:      changes,
		Improvements: improvements,
		AreasToWatch: watch,
	}, nil
}

func (r *repo) aggregate(ctx context.Context, orgID uuid.UUID, w Window) (Aggregate, error) {
	where, args := w.where("i", orgID, nil)

	q := fmt.Sprintf(`
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE i.status = 'approved'),
			COUNT(*) FILTER (WHERE i.status IN ('flagged', 'corrected')),
			COUNT(*) FILTER (WHERE i.status = 'blocked'),
			COALESCE(AVG(i.confidence_score), 0),
			(SELECT COUNT(*) FROM violations v JOIN interactions i ON i.id = v.interaction_id WHERE %s)
		FROM interactions i
		WHERE %s`, where, where)

	var a Aggregate
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(
		&a.Total,
		&a.Approved,
		&a.Flagged,
		&a.Blocked,
		&a.AvgConfidence,
		&a.Violations,
	); err != nil {
		return Aggregate{}, err
	}

	a.ApprovalRate = approvalRate(a.Approved, a.Total)
	return a, nil
}

func (r *repo) Impact(ctx context.Context, orgID uuid.UUID, p Period) (*Impact, error) {
	where, args := Window{Start: p.Since(r.now())}.where("i", orgID, nil)

	args = append(args, findings.StatusBlocked, findings.TypeHallucination, findings.SeverityCritical)
	n := len(args)

	q := fmt.Sprintf(`
		SELECT
			(SELECT COUNT(*) FROM interactions i
				WHERE %[1]s AND i.status = $%[2]d
				AND EXISTS (
					SELECT 1 FROM violations v
					WHERE v.interaction_id = i.id AND v.violation_type = $%[3]d
				)),
			(SELECT COUNT(*) FROM violations v
				JOIN interactions i ON i.id = v.interaction_id
				WHERE %[1]s AND v.severity = $%[4]d)`,
		where, n-2, n-1, n)

	impact := Impact{
		Period:     p,
		Config:     r.costs,
		Estimate:   true,
		Disclaimer: impactDisclaimer,
	}
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(
		&impact.HallucinationsBlocked,
		&impact.CriticalViolationsPrevented,
	); err != nil {
		return nil, fmt.Errorf("query business impact: %w", err)
	}

	impact.LegalRiskSavings = float64(impact.CriticalViolationsPrevented) * r.costs.LawsuitCost
	impact.BrandDamageSavings = float64(impact.HallucinationsBlocked) * r.costs.BrandIncidentCost
	impact.TotalSavings = impact.LegalRiskSavings + impact.BrandDamageSavings

	return &impact, nil
}
