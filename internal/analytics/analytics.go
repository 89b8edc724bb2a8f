// Package analytics computes read-side aggregates over the audit store:
// summary statistics, time-bucketed trends, before/after comparisons, and
// business impact estimates. Reads are not transactional.
package analytics

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/pkg/formatting"
)

// Window is a half-open [Start, End) time range. Nil bounds are open.
type Window struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// ParseWindow reads start_date and end_date bounds. A bare end date includes
// the whole day.
func ParseWindow(start, end string) (Window, error) {
	var w Window
	var err error

	if w.Start, err = formatting.ParseDateBound(start, false); err != nil {
		return w, fmt.Errorf("%w: start_date: %v", ErrInvalidInput, err)
	}
	if w.End, err = formatting.ParseDateBound(end, true); err != nil {
		return w, fmt.Errorf("%w: end_date: %v", ErrInvalidInput, err)
	}
	if w.Start != nil && w.End != nil && !w.Start.Before(*w.End) {
		return w, fmt.Errorf("%w: start_date must precede end_date", ErrInvalidInput)
	}
	return w, nil
}

// where renders the organization and window predicates for the interactions
// table aliased as alias, appending their arguments to args.
func (w Window) where(alias string, orgID uuid.UUID, args []any) (string, []any) {
	args = append(args, orgID)
	clause := fmt.Sprintf("%s.organization_id = $%d", alias, len(args))
	if w.Start != nil {
		args = append(args, *w.Start)
		clause += fmt.Sprintf(" AND %s.timestamp >= $%d", alias, len(args))
	}
	if w.End != nil {
		args = append(args, *w.End)
		clause += fmt.Sprintf(" AND %s.timestamp < $%d", alias, len(args))
	}
	return clause, args
}

// DateRange reports the first and last interaction timestamps in a result.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Stats summarizes an organization's interactions within a window.
type Stats struct {
	TotalInteractions int `json:"total_interactions"`
	ApprovedCount     int `json:"approved_count"`
	FlaggedCount      int `json:"flagged_count"`
	BlockedCount      int `json:"blocked_count"`

	// CorrectedCount is the subset of FlaggedCount stored with a suggested
	// correction. It is not a separate decision.
	CorrectedCount int `json:"corrected_count"`

	TotalViolations      int            `json:"total_violations"`
	ViolationsByType     map[string]int `json:"violations_by_type"`
	ViolationsBySeverity map[string]int `json:"violations_by_severity"`
	AvgConfidenceScore   float64        `json:"avg_confidence_score"`
	InteractionsByModel  map[string]int `json:"interactions_by_model"`
	DateRange            DateRange      `json:"date_range"`
}

// Aggregate holds the metrics compared across two windows.
type Aggregate struct {
	Total         int     `json:"total_interactions"`
	Approved      int     `json:"approved_count"`
	Flagged       int     `json:"flagged_count"`
	Blocked       int     `json:"blocked_count"`
	Violations    int     `json:"violations"`
	AvgConfidence float64 `json:"avg_confidence"`
	ApprovalRate  float64 `json:"approval_rate"`
}

// Costs are the unit costs behind the business impact estimate.
type Costs struct {
	BrandIncidentCost float64 `json:"brand_incident_cost"`
	LawsuitCost       float64 `json:"lawsuit_cost"`
}

// Impact is an advisory estimate of losses avoided by blocking responses.
type Impact struct {
	HallucinationsBlocked       int     `json:"hallucinations_blocked"`
	CriticalViolationsPrevented int     `json:"critical_violations_prevented"`
	LegalRiskSavings            float64 `json:"legal_risk_savings"`
	BrandDamageSavings          float64 `json:"brand_damage_savings"`
	TotalSavings                float64 `json:"total_savings"`
	Period                      Period  `json:"period"`
	Config                      Costs   `json:"config"`
	Estimate                    bool    `json:"is_estimate"`
	Disclaimer                  string  `json:"disclaimer"`
}

const impactDisclaimer = "Estimated savings based on configured unit costs; not audited financial data."

// Period selects the business impact lookback.
type Period string

const (
	Period7d  Period = "7d"
	Period30d Period = "30d"
	Period90d Period = "90d"
	PeriodAll Period = "all"
)

// ParsePeriod validates a period. Empty input defaults to 30d.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return Period30d, nil
	case Period7d, Period30d, Period90d, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("%w: period %q", ErrInvalidInput, s)
	}
}

// Since returns the start of the period ending at now, or nil for all.
func (p Period) Since(now time.Time) *time.Time {
	var days int
	switch p {
	case Period7d:
		days = 7
	case Period30d:
		days = 30
	case Period90d:
		days = 90
	default:
		return nil
	}
	t := now.AddDate(0, 0, -days)
	return &t
}
