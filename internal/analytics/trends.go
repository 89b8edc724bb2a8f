package analytics

import (
	"fmt"
	"time"
)

// GroupBy is a trend bucket width.
type GroupBy string

const (
	GroupDay   GroupBy = "day"
	GroupWeek  GroupBy = "week"
	GroupMonth GroupBy = "month"
)

const (
	defaultTrendDays = 30
	maxBuckets       = 1000
	bucketLayout     = "2006-01-02"
)

// ParseGroupBy validates a bucket width. Empty input defaults to day.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case "":
		return GroupDay, nil
	case GroupDay, GroupWeek, GroupMonth:
		return g, nil
	default:
		return "", fmt.Errorf("%w: group_by %q", ErrInvalidInput, s)
	}
}

// Truncate returns the start of the bucket containing t, in UTC. Weeks start
// on Monday.
func (g GroupBy) Truncate(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	switch g {
	case GroupWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GroupMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// Next returns the start of the bucket after the one starting at t.
func (g GroupBy) Next(t time.Time) time.Time {
	switch g {
	case GroupWeek:
		return t.AddDate(0, 0, 7)
	case GroupMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Buckets lists every bucket start overlapping the half-open window [start, end).
func Buckets(start, end time.Time, g GroupBy) ([]time.Time, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start_date must precede end_date", ErrInvalidInput)
	}

	var out []time.Time
	for b := g.Truncate(start); b.Before(end); b = g.Next(b) {
		if len(out) == maxBuckets {
			return nil, fmt.Errorf("%w: window exceeds %d %s buckets", ErrInvalidInput, maxBuckets, g)
		}
		out = append(out, b)
	}
	return out, nil
}

// TrendPoint is one bucket of a trend series.
type TrendPoint struct {
	Date              string  `json:"date"`
	TotalInteractions int     `json:"total_interactions"`
	Approved          int     `json:"approved"`
	Flagged           int     `json:"flagged"`
	Blocked           int     `json:"blocked"`
	Corrected         int     `json:"corrected"` // flagged with a suggested correction
	Violations        int     `json:"violations"`
	AvgConfidence     float64 `json:"avg_confidence"`
}

// Trends is a contiguous bucketed series.
type Trends struct {
	Trends    []TrendPoint `json:"trends"`
	Period    GroupBy      `json:"period"`
	TotalDays int          `json:"total_days"`
}

// Fill lays the aggregated rows over the bucket series, zero-filling buckets
// with no activity. Rows outside the series are dropped.
func Fill(buckets []time.Time, rows map[string]TrendPoint) []TrendPoint {
	out := make([]TrendPoint, len(buckets))
	for n, b := range buckets {
		key := b.Format(bucketLayout)
		p, ok := rows[key]
		if !ok {
			p = TrendPoint{}
		}
		p.Date = key
		out[n] = p
	}
	return out
}

// trendWindow resolves the trend window, defaulting to the thirty days
// ending now.
func trendWindow(w Window, now time.Time) (time.Time, time.Time) {
	end := now
	if w.End != nil {
		end = *w.End
	}
	start := end.AddDate(0, 0, -defaultTrendDays)
	if w.Start != nil {
		start = *w.Start
	}
	return start.UTC(), end.UTC()
}

func totalDays(start, end time.Time) int {
	return int(end.Sub(start).Round(time.Hour).Hours() / 24)
}
