package analytics

import (
	"fmt"
	"math"
	"time"
)

// Direction describes how a metric moved between windows.
type Direction string

const (
	Increased Direction = "increased"
	Decreased Direction = "decreased"
	Unchanged Direction = "unchanged"
)

// Change is one metric's movement from the before window to the after window.
type Change struct {
	Metric        string    `json:"metric"`
	Before        float64   `json:"before"`
	After         float64   `json:"after"`
	PercentChange float64   `json:"percentage_change"`
	Direction     Direction `json:"direction"`
}

// Comparison reports aggregate metrics either side of a split point.
type Comparison struct {
	Split        time.Time `json:"split"`
	BeforeWindow Window    `json:"before_window"`
	AfterWindow  Window    `json:"after_window"`
	Before       Aggregate `json:"before"`
	After        Aggregate `json:"after"`
	Changes      []Change  `json:"changes"`
	Improvements []Change  `json:"improvements"`
	AreasToWatch []Change  `json:"areas_to_watch"`
}

// metric is a compared value. polarity is 1 when a rise is an improvement,
// -1 when a rise is a concern, and 0 when direction carries no judgement.
type metric struct {
	name     string
	polarity int
	value    func(Aggregate) float64
}

var compared = []metric{
	{"total_interactions", 0, func(a Aggregate) float64 { return float64(a.Total) }},
	{"approved_count", 1, func(a Aggregate) float64 { return float64(a.Approved) }},
	{"flagged_count", -1, func(a Aggregate) float64 { return float64(a.Flagged) }},
	{"blocked_count", -1, func(a Aggregate) float64 { return float64(a.Blocked) }},
	{"violations", -1, func(a Aggregate) float64 { return float64(a.Violations) }},
	{"avg_confidence", 1, func(a Aggregate) float64 { return a.AvgConfidence }},
	{"approval_rate", 1, func(a Aggregate) float64 { return a.ApprovalRate }},
}

// PercentChange returns the change from before to after in percent, rounded
// to two decimals. From zero it is 0 when after is 0 and 100 otherwise.
func PercentChange(before, after float64) float64 {
	if before == 0 {
		if after == 0 {
			return 0
		}
		return 100
	}
	return math.Round((after-before)/before*100*100) / 100
}

// Compare computes per-metric changes and classifies each as an improvement
// or an area to watch. Unchanged metrics and total volume are neither.
func Compare(before, after Aggregate) (changes, improvements, watch []Change) {
	changes = make([]Change, 0, len(compared))
	improvements = []Change{}
	watch = []Change{}

	for _, m := range compared {
		b, a := m.value(before), m.value(after)
		c := Change{
			Metric:        m.name,
			Before:        b,
			After:         a,
			PercentChange: PercentChange(b, a),
			Direction:     Unchanged,
		}

		sign := 0
		switch {
		case a > b:
			c.Direction = Increased
			sign = 1
		case a < b:
			c.Direction = Decreased
			sign = -1
		}
		changes = append(changes, c)

		switch sign * m.polarity {
		case 1:
			improvements = append(improvements, c)
		case -1:
			watch = append(watch, c)
		}
	}
	return changes, improvements, watch
}

// comparisonWindows splits the span ending at now into equal before and after
// windows around split.
func comparisonWindows(split, now time.Time) (before, after Window, err error) {
	if !split.Before(now) {
		return Window{}, Window{}, fmt.Errorf("%w: split must be in the past", ErrInvalidInput)
	}
	start := split.Add(-now.Sub(split))
	return Window{Start: &start, End: &split}, Window{Start: &split, End: &now}, nil
}

func approvalRate(approved, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(approved)/float64(total)*1e4) / 1e4
}
