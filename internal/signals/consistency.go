package signals

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/scoring"
)

const (
	noHistoryScore       = 0.9
	singleHistoryScore   = 0.8
	shortResponseScore   = 0.7
	contradictionPenalty = 0.2
	inconsistentBelow    = 0.5
)

var consistencyOpposites = [][2]string{
	{"yes", "no"},
	{"true", "false"},
	{"always", "never"},
	{"increases", "decreases"},
	{"higher", "lower"},
}

// History supplies prior approved responses to queries similar to query
// within one organization. It is read-only.
type History interface {
	Similar(ctx context.Context, orgID uuid.UUID, query string, limit int) ([]string, error)
}

// ConsistencyReport is the consistency component's output.
type ConsistencyReport struct {
	Signal   scoring.Signal
	Findings []findings.Finding
}

// ConsistencyChecker compares a response with prior approved responses.
type ConsistencyChecker struct {
	history History
	limit   int
	logger  *slog.Logger
}

// NewConsistencyChecker creates a checker reading up to limit prior responses.
func NewConsistencyChecker(history History, limit int, logger *slog.Logger) *ConsistencyChecker {
	if limit <= 0 {
		limit = 10
	}
	return &ConsistencyChecker{
		history: history,
		limit:   limit,
		logger:  logger.With("system", "consistency"),
	}
}

// Check scores response by its Jaccard overlap with prior responses, lowered
// for every opposite-term contradiction. A score below 0.5 yields a medium
// consistency finding.
func (c *ConsistencyChecker) Check(ctx context.Context, orgID uuid.UUID, query, response string) (ConsistencyReport, error) {
	prior, err := c.history.Similar(ctx, orgID, query, c.limit)
	if err != nil {
		return ConsistencyReport{}, fmt.Errorf("load history: %w", err)
	}

	score, details := Consistency(response, prior)

	report := ConsistencyReport{Signal: scoring.Signal{Score: score, Details: details}}
	if score < inconsistentBelow {
		report.Findings = append(report.Findings, findings.Finding{
			Type:        findings.TypeConsistency,
			Severity:    findings.SeverityMedium,
			Description: fmt.Sprintf("Response is inconsistent with prior approved responses (score: %.2f)", score),
		})
	}
	return report, nil
}

// Consistency scores response against prior responses without side effects.
func Consistency(response string, prior []string) (float64, map[string]any) {
	details := map[string]any{"history": len(prior)}

	switch len(prior) {
	case 0:
		return noHistoryScore, details
	case 1:
		return singleHistoryScore, details
	}

	current := TokenSet(response)
	short := len(strings.Fields(response)) < 3
	for _, p := range prior {
		if len(strings.Fields(p)) >= 3 {
			short = false
		}
	}
	if short {
		return shortResponseScore, details
	}

	var total float64
	compared := 0
	contradictions := mapset.NewSet[string]()

	for _, p := range prior {
		other := TokenSet(p)
		if current.Cardinality() == 0 || other.Cardinality() == 0 {
			continue
		}
		total += Jaccard(current, other)
		compared++

		for _, pair := range consistencyOpposites {
			for _, o := range [][2]string{pair, {pair[1], pair[0]}} {
				if current.Contains(o[0]) && !current.Contains(o[1]) && other.Contains(o[1]) && !other.Contains(o[0]) {
					contradictions.Add(o[0] + "/" + o[1])
				}
			}
		}
	}

	if compared == 0 {
		return shortResponseScore, details
	}

	similarity := total / float64(compared)
	if similarity < 0.2 {
		if len(prior) < 3 {
			similarity = shortResponseScore
		} else {
			similarity = max(similarity, 0.4)
		}
	}

	score := max(similarity-contradictionPenalty*float64(contradictions.Cardinality()), 0)

	details["similarity"] = similarity
	if contradictions.Cardinality() > 0 {
		found := contradictions.ToSlice()
		slices.Sort(found)
		details["contradictions"] = found
	}
	return score, details
}

// TokenSet returns the stop-word-filtered lowercase word set of text.
func TokenSet(text string) mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopWords[w]; !stop {
			set.Add(w)
		}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when both are empty.
func Jaccard(a, b mapset.Set[string]) float64 {
	union := a.Union(b).Cardinality()
	if union == 0 {
		return 0
	}
	return float64(a.Intersect(b).Cardinality()) / float64(union)
}
