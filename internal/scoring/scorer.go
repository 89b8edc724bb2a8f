package scoring

import (
	"log/slog"
	"math"

	"github.com/JaimeStill/verity/internal/findings"
)

const (
	positiveThreshold = 0.8
	negativeThreshold = 0.6
)

// Signal is one component's raw result before weighting.
type Signal struct {
	Score   float64        `json:"score"`
	Details map[string]any `json:"details,omitempty"`
}

// ComponentScore is one component's entry in the confidence breakdown.
type ComponentScore struct {
	Score         float64        `json:"score"`
	Weight        float64        `json:"weight"`
	WeightedScore float64        `json:"weighted_score"`
	Label         string         `json:"label"`
	Description   string         `json:"description"`
	Details       map[string]any `json:"details,omitempty"`
}

// Contributions lists the components that raised or lowered confidence.
type Contributions struct {
	PositiveFactors []string `json:"positive_factors"`
	NegativeFactors []string `json:"negative_factors"`
}

// Breakdown explains how a confidence score was derived.
type Breakdown struct {
	Components    map[Component]ComponentScore `json:"components"`
	Contributions Contributions                `json:"contributions"`
}

// Result is the scorer's output.
type Result struct {
	Score     float64
	Breakdown Breakdown
	Status    findings.Status
}

// Scorer combines component signals under a weight profile and decides a status.
type Scorer struct {
	logger *slog.Logger
}

// New creates a Scorer.
func New(logger *slog.Logger) *Scorer {
	return &Scorer{logger: logger.With("system", "scoring")}
}

// Score weights the present signals, renormalizing over absent components,
// and applies the decision thresholds.
func (s *Scorer) Score(
	profile Profile,
	thresholds Thresholds,
	signals map[Component]Signal,
	violations []findings.Finding,
) Result {
	var present float64
	var missing []Component
	for _, c := range Components {
		if _, ok := signals[c]; ok {
			present += profile.Weight(c)
		} else {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 {
		s.logger.Info("renormalizing weights over present components", "missing", missing)
	}

	breakdown := Breakdown{
		Components: make(map[Component]ComponentScore, len(signals)),
		Contributions: Contributions{
			PositiveFactors: []string{},
			NegativeFactors: []string{},
		},
	}

	var total float64
	for _, c := range Components {
		sig, ok := signals[c]
		if !ok {
			continue
		}

		score := clamp(sig.Score)
		weight := 0.0
		if present > 0 {
			weight = profile.Weight(c) / present
		}
		weighted := score * weight
		total += weighted

		breakdown.Components[c] = ComponentScore{
			Score:         round(score),
			Weight:        round(weight),
			WeightedScore: round(weighted),
			Label:         c.Label(),
			Description:   descriptions[c],
			Details:       sig.Details,
		}

		switch {
		case score >= positiveThreshold:
			breakdown.Contributions.PositiveFactors = append(breakdown.Contributions.PositiveFactors, c.Label())
		case score < negativeThreshold:
			breakdown.Contributions.NegativeFactors = append(breakdown.Contributions.NegativeFactors, c.Label())
		}
	}

	if sig, ok := signals[Compliance]; ok && sig.Score < 1 {
		for _, v := range violations {
			if v.Type == findings.TypeCompliance || v.Type == findings.TypePolicy {
				breakdown.Contributions.NegativeFactors = append(breakdown.Contributions.NegativeFactors, v.Description)
			}
		}
	}

	score := round(clamp(total))

	return Result{
		Score:     score,
		Breakdown: breakdown,
		Status:    Decide(score, thresholds, violations),
	}
}

// Decide maps a score and its violations to a status. A critical violation
// always blocks, regardless of score.
func Decide(score float64, t Thresholds, violations []findings.Finding) findings.Status {
	switch {
	case findings.HasCritical(violations):
		return findings.StatusBlocked
	case score < t.Block:
		return findings.StatusBlocked
	case score < t.Flag || len(violations) > 0:
		return findings.StatusFlagged
	default:
		return findings.StatusApproved
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
