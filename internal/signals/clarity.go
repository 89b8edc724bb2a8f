package signals

import (
	"strings"

	"github.com/JaimeStill/verity/internal/scoring"
)

const (
	hedgePenalty    = 0.05
	maxHedgePenalty = 0.2
	absolutePenalty = 0.1
	maxAbsolute     = 0.3
	shortPenalty    = 0.2
	longPenalty     = 0.1
	minWords        = 5
	maxWords        = 500
)

var (
	hedgingPhrases  = []string{"might", "maybe", "possibly", "perhaps", "probably", "i think", "not sure", "it seems", "could be"}
	absolutePhrases = []string{"guarantee", "guaranteed", "always", "never", "100%", "definitely", "certainly", "risk free"}
)

// Clarity scores the structure of a response: hedging language, absolute
// claims, and responses that are too short or too long lower it from 1.
func Clarity(text string) scoring.Signal {
	lower := strings.ToLower(text)
	words := wordPattern.FindAllString(lower, -1)
	padded := " " + strings.Join(words, " ") + " "

	found := func(phrases []string) []string {
		var hit []string
		for _, p := range phrases {
			if strings.Contains(padded, " "+p+" ") {
				hit = append(hit, p)
			}
		}
		return hit
	}

	hedges := found(hedgingPhrases)
	absolutes := found(absolutePhrases)

	score := 1.0
	score -= min(float64(len(hedges))*hedgePenalty, maxHedgePenalty)
	score -= min(float64(len(absolutes))*absolutePenalty, maxAbsolute)

	switch n := len(words); {
	case n < minWords:
		score -= shortPenalty
	case n > maxWords:
		score -= longPenalty
	}

	details := map[string]any{"words": len(words)}
	if len(hedges) > 0 {
		details["hedging"] = hedges
	}
	if len(absolutes) > 0 {
		details["absolute_claims"] = absolutes
	}

	return scoring.Signal{
		Score:   max(0, min(score, 1)),
		Details: details,
	}
}
