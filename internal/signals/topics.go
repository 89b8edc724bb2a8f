package signals

import (
	"regexp"
	"strings"
)

var topicTerms = map[string][]string{
	"technology": {"programming", "software", "framework", "library", "javascript", "computer", "technology", "code", "web", "development"},
	"animal":     {"snake", "snakes", "reptile", "reptiles", "animal", "genus", "species", "mammal", "bird", "fish"},
	"food":       {"fruit", "food", "eat", "cooking", "recipe", "vegetable", "nutrition"},
	"anatomy":    {"organ", "anatomy", "body", "bone", "muscle"},
}

var topicOrder = []string{"technology", "animal", "food", "anatomy"}

var (
	predicatePattern = regexp.MustCompile(`(?i)\b(?:is|are|was|were)\s+(?:(?:a|an|the)\s+)?([^.;]+)`)
	subjectPattern   = regexp.MustCompile(`^([A-Z][\w+#.-]*(?:\s+[A-Z][\w+#.-]*)*)\s+(?:is|are|was|were)\s+`)
	termPattern      = regexp.MustCompile(`[a-z]{3,}`)
	capitalPattern   = regexp.MustCompile(`\b[A-Z][a-z]+\b`)

	stopWords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
		"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "are": {}, "was": {}, "were": {},
		"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {},
		"did": {}, "will": {}, "would": {}, "should": {}, "could": {}, "may": {}, "might": {},
		"must": {}, "can": {}, "this": {}, "that": {}, "these": {}, "those": {}, "it": {}, "its": {},
	}
)

// Topic returns the subject area text belongs to, or "" when no area dominates.
func Topic(text string) string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	best, bestHits := "", 0
	for _, topic := range topicOrder {
		hits := 0
		for _, w := range words {
			for _, t := range topicTerms[topic] {
				if w == t {
					hits++
				}
			}
		}
		if hits > bestHits {
			best, bestHits = topic, hits
		}
	}
	return best
}

// Predicate returns what a sentence says its subject is: "Python is a snake"
// yields "snake".
func Predicate(sentence string) string {
	m := predicatePattern.FindStringSubmatch(sentence)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(m[1], ",:!?"))
}

// Subject returns the search subject of a claim. "X is Y" sentences yield X,
// otherwise capitalized words lead a short list of significant terms.
func Subject(claim string, maxTerms int) string {
	if m := subjectPattern.FindStringSubmatch(strings.TrimSpace(claim)); m != nil {
		return m[1]
	}

	var terms []string
	seen := map[string]bool{}
	add := func(w string) {
		w = strings.ToLower(w)
		if seen[w] || len(terms) >= maxTerms {
			return
		}
		if _, stop := stopWords[w]; stop {
			return
		}
		seen[w] = true
		terms = append(terms, w)
	}

	for _, w := range capitalPattern.FindAllString(claim, -1) {
		add(w)
	}
	for _, w := range termPattern.FindAllString(strings.ToLower(claim), -1) {
		add(w)
	}

	if len(terms) == 0 {
		return truncate(claim, 50)
	}
	return strings.Join(terms, " ")
}

// termOverlap returns the share of the claim's significant words found in text.
func termOverlap(claim, text string) float64 {
	words := termPattern.FindAllString(strings.ToLower(claim), -1)
	if len(words) == 0 {
		return 0
	}

	have := map[string]struct{}{}
	for _, w := range termPattern.FindAllString(strings.ToLower(text), -1) {
		have[w] = struct{}{}
	}

	want := map[string]struct{}{}
	matched := 0
	for _, w := range words {
		if _, dup := want[w]; dup {
			continue
		}
		want[w] = struct{}{}
		if _, ok := have[w]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(want))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
