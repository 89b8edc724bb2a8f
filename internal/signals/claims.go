package signals

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

const minClaimLength = 10

// Extractor splits a response into factual claims.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]Claim, error)
}

var (
	currencyPattern   = regexp.MustCompile(`\$[\d,]+\.?\d*`)
	percentPattern    = regexp.MustCompile(`[\d,]+\.?\d*\s*%`)
	numberPattern     = regexp.MustCompile(`\d+`)
	datePattern       = regexp.MustCompile(`(?i)\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}[/-]\d{1,2}[/-]\d{4}|(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4})\b`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	wordPattern       = regexp.MustCompile(`[a-z0-9$%']+`)

	opinionMarkers    = []string{"think", "believe", "feel", "opinion", "prefer", "should", "might", "could"}
	factualIndicators = []string{"according to", "data", "research", "study", "report", "statistics"}
	regulatoryTerms   = []string{"regulation", "law", "act", "rule"}
)

// ProseExtractor segments text into sentences with the prose tokenizer and
// keeps the sentences that read as factual statements.
type ProseExtractor struct{}

func (ProseExtractor) Extract(ctx context.Context, text string) ([]Claim, error) {
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	if text == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(
		text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("segment sentences: %w", err)
	}

	var claims []Claim
	for _, s := range doc.Sentences() {
		if err := ctx.Err(); err != nil {
			return claims, err
		}
		if c, ok := ParseClaim(s.Text); ok {
			claims = append(claims, c)
		}
	}
	return claims, nil
}

// ParseClaim classifies one sentence. It reports false for fragments shorter
// than ten characters and for sentences carrying an opinion marker.
func ParseClaim(sentence string) (Claim, bool) {
	sentence = strings.TrimSpace(sentence)
	if len(sentence) < minClaimLength {
		return Claim{}, false
	}

	lower := strings.ToLower(sentence)
	words := wordPattern.FindAllString(lower, -1)
	for _, m := range opinionMarkers {
		if containsWord(words, m) {
			return Claim{}, false
		}
	}

	hasCurrency := currencyPattern.MatchString(sentence)
	hasPercent := percentPattern.MatchString(sentence)
	hasNumber := numberPattern.MatchString(sentence)
	hasDate := datePattern.MatchString(sentence)

	indicators := false
	for _, w := range factualIndicators {
		if strings.Contains(lower, w) {
			indicators = true
			break
		}
	}

	confidence := 0.5
	if hasNumber {
		confidence += 0.2
	}
	if hasDate {
		confidence += 0.1
	}
	if indicators {
		confidence += 0.1
	}

	claimType := ClaimFactual
	switch {
	case hasCurrency:
		claimType = ClaimFinancial
	case hasPercent:
		claimType = ClaimStatistical
	case hasDate:
		claimType = ClaimTemporal
	case hasNumber:
		claimType = ClaimNumerical
	default:
		for _, t := range regulatoryTerms {
			if containsWord(words, t) {
				claimType = ClaimRegulatory
				break
			}
		}
	}

	return Claim{
		Text:       sentence,
		Type:       claimType,
		Confidence: min(confidence, 1),
		Indicators: indicators,
	}, true
}

func containsWord(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}
