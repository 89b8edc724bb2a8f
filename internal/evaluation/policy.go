package evaluation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/policies"
)

const highConfidence = 0.8

var (
	prohibitionPattern = regexp.MustCompile(
		`(?i)\b(?:never|do not|don't|must not|must never|should not|may not)\s+` +
			`(?:(?:promise|say|state|claim|offer|mention|use|guarantee|suggest)\s+)?` +
			`(?:that\s+)?["'“]?([^"'”.;:!?\n]+)`,
	)

	durationPattern = regexp.MustCompile(
		`(?i)\b(\d+)(?:\s*(?:-|to)\s*\d+)?\s*(?:business\s+|working\s+)?(minute|hour|day|week)s?\b`,
	)

	oppositePairs = [][2]string{
		{"always", "never"},
		{"guaranteed", "cannot guarantee"},
		{"immediate", "within"},
		{"free", "charge"},
	}
)

type policyMatch struct {
	description string
	confidence  float64
	triggers    []string
}

// Policies checks text against each active policy in the order given and emits
// at most one finding per policy. Severity is high above 0.8 detection confidence.
func (e *Evaluator) Policies(ctx context.Context, text string, ps []policies.Policy) []findings.Finding {
	var out []findings.Finding
	for _, p := range ps {
		if ctx.Err() != nil {
			break
		}
		if !p.IsActive {
			continue
		}

		m, ok := e.matchPolicy(p, text)
		if !ok {
			continue
		}

		sev := findings.SeverityMedium
		if m.confidence > highConfidence {
			sev = findings.SeverityHigh
		}

		id := p.ID
		out = append(out, findings.Finding{
			Type:        findings.TypePolicy,
			Severity:    sev,
			Description: m.description,
			PolicyID:    &id,
			Triggers:    m.triggers,
		})
	}
	return out
}

func (e *Evaluator) matchPolicy(p policies.Policy, text string) (policyMatch, bool) {
	for _, phrase := range ProhibitedPhrases(p.Content) {
		if e.matcher.Match(text, phrase) {
			return policyMatch{
				description: fmt.Sprintf("Response contradicts policy '%s': uses prohibited phrase '%s'", p.Name, phrase),
				confidence:  0.9,
				triggers:    []string{phrase},
			}, true
		}
	}

	if isRefundPolicy(p) {
		if m, ok := refundWindow(p, text); ok {
			return m, true
		}
	}

	lowerPolicy := strings.ToLower(p.Content)
	for _, pair := range oppositePairs {
		for _, order := range [][2]string{{pair[0], pair[1]}, {pair[1], pair[0]}} {
			if strings.Contains(lowerPolicy, order[0]) && e.matcher.Match(text, order[1]) && !e.matcher.Match(text, order[0]) {
				return policyMatch{
					description: fmt.Sprintf("Response contradicts policy '%s': policy uses '%s' but response uses '%s'", p.Name, order[0], order[1]),
					confidence:  highConfidence,
					triggers:    []string{order[1]},
				}, true
			}
		}
	}

	return policyMatch{}, false
}

// ProhibitedPhrases extracts the objects of statements such as "never promise X",
// "do not say X", or "must not X" from policy text.
func ProhibitedPhrases(content string) []string {
	var out []string
	for _, m := range prohibitionPattern.FindAllStringSubmatch(content, -1) {
		phrase := strings.TrimSpace(m[1])
		if len(phrase) < 3 || len(strings.Fields(phrase)) > 8 {
			continue
		}
		out = append(out, strings.ToLower(phrase))
	}
	return out
}

func isRefundPolicy(p policies.Policy) bool {
	if p.Category != nil && strings.Contains(strings.ToLower(*p.Category), "refund") {
		return true
	}
	return strings.Contains(strings.ToLower(p.Content), "refund")
}

type duration struct {
	text string
	days float64
}

func refundWindow(p policies.Policy, text string) (policyMatch, bool) {
	policyDur := shortestDuration(p.Content)
	responseDur := shortestDuration(text)
	if policyDur == nil || responseDur == nil {
		return policyMatch{}, false
	}

	if responseDur.days >= policyDur.days {
		return policyMatch{}, false
	}

	return policyMatch{
		description: fmt.Sprintf(
			"Response promises %s but policy '%s' allows %s",
			responseDur.text, p.Name, policyDur.text,
		),
		confidence: 0.9,
		triggers:   []string{responseDur.text},
	}, true
}

func shortestDuration(text string) *duration {
	var best *duration
	for _, m := range durationPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		d := duration{text: strings.TrimSpace(m[0])}
		switch strings.ToLower(m[2]) {
		case "minute":
			d.days = float64(n) / (24 * 60)
		case "hour":
			d.days = float64(n) / 24
		case "day":
			d.days = float64(n)
		case "week":
			d.days = float64(n) * 7
		}

		if best == nil || d.days < best.days {
			best = &d
		}
	}
	return best
}
