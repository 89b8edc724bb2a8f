// Package evaluation matches response text against compliance rules and company
// policies and reports every match as a finding.
package evaluation

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/policies"
	"github.com/JaimeStill/verity/internal/rules"
)

// Evaluator applies rules and policies to response text. It holds no per-request
// state and is safe for concurrent use.
type Evaluator struct {
	matcher Matcher
	logger  *slog.Logger
}

// New creates an Evaluator using matcher for keyword and phrase checks.
func New(matcher Matcher, logger *slog.Logger) *Evaluator {
	if matcher == nil {
		matcher = Substring{}
	}
	return &Evaluator{
		matcher: matcher,
		logger:  logger.With("system", "evaluation"),
	}
}

// Evaluate runs every rule and then every policy against text. All matches are collected.
func (e *Evaluator) Evaluate(ctx context.Context, text string, rs []rules.Rule, ps []policies.Policy) []findings.Finding {
	out := e.Rules(ctx, text, rs)
	return append(out, e.Policies(ctx, text, ps)...)
}

// Rules evaluates each active rule independently. Inactive rules and unsupported
// definitions are skipped; unsupported ones are logged as configuration warnings.
func (e *Evaluator) Rules(ctx context.Context, text string, rs []rules.Rule) []findings.Finding {
	var out []findings.Finding
	for _, r := range rs {
		if ctx.Err() != nil {
			break
		}
		if !r.IsActive {
			continue
		}
		if f, ok := e.evaluateRule(r, text); ok {
			out = append(out, f)
		}
	}
	return out
}

// TestRule evaluates one rule regardless of its active flag.
func (e *Evaluator) TestRule(_ context.Context, rule rules.Rule, text string) []findings.Finding {
	if f, ok := e.evaluateRule(rule, text); ok {
		return []findings.Finding{f}
	}
	return []findings.Finding{}
}

func (e *Evaluator) evaluateRule(r rules.Rule, text string) (findings.Finding, bool) {
	var triggers, missing []string
	var matched bool

	switch v := r.Definition.Variant.(type) {
	case rules.KeywordMatch:
		triggers = e.matchPhrases(text, v.Keywords)
		matched = len(triggers) > 0
	case rules.PatternMatch:
		triggers = e.matchPatterns(r, text, v.Patterns)
		matched = len(triggers) > 0
	case rules.RequiredText:
		missing = e.missingPhrases(text, v.Required)
		matched = len(missing) > 0
	case rules.Unsupported:
		e.logger.Warn("rule skipped", "rule_id", r.ID, "rule_name", r.Name, "tag", v.Tag, "reason", v.Reason)
		return findings.Finding{}, false
	default:
		e.logger.Warn("rule skipped", "rule_id", r.ID, "rule_name", r.Name, "reason", "empty definition")
		return findings.Finding{}, false
	}

	if !matched {
		return findings.Finding{}, false
	}

	id := r.ID
	return findings.Finding{
		Type:        findings.TypeCompliance,
		Severity:    r.Severity,
		Description: r.Message(),
		RuleID:      &id,
		Triggers:    triggers,
		Missing:     missing,
	}, true
}

func (e *Evaluator) matchPhrases(text string, phrases []string) []string {
	var hit []string
	for _, p := range phrases {
		if e.matcher.Match(text, p) {
			hit = append(hit, p)
		}
	}
	return hit
}

func (e *Evaluator) missingPhrases(text string, phrases []string) []string {
	var missing []string
	for _, p := range phrases {
		if !e.matcher.Match(text, p) {
			missing = append(missing, p)
		}
	}
	return missing
}

func (e *Evaluator) matchPatterns(r rules.Rule, text string, patterns []string) []string {
	var hit []string
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			e.logger.Warn("invalid rule pattern", "rule_id", r.ID, "pattern", p, "error", err)
			continue
		}
		if m := re.FindString(text); m != "" {
			hit = append(hit, strings.TrimSpace(m))
		}
	}
	return hit
}
