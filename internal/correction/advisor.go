// Package correction assembles a compliant alternative to a flagged or blocked
// response from rule-based substitutions and an optional generative rewrite.
package correction

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/signals"
)

// SafeFallback is returned when no compliant response can be derived.
const SafeFallback = "I'm unable to provide a verified answer to this question. Please contact a representative for further assistance."

// Input is everything the advisor considers.
type Input struct {
	Query    string
	Response string
	Status   findings.Status
	Findings []findings.Finding
	Claims   []signals.ClaimResult
}

// Result is the advisor's suggestion.
type Result struct {
	Suggested  bool     `json:"correction_suggested"`
	Response   string   `json:"validated_response,omitempty"`
	Changes    []string `json:"changes_made"`
	Diff       string   `json:"diff,omitempty"`
	Generative bool     `json:"generative"`
}

// Advisor produces corrections. The generator is optional.
type Advisor struct {
	generator Generator
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates an Advisor. A nil generator limits it to rule-based substitutions.
func New(generator Generator, timeout time.Duration, logger *slog.Logger) *Advisor {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Advisor{
		generator: generator,
		timeout:   timeout,
		logger:    logger.With("system", "correction"),
	}
}

// Applies reports whether status warrants a correction.
func Applies(status findings.Status) bool {
	return status == findings.StatusFlagged || status == findings.StatusBlocked
}

// Suggest builds a corrected response. It never fails: generative errors fall
// back to the rule-based draft, and an unsalvageable draft yields SafeFallback
// with Suggested false.
func (a *Advisor) Suggest(ctx context.Context, in Input) Result {
	if !Applies(in.Status) {
		return Result{Changes: []string{}}
	}

	draft, changes := Substitute(in)
	ok := len(changes) > 0 && salvageable(draft) && !residualCritical(draft, in.Findings)

	res := Result{Changes: changes}
	if ok {
		res.Suggested = true
		res.Response = draft
	}

	if a.generator != nil {
		if text, err := a.rewrite(ctx, in, draft); err != nil {
			a.logger.Warn("generative rewrite failed", "error", err)
		} else if salvageable(text) && !residualCritical(text, in.Findings) {
			res.Suggested = true
			res.Response = text
			res.Generative = true
			res.Changes = append(res.Changes, "Applied generative rewrite")
		}
	}

	if !res.Suggested {
		a.logger.Info("no safe correction derivable", "findings", len(in.Findings))
		return Result{
			Response: SafeFallback,
			Changes:  []string{},
		}
	}

	res.Diff = Diff(in.Response, res.Response)
	return res
}

func (a *Advisor) rewrite(ctx context.Context, in Input, draft string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	return a.generator.Rewrite(ctx, RewriteRequest{
		Query:    in.Query,
		Original: in.Response,
		Draft:    draft,
		Findings: in.Findings,
	})
}

// Substitute applies the rule-based corrections in a fixed order: rule and
// policy triggers, required text, false claims, invalid citations, then
// disclaimers. Each applied substitution adds one entry to changes.
func Substitute(in Input) (string, []string) {
	text := in.Response
	changes := []string{}
	add := func(c ...string) {
		for _, x := range c {
			if x != "" {
				changes = append(changes, x)
			}
		}
	}

	ruleFindings := false
	for _, f := range in.Findings {
		if f.Type != findings.TypeCompliance && f.Type != findings.TypePolicy {
			continue
		}
		ruleFindings = true
		for _, t := range f.Triggers {
			var applied []string
			text, applied = soften(text, t)
			add(applied...)
		}
	}

	for _, f := range in.Findings {
		for _, m := range f.Missing {
			if !containsFold(text, m) {
				text = appendNote(text, m)
				add(fmt.Sprintf("Added required text: '%s'", m))
			}
		}
	}

	unverified := false
	for _, c := range in.Claims {
		switch c.Verdict.Status {
		case signals.StatusFalse:
			if c.Verdict.Alternative != "" {
				if replaced, ok := replaceClaim(text, c.Claim.Text, c.Verdict.Alternative); ok {
					text = replaced
					add(fmt.Sprintf("Replaced false claim '%s' with verified information", c.Claim.Text))
					continue
				}
			}
			if removed, ok := removeFragment(text, c.Claim.Text); ok {
				text = removed
				add(fmt.Sprintf("Removed false claim '%s'", c.Claim.Text))
			}
		case signals.StatusUnverified, signals.StatusPartiallyVerified:
			unverified = true
		}
	}

	for _, f := range findings.OfType(in.Findings, findings.TypeCitation) {
		for _, u := range f.Triggers {
			if removed, ok := removeFragment(text, u); ok {
				text = removed
				add(fmt.Sprintf("Removed invalid citation %s", u))
			}
		}
	}

	if ruleFindings && financialTerms.MatchString(in.Response) && !containsFold(text, "not financial advice") {
		text = appendNote(text, financialDisclaimer)
		add("Added financial disclaimer")
	}

	hallucinated := len(findings.OfType(in.Findings, findings.TypeHallucination)) > 0
	if (unverified || hallucinated) && len(changes) > 0 && !containsFold(text, verificationDisclaimer) {
		text = appendNote(text, verificationDisclaimer)
		add("Added verification disclaimer")
	}

	return tidy(text), changes
}

// replaceClaim swaps the first case-insensitive occurrence of claim. Offsets
// come from text itself since case folding may change byte lengths.
func replaceClaim(text, claim, alternative string) (string, bool) {
	if claim == "" {
		return text, false
	}
	loc := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(claim)).FindStringIndex(text)
	if loc == nil {
		return text, false
	}
	return text[:loc[0]] + alternative + text[loc[1]:], true
}

// residualCritical reports whether a trigger of a critical finding survived.
func residualCritical(text string, fs []findings.Finding) bool {
	for _, f := range fs {
		if f.Severity != findings.SeverityCritical {
			continue
		}
		for _, t := range f.Triggers {
			if containsFold(text, t) {
				return true
			}
		}
		for _, m := range f.Missing {
			if !containsFold(text, m) {
				return true
			}
		}
	}
	return false
}

// Diff renders the change from original to corrected as a unified patch.
func Diff(original, corrected string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, corrected, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.PatchToText(dmp.PatchMake(original, diffs))
}
