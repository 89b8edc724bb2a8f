package correction

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	financialDisclaimer    = "Note: This is not financial advice. Please consult a licensed financial advisor. Past performance does not guarantee future results."
	verificationDisclaimer = "Note: Some information may require verification."
)

// softenings maps absolute or time-bound language to policy-compliant wording.
// Keys are matched case-insensitively on word boundaries.
var softenings = []struct {
	pattern     *regexp.Regexp
	replacement string
	change      string
}{
	{regexp.MustCompile(`(?i)\bguarantees\b`), "aims to ensure", "Replaced guarantee language with 'aim to'"},
	{regexp.MustCompile(`(?i)\bguaranteed\b`), "expected", "Replaced guarantee language with 'aim to'"},
	{regexp.MustCompile(`(?i)\bguarantee\b`), "aim to ensure", "Replaced guarantee language with 'aim to'"},
	{regexp.MustCompile(`(?i)\bpromise\b`), "aim", "Replaced promise language with 'aim'"},
	{regexp.MustCompile(`(?i)\b(?:24|48|twenty-four)\s+hours\b`), "7-10 business days", "Adjusted time promise to '7-10 business days'"},
	{regexp.MustCompile(`(?i)\b(?:immediately|instantly)\b`), "within 7-10 business days", "Adjusted time promise to '7-10 business days'"},
	{regexp.MustCompile(`(?i)\b(?:immediate|instant)\b`), "prompt", "Softened 'immediate' to 'prompt'"},
	{regexp.MustCompile(`(?i)\brisk[- ]free\b`), "lower-risk", "Softened 'risk-free' to 'lower-risk'"},
	{regexp.MustCompile(`(?i)\b100%`), "highly", "Softened '100%' to 'highly'"},
	{regexp.MustCompile(`(?i)\balways\b`), "typically", "Softened 'always' to 'typically'"},
	{regexp.MustCompile(`(?i)\bnever\b`), "rarely", "Softened 'never' to 'rarely'"},
	{regexp.MustCompile(`(?i)\b(?:definitely|certainly)\b`), "likely", "Softened certainty language to 'likely'"},
}

var (
	financialTerms = regexp.MustCompile(`(?i)\b(?:invest(?:ment|ing|or)?s?|stocks?|returns?|portfolio|securities|dividends?|interest rates?|crypto(?:currency)?)\b`)
	extraSpaces    = regexp.MustCompile(`[ \t]{2,}`)
)

// soften rewrites every softening whose matches in text overlap trigger and
// returns the distinct change descriptions in application order.
func soften(text, trigger string) (string, []string) {
	var changes []string
	for _, s := range softenings {
		hit := false
		for _, m := range s.pattern.FindAllString(text, -1) {
			if containsFold(m, trigger) || containsFold(trigger, m) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}

		text = s.pattern.ReplaceAllStringFunc(text, func(m string) string {
			return matchCase(m, s.replacement)
		})
		if !slices.Contains(changes, s.change) {
			changes = append(changes, s.change)
		}
	}
	return text, changes
}

// matchCase capitalizes repl when the replaced text started with a capital.
func matchCase(original, repl string) string {
	r, _ := utf8.DecodeRuneInString(original)
	if !unicode.IsUpper(r) {
		return repl
	}
	first, size := utf8.DecodeRuneInString(repl)
	return string(unicode.ToUpper(first)) + repl[size:]
}

// removeFragment drops fragment and its trailing spaces from text.
func removeFragment(text, fragment string) (string, bool) {
	idx := strings.Index(text, fragment)
	if idx < 0 {
		return text, false
	}
	end := idx + len(fragment)
	for end < len(text) && text[end] == ' ' {
		end++
	}
	return tidy(text[:idx] + text[end:]), true
}

func containsFold(text, phrase string) bool {
	return phrase != "" && strings.Contains(strings.ToLower(text), strings.ToLower(phrase))
}

func tidy(text string) string {
	return strings.TrimSpace(extraSpaces.ReplaceAllString(text, " "))
}

func appendNote(text, note string) string {
	if containsFold(text, note) {
		return text
	}
	return strings.TrimRight(text, " \n") + "\n\n" + note
}

// salvageable reports whether text still carries meaningful content.
func salvageable(text string) bool {
	return strings.IndexFunc(text, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}
