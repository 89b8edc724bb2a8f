package evaluation

import (
	"fmt"
	"strings"
	"unicode"
)

// Matcher reports whether phrase occurs in text. Implementations compare case-insensitively.
type Matcher interface {
	Match(text, phrase string) bool
}

// Matcher names accepted by NewMatcher.
const (
	MatcherSubstring = "substring"
	MatcherToken     = "token"
)

// NewMatcher returns the matcher registered under name. An empty name selects substring.
func NewMatcher(name string) (Matcher, error) {
	switch name {
	case "", MatcherSubstring:
		return Substring{}, nil
	case MatcherToken:
		return Token{}, nil
	}
	return nil, fmt.Errorf("unknown matcher %q", name)
}

// Substring matches anywhere in the text, including inside longer words.
type Substring struct{}

func (Substring) Match(text, phrase string) bool {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), phrase)
}

// Token matches only whole-word sequences, so "guarantee" does not match "guaranteed".
type Token struct{}

func (Token) Match(text, phrase string) bool {
	want := Tokenize(phrase)
	if len(want) == 0 {
		return false
	}
	have := Tokenize(text)

	for i := 0; i+len(want) <= len(have); i++ {
		match := true
		for j := range want {
			if have[i+j] != want[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Tokenize lowercases text and splits it into word tokens. Hyphens, apostrophes,
// and percent or dollar signs stay attached to their word.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '%' || r == '$' || r == '-' || r == '\'')
	})

	tokens := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "-'"); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
