package rules

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Kind tags the evaluator strategy a rule definition is interpreted by.
type Kind string

const (
	KindKeywordMatch Kind = "keyword_match"
	KindPatternMatch Kind = "pattern_match"
	KindRequiredText Kind = "required_text"
	KindUnsupported  Kind = "unsupported"

	kindForbiddenText Kind = "forbidden_text"
)

// Action is what a matching rule asks the pipeline to do.
type Action string

const (
	ActionFlag    Action = "flag"
	ActionBlock   Action = "block"
	ActionWarn    Action = "warn"
	ActionRewrite Action = "rewrite"
)

func (a Action) valid() bool {
	switch a {
	case ActionFlag, ActionBlock, ActionWarn, ActionRewrite:
		return true
	}
	return false
}

// Variant is one arm of the rule definition union.
type Variant interface {
	Kind() Kind
}

// Outcome is shared by every matching variant.
type Outcome struct {
	Action  Action `json:"action,omitempty"`
	Message string `json:"message,omitempty"`
}

// KeywordMatch fires when any keyword appears in the response.
type KeywordMatch struct {
	Keywords []string `json:"keywords"`
	Outcome
}

// PatternMatch fires when any regular expression matches the response.
type PatternMatch struct {
	Patterns []string `json:"patterns"`
	Outcome
}

// RequiredText fires when any required phrase is absent from the response.
type RequiredText struct {
	Required []string `json:"required"`
	Outcome
}

// Unsupported is an inert definition: an unknown tag or a payload that failed to decode.
type Unsupported struct {
	Tag    string          `json:"tag,omitempty"`
	Reason string          `json:"reason"`
	Raw    json.RawMessage `json:"-"`
}

func (KeywordMatch) Kind() Kind { return KindKeywordMatch }
func (PatternMatch) Kind() Kind { return KindPatternMatch }
func (RequiredText) Kind() Kind { return KindRequiredText }
func (Unsupported) Kind() Kind  { return KindUnsupported }

// Definition wraps the rule_definition union for JSON, YAML, and JSONB column round-trips.
type Definition struct {
	Variant Variant
}

// NewDefinition wraps v.
func NewDefinition(v Variant) Definition {
	return Definition{Variant: v}
}

// Kind reports the active variant tag, or unsupported when empty.
func (d Definition) Kind() Kind {
	if d.Variant == nil {
		return KindUnsupported
	}
	return d.Variant.Kind()
}

// Outcome returns the action and message of matching variants.
func (d Definition) Outcome() (Outcome, bool) {
	switch v := d.Variant.(type) {
	case KeywordMatch:
		return v.Outcome, true
	case PatternMatch:
		return v.Outcome, true
	case RequiredText:
		return v.Outcome, true
	}
	return Outcome{}, false
}

// Validate rejects definitions that could never fire as written.
// Unsupported variants are storable but are reported here so writes can refuse them.
func (d Definition) Validate() error {
	switch v := d.Variant.(type) {
	case KeywordMatch:
		if len(v.Keywords) == 0 {
			return errors.New("keyword_match requires at least one keyword")
		}
		return v.Outcome.validate()
	case PatternMatch:
		if len(v.Patterns) == 0 {
			return errors.New("pattern_match requires at least one pattern")
		}
		for _, p := range v.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("pattern %q: %w", p, err)
			}
		}
		return v.Outcome.validate()
	case RequiredText:
		if len(v.Required) == 0 {
			return errors.New("required_text requires at least one phrase")
		}
		return v.Outcome.validate()
	case Unsupported:
		return fmt.Errorf("unsupported rule definition: %s", v.Reason)
	}
	return errors.New("rule definition is empty")
}

func (o Outcome) validate() error {
	if o.Action != "" && !o.Action.valid() {
		return fmt.Errorf("invalid action %q", o.Action)
	}
	return nil
}

type envelope struct {
	Type          Kind     `json:"type"`
	Keywords      []string `json:"keywords,omitempty"`
	ForbiddenText []string `json:"forbidden_text,omitempty"`
	Patterns      []string `json:"patterns,omitempty"`
	Required      []string `json:"required,omitempty"`
	RequiredText  []string `json:"required_text,omitempty"`
	Action        Action   `json:"action,omitempty"`
	Message       string   `json:"message,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	Tag           string   `json:"tag,omitempty"`
}

// DecodeDefinition never fails: unknown tags and malformed payloads become Unsupported.
func DecodeDefinition(data []byte) Definition {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Definition{Variant: Unsupported{Reason: err.Error(), Raw: append(json.RawMessage(nil), data...)}}
	}

	out := Outcome{Action: e.Action, Message: e.Message}
	if out.Action == "" {
		out.Action = ActionFlag
	}

	switch e.Type {
	case KindKeywordMatch, kindForbiddenText:
		return Definition{Variant: KeywordMatch{
			Keywords: append(e.Keywords, e.ForbiddenText...),
			Outcome:  out,
		}}
	case KindPatternMatch:
		return Definition{Variant: PatternMatch{Patterns: e.Patterns, Outcome: out}}
	case KindRequiredText:
		return Definition{Variant: RequiredText{
			Required: append(e.Required, e.RequiredText...),
			Outcome:  out,
		}}
	case KindUnsupported:
		return Definition{Variant: Unsupported{Tag: e.Tag, Reason: e.Reason}}
	case "":
		return Definition{Variant: Unsupported{Reason: "missing type", Raw: append(json.RawMessage(nil), data...)}}
	}

	return Definition{Variant: Unsupported{
		Tag:    string(e.Type),
		Reason: fmt.Sprintf("unknown type %q", e.Type),
		Raw:    append(json.RawMessage(nil), data...),
	}}
}

// MarshalJSON writes the variant fields with its type tag.
// Unsupported definitions that carry their original payload write it back unchanged.
func (d Definition) MarshalJSON() ([]byte, error) {
	switch v := d.Variant.(type) {
	case KeywordMatch:
		return json.Marshal(envelope{Type: KindKeywordMatch, Keywords: v.Keywords, Action: v.Action, Message: v.Message})
	case PatternMatch:
		return json.Marshal(envelope{Type: KindPatternMatch, Patterns: v.Patterns, Action: v.Action, Message: v.Message})
	case RequiredText:
		return json.Marshal(envelope{Type: KindRequiredText, Required: v.Required, Action: v.Action, Message: v.Message})
	case Unsupported:
		if len(v.Raw) > 0 {
			return v.Raw, nil
		}
		return json.Marshal(envelope{Type: KindUnsupported, Tag: v.Tag, Reason: v.Reason})
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes via DecodeDefinition and never returns an error.
func (d *Definition) UnmarshalJSON(data []byte) error {
	*d = DecodeDefinition(data)
	return nil
}

// UnmarshalYAML converts the node to JSON and decodes it the same way.
func (d *Definition) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]any
	if err := node.Decode(&m); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	*d = DecodeDefinition(data)
	return nil
}

// Value stores the definition in a JSONB column.
func (d Definition) Value() (driver.Value, error) {
	data, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan reads the definition from a JSONB column.
func (d *Definition) Scan(src any) error {
	switch s := src.(type) {
	case []byte:
		*d = DecodeDefinition(s)
	case string:
		*d = DecodeDefinition([]byte(s))
	case nil:
		*d = Definition{Variant: Unsupported{Reason: "null definition"}}
	default:
		return fmt.Errorf("scan rule definition: unsupported type %T", src)
	}
	return nil
}
