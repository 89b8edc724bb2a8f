package rules

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/verity/internal/findings"
)

//go:embed templates.yaml
var templatesYAML []byte

// Template is a predefined regulatory rule an organization can install.
type Template struct {
	Key         string            `yaml:"key" json:"key"`
	Regulation  string            `yaml:"regulation" json:"regulation"`
	Name        string            `yaml:"rule_name" json:"rule_name"`
	Description string            `yaml:"description" json:"description"`
	Industry    *string           `yaml:"industry" json:"industry"`
	Severity    findings.Severity `yaml:"severity" json:"severity"`
	Definition  Definition        `yaml:"rule_definition" json:"rule_definition"`
}

// Command converts the template into a create command for a regulatory rule.
func (t Template) Command() Command {
	desc := t.Description
	return Command{
		Name:        t.Name,
		Description: &desc,
		RuleType:    TypeRegulatory,
		Definition:  t.Definition,
		Industry:    t.Industry,
		Severity:    t.Severity,
	}
}

type catalog struct {
	templates []Template
}

func loadCatalog() (*catalog, error) {
	return parseCatalog(templatesYAML)
}

func parseCatalog(data []byte) (*catalog, error) {
	var doc struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rule templates: %w", err)
	}

	seen := make(map[string]bool, len(doc.Templates))
	for _, t := range doc.Templates {
		if seen[t.Key] {
			return nil, fmt.Errorf("duplicate rule template %q", t.Key)
		}
		seen[t.Key] = true

		if _, err := findings.ParseSeverity(string(t.Severity)); err != nil {
			return nil, fmt.Errorf("rule template %q: %w", t.Key, err)
		}
		if err := t.Definition.Validate(); err != nil {
			return nil, fmt.Errorf("rule template %q: %w", t.Key, err)
		}
	}

	return &catalog{templates: doc.Templates}, nil
}

func (c *catalog) list() []Template {
	return slices.Clone(c.templates)
}

func (c *catalog) find(key string) (Template, bool) {
	i := slices.IndexFunc(c.templates, func(t Template) bool { return t.Key == key })
	if i < 0 {
		return Template{}, false
	}
	return c.templates[i], true
}
