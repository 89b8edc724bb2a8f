package scoring

import "github.com/JaimeStill/verity/internal/findings"

var severityPenalty = map[findings.Severity]float64{
	findings.SeverityLow:      0.05,
	findings.SeverityMedium:   0.15,
	findings.SeverityHigh:     0.3,
	findings.SeverityCritical: 1.0,
}

// ComplianceSignal scores rule and policy violations. Each violation subtracts
// its severity penalty from 1, and any critical violation forces 0.
func ComplianceSignal(violations []findings.Finding) Signal {
	score := 1.0
	counted := 0

	for _, v := range violations {
		if v.Type != findings.TypeCompliance && v.Type != findings.TypePolicy {
			continue
		}
		counted++
		if v.Severity == findings.SeverityCritical {
			score = 0
			continue
		}
		score -= severityPenalty[v.Severity]
	}

	return Signal{
		Score: max(score, 0),
		Details: map[string]any{
			"violations": counted,
		},
	}
}
