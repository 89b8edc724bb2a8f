package interactions

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/signals"
)

var headlines = map[findings.Status]string{
	findings.StatusApproved:  "Response approved",
	findings.StatusFlagged:   "Response flagged",
	findings.StatusBlocked:   "Response blocked",
	findings.StatusCorrected: "Response corrected",
}

var summaries = map[findings.Status]string{
	findings.StatusApproved:  "The response was validated and approved.",
	findings.StatusFlagged:   "The response contains potential issues that require review.",
	findings.StatusBlocked:   "The response contains critical issues and was blocked.",
	findings.StatusCorrected: "The response contained issues and a corrected version was produced.",
}

// Explain renders a plain-text account of a validation decision from the
// stored interaction and its child records.
func Explain(i Interaction, violations []Violation, results []VerificationResult, citations []Citation) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s (confidence %.0f%%). %s ", headlines[i.Status], i.ConfidenceScore*100, summaries[i.Status])

	switch {
	case i.ConfidenceScore >= 0.8:
		sb.WriteString("High confidence in validation results.")
	case i.ConfidenceScore >= 0.6:
		sb.WriteString("Moderate confidence in validation results.")
	default:
		sb.WriteString("Low confidence in validation results; manual review recommended.")
	}

	if len(violations) > 0 {
		fmt.Fprintf(&sb, "\n\nIssues detected (%d):", len(violations))
		for n, v := range violations {
			fmt.Fprintf(&sb, "\n%d. %s (%s): %s", n+1, typeLabel(v.Type), strings.ToUpper(string(v.Severity)), v.Description)
		}
	}

	if len(results) > 0 {
		counts := map[signals.Status]int{}
		for _, r := range results {
			counts[r.Status]++
		}
		fmt.Fprintf(&sb, "\n\nFact verification: %d verified, %d partially verified, %d unverified",
			counts[signals.StatusVerified], counts[signals.StatusPartiallyVerified], counts[signals.StatusUnverified])
		if n := counts[signals.StatusFalse]; n > 0 {
			fmt.Fprintf(&sb, ", %d false", n)
		}
		sb.WriteString(".")
	}

	if len(citations) > 0 {
		valid := 0
		for _, c := range citations {
			if c.IsValid {
				valid++
			}
		}
		fmt.Fprintf(&sb, "\n\nCitations: %d valid, %d invalid.", valid, len(citations)-valid)
	}

	switch i.Status {
	case findings.StatusApproved:
		sb.WriteString("\n\nNo rule, policy, or factual issues were found.")
	case findings.StatusCorrected:
		sb.WriteString("\n\nReview the validated response before sending it to the user.")
	default:
		if i.ValidatedResponse != nil {
			sb.WriteString("\n\nA suggested correction addresses the issues listed above.")
		}
	}

	return sb.String()
}

func typeLabel(t findings.Type) string {
	s := string(t)
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
