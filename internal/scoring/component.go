package scoring

// Component names a signal that contributes to the confidence score.
type Component string

const (
	FactVerification Component = "fact_verification"
	Compliance       Component = "compliance"
	CitationValidity Component = "citation_validity"
	Consistency      Component = "consistency"
	ResponseClarity  Component = "response_clarity"
)

// Components lists every component in breakdown order.
var Components = []Component{
	FactVerification,
	Compliance,
	CitationValidity,
	Consistency,
	ResponseClarity,
}

var labels = map[Component]string{
	FactVerification: "Fact Verification",
	Compliance:       "Compliance",
	CitationValidity: "Citation Validity",
	Consistency:      "Consistency",
	ResponseClarity:  "Response Clarity",
}

var descriptions = map[Component]string{
	FactVerification: "Share of extracted claims confirmed by external sources",
	Compliance:       "Adherence to regulatory rules and company policies",
	CitationValidity: "Cited URLs resolve and support the citing sentence",
	Consistency:      "Agreement with prior approved responses to similar queries",
	ResponseClarity:  "Absence of hedging, absolute promises, and length problems",
}

// Label returns the display label for c.
func (c Component) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return string(c)
}
