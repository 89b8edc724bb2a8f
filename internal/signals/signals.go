// Package signals implements the signal collectors behind the confidence score:
// claim extraction, fact verification, citation validity, consistency, and
// response clarity.
package signals

// Status classifies a verified claim.
type Status string

const (
	StatusVerified          Status = "verified"
	StatusUnverified        Status = "unverified"
	StatusFalse             Status = "false"
	StatusPartiallyVerified Status = "partially_verified"
)

// ClaimType describes what kind of assertion a claim makes.
type ClaimType string

const (
	ClaimFinancial   ClaimType = "financial"
	ClaimStatistical ClaimType = "statistical"
	ClaimNumerical   ClaimType = "numerical"
	ClaimTemporal    ClaimType = "temporal"
	ClaimRegulatory  ClaimType = "regulatory"
	ClaimFactual     ClaimType = "factual"
)

// Claim is a discrete factual assertion extracted from a response.
type Claim struct {
	Text       string    `json:"text"`
	Type       ClaimType `json:"claim_type"`
	Confidence float64   `json:"confidence"`

	// Indicators is set when the sentence cites data, research, or a source.
	Indicators bool `json:"indicators"`
}

// Verdict is one source's judgement of a claim.
type Verdict struct {
	Status     Status  `json:"verification_status"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
	Details    string  `json:"details,omitempty"`
	URL        string  `json:"url,omitempty"`

	// Alternative is the source's own description of the subject, used to
	// replace a false claim during correction.
	Alternative string `json:"alternative,omitempty"`
}

// ClaimResult pairs a claim with its aggregated verdict.
type ClaimResult struct {
	Claim   Claim   `json:"claim"`
	Verdict Verdict `json:"verdict"`
	Method  string  `json:"verification_method"`
}

// CitationResult records the reachability and content check of one cited URL.
type CitationResult struct {
	URL          string  `json:"url"`
	IsValid      bool    `json:"is_valid"`
	ContentMatch bool    `json:"content_match"`
	StatusCode   *int    `json:"http_status_code,omitempty"`
	Error        *string `json:"error_message,omitempty"`
}
