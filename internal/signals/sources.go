package signals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrSourceUnavailable marks a source that could not be reached or answered
// with an unexpected status.
var ErrSourceUnavailable = errors.New("source unavailable")

// Source judges a claim against one external knowledge base. The query is the
// user's original question and is used to disambiguate the subject.
type Source interface {
	Name() string
	Verify(ctx context.Context, claim Claim, query string) (Verdict, error)
}

func unverified(source, details string) Verdict {
	return Verdict{
		Status:     StatusUnverified,
		Confidence: 0.3,
		Source:     source,
		Details:    details,
	}
}

func getJSON(ctx context.Context, client *http.Client, endpoint, userAgent string, dest any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: decode response: %v", ErrSourceUnavailable, err)
	}
	return resp.StatusCode, nil
}

// Wikipedia looks up the claim's subject through the REST page summary endpoint.
type Wikipedia struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewWikipedia creates a Wikipedia source. baseURL is the summary endpoint
// prefix the page title is appended to.
func NewWikipedia(client *http.Client, baseURL, userAgent string) *Wikipedia {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Wikipedia{client: client, baseURL: baseURL, userAgent: userAgent}
}

func (w *Wikipedia) Name() string { return "wikipedia" }

type wikiSummary struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

func (w *Wikipedia) Verify(ctx context.Context, claim Claim, query string) (Verdict, error) {
	subject := Subject(claim.Text, 3)
	title := strings.ReplaceAll(subject, " ", "_")

	var page wikiSummary
	status, err := getJSON(ctx, w.client, w.baseURL+url.PathEscape(title), w.userAgent, &page)
	if err != nil {
		return Verdict{}, err
	}

	switch {
	case status == http.StatusNotFound:
		return unverified(w.Name(), "No Wikipedia article found for "+subject), nil
	case status != http.StatusOK:
		return Verdict{}, fmt.Errorf("%w: wikipedia status %d", ErrSourceUnavailable, status)
	case page.Extract == "":
		return unverified(w.Name(), "Wikipedia article has no summary"), nil
	}

	firstSentence, _, _ := strings.Cut(page.Extract, ". ")
	claimTopic := Topic(Predicate(claim.Text))
	articleTopic := Topic(Predicate(firstSentence))
	queryTopic := Topic(query)

	contradicts := claimTopic != "" && articleTopic != "" && claimTopic != articleTopic
	offContext := claimTopic != "" && queryTopic != "" && claimTopic != queryTopic

	if contradicts || offContext {
		reason := fmt.Sprintf("claim describes %s as %s but the article describes it as %s", subject, claimTopic, articleTopic)
		if !contradicts {
			reason = fmt.Sprintf("claim describes %s as %s but the question concerns %s", subject, claimTopic, queryTopic)
		}
		return Verdict{
			Status:      StatusFalse,
			Confidence:  0.9,
			Source:      w.Name(),
			Details:     fmt.Sprintf("Wikipedia article %q: %s", page.Title, reason),
			URL:         page.ContentURLs.Desktop.Page,
			Alternative: strings.TrimSuffix(firstSentence, ".") + ".",
		}, nil
	}

	overlap := termOverlap(claim.Text, page.Extract)
	subjectFound := strings.Contains(strings.ToLower(page.Extract), strings.ToLower(subject))
	if overlap > 0.2 || subjectFound {
		return Verdict{
			Status:     StatusVerified,
			Confidence: min(0.7+overlap*0.2, 0.9),
			Source:     w.Name(),
			Details:    fmt.Sprintf("Found in Wikipedia article %q: %s", page.Title, truncate(page.Extract, 200)),
			URL:        page.ContentURLs.Desktop.Page,
		}, nil
	}

	return unverified(w.Name(), fmt.Sprintf("Wikipedia article %q does not mention the claim", page.Title)), nil
}

// DuckDuckGo queries the instant answer API.
type DuckDuckGo struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewDuckDuckGo creates a DuckDuckGo instant answer source.
func NewDuckDuckGo(client *http.Client, baseURL, userAgent string) *DuckDuckGo {
	return &DuckDuckGo{client: client, baseURL: baseURL, userAgent: userAgent}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

type instantAnswer struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

func (d *DuckDuckGo) Verify(ctx context.Context, claim Claim, _ string) (Verdict, error) {
	params := url.Values{
		"q":             {claim.Text},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}

	var ans instantAnswer
	status, err := getJSON(ctx, d.client, d.baseURL+"?"+params.Encode(), d.userAgent, &ans)
	if err != nil {
		return Verdict{}, err
	}
	if status != http.StatusOK {
		return Verdict{}, fmt.Errorf("%w: duckduckgo status %d", ErrSourceUnavailable, status)
	}

	if ans.AbstractText != "" {
		if overlap := termOverlap(claim.Text, ans.AbstractText); overlap > 0.2 {
			return Verdict{
				Status:     StatusVerified,
				Confidence: min(0.6+overlap*0.2, 0.8),
				Source:     d.Name(),
				Details:    truncate(ans.AbstractText, 300),
				URL:        ans.AbstractURL,
			}, nil
		}
	}

	if ans.Answer != "" {
		return Verdict{
			Status:     StatusVerified,
			Confidence: 0.7,
			Source:     d.Name(),
			Details:    ans.Answer,
		}, nil
	}

	if len(ans.RelatedTopics) > 0 {
		topic := ans.RelatedTopics[0]
		lower := strings.ToLower(topic.Text)
		words := strings.Fields(strings.ToLower(claim.Text))
		for _, w := range words[:min(3, len(words))] {
			if len(w) > 3 && strings.Contains(lower, w) {
				return Verdict{
					Status:     StatusVerified,
					Confidence: 0.6,
					Source:     d.Name(),
					Details:    truncate(topic.Text, 300),
					URL:        topic.FirstURL,
				}, nil
			}
		}
	}

	return unverified(d.Name(), "No DuckDuckGo answer supports the claim"), nil
}

// Aggregate combines source verdicts: a false verdict wins, then the most
// confident verified one (raised by 0.1 up to 0.95 when several sources agree),
// then the most confident unverified one.
func Aggregate(verdicts []Verdict) Verdict {
	var falseV, verified, unver *Verdict
	verifiedCount := 0

	for i := range verdicts {
		v := &verdicts[i]
		switch v.Status {
		case StatusFalse:
			if falseV == nil || v.Confidence > falseV.Confidence {
				falseV = v
			}
		case StatusVerified:
			verifiedCount++
			if verified == nil || v.Confidence > verified.Confidence {
				verified = v
			}
		default:
			if unver == nil || v.Confidence > unver.Confidence {
				unver = v
			}
		}
	}

	switch {
	case falseV != nil:
		return *falseV
	case verified != nil:
		out := *verified
		if verifiedCount > 1 {
			out.Confidence = min(out.Confidence+0.1, 0.95)
		}
		return out
	case unver != nil:
		return *unver
	}
	return unverified("", "Could not verify claim against available sources")
}
