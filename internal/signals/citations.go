package signals

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/scoring"
)

const (
	contentMatchRatio = 0.3
	maxPageBytes      = 2 << 20
)

var urlPattern = regexp.MustCompile("https?://[^\\s<>\"{}|\\\\^`\\[\\]]+")

// CitationConfig bounds the citation checker's outbound traffic.
type CitationConfig struct {
	MaxURLs     int
	Concurrency int
	Timeout     time.Duration
	Rate        float64
	Burst       int
	UserAgent   string
}

// CitationReport is the citation validity component's output.
type CitationReport struct {
	Results  []CitationResult
	Signal   scoring.Signal
	Findings []findings.Finding
}

// CitationChecker fetches cited URLs and checks that they support the citing sentence.
type CitationChecker struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     CitationConfig
	logger  *slog.Logger
}

// NewCitationChecker creates a checker whose outbound requests share one rate limiter.
func NewCitationChecker(client *http.Client, cfg CitationConfig, logger *slog.Logger) *CitationChecker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &CitationChecker{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		cfg:     cfg,
		logger:  logger.With("system", "citations"),
	}
}

// ExtractURLs returns the distinct URLs in text with trailing punctuation trimmed.
func ExtractURLs(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, u := range urlPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:!?)")
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// Check validates every cited URL, up to MaxURLs. A response without citations scores 1.
func (c *CitationChecker) Check(ctx context.Context, text string) (CitationReport, error) {
	urls := ExtractURLs(text)
	if c.cfg.MaxURLs > 0 && len(urls) > c.cfg.MaxURLs {
		urls = urls[:c.cfg.MaxURLs]
	}

	if len(urls) == 0 {
		return CitationReport{
			Signal: scoring.Signal{Score: 1, Details: map[string]any{"citations": 0}},
		}, nil
	}

	results := make([]CitationResult, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for i, u := range urls {
		g.Go(func() error {
			results[i] = c.validate(gctx, u, CitingSentence(text, u))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return CitationReport{}, err
	}
	if err := ctx.Err(); err != nil {
		return CitationReport{}, err
	}

	report := CitationReport{Results: results}
	valid, matched := 0, 0
	for _, r := range results {
		if !r.IsValid {
			reason := "unreachable"
			if r.Error != nil {
				reason = *r.Error
			}
			report.Findings = append(report.Findings, findings.Finding{
				Type:        findings.TypeCitation,
				Severity:    findings.SeverityHigh,
				Description: fmt.Sprintf("Invalid citation %s: %s", r.URL, reason),
				Triggers:    []string{r.URL},
			})
			continue
		}
		valid++
		if r.ContentMatch {
			matched++
		}
	}

	report.Signal = scoring.Signal{
		Score: float64(matched) / float64(len(results)),
		Details: map[string]any{
			"citations":       len(results),
			"valid":           valid,
			"content_matched": matched,
		},
	}
	return report, nil
}

func (c *CitationChecker) validate(ctx context.Context, u, sentence string) CitationResult {
	res := CitationResult{URL: u}
	fail := func(msg string) CitationResult {
		res.Error = &msg
		return res
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fail(fmt.Sprintf("rate limit: %v", err))
	}

	rctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(rctx, http.MethodGet, u, nil)
	if err != nil {
		return fail("invalid URL format")
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if rctx.Err() != nil {
			return fail("request timeout")
		}
		return fail(fmt.Sprintf("request error: %v", err))
	}
	defer resp.Body.Close()

	code := resp.StatusCode
	res.StatusCode = &code
	if code != http.StatusOK {
		return fail(fmt.Sprintf("HTTP %d", code))
	}
	res.IsValid = true

	page, err := PageText(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		c.logger.Warn("citation content unreadable", "url", u, "error", err)
		return res
	}
	res.ContentMatch = Supports(page, sentence)
	return res
}

// PageText extracts the title, meta description, and visible body text of an HTML page.
func PageText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	parts := []string{doc.Find("title").First().Text()}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		parts = append(parts, desc)
	}
	parts = append(parts, doc.Find("body").Text())

	return whitespacePattern.ReplaceAllString(strings.Join(parts, " "), " "), nil
}

// Supports reports whether at least 30% of the sentence's significant words
// appear in page. A sentence with no significant words is supported.
func Supports(page, sentence string) bool {
	words := SignificantWords(urlPattern.ReplaceAllString(sentence, " "))
	if len(words) == 0 {
		return true
	}

	have := map[string]struct{}{}
	for _, w := range termPattern.FindAllString(strings.ToLower(page), -1) {
		have[w] = struct{}{}
	}

	matched := 0
	for _, w := range words {
		if _, ok := have[w]; ok {
			matched++
		}
	}
	return float64(matched)/float64(len(words)) >= contentMatchRatio
}

// SignificantWords returns the distinct lowercase words of three or more
// letters that are not stop words.
func SignificantWords(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, w := range termPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopWords[w]; stop || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// CitingSentence returns the sentence of text that contains u.
func CitingSentence(text, u string) string {
	idx := strings.Index(text, u)
	if idx < 0 {
		return ""
	}

	start := 0
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if i := strings.LastIndex(text[:idx], sep); i >= 0 && i+len(sep) > start {
			start = i + len(sep)
		}
	}

	end := len(text)
	rest := text[idx+len(u):]
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if i := strings.Index(rest, sep); i >= 0 && idx+len(u)+i+1 < end {
			end = idx + len(u) + i + 1
		}
	}

	return strings.TrimSpace(text[start:end])
}
