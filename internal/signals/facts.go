package signals

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/scoring"
	"github.com/JaimeStill/verity/pkg/cache"
	"github.com/JaimeStill/verity/pkg/metrics"
)

const sourceUnavailable = "source_unavailable"

// FactConfig bounds the fact checker's fan-out and per-source latency.
type FactConfig struct {
	MaxClaims     int
	Concurrency   int
	SourceTimeout time.Duration
	CacheTTL      time.Duration
}

// FactReport is the fact verification component's output.
type FactReport struct {
	Results  []ClaimResult
	Signal   scoring.Signal
	Findings []findings.Finding
}

// FactChecker verifies claims against a chain of sources with a shared cache.
type FactChecker struct {
	sources []Source
	cache   cache.System
	metrics *metrics.Metrics
	cfg     FactConfig
	logger  *slog.Logger
}

// NewFactChecker creates a fact checker over sources, consulted in order.
func NewFactChecker(sources []Source, c cache.System, m *metrics.Metrics, cfg FactConfig, logger *slog.Logger) *FactChecker {
	if c == nil {
		c = cache.Noop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 5 * time.Second
	}
	return &FactChecker{
		sources: sources,
		cache:   c,
		metrics: m,
		cfg:     cfg,
		logger:  logger.With("system", "facts"),
	}
}

// Check verifies up to MaxClaims claims concurrently. A false claim yields a
// high severity hallucination finding and contributes zero to the score.
func (f *FactChecker) Check(ctx context.Context, query string, claims []Claim) (FactReport, error) {
	if f.cfg.MaxClaims > 0 && len(claims) > f.cfg.MaxClaims {
		claims = claims[:f.cfg.MaxClaims]
	}

	results := make([]ClaimResult, len(claims))
	var unavailable atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)

	for i, c := range claims {
		g.Go(func() error {
			res, failed := f.verify(gctx, query, c)
			if failed {
				unavailable.Store(true)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return FactReport{}, err
	}
	if err := ctx.Err(); err != nil {
		return FactReport{}, err
	}

	report := FactReport{Results: results}
	details := map[string]any{"claims": len(results)}

	var total float64
	counts := map[Status]int{}
	for _, r := range results {
		counts[r.Verdict.Status]++
		if r.Verdict.Status == StatusFalse {
			report.Findings = append(report.Findings, findings.Finding{
				Type:        findings.TypeHallucination,
				Severity:    findings.SeverityHigh,
				Description: fmt.Sprintf("False claim: %q. %s", r.Claim.Text, r.Verdict.Details),
				Triggers:    []string{r.Claim.Text},
			})
			continue
		}
		total += r.Verdict.Confidence
	}

	score := 0.0
	if len(results) > 0 {
		score = total / float64(len(results))
	}

	for status, n := range counts {
		details[string(status)] = n
	}
	if unavailable.Load() {
		details["fact_verification"] = sourceUnavailable
	}

	report.Signal = scoring.Signal{Score: score, Details: details}
	return report, nil
}

func (f *FactChecker) verify(ctx context.Context, query string, c Claim) (ClaimResult, bool) {
	key := CacheKey(c.Text, query)

	var cached ClaimResult
	hit, err := f.cache.Get(ctx, key, &cached)
	if err != nil {
		f.logger.Warn("fact cache read failed", "error", err)
	}
	if hit {
		f.countCache("hit")
		cached.Claim = c
		return cached, false
	}
	f.countCache("miss")

	var verdicts []Verdict
	var methods []string
	failed := false

	for _, src := range f.sources {
		sctx, cancel := context.WithTimeout(ctx, f.cfg.SourceTimeout)
		v, err := src.Verify(sctx, c, query)
		cancel()

		if err != nil {
			failed = true
			f.logger.Warn("fact source failed", "source", src.Name(), "error", err)
			continue
		}
		verdicts = append(verdicts, v)
		methods = append(methods, src.Name())

		if v.Status == StatusFalse {
			break
		}
	}

	verdict := Aggregate(verdicts)
	if verdict.Status == StatusUnverified && c.Indicators {
		verdict.Status = StatusPartiallyVerified
		verdict.Confidence = 0.6
		verdict.Details = "Claim contains factual indicators but needs manual verification"
	}

	res := ClaimResult{
		Claim:   c,
		Verdict: verdict,
		Method:  strings.Join(methods, ","),
	}
	if res.Method == "" {
		res.Method = "none"
	}

	if !failed {
		if err := f.cache.Set(ctx, key, res, f.cfg.CacheTTL); err != nil {
			f.logger.Warn("fact cache write failed", "error", err)
		}
	}

	return res, failed
}

func (f *FactChecker) countCache(result string) {
	if f.metrics != nil {
		f.metrics.FactCache.WithLabelValues(result).Inc()
	}
}

// CacheKey derives the cache key of a claim. The question's topic is part of
// the key because it changes how an ambiguous subject is judged.
func CacheKey(claim, query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(claim)) + "|" + Topic(query)))
	return "fact:" + hex.EncodeToString(sum[:])
}
