package api

import (
	"fmt"

	"github.com/JaimeStill/verity/internal/analytics"
	"github.com/JaimeStill/verity/internal/correction"
	"github.com/JaimeStill/verity/internal/evaluation"
	"github.com/JaimeStill/verity/internal/interactions"
	"github.com/JaimeStill/verity/internal/organizations"
	"github.com/JaimeStill/verity/internal/policies"
	"github.com/JaimeStill/verity/internal/rules"
	"github.com/JaimeStill/verity/internal/scoring"
	"github.com/JaimeStill/verity/internal/signals"
	"github.com/JaimeStill/verity/internal/validation"
	"github.com/JaimeStill/verity/pkg/retry"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Organizations organizations.System
	Rules         rules.System
	Policies      policies.System
	Interactions  interactions.System
	Evaluator     *evaluation.Evaluator
	Validation    *validation.Pipeline
	Analytics     analytics.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) (*Domain, error) {
	db := runtime.Database.Connection()

	orgsSystem := organizations.New(db, runtime.Logger)

	rulesSystem, err := rules.New(db, runtime.Logger, runtime.Pagination)
	if err != nil {
		return nil, fmt.Errorf("rules init failed: %w", err)
	}

	policiesSystem := policies.New(db, runtime.Logger, runtime.Pagination)

	interactionsSystem := interactions.New(
		db,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	matcher, err := evaluation.NewMatcher(runtime.Validation.Matcher)
	if err != nil {
		return nil, fmt.Errorf("evaluation init failed: %w", err)
	}
	evaluator := evaluation.New(matcher, runtime.Logger)

	pipeline := validation.New(validation.Deps{
		Organizations: orgsSystem,
		Rules:         rulesSystem,
		Policies:      policiesSystem,
		Evaluator:     evaluator,
		Extractor:     signals.ProseExtractor{},
		Facts:         newFactChecker(runtime),
		Citations:     newCitationChecker(runtime),
		Consistency: signals.NewConsistencyChecker(
			interactionsSystem,
			runtime.Validation.HistoryLimit,
			runtime.Logger,
		),
		Scorer:   scoring.New(runtime.Logger),
		Settings: runtime.Validation.Settings(),
		Advisor: correction.New(
			newGenerator(runtime),
			runtime.Validation.CorrectionTimeoutDuration(),
			runtime.Logger,
		),
		Audit:   interactionsSystem,
		Metrics: runtime.Metrics,
		Timeouts: validation.Timeouts{
			Rules:       runtime.Validation.RulesTimeoutDuration(),
			Facts:       runtime.Validation.FactTimeoutDuration(),
			Citations:   runtime.Validation.CitationTimeoutDuration(),
			Consistency: runtime.Validation.ConsistencyTimeoutDuration(),
		},
	}, runtime.Logger)

	analyticsSystem := analytics.New(
		db,
		analytics.Costs{
			BrandIncidentCost: runtime.Analytics.BrandIncidentCost,
			LawsuitCost:       runtime.Analytics.LawsuitCost,
		},
		runtime.Logger,
	)

	return &Domain{
		Organizations: orgsSystem,
		Rules:         rulesSystem,
		Policies:      policiesSystem,
		Interactions:  interactionsSystem,
		Evaluator:     evaluator,
		Validation:    pipeline,
		Analytics:     analyticsSystem,
	}, nil
}

func newFactChecker(runtime *Runtime) *signals.FactChecker {
	integ := runtime.Integrations

	sources := []signals.Source{
		signals.NewWikipedia(runtime.HTTPClient, integ.Sources.WikipediaURL, integ.UserAgent),
		signals.NewDuckDuckGo(runtime.HTTPClient, integ.Sources.DuckDuckGoURL, integ.UserAgent),
	}
	if runtime.OpenAI != nil && integ.OpenAI.FactCheck {
		sources = append(sources, signals.NewOpenAI(
			runtime.OpenAI,
			integ.OpenAI.Model,
			retryConfig(runtime),
		))
	}

	return signals.NewFactChecker(
		sources,
		runtime.Cache,
		runtime.Metrics,
		signals.FactConfig{
			MaxClaims:     runtime.Validation.MaxClaims,
			Concurrency:   runtime.Validation.Concurrency,
			SourceTimeout: integ.Sources.TimeoutDuration(),
			CacheTTL:      runtime.CacheTTL,
		},
		runtime.Logger,
	)
}

func newCitationChecker(runtime *Runtime) *signals.CitationChecker {
	integ := runtime.Integrations

	return signals.NewCitationChecker(
		runtime.HTTPClient,
		signals.CitationConfig{
			MaxURLs:     runtime.Validation.MaxCitations,
			Concurrency: runtime.Validation.Concurrency,
			Timeout:     integ.Sources.TimeoutDuration(),
			Rate:        integ.CitationRate,
			Burst:       integ.CitationBurst,
			UserAgent:   integ.UserAgent,
		},
		runtime.Logger,
	)
}

// newGenerator returns nil when no OpenAI client is configured.
func newGenerator(runtime *Runtime) correction.Generator {
	if runtime.OpenAI == nil {
		return nil
	}
	return correction.NewOpenAIGenerator(
		runtime.OpenAI,
		runtime.Integrations.OpenAI.Model,
		retryConfig(runtime),
	)
}

func retryConfig(runtime *Runtime) retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxAttempts = runtime.Integrations.OpenAI.MaxAttempts
	rc.Logger = runtime.Logger
	return rc
}
