package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

const weightTolerance = 1e-6

// ErrInvalidProfile is returned when a weight profile is negative or does not sum to 1.
var ErrInvalidProfile = errors.New("invalid weight profile")

// Profile assigns a weight to each component. Weights must sum to 1.
type Profile struct {
	FactVerification float64 `toml:"fact_verification" json:"fact_verification"`
	Compliance       float64 `toml:"compliance" json:"compliance"`
	CitationValidity float64 `toml:"citation_validity" json:"citation_validity"`
	Consistency      float64 `toml:"consistency" json:"consistency"`
	ResponseClarity  float64 `toml:"response_clarity" json:"response_clarity"`
}

// DefaultProfile returns the standard weighting.
func DefaultProfile() Profile {
	return Profile{
		FactVerification: 0.35,
		Compliance:       0.25,
		CitationValidity: 0.15,
		Consistency:      0.15,
		ResponseClarity:  0.10,
	}
}

// NewProfile builds a profile from per-component weights and validates it.
// Components missing from weights receive zero.
func NewProfile(weights map[Component]float64) (Profile, error) {
	p := Profile{
		FactVerification: weights[FactVerification],
		Compliance:       weights[Compliance],
		CitationValidity: weights[CitationValidity],
		Consistency:      weights[Consistency],
		ResponseClarity:  weights[ResponseClarity],
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Weight returns the weight assigned to c.
func (p Profile) Weight(c Component) float64 {
	switch c {
	case FactVerification:
		return p.FactVerification
	case Compliance:
		return p.Compliance
	case CitationValidity:
		return p.CitationValidity
	case Consistency:
		return p.Consistency
	case ResponseClarity:
		return p.ResponseClarity
	}
	return 0
}

// Sum returns the total of all weights.
func (p Profile) Sum() float64 {
	var total float64
	for _, c := range Components {
		total += p.Weight(c)
	}
	return total
}

// IsZero reports whether no weight is set.
func (p Profile) IsZero() bool {
	return p == Profile{}
}

// Validate rejects negative weights and totals outside 1 ± 1e-6.
func (p Profile) Validate() error {
	for _, c := range Components {
		if p.Weight(c) < 0 {
			return fmt.Errorf("%w: %s weight is negative", ErrInvalidProfile, c)
		}
	}
	if sum := p.Sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.6f, want 1", ErrInvalidProfile, sum)
	}
	return nil
}

// Normalize drops negative weights and scales the rest to sum to 1.
// A profile with no positive weight yields the default.
func (p Profile) Normalize() Profile {
	p = Profile{
		FactVerification: max(p.FactVerification, 0),
		Compliance:       max(p.Compliance, 0),
		CitationValidity: max(p.CitationValidity, 0),
		Consistency:      max(p.Consistency, 0),
		ResponseClarity:  max(p.ResponseClarity, 0),
	}
	sum := p.Sum()
	if sum <= 0 {
		return DefaultProfile()
	}
	return Profile{
		FactVerification: p.FactVerification / sum,
		Compliance:       p.Compliance / sum,
		CitationValidity: p.CitationValidity / sum,
		Consistency:      p.Consistency / sum,
		ResponseClarity:  p.ResponseClarity / sum,
	}
}

// Thresholds split scores into blocked, flagged, and approved bands.
type Thresholds struct {
	Block float64 `toml:"block" json:"block"`
	Flag  float64 `toml:"flag" json:"flag"`
}

// DefaultThresholds blocks below 0.5 and flags below 0.75.
func DefaultThresholds() Thresholds {
	return Thresholds{Block: 0.5, Flag: 0.75}
}

// Validate requires 0 <= block <= flag <= 1.
func (t Thresholds) Validate() error {
	if t.Block < 0 || t.Flag > 1 || t.Block > t.Flag {
		return fmt.Errorf("invalid thresholds: block %.2f, flag %.2f", t.Block, t.Flag)
	}
	return nil
}

// Override replaces the default profile or thresholds for one organization.
type Override struct {
	Weights    *Profile    `toml:"weights"`
	Thresholds *Thresholds `toml:"thresholds"`
}

// Settings holds the default scoring configuration and per-organization overrides.
type Settings struct {
	Profile    Profile
	Thresholds Thresholds
	Overrides  map[uuid.UUID]Override
}

// For resolves the profile and thresholds for an organization. Override profiles
// that do not sum to 1 are renormalized and reported via renormalized.
func (s Settings) For(orgID uuid.UUID) (profile Profile, thresholds Thresholds, renormalized bool) {
	profile = s.Profile
	thresholds = s.Thresholds

	o, ok := s.Overrides[orgID]
	if !ok {
		return profile, thresholds, false
	}

	if o.Weights != nil {
		profile = *o.Weights
		if profile.Validate() != nil {
			profile = profile.Normalize()
			renormalized = true
		}
	}
	if o.Thresholds != nil && o.Thresholds.Validate() == nil {
		thresholds = *o.Thresholds
	}

	return profile, thresholds, renormalized
}
