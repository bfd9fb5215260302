package ranking

import (
	"errors"
	"fmt"
	"math"
)

// Canonical feature names. Breakdowns always list them in this order.
const (
	FeatureKeywordRelevance     = "keyword_relevance"
	FeatureEngagement           = "engagement"
	FeaturePriceCompetitiveness = "price_competitiveness"
	FeatureConversionSignal     = "conversion_signal"
)

var featureOrder = []string{
	FeatureKeywordRelevance,
	FeatureEngagement,
	FeaturePriceCompetitiveness,
	FeatureConversionSignal,
}

// weightSumTolerance is the numeric slack allowed when checking that
// weights sum to 1.
const weightSumTolerance = 1e-6

// ErrConfiguration marks an invalid weight set. A bad set fails the whole
// call; it is never retried and never partially applied.
var ErrConfiguration = errors.New("ranking: invalid configuration")

// Weights is the versioned scoring configuration. Changing the ranking
// strategy means shipping a new named version, not editing constants in
// the scorer.
type Weights struct {
	Version              string  `json:"version" yaml:"version"`
	KeywordRelevance     float64 `json:"keyword_relevance" yaml:"keyword_relevance"`
	Engagement           float64 `json:"engagement" yaml:"engagement"`
	PriceCompetitiveness float64 `json:"price_competitiveness" yaml:"price_competitiveness"`
	ConversionSignal     float64 `json:"conversion_signal" yaml:"conversion_signal"`
}

// DefaultWeights returns the stock scoring configuration.
func DefaultWeights() Weights {
	return Weights{
		Version:              "v1",
		KeywordRelevance:     0.35,
		Engagement:           0.25,
		PriceCompetitiveness: 0.20,
		ConversionSignal:     0.20,
	}
}

// ParseWeights builds a validated Weights from a name-to-value map,
// rejecting unknown feature names. The config layer feeds weight files
// through here so a typo fails at startup instead of silently dropping a
// feature.
func ParseWeights(version string, values map[string]float64) (Weights, error) {
	w := Weights{Version: version}
	for name, v := range values {
		switch name {
		case FeatureKeywordRelevance:
			w.KeywordRelevance = v
		case FeatureEngagement:
			w.Engagement = v
		case FeaturePriceCompetitiveness:
			w.PriceCompetitiveness = v
		case FeatureConversionSignal:
			w.ConversionSignal = v
		default:
			return Weights{}, fmt.Errorf("unknown feature %q: %w", name, ErrConfiguration)
		}
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

// Validate enforces non-negative weights summing to 1 within tolerance.
// Weights are never silently renormalized; an off-by-a-little set is the
// operator's bug to fix.
func (w Weights) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{FeatureKeywordRelevance, w.KeywordRelevance},
		{FeatureEngagement, w.Engagement},
		{FeaturePriceCompetitiveness, w.PriceCompetitiveness},
		{FeatureConversionSignal, w.ConversionSignal},
	} {
		if math.IsNaN(f.value) || f.value < 0 {
			return fmt.Errorf("weight %s must be a non-negative number, got %v: %w", f.name, f.value, ErrConfiguration)
		}
	}

	sum := w.KeywordRelevance + w.Engagement + w.PriceCompetitiveness + w.ConversionSignal
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("weights sum to %v, want 1.0: %w", sum, ErrConfiguration)
	}
	return nil
}

// Map returns the weights as a feature-name map, for response payloads.
func (w Weights) Map() map[string]float64 {
	return map[string]float64{
		FeatureKeywordRelevance:     w.KeywordRelevance,
		FeatureEngagement:           w.Engagement,
		FeaturePriceCompetitiveness: w.PriceCompetitiveness,
		FeatureConversionSignal:     w.ConversionSignal,
	}
}

func (w Weights) valueOf(feature string) float64 {
	switch feature {
	case FeatureKeywordRelevance:
		return w.KeywordRelevance
	case FeatureEngagement:
		return w.Engagement
	case FeaturePriceCompetitiveness:
		return w.PriceCompetitiveness
	case FeatureConversionSignal:
		return w.ConversionSignal
	}
	return 0
}
