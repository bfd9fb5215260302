// Package ranking scores listings on four weighted features and explains
// every score with a per-feature breakdown.
//
// Scores are computed fresh from a snapshot on every call and never
// persisted. All feature normalization is relative to category baselines
// supplied by the analytics package, so a listing is judged against its
// peers rather than against absolute thresholds.
package ranking

import (
	"fmt"
	"sort"

	"dmars/analytics"
	"dmars/models"
	"dmars/utils"
)

// keywordScoreRange is the fixed input range of Domain.KeywordScore.
const keywordScoreRange = 100.0

// baselines holds the per-category statistics every feature is judged
// against. They are always computed from the full snapshot handed to Rank
// or Explain, so a category filter changes which listings are returned,
// never how any listing scores.
type baselines struct {
	avgPrice      map[string]float64
	conversion    map[string]float64
	maxCTR        map[string]float64
	maxComp       map[string]float64
	catSize       map[string]int
	catalogMaxCTR float64
}

func computeBaselines(listings []*models.Domain) *baselines {
	b := &baselines{
		avgPrice:   make(map[string]float64),
		conversion: make(map[string]float64),
		maxCTR:     make(map[string]float64),
		maxComp:    make(map[string]float64),
		catSize:    make(map[string]int),
	}

	for _, cs := range analytics.CategorySummaries(listings) {
		b.avgPrice[cs.Category] = cs.AveragePrice
		b.conversion[cs.Category] = cs.ConversionRate
		b.catSize[cs.Category] = cs.Count
	}

	for _, d := range listings {
		ctr := analytics.ClickThroughRate(d.Views, d.Clicks)
		if ctr > b.maxCTR[d.Category] {
			b.maxCTR[d.Category] = ctr
		}
		if ctr > b.catalogMaxCTR {
			b.catalogMaxCTR = ctr
		}
		if d.Price > 0 {
			comp := b.avgPrice[d.Category] / d.Price
			if comp > b.maxComp[d.Category] {
				b.maxComp[d.Category] = comp
			}
		}
	}
	return b
}

// Rank scores the snapshot (or one category of it, when categoryFilter is
// non-empty) and returns results ordered by score descending, views
// descending, then ID ascending. An empty selection yields an empty slice,
// not an error. Invalid weights fail the whole call before anything is
// scored.
func Rank(listings []*models.Domain, w Weights, categoryFilter string) ([]models.RankingResult, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	b := computeBaselines(listings)

	results := make([]models.RankingResult, 0, len(listings))
	for _, d := range listings {
		if categoryFilter != "" && d.Category != categoryFilter {
			continue
		}
		results = append(results, scoreListing(d, w, b))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Views != results[j].Views {
			return results[i].Views > results[j].Views
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// Explain scores a single listing against the snapshot's baselines. It
// runs the same scoring path as Rank, so for a listing in the snapshot the
// breakdown is identical to the matching Rank entry.
func Explain(d *models.Domain, listings []*models.Domain, w Weights) (models.RankingResult, error) {
	if err := w.Validate(); err != nil {
		return models.RankingResult{}, err
	}
	return scoreListing(d, w, computeBaselines(listings)), nil
}

// scoreListing produces the full per-feature breakdown for one listing.
func scoreListing(d *models.Domain, w Weights, b *baselines) models.RankingResult {
	ctr := analytics.ClickThroughRate(d.Views, d.Clicks)
	compRaw, compNorm := competitiveness(d, b)

	raw := map[string]float64{
		FeatureKeywordRelevance:     d.KeywordScore,
		FeatureEngagement:           ctr,
		FeaturePriceCompetitiveness: compRaw,
		FeatureConversionSignal:     b.conversion[d.Category],
	}
	norm := map[string]float64{
		FeatureKeywordRelevance:     utils.Clamp01(d.KeywordScore / keywordScoreRange),
		FeatureEngagement:           engagement(ctr, d.Category, b),
		FeaturePriceCompetitiveness: compNorm,
		FeatureConversionSignal:     utils.Clamp01(b.conversion[d.Category]),
	}

	breakdown := make([]models.FeatureContribution, 0, len(featureOrder))
	var weighted float64
	for _, f := range featureOrder {
		weight := w.valueOf(f)
		contribution := weight * norm[f]
		weighted += contribution
		breakdown = append(breakdown, models.FeatureContribution{
			Feature:      f,
			Raw:          raw[f],
			Normalized:   norm[f],
			Weight:       weight,
			Contribution: contribution,
		})
	}

	return models.RankingResult{
		ID:           d.ID,
		DomainName:   d.DomainName,
		Category:     d.Category,
		Price:        d.Price,
		KeywordScore: d.KeywordScore,
		Views:        d.Views,
		Clicks:       d.Clicks,
		IsSold:       d.IsSold,
		CTR:          utils.Round4(ctr),
		Score:        utils.Round2(100 * weighted),
		Breakdown:    breakdown,
		Explanation:  explanation(breakdown),
	}
}

// engagement rescales ctr by the best CTR among category peers. A category
// with a single listing has no peers, so the whole catalog serves as the
// comparison set.
func engagement(ctr float64, category string, b *baselines) float64 {
	max := b.maxCTR[category]
	if b.catSize[category] <= 1 {
		max = b.catalogMaxCTR
	}
	if max <= 0 {
		return 0
	}
	return utils.Clamp01(ctr / max)
}

// competitiveness returns the raw price ratio (category average over
// listing price) and its value normalized against the best ratio in the
// category. A zero-priced listing is treated as maximally competitive.
func competitiveness(d *models.Domain, b *baselines) (raw, norm float64) {
	if d.Price == 0 {
		return 0, 1
	}
	raw = b.avgPrice[d.Category] / d.Price
	max := b.maxComp[d.Category]
	if max <= 0 {
		return raw, 0
	}
	return raw, utils.Clamp01(raw / max)
}

// explanation builds the one-line justification from the numeric
// breakdown: the top contributing feature, joined by the runner-up when it
// carries at least half the top contribution. Ties resolve in canonical
// feature order, so re-scoring the same snapshot always yields the same
// sentence.
func explanation(breakdown []models.FeatureContribution) string {
	top := breakdown[0]
	for _, fc := range breakdown[1:] {
		if fc.Contribution > top.Contribution {
			top = fc
		}
	}
	if top.Contribution <= 0 {
		return "No feature contributes to this score."
	}

	var second models.FeatureContribution
	for _, fc := range breakdown {
		if fc.Feature == top.Feature {
			continue
		}
		if fc.Contribution > second.Contribution {
			second = fc
		}
	}

	if second.Contribution > 0 && second.Contribution >= top.Contribution/2 {
		return fmt.Sprintf("Driven by %s (%.0f%% of maximum) and %s (%.0f%%).",
			featureLabel(top.Feature), 100*top.Normalized,
			featureLabel(second.Feature), 100*second.Normalized)
	}
	return fmt.Sprintf("Driven by %s (%.0f%% of maximum).",
		featureLabel(top.Feature), 100*top.Normalized)
}

func featureLabel(feature string) string {
	switch feature {
	case FeatureKeywordRelevance:
		return "keyword relevance"
	case FeatureEngagement:
		return "engagement"
	case FeaturePriceCompetitiveness:
		return "price competitiveness"
	case FeatureConversionSignal:
		return "conversion signal"
	}
	return feature
}
