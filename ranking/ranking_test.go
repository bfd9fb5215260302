package ranking

import (
	"math"
	"reflect"
	"testing"

	"dmars/models"
)

// sampleDomains mirrors the analytics test fixture: three categories with
// known CTRs and price spreads.
func sampleDomains() []*models.Domain {
	return []*models.Domain{
		{ID: 1, DomainName: "cloudpeak.io", Category: "tech", Price: 100, KeywordScore: 90, Views: 200, Clicks: 40},
		{ID: 2, DomainName: "bytefield.com", Category: "tech", Price: 200, KeywordScore: 70, Views: 100, Clicks: 5, IsSold: true},
		{ID: 3, DomainName: "stackforge.dev", Category: "tech", Price: 300, KeywordScore: 50, Views: 100, Clicks: 10},
		{ID: 4, DomainName: "charmglow.shop", Category: "retail", Price: 1500, KeywordScore: 60, Views: 50, Clicks: 10},
		{ID: 5, DomainName: "foodcart.shop", Category: "retail", Price: 500, KeywordScore: 40, Views: 0, Clicks: 0},
		{ID: 6, DomainName: "lawdesk.net", Category: "legal", Price: 12000, KeywordScore: 80, Views: 400, Clicks: 20},
	}
}

func TestRankOrdering(t *testing.T) {
	results, err := Rank(sampleDomains(), DefaultWeights(), "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("results: got %d, want 6", len(results))
	}

	wantOrder := []int64{1, 6, 4, 2, 3, 5}
	for i, want := range wantOrder {
		if results[i].ID != want {
			t.Errorf("results[%d].ID: got %d, want %d", i, results[i].ID, want)
		}
	}

	// Spot-check the top score: kw 0.9*0.35 + eng 1*0.25 + price 1*0.20 +
	// conv (1/3)*0.20 = 0.831666..., scaled to 83.17.
	if results[0].Score != 83.17 {
		t.Errorf("top score: got %.2f, want 83.17", results[0].Score)
	}
}

func TestRankScoresWithinBounds(t *testing.T) {
	// Hostile snapshot: clicks > views, negative price, zero price,
	// keyword score outside its nominal range.
	listings := []*models.Domain{
		{ID: 1, Category: "a", Price: 100, KeywordScore: 150, Views: 10, Clicks: 20},
		{ID: 2, Category: "a", Price: -50, KeywordScore: -5, Views: 0, Clicks: 3},
		{ID: 3, Category: "a", Price: 0, KeywordScore: 60, Views: 5, Clicks: 0},
		{ID: 4, Category: "b", Price: 9000, KeywordScore: 100, Views: 1, Clicks: 1, IsSold: true},
	}

	weightSets := []Weights{
		DefaultWeights(),
		{Version: "kw-only", KeywordRelevance: 1},
		{Version: "conv-only", ConversionSignal: 1},
		{Version: "even", KeywordRelevance: 0.25, Engagement: 0.25, PriceCompetitiveness: 0.25, ConversionSignal: 0.25},
	}

	for _, w := range weightSets {
		results, err := Rank(listings, w, "")
		if err != nil {
			t.Fatalf("Rank with %q: %v", w.Version, err)
		}
		for _, r := range results {
			if math.IsNaN(r.Score) || math.IsInf(r.Score, 0) {
				t.Errorf("weights %q, listing %d: non-finite score %v", w.Version, r.ID, r.Score)
			}
			if r.Score < 0 || r.Score > 100 {
				t.Errorf("weights %q, listing %d: score %v outside [0,100]", w.Version, r.ID, r.Score)
			}
			for _, fc := range r.Breakdown {
				if math.IsNaN(fc.Normalized) || fc.Normalized < 0 || fc.Normalized > 1 {
					t.Errorf("weights %q, listing %d, %s: normalized %v outside [0,1]",
						w.Version, r.ID, fc.Feature, fc.Normalized)
				}
			}
		}
	}
}

func TestRankKeywordMonotonicity(t *testing.T) {
	base := sampleDomains()
	scoreOf := func(listings []*models.Domain, id int64) float64 {
		results, err := Rank(listings, DefaultWeights(), "")
		if err != nil {
			t.Fatalf("Rank: %v", err)
		}
		for _, r := range results {
			if r.ID == id {
				return r.Score
			}
		}
		t.Fatalf("listing %d missing from results", id)
		return 0
	}

	before := scoreOf(base, 3)

	bumped := sampleDomains()
	bumped[2].KeywordScore = 65 // was 50; everything else held fixed

	after := scoreOf(bumped, 3)
	if after < before {
		t.Errorf("raising keyword_score lowered the score: %.2f -> %.2f", before, after)
	}
}

func TestExplainMatchesRank(t *testing.T) {
	listings := sampleDomains()
	w := DefaultWeights()

	results, err := Rank(listings, w, "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	for _, d := range listings {
		single, err := Explain(d, listings, w)
		if err != nil {
			t.Fatalf("Explain(%d): %v", d.ID, err)
		}
		var match *models.RankingResult
		for i := range results {
			if results[i].ID == d.ID {
				match = &results[i]
				break
			}
		}
		if match == nil {
			t.Fatalf("listing %d missing from Rank output", d.ID)
		}
		if !reflect.DeepEqual(single, *match) {
			t.Errorf("Explain(%d) differs from Rank entry:\n%+v\n%+v", d.ID, single, *match)
		}
	}
}

func TestRankDeterminism(t *testing.T) {
	listings := sampleDomains()
	w := DefaultWeights()

	a, err := Rank(listings, w, "")
	if err != nil {
		t.Fatalf("first Rank: %v", err)
	}
	b, err := Rank(listings, w, "")
	if err != nil {
		t.Fatalf("second Rank: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two Rank calls over the same snapshot disagree")
	}
}

func TestRankCategoryFilter(t *testing.T) {
	listings := sampleDomains()
	w := DefaultWeights()

	full, err := Rank(listings, w, "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	tech, err := Rank(listings, w, "tech")
	if err != nil {
		t.Fatalf("Rank(tech): %v", err)
	}

	if len(tech) != 3 {
		t.Fatalf("tech results: got %d, want 3", len(tech))
	}
	for _, r := range tech {
		if r.Category != "tech" {
			t.Errorf("unexpected category %q in filtered results", r.Category)
		}
	}

	// The filter changes which listings come back, never how they score:
	// baselines always come from the full snapshot.
	var fullTech []models.RankingResult
	for _, r := range full {
		if r.Category == "tech" {
			fullTech = append(fullTech, r)
		}
	}
	if !reflect.DeepEqual(tech, fullTech) {
		t.Errorf("filtered scores differ from unfiltered:\n%+v\n%+v", tech, fullTech)
	}
}

func TestRankEmptySnapshot(t *testing.T) {
	results, err := Rank(nil, DefaultWeights(), "")
	if err != nil {
		t.Fatalf("Rank on empty catalog: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("empty catalog: got %d results, want 0", len(results))
	}

	results, err = Rank(sampleDomains(), DefaultWeights(), "no-such-category")
	if err != nil {
		t.Fatalf("Rank with unmatched filter: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("unmatched filter: got %d results, want 0", len(results))
	}
}

func TestRankRejectsInvalidWeights(t *testing.T) {
	bad := Weights{Version: "bad", KeywordRelevance: 0.9, Engagement: 0.9}

	if _, err := Rank(sampleDomains(), bad, ""); err == nil {
		t.Error("Rank accepted weights summing to 1.8")
	}
	if _, err := Explain(sampleDomains()[0], sampleDomains(), bad); err == nil {
		t.Error("Explain accepted weights summing to 1.8")
	}
}

func TestRankTieBreaks(t *testing.T) {
	// Identical feature values except views and ID. Scores tie, so views
	// descending decides, then ID ascending.
	listings := []*models.Domain{
		{ID: 10, Category: "tech", Price: 100, KeywordScore: 50, Views: 100, Clicks: 10},
		{ID: 11, Category: "tech", Price: 100, KeywordScore: 50, Views: 200, Clicks: 20},
		{ID: 12, Category: "tech", Price: 100, KeywordScore: 50, Views: 100, Clicks: 10},
	}

	results, err := Rank(listings, DefaultWeights(), "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	wantOrder := []int64{11, 10, 12}
	for i, want := range wantOrder {
		if results[i].ID != want {
			t.Errorf("results[%d].ID: got %d, want %d", i, results[i].ID, want)
		}
	}
}

func TestEngagementZeroViews(t *testing.T) {
	results, err := Rank(sampleDomains(), DefaultWeights(), "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	for _, r := range results {
		if r.ID != 5 {
			continue
		}
		fc := r.Breakdown[1]
		if fc.Feature != FeatureEngagement {
			t.Fatalf("breakdown[1] is %q, want engagement", fc.Feature)
		}
		if fc.Raw != 0 || fc.Normalized != 0 {
			t.Errorf("zero-view listing: engagement raw=%v normalized=%v, want 0/0", fc.Raw, fc.Normalized)
		}
		return
	}
	t.Fatal("listing 5 missing from results")
}

func TestZeroPriceIsMaximallyCompetitive(t *testing.T) {
	listings := []*models.Domain{
		{ID: 1, Category: "tech", Price: 0, KeywordScore: 10, Views: 10, Clicks: 1},
		{ID: 2, Category: "tech", Price: 100, KeywordScore: 10, Views: 10, Clicks: 1},
	}
	r, err := Explain(listings[0], listings, DefaultWeights())
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	fc := r.Breakdown[2]
	if fc.Feature != FeaturePriceCompetitiveness {
		t.Fatalf("breakdown[2] is %q, want price_competitiveness", fc.Feature)
	}
	if fc.Normalized != 1 {
		t.Errorf("free listing: price normalized = %v, want 1", fc.Normalized)
	}
}

func TestSingleListingCategoryUsesCatalogCTR(t *testing.T) {
	// Listing 6 is alone in "legal": its CTR of 0.05 is judged against the
	// catalog-wide best of 0.2, not against itself.
	r, err := Explain(sampleDomains()[5], sampleDomains(), DefaultWeights())
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	fc := r.Breakdown[1]
	if fc.Normalized != 0.25 {
		t.Errorf("engagement normalized: got %v, want 0.25", fc.Normalized)
	}
}

func TestExplainUnknownCategoryBaselines(t *testing.T) {
	// A listing outside the snapshot scores against zero baselines for its
	// missing category; the call still succeeds with a finite score.
	stray := &models.Domain{ID: 99, Category: "art", Price: 50, KeywordScore: 80}
	r, err := Explain(stray, sampleDomains(), DefaultWeights())
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if math.IsNaN(r.Score) || r.Score < 0 || r.Score > 100 {
		t.Errorf("stray listing score: %v", r.Score)
	}
	// With no engagement and no category peers, only keyword relevance
	// contributes: 0.35 * 0.8 * 100.
	if r.Score != 28 {
		t.Errorf("stray listing score: got %v, want 28", r.Score)
	}
}

func TestExplanationSentences(t *testing.T) {
	listings := sampleDomains()
	w := DefaultWeights()

	results, err := Rank(listings, w, "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	// Listing 1: keyword relevance leads (0.315) with engagement close
	// behind (0.25), so both are named.
	if got, want := results[0].Explanation, "Driven by keyword relevance (90% of maximum) and engagement (100%)."; got != want {
		t.Errorf("two-feature sentence:\ngot  %q\nwant %q", got, want)
	}

	// A dominant single feature names only itself.
	solo := []*models.Domain{
		{ID: 1, Category: "x", Price: 1000, KeywordScore: 90, Views: 0, Clicks: 0},
		{ID: 2, Category: "x", Price: 100, KeywordScore: 10, Views: 100, Clicks: 10},
	}
	r, err := Explain(solo[0], solo, w)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if got, want := r.Explanation, "Driven by keyword relevance (90% of maximum)."; got != want {
		t.Errorf("single-feature sentence:\ngot  %q\nwant %q", got, want)
	}
}

func TestExplanationAllZero(t *testing.T) {
	w := Weights{Version: "kw-only", KeywordRelevance: 1}
	listings := []*models.Domain{
		{ID: 1, Category: "x", Price: 100, KeywordScore: 0, Views: 10, Clicks: 5},
		{ID: 2, Category: "x", Price: 100, KeywordScore: 0, Views: 10, Clicks: 5},
	}
	r, err := Explain(listings[0], listings, w)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if r.Explanation != "No feature contributes to this score." {
		t.Errorf("all-zero sentence: got %q", r.Explanation)
	}
}

func TestRankDoesNotMutateSnapshot(t *testing.T) {
	listings := sampleDomains()
	want := sampleDomains()

	if _, err := Rank(listings, DefaultWeights(), ""); err != nil {
		t.Fatalf("Rank: %v", err)
	}
	for i := range listings {
		if *listings[i] != *want[i] {
			t.Errorf("listing %d mutated: %+v", listings[i].ID, *listings[i])
		}
	}
}
