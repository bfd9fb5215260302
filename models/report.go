package models

// GlobalSummary holds the catalog-wide KPIs.
type GlobalSummary struct {
	TotalDomains   int     `json:"total_domains"`
	SoldDomains    int     `json:"sold_domains"`
	ConversionRate float64 `json:"conversion_rate"`
	AveragePrice   float64 `json:"average_price"`
}

// CategorySummary holds the KPIs scoped to one category.
type CategorySummary struct {
	Category       string  `json:"category"`
	Count          int     `json:"count"`
	SoldCount      int     `json:"sold_count"`
	ConversionRate float64 `json:"conversion_rate"`
	AveragePrice   float64 `json:"average_price"`
}

// KPIReport combines the global summary with the category breakdown.
type KPIReport struct {
	Global     GlobalSummary     `json:"global"`
	Categories []CategorySummary `json:"categories"`
}

// PriceBand aggregates engagement for one price bucket (low, mid, high).
type PriceBand struct {
	Band          string  `json:"price_band"`
	Count         int     `json:"count"`
	AveragePrice  float64 `json:"average_price"`
	AverageViews  float64 `json:"average_views"`
	AverageClicks float64 `json:"average_clicks"`
}

// FeatureContribution is one row of a ranking breakdown.
type FeatureContribution struct {
	Feature      string  `json:"feature"`
	Raw          float64 `json:"raw_value"`
	Normalized   float64 `json:"normalized_value"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// RankingResult is the scored view of a single listing: the composite
// 0-100 score, the per-feature breakdown behind it, and a one-line
// justification generated from the breakdown.
type RankingResult struct {
	ID           int64                 `json:"id"`
	DomainName   string                `json:"domain_name"`
	Category     string                `json:"category"`
	Price        float64               `json:"price"`
	KeywordScore float64               `json:"keyword_score"`
	Views        int64                 `json:"views"`
	Clicks       int64                 `json:"clicks"`
	IsSold       bool                  `json:"is_sold"`
	CTR          float64               `json:"ctr"`
	Score        float64               `json:"score"`
	Breakdown    []FeatureContribution `json:"breakdown"`
	Explanation  string                `json:"explanation"`
}
