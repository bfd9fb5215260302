// Package analytics computes marketplace KPIs from catalog snapshots.
//
// Every function is a pure computation over the slice it receives: no I/O,
// no mutation of the input, and a defined zero/empty result for an empty
// catalog. Derived values are never written back to listings.
package analytics

import (
	"sort"

	"dmars/models"
	"dmars/utils"
)

// Price band boundaries: a listing is "low" below 1000, "mid" below 10000,
// "high" otherwise.
const (
	lowBandMax = 1000
	midBandMax = 10000
)

// ClickThroughRate returns clicks/views, or 0 when no views were recorded.
// clicks above views pass through uninterpreted; the result is still finite.
func ClickThroughRate(views, clicks int64) float64 {
	if views <= 0 {
		return 0
	}
	return float64(clicks) / float64(views)
}

// GlobalSummary computes catalog-wide KPIs.
//
// conversion_rate = sold/total as a fraction in [0,1], 0 for an empty
// catalog. average_price is the mean over all listings, sold and unsold,
// rounded to two decimals. An empty catalog yields the zero summary, not
// an error.
func GlobalSummary(listings []*models.Domain) models.GlobalSummary {
	s := models.GlobalSummary{TotalDomains: len(listings)}
	if len(listings) == 0 {
		return s
	}

	var priceTotal float64
	for _, d := range listings {
		if d.IsSold {
			s.SoldDomains++
		}
		priceTotal += d.Price
	}
	s.ConversionRate = float64(s.SoldDomains) / float64(s.TotalDomains)
	s.AveragePrice = utils.Round2(priceTotal / float64(s.TotalDomains))
	return s
}

// CategorySummaries groups listings by exact category string (case
// sensitive, no normalization) and computes per-category KPIs. Output is
// ordered by count descending, then category name ascending, so reports
// come out identical for any input ordering.
func CategorySummaries(listings []*models.Domain) []models.CategorySummary {
	type agg struct {
		count      int
		sold       int
		priceTotal float64
	}

	byCat := make(map[string]*agg)
	for _, d := range listings {
		a := byCat[d.Category]
		if a == nil {
			a = &agg{}
			byCat[d.Category] = a
		}
		a.count++
		if d.IsSold {
			a.sold++
		}
		a.priceTotal += d.Price
	}

	out := make([]models.CategorySummary, 0, len(byCat))
	for cat, a := range byCat {
		out = append(out, models.CategorySummary{
			Category:       cat,
			Count:          a.count,
			SoldCount:      a.sold,
			ConversionRate: float64(a.sold) / float64(a.count),
			AveragePrice:   utils.Round2(a.priceTotal / float64(a.count)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Summary combines the global summary with the category breakdown.
func Summary(listings []*models.Domain) models.KPIReport {
	return models.KPIReport{
		Global:     GlobalSummary(listings),
		Categories: CategorySummaries(listings),
	}
}

// DemandIndicators returns the IDs of unsold listings whose CTR strictly
// exceeds the median CTR of unsold listings in their category. Categories
// with fewer than two unsold listings contribute nothing: one data point
// has no meaningful median. Output is ordered by CTR descending, views
// descending, then ID ascending.
func DemandIndicators(listings []*models.Domain) []int64 {
	type pick struct {
		id    int64
		ctr   float64
		views int64
	}

	unsoldByCat := make(map[string][]*models.Domain)
	for _, d := range listings {
		if !d.IsSold {
			unsoldByCat[d.Category] = append(unsoldByCat[d.Category], d)
		}
	}

	var picks []pick
	for _, group := range unsoldByCat {
		if len(group) < 2 {
			continue
		}
		ctrs := make([]float64, len(group))
		for i, d := range group {
			ctrs[i] = ClickThroughRate(d.Views, d.Clicks)
		}
		med := utils.Median(ctrs)
		for i, d := range group {
			if ctrs[i] > med {
				picks = append(picks, pick{id: d.ID, ctr: ctrs[i], views: d.Views})
			}
		}
	}

	sort.Slice(picks, func(i, j int) bool {
		if picks[i].ctr != picks[j].ctr {
			return picks[i].ctr > picks[j].ctr
		}
		if picks[i].views != picks[j].views {
			return picks[i].views > picks[j].views
		}
		return picks[i].id < picks[j].id
	})

	ids := make([]int64, len(picks))
	for i, p := range picks {
		ids[i] = p.id
	}
	return ids
}

// PriceEngagement buckets all listings into price bands and reports average
// price, views, and clicks per band. Empty bands are omitted; the rest
// appear in low, mid, high order.
func PriceEngagement(listings []*models.Domain) []models.PriceBand {
	type agg struct {
		count  int
		price  float64
		views  float64
		clicks float64
	}

	bands := make(map[string]*agg)
	for _, d := range listings {
		var name string
		switch {
		case d.Price < lowBandMax:
			name = "low"
		case d.Price < midBandMax:
			name = "mid"
		default:
			name = "high"
		}
		a := bands[name]
		if a == nil {
			a = &agg{}
			bands[name] = a
		}
		a.count++
		a.price += d.Price
		a.views += float64(d.Views)
		a.clicks += float64(d.Clicks)
	}

	out := make([]models.PriceBand, 0, len(bands))
	for _, name := range []string{"low", "mid", "high"} {
		a := bands[name]
		if a == nil {
			continue
		}
		n := float64(a.count)
		out = append(out, models.PriceBand{
			Band:          name,
			Count:         a.count,
			AveragePrice:  utils.Round2(a.price / n),
			AverageViews:  utils.Round2(a.views / n),
			AverageClicks: utils.Round2(a.clicks / n),
		})
	}
	return out
}

