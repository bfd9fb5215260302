// Package digest produces the daily marketplace report: catalog KPIs,
// high-interest listings, and the current top recommendations, rendered as
// plain text. It only ever reads the catalog.
package digest

import (
	"context"
	"fmt"
	"io"
	"time"

	"dmars/analytics"
	"dmars/logging"
	"dmars/models"
	"dmars/ranking"
	"dmars/storage"
)

// Job assembles one digest from a catalog snapshot.
type Job struct {
	Log     *logging.Logger
	Store   storage.Store
	Weights ranking.Weights
	TopN    int
	Out     io.Writer
}

// Run fetches a snapshot and writes the rendered digest to Out.
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()
	j.Log.Info("digest started")

	listings, err := j.Store.FetchAll(ctx)
	if err != nil {
		j.Log.Error("digest snapshot failed", "err", err)
		return fmt.Errorf("digest: fetch snapshot: %w", err)
	}

	report := analytics.Summary(listings)
	demand := j.demandListings(listings)

	results, err := ranking.Rank(listings, j.Weights, "")
	if err != nil {
		j.Log.Error("digest ranking failed", "err", err)
		return fmt.Errorf("digest: rank snapshot: %w", err)
	}
	recs := topUnsold(results, j.TopN)

	Render(j.Out, start, report, demand, recs)

	j.Log.Info("digest completed",
		"domains", len(listings),
		"high_interest", len(demand),
		"recommendations", len(recs),
		"duration", time.Since(start).String())
	return nil
}

// demandListings joins the demand indicator IDs back to their listings,
// keeping at most TopN.
func (j *Job) demandListings(listings []*models.Domain) []*models.Domain {
	byID := make(map[int64]*models.Domain, len(listings))
	for _, d := range listings {
		byID[d.ID] = d
	}

	var out []*models.Domain
	for _, id := range analytics.DemandIndicators(listings) {
		if len(out) == j.TopN {
			break
		}
		if d := byID[id]; d != nil {
			out = append(out, d)
		}
	}
	return out
}

func topUnsold(results []models.RankingResult, n int) []models.RankingResult {
	var out []models.RankingResult
	for _, r := range results {
		if r.IsSold {
			continue
		}
		out = append(out, r)
		if len(out) == n {
			break
		}
	}
	return out
}
