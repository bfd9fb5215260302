package digest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"dmars/analytics"
	"dmars/models"
)

const barWidth = 30

// Render writes the digest as aligned plain text. No ANSI escapes: the
// output usually lands in container logs.
func Render(w io.Writer, now time.Time, report models.KPIReport, demand []*models.Domain, recs []models.RankingResult) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n%s\n", sep)
	fmt.Fprintf(w, "  DMARS DAILY DIGEST  %s\n", now.UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(w, "%s\n\n", sep)

	g := report.Global
	fmt.Fprintf(w, "  Overview\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings  : %d\n", g.TotalDomains)
	fmt.Fprintf(w, "  Sold listings   : %d\n", g.SoldDomains)
	fmt.Fprintf(w, "  Conversion rate : %.1f%%\n", g.ConversionRate*100)
	fmt.Fprintf(w, "  Average price   : $%.2f\n", g.AveragePrice)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Listings by Category\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(report.Categories) == 0 {
		fmt.Fprintf(w, "  No category data\n")
	} else {
		max := report.Categories[0].Count
		for _, c := range report.Categories {
			fmt.Fprintf(w, "  %-14s %s (%d, %d sold, avg $%.2f)\n",
				truncate(c.Category, 13), bar(c.Count, max), c.Count, c.SoldCount, c.AveragePrice)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  High-Interest Domains (CTR above category median)\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(demand) == 0 {
		fmt.Fprintf(w, "  No high-interest listings today\n")
	} else {
		for i, d := range demand {
			ctr := analytics.ClickThroughRate(d.Views, d.Clicks)
			fmt.Fprintf(w, "  %d. %-36s CTR %.3f (%d views)\n",
				i+1, truncate(d.DomainName, 34), ctr, d.Views)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Top Recommendations\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(recs) == 0 {
		fmt.Fprintf(w, "  No unsold listings to recommend\n")
	} else {
		for i, r := range recs {
			fmt.Fprintf(w, "  %d. %-36s score %6.2f\n", i+1, truncate(r.DomainName, 34), r.Score)
			fmt.Fprintf(w, "     %s\n", r.Explanation)
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", sep)
}

// bar scales a count against the column maximum so wide catalogs still fit
// one terminal row.
func bar(count, max int) string {
	if max <= 0 || count <= 0 {
		return ""
	}
	n := count * barWidth / max
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
