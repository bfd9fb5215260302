package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"dmars/models"
)

var csvHeader = []string{
	"id", "domain_name", "category", "price", "keyword_score",
	"views", "clicks", "is_sold", "created_at", "updated_at",
}

// WriteCSV streams listings as CSV: one header row, one row per listing,
// in the order given. Timestamps are RFC 3339.
func WriteCSV(w io.Writer, listings []*models.Domain) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, d := range listings {
		row := []string{
			strconv.FormatInt(d.ID, 10),
			d.DomainName,
			d.Category,
			strconv.FormatFloat(d.Price, 'f', -1, 64),
			strconv.FormatFloat(d.KeywordScore, 'f', -1, 64),
			strconv.FormatInt(d.Views, 10),
			strconv.FormatInt(d.Clicks, 10),
			strconv.FormatBool(d.IsSold),
			d.CreatedAt.Format(time.RFC3339),
			d.UpdatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
