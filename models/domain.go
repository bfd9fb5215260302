package models

import "time"

// Domain is one for-sale domain-name listing, the unit record of the
// catalog. Derived metrics (CTR, conversion rate, ranking score) are never
// stored on it; they are recomputed from a snapshot on every request.
type Domain struct {
	ID           int64     `json:"id"`
	DomainName   string    `json:"domain_name"`
	Category     string    `json:"category"`
	Price        float64   `json:"price"`
	KeywordScore float64   `json:"keyword_score"`
	Views        int64     `json:"views"`
	Clicks       int64     `json:"clicks"`
	IsSold       bool      `json:"is_sold"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
