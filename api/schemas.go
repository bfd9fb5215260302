package api

import (
	"errors"

	"dmars/models"
	"dmars/storage"
)

// DomainCreate is the POST /domains body. Pointer fields distinguish an
// absent field from a zero value; creation requires all of them.
type DomainCreate struct {
	DomainName   *string  `json:"domain_name"`
	Category     *string  `json:"category"`
	Price        *float64 `json:"price"`
	KeywordScore *float64 `json:"keyword_score"`
	Views        *int64   `json:"views"`
	Clicks       *int64   `json:"clicks"`
	IsSold       *bool    `json:"is_sold"`
}

// DomainUpdate is the PATCH /domains/{id} body. Only provided fields are
// validated and applied.
type DomainUpdate struct {
	DomainName   *string  `json:"domain_name"`
	Category     *string  `json:"category"`
	Price        *float64 `json:"price"`
	KeywordScore *float64 `json:"keyword_score"`
	Views        *int64   `json:"views"`
	Clicks       *int64   `json:"clicks"`
	IsSold       *bool    `json:"is_sold"`
}

var (
	errMissingFields  = errors.New("all fields are required: domain_name, category, price, keyword_score, views, clicks, is_sold")
	errDomainNameLen  = errors.New("domain_name must be 1-255 characters")
	errCategoryLen    = errors.New("category must be 1-100 characters")
	errPriceRange     = errors.New("price must be positive")
	errKeywordRange   = errors.New("keyword_score must be between 0 and 100")
	errViewsNegative  = errors.New("views must be non-negative")
	errClicksNegative = errors.New("clicks must be non-negative")
)

func (c *DomainCreate) Validate() error {
	if c.DomainName == nil || c.Category == nil || c.Price == nil ||
		c.KeywordScore == nil || c.Views == nil || c.Clicks == nil || c.IsSold == nil {
		return errMissingFields
	}
	return validateFields(c.DomainName, c.Category, c.Price, c.KeywordScore, c.Views, c.Clicks)
}

func (c *DomainCreate) ToDomain() *models.Domain {
	return &models.Domain{
		DomainName:   *c.DomainName,
		Category:     *c.Category,
		Price:        *c.Price,
		KeywordScore: *c.KeywordScore,
		Views:        *c.Views,
		Clicks:       *c.Clicks,
		IsSold:       *c.IsSold,
	}
}

func (u *DomainUpdate) Validate() error {
	return validateFields(u.DomainName, u.Category, u.Price, u.KeywordScore, u.Views, u.Clicks)
}

func (u *DomainUpdate) ToPatch() storage.Patch {
	return storage.Patch{
		DomainName:   u.DomainName,
		Category:     u.Category,
		Price:        u.Price,
		KeywordScore: u.KeywordScore,
		Views:        u.Views,
		Clicks:       u.Clicks,
		IsSold:       u.IsSold,
	}
}

// validateFields applies the per-field rules to whichever fields are set.
func validateFields(name, category *string, price, keywordScore *float64, views, clicks *int64) error {
	if name != nil && (len(*name) < 1 || len(*name) > 255) {
		return errDomainNameLen
	}
	if category != nil && (len(*category) < 1 || len(*category) > 100) {
		return errCategoryLen
	}
	if price != nil && *price <= 0 {
		return errPriceRange
	}
	if keywordScore != nil && (*keywordScore < 0 || *keywordScore > 100) {
		return errKeywordRange
	}
	if views != nil && *views < 0 {
		return errViewsNegative
	}
	if clicks != nil && *clicks < 0 {
		return errClicksNegative
	}
	return nil
}
