package storage

import (
	"context"
	"errors"

	"dmars/models"
)

var (
	// ErrNotFound is returned when no domain matches the given ID or name.
	ErrNotFound = errors.New("storage: domain not found")
	// ErrDuplicateName is returned when a create or rename collides with an
	// existing domain_name.
	ErrDuplicateName = errors.New("storage: domain name already exists")
)

// Filter narrows and paginates List results. Nil pointer fields mean "any".
// A zero Limit returns all matching rows.
type Filter struct {
	Category *string
	IsSold   *bool
	Skip     int
	Limit    int
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	DomainName   *string
	Category     *string
	Price        *float64
	KeywordScore *float64
	Views        *int64
	Clicks       *int64
	IsSold       *bool
}

// Store is the interface any catalog backend must satisfy. Every read
// returns rows ordered by ID so snapshots are reproducible.
type Store interface {
	Create(ctx context.Context, d *models.Domain) error
	GetByID(ctx context.Context, id int64) (*models.Domain, error)
	GetByName(ctx context.Context, name string) (*models.Domain, error)
	List(ctx context.Context, f Filter) ([]*models.Domain, error)
	Update(ctx context.Context, id int64, p Patch) (*models.Domain, error)
	Delete(ctx context.Context, id int64) error
	FetchAll(ctx context.Context) ([]*models.Domain, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}
