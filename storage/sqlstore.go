package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dmars/models"
)

const domainColumns = "id, domain_name, category, price, keyword_score, views, clicks, is_sold, created_at, updated_at"

// SQLStore implements Store over database/sql. SQLite and Postgres share
// this code; only the schema, the placeholder style, and ID generation
// differ per backend.
type SQLStore struct {
	db     *sql.DB
	dollar bool // Postgres wants $1..$n placeholders instead of ?
}

// rebind rewrites ? placeholders to $1..$n for the Postgres backend.
func (s *SQLStore) rebind(query string) string {
	if !s.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Create inserts a new listing, assigning its ID and timestamps. A
// domain_name already present in the catalog yields ErrDuplicateName.
func (s *SQLStore) Create(ctx context.Context, d *models.Domain) error {
	if _, err := s.GetByName(ctx, d.DomainName); err == nil {
		return fmt.Errorf("create %q: %w", d.DomainName, ErrDuplicateName)
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("storage: create: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	d.CreatedAt = now
	d.UpdatedAt = now

	const insert = `
		INSERT INTO domains (domain_name, category, price, keyword_score, views, clicks, is_sold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{d.DomainName, d.Category, d.Price, d.KeywordScore, d.Views, d.Clicks, d.IsSold, d.CreatedAt, d.UpdatedAt}

	if s.dollar {
		// lib/pq has no LastInsertId; fetch the ID through RETURNING.
		err := s.db.QueryRowContext(ctx, s.rebind(insert+" RETURNING id"), args...).Scan(&d.ID)
		if err != nil {
			return fmt.Errorf("storage: create: %w", err)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx, insert, args...)
	if err != nil {
		return fmt.Errorf("storage: create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("storage: create: %w", err)
	}
	d.ID = id
	return nil
}

// GetByID fetches a single listing, or ErrNotFound.
func (s *SQLStore) GetByID(ctx context.Context, id int64) (*models.Domain, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+domainColumns+" FROM domains WHERE id = ?"), id)
	return scanDomain(row)
}

// GetByName fetches a single listing by its unique domain_name, or
// ErrNotFound.
func (s *SQLStore) GetByName(ctx context.Context, name string) (*models.Domain, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+domainColumns+" FROM domains WHERE domain_name = ?"), name)
	return scanDomain(row)
}

// List returns listings matching f, ordered by ID.
func (s *SQLStore) List(ctx context.Context, f Filter) ([]*models.Domain, error) {
	query := "SELECT " + domainColumns + " FROM domains"
	var (
		where []string
		args  []any
	)
	if f.Category != nil {
		where = append(where, "category = ?")
		args = append(args, *f.Category)
	}
	if f.IsSold != nil {
		where = append(where, "is_sold = ?")
		args = append(args, *f.IsSold)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Skip)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	defer rows.Close()
	return scanDomains(rows)
}

// Update applies the non-nil fields of p to the listing and refreshes
// updated_at. Renaming onto an existing domain_name yields
// ErrDuplicateName; a missing ID yields ErrNotFound.
func (s *SQLStore) Update(ctx context.Context, id int64, p Patch) (*models.Domain, error) {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.DomainName != nil && *p.DomainName != d.DomainName {
		if other, err := s.GetByName(ctx, *p.DomainName); err == nil && other.ID != id {
			return nil, fmt.Errorf("rename to %q: %w", *p.DomainName, ErrDuplicateName)
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("storage: update: %w", err)
		}
		d.DomainName = *p.DomainName
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Price != nil {
		d.Price = *p.Price
	}
	if p.KeywordScore != nil {
		d.KeywordScore = *p.KeywordScore
	}
	if p.Views != nil {
		d.Views = *p.Views
	}
	if p.Clicks != nil {
		d.Clicks = *p.Clicks
	}
	if p.IsSold != nil {
		d.IsSold = *p.IsSold
	}
	d.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	_, err = s.db.ExecContext(ctx, s.rebind(`
		UPDATE domains
		SET domain_name = ?, category = ?, price = ?, keyword_score = ?,
		    views = ?, clicks = ?, is_sold = ?, updated_at = ?
		WHERE id = ?`),
		d.DomainName, d.Category, d.Price, d.KeywordScore,
		d.Views, d.Clicks, d.IsSold, d.UpdatedAt, d.ID)
	if err != nil {
		return nil, fmt.Errorf("storage: update: %w", err)
	}
	return d, nil
}

// Delete removes a listing, or returns ErrNotFound.
func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM domains WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("storage: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete %d: %w", id, ErrNotFound)
	}
	return nil
}

// FetchAll returns the full catalog ordered by ID — the snapshot handed to
// the analytics and ranking engines.
func (s *SQLStore) FetchAll(ctx context.Context) ([]*models.Domain, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+domainColumns+" FROM domains ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("storage: fetch all: %w", err)
	}
	defer rows.Close()
	return scanDomains(rows)
}

// Count returns the number of listings in the catalog.
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM domains").Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDomain(row rowScanner) (*models.Domain, error) {
	d := &models.Domain{}
	err := row.Scan(&d.ID, &d.DomainName, &d.Category, &d.Price, &d.KeywordScore,
		&d.Views, &d.Clicks, &d.IsSold, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: scan row: %w", err)
	}
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return d, nil
}

func scanDomains(rows *sql.Rows) ([]*models.Domain, error) {
	var domains []*models.Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}
