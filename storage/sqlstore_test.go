package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmars/models"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

func sampleDomain(name, category string) *models.Domain {
	return &models.Domain{
		DomainName:   name,
		Category:     category,
		Price:        1500,
		KeywordScore: 70,
		Views:        100,
		Clicks:       10,
	}
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	d := sampleDomain("cloudkitchen.io", "tech")
	d.IsSold = true
	require.NoError(t, store.Create(ctx, d))

	assert.Equal(t, int64(1), d.ID)
	assert.False(t, d.CreatedAt.IsZero())
	assert.Equal(t, d.CreatedAt, d.UpdatedAt)

	byID, err := store.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d, byID)

	byName, err := store.GetByName(ctx, "cloudkitchen.io")
	require.NoError(t, err)
	assert.Equal(t, d.ID, byName.ID)
	assert.Equal(t, "tech", byName.Category)
	assert.Equal(t, 1500.0, byName.Price)
	assert.Equal(t, 70.0, byName.KeywordScore)
	assert.Equal(t, int64(100), byName.Views)
	assert.Equal(t, int64(10), byName.Clicks)
	assert.True(t, byName.IsSold)
}

func TestCreateDuplicateName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleDomain("taken.com", "tech")))

	err := store.Create(ctx, sampleDomain("taken.com", "retail"))
	require.ErrorIs(t, err, ErrDuplicateName)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetByID(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetByName(ctx, "ghost.net")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []*models.Domain{
		sampleDomain("alpha.io", "tech"),
		sampleDomain("bravo.com", "retail"),
		sampleDomain("charlie.ai", "tech"),
		sampleDomain("delta.shop", "retail"),
		sampleDomain("echo.dev", "tech"),
	}
	seed[1].IsSold = true
	seed[4].IsSold = true
	for _, d := range seed {
		require.NoError(t, store.Create(ctx, d))
	}

	t.Run("no filter returns all in ID order", func(t *testing.T) {
		got, err := store.List(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, got, 5)
		assert.Equal(t, "alpha.io", got[0].DomainName)
		assert.Equal(t, "echo.dev", got[4].DomainName)
	})

	t.Run("category filter", func(t *testing.T) {
		got, err := store.List(ctx, Filter{Category: ptr("tech")})
		require.NoError(t, err)
		require.Len(t, got, 3)
		for _, d := range got {
			assert.Equal(t, "tech", d.Category)
		}
	})

	t.Run("sold filter", func(t *testing.T) {
		got, err := store.List(ctx, Filter{IsSold: ptr(false)})
		require.NoError(t, err)
		require.Len(t, got, 3)
		for _, d := range got {
			assert.False(t, d.IsSold)
		}
	})

	t.Run("combined filters", func(t *testing.T) {
		got, err := store.List(ctx, Filter{Category: ptr("tech"), IsSold: ptr(true)})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "echo.dev", got[0].DomainName)
	})

	t.Run("pagination", func(t *testing.T) {
		got, err := store.List(ctx, Filter{Skip: 1, Limit: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(2), got[0].ID)
		assert.Equal(t, int64(3), got[1].ID)
	})

	t.Run("skip past the end", func(t *testing.T) {
		got, err := store.List(ctx, Filter{Skip: 10, Limit: 5})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestUpdatePartial(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	d := sampleDomain("startuphub.io", "tech")
	require.NoError(t, store.Create(ctx, d))

	updated, err := store.Update(ctx, d.ID, Patch{Price: ptr(2500.0), IsSold: ptr(true)})
	require.NoError(t, err)

	assert.Equal(t, 2500.0, updated.Price)
	assert.True(t, updated.IsSold)
	// untouched fields survive
	assert.Equal(t, "startuphub.io", updated.DomainName)
	assert.Equal(t, "tech", updated.Category)
	assert.Equal(t, int64(100), updated.Views)
	assert.Equal(t, d.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	stored, err := store.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}

func TestUpdateRename(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := sampleDomain("first.com", "tech")
	b := sampleDomain("second.com", "tech")
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))

	t.Run("rename onto existing name fails", func(t *testing.T) {
		_, err := store.Update(ctx, b.ID, Patch{DomainName: ptr("first.com")})
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("rename to own name is a no-op", func(t *testing.T) {
		got, err := store.Update(ctx, a.ID, Patch{DomainName: ptr("first.com")})
		require.NoError(t, err)
		assert.Equal(t, "first.com", got.DomainName)
	})

	t.Run("rename to a fresh name works", func(t *testing.T) {
		got, err := store.Update(ctx, b.ID, Patch{DomainName: ptr("third.com")})
		require.NoError(t, err)
		assert.Equal(t, "third.com", got.DomainName)

		_, err = store.GetByName(ctx, "second.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Update(context.Background(), 99, Patch{Price: ptr(1.0)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	d := sampleDomain("gone.io", "tech")
	require.NoError(t, store.Create(ctx, d))

	require.NoError(t, store.Delete(ctx, d.ID))

	_, err := store.GetByID(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Delete(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// insert out of lexical order; FetchAll must come back by ID
	for _, name := range []string{"zeta.com", "alpha.com", "mid.com"} {
		require.NoError(t, store.Create(ctx, sampleDomain(name, "tech")))
	}

	got, err := store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "zeta.com", got[0].DomainName)
	assert.Equal(t, "alpha.com", got[1].DomainName)
	assert.Equal(t, "mid.com", got[2].DomainName)
}

func TestCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, store.Create(ctx, sampleDomain("one.com", "tech")))
	require.NoError(t, store.Create(ctx, sampleDomain("two.com", "tech")))

	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dollar: true}
	assert.Equal(t,
		"SELECT id FROM domains WHERE category = $1 AND is_sold = $2",
		pg.rebind("SELECT id FROM domains WHERE category = ? AND is_sold = ?"))

	lite := &SQLStore{}
	assert.Equal(t, "WHERE id = ?", lite.rebind("WHERE id = ?"))
}
