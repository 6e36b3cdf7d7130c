package repositories

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

func newSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleCatalog(id, name string, kind domain.CatalogKind) *domain.Catalog {
	return &domain.Catalog{
		ID:   id,
		Kind: kind,
		Name: name,
		Sections: []domain.Section{
			{ID: "s1", Name: "Stock", Rows: []domain.Row{{EntityID: "e1"}}},
		},
		Entities: []domain.Entity{{
			ID:        "e1",
			Name:      "Flour",
			Kind:      domain.EntityKindStockItem,
			StockItem: &domain.StockItem{Unit: "kg", ParLevel: decimal.RequireFromString("2.5")},
		}},
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sampleReport(id, user string, at time.Time) *domain.Report {
	return &domain.Report{
		ID:          id,
		CatalogID:   "c1",
		CatalogKind: domain.CatalogKindInventory,
		Catalog:     *sampleCatalog("c1", "Pantry", domain.CatalogKindInventory),
		User:        user,
		Date:        "2026-03-01",
		SubmittedAt: at,
		Rows: []domain.ReportRow{{
			SectionID: "s1",
			EntityID:  "e1",
			Count:     &domain.StockCount{Quantity: decimal.NewFromInt(1), BelowPar: true},
		}},
	}
}

func TestSQLiteCatalogRoundTrip(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()

	c := sampleCatalog("c1", "Pantry", domain.CatalogKindInventory)
	require.NoError(t, repo.Put(ctx, c))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c.Name, got.Name)
	assert.Equal(t, c.Sections, got.Sections)
	assert.True(t, c.Entities[0].StockItem.ParLevel.Equal(got.Entities[0].StockItem.ParLevel))
	assert.True(t, c.UpdatedAt.Equal(got.UpdatedAt))

	c.Name = "Pantry v2"
	require.NoError(t, repo.Put(ctx, c))
	got, err = repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Pantry v2", got.Name)

	require.NoError(t, repo.Delete(ctx, "c1"))
	_, err = repo.Get(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "c1"), domain.ErrNotFound)
}

func TestSQLiteCatalogList(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, sampleCatalog("c1", "Cellar", domain.CatalogKindInventory)))
	require.NoError(t, repo.Put(ctx, sampleCatalog("c2", "Bar", domain.CatalogKindInventory)))
	require.NoError(t, repo.Put(ctx, &domain.Catalog{ID: "c3", Kind: domain.CatalogKindQuiz, Name: "Allergens"}))

	page, err := repo.List(ctx, domain.CatalogFilter{PaginationParams: domain.PaginationParams{Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Allergens", page.Items[0].Name)
	assert.Equal(t, "Bar", page.Items[1].Name)

	page, err = repo.List(ctx, domain.CatalogFilter{Kind: domain.CatalogKindInventory, PaginationParams: domain.PaginationParams{Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.False(t, page.HasMore)
}

func TestSQLiteReportsAreAppendOnly(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, sampleReport("r1", "kim", at)))
	err := repo.Create(ctx, sampleReport("r1", "someone-else", at))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "kim", got.User)
	assert.True(t, got.Rows[0].Count.BelowPar)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteListByUserNewestFirst(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, sampleReport(fmt.Sprintf("r%d", i), "kim", base.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, repo.Create(ctx, sampleReport("other", "lee", base)))

	page, err := repo.ListByUser(ctx, "kim", domain.PaginationParams{Limit: 3, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, []string{"r3", "r2", "r1"}, []string{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID})
	assert.True(t, page.HasMore)
}

func TestSQLiteConcurrentWrites(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.Put(ctx, sampleCatalog(fmt.Sprintf("c%d", i), fmt.Sprintf("Catalog %02d", i), domain.CatalogKindInventory)))
		}(i)
	}
	wg.Wait()

	page, err := repo.List(ctx, domain.CatalogFilter{})
	require.NoError(t, err)
	assert.Equal(t, 20, page.Total)
	assert.Len(t, page.Items, 20)
	require.NoError(t, repo.CheckConnection(ctx))
}
