package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/threadlane/threadlane-backend/pkg/db/models"
	"github.com/threadlane/threadlane-backend/pkg/pagination"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	categories := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  old_price NUMERIC,
  image_url TEXT NOT NULL DEFAULT '',
  stock INTEGER NOT NULL DEFAULT 10,
  available INTEGER NOT NULL DEFAULT 1,
  size_s INTEGER NOT NULL DEFAULT 1,
  size_m INTEGER NOT NULL DEFAULT 1,
  size_l INTEGER NOT NULL DEFAULT 1,
  size_xl INTEGER NOT NULL DEFAULT 1,
  size_xxl INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(categories).Error)
	require.NoError(t, db.Exec(products).Error)
	return db
}

func newCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{
		ID:   uuid.New(),
		Name: name,
		Slug: fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]),
	}
	require.NoError(t, db.Create(category).Error)
	return category
}

func newProduct(t *testing.T, db *gorm.DB, category *models.Category, name string, price string, available bool, created time.Time) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:         uuid.New(),
		CategoryID: category.ID,
		Name:       name,
		Slug:       fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]),
		Price:      decimal.RequireFromString(price),
		Stock:      10,
		Available:  available,
		SizeS:      true,
		SizeM:      true,
		SizeL:      true,
		SizeXL:     true,
		SizeXXL:    true,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryListAvailable_pagination(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	category := newCategory(t, db, "tees")
	now := time.Now().UTC()
	newProduct(t, db, category, "older-tee", "999.00", true, now.Add(-time.Hour))
	newProduct(t, db, category, "newer-tee", "1499.00", true, now)
	newProduct(t, db, category, "hidden-tee", "799.00", false, now)

	list, err := repo.ListAvailable(context.Background(), ListQuery{
		CategorySlug: category.Slug,
		Pagination:   pagination.Params{Limit: 1},
	})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.NotEmpty(t, list.NextCursor)
	assert.Equal(t, "newer-tee", list.Products[0].Name)
	require.NotNil(t, list.Products[0].Category)
	assert.Equal(t, category.Slug, list.Products[0].Category.Slug)

	second, err := repo.ListAvailable(context.Background(), ListQuery{
		CategorySlug: category.Slug,
		Pagination:   pagination.Params{Limit: 1, Cursor: list.NextCursor},
	})
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Equal(t, "older-tee", second.Products[0].Name)
	assert.Empty(t, second.NextCursor)
}

func TestRepositoryListAvailable_search(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	category := newCategory(t, db, "hoodies")
	now := time.Now().UTC()
	marker := uuid.NewString()[:8]
	newProduct(t, db, category, "Graphic Hoodie "+marker, "1999.00", true, now)
	newProduct(t, db, category, "Plain Hoodie", "1499.00", true, now.Add(-time.Minute))

	list, err := repo.ListAvailable(context.Background(), ListQuery{
		CategorySlug: category.Slug,
		Search:       "graphic hoodie " + marker,
		Pagination:   pagination.Params{Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Contains(t, list.Products[0].Name, "Graphic Hoodie")
}

func TestRepositoryFindAvailableByIDAndSlug(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	category := newCategory(t, db, "caps")
	now := time.Now().UTC()
	product := newProduct(t, db, category, "classic-cap", "599.00", true, now)
	hidden := newProduct(t, db, category, "retired-cap", "499.00", false, now)

	found, err := repo.FindAvailableByIDAndSlug(context.Background(), product.ID, product.Slug)
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)
	require.NotNil(t, found.Category)
	assert.Equal(t, category.Name, found.Category.Name)

	_, err = repo.FindAvailableByIDAndSlug(context.Background(), hidden.ID, hidden.Slug)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindAvailableByIDAndSlug(context.Background(), product.ID, "wrong-slug")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindCategoryBySlug(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	category := newCategory(t, db, "jackets")

	found, err := repo.FindCategoryBySlug(context.Background(), category.Slug)
	require.NoError(t, err)
	assert.Equal(t, category.ID, found.ID)

	_, err = repo.FindCategoryBySlug(context.Background(), "missing-slug")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
