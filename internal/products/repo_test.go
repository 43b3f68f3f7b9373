package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/multimart/multimart-backend/pkg/db/models"
	"github.com/multimart/multimart-backend/pkg/enums"
	pkgerrors "github.com/multimart/multimart-backend/pkg/errors"
	"github.com/multimart/multimart-backend/pkg/types"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  price_cents INTEGER NOT NULL,
  compare_at_price_cents INTEGER,
  vertical TEXT NOT NULL,
  subcategory TEXT,
  colors TEXT,
  sizes TEXT,
  materials TEXT,
  rams TEXT,
  images TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(schema).Error)
	return conn
}

func seedProduct(t *testing.T, conn *gorm.DB, title string, vertical enums.Vertical, active bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	product := models.Product{
		ID:         id,
		Title:      title,
		PriceCents: 49900,
		Vertical:   vertical,
		Sizes:      types.StringArray{"S", "M"},
		Images:     types.StringArray{"/img/1.jpg"},
		IsActive:   active,
	}
	require.NoError(t, conn.Create(&product).Error)
	return id
}

func TestListFiltersByVertical(t *testing.T) {
	t.Parallel()

	conn := setupProductsTestDB(t)
	seedProduct(t, conn, "Business Cards", enums.VerticalPrinting, true)
	seedProduct(t, conn, "Desk Lamp", enums.VerticalMarketplace, true)
	seedProduct(t, conn, "Hidden", enums.VerticalPrinting, false)

	repo := NewRepository(conn)
	items, total, err := repo.List(context.Background(), ListParams{Vertical: enums.VerticalPrinting})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Business Cards", items[0].Title)
}

func TestListRejectsUnknownVertical(t *testing.T) {
	t.Parallel()

	repo := NewRepository(setupProductsTestDB(t))
	_, _, err := repo.List(context.Background(), ListParams{Vertical: "furniture"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestListSearchAndPaging(t *testing.T) {
	t.Parallel()

	conn := setupProductsTestDB(t)
	seedProduct(t, conn, "Red Mug", enums.VerticalMarket, true)
	seedProduct(t, conn, "Blue Mug", enums.VerticalMarket, true)
	seedProduct(t, conn, "Notebook", enums.VerticalMarket, true)

	repo := NewRepository(conn)
	items, total, err := repo.List(context.Background(), ListParams{Search: "Mug", PageSize: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 1)
}

func TestFindByID(t *testing.T) {
	t.Parallel()

	conn := setupProductsTestDB(t)
	id := seedProduct(t, conn, "Canvas Print", enums.VerticalPrinting, true)

	repo := NewRepository(conn)
	product, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Canvas Print", product.Title)
	assert.Equal(t, []string{"S", "M"}, []string(product.Sizes))

	_, err = repo.FindByID(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
