package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/internal/products"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
)

func setupWishlistTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  category TEXT NOT NULL,
  original_price_cents INTEGER NOT NULL,
  price_cents INTEGER NOT NULL,
  discount_percent INTEGER,
  discount_starts_at DATETIME,
  discount_ends_at DATETIME,
  rating_average REAL NOT NULL DEFAULT 0,
  rating_count INTEGER NOT NULL DEFAULT 0,
  view_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS product_images (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  url TEXT NOT NULL,
  storage_id TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS wishlist_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, product_id)
);`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func newWishlistTestService(t *testing.T, db *gorm.DB) (Service, products.Service) {
	t.Helper()
	productRepo := products.NewRepository(db)
	productSvc, err := products.NewService(productRepo, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), productRepo)
	require.NoError(t, err)
	return svc, productSvc
}

func seedProduct(t *testing.T, productSvc products.Service, name string) uuid.UUID {
	t.Helper()
	created, err := productSvc.Create(context.Background(), uuid.New(), products.CreateInput{
		Name:               name,
		Category:           enums.ProductCategoryHome,
		OriginalPriceCents: 500,
		Images:             []products.ImageInput{{URL: "https://img.example.com/p.jpg", StorageID: "img"}},
	})
	require.NoError(t, err)
	return created.ID
}

func TestAddIsIdempotent(t *testing.T) {
	db := setupWishlistTestDB(t)
	svc, productSvc := newWishlistTestService(t, db)

	userID := uuid.New()
	productID := seedProduct(t, productSvc, "Ceramic Vase")

	require.NoError(t, svc.AddItem(context.Background(), userID, productID))
	require.NoError(t, svc.AddItem(context.Background(), userID, productID))

	ids, err := svc.ListIDs(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{productID}, ids)
}

func TestAddUnknownProduct(t *testing.T) {
	db := setupWishlistTestDB(t)
	svc, _ := newWishlistTestService(t, db)

	err := svc.AddItem(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestRemoveMissingEntryIsNoOp(t *testing.T) {
	db := setupWishlistTestDB(t)
	svc, _ := newWishlistTestService(t, db)

	require.NoError(t, svc.RemoveItem(context.Background(), uuid.New(), uuid.New()))
}

func TestListReturnsProductsWithImages(t *testing.T) {
	db := setupWishlistTestDB(t)
	svc, productSvc := newWishlistTestService(t, db)

	userID := uuid.New()
	first := seedProduct(t, productSvc, "Ceramic Vase")
	second := seedProduct(t, productSvc, "Linen Apron")
	require.NoError(t, svc.AddItem(context.Background(), userID, first))
	require.NoError(t, svc.AddItem(context.Background(), userID, second))

	page, err := svc.List(context.Background(), userID, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	for _, item := range page.Items {
		assert.NotEmpty(t, item.Product.Name)
		assert.Len(t, item.Product.Images, 1)
		assert.False(t, item.AddedAt.IsZero())
	}

	require.NoError(t, svc.RemoveItem(context.Background(), userID, first))
	page, err = svc.List(context.Background(), userID, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second, page.Items[0].Product.ID)
}
