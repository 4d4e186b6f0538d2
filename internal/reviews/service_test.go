package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/internal/products"
	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
)

func setupReviewsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS products (
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
);`, `
CREATE TABLE IF NOT EXISTS product_images (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  url TEXT NOT NULL,
  storage_id TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  author_id TEXT NOT NULL,
  rating INTEGER NOT NULL,
  comment TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (product_id, author_id)
);`, `
CREATE TABLE IF NOT EXISTS review_reactions (
  id TEXT PRIMARY KEY,
  review_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (review_id, user_id)
);`}
	for _, ddl := range statements {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedReviewProduct(t *testing.T, db *gorm.DB, sellerID uuid.UUID) uuid.UUID {
	t.Helper()
	product := &models.Product{
		ID:                 uuid.New(),
		SellerID:           sellerID,
		Name:               "Ceramic Vase",
		Description:        "Hand thrown",
		Category:           enums.ProductCategoryHome,
		OriginalPriceCents: 2400,
		PriceCents:         2400,
	}
	require.NoError(t, db.Create(product).Error)
	return product.ID
}

func newReviewService(t *testing.T, db *gorm.DB) (*Service, *products.Repository) {
	t.Helper()
	productRepo := products.NewRepository(db)
	svc, err := NewService(NewRepository(db), productRepo, nil)
	require.NoError(t, err)
	return svc, productRepo
}

func TestCreateRecomputesProductRating(t *testing.T) {
	ctx := context.Background()
	db := setupReviewsTestDB(t)
	svc, productRepo := newReviewService(t, db)
	productID := seedReviewProduct(t, db, uuid.New())

	_, err := svc.Create(ctx, uuid.New(), CreateInput{ProductID: productID, Rating: 5})
	require.NoError(t, err)
	_, err = svc.Create(ctx, uuid.New(), CreateInput{ProductID: productID, Rating: 4})
	require.NoError(t, err)

	product, err := productRepo.FindByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, product.RatingAverage)
	assert.Equal(t, 2, product.RatingCount)

	// one-decimal rounding: (5+4+4)/3 = 4.333... -> 4.3
	_, err = svc.Create(ctx, uuid.New(), CreateInput{ProductID: productID, Rating: 4})
	require.NoError(t, err)
	product, err = productRepo.FindByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 4.3, product.RatingAverage)
	assert.Equal(t, 3, product.RatingCount)
}

func TestCreateOnePerAuthor(t *testing.T) {
	ctx := context.Background()
	db := setupReviewsTestDB(t)
	svc, _ := newReviewService(t, db)
	productID := seedReviewProduct(t, db, uuid.New())
	author := uuid.New()

	_, err := svc.Create(ctx, author, CreateInput{ProductID: productID, Rating: 3})
	require.NoError(t, err)

	_, err = svc.Create(ctx, author, CreateInput{ProductID: productID, Rating: 5})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	db := setupReviewsTestDB(t)
	svc, _ := newReviewService(t, db)
	productID := seedReviewProduct(t, db, uuid.New())

	_, err := svc.Create(ctx, uuid.New(), CreateInput{ProductID: productID, Rating: 0})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, uuid.New(), CreateInput{ProductID: productID, Rating: 6})
	require.Error(t, err)

	_, err = svc.Create(ctx, uuid.New(), CreateInput{ProductID: uuid.New(), Rating: 4})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	ctx := context.Background()
	db := setupReviewsTestDB(t)
	svc, productRepo := newReviewService(t, db)
	productID := seedReviewProduct(t, db, uuid.New())
	author := uuid.New()

	created, err := svc.Create(ctx, author, CreateInput{ProductID: productID, Rating: 2})
	require.NoError(t, err)

	stranger := uuid.New()
	newRating := 4
	_, err = svc.Update(ctx, created.ID, stranger, enums.UserRoleBuyer, UpdateInput{Rating: &newRating})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	updated, err := svc.Update(ctx, created.ID, author, enums.UserRoleBuyer, UpdateInput{Rating: &newRating})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)

	product, err := productRepo.FindByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, product.RatingAverage)

	err = svc.Delete(ctx, created.ID, stranger, enums.UserRoleBuyer)
	require.Error(t, err)

	// admin override
	require.NoError(t, svc.Delete(ctx, created.ID, stranger, enums.UserRoleAdmin))

	product, err = productRepo.FindByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, product.RatingAverage)
	assert.Equal(t, 0, product.RatingCount)
}

func TestReactionToggles(t *testing.T) {
	ctx := context.Background()
	db := setupReviewsTestDB(t)
	svc, _ := newReviewService(t, db)
	productID := seedReviewProduct(t, db, uuid.New())

	created, err := svc.Create(ctx, uuid.New(), CreateInput{ProductID: productID, Rating: 5})
	require.NoError(t, err)

	voter := uuid.New()
	review, err := svc.React(ctx, created.ID, voter, enums.ReviewReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, 0, review.Likes)
	assert.Equal(t, 1, review.Dislikes)

	// liking replaces the dislike
	review, err = svc.React(ctx, created.ID, voter, enums.ReviewReactionLike)
	require.NoError(t, err)
	assert.Equal(t, 1, review.Likes)
	assert.Equal(t, 0, review.Dislikes)

	// re-liking clears it
	review, err = svc.React(ctx, created.ID, voter, enums.ReviewReactionLike)
	require.NoError(t, err)
	assert.Equal(t, 0, review.Likes)
	assert.Equal(t, 0, review.Dislikes)

	_, err = svc.React(ctx, created.ID, voter, "meh")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListByProductNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := setupReviewsTestDB(t)
	svc, _ := newReviewService(t, db)
	productID := seedReviewProduct(t, db, uuid.New())

	for _, rating := range []int{1, 2, 3} {
		_, err := svc.Create(ctx, uuid.New(), CreateInput{ProductID: productID, Rating: rating})
		require.NoError(t, err)
	}

	page, err := svc.ListByProduct(ctx, productID, "", 2)
	require.NoError(t, err)
	require.Len(t, page.Reviews, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := svc.ListByProduct(ctx, productID, page.NextCursor, 2)
	require.NoError(t, err)
	assert.Len(t, rest.Reviews, 1)
	assert.Empty(t, rest.NextCursor)
}
