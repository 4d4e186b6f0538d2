package reports

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
)

type stubProducts struct {
	known map[uuid.UUID]bool
}

func (s *stubProducts) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if !s.known[id] {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Product{ID: id}, nil
}

func setupReportsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS reports (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  reporter_id TEXT NOT NULL,
  note TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func TestCreateAndTriage(t *testing.T) {
	ctx := context.Background()
	db := setupReportsTestDB(t)
	productID := uuid.New()
	svc, err := NewService(NewRepository(db), &stubProducts{known: map[uuid.UUID]bool{productID: true}})
	require.NoError(t, err)

	created, err := svc.Create(ctx, uuid.New(), productID, "listing photos do not match the item")
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusOpen, created.Status)

	reviewed, err := svc.UpdateStatus(ctx, created.ID, enums.ReportStatusReviewed)
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusReviewed, reviewed.Status)

	_, err = svc.UpdateStatus(ctx, created.ID, "escalated")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.UpdateStatus(ctx, uuid.New(), enums.ReportStatusDismissed)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	db := setupReportsTestDB(t)
	productID := uuid.New()
	svc, err := NewService(NewRepository(db), &stubProducts{known: map[uuid.UUID]bool{productID: true}})
	require.NoError(t, err)

	_, err = svc.Create(ctx, uuid.New(), productID, "   ")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, uuid.New(), uuid.New(), "bad product")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	db := setupReportsTestDB(t)
	productID := uuid.New()
	svc, err := NewService(NewRepository(db), &stubProducts{known: map[uuid.UUID]bool{productID: true}})
	require.NoError(t, err)

	first, err := svc.Create(ctx, uuid.New(), productID, "counterfeit")
	require.NoError(t, err)
	_, err = svc.Create(ctx, uuid.New(), productID, "spam listing")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, first.ID, enums.ReportStatusDismissed)
	require.NoError(t, err)

	open := enums.ReportStatusOpen
	page, err := svc.List(ctx, ListFilter{Status: &open}, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Reports, 1)
	assert.Equal(t, "spam listing", page.Reports[0].Note)
}
