package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localmarkethq/localmarket-backend/api/middleware"
	"github.com/localmarkethq/localmarket-backend/internal/products"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
)

type stubProductService struct {
	products.Service

	created   *products.CreateInput
	createdBy uuid.UUID
	listed    *products.ListFilter
}

func (s *stubProductService) Create(_ context.Context, sellerID uuid.UUID, input products.CreateInput) (products.ProductDTO, error) {
	s.createdBy = sellerID
	s.created = &input
	return products.ProductDTO{ID: uuid.New(), SellerID: sellerID, Name: input.Name}, nil
}

func (s *stubProductService) List(_ context.Context, filter products.ListFilter, _ string, _ int) (products.PageDTO, error) {
	s.listed = &filter
	return products.PageDTO{}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test"})
}

func authedRequest(method, target, body string, userID uuid.UUID, role enums.UserRole) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.WithIdentity(req.Context(), userID.String(), string(role), "Tester")
	return req.WithContext(ctx)
}

func TestProductCreateRequiresSellerRole(t *testing.T) {
	svc := &stubProductService{}
	handler := ProductCreate(svc, testLogger())

	req := authedRequest(http.MethodPost, "/api/v1/products", `{}`, uuid.New(), enums.UserRoleBuyer)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, svc.created)
}

func TestProductCreateHappyPath(t *testing.T) {
	svc := &stubProductService{}
	handler := ProductCreate(svc, testLogger())

	sellerID := uuid.New()
	body := `{
		"name": "Clay Mug",
		"category": "home",
		"original_price_cents": 1500,
		"images": [{"url": "https://img.example.com/mug.jpg", "storage_id": "img-1"}]
	}`
	req := authedRequest(http.MethodPost, "/api/v1/products", body, sellerID, enums.UserRoleSeller)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, sellerID, svc.createdBy)
	assert.Equal(t, "Clay Mug", svc.created.Name)
	assert.Equal(t, enums.ProductCategoryHome, svc.created.Category)
}

func TestProductCreateRejectsUnknownCategory(t *testing.T) {
	svc := &stubProductService{}
	handler := ProductCreate(svc, testLogger())

	body := `{
		"name": "Mystery Box",
		"category": "contraband",
		"original_price_cents": 100,
		"images": [{"url": "https://img.example.com/x.jpg", "storage_id": "img"}]
	}`
	req := authedRequest(http.MethodPost, "/api/v1/products", body, uuid.New(), enums.UserRoleSeller)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "invalid category", payload.Error.Message)
}

func TestProductListParsesFilters(t *testing.T) {
	svc := &stubProductService{}
	handler := ProductList(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=fashion&search=scarf&limit=5", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.listed)
	require.NotNil(t, svc.listed.Category)
	assert.Equal(t, enums.ProductCategoryFashion, *svc.listed.Category)
	assert.Equal(t, "scarf", svc.listed.Search)
}

func TestProductListRejectsBadCategory(t *testing.T) {
	svc := &stubProductService{}
	handler := ProductList(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=nope", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.listed)
}

func TestUUIDParamRejectsGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	_, err := uuidParam(req, "productId")
	require.Error(t, err)
}
