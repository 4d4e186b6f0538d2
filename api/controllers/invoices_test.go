package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localmarkethq/localmarket-backend/internal/invoices"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
)

type stubInvoiceService struct {
	invoices.Service

	cancelErr error
	cancelled []uuid.UUID
	actorID   uuid.UUID
	actorRole enums.UserRole
}

func (s *stubInvoiceService) Cancel(_ context.Context, orderID uuid.UUID, actorID uuid.UUID, actorRole enums.UserRole) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	s.cancelled = append(s.cancelled, orderID)
	s.actorID = actorID
	s.actorRole = actorRole
	return nil
}

func withOrderIDParam(req *http.Request, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestInvoiceCancelHappyPath(t *testing.T) {
	svc := &stubInvoiceService{}
	handler := InvoiceCancel(svc, testLogger())

	actorID := uuid.New()
	orderID := uuid.New()
	req := authedRequest(http.MethodPut, "/api/v1/invoices/cancel/"+orderID.String(), "", actorID, enums.UserRoleSeller)
	req = withOrderIDParam(req, orderID.String())
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.cancelled, 1)
	assert.Equal(t, orderID, svc.cancelled[0])
	assert.Equal(t, actorID, svc.actorID)
	assert.Equal(t, enums.UserRoleSeller, svc.actorRole)
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
}

func TestInvoiceCancelForbiddenPassesThrough(t *testing.T) {
	svc := &stubInvoiceService{cancelErr: pkgerrors.New(pkgerrors.CodeForbidden, "invoice belongs to another user")}
	handler := InvoiceCancel(svc, testLogger())

	orderID := uuid.New()
	req := authedRequest(http.MethodPut, "/api/v1/invoices/cancel/"+orderID.String(), "", uuid.New(), enums.UserRoleBuyer)
	req = withOrderIDParam(req, orderID.String())
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, svc.cancelled)
}

func TestInvoiceCancelRejectsBadOrderID(t *testing.T) {
	svc := &stubInvoiceService{}
	handler := InvoiceCancel(svc, testLogger())

	req := authedRequest(http.MethodPut, "/api/v1/invoices/cancel/not-a-uuid", "", uuid.New(), enums.UserRoleBuyer)
	req = withOrderIDParam(req, "not-a-uuid")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.cancelled)
}
