package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/internal/invoices"
	"github.com/localmarkethq/localmarket-backend/internal/products"
	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddls := []string{`
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
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_cents INTEGER NOT NULL,
  shipping_address TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  carrier TEXT,
  tracking_number TEXT,
  estimated_delivery DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_tracking_events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  note TEXT,
  created_at DATETIME
);`}
	for _, ddl := range ddls {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubInvoices struct {
	generated []uuid.UUID
	cancelled []uuid.UUID
	failWith  error
}

func (s *stubInvoices) Generate(_ context.Context, orderID uuid.UUID) (invoices.DTO, error) {
	if s.failWith != nil {
		return invoices.DTO{}, s.failWith
	}
	s.generated = append(s.generated, orderID)
	return invoices.DTO{OrderID: orderID}, nil
}

func (s *stubInvoices) CancelByOrder(_ context.Context, orderID uuid.UUID) error {
	s.cancelled = append(s.cancelled, orderID)
	return nil
}

type stubNotifier struct {
	updates []enums.OrderStatus
}

func (s *stubNotifier) NotifyOrderUpdate(_ context.Context, _, _ uuid.UUID, status enums.OrderStatus) error {
	s.updates = append(s.updates, status)
	return nil
}

func seedProduct(t *testing.T, db *gorm.DB, sellerID uuid.UUID, priceCents int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:                 uuid.New(),
		SellerID:           sellerID,
		Name:               "Test Product",
		Description:        "desc",
		Category:           enums.ProductCategoryOther,
		OriginalPriceCents: priceCents,
		PriceCents:         priceCents,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func testAddress() types.Address {
	return types.Address{Line1: "12 Market St", City: "Springfield", State: "IL", PostalCode: "62701", Country: "US"}
}

func newOrdersService(t *testing.T, db *gorm.DB, inv *stubInvoices, notif *stubNotifier) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(db),
		products.NewRepository(db),
		testTxRunner{db: db},
		inv,
		notif,
		nil,
	)
	require.NoError(t, err)
	return svc
}

func TestCreateComputesTotalsAndSideEffects(t *testing.T) {
	db := setupOrdersTestDB(t)
	inv := &stubInvoices{}
	notif := &stubNotifier{}
	svc := newOrdersService(t, db, inv, notif)

	sellerID := uuid.New()
	buyerID := uuid.New()
	p1 := seedProduct(t, db, sellerID, 500)
	p2 := seedProduct(t, db, sellerID, 1200)

	result, err := svc.Create(context.Background(), buyerID, CreateInput{
		Items: []ItemInput{
			{ProductID: p1.ID, Qty: 3},
			{ProductID: p2.ID, Qty: 1},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodCash,
	})
	require.NoError(t, err)
	require.NoError(t, result.InvoiceErr)

	order := result.Order
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, 3*500+1200, order.TotalCents)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 1500, order.Items[0].TotalCents)
	require.Len(t, order.TrackingHistory, 1)
	assert.Equal(t, enums.OrderStatusPending, order.TrackingHistory[0].Status)

	require.Len(t, inv.generated, 1)
	assert.Equal(t, order.ID, inv.generated[0])
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusPending}, notif.updates)
}

func TestCreateRejectsOwnProduct(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db, &stubInvoices{}, &stubNotifier{})

	sellerID := uuid.New()
	product := seedProduct(t, db, sellerID, 500)

	_, err := svc.Create(context.Background(), sellerID, CreateInput{
		Items:           []ItemInput{{ProductID: product.ID, Qty: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateSurvivesInvoiceFailure(t *testing.T) {
	db := setupOrdersTestDB(t)
	inv := &stubInvoices{failWith: errors.New("renderer offline")}
	svc := newOrdersService(t, db, inv, &stubNotifier{})

	product := seedProduct(t, db, uuid.New(), 900)
	buyerID := uuid.New()

	result, err := svc.Create(context.Background(), buyerID, CreateInput{
		Items:           []ItemInput{{ProductID: product.ID, Qty: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)
	require.Error(t, result.InvoiceErr)

	// order is committed despite the invoice failure
	got, err := svc.Get(context.Background(), result.Order.ID, Actor{ID: buyerID, Role: enums.UserRoleBuyer})
	require.NoError(t, err)
	assert.Equal(t, 1800, got.TotalCents)
}

func TestBuyerCancelRules(t *testing.T) {
	db := setupOrdersTestDB(t)
	inv := &stubInvoices{}
	svc := newOrdersService(t, db, inv, &stubNotifier{})

	sellerID := uuid.New()
	buyerID := uuid.New()
	product := seedProduct(t, db, sellerID, 700)

	result, err := svc.Create(context.Background(), buyerID, CreateInput{
		Items:           []ItemInput{{ProductID: product.ID, Qty: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodCash,
	})
	require.NoError(t, err)
	orderID := result.Order.ID

	// buyer cannot mark shipped
	_, err = svc.UpdateStatus(context.Background(), orderID, Actor{ID: buyerID, Role: enums.UserRoleBuyer}, UpdateStatusInput{Status: enums.OrderStatusShipped})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	// buyer cancels while pending
	updated, err := svc.UpdateStatus(context.Background(), orderID, Actor{ID: buyerID, Role: enums.UserRoleBuyer}, UpdateStatusInput{Status: enums.OrderStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, updated.Status)
	assert.Len(t, updated.TrackingHistory, 2)
	assert.Equal(t, []uuid.UUID{orderID}, inv.cancelled)
}

func TestBuyerCannotCancelConfirmedOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db, &stubInvoices{}, &stubNotifier{})

	sellerID := uuid.New()
	buyerID := uuid.New()
	product := seedProduct(t, db, sellerID, 700)

	result, err := svc.Create(context.Background(), buyerID, CreateInput{
		Items:           []ItemInput{{ProductID: product.ID, Qty: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodCash,
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), result.Order.ID, Actor{ID: sellerID, Role: enums.UserRoleSeller}, UpdateStatusInput{Status: enums.OrderStatusConfirmed})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), result.Order.ID, Actor{ID: buyerID, Role: enums.UserRoleBuyer}, UpdateStatusInput{Status: enums.OrderStatusCancelled})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestSellerStatusUpdateScopedToOwnOrders(t *testing.T) {
	db := setupOrdersTestDB(t)
	inv := &stubInvoices{}
	svc := newOrdersService(t, db, inv, &stubNotifier{})

	sellerID := uuid.New()
	buyerID := uuid.New()
	product := seedProduct(t, db, sellerID, 2000)

	result, err := svc.Create(context.Background(), buyerID, CreateInput{
		Items:           []ItemInput{{ProductID: product.ID, Qty: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   enums.PaymentMethodCard,
	})
	require.NoError(t, err)
	orderID := result.Order.ID

	otherSeller := uuid.New()
	_, err = svc.UpdateStatus(context.Background(), orderID, Actor{ID: otherSeller, Role: enums.UserRoleSeller}, UpdateStatusInput{Status: enums.OrderStatusConfirmed})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	carrier := "FastShip"
	trackingNo := "FS123456"
	updated, err := svc.UpdateStatus(context.Background(), orderID, Actor{ID: sellerID, Role: enums.UserRoleSeller}, UpdateStatusInput{
		Status:         enums.OrderStatusShipped,
		Carrier:        &carrier,
		TrackingNumber: &trackingNo,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)
	require.NotNil(t, updated.Carrier)
	assert.Equal(t, "FastShip", *updated.Carrier)

	// create + shipped both ensure an invoice
	assert.GreaterOrEqual(t, len(inv.generated), 2)
}

func TestListScopes(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db, &stubInvoices{}, &stubNotifier{})

	sellerID := uuid.New()
	buyerID := uuid.New()
	otherBuyer := uuid.New()
	product := seedProduct(t, db, sellerID, 300)

	for _, buyer := range []uuid.UUID{buyerID, otherBuyer} {
		_, err := svc.Create(context.Background(), buyer, CreateInput{
			Items:           []ItemInput{{ProductID: product.ID, Qty: 1}},
			ShippingAddress: testAddress(),
			PaymentMethod:   enums.PaymentMethodCash,
		})
		require.NoError(t, err)
	}

	mine, err := svc.ListMine(context.Background(), buyerID, "", 10)
	require.NoError(t, err)
	assert.Len(t, mine.Orders, 1)

	selling, err := svc.ListSelling(context.Background(), sellerID, "", 10)
	require.NoError(t, err)
	assert.Len(t, selling.Orders, 2)

	all, err := svc.ListAll(context.Background(), nil, "", 10)
	require.NoError(t, err)
	assert.Len(t, all.Orders, 2)
}
