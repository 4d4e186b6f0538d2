package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/internal/invoices"
	"github.com/localmarkethq/localmarket-backend/internal/products"
	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// invoiceManager is the slice of the invoice service orders drive as a side
// effect. Failures never roll back the order.
type invoiceManager interface {
	Generate(ctx context.Context, orderID uuid.UUID) (invoices.DTO, error)
	CancelByOrder(ctx context.Context, orderID uuid.UUID) error
}

// notifier records order events in the buyer's notification feed.
type notifier interface {
	NotifyOrderUpdate(ctx context.Context, userID, orderID uuid.UUID, status enums.OrderStatus) error
}

// Actor identifies who is performing an order operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// Service exposes the order workflow.
type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, input CreateInput) (CreateResult, error)
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (DTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, actor Actor, input UpdateStatusInput) (DTO, error)
	ListMine(ctx context.Context, buyerID uuid.UUID, cursor string, limit int) (PageDTO, error)
	ListSelling(ctx context.Context, sellerID uuid.UUID, cursor string, limit int) (PageDTO, error)
	ListAll(ctx context.Context, status *enums.OrderStatus, cursor string, limit int) (PageDTO, error)
}

type service struct {
	repo        *Repository
	productRepo *products.Repository
	tx          txRunner
	invoices    invoiceManager
	notif       notifier
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the order service.
func NewService(repo *Repository, productRepo *products.Repository, tx txRunner, invoices invoiceManager, notif notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repo is required")
	}
	if productRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if invoices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice manager is required")
	}
	return &service{
		repo:        repo,
		productRepo: productRepo,
		tx:          tx,
		invoices:    invoices,
		notif:       notif,
		logg:        logg,
		now:         time.Now,
	}, nil
}

// Create places an order: every line is validated against the live product,
// prices are snapshotted, and the order starts pending with one tracking
// event. Invoice generation runs after commit; its failure is reported in the
// result, never as an error.
func (s *service) Create(ctx context.Context, buyerID uuid.UUID, input CreateInput) (CreateResult, error) {
	if buyerID == uuid.Nil {
		return CreateResult{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	if len(input.Items) == 0 {
		return CreateResult{}, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	if input.ShippingAddress.IsZero() {
		return CreateResult{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	if !input.PaymentMethod.IsValid() {
		return CreateResult{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	address := input.ShippingAddress
	address.Normalize()

	items := make([]models.OrderItem, 0, len(input.Items))
	total := 0
	for _, line := range input.Items {
		if line.Qty < 1 {
			return CreateResult{}, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
		product, err := s.productRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return CreateResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product not found").
					WithDetails(map[string]any{"product_id": line.ProductID})
			}
			return CreateResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.SellerID == buyerID {
			return CreateResult{}, pkgerrors.New(pkgerrors.CodeValidation, "cannot order your own product").
				WithDetails(map[string]any{"product_id": product.ID})
		}

		lineTotal := product.PriceCents * line.Qty
		items = append(items, models.OrderItem{
			ProductID:      product.ID,
			SellerID:       product.SellerID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Qty:            line.Qty,
			TotalCents:     lineTotal,
		})
		total += lineTotal
	}

	note := "Order placed"
	order := &models.Order{
		BuyerID:         buyerID,
		Status:          enums.OrderStatusPending,
		TotalCents:      total,
		ShippingAddress: address,
		PaymentMethod:   input.PaymentMethod,
		Items:           items,
		TrackingHistory: []models.OrderTrackingEvent{{Status: enums.OrderStatusPending, Note: &note}},
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		return CreateResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	result := CreateResult{Order: ToDTO(order)}
	if _, invErr := s.invoices.Generate(ctx, order.ID); invErr != nil {
		result.InvoiceErr = invErr
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "orders.invoice_generation_failed", invErr)
		}
	}
	s.notifyBuyer(ctx, order.BuyerID, order.ID, order.Status)
	return result, nil
}

// Get returns the order detail for its buyer, one of its sellers, or an admin.
func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (DTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return DTO{}, err
	}
	if err := s.authorize(ctx, order, actor); err != nil {
		return DTO{}, err
	}
	return ToDTO(order), nil
}

// UpdateStatus moves the order to any of the five statuses. Buyers may only
// cancel, and only while the order is pending; sellers must own an item in
// the order; admins may do anything. Every accepted transition appends a
// tracking event, keeps the invoice in step, and notifies the buyer.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, actor Actor, input UpdateStatusInput) (DTO, error) {
	if !input.Status.IsValid() {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return DTO{}, err
	}

	switch actor.Role {
	case enums.UserRoleAdmin:
		// unrestricted
	case enums.UserRoleSeller:
		owns, err := s.repo.ContainsSellerItems(ctx, order.ID, actor.ID)
		if err != nil {
			return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order items")
		}
		if !owns {
			return DTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "order does not contain your products")
		}
	default:
		if order.BuyerID != actor.ID {
			return DTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")
		}
		if input.Status != enums.OrderStatusCancelled {
			return DTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "buyers may only cancel orders")
		}
		if order.Status != enums.OrderStatusPending {
			return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "only pending orders can be cancelled")
		}
	}

	updates := map[string]any{"status": input.Status}
	if input.Carrier != nil {
		updates["carrier"] = *input.Carrier
	}
	if input.TrackingNumber != nil {
		updates["tracking_number"] = *input.TrackingNumber
	}
	if input.EstimatedDelivery != nil {
		updates["estimated_delivery"] = *input.EstimatedDelivery
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateFields(ctx, order.ID, updates); err != nil {
			return err
		}
		return repo.AppendTrackingEvent(ctx, &models.OrderTrackingEvent{
			OrderID: order.ID,
			Status:  input.Status,
			Note:    input.Note,
		})
	})
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	switch input.Status {
	case enums.OrderStatusConfirmed, enums.OrderStatusShipped, enums.OrderStatusDelivered:
		if _, invErr := s.invoices.Generate(ctx, order.ID); invErr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "orders.invoice_generation_failed", invErr)
		}
	case enums.OrderStatusCancelled:
		if invErr := s.invoices.CancelByOrder(ctx, order.ID); invErr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "orders.invoice_cancel_failed", invErr)
		}
	}

	s.notifyBuyer(ctx, order.BuyerID, order.ID, input.Status)

	updated, err := s.loadOrder(ctx, order.ID)
	if err != nil {
		return DTO{}, err
	}
	return ToDTO(updated), nil
}

func (s *service) ListMine(ctx context.Context, buyerID uuid.UUID, cursor string, limit int) (PageDTO, error) {
	if buyerID == uuid.Nil {
		return PageDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	return s.list(ctx, ListScope{BuyerID: &buyerID}, cursor, limit)
}

func (s *service) ListSelling(ctx context.Context, sellerID uuid.UUID, cursor string, limit int) (PageDTO, error) {
	if sellerID == uuid.Nil {
		return PageDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	return s.list(ctx, ListScope{SellerID: &sellerID}, cursor, limit)
}

func (s *service) ListAll(ctx context.Context, status *enums.OrderStatus, cursor string, limit int) (PageDTO, error) {
	return s.list(ctx, ListScope{Status: status}, cursor, limit)
}

func (s *service) list(ctx context.Context, scope ListScope, cursor string, limit int) (PageDTO, error) {
	rows, next, err := s.repo.List(ctx, scope, cursor, limit)
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page := PageDTO{Orders: make([]DTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		page.Orders = append(page.Orders, ToDTO(&rows[i]))
	}
	return page, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) authorize(ctx context.Context, order *models.Order, actor Actor) error {
	if actor.Role == enums.UserRoleAdmin || order.BuyerID == actor.ID {
		return nil
	}
	if actor.Role == enums.UserRoleSeller {
		owns, err := s.repo.ContainsSellerItems(ctx, order.ID, actor.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order items")
		}
		if owns {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
}

func (s *service) notifyBuyer(ctx context.Context, buyerID, orderID uuid.UUID, status enums.OrderStatus) {
	if s.notif == nil {
		return
	}
	if err := s.notif.NotifyOrderUpdate(ctx, buyerID, orderID, status); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), "orders.notification_failed")
	}
}
