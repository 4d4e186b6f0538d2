package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	"github.com/localmarkethq/localmarket-backend/pkg/pagination"
)

// Repository encapsulates order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the order with its items and initial tracking event. IDs are
// assigned client-side so the rows can reference each other before the insert
// returns.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	for i := range order.TrackingHistory {
		if order.TrackingHistory[i].ID == uuid.Nil {
			order.TrackingHistory[i].ID = uuid.New()
		}
		order.TrackingHistory[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order with items and tracking history, oldest event first.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("TrackingHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LoadForInvoice loads the order with the items an invoice snapshot needs.
func (r *Repository) LoadForInvoice(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return r.FindByID(ctx, orderID)
}

// UpdateFields applies the given column updates to an order.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

// AppendTrackingEvent adds one history entry.
func (r *Repository) AppendTrackingEvent(ctx context.Context, event *models.OrderTrackingEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// ListScope selects whose orders a listing returns.
type ListScope struct {
	BuyerID  *uuid.UUID
	SellerID *uuid.UUID
	Status   *enums.OrderStatus
}

// List returns a cursor page of orders, newest first. A seller scope matches
// orders containing at least one of the seller's items.
func (r *Repository) List(ctx context.Context, scope ListScope, cursor string, limit int) ([]models.Order, string, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Preload("TrackingHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") })
	if scope.BuyerID != nil {
		query = query.Where("buyer_id = ?", *scope.BuyerID)
	}
	if scope.SellerID != nil {
		query = query.Where("id IN (?)", r.db.
			Model(&models.OrderItem{}).
			Select("order_id").
			Where("seller_id = ?", *scope.SellerID))
	}
	if scope.Status != nil {
		query = query.Where("status = ?", *scope.Status)
	}
	if decodedCursor != nil {
		query = query.Where("(orders.created_at < ?) OR (orders.created_at = ? AND orders.id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Order
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).
		Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// ContainsSellerItems reports whether any line of the order belongs to the
// seller.
func (r *Repository) ContainsSellerItems(ctx context.Context, orderID, sellerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ? AND seller_id = ?", orderID, sellerID).
		Count(&count).
		Error
	return count > 0, err
}
