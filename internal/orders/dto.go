package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	"github.com/localmarkethq/localmarket-backend/pkg/types"
)

// ItemInput is one requested line in a new order.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1"`
}

// CreateInput carries the checkout payload.
type CreateInput struct {
	Items           []ItemInput
	ShippingAddress types.Address
	PaymentMethod   enums.PaymentMethod
}

// UpdateStatusInput carries a status transition request. Carrier, tracking
// number and ETA are optional and only written when present.
type UpdateStatusInput struct {
	Status            enums.OrderStatus
	Note              *string
	Carrier           *string
	TrackingNumber    *string
	EstimatedDelivery *time.Time
}

// ItemDTO is the purchase-time snapshot of one product.
type ItemDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	SellerID       uuid.UUID `json:"seller_id"`
	Name           string    `json:"name"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Qty            int       `json:"qty"`
	TotalCents     int       `json:"total_cents"`
}

// TrackingEventDTO is one entry of the status history.
type TrackingEventDTO struct {
	Status    enums.OrderStatus `json:"status"`
	Note      *string           `json:"note,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// DTO is the public order shape.
type DTO struct {
	ID                uuid.UUID           `json:"id"`
	BuyerID           uuid.UUID           `json:"buyer_id"`
	Status            enums.OrderStatus   `json:"status"`
	TotalCents        int                 `json:"total_cents"`
	ShippingAddress   types.Address       `json:"shipping_address"`
	PaymentMethod     enums.PaymentMethod `json:"payment_method"`
	Carrier           *string             `json:"carrier,omitempty"`
	TrackingNumber    *string             `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time          `json:"estimated_delivery,omitempty"`
	Items             []ItemDTO           `json:"items"`
	TrackingHistory   []TrackingEventDTO  `json:"tracking_history"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// CreateResult reports both outcomes of order creation: the order itself and
// whether the invoice side effect succeeded. InvoiceErr is informational; the
// order is committed either way.
type CreateResult struct {
	Order      DTO
	InvoiceErr error
}

// PageDTO is one order listing page.
type PageDTO struct {
	Orders     []DTO  `json:"orders"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// ToDTO projects an order row into its public shape.
func ToDTO(order *models.Order) DTO {
	items := make([]ItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			SellerID:       item.SellerID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			TotalCents:     item.TotalCents,
		})
	}
	history := make([]TrackingEventDTO, 0, len(order.TrackingHistory))
	for _, event := range order.TrackingHistory {
		history = append(history, TrackingEventDTO{
			Status:    event.Status,
			Note:      event.Note,
			CreatedAt: event.CreatedAt,
		})
	}
	return DTO{
		ID:                order.ID,
		BuyerID:           order.BuyerID,
		Status:            order.Status,
		TotalCents:        order.TotalCents,
		ShippingAddress:   order.ShippingAddress,
		PaymentMethod:     order.PaymentMethod,
		Carrier:           order.Carrier,
		TrackingNumber:    order.TrackingNumber,
		EstimatedDelivery: order.EstimatedDelivery,
		Items:             items,
		TrackingHistory:   history,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}
