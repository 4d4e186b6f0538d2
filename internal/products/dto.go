package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
)

// ProductDTO is the public listing shape.
type ProductDTO struct {
	ID                 uuid.UUID             `json:"id"`
	SellerID           uuid.UUID             `json:"seller_id"`
	Name               string                `json:"name"`
	Description        string                `json:"description"`
	Category           enums.ProductCategory `json:"category"`
	OriginalPriceCents int                   `json:"original_price_cents"`
	PriceCents         int                   `json:"price_cents"`
	DiscountPercent    *int                  `json:"discount_percent,omitempty"`
	DiscountStartsAt   *time.Time            `json:"discount_starts_at,omitempty"`
	DiscountEndsAt     *time.Time            `json:"discount_ends_at,omitempty"`
	RatingAverage      float64               `json:"rating_average"`
	RatingCount        int                   `json:"rating_count"`
	ViewCount          int64                 `json:"view_count"`
	Images             []ImageDTO            `json:"images"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// ImageDTO is one product image.
type ImageDTO struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	StorageID string    `json:"storage_id"`
	Position  int       `json:"position"`
}

// ToProductDTO projects a product row into its public shape.
func ToProductDTO(product *models.Product) ProductDTO {
	images := make([]ImageDTO, 0, len(product.Images))
	for _, img := range product.Images {
		images = append(images, ImageDTO{
			ID:        img.ID,
			URL:       img.URL,
			StorageID: img.StorageID,
			Position:  img.Position,
		})
	}
	return ProductDTO{
		ID:                 product.ID,
		SellerID:           product.SellerID,
		Name:               product.Name,
		Description:        product.Description,
		Category:           product.Category,
		OriginalPriceCents: product.OriginalPriceCents,
		PriceCents:         product.PriceCents,
		DiscountPercent:    product.DiscountPercent,
		DiscountStartsAt:   product.DiscountStartsAt,
		DiscountEndsAt:     product.DiscountEndsAt,
		RatingAverage:      product.RatingAverage,
		RatingCount:        product.RatingCount,
		ViewCount:          product.ViewCount,
		Images:             images,
		CreatedAt:          product.CreatedAt,
		UpdatedAt:          product.UpdatedAt,
	}
}

// ImageInput is one uploaded image reference.
type ImageInput struct {
	URL       string `json:"url" validate:"required,url"`
	StorageID string `json:"storage_id" validate:"required"`
}

// CreateInput carries the fields a seller submits for a new listing.
type CreateInput struct {
	Name               string
	Description        string
	Category           enums.ProductCategory
	OriginalPriceCents int
	DiscountPercent    *int
	DiscountStartsAt   *time.Time
	DiscountEndsAt     *time.Time
	Images             []ImageInput
}

// UpdateInput carries editable listing fields. Nil means "leave unchanged";
// Images non-nil replaces the whole image set.
type UpdateInput struct {
	Name               *string
	Description        *string
	Category           *enums.ProductCategory
	OriginalPriceCents *int
	DiscountPercent    *int
	DiscountStartsAt   *time.Time
	DiscountEndsAt     *time.Time
	ClearDiscount      bool
	Images             []ImageInput
}

// PageDTO is one product listing page.
type PageDTO struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
