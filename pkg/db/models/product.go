package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/localmarkethq/localmarket-backend/pkg/enums"
)

// Product is a seller listing. PriceCents is recomputed from
// OriginalPriceCents and the discount window whenever the record is written;
// an expired discount only clears on the next write.
type Product struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID           uuid.UUID             `gorm:"column:seller_id;type:uuid;not null;index"`
	Name               string                `gorm:"column:name;not null"`
	Description        string                `gorm:"column:description;not null"`
	Category           enums.ProductCategory `gorm:"column:category;type:text;not null"`
	OriginalPriceCents int                   `gorm:"column:original_price_cents;not null"`
	PriceCents         int                   `gorm:"column:price_cents;not null"`
	DiscountPercent    *int                  `gorm:"column:discount_percent"`
	DiscountStartsAt   *time.Time            `gorm:"column:discount_starts_at"`
	DiscountEndsAt     *time.Time            `gorm:"column:discount_ends_at"`
	RatingAverage      float64               `gorm:"column:rating_average;not null;default:0"`
	RatingCount        int                   `gorm:"column:rating_count;not null;default:0"`
	ViewCount          int64                 `gorm:"column:view_count;not null;default:0"`
	Images             []ProductImage        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductImage pairs a public URL with the storage identifier needed to delete it.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	URL       string    `gorm:"column:url;not null"`
	StorageID string    `gorm:"column:storage_id;not null"`
	Position  int       `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
