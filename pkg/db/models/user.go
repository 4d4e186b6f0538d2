package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	"github.com/localmarkethq/localmarket-backend/pkg/types"
)

// User is the canonical identity record. The role column selects which of the
// optional role payloads applies; the others stay nil.
type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash  string         `gorm:"column:password_hash;not null"`
	Name          string         `gorm:"column:name;not null"`
	Phone         *string        `gorm:"column:phone"`
	PhotoURL      *string        `gorm:"column:photo_url"`
	Address       *types.Address `gorm:"column:address;type:jsonb;serializer:json"`
	Role          enums.UserRole `gorm:"column:role;type:text;not null;default:'buyer'"`
	Seller        *SellerProfile `gorm:"column:seller_profile;type:jsonb;serializer:json"`
	PreferredTags pq.StringArray `gorm:"column:preferred_tags;type:text[];not null;default:ARRAY[]::text[]"`
	IsActive      bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt   *time.Time     `gorm:"column:last_login_at"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// SellerProfile is the seller variant of the role payload.
type SellerProfile struct {
	BusinessName     string `json:"business_name"`
	BusinessCategory string `json:"business_category"`
	Bio              string `json:"bio,omitempty"`
}

// WishlistItem links a user to a saved product.
type WishlistItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_wishlist_user_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_wishlist_user_product"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
