package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/localmarkethq/localmarket-backend/pkg/enums"
)

// Review is one author's rating of a product. The unique index enforces one
// review per (product, author) pair.
type Review struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID        `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_review_product_author"`
	AuthorID  uuid.UUID        `gorm:"column:author_id;type:uuid;not null;uniqueIndex:idx_review_product_author"`
	Rating    int              `gorm:"column:rating;not null"`
	Comment   *string          `gorm:"column:comment"`
	Reactions []ReviewReaction `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ReviewReaction is a single user's like or dislike on a review. The unique
// index guarantees at most one reaction per (review, user).
type ReviewReaction struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReviewID  uuid.UUID            `gorm:"column:review_id;type:uuid;not null;uniqueIndex:idx_reaction_review_user"`
	UserID    uuid.UUID            `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_reaction_review_user"`
	Kind      enums.ReviewReaction `gorm:"column:kind;type:text;not null"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}
