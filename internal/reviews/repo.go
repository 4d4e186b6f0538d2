package reviews

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/pagination"
)

// Repository persists reviews and their reactions.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Preload("Reactions").
		First(&review, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Updates(fields).
		Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ExistsForAuthor(ctx context.Context, productID, authorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND author_id = ?", productID, authorID).
		Count(&count).
		Error
	return count > 0, err
}

// ListByProduct pages newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, cursor string, limit int) ([]models.Review, string, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Preload("Reactions").
		Where("product_id = ?", productID)
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Review
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

// RatingsForProduct returns every rating value for the product. The aggregate
// recompute re-reads all of them on each write.
func (r *Repository) RatingsForProduct(ctx context.Context, productID uuid.UUID) ([]int, error) {
	var ratings []int
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ?", productID).
		Pluck("rating", &ratings).
		Error
	return ratings, err
}

func (r *Repository) FindReaction(ctx context.Context, reviewID, userID uuid.UUID) (*models.ReviewReaction, error) {
	var reaction models.ReviewReaction
	err := r.db.WithContext(ctx).
		First(&reaction, "review_id = ? AND user_id = ?", reviewID, userID).
		Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *Repository) CreateReaction(ctx context.Context, reaction *models.ReviewReaction) error {
	if reaction.ID == uuid.Nil {
		reaction.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(reaction).Error
}

func (r *Repository) UpdateReactionKind(ctx context.Context, id uuid.UUID, kind string) error {
	return r.db.WithContext(ctx).
		Model(&models.ReviewReaction{}).
		Where("id = ?", id).
		Update("kind", kind).
		Error
}

func (r *Repository) DeleteReaction(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ReviewReaction{}, "id = ?", id).Error
}
