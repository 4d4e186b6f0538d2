package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/pkg/db"
	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
)

const (
	minRating = 1
	maxRating = 5
)

// productStore is the slice of the product repository reviews need: existence
// checks and the denormalized rating aggregate.
type productStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateRating(ctx context.Context, id uuid.UUID, average float64, count int) error
}

// DTO is the public review shape.
type DTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageDTO is one page of reviews for a product.
type PageDTO struct {
	Reviews    []DTO  `json:"reviews"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// CreateInput carries a new review.
type CreateInput struct {
	ProductID uuid.UUID
	Rating    int
	Comment   *string
}

// UpdateInput mutates an existing review. Nil fields stay unchanged.
type UpdateInput struct {
	Rating  *int
	Comment *string
}

// Service owns review writes, reaction toggles, and the product rating
// aggregate they maintain.
type Service struct {
	repo     *Repository
	products productStore
	logg     *logger.Logger
}

func NewService(repo *Repository, products productStore, logg *logger.Logger) (*Service, error) {
	if repo == nil || products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review service dependencies are required")
	}
	return &Service{repo: repo, products: products, logg: logg}, nil
}

// Create stores one review per (product, author). The unique index backs the
// application-level pre-check.
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, input CreateInput) (DTO, error) {
	if authorID == uuid.Nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateRating(input.Rating); err != nil {
		return DTO{}, err
	}
	if _, err := s.products.FindByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	exists, err := s.repo.ExistsForAuthor(ctx, input.ProductID, authorID)
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
	}
	if exists {
		return DTO{}, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
	}

	review := &models.Review{
		ProductID: input.ProductID,
		AuthorID:  authorID,
		Rating:    input.Rating,
		Comment:   normalizeComment(input.Comment),
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if db.IsUniqueViolation(err, "idx_review_product_author") {
			return DTO{}, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}

	s.recomputeRating(ctx, input.ProductID)
	return toDTO(review), nil
}

// Update lets the author or an admin revise a review.
func (s *Service) Update(ctx context.Context, reviewID, actorID uuid.UUID, role enums.UserRole, input UpdateInput) (DTO, error) {
	review, err := s.loadForWrite(ctx, reviewID, actorID, role)
	if err != nil {
		return DTO{}, err
	}

	fields := map[string]any{}
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return DTO{}, err
		}
		fields["rating"] = *input.Rating
	}
	if input.Comment != nil {
		fields["comment"] = normalizeComment(input.Comment)
	}
	if len(fields) == 0 {
		return toDTO(review), nil
	}

	if err := s.repo.UpdateFields(ctx, review.ID, fields); err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
	}
	s.recomputeRating(ctx, review.ProductID)

	updated, err := s.repo.FindByID(ctx, review.ID)
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload review")
	}
	return toDTO(updated), nil
}

// Delete removes the review and refreshes the product aggregate.
func (s *Service) Delete(ctx context.Context, reviewID, actorID uuid.UUID, role enums.UserRole) error {
	review, err := s.loadForWrite(ctx, reviewID, actorID, role)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, review.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}
	s.recomputeRating(ctx, review.ProductID)
	return nil
}

func (s *Service) ListByProduct(ctx context.Context, productID uuid.UUID, cursor string, limit int) (PageDTO, error) {
	rows, next, err := s.repo.ListByProduct(ctx, productID, cursor, limit)
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	page := PageDTO{Reviews: make([]DTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		page.Reviews = append(page.Reviews, toDTO(&rows[i]))
	}
	return page, nil
}

// React toggles a like or dislike. The two kinds are mutually exclusive per
// user: reacting with the other kind switches, repeating the same kind clears.
func (s *Service) React(ctx context.Context, reviewID, userID uuid.UUID, kind enums.ReviewReaction) (DTO, error) {
	if userID == uuid.Nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !kind.IsValid() {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "reaction must be like or dislike")
	}
	if _, err := s.repo.FindByID(ctx, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}

	existing, err := s.repo.FindReaction(ctx, reviewID, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		reaction := &models.ReviewReaction{ReviewID: reviewID, UserID: userID, Kind: kind}
		if err := s.repo.CreateReaction(ctx, reaction); err != nil {
			return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reaction")
		}
	case err != nil:
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reaction")
	case existing.Kind == kind:
		if err := s.repo.DeleteReaction(ctx, existing.ID); err != nil {
			return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear reaction")
		}
	default:
		if err := s.repo.UpdateReactionKind(ctx, existing.ID, string(kind)); err != nil {
			return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "switch reaction")
		}
	}

	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload review")
	}
	return toDTO(review), nil
}

func (s *Service) loadForWrite(ctx context.Context, reviewID, actorID uuid.UUID, role enums.UserRole) (*models.Review, error) {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	if review.AuthorID != actorID && role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the author may modify this review")
	}
	return review, nil
}

// recomputeRating re-reads every rating for the product and stores the
// one-decimal average. The aggregate is best-effort: failures are logged and
// the review write stands.
func (s *Service) recomputeRating(ctx context.Context, productID uuid.UUID) {
	ratings, err := s.repo.RatingsForProduct(ctx, productID)
	if err != nil {
		s.warnRecompute(ctx, productID, err)
		return
	}

	average := 0.0
	if len(ratings) > 0 {
		sum := int64(0)
		for _, rating := range ratings {
			sum += int64(rating)
		}
		average = decimal.NewFromInt(sum).
			Div(decimal.NewFromInt(int64(len(ratings)))).
			Round(1).
			InexactFloat64()
	}
	if err := s.products.UpdateRating(ctx, productID, average, len(ratings)); err != nil {
		s.warnRecompute(ctx, productID, err)
	}
}

func (s *Service) warnRecompute(ctx context.Context, productID uuid.UUID, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "product_id", productID.String())
	s.logg.Error(ctx, "reviews.rating_recompute_failed", err)
}

func validateRating(rating int) error {
	if rating < minRating || rating > maxRating {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}

func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toDTO(review *models.Review) DTO {
	likes, dislikes := 0, 0
	for _, reaction := range review.Reactions {
		if reaction.Kind == enums.ReviewReactionLike {
			likes++
		} else {
			dislikes++
		}
	}
	return DTO{
		ID:        review.ID,
		ProductID: review.ProductID,
		AuthorID:  review.AuthorID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		Likes:     likes,
		Dislikes:  dislikes,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}
