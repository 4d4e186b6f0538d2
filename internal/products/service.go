package products

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
)

// Service exposes listing management and discovery.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, input CreateInput) (ProductDTO, error)
	Update(ctx context.Context, productID uuid.UUID, actorID uuid.UUID, actorRole enums.UserRole, input UpdateInput) (ProductDTO, error)
	Delete(ctx context.Context, productID uuid.UUID, actorID uuid.UUID, actorRole enums.UserRole) error
	Get(ctx context.Context, productID uuid.UUID) (ProductDTO, error)
	List(ctx context.Context, filter ListFilter, cursor string, limit int) (PageDTO, error)
	ListMine(ctx context.Context, sellerID uuid.UUID, cursor string, limit int) (PageDTO, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the product service.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// Create validates and stores a new listing. At least one image is required.
func (s *service) Create(ctx context.Context, sellerID uuid.UUID, input CreateInput) (ProductDTO, error) {
	if sellerID == uuid.Nil {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if !input.Category.IsValid() {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
	}
	if input.OriginalPriceCents <= 0 {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if len(input.Images) == 0 {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
	}
	if err := validateDiscount(input.DiscountPercent, input.DiscountStartsAt, input.DiscountEndsAt); err != nil {
		return ProductDTO{}, err
	}

	product := &models.Product{
		SellerID:           sellerID,
		Name:               name,
		Description:        strings.TrimSpace(input.Description),
		Category:           input.Category,
		OriginalPriceCents: input.OriginalPriceCents,
		PriceCents:         EffectivePriceCents(input.OriginalPriceCents, input.DiscountPercent, input.DiscountStartsAt, input.DiscountEndsAt, s.now()),
		DiscountPercent:    input.DiscountPercent,
		DiscountStartsAt:   input.DiscountStartsAt,
		DiscountEndsAt:     input.DiscountEndsAt,
		Images:             buildImages(input.Images),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return ToProductDTO(product), nil
}

// Update applies edits and recomputes the effective price. Only the owning
// seller or an admin may write.
func (s *service) Update(ctx context.Context, productID uuid.UUID, actorID uuid.UUID, actorRole enums.UserRole, input UpdateInput) (ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return ProductDTO{}, err
	}
	if product.SellerID != actorID && actorRole != enums.UserRoleAdmin {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another seller")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
		}
		product.Category = *input.Category
	}
	if input.OriginalPriceCents != nil {
		if *input.OriginalPriceCents <= 0 {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.OriginalPriceCents = *input.OriginalPriceCents
	}
	if input.ClearDiscount {
		product.DiscountPercent = nil
		product.DiscountStartsAt = nil
		product.DiscountEndsAt = nil
	} else {
		if input.DiscountPercent != nil {
			product.DiscountPercent = input.DiscountPercent
		}
		if input.DiscountStartsAt != nil {
			product.DiscountStartsAt = input.DiscountStartsAt
		}
		if input.DiscountEndsAt != nil {
			product.DiscountEndsAt = input.DiscountEndsAt
		}
	}
	if err := validateDiscount(product.DiscountPercent, product.DiscountStartsAt, product.DiscountEndsAt); err != nil {
		return ProductDTO{}, err
	}
	product.PriceCents = EffectivePriceCents(product.OriginalPriceCents, product.DiscountPercent, product.DiscountStartsAt, product.DiscountEndsAt, s.now())

	if input.Images != nil {
		if len(input.Images) == 0 {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
		}
		if err := s.repo.ReplaceImages(ctx, product.ID, buildImages(input.Images)); err != nil {
			return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace images")
		}
	}

	product.Images = nil
	if err := s.repo.Save(ctx, product); err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	updated, err := s.loadProduct(ctx, product.ID)
	if err != nil {
		return ProductDTO{}, err
	}
	return ToProductDTO(updated), nil
}

// Delete removes a listing. Only the owning seller or an admin may delete.
func (s *service) Delete(ctx context.Context, productID uuid.UUID, actorID uuid.UUID, actorRole enums.UserRole) error {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product.SellerID != actorID && actorRole != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another seller")
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

// Get returns the listing detail and bumps its view counter. A failed counter
// write is logged but never fails the read.
func (s *service) Get(ctx context.Context, productID uuid.UUID) (ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return ProductDTO{}, err
	}
	if err := s.repo.IncrementViewCount(ctx, productID); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "product_id", productID.String()), "products.view_count_increment_failed")
		}
	} else {
		product.ViewCount++
	}
	return ToProductDTO(product), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, cursor string, limit int) (PageDTO, error) {
	rows, next, err := s.repo.List(ctx, filter, cursor, limit)
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return toPage(rows, next), nil
}

// ListMine returns the seller's own listings.
func (s *service) ListMine(ctx context.Context, sellerID uuid.UUID, cursor string, limit int) (PageDTO, error) {
	if sellerID == uuid.Nil {
		return PageDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	rows, next, err := s.repo.List(ctx, ListFilter{SellerID: &sellerID}, cursor, limit)
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller products")
	}
	return toPage(rows, next), nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func validateDiscount(percent *int, startsAt, endsAt *time.Time) error {
	if percent == nil {
		return nil
	}
	if *percent < 1 || *percent > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 1 and 100")
	}
	if startsAt != nil && endsAt != nil && endsAt.Before(*startsAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount window ends before it starts")
	}
	return nil
}

func buildImages(inputs []ImageInput) []models.ProductImage {
	images := make([]models.ProductImage, 0, len(inputs))
	for i, input := range inputs {
		images = append(images, models.ProductImage{
			URL:       strings.TrimSpace(input.URL),
			StorageID: strings.TrimSpace(input.StorageID),
			Position:  i,
		})
	}
	return images
}

func toPage(rows []models.Product, next string) PageDTO {
	page := PageDTO{Products: make([]ProductDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		page.Products = append(page.Products, ToProductDTO(&rows[i]))
	}
	return page
}
