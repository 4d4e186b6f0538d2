package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/localmarkethq/localmarket-backend/api/responses"
	"github.com/localmarkethq/localmarket-backend/api/validators"
	"github.com/localmarkethq/localmarket-backend/internal/products"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
)

type createProductRequest struct {
	Name               string                `json:"name" validate:"required"`
	Description        string                `json:"description"`
	Category           string                `json:"category" validate:"required"`
	OriginalPriceCents int                   `json:"original_price_cents" validate:"required,min=1"`
	DiscountPercent    *int                  `json:"discount_percent,omitempty"`
	DiscountStartsAt   *time.Time            `json:"discount_starts_at,omitempty"`
	DiscountEndsAt     *time.Time            `json:"discount_ends_at,omitempty"`
	Images             []products.ImageInput `json:"images" validate:"required,min=1,dive"`
}

type updateProductRequest struct {
	Name               *string               `json:"name,omitempty"`
	Description        *string               `json:"description,omitempty"`
	Category           *string               `json:"category,omitempty"`
	OriginalPriceCents *int                  `json:"original_price_cents,omitempty"`
	DiscountPercent    *int                  `json:"discount_percent,omitempty"`
	DiscountStartsAt   *time.Time            `json:"discount_starts_at,omitempty"`
	DiscountEndsAt     *time.Time            `json:"discount_ends_at,omitempty"`
	ClearDiscount      bool                  `json:"clear_discount,omitempty"`
	Images             []products.ImageInput `json:"images,omitempty"`
}

// ProductCreate publishes a new listing for the authenticated seller.
func ProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, role, err := identity(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if role != enums.UserRoleSeller {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only sellers can create products"))
			return
		}

		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := enums.ParseProductCategory(req.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		created, err := svc.Create(r.Context(), sellerID, products.CreateInput{
			Name:               req.Name,
			Description:        req.Description,
			Category:           category,
			OriginalPriceCents: req.OriginalPriceCents,
			DiscountPercent:    req.DiscountPercent,
			DiscountStartsAt:   req.DiscountStartsAt,
			DiscountEndsAt:     req.DiscountEndsAt,
			Images:             req.Images,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ProductUpdate edits a listing. The service enforces owner-or-admin.
func ProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, role, err := identity(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.UpdateInput{
			Name:               req.Name,
			Description:        req.Description,
			OriginalPriceCents: req.OriginalPriceCents,
			DiscountPercent:    req.DiscountPercent,
			DiscountStartsAt:   req.DiscountStartsAt,
			DiscountEndsAt:     req.DiscountEndsAt,
			ClearDiscount:      req.ClearDiscount,
			Images:             req.Images,
		}
		if req.Category != nil {
			category, err := enums.ParseProductCategory(*req.Category)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			input.Category = &category
		}

		updated, err := svc.Update(r.Context(), productID, actorID, role, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func ProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, role, err := identity(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), productID, actorID, role); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ProductDetail is public; each fetch bumps the view counter.
func ProductDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductList is the public browse endpoint with category and text filters.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cursor, limit := pageParams(r)

		filter := products.ListFilter{Search: strings.TrimSpace(r.URL.Query().Get("search"))}
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category, err := enums.ParseProductCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			filter.Category = &category
		}

		page, err := svc.List(r.Context(), filter, cursor, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ProductListMine returns the authenticated seller's own listings.
func ProductListMine(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, _, err := identity(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, limit := pageParams(r)
		page, err := svc.ListMine(r.Context(), sellerID, cursor, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
