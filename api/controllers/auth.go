package controllers

import (
	"net/http"

	"github.com/localmarkethq/localmarket-backend/api/responses"
	"github.com/localmarkethq/localmarket-backend/api/validators"
	"github.com/localmarkethq/localmarket-backend/internal/auth"
	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
	"github.com/localmarkethq/localmarket-backend/pkg/types"
)

type registerRequest struct {
	Email         string                `json:"email" validate:"required,email"`
	Password      string                `json:"password" validate:"required,min=8"`
	Name          string                `json:"name" validate:"required"`
	Role          string                `json:"role" validate:"required"`
	Phone         *string               `json:"phone,omitempty"`
	Address       *types.Address        `json:"address,omitempty"`
	Seller        *models.SellerProfile `json:"seller,omitempty"`
	PreferredTags []string              `json:"preferred_tags,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthRegister creates a buyer or seller account and returns a signed token.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		result, err := svc.Register(r.Context(), auth.RegisterInput{
			Email:         req.Email,
			Password:      req.Password,
			Name:          req.Name,
			Phone:         req.Phone,
			Address:       req.Address,
			Role:          role,
			Seller:        req.Seller,
			PreferredTags: req.PreferredTags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AuthLogin exchanges credentials for a signed token.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), auth.LoginInput{Email: req.Email, Password: req.Password})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
