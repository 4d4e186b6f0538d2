package controllers

import (
	"net/http"

	"github.com/localmarkethq/localmarket-backend/api/responses"
	"github.com/localmarkethq/localmarket-backend/api/validators"
	"github.com/localmarkethq/localmarket-backend/internal/users"
	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
	"github.com/localmarkethq/localmarket-backend/pkg/types"
)

type updateProfileRequest struct {
	Name          *string               `json:"name,omitempty"`
	Phone         *string               `json:"phone,omitempty"`
	PhotoURL      *string               `json:"photo_url,omitempty"`
	Address       *types.Address        `json:"address,omitempty"`
	Seller        *models.SellerProfile `json:"seller,omitempty"`
	PreferredTags []string              `json:"preferred_tags,omitempty"`
}

// AccountProfile returns the caller's own profile.
func AccountProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := identity(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.GetProfile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// AccountUpdate edits the caller's own profile. Role and email stay fixed.
func AccountUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := identity(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateProfileRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), userID, users.UpdateProfileInput{
			Name:          req.Name,
			Phone:         req.Phone,
			PhotoURL:      req.PhotoURL,
			Address:       req.Address,
			Seller:        req.Seller,
			PreferredTags: req.PreferredTags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// AccountDelete removes the caller's own account.
func AccountDelete(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := identity(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteUser(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// UserProfile exposes another user's public profile, used by chat and
// product detail views.
func UserProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuidParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.GetProfile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// trim account details a stranger has no business seeing
		profile.Address = nil
		profile.PreferredTags = nil
		profile.LastLoginAt = nil
		responses.WriteSuccess(w, profile)
	}
}
