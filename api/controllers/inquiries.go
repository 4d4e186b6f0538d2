package controllers

import (
	"net/http"
	"strings"

	"github.com/localmarkethq/localmarket-backend/api/responses"
	"github.com/localmarkethq/localmarket-backend/api/validators"
	"github.com/localmarkethq/localmarket-backend/internal/inquiries"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
)

type createInquiryRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type respondInquiryRequest struct {
	Response *string `json:"response,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// InquiryCreate is the public contact form; no authentication required.
func InquiryCreate(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createInquiryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), inquiries.CreateInput{
			Name:    validators.SanitizeString(req.Name, 200),
			Email:   req.Email,
			Subject: validators.SanitizeString(req.Subject, 300),
			Message: validators.SanitizeString(req.Message, 5000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func AdminInquiryList(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cursor, limit := pageParams(r)

		var status *enums.InquiryStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseInquiryStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inquiry status"))
				return
			}
			status = &parsed
		}

		page, err := svc.List(r.Context(), status, cursor, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminInquiryDetail(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inquiryID, err := uuidParam(r, "inquiryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), inquiryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// AdminInquiryRespond records a staff reply and moves the workflow forward.
func AdminInquiryRespond(svc inquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inquiryID, err := uuidParam(r, "inquiryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req respondInquiryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inquiries.RespondInput{Response: req.Response}
		if req.Status != nil {
			status, err := enums.ParseInquiryStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inquiry status"))
				return
			}
			input.Status = &status
		}

		updated, err := svc.Respond(r.Context(), inquiryID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
