package inquiries

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
)

// DTO is the public inquiry shape.
type DTO struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	Subject   string              `json:"subject"`
	Message   string              `json:"message"`
	Status    enums.InquiryStatus `json:"status"`
	Response  *string             `json:"response,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// PageDTO is one page of the admin inquiry queue.
type PageDTO struct {
	Inquiries  []DTO  `json:"inquiries"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// CreateInput is the public contact-form payload.
type CreateInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// RespondInput moves an inquiry through the response workflow. A nil status
// leaves it unchanged; an empty response clears nothing.
type RespondInput struct {
	Response *string
	Status   *enums.InquiryStatus
}

// Service accepts public inquiries and drives the admin response workflow.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inquiry repo is required")
	}
	return &Service{repo: repo}, nil
}

// Create accepts a contact-form submission. No authentication required.
func (s *Service) Create(ctx context.Context, input CreateInput) (DTO, error) {
	name := strings.TrimSpace(input.Name)
	subject := strings.TrimSpace(input.Subject)
	message := strings.TrimSpace(input.Message)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if name == "" || subject == "" || message == "" {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "name, subject, and message are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}

	inquiry := &models.Inquiry{
		Name:    name,
		Email:   email,
		Subject: subject,
		Message: message,
		Status:  enums.InquiryStatusNew,
	}
	if err := s.repo.Create(ctx, inquiry); err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inquiry")
	}
	return toDTO(inquiry), nil
}

// Respond records an admin reply and/or a status transition.
func (s *Service) Respond(ctx context.Context, id uuid.UUID, input RespondInput) (DTO, error) {
	fields := map[string]any{}
	if input.Response != nil {
		response := strings.TrimSpace(*input.Response)
		if response == "" {
			return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "response cannot be empty")
		}
		fields["response"] = response
		// replying implicitly starts the workflow unless the caller says otherwise
		if input.Status == nil {
			fields["status"] = enums.InquiryStatusInProgress
		}
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid inquiry status")
		}
		fields["status"] = *input.Status
	}
	if len(fields) == 0 {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "inquiry not found")
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inquiry")
	}

	inquiry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inquiry")
	}
	return toDTO(inquiry), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (DTO, error) {
	inquiry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "inquiry not found")
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inquiry")
	}
	return toDTO(inquiry), nil
}

func (s *Service) List(ctx context.Context, status *enums.InquiryStatus, cursor string, limit int) (PageDTO, error) {
	rows, next, err := s.repo.List(ctx, status, cursor, limit)
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inquiries")
	}
	page := PageDTO{Inquiries: make([]DTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		page.Inquiries = append(page.Inquiries, toDTO(&rows[i]))
	}
	return page, nil
}

func toDTO(inquiry *models.Inquiry) DTO {
	return DTO{
		ID:        inquiry.ID,
		Name:      inquiry.Name,
		Email:     inquiry.Email,
		Subject:   inquiry.Subject,
		Message:   inquiry.Message,
		Status:    inquiry.Status,
		Response:  inquiry.Response,
		CreatedAt: inquiry.CreatedAt,
		UpdatedAt: inquiry.UpdatedAt,
	}
}
