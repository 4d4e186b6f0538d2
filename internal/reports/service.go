package reports

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
)

// productChecker verifies the reported product exists.
type productChecker interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// DTO is the public report shape.
type DTO struct {
	ID         uuid.UUID          `json:"id"`
	ProductID  uuid.UUID          `json:"product_id"`
	ReporterID uuid.UUID          `json:"reporter_id"`
	Note       string             `json:"note"`
	Status     enums.ReportStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// PageDTO is one page of the admin report queue.
type PageDTO struct {
	Reports    []DTO  `json:"reports"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Service files reports and drives the admin triage workflow.
type Service struct {
	repo     *Repository
	products productChecker
}

func NewService(repo *Repository, products productChecker) (*Service, error) {
	if repo == nil || products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report service dependencies are required")
	}
	return &Service{repo: repo, products: products}, nil
}

// Create files a report against an existing product.
func (s *Service) Create(ctx context.Context, reporterID, productID uuid.UUID, note string) (DTO, error) {
	if reporterID == uuid.Nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "report note is required")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	report := &models.Report{
		ProductID:  productID,
		ReporterID: reporterID,
		Note:       note,
		Status:     enums.ReportStatusOpen,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create report")
	}
	return toDTO(report), nil
}

// UpdateStatus moves a report through the triage states.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReportStatus) (DTO, error) {
	if !status.IsValid() {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid report status")
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update report")
	}
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload report")
	}
	return toDTO(report), nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, cursor string, limit int) (PageDTO, error) {
	rows, next, err := s.repo.List(ctx, filter, cursor, limit)
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reports")
	}
	page := PageDTO{Reports: make([]DTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		page.Reports = append(page.Reports, toDTO(&rows[i]))
	}
	return page, nil
}

func toDTO(report *models.Report) DTO {
	return DTO{
		ID:         report.ID,
		ProductID:  report.ProductID,
		ReporterID: report.ReporterID,
		Note:       report.Note,
		Status:     report.Status,
		CreatedAt:  report.CreatedAt,
		UpdatedAt:  report.UpdatedAt,
	}
}
