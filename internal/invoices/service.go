package invoices

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/pkg/db"
	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
	"github.com/localmarkethq/localmarket-backend/pkg/types"
)

// DTO is the public invoice shape.
type DTO struct {
	ID              uuid.UUID            `json:"id"`
	OrderID         uuid.UUID            `json:"order_id"`
	Number          string               `json:"number"`
	BuyerID         uuid.UUID            `json:"buyer_id"`
	SellerID        uuid.UUID            `json:"seller_id"`
	Status          enums.InvoiceStatus  `json:"status"`
	Lines           []models.InvoiceLine `json:"lines"`
	SubtotalCents   int                  `json:"subtotal_cents"`
	TaxCents        int                  `json:"tax_cents"`
	TotalCents      int                  `json:"total_cents"`
	ShippingAddress types.Address        `json:"shipping_address"`
	IssuedAt        time.Time            `json:"issued_at"`
}

// Download pairs the streaming path with its attachment filename.
type Download struct {
	Path     string
	Filename string
}

// Service manages invoice generation and retrieval. Generation is idempotent
// per order; the DB row and the PDF file are written as two separate steps
// with no transactional coupling, so a crash between them leaves a row whose
// PDF is re-rendered lazily on next access.
type Service interface {
	Generate(ctx context.Context, orderID uuid.UUID) (DTO, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID, actorID uuid.UUID, actorRole enums.UserRole) (DTO, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]DTO, error)
	PrepareDownload(ctx context.Context, invoiceID uuid.UUID, actorID uuid.UUID, actorRole enums.UserRole) (Download, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actorID uuid.UUID, actorRole enums.UserRole) error
	CancelByOrder(ctx context.Context, orderID uuid.UUID) error
}

type orderLoader interface {
	LoadForInvoice(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo     *Repository
	orders   orderLoader
	renderer *PDFRenderer
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the invoice service.
func NewService(repo *Repository, orders orderLoader, renderer *PDFRenderer, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice repo is required")
	}
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order loader is required")
	}
	if renderer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pdf renderer is required")
	}
	return &service{repo: repo, orders: orders, renderer: renderer, logg: logg, now: time.Now}, nil
}

// Generate creates the invoice for an order, or returns the existing one.
// The seller is taken from the first line item; multi-seller orders are not
// split.
func (s *service) Generate(ctx context.Context, orderID uuid.UUID) (DTO, error) {
	if orderID == uuid.Nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	existing, err := s.repo.FindByOrderID(ctx, orderID)
	if err == nil {
		return toDTO(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}

	order, err := s.orders.LoadForInvoice(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if len(order.Items) == 0 {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}

	issuedAt := s.now()
	lines := make([]models.InvoiceLine, 0, len(order.Items))
	subtotal := 0
	for _, item := range order.Items {
		lines = append(lines, models.InvoiceLine{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
		subtotal += item.TotalCents
	}

	invoice := &models.Invoice{
		OrderID:         order.ID,
		Number:          InvoiceNumber(order.ID, issuedAt),
		BuyerID:         order.BuyerID,
		SellerID:        order.Items[0].SellerID,
		Status:          enums.InvoiceStatusActive,
		Lines:           lines,
		SubtotalCents:   subtotal,
		TaxCents:        0,
		TotalCents:      subtotal,
		ShippingAddress: order.ShippingAddress,
		IssuedAt:        issuedAt,
	}
	invoice.PDFPath = s.renderer.Path(invoice.Number)

	if err := s.repo.Create(ctx, invoice); err != nil {
		if db.IsUniqueViolation(err, "") {
			// lost the race; the winner's row is authoritative
			winner, findErr := s.repo.FindByOrderID(ctx, orderID)
			if findErr != nil {
				return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load invoice after conflict")
			}
			return toDTO(winner), nil
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
	}

	if _, err := s.renderer.Render(invoice); err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, orderID.String()), "invoices.pdf_render_failed", err)
		}
		// the record stands; the PDF is re-rendered on download
	}
	return toDTO(invoice), nil
}

// GetByOrder returns the order's invoice, generating it lazily when missing.
func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID, actorID uuid.UUID, actorRole enums.UserRole) (DTO, error) {
	invoice, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			dto, genErr := s.Generate(ctx, orderID)
			if genErr != nil {
				return DTO{}, genErr
			}
			if authErr := authorize(dto.BuyerID, dto.SellerID, actorID, actorRole); authErr != nil {
				return DTO{}, authErr
			}
			return dto, nil
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	if err := authorize(invoice.BuyerID, invoice.SellerID, actorID, actorRole); err != nil {
		return DTO{}, err
	}
	return toDTO(invoice), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]DTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	out := make([]DTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

// PrepareDownload authorizes the actor and guarantees the PDF exists on disk,
// re-rendering it when the earlier write was lost.
func (s *service) PrepareDownload(ctx context.Context, invoiceID uuid.UUID, actorID uuid.UUID, actorRole enums.UserRole) (Download, error) {
	invoice, err := s.repo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Download{}, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return Download{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	if err := authorize(invoice.BuyerID, invoice.SellerID, actorID, actorRole); err != nil {
		return Download{}, err
	}
	if invoice.Status == enums.InvoiceStatusCancelled {
		return Download{}, pkgerrors.New(pkgerrors.CodeValidation, "invoice is cancelled")
	}

	if _, statErr := os.Stat(invoice.PDFPath); statErr != nil {
		if _, renderErr := s.renderer.Render(invoice); renderErr != nil {
			return Download{}, pkgerrors.Wrap(pkgerrors.CodeInternal, renderErr, "render invoice pdf")
		}
	}
	return Download{Path: invoice.PDFPath, Filename: invoice.Number + ".pdf"}, nil
}

// Cancel voids the order's invoice on behalf of an actor. Unlike CancelByOrder
// it requires the actor to be a party to the invoice and reports a missing
// invoice instead of silently succeeding.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, actorID uuid.UUID, actorRole enums.UserRole) error {
	invoice, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	if err := authorize(invoice.BuyerID, invoice.SellerID, actorID, actorRole); err != nil {
		return err
	}
	return s.CancelByOrder(ctx, orderID)
}

// CancelByOrder flips the invoice to cancelled and removes its PDF. The row is
// kept for audit. Missing invoice is a no-op.
func (s *service) CancelByOrder(ctx context.Context, orderID uuid.UUID) error {
	invoice, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	if invoice.Status == enums.InvoiceStatusCancelled {
		return nil
	}
	if err := s.repo.SetStatus(ctx, invoice.ID, enums.InvoiceStatusCancelled); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel invoice")
	}
	if err := s.renderer.Remove(invoice.PDFPath); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), "invoices.pdf_remove_failed")
	}
	return nil
}

func authorize(buyerID, sellerID, actorID uuid.UUID, actorRole enums.UserRole) error {
	if actorRole == enums.UserRoleAdmin {
		return nil
	}
	if actorID == buyerID || actorID == sellerID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "invoice belongs to another user")
}

func toDTO(invoice *models.Invoice) DTO {
	return DTO{
		ID:              invoice.ID,
		OrderID:         invoice.OrderID,
		Number:          invoice.Number,
		BuyerID:         invoice.BuyerID,
		SellerID:        invoice.SellerID,
		Status:          invoice.Status,
		Lines:           invoice.Lines,
		SubtotalCents:   invoice.SubtotalCents,
		TaxCents:        invoice.TaxCents,
		TotalCents:      invoice.TotalCents,
		ShippingAddress: invoice.ShippingAddress,
		IssuedAt:        invoice.IssuedAt,
	}
}
