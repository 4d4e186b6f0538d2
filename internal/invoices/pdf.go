package invoices

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
)

// PDFRenderer writes invoice documents under a configured directory.
type PDFRenderer struct {
	dir string
}

// NewPDFRenderer builds a renderer rooted at dir, creating it if missing.
func NewPDFRenderer(dir string) (*PDFRenderer, error) {
	if dir == "" {
		return nil, fmt.Errorf("invoice directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating invoice directory: %w", err)
	}
	return &PDFRenderer{dir: dir}, nil
}

// Path returns the target file path for an invoice number.
func (r *PDFRenderer) Path(number string) string {
	return filepath.Join(r.dir, number+".pdf")
}

// Render writes the invoice PDF and returns its path. An existing file for the
// same number is overwritten.
func (r *PDFRenderer) Render(invoice *models.Invoice) (string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(invoice.Number, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 12, "INVOICE")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice number: %s", invoice.Number))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Issued: %s", invoice.IssuedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Order: %s", invoice.OrderID))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 6, "Ship to")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range addressLines(invoice) {
		pdf.Cell(0, 5, line)
		pdf.Ln(5)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(90, 7, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Unit price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Total", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range invoice.Lines {
		pdf.CellFormat(90, 7, line.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", line.Qty), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, formatCents(line.UnitPriceCents), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, formatCents(line.TotalCents), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(145, 6, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, formatCents(invoice.SubtotalCents), "", 1, "R", false, 0, "")
	pdf.CellFormat(145, 6, "Tax", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, formatCents(invoice.TaxCents), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(145, 7, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, formatCents(invoice.TotalCents), "", 1, "R", false, 0, "")

	path := r.Path(invoice.Number)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("writing invoice pdf: %w", err)
	}
	return path, nil
}

// Remove deletes a rendered PDF. A missing file is not an error.
func (r *PDFRenderer) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func formatCents(cents int) string {
	return "$" + decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func addressLines(invoice *models.Invoice) []string {
	addr := invoice.ShippingAddress
	lines := make([]string, 0, 3)
	if addr.Line1 != "" {
		lines = append(lines, addr.Line1)
	}
	if addr.Line2 != nil && *addr.Line2 != "" {
		lines = append(lines, *addr.Line2)
	}
	cityLine := addr.City
	if addr.State != "" {
		cityLine += ", " + addr.State
	}
	if addr.PostalCode != "" {
		cityLine += " " + addr.PostalCode
	}
	if cityLine != "" {
		lines = append(lines, cityLine)
	}
	if addr.Country != "" {
		lines = append(lines, addr.Country)
	}
	return lines
}
