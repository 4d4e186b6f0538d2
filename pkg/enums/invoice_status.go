package enums

// InvoiceStatus marks whether an invoice is live or soft-cancelled.
type InvoiceStatus string

const (
	InvoiceStatusActive    InvoiceStatus = "active"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid reports whether the value is a known InvoiceStatus.
func (i InvoiceStatus) IsValid() bool {
	return i == InvoiceStatusActive || i == InvoiceStatusCancelled
}
