package invoices

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InvoiceNumber derives a human-readable unique number from the issue time
// and the order identity: INV-<epoch millis>-<last 6 hex of order id>.
func InvoiceNumber(orderID uuid.UUID, issuedAt time.Time) string {
	hexID := strings.ReplaceAll(orderID.String(), "-", "")
	return fmt.Sprintf("INV-%d-%s", issuedAt.UnixMilli(), hexID[len(hexID)-6:])
}
