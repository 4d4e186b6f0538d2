package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/localmarkethq/localmarket-backend/pkg/enums"
)

// Report is a user-filed complaint against a product.
type Report struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	ReporterID uuid.UUID          `gorm:"column:reporter_id;type:uuid;not null;index"`
	Note       string             `gorm:"column:note;not null"`
	Status     enums.ReportStatus `gorm:"column:status;type:text;not null;default:'open'"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
