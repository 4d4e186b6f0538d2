package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/localmarkethq/localmarket-backend/pkg/enums"
)

// Inquiry is a public contact-form submission with an admin response workflow.
type Inquiry struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string              `gorm:"column:name;not null"`
	Email     string              `gorm:"column:email;not null"`
	Subject   string              `gorm:"column:subject;not null"`
	Message   string              `gorm:"column:message;not null"`
	Status    enums.InquiryStatus `gorm:"column:status;type:text;not null;default:'new'"`
	Response  *string             `gorm:"column:response"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
