package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	"github.com/localmarkethq/localmarket-backend/pkg/types"
)

// ProfileDTO is the public shape of an account. PasswordHash never leaves the
// repository layer.
type ProfileDTO struct {
	ID            uuid.UUID             `json:"id"`
	Email         string                `json:"email"`
	Name          string                `json:"name"`
	Phone         *string               `json:"phone,omitempty"`
	PhotoURL      *string               `json:"photo_url,omitempty"`
	Address       *types.Address        `json:"address,omitempty"`
	Role          enums.UserRole        `json:"role"`
	Seller        *models.SellerProfile `json:"seller,omitempty"`
	PreferredTags []string              `json:"preferred_tags,omitempty"`
	IsActive      bool                  `json:"is_active"`
	LastLoginAt   *time.Time            `json:"last_login_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// ToProfileDTO projects a user row into its public shape.
func ToProfileDTO(user *models.User) ProfileDTO {
	return ProfileDTO{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Phone:         user.Phone,
		PhotoURL:      user.PhotoURL,
		Address:       user.Address,
		Role:          user.Role,
		Seller:        user.Seller,
		PreferredTags: user.PreferredTags,
		IsActive:      user.IsActive,
		LastLoginAt:   user.LastLoginAt,
		CreatedAt:     user.CreatedAt,
	}
}

// UpdateProfileInput carries the editable account fields. Nil means "leave
// unchanged"; role and email are immutable through this path.
type UpdateProfileInput struct {
	Name          *string
	Phone         *string
	PhotoURL      *string
	Address       *types.Address
	Seller        *models.SellerProfile
	PreferredTags []string
}

// UsersPageDTO is one admin listing page.
type UsersPageDTO struct {
	Users      []ProfileDTO `json:"users"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CreatedAdminDTO returns the generated credentials exactly once.
type CreatedAdminDTO struct {
	Profile      ProfileDTO `json:"profile"`
	TempPassword string     `json:"temp_password"`
}
