package auth

import (
	"github.com/localmarkethq/localmarket-backend/internal/users"
	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	"github.com/localmarkethq/localmarket-backend/pkg/types"
)

// RegisterInput carries the public sign-up payload. Role selects which of the
// optional payloads applies; admin accounts are never created through this
// path.
type RegisterInput struct {
	Email         string
	Password      string
	Name          string
	Phone         *string
	Address       *types.Address
	Role          enums.UserRole
	Seller        *models.SellerProfile
	PreferredTags []string
}

// LoginInput carries the credential pair.
type LoginInput struct {
	Email    string
	Password string
}

// ResultDTO pairs the minted access token with the account profile.
type ResultDTO struct {
	Token   string           `json:"token"`
	Profile users.ProfileDTO `json:"profile"`
}
