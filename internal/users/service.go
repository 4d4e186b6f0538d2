package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/pkg/config"
	"github.com/localmarkethq/localmarket-backend/pkg/db"
	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/security"
)

const tempPasswordLength = 16

// Service exposes account management beyond authentication.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (ProfileDTO, error)
	ListUsers(ctx context.Context, filter ListFilter, cursor string, limit int) (UsersPageDTO, error)
	SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	CreateAdmin(ctx context.Context, email, name string) (CreatedAdminDTO, error)
}

type service struct {
	repo        *Repository
	passwordCfg config.PasswordConfig
}

// NewService builds the account service.
func NewService(repo *Repository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users repo is required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (ProfileDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return ProfileDTO{}, err
	}
	return ToProfileDTO(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (ProfileDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return ProfileDTO{}, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return ProfileDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.PhotoURL != nil {
		updates["photo_url"] = *input.PhotoURL
	}
	if input.Address != nil {
		addr := *input.Address
		addr.Normalize()
		updates["address"] = &addr
	}
	if input.Seller != nil {
		if user.Role != enums.UserRoleSeller {
			return ProfileDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "seller profile only applies to seller accounts")
		}
		updates["seller_profile"] = input.Seller
	}
	if input.PreferredTags != nil {
		if user.Role != enums.UserRoleBuyer {
			return ProfileDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "preferred tags only apply to buyer accounts")
		}
		updates["preferred_tags"] = pq.StringArray(normalizeTags(input.PreferredTags))
	}

	if err := s.repo.UpdateProfile(ctx, userID, updates); err != nil {
		return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	updated, err := s.loadUser(ctx, userID)
	if err != nil {
		return ProfileDTO{}, err
	}
	return ToProfileDTO(updated), nil
}

func (s *service) ListUsers(ctx context.Context, filter ListFilter, cursor string, limit int) (UsersPageDTO, error) {
	rows, next, err := s.repo.List(ctx, filter, cursor, limit)
	if err != nil {
		return UsersPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	page := UsersPageDTO{Users: make([]ProfileDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		page.Users = append(page.Users, ToProfileDTO(&rows[i]))
	}
	return page, nil
}

func (s *service) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user status")
	}
	return nil
}

func (s *service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

// CreateAdmin provisions an admin account with a generated temporary password.
// The cleartext password is returned once and never stored.
func (s *service) CreateAdmin(ctx context.Context, email, name string) (CreatedAdminDTO, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return CreatedAdminDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "email and name are required")
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return CreatedAdminDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}
	if exists {
		return CreatedAdminDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return CreatedAdminDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return CreatedAdminDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         enums.UserRoleAdmin,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return CreatedAdminDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return CreatedAdminDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin")
	}

	return CreatedAdminDTO{Profile: ToProfileDTO(user), TempPassword: tempPassword}, nil
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
