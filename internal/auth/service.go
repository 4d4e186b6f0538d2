package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/internal/users"
	pkgauth "github.com/localmarkethq/localmarket-backend/pkg/auth"
	"github.com/localmarkethq/localmarket-backend/pkg/config"
	"github.com/localmarkethq/localmarket-backend/pkg/db"
	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
	"github.com/localmarkethq/localmarket-backend/pkg/security"
)

const minPasswordLength = 8

// Service handles registration and login.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (ResultDTO, error)
	Login(ctx context.Context, input LoginInput) (ResultDTO, error)
}

type service struct {
	repo        *users.Repository
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the auth service.
func NewService(repo *users.Repository, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users repo is required")
	}
	if jwtCfg.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jwt secret is required")
	}
	return &service{
		repo:        repo,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		logg:        logg,
		now:         time.Now,
	}, nil
}

// Register creates a buyer or seller account and signs the caller in.
func (s *service) Register(ctx context.Context, input RegisterInput) (ResultDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return ResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	if len(input.Password) < minPasswordLength {
		return ResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return ResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Role != enums.UserRoleBuyer && input.Role != enums.UserRoleSeller {
		return ResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "role must be buyer or seller")
	}
	if input.Role == enums.UserRoleSeller {
		if input.Seller == nil || strings.TrimSpace(input.Seller.BusinessName) == "" {
			return ResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "seller business name is required")
		}
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return ResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}
	if exists {
		return ResultDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return ResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Phone:        input.Phone,
		Role:         input.Role,
		IsActive:     true,
	}
	if input.Address != nil {
		addr := *input.Address
		addr.Normalize()
		user.Address = &addr
	}
	switch input.Role {
	case enums.UserRoleSeller:
		user.Seller = input.Seller
	case enums.UserRoleBuyer:
		user.PreferredTags = pq.StringArray(input.PreferredTags)
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return ResultDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return ResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.user_registered")
	}
	return s.issue(user)
}

// Login verifies the credentials and mints a fresh token. Inactive accounts
// are rejected the same way as bad credentials.
func (s *service) Login(ctx context.Context, input LoginInput) (ResultDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return ResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ResultDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return ResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return ResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok || !user.IsActive {
		return ResultDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID, s.now()); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "auth.last_login_update_failed")
	}
	return s.issue(user)
}

func (s *service) issue(user *models.User) (ResultDTO, error) {
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		return ResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	return ResultDTO{Token: token, Profile: users.ToProfileDTO(user)}, nil
}
