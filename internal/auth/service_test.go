package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/internal/users"
	pkgauth "github.com/localmarkethq/localmarket-backend/pkg/auth"
	"github.com/localmarkethq/localmarket-backend/pkg/config"
	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT,
  photo_url TEXT,
  address TEXT,
  role TEXT NOT NULL DEFAULT 'buyer',
  seller_profile TEXT,
  preferred_tags TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func testConfigs() (config.JWTConfig, config.PasswordConfig) {
	jwtCfg := config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "localmarket-test",
		ExpirationMinutes: 30,
	}
	// low-cost parameters keep the hash fast in tests
	passwordCfg := config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
	return jwtCfg, passwordCfg
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	jwtCfg, passwordCfg := testConfigs()
	svc, err := NewService(users.NewRepository(db), jwtCfg, passwordCfg, nil)
	require.NoError(t, err)
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newTestService(t, db)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Buyer@Example.com",
		Password: "hunter2hunter2",
		Name:     "Pat Buyer",
		Role:     enums.UserRoleBuyer,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "buyer@example.com", result.Profile.Email)
	assert.Equal(t, enums.UserRoleBuyer, result.Profile.Role)

	jwtCfg, _ := testConfigs()
	claims, err := pkgauth.ParseAccessToken(jwtCfg, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Profile.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleBuyer, claims.Role)

	login, err := svc.Login(context.Background(), LoginInput{Email: "buyer@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, result.Profile.ID, login.Profile.ID)

	_, err = svc.Login(context.Background(), LoginInput{Email: "buyer@example.com", Password: "wrong-password"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newTestService(t, db)

	input := RegisterInput{
		Email:    "dup@example.com",
		Password: "hunter2hunter2",
		Name:     "First",
		Role:     enums.UserRoleBuyer,
	}
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	input.Name = "Second"
	_, err = svc.Register(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestRegisterSellerRequiresBusinessName(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "seller@example.com",
		Password: "hunter2hunter2",
		Name:     "Sam Seller",
		Role:     enums.UserRoleSeller,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "seller@example.com",
		Password: "hunter2hunter2",
		Name:     "Sam Seller",
		Role:     enums.UserRoleSeller,
		Seller:   &models.SellerProfile{BusinessName: "Sam's Goods", BusinessCategory: "groceries"},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Profile.Seller)
	assert.Equal(t, "Sam's Goods", result.Profile.Seller.BusinessName)
}

func TestLoginInactiveAccountRejected(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newTestService(t, db)
	repo := users.NewRepository(db)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "gone@example.com",
		Password: "hunter2hunter2",
		Name:     "Ghost",
		Role:     enums.UserRoleBuyer,
	})
	require.NoError(t, err)
	require.NoError(t, repo.SetActive(context.Background(), result.Profile.ID, false))

	_, err = svc.Login(context.Background(), LoginInput{Email: "gone@example.com", Password: "hunter2hunter2"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}
