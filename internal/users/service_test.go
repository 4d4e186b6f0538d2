package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/pkg/config"
	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
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

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func seedUser(t *testing.T, repo *Repository, email, name string, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		Name:         name,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUpdateProfileFieldRules(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, testPasswordConfig())
	require.NoError(t, err)

	buyer := seedUser(t, repo, "buyer@example.com", "Pat", enums.UserRoleBuyer)

	newName := "Pat Updated"
	phone := "+1-555-0101"
	updated, err := svc.UpdateProfile(context.Background(), buyer.ID, UpdateProfileInput{
		Name:          &newName,
		Phone:         &phone,
		PreferredTags: []string{" Handmade ", "handmade", "GROCERIES"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Pat Updated", updated.Name)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)
	// tags are lowercased and deduped
	assert.Equal(t, []string{"handmade", "groceries"}, updated.PreferredTags)

	// buyers cannot carry a seller profile
	_, err = svc.UpdateProfile(context.Background(), buyer.ID, UpdateProfileInput{
		Seller: &models.SellerProfile{BusinessName: "Nope"},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	empty := "   "
	_, err = svc.UpdateProfile(context.Background(), buyer.ID, UpdateProfileInput{Name: &empty})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateProfileSellerOnlyFields(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, testPasswordConfig())
	require.NoError(t, err)

	seller := seedUser(t, repo, "seller@example.com", "Sam", enums.UserRoleSeller)

	updated, err := svc.UpdateProfile(context.Background(), seller.ID, UpdateProfileInput{
		Seller: &models.SellerProfile{BusinessName: "Sam's Goods", BusinessCategory: "groceries"},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Seller)
	assert.Equal(t, "Sam's Goods", updated.Seller.BusinessName)

	// preferred tags are a buyer concept
	_, err = svc.UpdateProfile(context.Background(), seller.ID, UpdateProfileInput{
		PreferredTags: []string{"handmade"},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestSetUserActiveAndDelete(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, testPasswordConfig())
	require.NoError(t, err)

	user := seedUser(t, repo, "target@example.com", "Target", enums.UserRoleBuyer)

	require.NoError(t, svc.SetUserActive(context.Background(), user.ID, false))
	profile, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, profile.IsActive)

	require.NoError(t, svc.DeleteUser(context.Background(), user.ID))
	_, err = svc.GetProfile(context.Background(), user.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = svc.SetUserActive(context.Background(), uuid.New(), true)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListUsersFilters(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, testPasswordConfig())
	require.NoError(t, err)

	seedUser(t, repo, "a@example.com", "Avery Buyer", enums.UserRoleBuyer)
	seedUser(t, repo, "b@example.com", "Blake Seller", enums.UserRoleSeller)
	seedUser(t, repo, "c@example.com", "Casey Seller", enums.UserRoleSeller)

	sellers := enums.UserRoleSeller
	page, err := svc.ListUsers(context.Background(), ListFilter{Role: &sellers}, "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Users, 2)

	page, err = svc.ListUsers(context.Background(), ListFilter{Search: "casey"}, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "Casey Seller", page.Users[0].Name)
}

func TestCreateAdmin(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, testPasswordConfig())
	require.NoError(t, err)

	created, err := svc.CreateAdmin(context.Background(), "Admin@Example.com", "Ada Admin")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", created.Profile.Email)
	assert.Equal(t, enums.UserRoleAdmin, created.Profile.Role)
	assert.NotEmpty(t, created.TempPassword)

	_, err = svc.CreateAdmin(context.Background(), "admin@example.com", "Second Ada")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}
