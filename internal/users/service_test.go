package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/users"
)

type MockUserDB struct {
	mock.Mock
}

func (m *MockUserDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserDB) UpsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserDB) UpdateUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserDB) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

type MockRoleCache struct {
	mock.Mock
}

func (m *MockRoleCache) Invalidate(ctx context.Context, email string) {
	m.Called(ctx, email)
}

type MockInventory struct {
	mock.Mock
}

func (m *MockInventory) UnadvertiseVendor(ctx context.Context, vendorEmail string) error {
	args := m.Called(ctx, vendorEmail)
	return args.Error(0)
}

func (m *MockInventory) WithdrawVendorInventory(ctx context.Context, vendorEmail string) error {
	args := m.Called(ctx, vendorEmail)
	return args.Error(0)
}

func newService(db *MockUserDB, roles *MockRoleCache, inv *MockInventory) *users.UserService {
	return users.NewUserService(db, roles, inv, logger.NewLogger())
}

func storedUser(id, email, role string, fraud bool) *models.User {
	return &models.User{
		ID:          id,
		Email:       email,
		DisplayName: "Stored Name",
		Role:        role,
		IsFraud:     fraud,
		CreatedAt:   time.Now().Add(-24 * time.Hour),
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestRegisterLoginStartsAsPlainUser(t *testing.T) {
	db := new(MockUserDB)
	svc := newService(db, new(MockRoleCache), new(MockInventory))

	db.On("UpsertUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "new@example.com" && u.Role == "user" && u.ID != ""
	})).Return(nil)

	err := svc.RegisterLogin(context.Background(), "new@example.com", "New User", "https://img/new.png")
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestPatchRefusesRoleChangeForFraudUser(t *testing.T) {
	db := new(MockUserDB)
	roles := new(MockRoleCache)
	svc := newService(db, roles, new(MockInventory))

	db.On("GetUserByID", mock.Anything, "u-1").
		Return(storedUser("u-1", "flagged@example.com", "user", true), nil)

	_, err := svc.Patch(context.Background(), "u-1", models.UserPatchRequest{Role: strPtr("vendor")})

	assert.ErrorIs(t, err, users.ErrFraudPromotion)
	db.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	roles.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestPatchRejectsUnknownRole(t *testing.T) {
	db := new(MockUserDB)
	svc := newService(db, new(MockRoleCache), new(MockInventory))

	db.On("GetUserByID", mock.Anything, "u-1").
		Return(storedUser("u-1", "a@example.com", "user", false), nil)

	_, err := svc.Patch(context.Background(), "u-1", models.UserPatchRequest{Role: strPtr("superadmin")})

	assert.ErrorIs(t, err, users.ErrUnknownRole)
}

func TestPatchWithNoFieldsIsRefused(t *testing.T) {
	svc := newService(new(MockUserDB), new(MockRoleCache), new(MockInventory))

	_, err := svc.Patch(context.Background(), "u-1", models.UserPatchRequest{})

	assert.ErrorIs(t, err, users.ErrNothingToPatch)
}

func TestPatchRoleInvalidatesCache(t *testing.T) {
	db := new(MockUserDB)
	roles := new(MockRoleCache)
	inv := new(MockInventory)
	svc := newService(db, roles, inv)

	db.On("GetUserByID", mock.Anything, "u-1").
		Return(storedUser("u-1", "a@example.com", "user", false), nil)
	db.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Role == "vendor"
	})).Return(nil)
	roles.On("Invalidate", mock.Anything, "a@example.com").Return()

	updated, err := svc.Patch(context.Background(), "u-1", models.UserPatchRequest{Role: strPtr("vendor")})

	require.NoError(t, err)
	assert.Equal(t, "vendor", updated.Role)
	roles.AssertExpectations(t)
	inv.AssertNotCalled(t, "UnadvertiseVendor", mock.Anything, mock.Anything)
}

func TestFlaggingVendorWithdrawsInventory(t *testing.T) {
	db := new(MockUserDB)
	roles := new(MockRoleCache)
	inv := new(MockInventory)
	svc := newService(db, roles, inv)

	db.On("GetUserByID", mock.Anything, "v-1").
		Return(storedUser("v-1", "vendor@example.com", "vendor", false), nil)
	db.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.IsFraud && u.Role == "vendor"
	})).Return(nil)
	roles.On("Invalidate", mock.Anything, "vendor@example.com").Return()
	inv.On("UnadvertiseVendor", mock.Anything, "vendor@example.com").Return(nil)
	inv.On("WithdrawVendorInventory", mock.Anything, "vendor@example.com").Return(nil)

	updated, err := svc.Patch(context.Background(), "v-1", models.UserPatchRequest{IsFraud: boolPtr(true)})

	require.NoError(t, err)
	assert.True(t, updated.IsFraud)
	inv.AssertExpectations(t)
}

func TestFlaggingPlainUserLeavesInventoryAlone(t *testing.T) {
	db := new(MockUserDB)
	roles := new(MockRoleCache)
	inv := new(MockInventory)
	svc := newService(db, roles, inv)

	db.On("GetUserByID", mock.Anything, "u-2").
		Return(storedUser("u-2", "buyer@example.com", "user", false), nil)
	db.On("UpdateUser", mock.Anything, mock.Anything).Return(nil)
	roles.On("Invalidate", mock.Anything, "buyer@example.com").Return()

	_, err := svc.Patch(context.Background(), "u-2", models.UserPatchRequest{IsFraud: boolPtr(true)})

	require.NoError(t, err)
	inv.AssertNotCalled(t, "UnadvertiseVendor", mock.Anything, mock.Anything)
	inv.AssertNotCalled(t, "WithdrawVendorInventory", mock.Anything, mock.Anything)
}

func TestUnflaggingVendorDoesNotCascade(t *testing.T) {
	db := new(MockUserDB)
	roles := new(MockRoleCache)
	inv := new(MockInventory)
	svc := newService(db, roles, inv)

	db.On("GetUserByID", mock.Anything, "v-1").
		Return(storedUser("v-1", "vendor@example.com", "vendor", true), nil)
	db.On("UpdateUser", mock.Anything, mock.Anything).Return(nil)
	roles.On("Invalidate", mock.Anything, "vendor@example.com").Return()

	_, err := svc.Patch(context.Background(), "v-1", models.UserPatchRequest{IsFraud: boolPtr(false)})

	require.NoError(t, err)
	inv.AssertNotCalled(t, "UnadvertiseVendor", mock.Anything, mock.Anything)
	inv.AssertNotCalled(t, "WithdrawVendorInventory", mock.Anything, mock.Anything)
}

func TestPatchUnknownUser(t *testing.T) {
	db := new(MockUserDB)
	svc := newService(db, new(MockRoleCache), new(MockInventory))

	db.On("GetUserByID", mock.Anything, "missing").
		Return(nil, errors.New("sql: no rows in result set"))

	_, err := svc.Patch(context.Background(), "missing", models.UserPatchRequest{Role: strPtr("admin")})

	assert.Error(t, err)
}
