package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/rbac"
)

var (
	ErrUnknownRole    = errors.New("unknown role")
	ErrFraudPromotion = errors.New("fraud-flagged users cannot change role")
	ErrNothingToPatch = errors.New("patch carries no changes")
)

type UserDBLayer interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertUser(ctx context.Context, user models.User) error
	UpdateUser(ctx context.Context, user models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

// RoleCache invalidates the resolver's cached role after a change, so the
// next guard decision reads the new value instead of waiting out the TTL.
type RoleCache interface {
	Invalidate(ctx context.Context, email string)
}

// InventoryWithdrawer pulls a vendor's listings off the public surfaces when
// the vendor is flagged as fraudulent.
type InventoryWithdrawer interface {
	UnadvertiseVendor(ctx context.Context, vendorEmail string) error
	WithdrawVendorInventory(ctx context.Context, vendorEmail string) error
}

type UserService struct {
	DB      UserDBLayer
	Roles   RoleCache
	Tickets InventoryWithdrawer
	Logger  *logger.Logger
}

func NewUserService(db UserDBLayer, roles RoleCache, tickets InventoryWithdrawer, log *logger.Logger) *UserService {
	return &UserService{DB: db, Roles: roles, Tickets: tickets, Logger: log}
}

// RegisterLogin upserts the identity on every sign-in. New users start as
// plain users; returning users keep their stored role and fraud flag.
func (s *UserService) RegisterLogin(ctx context.Context, email, displayName, photoURL string) error {
	user := models.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		Role:        rbac.RoleUser.String(),
		CreatedAt:   time.Now(),
	}
	if err := s.DB.UpsertUser(ctx, user); err != nil {
		return fmt.Errorf("failed to register login for %s: %w", email, err)
	}
	return nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.DB.ListUsers(ctx)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.DB.GetUserByEmail(ctx, email)
}

// Patch applies the admin management mutations to a user. A role change on
// a fraud-flagged user is refused: flagging is meant to strip capability,
// and a later promotion would silently restore it.
func (s *UserService) Patch(ctx context.Context, userID string, patch models.UserPatchRequest) (*models.User, error) {
	if patch.Role == nil && patch.IsFraud == nil {
		return nil, ErrNothingToPatch
	}

	user, err := s.DB.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %s not found: %w", userID, err)
	}

	if patch.Role != nil {
		if user.IsFraud {
			return nil, ErrFraudPromotion
		}
		role := rbac.ParseRole(*patch.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, *patch.Role)
		}
		user.Role = role.String()
	}

	wasFraud := user.IsFraud
	if patch.IsFraud != nil {
		user.IsFraud = *patch.IsFraud
	}

	if err := s.DB.UpdateUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", userID, err)
	}

	// The guard must not keep honoring the old role for up to a TTL.
	s.Roles.Invalidate(ctx, user.Email)

	// Flagging a vendor withdraws their inventory from every public surface.
	if patch.IsFraud != nil && user.IsFraud && !wasFraud && user.Role == rbac.RoleVendor.String() {
		if err := s.Tickets.UnadvertiseVendor(ctx, user.Email); err != nil {
			s.Logger.Error("USER", fmt.Sprintf("failed to unadvertise fraud vendor %s: %v", user.Email, err))
		}
		if err := s.Tickets.WithdrawVendorInventory(ctx, user.Email); err != nil {
			s.Logger.Error("USER", fmt.Sprintf("failed to withdraw inventory of fraud vendor %s: %v", user.Email, err))
		}
		s.Logger.LogSecurity("FRAUD", fmt.Sprintf("vendor %s flagged, inventory withdrawn", user.Email))
	}

	s.Logger.Info("USER", fmt.Sprintf("user %s patched (role=%s, fraud=%v)", userID, user.Role, user.IsFraud))
	return user, nil
}
