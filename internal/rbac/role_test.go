package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-booking/internal/rbac"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, rbac.RoleUser, rbac.ParseRole("user"))
	assert.Equal(t, rbac.RoleVendor, rbac.ParseRole("vendor"))
	assert.Equal(t, rbac.RoleAdmin, rbac.ParseRole("admin"))

	// Anything unrecognized must collapse to the most restrictive answer.
	assert.Equal(t, rbac.RoleNone, rbac.ParseRole(""))
	assert.Equal(t, rbac.RoleNone, rbac.ParseRole("Admin"))
	assert.Equal(t, rbac.RoleNone, rbac.ParseRole("superuser"))
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "user", rbac.RoleUser.String())
	assert.Equal(t, "vendor", rbac.RoleVendor.String())
	assert.Equal(t, "admin", rbac.RoleAdmin.String())
	assert.Equal(t, "none", rbac.RoleNone.String())
}

func TestRoleValid(t *testing.T) {
	assert.False(t, rbac.RoleNone.Valid())
	assert.True(t, rbac.RoleUser.Valid())
	assert.True(t, rbac.RoleVendor.Valid())
	assert.True(t, rbac.RoleAdmin.Valid())
}

func TestDashboardPath(t *testing.T) {
	assert.Equal(t, "/dashboard/my-booked-tickets", rbac.RoleUser.DashboardPath())
	assert.Equal(t, "/dashboard/my-added-tickets", rbac.RoleVendor.DashboardPath())
	assert.Equal(t, "/dashboard/manage-tickets", rbac.RoleAdmin.DashboardPath())
	assert.Equal(t, "/", rbac.RoleNone.DashboardPath())
}
