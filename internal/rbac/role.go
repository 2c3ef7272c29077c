package rbac

// Role is the platform-wide permission variant. RoleNone is the zero value
// and the most restrictive: it is what an unresolved, unknown, or failed
// lookup collapses to, so a guard that sees it always denies.
type Role int

const (
	RoleNone Role = iota
	RoleUser
	RoleVendor
	RoleAdmin
)

// ParseRole normalizes a stored role string. Anything unrecognized maps to
// RoleNone rather than erroring; a bad row must never widen access.
func ParseRole(s string) Role {
	switch s {
	case "user":
		return RoleUser
	case "vendor":
		return RoleVendor
	case "admin":
		return RoleAdmin
	default:
		return RoleNone
	}
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleVendor:
		return "vendor"
	case RoleAdmin:
		return "admin"
	default:
		return "none"
	}
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleVendor || r == RoleAdmin
}

// DashboardPath returns the role-appropriate landing page, used by the
// Forbidden payload's recovery links. The switch is exhaustive over the
// variant so adding a role is a single-point change.
func (r Role) DashboardPath() string {
	switch r {
	case RoleUser:
		return "/dashboard/my-booked-tickets"
	case RoleVendor:
		return "/dashboard/my-added-tickets"
	case RoleAdmin:
		return "/dashboard/manage-tickets"
	default:
		return "/"
	}
}
