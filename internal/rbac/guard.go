package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
)

type contextKey string

const roleKey contextKey = "resolved_role"

// ForbiddenPayload is the body of every deny decision. A role mismatch is a
// navigational dead end, so the payload always carries recovery links
// instead of a bare error string.
type ForbiddenPayload struct {
	Message   string `json:"message"`
	Home      string `json:"home"`
	Dashboard string `json:"dashboard"`
}

// UnauthorizedPayload preserves the originally requested location so the
// client can come back after login.
type UnauthorizedPayload struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

// Guard gates routes on the resolved role. It decides nothing until both
// the identity (from the auth middleware, which runs first) and the role
// (resolved here) have settled; a request never reaches an allow/deny
// decision with only one of the two known.
type Guard struct {
	Resolver *Resolver
	Logger   *logger.Logger
}

func NewGuard(resolver *Resolver, log *logger.Logger) *Guard {
	return &Guard{Resolver: resolver, Logger: log}
}

// RequireAuthenticated rejects requests with no settled identity, pointing
// the client at login with the requested location preserved.
func (g *Guard) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := auth.Email(r.Context())
		if email == "" {
			g.Logger.LogSecurity("UNAUTHENTICATED", fmt.Sprintf("denied %s %s", r.Method, r.URL.Path))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(UnauthorizedPayload{
				Message:  "authentication required",
				Redirect: "/login?from=" + url.QueryEscape(r.URL.RequestURI()),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ResolveRole resolves the caller's role once per request and stores it in
// the context. It runs after RequireAuthenticated, so the identity has
// already settled; resolution failure collapses to RoleNone inside the
// resolver and the downstream check denies.
func (g *Guard) ResolveRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := auth.Email(r.Context())
		role, err := g.Resolver.Resolve(r.Context(), email)
		if err != nil {
			role = RoleNone
		}
		ctx := context.WithValue(r.Context(), roleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole denies with a Forbidden payload unless the resolved role
// matches. The payload links home and to the caller's own dashboard so the
// denial is never a blank dead end.
func (g *Guard) RequireRole(expected Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role != expected {
				g.Logger.LogSecurity("FORBIDDEN", fmt.Sprintf("role %s denied %s-only route %s", role, expected, r.URL.Path))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(ForbiddenPayload{
					Message:   fmt.Sprintf("this area is restricted to %s accounts", expected),
					Home:      "/",
					Dashboard: role.DashboardPath(),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithRole injects a resolved role directly, for handler tests that bypass
// the guard chain.
func WithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

// RoleFromContext returns the role settled by ResolveRole, or RoleNone when
// no resolution ran.
func RoleFromContext(ctx context.Context) Role {
	if role, ok := ctx.Value(roleKey).(Role); ok {
		return role
	}
	return RoleNone
}
