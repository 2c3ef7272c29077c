package rbac

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-booking/internal/logger"
)

// roleCacheTTL keeps role lookups cheap without letting an admin-initiated
// role change stay invisible for long.
const roleCacheTTL = 60 * time.Second

var ErrNoIdentity = errors.New("role resolution requires an identity")

// RoleStore is the authoritative source of roles, backed by the users table.
type RoleStore interface {
	GetRoleByEmail(ctx context.Context, email string) (string, error)
}

// Resolver resolves an authenticated email to a Role, consulting a Redis
// cache before the store. Resolution failure is not an error surface for
// callers: a lookup that cannot be completed resolves to RoleNone, the most
// restrictive answer, never a stale cached value.
type Resolver struct {
	Store  RoleStore
	Client *redis.Client
	Logger *logger.Logger
}

func NewResolver(store RoleStore, client *redis.Client, log *logger.Logger) *Resolver {
	return &Resolver{Store: store, Client: client, Logger: log}
}

func roleCacheKey(email string) string {
	return "role:" + email
}

// Resolve returns the role for email. An empty email is refused before any
// request is fired; the query is keyed by identity and must not run for an
// unknown one.
func (r *Resolver) Resolve(ctx context.Context, email string) (Role, error) {
	if email == "" {
		return RoleNone, ErrNoIdentity
	}

	if r.Client != nil {
		cached, err := r.Client.Get(ctx, roleCacheKey(email)).Result()
		if err == nil {
			return ParseRole(cached), nil
		}
		if err != redis.Nil {
			r.Logger.Warn("RBAC", fmt.Sprintf("role cache read failed for %s: %v", email, err))
		}
	}

	stored, err := r.Store.GetRoleByEmail(ctx, email)
	if err != nil {
		r.Logger.Error("RBAC", fmt.Sprintf("role lookup failed for %s: %v", email, err))
		return RoleNone, nil
	}

	role := ParseRole(stored)

	if r.Client != nil {
		if err := r.Client.Set(ctx, roleCacheKey(email), role.String(), roleCacheTTL).Err(); err != nil {
			r.Logger.Warn("RBAC", fmt.Sprintf("role cache write failed for %s: %v", email, err))
		}
	}

	return role, nil
}

// Invalidate drops the cached role after an admin changes it, so the next
// guard decision sees the new value.
func (r *Resolver) Invalidate(ctx context.Context, email string) {
	if r.Client == nil {
		return
	}
	if err := r.Client.Del(ctx, roleCacheKey(email)).Err(); err != nil {
		r.Logger.Warn("RBAC", fmt.Sprintf("role cache invalidation failed for %s: %v", email, err))
	}
}
