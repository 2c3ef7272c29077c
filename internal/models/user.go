package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID          string    `bun:"id,pk" json:"_id"`
	Email       string    `bun:"email,unique,notnull" json:"email"`
	DisplayName string    `bun:"display_name,notnull" json:"displayName"`
	PhotoURL    string    `bun:"photo_url,nullzero" json:"photoURL,omitempty"`
	Role        string    `bun:"role,notnull" json:"role"`
	IsFraud     bool      `bun:"is_fraud,notnull,default:false" json:"isFraud"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// LoginRequest carries the profile fields a client reports after sign-in.
// The identity itself comes from the token, not from this payload.
type LoginRequest struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// UserPatchRequest carries the admin-initiated management mutations. Role
// and fraud flag are the only fields the management view may touch.
type UserPatchRequest struct {
	Role    *string `json:"role,omitempty"`
	IsFraud *bool   `json:"isFraud,omitempty"`
}

type RoleResponse struct {
	Role string `json:"role"`
}
