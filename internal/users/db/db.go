package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-booking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetRoleByEmail backs the role resolver.
func (d *DB) GetRoleByEmail(ctx context.Context, email string) (string, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Column("role").
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (d *DB) CreateUser(ctx context.Context, user models.User) error {
	_, err := d.Bun.NewInsert().Model(&user).Exec(ctx)
	return err
}

// UpsertUser records a login: new identities are inserted with the default
// role, returning identities refresh their profile fields only.
func (d *DB) UpsertUser(ctx context.Context, user models.User) error {
	_, err := d.Bun.NewInsert().
		Model(&user).
		On("CONFLICT (email) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("photo_url = EXCLUDED.photo_url").
		Exec(ctx)
	return err
}

func (d *DB) UpdateUser(ctx context.Context, user models.User) error {
	_, err := d.Bun.NewUpdate().
		Model(&user).
		Column("role", "is_fraud").
		Where("id = ?", user.ID).
		Exec(ctx)
	return err
}

func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := d.Bun.NewSelect().
		Model(&users).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}
