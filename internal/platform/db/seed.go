package db

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedback360/internal/domain/auth"
	"feedback360/internal/platform/config"
)

// Seed ensures the bootstrap HR account exists so a fresh deployment can
// log in and create the first cycle. Everything else is created through
// the API.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	return ensureHRUser(ctx, pool, cfg.SeedHREmail, cfg.SeedHRPassword)
}

func ensureHRUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	store := auth.NewStore(pool)
	return store.CreateUser(ctx, uuid.NewString(), email, hash, auth.RoleHR, "")
}
