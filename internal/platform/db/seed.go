package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrms/internal/domain/auth"
	"hrms/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return err
	}
	return ensureDefaultBonusPolicy(ctx, pool)
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		slog.Info("seed admin skipped: email or password not configured")
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := pool.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, role, status)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, email, hash, auth.RoleAdmin, auth.UserStatusActive).Scan(&id); err != nil {
		return err
	}
	slog.Info("seeded admin user", "email", email, "userId", id)
	return nil
}

func ensureDefaultBonusPolicy(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM bonus_policies").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := pool.Exec(ctx, `
    INSERT INTO bonus_policies (name, description, policy_type, ratio_base, ratio_team, ratio_personal, ratio_company, is_active, is_default)
    VALUES ('Standard', 'Default performance bonus policy', 'performance', 50, 20, 20, 10, true, true)
  `)
	return err
}
