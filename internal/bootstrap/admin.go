package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Regera24/AstraMindProject/internal/config"
	"github.com/Regera24/AstraMindProject/internal/domain"
	"github.com/Regera24/AstraMindProject/internal/password"
	"github.com/Regera24/AstraMindProject/internal/repository"
)

// EnsureAdmin creates the default admin account on startup if missing. The
// hook is a no-op when admin credentials are not configured.
func EnsureAdmin(lc fx.Lifecycle, cfg config.Config, accounts repository.AccountRepository, node *snowflake.Node, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return ensureAdmin(ctx, cfg, accounts, node, logger)
		},
	})
}

func ensureAdmin(ctx context.Context, cfg config.Config, accounts repository.AccountRepository, node *snowflake.Node, logger *zap.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || strings.TrimSpace(cfg.AdminPassword) == "" {
		if logger != nil {
			logger.Info("admin bootstrap skipped, credentials not configured")
		}
		return nil
	}

	if _, err := accounts.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("bootstrap lookup admin: %w", err)
	}

	hashed, err := password.Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap hash password: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:        node.Generate().Int64(),
		Username:  cfg.AdminUsername,
		FullName:  "Administrator",
		Email:     email,
		Password:  hashed,
		IsActive:  true,
		Role:      domain.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := accounts.Create(ctx, account)
	if err != nil {
		return fmt.Errorf("bootstrap create admin: %w", err)
	}

	if logger != nil {
		logger.Info("bootstrap admin account created",
			zap.String("email", created.Email),
			zap.Int64("account_id", created.ID),
		)
	}
	return nil
}
