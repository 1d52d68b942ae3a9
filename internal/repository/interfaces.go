package repository

import (
	"context"
	"time"

	"github.com/Regera24/AstraMindProject/internal/domain"
)

// AccountRepository exposes the slice of account persistence the auth core needs.
type AccountRepository interface {
	FindByID(ctx context.Context, accountID int64) (domain.Account, error)
	FindByUsername(ctx context.Context, username string) (domain.Account, error)
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error)
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	SetOtp(ctx context.Context, accountID int64, code string) error
	ClearOtp(ctx context.Context, accountID int64) error
	// UpdatePassword sets the new password hash and clears any stored OTP in
	// the same statement.
	UpdatePassword(ctx context.Context, accountID int64, passwordHash string) error
}

// SessionStore holds the single currently-valid refresh token per account.
// Set overwrites any prior value for the key; last write wins.
type SessionStore interface {
	Set(ctx context.Context, accountID int64, token string, ttl time.Duration) error
	// Get returns the live refresh token, or "" when none is stored.
	Get(ctx context.Context, accountID int64) (string, error)
	Delete(ctx context.Context, accountID int64) error
	Exists(ctx context.Context, accountID int64) (bool, error)
}
