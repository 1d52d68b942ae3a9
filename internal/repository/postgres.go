package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Regera24/AstraMindProject/internal/domain"
)

// Compile-time interface assertion.
var _ AccountRepository = (*PostgresAccountRepo)(nil)

const accountColumns = `id, username, full_name, email, password, is_active, gender, birth_date, otp, avatar_url, phone_number, role, created_at, updated_at`

// PostgresAccountRepo implements AccountRepository over pgx.
type PostgresAccountRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAccountRepo(pool *pgxpool.Pool) *PostgresAccountRepo {
	return &PostgresAccountRepo{pool: pool}
}

func (r *PostgresAccountRepo) FindByID(ctx context.Context, accountID int64) (domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID)
	return scanAccount(row, "find account by id")
}

func (r *PostgresAccountRepo) FindByUsername(ctx context.Context, username string) (domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
	return scanAccount(row, "find account by username")
}

func (r *PostgresAccountRepo) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row, "find account by email")
}

func (r *PostgresAccountRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username)
}

func (r *PostgresAccountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email)
}

func (r *PostgresAccountRepo) ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE phone_number = $1)`, phone)
}

func (r *PostgresAccountRepo) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, username, full_name, email, password, is_active, gender, birth_date, otp, avatar_url, phone_number, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+accountColumns,
		account.ID, account.Username, account.FullName, account.Email,
		account.Password, account.IsActive, account.Gender, account.BirthDate,
		account.Otp, account.AvatarURL, account.PhoneNumber, account.Role.String(),
	)
	return scanAccount(row, "create account")
}

func (r *PostgresAccountRepo) SetOtp(ctx context.Context, accountID int64, code string) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE accounts SET otp = $2, updated_at = now() WHERE id = $1`, accountID, code); err != nil {
		return fmt.Errorf("set otp: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepo) ClearOtp(ctx context.Context, accountID int64) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE accounts SET otp = '', updated_at = now() WHERE id = $1`, accountID); err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepo) UpdatePassword(ctx context.Context, accountID int64, passwordHash string) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE accounts SET password = $2, otp = '', updated_at = now() WHERE id = $1`, accountID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepo) exists(ctx context.Context, query, arg string) (bool, error) {
	var found bool
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return found, nil
}

func scanAccount(row pgx.Row, op string) (domain.Account, error) {
	var acc domain.Account
	var role string
	err := row.Scan(
		&acc.ID, &acc.Username, &acc.FullName, &acc.Email, &acc.Password,
		&acc.IsActive, &acc.Gender, &acc.BirthDate, &acc.Otp, &acc.AvatarURL,
		&acc.PhoneNumber, &role, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Account{}, pgx.ErrNoRows
		}
		return domain.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	acc.Role = domain.Role(role)
	return acc, nil
}
