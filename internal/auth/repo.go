package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// PostgresRepository provides PostgreSQL backed account persistence.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const accountColumns = `id, name, email, photo, role, password_hash, password_changed_at,
	reset_token_hash, reset_token_expires, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var account Account
	var role string
	err := row.Scan(
		&account.ID, &account.Name, &account.Email, &account.Photo, &role,
		&account.PasswordHash, &account.PasswordChangedAt,
		&account.ResetTokenHash, &account.ResetTokenExpires,
		&account.IsActive, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	parsed, ok := ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("account %d: unknown role %q", account.ID, role)
	}
	account.Role = parsed
	return &account, nil
}

// FindActiveByID returns the active account with the given id. Soft-deleted
// accounts are excluded.
func (r *PostgresRepository) FindActiveByID(ctx context.Context, id int64) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users WHERE id = $1 AND is_active`, id)
	return scanAccount(row)
}

// FindActiveByEmail returns the active account with the given email.
func (r *PostgresRepository) FindActiveByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users WHERE email = $1 AND is_active`, email)
	return scanAccount(row)
}

// Create inserts a new account and returns its id.
func (r *PostgresRepository) Create(ctx context.Context, account Account) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, photo, role, password_hash, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		 RETURNING id`,
		account.Name, account.Email, account.Photo, string(account.Role), account.PasswordHash, account.IsActive,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: email taken", shared.ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

// UpdatePassword replaces the password hash and records when the secret
// changed.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, password_changed_at = $3, updated_at = now() WHERE id = $1`,
		id, passwordHash, changedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetResetToken stores the hashed reset token, overwriting any outstanding
// one.
func (r *PostgresRepository) SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET reset_token_hash = $2, reset_token_expires = $3, updated_at = now() WHERE id = $1`,
		id, tokenHash, expires)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ClearResetToken drops the stored reset token, if any.
func (r *PostgresRepository) ClearResetToken(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET reset_token_hash = NULL, reset_token_expires = NULL, updated_at = now() WHERE id = $1`, id)
	return err
}

// FindByResetToken looks up the active account holding an unexpired reset
// token with the given hash. The time filter makes an expired token
// indistinguishable from an unknown one.
func (r *PostgresRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users
		 WHERE reset_token_hash = $1 AND reset_token_expires > $2 AND is_active`,
		tokenHash, now)
	return scanAccount(row)
}
