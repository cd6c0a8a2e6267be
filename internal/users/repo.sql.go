package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/wayfarer-app/wayfarer/internal/auth"
	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// ListColumns maps API field names to SQL columns for user listings.
var ListColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"active":    "is_active",
	"createdAt": "created_at",
}

// Repository provides PostgreSQL backed account administration. It shares
// the users table with the credential store but only ever touches profile
// columns.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, photo, role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var (
		u    User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	parsed, ok := auth.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("account %d has unknown role %q", u.ID, role)
	}
	u.Role = parsed
	return &u, nil
}

// List returns a page of users plus the unpaginated total. Page rows and the
// count run concurrently on the pool.
func (r *Repository) List(ctx context.Context, query shared.ListQuery) ([]User, int, error) {
	where, order, args := query.Clauses(1)
	cond := ""
	if where != "" {
		cond = " WHERE " + where
	}
	if order == "" {
		order = "created_at DESC"
	}

	var (
		users []User
		total int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sql := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY %s LIMIT %d OFFSET %d`,
			userColumns, cond, order, query.Size(), query.Offset())
		rows, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, *u)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT count(*) FROM users`+cond, args...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Get returns a single user.
func (r *Repository) Get(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Update applies a partial update built from the given column/value map.
func (r *Repository) Update(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	set := []string{"updated_at = now()"}
	args := []any{id}
	for column, value := range fields {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET `+strings.Join(set, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: email already registered", shared.ErrDuplicate)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes the account. The row stays so historical bookings
// and reviews keep their author.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the account row entirely. Admin only.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: account has bookings or reviews", shared.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
