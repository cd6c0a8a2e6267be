package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// Repository provides PostgreSQL backed booking persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const bookingColumns = `b.id, b.reference, b.tour_id, t.name, b.user_id, b.price_cents, b.status, b.session_id, b.created_at, b.updated_at`

const bookingSelect = `SELECT ` + bookingColumns + `
	FROM bookings b JOIN tours t ON t.id = b.tour_id`

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b      Booking
		status string
	)
	err := row.Scan(
		&b.ID, &b.Reference, &b.TourID, &b.TourName, &b.UserID,
		&b.PriceCents, &status, &b.SessionID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("booking %d has unknown status %q", b.ID, status)
	}
	b.Status = parsed
	return &b, nil
}

// Create inserts a pending booking and returns its id.
func (r *Repository) Create(ctx context.Context, booking Booking) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO bookings (reference, tour_id, user_id, price_cents, status, session_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		 RETURNING id`,
		booking.Reference, booking.TourID, booking.UserID, booking.PriceCents,
		string(booking.Status), booking.SessionID,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, fmt.Errorf("%w: tour", shared.ErrNotFound)
		}
		return 0, err
	}
	return id, nil
}

// Get returns a single booking.
func (r *Repository) Get(ctx context.Context, id int64) (*Booking, error) {
	row := r.pool.QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id)
	return scanBooking(row)
}

// GetByReference returns the booking with the given checkout reference.
func (r *Repository) GetByReference(ctx context.Context, reference uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, bookingSelect+` WHERE b.reference = $1`, reference)
	return scanBooking(row)
}

// ListByUser returns a user's bookings, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, bookingSelect+` WHERE b.user_id = $1 ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// SetSession records the provider session opened for a booking.
func (r *Repository) SetSession(ctx context.Context, id int64, sessionID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE bookings SET session_id = $2, updated_at = now() WHERE id = $1`, id, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Transition moves a booking from pending to a terminal status. The WHERE
// clause keeps the move one-shot; a replay matches zero rows.
func (r *Repository) Transition(ctx context.Context, reference uuid.UUID, to Status) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE bookings SET status = $2, updated_at = now()
		 WHERE reference = $1 AND status = $3`,
		reference, string(to), string(StatusPaymentPending))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
