package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// Repository provides PostgreSQL backed review persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const reviewColumns = `r.id, r.tour_id, r.user_id, u.name, u.photo, r.rating, r.review, r.created_at, r.updated_at`

const reviewSelect = `SELECT ` + reviewColumns + `
	FROM reviews r JOIN users u ON u.id = r.user_id`

func scanReview(row pgx.Row) (*Review, error) {
	var review Review
	err := row.Scan(
		&review.ID, &review.TourID, &review.UserID, &review.UserName, &review.UserPhoto,
		&review.Rating, &review.Review, &review.CreatedAt, &review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

// ListByTour returns all reviews for a tour, newest first, with author name
// and photo joined in.
func (r *Repository) ListByTour(ctx context.Context, tourID int64) ([]Review, error) {
	rows, err := r.pool.Query(ctx, reviewSelect+` WHERE r.tour_id = $1 ORDER BY r.created_at DESC`, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	return reviews, rows.Err()
}

// Get returns a single review.
func (r *Repository) Get(ctx context.Context, id int64) (*Review, error) {
	row := r.pool.QueryRow(ctx, reviewSelect+` WHERE r.id = $1`, id)
	return scanReview(row)
}

// Create inserts a review. A second review by the same user for the same
// tour violates the unique index and maps to ErrDuplicate.
func (r *Repository) Create(ctx context.Context, review Review) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO reviews (tour_id, user_id, rating, review, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 RETURNING id`,
		review.TourID, review.UserID, review.Rating, review.Review,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return 0, fmt.Errorf("%w: tour already reviewed", shared.ErrDuplicate)
			case "23503":
				return 0, fmt.Errorf("%w: tour", shared.ErrNotFound)
			}
		}
		return 0, err
	}
	return id, nil
}

// Update applies a partial update to a review.
func (r *Repository) Update(ctx context.Context, id int64, params UpdateReviewParams) error {
	set := []string{"updated_at = now()"}
	args := []any{id}
	if params.Rating != nil {
		args = append(args, *params.Rating)
		set = append(set, fmt.Sprintf("rating = $%d", len(args)))
	}
	if params.Review != nil {
		args = append(args, *params.Review)
		set = append(set, fmt.Sprintf("review = $%d", len(args)))
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE reviews SET `+strings.Join(set, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a review.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RecalcTourRatings recomputes the tour's ratings aggregate from its
// reviews. A tour with no reviews falls back to the 4.5/0 defaults.
func (r *Repository) RecalcTourRatings(ctx context.Context, tourID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tours SET
			ratings_quantity = stats.cnt,
			ratings_average = round(stats.avg * 10) / 10,
			updated_at = now()
		 FROM (
			SELECT coalesce(count(*), 0) AS cnt, coalesce(avg(rating), 4.5) AS avg
			FROM reviews WHERE tour_id = $1
		 ) AS stats
		 WHERE tours.id = $1`, tourID)
	return err
}
