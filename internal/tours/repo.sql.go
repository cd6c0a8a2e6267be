package tours

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// ListColumns maps exposed API field names to tour columns for the list
// query descriptor.
var ListColumns = map[string]string{
	"name":            "name",
	"duration":        "duration",
	"maxGroupSize":    "max_group_size",
	"difficulty":      "difficulty",
	"ratingsAverage":  "ratings_average",
	"ratingsQuantity": "ratings_quantity",
	"price":           "price",
	"createdAt":       "created_at",
}

// Repository provides PostgreSQL backed tour persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const tourColumns = `id, name, slug, duration, max_group_size, difficulty,
	ratings_average, ratings_quantity, price, price_discount, summary, description,
	image_cover, images, start_dates, secret, start_location, locations, guide_ids,
	created_at, updated_at`

func scanTour(row pgx.Row) (*Tour, error) {
	var t Tour
	var difficulty string
	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize, &difficulty,
		&t.RatingsAverage, &t.RatingsQuantity, &t.Price, &t.PriceDiscount,
		&t.Summary, &t.Description, &t.ImageCover, &t.Images, &t.StartDates,
		&t.Secret, &t.StartLocation, &t.Locations, &t.GuideIDs,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	t.Difficulty = Difficulty(difficulty)
	return &t, nil
}

// List returns a page of non-secret tours matching the descriptor plus the
// total match count. The page and count queries run concurrently.
func (r *Repository) List(ctx context.Context, q shared.ListQuery) ([]Tour, int, error) {
	where, order, args := q.Clauses(1)
	filter := "NOT secret"
	if where != "" {
		filter += " AND " + where
	}
	if order == "" {
		order = "created_at DESC"
	}

	pageSQL := fmt.Sprintf(
		`SELECT %s FROM tours WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		tourColumns, filter, order, q.Size(), q.Offset())
	countSQL := `SELECT count(*) FROM tours WHERE ` + filter

	var (
		tours []Tour
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, pageSQL, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			t, err := scanTour(rows)
			if err != nil {
				return err
			}
			tours = append(tours, *t)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return r.pool.QueryRow(gctx, countSQL, args...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return tours, total, nil
}

// Get returns a tour by id, secret ones included (detail pages may be
// reached by direct link).
func (r *Repository) Get(ctx context.Context, id int64) (*Tour, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tourColumns+` FROM tours WHERE id = $1`, id)
	return scanTour(row)
}

// GetBySlug returns a non-secret tour by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Tour, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tourColumns+` FROM tours WHERE slug = $1 AND NOT secret`, slug)
	return scanTour(row)
}

// Create inserts a tour and returns its id.
func (r *Repository) Create(ctx context.Context, t Tour) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tours (name, slug, duration, max_group_size, difficulty,
			ratings_average, ratings_quantity, price, price_discount, summary, description,
			image_cover, images, start_dates, secret, start_location, locations, guide_ids,
			created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now(), now())
		 RETURNING id`,
		t.Name, t.Slug, t.Duration, t.MaxGroupSize, string(t.Difficulty),
		t.RatingsAverage, t.RatingsQuantity, t.Price, t.PriceDiscount, t.Summary, t.Description,
		t.ImageCover, t.Images, t.StartDates, t.Secret, t.StartLocation, t.Locations, t.GuideIDs,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: tour name taken", shared.ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

// Update applies a partial update built from explicitly provided fields.
func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	set := make([]string, 0, len(updates)+1)
	args := make([]any, 0, len(updates)+1)
	args = append(args, id)
	for column, value := range updates {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	set = append(set, "updated_at = now()")

	tag, err := r.pool.Exec(ctx,
		`UPDATE tours SET `+strings.Join(set, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: tour name taken", shared.ErrDuplicate)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a tour.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Stats aggregates highly rated tours per difficulty, cheapest first.
func (r *Repository) Stats(ctx context.Context) ([]Stats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT upper(difficulty), count(*), coalesce(sum(ratings_quantity), 0),
			coalesce(avg(ratings_average), 0), coalesce(avg(price), 0),
			coalesce(min(price), 0), coalesce(max(price), 0)
		 FROM tours
		 WHERE NOT secret AND ratings_average >= 4.5
		 GROUP BY difficulty
		 ORDER BY avg(price)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []Stats
	for rows.Next() {
		var s Stats
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings, &s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// MonthlyPlan counts tour starts per month of the given year, busiest
// months first.
func (r *Repository) MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlanEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT extract(month FROM d)::int AS month, count(*) AS starts,
			array_agg(name ORDER BY name)
		 FROM tours t, unnest(t.start_dates) AS d
		 WHERE NOT t.secret
		   AND d >= make_date($1, 1, 1)
		   AND d < make_date($1 + 1, 1, 1)
		 GROUP BY 1
		 ORDER BY starts DESC, month
		 LIMIT 12`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plan []MonthlyPlanEntry
	for rows.Next() {
		var entry MonthlyPlanEntry
		if err := rows.Scan(&entry.Month, &entry.TourStarts, &entry.Tours); err != nil {
			return nil, err
		}
		plan = append(plan, entry)
	}
	return plan, rows.Err()
}

// haversineKm computes the great-circle distance in kilometers between the
// query point and a tour's start location. The least/greatest clamp guards
// acos against floating point drift.
const haversineKm = `6378.1 * acos(least(1.0, greatest(-1.0,
	sin(radians($1)) * sin(radians((start_location->>'lat')::float8)) +
	cos(radians($1)) * cos(radians((start_location->>'lat')::float8)) *
	cos(radians((start_location->>'lng')::float8) - radians($2)))))`

// Within returns non-secret tours starting within radiusKm of the point.
func (r *Repository) Within(ctx context.Context, lat, lng, radiusKm float64) ([]Tour, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tourColumns+` FROM tours
		 WHERE NOT secret AND `+haversineKm+` <= $3
		 ORDER BY name`, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tours []Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, *t)
	}
	return tours, rows.Err()
}

// Distances returns each non-secret tour's distance from the point,
// multiplied into the requested unit, nearest first.
func (r *Repository) Distances(ctx context.Context, lat, lng, multiplier float64) ([]Distance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, `+haversineKm+` * $3 AS distance
		 FROM tours
		 WHERE NOT secret
		 ORDER BY distance`, lat, lng, multiplier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var distances []Distance
	for rows.Next() {
		var d Distance
		if err := rows.Scan(&d.ID, &d.Name, &d.Distance); err != nil {
			return nil, err
		}
		distances = append(distances, d)
	}
	return distances, rows.Err()
}
