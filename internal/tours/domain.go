package tours

import "time"

// Difficulty grades a tour.
type Difficulty string

// Accepted difficulty values.
const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// ParseDifficulty validates a difficulty tag.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return Difficulty(s), true
	}
	return "", false
}

// Location is a point on a tour itinerary. Day 0 marks the start location.
type Location struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     string  `json:"address,omitempty"`
	Description string  `json:"description,omitempty"`
	Day         int     `json:"day,omitempty"`
}

// Tour is a bookable trip.
type Tour struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	Slug            string      `json:"slug"`
	Duration        int         `json:"duration"`
	MaxGroupSize    int         `json:"maxGroupSize"`
	Difficulty      Difficulty  `json:"difficulty"`
	RatingsAverage  float64     `json:"ratingsAverage"`
	RatingsQuantity int         `json:"ratingsQuantity"`
	Price           float64     `json:"price"`
	PriceDiscount   *float64    `json:"priceDiscount,omitempty"`
	Summary         string      `json:"summary"`
	Description     string      `json:"description,omitempty"`
	ImageCover      string      `json:"imageCover"`
	Images          []string    `json:"images,omitempty"`
	StartDates      []time.Time `json:"startDates,omitempty"`
	Secret          bool        `json:"-"`
	StartLocation   Location    `json:"startLocation"`
	Locations       []Location  `json:"locations,omitempty"`
	GuideIDs        []int64     `json:"guideIds,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// DurationWeeks derives the tour length in weeks.
func (t *Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

// CreateTourParams are the fields accepted when creating a tour.
type CreateTourParams struct {
	Name          string
	Duration      int
	MaxGroupSize  int
	Difficulty    Difficulty
	Price         float64
	PriceDiscount *float64
	Summary       string
	Description   string
	ImageCover    string
	Images        []string
	StartDates    []time.Time
	Secret        bool
	StartLocation Location
	Locations     []Location
	GuideIDs      []int64
}

// UpdateTourParams carries partial updates. Only non-nil fields are
// written, so legitimate falsy values (zero price discount, empty
// description) survive.
type UpdateTourParams struct {
	Name          *string
	Duration      *int
	MaxGroupSize  *int
	Difficulty    *Difficulty
	Price         *float64
	PriceDiscount *float64
	Summary       *string
	Description   *string
	ImageCover    *string
	Images        *[]string
	StartDates    *[]time.Time
	Secret        *bool
	StartLocation *Location
	Locations     *[]Location
	GuideIDs      *[]int64
}

// Stats aggregates tours per difficulty.
type Stats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// MonthlyPlanEntry counts tour starts per month of a year.
type MonthlyPlanEntry struct {
	Month      int      `json:"month"`
	TourStarts int      `json:"numTourStarts"`
	Tours      []string `json:"tours"`
}

// Distance is a tour's distance from a reference point.
type Distance struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}
