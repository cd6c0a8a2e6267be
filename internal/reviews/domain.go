package reviews

import "time"

// Review is a user's rating of a tour. One review per (tour, user).
type Review struct {
	ID        int64     `json:"id"`
	TourID    int64     `json:"tourId"`
	UserID    int64     `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	UserPhoto string    `json:"userPhoto,omitempty"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateReviewParams carries a partial update; nil fields are untouched.
type UpdateReviewParams struct {
	Rating *int
	Review *string
}
