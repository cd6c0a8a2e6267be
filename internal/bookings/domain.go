package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks a booking through the payment lifecycle.
type Status string

// Booking statuses. A booking is created pending and moves exactly once to
// a terminal state; replayed webhook events are no-ops.
const (
	StatusPaymentPending   Status = "PAYMENT_PENDING"
	StatusPaymentCompleted Status = "PAYMENT_COMPLETED"
	StatusPaymentRejected  Status = "PAYMENT_REJECTED"
	StatusCancelled        Status = "CANCELLED"
)

// ParseStatus validates a stored status tag.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPaymentPending, StatusPaymentCompleted, StatusPaymentRejected, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// Booking records a user's purchase of a tour. Price is snapshotted in
// cents at checkout time so later tour price changes leave history intact.
type Booking struct {
	ID         int64     `json:"id"`
	Reference  uuid.UUID `json:"reference"`
	TourID     int64     `json:"tourId"`
	TourName   string    `json:"tourName,omitempty"`
	UserID     int64     `json:"userId"`
	PriceCents int64     `json:"priceCents"`
	Status     Status    `json:"status"`
	SessionID  string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
