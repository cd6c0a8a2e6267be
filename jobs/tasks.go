package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeWelcomeEmail greets a freshly signed up account.
	TaskTypeWelcomeEmail = "mail:welcome"
	// TaskTypePasswordResetEmail carries a password reset link.
	TaskTypePasswordResetEmail = "mail:password-reset"
	// TaskTypeBookingConfirmedEmail confirms a paid booking.
	TaskTypeBookingConfirmedEmail = "mail:booking-confirmed"
)

// WelcomeEmailPayload describes a welcome mail.
type WelcomeEmailPayload struct {
	To   string `json:"to"`
	Name string `json:"name"`
}

// PasswordResetEmailPayload carries the single-use reset link.
type PasswordResetEmailPayload struct {
	To       string `json:"to"`
	ResetURL string `json:"resetUrl"`
}

// BookingConfirmedEmailPayload confirms a completed payment.
type BookingConfirmedEmailPayload struct {
	To       string `json:"to"`
	Name     string `json:"name"`
	TourName string `json:"tourName"`
}

// NewWelcomeEmailTask constructs an Asynq task.
func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWelcomeEmail, data), nil
}

// NewPasswordResetEmailTask constructs an Asynq task.
func NewPasswordResetEmailTask(payload PasswordResetEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePasswordResetEmail, data), nil
}

// NewBookingConfirmedEmailTask constructs an Asynq task.
func NewBookingConfirmedEmailTask(payload BookingConfirmedEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeBookingConfirmedEmail, data), nil
}
